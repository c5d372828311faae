// Package refresh runs the periodic cycle that turns a subreddit's hot posts
// into a published snapshot of summarized stories.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/robfig/cron/v3"

	"github.com/pep299/subreddit-digest/internal/metrics"
	"github.com/pep299/subreddit-digest/internal/model"
	"github.com/pep299/subreddit-digest/internal/snapshot"
	"github.com/pep299/subreddit-digest/internal/summary"
)

const persistTimeout = 30 * time.Second

// Source lists ranked posts and fetches their comment threads
type Source interface {
	ListTopPosts(ctx context.Context, channel string, limit int) ([]model.Post, error)
	GetThread(ctx context.Context, postID string) (*model.Thread, error)
}

// Options configures a refresh job
type Options struct {
	Channel        string
	BatchSize      int
	FetchTimeout   time.Duration
	MaxConcurrency int
	PublishEmpty   bool
}

// Report describes one finished refresh cycle
type Report struct {
	Channel    string    `json:"channel"`
	Generation uint64    `json:"generation"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	BatchSize  int       `json:"batch_size"`
	Attempts   int       `json:"attempts"`
	Failures   int       `json:"failures"`
	Skipped    int       `json:"skipped"`
	Stories    int       `json:"stories"`
	Outcome    string    `json:"outcome"`
	Published  bool      `json:"published"`
	Error      string    `json:"error,omitempty"`
}

// Job owns the refresh schedule and publishes into a live snapshot cell
type Job struct {
	source    Source
	extractor *summary.Extractor
	live      *snapshot.Live
	store     snapshot.Store
	opts      Options
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	initial sync.WaitGroup

	// Saves are serialized so an older cycle never overwrites a newer one
	persistMu sync.Mutex
	persisted uint64

	lastReport atomic.Pointer[Report]
}

// NewJob creates a refresh job. store may be nil when snapshots are not persisted.
func NewJob(source Source, extractor *summary.Extractor, live *snapshot.Live, store snapshot.Store, opts Options) *Job {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Job{
		source:    source,
		extractor: extractor,
		live:      live,
		store:     store,
		opts:      opts,
		now:       time.Now,
	}
}

// Live returns the snapshot cell the job publishes into
func (j *Job) Live() *snapshot.Live {
	return j.live
}

// LastReport returns the report of the most recently finished cycle, or nil
func (j *Job) LastReport() *Report {
	return j.lastReport.Load()
}

// RunCycle runs one refresh cycle: fetch the batch, fetch every thread,
// then publish the assembled snapshot once all fetches have settled.
// The returned error is non-nil only when the batch itself could not be fetched.
func (j *Job) RunCycle(ctx context.Context) (*Report, error) {
	logger := log.New(funcframework.LogWriter(ctx), "", 0)

	start := j.now()
	report := &Report{
		Channel:    j.opts.Channel,
		Generation: j.live.NextGeneration(),
		StartedAt:  start,
	}
	defer func() {
		duration := j.now().Sub(start)
		report.DurationMS = duration.Milliseconds()
		metrics.RecordCycle(j.opts.Channel, report.Outcome, duration.Seconds())
		j.lastReport.Store(report)
		logger.Printf("Refresh cycle completed channel=%s cycle=%d outcome=%s stories=%d failures=%d duration_ms=%d",
			report.Channel, report.Generation, report.Outcome, report.Stories, report.Failures, report.DurationMS)
	}()

	logger.Printf("Refresh cycle started channel=%s cycle=%d batch_size=%d", j.opts.Channel, report.Generation, j.opts.BatchSize)

	posts, err := j.fetchBatch(ctx)
	if err != nil {
		report.Outcome = metrics.CycleFailed
		report.Error = err.Error()
		logger.Printf("Error fetching batch channel=%s: %v", j.opts.Channel, err)
		return report, err
	}
	report.BatchSize = len(posts)

	if len(posts) == 0 && !j.opts.PublishEmpty {
		report.Outcome = metrics.CycleEmpty
		logger.Printf("Empty batch, keeping previous snapshot channel=%s", j.opts.Channel)
		return report, nil
	}

	results := j.fetchAll(ctx, posts)
	report.Attempts = len(results)
	for _, r := range results {
		switch {
		case r.err != nil:
			report.Failures++
			logger.Printf("Thread fetch failed channel=%s: %v", j.opts.Channel, r.err)
		case r.story == nil:
			report.Skipped++
		}
	}

	snap := &model.Snapshot{
		Channel:     j.opts.Channel,
		Generation:  report.Generation,
		PublishedAt: j.now(),
		Stories:     assemble(results),
	}
	report.Stories = len(snap.Stories)

	if !j.live.Publish(snap) {
		report.Outcome = metrics.CycleSuperseded
		logger.Printf("Discarding superseded snapshot channel=%s cycle=%d", j.opts.Channel, report.Generation)
		return report, nil
	}
	report.Published = true
	report.Outcome = metrics.CyclePublished
	metrics.RecordPublish(j.opts.Channel, snap.Len(), float64(snap.PublishedAt.Unix()))

	j.persist(ctx, logger, snap)
	return report, nil
}

func (j *Job) fetchBatch(ctx context.Context) ([]model.Post, error) {
	if j.opts.BatchSize <= 0 {
		return nil, nil
	}

	listCtx, cancel := context.WithTimeout(ctx, j.opts.FetchTimeout)
	defer cancel()

	posts, err := settle(listCtx, func(ctx context.Context) ([]model.Post, error) {
		return j.source.ListTopPosts(ctx, j.opts.Channel, j.opts.BatchSize)
	})
	if err != nil {
		return nil, fmt.Errorf("listing top posts of %s: %w", j.opts.Channel, err)
	}

	if len(posts) > j.opts.BatchSize {
		posts = posts[:j.opts.BatchSize]
	}
	return posts, nil
}

// persist saves a published snapshot. Failures are logged and never unpublish.
func (j *Job) persist(ctx context.Context, logger *log.Logger, snap *model.Snapshot) {
	if j.store == nil {
		return
	}

	j.persistMu.Lock()
	defer j.persistMu.Unlock()

	if snap.Generation <= j.persisted {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := j.store.Save(saveCtx, snap); err != nil {
		metrics.RecordPersistError("save")
		logger.Printf("Error saving snapshot channel=%s cycle=%d: %v", snap.Channel, snap.Generation, err)
		return
	}
	j.persisted = snap.Generation
}

// Restore loads the last persisted snapshot into the live cell, if any
func (j *Job) Restore(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	snap, err := j.store.Load(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return nil
		}
		metrics.RecordPersistError("load")
		return fmt.Errorf("restoring snapshot: %w", err)
	}

	if j.live.Restore(snap) {
		metrics.RecordPublish(j.opts.Channel, snap.Len(), float64(snap.PublishedAt.Unix()))
		logger := log.New(funcframework.LogWriter(ctx), "", 0)
		logger.Printf("Snapshot restored channel=%s cycle=%d stories=%d", snap.Channel, snap.Generation, snap.Len())
	}
	return nil
}

// Start runs a cycle immediately and then on every interval until ctx is
// done or Stop is called. Cycles may overlap; only the newest one publishes.
func (j *Job) Start(ctx context.Context, interval time.Duration) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return errors.New("refresh job already started")
	}

	cronLogger := cron.PrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))
	c := cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger)))
	c.Schedule(cron.Every(interval), cron.FuncJob(func() {
		j.run(ctx)
	}))
	j.cron = c

	j.initial.Add(1)
	go func() {
		defer j.initial.Done()
		j.run(ctx)
	}()
	c.Start()

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop stops scheduling new cycles and waits for running ones to finish
func (j *Job) Stop() {
	j.mu.Lock()
	c := j.cron
	j.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	j.initial.Wait()
}

func (j *Job) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// Errors are already logged and recorded in the report.
	_, _ = j.RunCycle(ctx)
}
