package refresh

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/pep299/subreddit-digest/internal/metrics"
	"github.com/pep299/subreddit-digest/internal/model"
)

// outcome is the settled result of one thread fetch
type outcome struct {
	story *model.Story
	err   error
}

// fetchAll fetches every post's thread concurrently and waits until all of
// them have settled. Each goroutine owns exactly one slot of the result slice.
func (j *Job) fetchAll(ctx context.Context, posts []model.Post) []outcome {
	results := make([]outcome, len(posts))

	// A plain group: one failed post must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(j.opts.MaxConcurrency)

	for i, post := range posts {
		g.Go(func() error {
			results[i] = j.fetchStory(ctx, post)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetchStory fetches one thread and extracts its summary
func (j *Job) fetchStory(ctx context.Context, post model.Post) outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, j.opts.FetchTimeout)
	defer cancel()

	thread, err := settle(fetchCtx, func(ctx context.Context) (*model.Thread, error) {
		return j.source.GetThread(ctx, post.ID)
	})
	if err != nil {
		metrics.RecordThreadFetch(j.opts.Channel, metrics.ThreadError)
		return outcome{err: fmt.Errorf("fetching thread %s: %w", post.ID, err)}
	}

	text, ok := j.extractor.Extract(thread)
	if !ok {
		metrics.RecordThreadFetch(j.opts.Channel, metrics.ThreadNoSummary)
		return outcome{}
	}

	metrics.RecordThreadFetch(j.opts.Channel, metrics.ThreadStory)
	story := model.NewStory(post, text)
	return outcome{story: &story}
}

// settle runs fn and returns when it finishes or ctx is done, whichever
// comes first, so a call that ignores its context cannot stall a cycle.
func settle[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// assemble turns settled outcomes into the ordered story list of a snapshot:
// duplicates by post ID are dropped (first in fetch order wins), then the
// stories are stably sorted by rank position.
func assemble(results []outcome) []model.Story {
	stories := make([]model.Story, 0, len(results))
	seen := make(map[string]struct{}, len(results))

	for _, r := range results {
		if r.story == nil {
			continue
		}
		if _, dup := seen[r.story.ID]; dup {
			continue
		}
		seen[r.story.ID] = struct{}{}
		stories = append(stories, *r.story)
	}

	slices.SortStableFunc(stories, func(a, b model.Story) int {
		return a.Position - b.Position
	})
	return stories
}
