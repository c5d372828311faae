package application

import (
	"context"
	"fmt"

	"github.com/pep299/subreddit-digest/internal/config"
	"github.com/pep299/subreddit-digest/internal/handlers"
	"github.com/pep299/subreddit-digest/internal/reddit"
	"github.com/pep299/subreddit-digest/internal/refresh"
	"github.com/pep299/subreddit-digest/internal/snapshot"
	"github.com/pep299/subreddit-digest/internal/summary"
)

// Application holds the wired refresh job, live snapshot and HTTP server
type Application struct {
	Config *config.Config
	Live   *snapshot.Live
	Job    *refresh.Job
	Server *handlers.Server
	store  snapshot.Store
}

// New creates a new application instance with all dependencies.
// Extra reddit options are applied after the configured ones.
func New(ctx context.Context, cfg *config.Config, opts ...reddit.Option) (*Application, error) {
	store, err := snapshot.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	redditOpts := []reddit.Option{
		reddit.WithUserAgent(cfg.RedditUserAgent),
		reddit.WithRateLimit(cfg.RequestsPerMinute),
		reddit.WithTimeout(cfg.FetchTimeout()),
	}
	client := reddit.NewClient(reddit.Credentials{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
	}, append(redditOpts, opts...)...)

	extractor := summary.NewExtractor(cfg.SummaryBot, cfg.SummaryStartMarker, cfg.SummaryEndMarker)
	live := snapshot.NewLive()

	job := refresh.NewJob(client, extractor, live, store, refresh.Options{
		Channel:        cfg.Subreddit,
		BatchSize:      cfg.BatchSize,
		FetchTimeout:   cfg.FetchTimeout(),
		MaxConcurrency: cfg.MaxConcurrentRequests,
		PublishEmpty:   cfg.PublishEmpty,
	})

	return &Application{
		Config: cfg,
		Live:   live,
		Job:    job,
		Server: handlers.NewServer(cfg, live, job),
		store:  store,
	}, nil
}

// Close cleans up application resources
func (a *Application) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
