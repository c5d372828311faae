// Package cloudfunctions exposes the refresh cycle and the snapshot reader as
// Cloud Functions. State lives in the configured snapshot store between calls.
package cloudfunctions

import (
	"errors"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/subreddit-digest/internal/application"
	"github.com/pep299/subreddit-digest/internal/config"
	"github.com/pep299/subreddit-digest/internal/handlers"
	"github.com/pep299/subreddit-digest/internal/reddit"
	"github.com/pep299/subreddit-digest/internal/snapshot"
	"github.com/pep299/subreddit-digest/internal/transport/middleware"
	"github.com/pep299/subreddit-digest/internal/transport/response"
)

// redditOptions are applied to every Reddit client built by RefreshSnapshot
var redditOptions []reddit.Option

func init() {
	functions.HTTP("RefreshSnapshot", RefreshSnapshot)
	functions.HTTP("ServeSnapshot", ServeSnapshot)
}

// RefreshSnapshot runs one refresh cycle and persists the result.
// Meant for Cloud Scheduler: POST with the refresh bearer token.
func RefreshSnapshot(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		response.WriteInternalError(w, "Internal server error")
		return
	}

	middleware.Auth(cfg.RefreshAuthToken)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		app, err := application.New(ctx, cfg, redditOptions...)
		if err != nil {
			log.Printf("Error creating application: %v\nStack:\n%s", err, debug.Stack())
			response.WriteInternalError(w, "Internal server error")
			return
		}
		defer app.Close()

		// Continue generations after the persisted snapshot
		if err := app.Job.Restore(ctx); err != nil {
			log.Printf("Snapshot restore failed: %v", err)
		}

		report, err := app.Job.RunCycle(ctx)
		if err != nil {
			response.WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
		response.WriteSuccess(w, "refresh cycle completed", report)
	})).ServeHTTP(w, r)
}

// ServeSnapshot serves the last persisted snapshot
func ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		response.WriteInternalError(w, "Internal server error")
		return
	}

	store, err := snapshot.NewStore(ctx, cfg)
	if err != nil {
		log.Printf("Failed to create snapshot store: %v", err)
		response.WriteInternalError(w, "Internal server error")
		return
	}
	defer store.Close()

	live := snapshot.NewLive()
	if snap, err := store.Load(ctx); err == nil {
		live.Restore(snap)
	} else if !errors.Is(err, snapshot.ErrNotFound) {
		log.Printf("Failed to load snapshot: %v", err)
	}

	// The function root serves the snapshot itself
	if r.URL.Path == "/" || r.URL.Path == "" {
		r.URL.Path = "/snapshot"
	}
	handlers.NewServer(cfg, live, nil).SetupRoutes().ServeHTTP(w, r)
}
