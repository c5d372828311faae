package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pep299/subreddit-digest/internal/application"
	"github.com/pep299/subreddit-digest/internal/config"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Subreddit Digest Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  SUBREDDIT             Subreddit to digest (default: worldnews)\n")
		fmt.Printf("  SUMMARY_BOT           Account whose comments hold summaries (default: autotldr)\n")
		fmt.Printf("  REDDIT_CLIENT_ID      Reddit OAuth client id (optional)\n")
		fmt.Printf("  REDDIT_CLIENT_SECRET  Reddit OAuth client secret (optional)\n")
		fmt.Printf("  REFRESH_INTERVAL_MS   Refresh interval in milliseconds (default: 60000)\n")
		fmt.Printf("  BATCH_SIZE            Posts per refresh cycle (default: 50)\n")
		fmt.Printf("  PORT                  Server port (default: 8080)\n")
		fmt.Printf("  HOST                  Server host (default: 0.0.0.0)\n")
		fmt.Printf("  SNAPSHOT_STORE        memory, file, cloud-storage, redis or postgres (default: memory)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Subreddit Digest Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	// Serve the last persisted snapshot until the first cycle publishes
	if err := app.Job.Restore(ctx); err != nil {
		log.Printf("Snapshot restore failed, starting empty: %v", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      app.Server.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // manual refresh runs a whole cycle
		IdleTimeout:  60 * time.Second,
	}

	if err := app.Job.Start(ctx, cfg.RefreshInterval()); err != nil {
		log.Fatalf("Failed to start refresh job: %v", err)
	}
	log.Printf("Refresh job started subreddit=%s interval=%s batch_size=%d", cfg.Subreddit, cfg.RefreshInterval(), cfg.BatchSize)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Cancel in-flight cycles and wait for them to settle
	cancel()
	app.Job.Stop()

	log.Println("Server stopped")
}
