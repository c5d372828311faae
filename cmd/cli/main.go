package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pep299/subreddit-digest/internal/application"
	"github.com/pep299/subreddit-digest/internal/config"
)

func main() {
	var (
		subreddit = flag.String("subreddit", "", "Override SUBREDDIT")
		batchSize = flag.Int("batch", 0, "Override BATCH_SIZE")
		report    = flag.Bool("report", false, "Print the cycle report instead of the snapshot")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *subreddit != "" {
		cfg.Subreddit = *subreddit
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}

	ctx := context.Background()

	app, err := application.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	// Run a single refresh cycle
	cycle, err := app.Job.RunCycle(ctx)
	if err != nil {
		log.Fatalf("Refresh failed: %v", err)
	}

	var out interface{} = cycle
	if !*report {
		stories := app.Live.Load()
		if stories == nil {
			fmt.Fprintln(os.Stderr, "No snapshot published")
			os.Exit(1)
		}
		out = map[string]interface{}{"stories": stories.Stories}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
