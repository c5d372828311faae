package main

import (
	"log"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	// Registers RefreshSnapshot and ServeSnapshot
	_ "github.com/pep299/subreddit-digest"
)

// Runs the Cloud Functions locally. FUNCTION_TARGET selects the function.
func main() {
	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v", err)
	}
}
