package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pep299/subreddit-digest/internal/config"
	"github.com/pep299/subreddit-digest/internal/model"
	"github.com/pep299/subreddit-digest/internal/reddit"
)

const hotJSON = `{"kind": "Listing", "data": {"after": null, "children": [
  {"kind": "t3", "data": {"id": "p1", "title": "One", "url": "https://example.com/1", "domain": "example.com"}},
  {"kind": "t3", "data": {"id": "p2", "title": "Two", "url": "https://example.com/2", "domain": "example.com"}},
  {"kind": "t3", "data": {"id": "p3", "title": "Three", "url": "https://example.com/3", "domain": "example.com"}}
]}}`

func threadJSON(id, author, bodyHTML string) string {
	comment, _ := json.Marshal(map[string]interface{}{
		"id": "c_" + id, "author": author, "body": "", "body_html": bodyHTML, "replies": "",
	})
	return fmt.Sprintf(`[
  {"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": %q}}]}},
  {"kind": "Listing", "data": {"children": [{"kind": "t1", "data": %s}]}}
]`, id, comment)
}

func newRedditServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r/worldnews/hot.json":
			fmt.Fprint(w, hotJSON)
		case "/comments/p1.json":
			fmt.Fprint(w, threadJSON("p1", "autotldr", "<div>Reduced by 80%<blockquote>\n<p>Alpha</p>\n</blockquote></div>"))
		case "/comments/p2.json":
			fmt.Fprint(w, threadJSON("p2", "someone", "<p>first!</p>"))
		case "/comments/p3.json":
			fmt.Fprint(w, threadJSON("p3", "AutoTLDR", "<blockquote>Gamma</blockquote>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Subreddit:             "worldnews",
		SummaryBot:            "autotldr",
		SummaryStartMarker:    "<blockquote>",
		SummaryEndMarker:      "</blockquote>",
		RedditUserAgent:       "digest-test/1.0",
		RefreshIntervalMS:     60000,
		BatchSize:             50,
		FetchTimeoutMS:        2000,
		MaxConcurrentRequests: 4,
		RequestsPerMinute:     6000,
		SnapshotStore:         config.StoreFile,
		SnapshotPath:          filepath.Join(t.TempDir(), "snapshot.json"),
	}
}

func TestApplication_RefreshAndServe(t *testing.T) {
	upstream := newRedditServer(t)
	cfg := testConfig(t)

	app, err := New(context.Background(), cfg, redditBaseURL(upstream.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	report, err := app.Job.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if report.Attempts != 3 || report.Stories != 2 || report.Skipped != 1 {
		t.Errorf("Unexpected report: %+v", report)
	}

	w := httptest.NewRecorder()
	app.Server.SetupRoutes().ServeHTTP(w, httptest.NewRequest("GET", "/snapshot", nil))

	var body struct {
		Stories []model.Story `json:"stories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse snapshot: %v", err)
	}
	if len(body.Stories) != 2 {
		t.Fatalf("Expected 2 stories, got %d: %s", len(body.Stories), w.Body.String())
	}
	if body.Stories[0].ID != "p1" || !strings.Contains(body.Stories[0].Description, "Alpha") {
		t.Errorf("Unexpected first story: %+v", body.Stories[0])
	}
	if body.Stories[1].ID != "p3" || body.Stories[1].Description != "Gamma" || body.Stories[1].Position != 2 {
		t.Errorf("Unexpected second story: %+v", body.Stories[1])
	}
}

func TestApplication_RestoresPersistedSnapshot(t *testing.T) {
	upstream := newRedditServer(t)
	cfg := testConfig(t)

	first, err := New(context.Background(), cfg, redditBaseURL(upstream.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := first.Job.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	first.Close()

	second, err := New(context.Background(), cfg, redditBaseURL(upstream.URL))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer second.Close()

	if err := second.Job.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if second.Live.Load().Len() != 2 {
		t.Errorf("Expected restored snapshot with 2 stories, got %d", second.Live.Load().Len())
	}
}

func TestNew_InvalidStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.SnapshotStore = "tape"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error for unsupported snapshot store")
	}
}

func redditBaseURL(u string) reddit.Option {
	return reddit.WithBaseURL(u)
}
