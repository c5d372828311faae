package cloudfunctions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pep299/subreddit-digest/internal/model"
	"github.com/pep299/subreddit-digest/internal/reddit"
)

const testToken = "test-refresh-token"

// setupEnv points the functions at a fake Reddit and a fresh snapshot file
func setupEnv(t *testing.T) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r/worldnews/hot.json":
			fmt.Fprint(w, `{"kind": "Listing", "data": {"children": [
  {"kind": "t3", "data": {"id": "p1", "title": "One", "url": "https://example.com/1", "domain": "example.com"}}
]}}`)
		case "/comments/p1.json":
			fmt.Fprint(w, `[
  {"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "p1"}}]}},
  {"kind": "Listing", "data": {"children": [{"kind": "t1", "data": {"id": "c1", "author": "autotldr",
    "body_html": "<blockquote>Alpha</blockquote>", "replies": ""}}]}}
]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	redditOptions = []reddit.Option{reddit.WithBaseURL(upstream.URL)}
	t.Cleanup(func() { redditOptions = nil })

	t.Setenv("SUBREDDIT", "worldnews")
	t.Setenv("SNAPSHOT_STORE", "file")
	t.Setenv("SNAPSHOT_PATH", filepath.Join(t.TempDir(), "snapshot.json"))
	t.Setenv("REFRESH_AUTH_TOKEN", testToken)
	t.Setenv("REQUESTS_PER_MINUTE", "6000")
}

func decodeStories(t *testing.T, w *httptest.ResponseRecorder) []model.Story {
	t.Helper()
	var body struct {
		Stories []model.Story `json:"stories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return body.Stories
}

func TestServeSnapshotBeforeRefresh(t *testing.T) {
	setupEnv(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	ServeSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"stories":[]}` {
		t.Errorf("Expected empty stories, got %s", got)
	}
}

func TestServeSnapshotHealthCheck(t *testing.T) {
	setupEnv(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	ServeSnapshot(w, req)

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestRefreshSnapshotRejectsUnauthorized(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		method string
		auth   string
		want   int
	}{
		{"GET", "Bearer " + testToken, http.StatusMethodNotAllowed},
		{"POST", "", http.StatusUnauthorized},
		{"POST", "Bearer wrong", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/", nil)
		if tt.auth != "" {
			req.Header.Set("Authorization", tt.auth)
		}
		w := httptest.NewRecorder()

		RefreshSnapshot(w, req)

		if w.Code != tt.want {
			t.Errorf("%s with %q: expected status %d, got %d", tt.method, tt.auth, tt.want, w.Code)
		}
	}
}

func TestRefreshThenServe(t *testing.T) {
	setupEnv(t)

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	RefreshSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	// A second refresh must supersede the persisted generation
	w = httptest.NewRecorder()
	RefreshSnapshot(w, req.Clone(req.Context()))

	var result struct {
		Status string `json:"status"`
		Data   struct {
			Generation uint64 `json:"generation"`
			Published  bool   `json:"published"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if result.Status != "success" || !result.Data.Published || result.Data.Generation != 2 {
		t.Errorf("Expected second cycle to publish generation 2, got %+v", result)
	}

	w = httptest.NewRecorder()
	ServeSnapshot(w, httptest.NewRequest("GET", "/snapshot", nil))

	stories := decodeStories(t, w)
	if len(stories) != 1 || stories[0].ID != "p1" || stories[0].Description != "Alpha" {
		t.Errorf("Expected the refreshed story, got %+v", stories)
	}
}
