package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/subreddit-digest/internal/model"
	"github.com/pep299/subreddit-digest/internal/transport/response"
)

// snapshotResponse is the public wire shape of a snapshot
type snapshotResponse struct {
	Stories []model.Story `json:"stories"`
}

// snapshotHandler serves the live snapshot. Before the first publish the
// story list is empty.
func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.live.Load()

	body := snapshotResponse{Stories: []model.Story{}}
	if snap != nil {
		if snap.Stories != nil {
			body.Stories = snap.Stories
		}
		w.Header().Set("Last-Modified", snap.PublishedAt.UTC().Format(http.TimeFormat))
		w.Header().Set("X-Snapshot-Generation", strconv.FormatUint(snap.Generation, 10))
	}
	w.Header().Set("Cache-Control", "no-cache")

	response.WriteJSON(w, http.StatusOK, body)
}

// channelHandler serves the snapshot under the configured channel name
func (s *Server) channelHandler(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]
	if !strings.EqualFold(channel, s.config.Subreddit) {
		response.WriteNotFound(w, "unknown channel: "+channel)
		return
	}
	s.snapshotHandler(w, r)
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   Version,
	})
}

// statusHandler returns the live snapshot summary and the last cycle report
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":         "running",
		"channel":        s.config.Subreddit,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"stories":        0,
		"generation":     0,
	}

	if snap := s.live.Load(); snap != nil {
		status["stories"] = snap.Len()
		status["generation"] = snap.Generation
		status["published_at"] = snap.PublishedAt
	}
	if s.refresher != nil {
		if report := s.refresher.LastReport(); report != nil {
			status["last_cycle"] = report
		}
	}

	response.WriteJSON(w, http.StatusOK, status)
}

// configHandler returns configuration (sanitized)
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	// Secrets are tagged json:"-"
	response.WriteJSON(w, http.StatusOK, s.config)
}

// refreshHandler runs one cycle synchronously and returns its report
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	report, err := s.refresher.RunCycle(r.Context())
	if err != nil {
		log.Printf("Manual refresh failed channel=%s: %v", s.config.Subreddit, err)
		response.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	response.WriteSuccess(w, "refresh cycle completed", report)
}
