package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pep299/subreddit-digest/internal/config"
	"github.com/pep299/subreddit-digest/internal/refresh"
	"github.com/pep299/subreddit-digest/internal/snapshot"
	"github.com/pep299/subreddit-digest/internal/transport/middleware"
)

// Version is reported by the health endpoint
const Version = "v1.0.0"

// Refresher runs refresh cycles on demand
type Refresher interface {
	RunCycle(ctx context.Context) (*refresh.Report, error)
	LastReport() *refresh.Report
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	config    *config.Config
	live      *snapshot.Live
	refresher Refresher
	startedAt time.Time
}

// NewServer creates a new HTTP server. refresher may be nil for a
// read-only server, in which case the refresh trigger is not routed.
func NewServer(cfg *config.Config, live *snapshot.Live, refresher Refresher) *Server {
	return &Server{
		config:    cfg,
		live:      live,
		refresher: refresher,
		startedAt: time.Now(),
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.healthHandler).Methods("GET")
	api.HandleFunc("/status", s.statusHandler).Methods("GET")
	api.HandleFunc("/config", s.configHandler).Methods("GET")
	if s.refresher != nil {
		api.Handle("/refresh", middleware.Auth(s.config.RefreshAuthToken)(http.HandlerFunc(s.refreshHandler)))
	}

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Snapshot, also served under the channel name
	r.HandleFunc("/snapshot", s.snapshotHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/{channel}", s.channelHandler).Methods("GET", "OPTIONS")

	return r
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Printf("Request handled method=%s path=%s status=%d duration_ms=%d",
			r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Milliseconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
