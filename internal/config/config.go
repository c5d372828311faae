package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot store types
const (
	StoreMemory       = "memory"
	StoreFile         = "file"
	StoreCloudStorage = "cloud-storage"
	StoreRedis        = "redis"
	StorePostgres     = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Reddit API settings
	RedditClientID     string `json:"-"` // Don't expose in JSON
	RedditClientSecret string `json:"-"`
	RedditUsername     string `json:"-"`
	RedditPassword     string `json:"-"`
	RedditUserAgent    string `json:"reddit_user_agent"`

	// Refresh job settings
	Subreddit          string `json:"subreddit"`
	SummaryBot         string `json:"summary_bot"`
	SummaryStartMarker string `json:"summary_start_marker"`
	SummaryEndMarker   string `json:"summary_end_marker"`
	RefreshIntervalMS  int    `json:"refresh_interval_ms"`
	BatchSize          int    `json:"batch_size"`
	FetchTimeoutMS     int    `json:"fetch_timeout_ms"`
	PublishEmpty       bool   `json:"publish_empty"`

	// Rate limiting
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
	RequestsPerMinute     int `json:"requests_per_minute"`

	// Snapshot persistence
	SnapshotStore  string `json:"snapshot_store"` // "memory", "file", "cloud-storage", "redis" or "postgres"
	SnapshotPath   string `json:"snapshot_path"`
	SnapshotBucket string `json:"snapshot_bucket"`
	RedisURL       string `json:"-"`
	DatabaseURL    string `json:"-"`

	// Bearer token for POST /api/v1/refresh and the RefreshSnapshot function
	RefreshAuthToken string `json:"-"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		RedditClientID:        getEnvOrDefault("REDDIT_CLIENT_ID", ""),
		RedditClientSecret:    getEnvOrDefault("REDDIT_CLIENT_SECRET", ""),
		RedditUsername:        getEnvOrDefault("REDDIT_USERNAME", ""),
		RedditPassword:        getEnvOrDefault("REDDIT_PASSWORD", ""),
		RedditUserAgent:       getEnvOrDefault("REDDIT_USER_AGENT", "subreddit-digest/1.0"),
		Subreddit:             getEnvOrDefault("SUBREDDIT", "worldnews"),
		SummaryBot:            getEnvOrDefault("SUMMARY_BOT", "autotldr"),
		SummaryStartMarker:    getEnvOrDefault("SUMMARY_START_MARKER", "<blockquote>"),
		SummaryEndMarker:      getEnvOrDefault("SUMMARY_END_MARKER", "</blockquote>"),
		RefreshIntervalMS:     getEnvOrDefaultInt("REFRESH_INTERVAL_MS", 60000),
		BatchSize:             getEnvOrDefaultInt("BATCH_SIZE", 50),
		FetchTimeoutMS:        getEnvOrDefaultInt("FETCH_TIMEOUT_MS", 10000),
		PublishEmpty:          getEnvOrDefaultBool("PUBLISH_EMPTY", false),
		MaxConcurrentRequests: getEnvOrDefaultInt("MAX_CONCURRENT_REQUESTS", 10),
		RequestsPerMinute:     getEnvOrDefaultInt("REQUESTS_PER_MINUTE", 100),
		SnapshotStore:         getEnvOrDefault("SNAPSHOT_STORE", StoreMemory),
		SnapshotPath:          getEnvOrDefault("SNAPSHOT_PATH", "data/snapshot.json"),
		SnapshotBucket:        getEnvOrDefault("SNAPSHOT_BUCKET", "subreddit-digest-snapshots"),
		RedisURL:              getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:           getEnvOrDefault("DATABASE_URL", "postgres://localhost:5432/digest?sslmode=disable"),
		RefreshAuthToken:      getEnvOrDefault("REFRESH_AUTH_TOKEN", ""),
	}

	return config, config.validate()
}

// RefreshInterval returns the refresh interval as a duration
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// FetchTimeout returns the per-fetch timeout as a duration
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// HasCredentials reports whether OAuth app credentials are configured
func (c *Config) HasCredentials() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != ""
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Subreddit == "" {
		return &ConfigError{Field: "SUBREDDIT", Message: "subreddit is required"}
	}
	if c.SummaryBot == "" {
		return &ConfigError{Field: "SUMMARY_BOT", Message: "summary bot account is required"}
	}
	if c.SummaryStartMarker == "" || c.SummaryEndMarker == "" {
		return &ConfigError{Field: "SUMMARY_START_MARKER", Message: "summary markers must not be empty"}
	}
	if c.BatchSize < 0 {
		return &ConfigError{Field: "BATCH_SIZE", Message: "must not be negative"}
	}
	if c.RefreshIntervalMS < 1000 {
		return &ConfigError{Field: "REFRESH_INTERVAL_MS", Message: "must be at least 1000"}
	}
	if c.FetchTimeoutMS <= 0 {
		return &ConfigError{Field: "FETCH_TIMEOUT_MS", Message: "must be positive"}
	}
	if c.MaxConcurrentRequests <= 0 {
		return &ConfigError{Field: "MAX_CONCURRENT_REQUESTS", Message: "must be positive"}
	}
	if c.RequestsPerMinute <= 0 {
		return &ConfigError{Field: "REQUESTS_PER_MINUTE", Message: "must be positive"}
	}
	if (c.RedditClientID == "") != (c.RedditClientSecret == "") {
		return &ConfigError{Field: "REDDIT_CLIENT_SECRET", Message: "client id and secret must be set together"}
	}
	if (c.RedditUsername == "") != (c.RedditPassword == "") {
		return &ConfigError{Field: "REDDIT_PASSWORD", Message: "username and password must be set together"}
	}
	if c.RedditUsername != "" && !c.HasCredentials() {
		return &ConfigError{Field: "REDDIT_CLIENT_ID", Message: "password grant requires client credentials"}
	}
	switch c.SnapshotStore {
	case StoreMemory, StoreFile, StoreCloudStorage, StoreRedis, StorePostgres:
	default:
		return &ConfigError{Field: "SNAPSHOT_STORE", Message: "unsupported store type: " + c.SnapshotStore}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
