package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
)

// Config holds all service configuration, injected from main. Nothing in the
// engine reads the environment directly.
type Config struct {
	ListenAddr   string
	ShortcutsKey string

	AirtableAPIKey  string
	AirtableBaseID  string
	AirtableTable   string
	AirtableBaseURL string

	YouTubeAPIKey    string // empty = YouTube provider not registered
	YouTubeBaseURL   string
	OpenverseToken   string // optional, raises Openverse rate limits
	OpenverseBaseURL string
	ArchiveBaseURL   string

	FetchTimeout time.Duration
	LogFile      string
	LogLevel     string

	HTTPClient *http.Client
}

// FromEnv builds a Config from environment variables, applying defaults for
// everything optional. Base URLs are overridable for tests and proxies.
func FromEnv() Config {
	return Config{
		ListenAddr:   env.Str("LISTEN_ADDR", ":8080"),
		ShortcutsKey: env.Str("SHORTCUTS_KEY", ""),

		AirtableAPIKey:  env.Str("AIRTABLE_API_KEY", ""),
		AirtableBaseID:  env.Str("AIRTABLE_BASE_ID", ""),
		AirtableTable:   env.Str("AIRTABLE_TABLE_NAME", ""),
		AirtableBaseURL: env.Str("AIRTABLE_API_BASE", "https://api.airtable.com/v0"),

		YouTubeAPIKey:    env.Str("YOUTUBE_API_KEY", ""),
		YouTubeBaseURL:   env.Str("YOUTUBE_API_BASE", "https://www.googleapis.com/youtube/v3"),
		OpenverseToken:   env.Str("OPENVERSE_API_KEY", ""),
		OpenverseBaseURL: env.Str("OPENVERSE_API_BASE", "https://api.openverse.engineering/v1"),
		ArchiveBaseURL:   env.Str("ARCHIVE_API_BASE", "https://archive.org"),

		FetchTimeout: env.Duration("FETCH_TIMEOUT", 15*time.Second),
		LogFile:      env.Str("LOG_FILE", "logs/go_media.log"),
		LogLevel:     env.Str("LOG_LEVEL", "info"),

		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// Validate reports every missing required variable in one error.
func (c *Config) Validate() error {
	var missing []string
	if c.ShortcutsKey == "" {
		missing = append(missing, "SHORTCUTS_KEY")
	}
	if c.AirtableAPIKey == "" {
		missing = append(missing, "AIRTABLE_API_KEY")
	}
	if c.AirtableBaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if c.AirtableTable == "" {
		missing = append(missing, "AIRTABLE_TABLE_NAME")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
