package engine

import (
	"fmt"
	"strings"
)

// --- Request / response types ---

// ScrapeRequest is the body of POST /scrape-and-insert as the shortcut sends it.
type ScrapeRequest struct {
	Topic       string   `json:"topic"`
	SearchDates string   `json:"searchDates,omitempty"`
	TargetCount int      `json:"targetCount,omitempty"`
	Providers   []string `json:"providers,omitempty"`
	MediaMode   string   `json:"mediaMode,omitempty"`
	RunID       string   `json:"runId,omitempty"`
}

// ProviderDetail reports one provider's contribution to a scrape run.
type ProviderDetail struct {
	Provider string `json:"provider"`
	Fetched  int    `json:"fetched"`
	Error    string `json:"error,omitempty"`
}

// ScrapeResponse summarizes a finished scrape run for the caller.
type ScrapeResponse struct {
	Inserted int              `json:"inserted"`
	Skipped  int              `json:"skipped"`
	Details  []ProviderDetail `json:"details"`
}

// --- Internal types ---

// Query is the resolved search request handed to every provider.
type Query struct {
	Topic string
	Dates DateRange
	Limit int
	Mode  MediaMode
	RunID string
}

// MediaRecord is one media item in the shared schema all providers map into.
// Fields a provider does not report stay empty.
type MediaRecord struct {
	Title         string
	URL           string
	NormalizedURL string
	Provider      string
	ThumbnailURL  string
	Creator       string
	License       string
	PublishedAt   string
	RunID         string
}

// MediaMode selects which Openverse collections are searched.
type MediaMode string

const (
	ModeImages MediaMode = "images"
	ModeVideos MediaMode = "videos"
	ModeBoth   MediaMode = "both"
)

// ParseMediaMode maps the request's mediaMode field onto a MediaMode.
// Matching is case-insensitive; empty input defaults to images.
func ParseMediaMode(s string) (MediaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "images", "image":
		return ModeImages, nil
	case "videos", "video":
		return ModeVideos, nil
	case "both", "all":
		return ModeBoth, nil
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown mediaMode %q (want images, videos or both)", s)}
}

const (
	// DefaultTargetCount is used when the request omits targetCount.
	DefaultTargetCount = 10
	// MaxTargetCount caps what a single request may ask of each provider.
	MaxTargetCount = 50
)

// ClampTargetCount applies the default and bounds for requested result counts.
func ClampTargetCount(n int) int {
	if n <= 0 {
		return DefaultTargetCount
	}
	if n > MaxTargetCount {
		return MaxTargetCount
	}
	return n
}
