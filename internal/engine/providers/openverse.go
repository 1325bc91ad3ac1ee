package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/anatolykoptev/go_media/internal/engine"
)

const openverseAPIBase = "https://api.openverse.engineering/v1"

// OpenverseConfig configures the Openverse client. Token is optional;
// authenticated callers get higher rate limits.
type OpenverseConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Openverse searches the openly licensed image and video collections.
// The API has no published-date filter, so the query's date range is ignored.
type Openverse struct {
	cfg  OpenverseConfig
	http *http.Client
}

func NewOpenverse(cfg OpenverseConfig, client *http.Client) *Openverse {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openverseAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Openverse{cfg: cfg, http: client}
}

func (p *Openverse) Name() string { return NameOpenverse }

// --- Openverse response types ---

type ovResponse struct {
	Results []ovResult `json:"results"`
	Next    string     `json:"next"`
}

type ovResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Creator   string `json:"creator"`
	License   string `json:"license"`
}

// Search queries the collections the media mode selects: images, videos, or
// both with the limit split between them.
func (p *Openverse) Search(ctx context.Context, q engine.Query) ([]engine.MediaRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = engine.DefaultTargetCount
	}

	paths := []string{"images"}
	switch q.Mode {
	case engine.ModeVideos:
		paths = []string{"videos"}
	case engine.ModeBoth:
		paths = []string{"images", "videos"}
	}

	want := limit
	if len(paths) > 1 {
		want = (limit + 1) / 2
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var records []engine.MediaRecord
	for _, path := range paths {
		recs, err := p.searchCollection(ctx, path, q.Topic, want, q.RunID)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	slog.Debug("openverse: search complete", slog.Any("paths", paths), slog.Int("results", len(records)))
	return records, nil
}

// searchCollection pages through one collection until want records are
// gathered or the API runs out of pages.
func (p *Openverse) searchCollection(ctx context.Context, path, topic string, want int, runID string) ([]engine.MediaRecord, error) {
	pageSize := want
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 50 {
		pageSize = 50
	}

	params := url.Values{}
	params.Set("q", topic)
	params.Set("page_size", strconv.Itoa(pageSize))
	pageURL := fmt.Sprintf("%s/%s/?%s", p.cfg.BaseURL, path, params.Encode())

	var out []engine.MediaRecord
	for pageURL != "" && len(out) < want {
		body, err := p.fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		recs, next, err := parseOpenverseResponse(body, runID)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			break
		}
		out = append(out, recs...)
		pageURL = next
	}
	if len(out) > want {
		out = out[:want]
	}
	return out, nil
}

func (p *Openverse) fetch(ctx context.Context, apiURL string) ([]byte, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if p.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
		}
		return p.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("openverse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openverse API status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// parseOpenverseResponse maps one result page onto media records and returns
// the next-page URL, empty on the last page. Results without a URL are skipped.
func parseOpenverseResponse(body []byte, runID string) ([]engine.MediaRecord, string, error) {
	var resp ovResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("openverse parse error: %w", err)
	}

	records := make([]engine.MediaRecord, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.ID
		}
		thumb := r.Thumbnail
		if thumb == "" {
			thumb = r.URL
		}
		records = append(records, engine.MediaRecord{
			Title:        title,
			URL:          r.URL,
			Provider:     NameOpenverse,
			ThumbnailURL: thumb,
			Creator:      r.Creator,
			License:      r.License,
			RunID:        runID,
		})
	}
	return records, resp.Next, nil
}
