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

const ytAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeConfig configures the YouTube Data API v3 client.
type YouTubeConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// YouTube searches videos via the Data API v3 search endpoint.
type YouTube struct {
	cfg  YouTubeConfig
	http *http.Client
}

func NewYouTube(cfg YouTubeConfig, client *http.Client) *YouTube {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ytAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &YouTube{cfg: cfg, http: client}
}

func (p *YouTube) Name() string { return NameYouTube }

// --- Data API v3 response types ---

type ytSearchResp struct {
	Items []ytItem `json:"items"`
}

type ytItem struct {
	ID      ytItemID      `json:"id"`
	Snippet ytItemSnippet `json:"snippet"`
}

type ytItemID struct {
	VideoID string `json:"videoId"`
}

type ytItemSnippet struct {
	Title       string       `json:"title"`
	PublishedAt string       `json:"publishedAt"`
	Thumbnails  ytThumbnails `json:"thumbnails"`
}

type ytThumbnails struct {
	Medium  ytThumbnail `json:"medium"`
	Default ytThumbnail `json:"default"`
}

type ytThumbnail struct {
	URL string `json:"url"`
}

// Search queries the Data API search endpoint for videos matching the topic,
// bounded by the date range when one is set.
func (p *YouTube) Search(ctx context.Context, q engine.Query) ([]engine.MediaRecord, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = engine.DefaultTargetCount
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", q.Topic)
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", p.cfg.APIKey)
	after, before := q.Dates.RFC3339Bounds()
	if after != "" {
		params.Set("publishedAfter", after)
	}
	if before != "" {
		params.Set("publishedBefore", before)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	apiURL := p.cfg.BaseURL + "/search?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return p.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube API key rejected or quota exhausted (403): %s", string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube API status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read youtube response: %w", err)
	}

	records, err := parseYouTubeResponse(body, q.RunID)
	if err != nil {
		return nil, err
	}
	slog.Debug("youtube: search complete", slog.Int("results", len(records)))
	return records, nil
}

// parseYouTubeResponse maps Data API search items onto media records.
// Items without a videoId (channels, playlists) are skipped.
func parseYouTubeResponse(body []byte, runID string) ([]engine.MediaRecord, error) {
	var resp ytSearchResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("youtube parse error: %w", err)
	}

	records := make([]engine.MediaRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		thumb := item.Snippet.Thumbnails.Medium.URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails.Default.URL
		}
		records = append(records, engine.MediaRecord{
			Title:        item.Snippet.Title,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Provider:     NameYouTube,
			ThumbnailURL: thumb,
			PublishedAt:  item.Snippet.PublishedAt,
			RunID:        runID,
		})
	}
	return records, nil
}
