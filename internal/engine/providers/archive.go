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
	"strings"
	"time"

	"github.com/anatolykoptev/go_media/internal/engine"
)

const (
	archiveAPIBase     = "https://archive.org"
	archiveDetailsBase = "https://archive.org/details/"
	archiveThumbBase   = "https://archive.org/services/img/"
)

// ArchiveConfig configures the Archive.org advancedsearch client.
type ArchiveConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Archive searches the Internet Archive's movies and image collections.
type Archive struct {
	cfg  ArchiveConfig
	http *http.Client
}

func NewArchive(cfg ArchiveConfig, client *http.Client) *Archive {
	if cfg.BaseURL == "" {
		cfg.BaseURL = archiveAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Archive{cfg: cfg, http: client}
}

func (p *Archive) Name() string { return NameArchive }

// --- advancedsearch response types ---

type iaResponse struct {
	Response iaResults `json:"response"`
}

type iaResults struct {
	Docs []iaDoc `json:"docs"`
}

// iaDoc.Year arrives as a string, a number, or occasionally an array,
// depending on the item's metadata.
type iaDoc struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Mediatype  string `json:"mediatype"`
	Year       any    `json:"year"`
}

// Search queries advancedsearch.php matching the topic against title and
// description, restricted to movies and images, with an optional year range.
func (p *Archive) Search(ctx context.Context, q engine.Query) ([]engine.MediaRecord, error) {
	rows := q.Limit
	if rows <= 0 {
		rows = engine.DefaultTargetCount
	}
	if rows > 100 {
		rows = 100
	}

	topic := strings.ReplaceAll(q.Topic, `"`, `\"`)
	expr := fmt.Sprintf(`(title:("%s") OR description:("%s")) AND (mediatype:(movies) OR mediatype:(image))`, topic, topic)
	if from, to, ok := q.Dates.Years(); ok {
		expr += fmt.Sprintf(" AND year:[%d TO %d]", from, to)
	}

	params := url.Values{}
	params.Set("q", expr)
	params.Set("rows", strconv.Itoa(rows))
	params.Set("output", "json")
	params["fl[]"] = []string{"identifier", "title", "mediatype", "year"}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	apiURL := p.cfg.BaseURL + "/advancedsearch.php?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return p.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("archive API status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read archive response: %w", err)
	}

	records, err := parseArchiveResponse(body, q.RunID)
	if err != nil {
		return nil, err
	}
	slog.Debug("archive: search complete", slog.Int("results", len(records)))
	return records, nil
}

// parseArchiveResponse maps advancedsearch docs onto media records. Docs
// without an identifier are skipped.
func parseArchiveResponse(body []byte, runID string) ([]engine.MediaRecord, error) {
	var resp iaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("archive parse error: %w", err)
	}

	records := make([]engine.MediaRecord, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		records = append(records, engine.MediaRecord{
			Title:        doc.Title,
			URL:          archiveDetailsBase + doc.Identifier,
			Provider:     NameArchive,
			ThumbnailURL: archiveThumbBase + doc.Identifier,
			PublishedAt:  yearString(doc.Year),
			RunID:        runID,
		})
	}
	return records, nil
}

func yearString(v any) string {
	switch y := v.(type) {
	case nil:
		return ""
	case string:
		return y
	case float64:
		return strconv.Itoa(int(y))
	case []any:
		if len(y) > 0 {
			return yearString(y[0])
		}
		return ""
	}
	return fmt.Sprint(v)
}
