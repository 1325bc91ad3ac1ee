// Package airtable is a minimal client for the Airtable REST API,
// covering the two calls the relay needs: listing the normalized URLs
// already stored in the media table and creating new rows in batches.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_media/internal/engine"
)

const (
	airtableAPIBase = "https://api.airtable.com/v0"

	// Airtable rejects create calls with more than 10 records.
	MaxBatchSize = 10

	// Airtable rate-limits each base to roughly 5 requests per second.
	airtableRPS = 5

	listPageSize = 100
	maxBodyBytes = 4 << 20

	createdVia = "shortcut-relay"
)

// RecordFields maps a media record onto the table's column names.
type RecordFields struct {
	Title         string `json:"Title,omitempty"`
	SourceURL     string `json:"Source_URL"`
	NormalizedURL string `json:"Normalized_URL"`
	Provider      string `json:"Provider,omitempty"`
	ThumbnailURL  string `json:"Thumbnail_URL,omitempty"`
	Creator       string `json:"Creator,omitempty"`
	License       string `json:"License,omitempty"`
	PublishedAt   string `json:"Published_At,omitempty"`
	RunID         string `json:"Run_ID,omitempty"`
	CreatedVia    string `json:"Created_Via,omitempty"`
}

// FieldsFromRecord converts an aggregated media record into Airtable columns.
func FieldsFromRecord(rec engine.MediaRecord) RecordFields {
	return RecordFields{
		Title:         rec.Title,
		SourceURL:     rec.URL,
		NormalizedURL: rec.NormalizedURL,
		Provider:      rec.Provider,
		ThumbnailURL:  rec.ThumbnailURL,
		Creator:       rec.Creator,
		License:       rec.License,
		PublishedAt:   rec.PublishedAt,
		RunID:         rec.RunID,
		CreatedVia:    createdVia,
	}
}

// ClientConfig identifies the base and table the client talks to.
type ClientConfig struct {
	APIKey  string
	BaseID  string
	Table   string
	BaseURL string
}

// Client talks to a single Airtable table.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient builds a client for cfg. A nil httpClient gets a default
// with a 30s timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = airtableAPIBase
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint: strings.TrimSuffix(base, "/") + "/" + cfg.BaseID + "/" + url.PathEscape(cfg.Table),
		apiKey:   cfg.APIKey,
		http:     httpClient,
		limiter:  rate.NewLimiter(airtableRPS, 1),
	}
}

type listRecord struct {
	Fields struct {
		NormalizedURL string `json:"Normalized_URL"`
	} `json:"fields"`
}

type listResponse struct {
	Records []listRecord `json:"records"`
	Offset  string       `json:"offset"`
}

// ListNormalizedURLs pages through the whole table and returns the set
// of Normalized_URL values it holds.
func (c *Client) ListNormalizedURLs(ctx context.Context) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	offset := ""
	for {
		page, err := c.listPage(ctx, offset)
		if err != nil {
			return nil, &engine.DatastoreReadError{Err: err}
		}
		for _, rec := range page.Records {
			if rec.Fields.NormalizedURL != "" {
				existing[rec.Fields.NormalizedURL] = struct{}{}
			}
		}
		if page.Offset == "" {
			return existing, nil
		}
		offset = page.Offset
	}
}

func (c *Client) listPage(ctx context.Context, offset string) (*listResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("pageSize", fmt.Sprint(listPageSize))
	params.Add("fields[]", "Normalized_URL")
	if offset != "" {
		params.Set("offset", offset)
	}
	apiURL := c.endpoint + "?" + params.Encode()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		return c.http.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airtable list status %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	var page listResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("airtable list decode: %w", err)
	}
	return &page, nil
}

type createRecord struct {
	Fields RecordFields `json:"fields"`
}

type createRequest struct {
	Records []createRecord `json:"records"`
}

// CreateRecords inserts one batch of rows. The batch must not exceed
// MaxBatchSize; callers chunk larger sets.
func (c *Client) CreateRecords(ctx context.Context, fields []RecordFields) error {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) > MaxBatchSize {
		return &engine.DatastoreWriteError{
			Err: fmt.Errorf("batch of %d exceeds airtable limit of %d", len(fields), MaxBatchSize),
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &engine.DatastoreWriteError{Err: err}
	}

	body := createRequest{Records: make([]createRecord, 0, len(fields))}
	for _, f := range fields {
		body.Records = append(body.Records, createRecord{Fields: f})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return &engine.DatastoreWriteError{Err: err}
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")
		return c.http.Do(req)
	})
	if err != nil {
		return &engine.DatastoreWriteError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &engine.DatastoreWriteError{
			Err: fmt.Errorf("airtable create status %d: %s", resp.StatusCode, snippet(resp.Body)),
		}
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
