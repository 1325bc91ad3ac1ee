// Package ingest filters aggregated media records against the rows
// already stored and inserts the remainder in datastore-sized batches.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_media/internal/engine"
	"github.com/anatolykoptev/go_media/internal/engine/airtable"
	"github.com/anatolykoptev/go_media/internal/metrics"
)

// Store is the datastore surface the gateway needs.
type Store interface {
	ListNormalizedURLs(ctx context.Context) (map[string]struct{}, error)
	CreateRecords(ctx context.Context, fields []airtable.RecordFields) error
}

// Gateway dedupes records against the store and writes what is new.
type Gateway struct {
	store     Store
	batchSize int
}

// NewGateway wraps store. batchSize values outside 1..airtable.MaxBatchSize
// fall back to the datastore limit.
func NewGateway(store Store, batchSize int) *Gateway {
	if batchSize <= 0 || batchSize > airtable.MaxBatchSize {
		batchSize = airtable.MaxBatchSize
	}
	return &Gateway{store: store, batchSize: batchSize}
}

// Ingest fetches the existing URL set once, drops records whose
// normalized URL is already present, and inserts the rest in batches.
// A failed batch stops the run; counts cover what actually landed.
func (g *Gateway) Ingest(ctx context.Context, records []engine.MediaRecord) (inserted, skipped int, err error) {
	defer func() {
		metrics.RecordsInserted.Add(float64(inserted))
		metrics.RecordsSkipped.Add(float64(skipped))
	}()

	if len(records) == 0 {
		return 0, 0, nil
	}

	existing, err := g.store.ListNormalizedURLs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load existing urls: %w", err)
	}

	fresh := make([]airtable.RecordFields, 0, len(records))
	for _, rec := range records {
		if _, ok := existing[rec.NormalizedURL]; ok {
			skipped++
			continue
		}
		existing[rec.NormalizedURL] = struct{}{}
		fresh = append(fresh, airtable.FieldsFromRecord(rec))
	}

	for start := 0; start < len(fresh); start += g.batchSize {
		end := start + g.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		if err := g.store.CreateRecords(ctx, fresh[start:end]); err != nil {
			return inserted, skipped, fmt.Errorf("insert batch: %w", err)
		}
		inserted += end - start
	}

	slog.Info("ingest complete",
		"candidates", len(records),
		"inserted", inserted,
		"skipped", skipped)
	return inserted, skipped, nil
}
