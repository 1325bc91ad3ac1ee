package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_media/internal/engine"
	"github.com/anatolykoptev/go_media/internal/engine/airtable"
)

type fakeStore struct {
	existing  map[string]struct{}
	batches   [][]airtable.RecordFields
	listErr   error
	createErr error
	failAt    int
	listCalls int
}

func (f *fakeStore) ListNormalizedURLs(ctx context.Context) (map[string]struct{}, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]struct{}, len(f.existing))
	for k := range f.existing {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) CreateRecords(ctx context.Context, fields []airtable.RecordFields) error {
	if f.createErr != nil && len(f.batches)+1 >= f.failAt {
		return f.createErr
	}
	f.batches = append(f.batches, fields)
	if f.existing == nil {
		f.existing = make(map[string]struct{})
	}
	for _, r := range fields {
		f.existing[r.NormalizedURL] = struct{}{}
	}
	return nil
}

func recordsN(n int) []engine.MediaRecord {
	recs := make([]engine.MediaRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, engine.MediaRecord{
			Title:         fmt.Sprintf("item %d", i),
			URL:           fmt.Sprintf("https://example.org/item/%d", i),
			NormalizedURL: fmt.Sprintf("https://example.org/item/%d", i),
			Provider:      "openverse",
		})
	}
	return recs
}

func TestIngestFiltersExisting(t *testing.T) {
	store := &fakeStore{existing: map[string]struct{}{
		"https://example.org/item/1": {},
	}}
	g := NewGateway(store, airtable.MaxBatchSize)

	inserted, skipped, err := g.Ingest(context.Background(), recordsN(3))
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.Equal(t, 1, skipped)
	require.Equal(t, 1, store.listCalls)
	require.Len(t, store.batches, 1)
}

func TestIngestBatches(t *testing.T) {
	store := &fakeStore{}
	g := NewGateway(store, airtable.MaxBatchSize)

	inserted, skipped, err := g.Ingest(context.Background(), recordsN(23))
	require.NoError(t, err)
	require.Equal(t, 23, inserted)
	require.Equal(t, 0, skipped)
	require.Len(t, store.batches, 3)
	require.Len(t, store.batches[0], 10)
	require.Len(t, store.batches[1], 10)
	require.Len(t, store.batches[2], 3)
}

func TestIngestRerunIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	g := NewGateway(store, airtable.MaxBatchSize)
	recs := recordsN(5)

	inserted, skipped, err := g.Ingest(context.Background(), recs)
	require.NoError(t, err)
	require.Equal(t, 5, inserted)
	require.Equal(t, 0, skipped)

	inserted, skipped, err = g.Ingest(context.Background(), recs)
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
	require.Equal(t, 5, skipped)
}

func TestIngestListError(t *testing.T) {
	store := &fakeStore{listErr: &engine.DatastoreReadError{Err: errors.New("airtable down")}}
	g := NewGateway(store, airtable.MaxBatchSize)

	inserted, skipped, err := g.Ingest(context.Background(), recordsN(2))
	require.Error(t, err)
	var rerr *engine.DatastoreReadError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, 0, inserted)
	require.Equal(t, 0, skipped)
	require.Empty(t, store.batches)
}

func TestIngestWriteErrorStopsRun(t *testing.T) {
	store := &fakeStore{
		createErr: &engine.DatastoreWriteError{Err: errors.New("422")},
		failAt:    2,
	}
	g := NewGateway(store, airtable.MaxBatchSize)

	inserted, _, err := g.Ingest(context.Background(), recordsN(23))
	require.Error(t, err)
	var werr *engine.DatastoreWriteError
	require.ErrorAs(t, err, &werr)
	require.Equal(t, 10, inserted)
	require.Len(t, store.batches, 1)
}

func TestIngestEmptyInput(t *testing.T) {
	store := &fakeStore{}
	g := NewGateway(store, airtable.MaxBatchSize)

	inserted, skipped, err := g.Ingest(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
	require.Equal(t, 0, skipped)
	require.Equal(t, 0, store.listCalls)
}

func TestNewGatewayClampsBatchSize(t *testing.T) {
	store := &fakeStore{}
	g := NewGateway(store, 500)
	_, _, err := g.Ingest(context.Background(), recordsN(11))
	require.NoError(t, err)
	require.Len(t, store.batches, 2)
}
