package engine

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_media/internal/metrics"
)

// Provider fetches media for a query from one upstream source.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]MediaRecord, error)
}

type providerResult struct {
	name    string
	records []MediaRecord
	err     error
}

// Aggregate fans the query out to every provider concurrently and merges
// what comes back into a single normalized, deduplicated batch. A failing
// provider contributes zero records and an error string in its detail entry;
// it never aborts the others. skipped counts records dropped for unparseable
// URLs plus in-batch duplicates.
func Aggregate(ctx context.Context, provs []Provider, q Query) (records []MediaRecord, details []ProviderDetail, skipped int) {
	ch := make(chan providerResult, len(provs))

	for _, p := range provs {
		go func(p Provider) {
			recs, err := p.Search(ctx, q)
			if err != nil {
				perr := &ProviderError{Provider: p.Name(), Err: err}
				slog.Warn("scrape: provider failed", slog.String("provider", p.Name()), slog.Any("error", err))
				metrics.ProviderErrors.WithLabelValues(p.Name()).Inc()
				ch <- providerResult{name: p.Name(), err: perr}
				return
			}
			metrics.ProviderResults.WithLabelValues(p.Name()).Add(float64(len(recs)))
			ch <- providerResult{name: p.Name(), records: recs}
		}(p)
	}

	byName := make(map[string]providerResult, len(provs))
	for range provs {
		r := <-ch
		byName[r.name] = r
	}

	// Merge in the order providers were given so output is deterministic.
	var merged []MediaRecord
	for _, p := range provs {
		r := byName[p.Name()]
		d := ProviderDetail{Provider: r.name, Fetched: len(r.records)}
		if r.err != nil {
			d.Error = r.err.Error()
		}
		details = append(details, d)
		merged = append(merged, r.records...)
	}

	seen := make(map[string]bool, len(merged))
	for _, rec := range merged {
		norm, err := NormalizeURL(rec.URL)
		if err != nil {
			slog.Warn("scrape: dropping record",
				slog.String("provider", rec.Provider), slog.String("url", rec.URL), slog.Any("error", err))
			skipped++
			continue
		}
		if seen[norm] {
			skipped++
			continue
		}
		seen[norm] = true
		rec.NormalizedURL = norm
		records = append(records, rec)
	}

	return records, details, skipped
}
