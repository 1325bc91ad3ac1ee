// Package metrics holds the Prometheus collectors for the scrape pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScrapeRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scrape_requests_total",
			Help: "Total number of scrape-and-insert requests accepted.",
		},
	)
	ScrapeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_scrape_duration_seconds",
			Help:    "Duration of completed scrape-and-insert requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	ProviderResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_provider_results_total",
			Help: "Total number of raw results fetched, labeled by provider.",
		},
		[]string{"provider"},
	)
	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_provider_errors_total",
			Help: "Total number of failed provider searches, labeled by provider.",
		},
		[]string{"provider"},
	)
	RecordsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_records_inserted_total",
			Help: "Total number of records written to the datastore.",
		},
	)
	RecordsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_records_skipped_total",
			Help: "Total number of records skipped as duplicates or dropped.",
		},
	)
	AuthRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_auth_rejections_total",
			Help: "Total number of requests rejected for a bad shared secret.",
		},
	)
)

func init() {
	prometheus.MustRegister(ScrapeRequests)
	prometheus.MustRegister(ScrapeDuration)
	prometheus.MustRegister(ProviderResults)
	prometheus.MustRegister(ProviderErrors)
	prometheus.MustRegister(RecordsInserted)
	prometheus.MustRegister(RecordsSkipped)
	prometheus.MustRegister(AuthRejections)
}

// Handler exposes the registered collectors in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
