package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests counts completed provider requests by endpoint and status class
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saci",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests issued to remote providers",
		},
		[]string{"host", "status"},
	)

	// HTTPRetries counts retry decisions taken by the fetcher
	HTTPRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saci",
			Name:      "http_retries_total",
			Help:      "Total number of HTTP retries by reason",
		},
		[]string{"reason"},
	)

	// SearchPages counts result pages fetched from the vulnerability API
	SearchPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saci",
			Name:      "search_pages_total",
			Help:      "Total number of search result pages fetched",
		},
		[]string{"keyword"},
	)

	// TaxonomyDownloads counts one-shot taxonomy downloads by outcome
	TaxonomyDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saci",
			Name:      "taxonomy_downloads_total",
			Help:      "Total number of taxonomy download attempts",
		},
		[]string{"taxonomy", "outcome"},
	)

	// RecordsEnriched counts normalized records produced
	RecordsEnriched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saci",
			Name:      "records_enriched_total",
			Help:      "Total number of vulnerability records enriched",
		},
	)

	// RecordsSkipped counts raw records dropped during enrichment
	RecordsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "saci",
			Name:      "records_skipped_total",
			Help:      "Total number of raw records skipped for missing identifiers",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(HTTPRequests)
		prometheus.DefaultRegisterer.Register(HTTPRetries)
		prometheus.DefaultRegisterer.Register(SearchPages)
		prometheus.DefaultRegisterer.Register(TaxonomyDownloads)
		prometheus.DefaultRegisterer.Register(RecordsEnriched)
		prometheus.DefaultRegisterer.Register(RecordsSkipped)
	})
}

// WriteMetricsFile dumps the default registry in text exposition format,
// for node_exporter's textfile collector.
func WriteMetricsFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
