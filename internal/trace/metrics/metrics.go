// Package metrics holds Prometheus metrics for the ownership trace core.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ledgertrace/internal/trace/registry"
)

// Metrics holds all Prometheus metrics for the trace core.
type Metrics struct {
	RegistryRequests   *prometheus.CounterVec
	CrawlDuration      prometheus.Histogram
	EntitiesDiscovered prometheus.Histogram
	ChainsFound        prometheus.Histogram
}

// New creates and registers all trace metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgertrace_registry_requests_total",
			Help: "Registry lookups by operation and outcome",
		}, []string{"operation", "outcome"}),
		CrawlDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgertrace_crawl_duration_seconds",
			Help:    "Wall time of full ownership crawls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		EntitiesDiscovered: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgertrace_entities_discovered",
			Help:    "Entities in the network at the end of a crawl",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		ChainsFound: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgertrace_chains_found",
			Help:    "Ownership chains extracted per trace",
			Buckets: prometheus.LinearBuckets(0, 2, 8),
		}),
	}
}

// IncRegistryRequest counts one registry lookup.
func (m *Metrics) IncRegistryRequest(operation, outcome string) {
	m.RegistryRequests.WithLabelValues(operation, outcome).Inc()
}

// ObserveCrawl records the duration of a completed crawl.
func (m *Metrics) ObserveCrawl(d time.Duration) {
	m.CrawlDuration.Observe(d.Seconds())
}

// ObserveEntitiesDiscovered records the final network size of a crawl.
func (m *Metrics) ObserveEntitiesDiscovered(n int) {
	m.EntitiesDiscovered.Observe(float64(n))
}

// ObserveChainsFound records how many chains a trace produced.
func (m *Metrics) ObserveChainsFound(n int) {
	m.ChainsFound.Observe(float64(n))
}

// OutcomeFor labels a registry error for the requests counter.
func OutcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, registry.ErrNotFound):
		return "not_found"
	case errors.Is(err, registry.ErrThrottled):
		return "throttled"
	case errors.Is(err, registry.ErrParse):
		return "parse_failure"
	default:
		return "transport"
	}
}
