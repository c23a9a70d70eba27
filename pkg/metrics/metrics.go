// Package metrics exposes Prometheus collectors for the feed pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	poolHandlesTotal     prometheus.Gauge
	poolHandlesAvailable prometheus.Gauge
	poolHandlesInUse     prometheus.Gauge
	poolRecoveriesTotal  prometheus.Counter
	fetchesTotal         *prometheus.CounterVec
	fetchDurationSeconds prometheus.Histogram
	itemsParsedTotal     prometheus.Counter
	itemsFailedTotal     prometheus.Counter
	itemsNoLinksTotal    prometheus.Counter

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		poolHandlesTotal = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "renderfeed_pool_handles_total",
			Help: "Number of browser handles owned by the pool.",
		})
		poolHandlesAvailable = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "renderfeed_pool_handles_available",
			Help: "Number of browser handles currently available.",
		})
		poolHandlesInUse = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "renderfeed_pool_handles_in_use",
			Help: "Number of browser handles currently checked out.",
		})
		poolRecoveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "renderfeed_pool_recoveries_total",
			Help: "Total number of dead-handle recoveries attempted.",
		})
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renderfeed_fetches_total",
				Help: "Total feed fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		fetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "renderfeed_fetch_duration_seconds",
			Help:    "Histogram of feed fetch latencies.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		})
		itemsParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "renderfeed_items_parsed_total",
			Help: "Total feed items successfully parsed.",
		})
		itemsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "renderfeed_items_failed_total",
			Help: "Total feed items that failed assembly or validation.",
		})
		itemsNoLinksTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "renderfeed_items_without_links_total",
			Help: "Total feed items whose content carried no links.",
		})
	})
}

// SetPoolGauges records a pool stats snapshot.
func SetPoolGauges(total, available, inUse int) {
	if poolHandlesTotal == nil {
		return
	}
	poolHandlesTotal.Set(float64(total))
	poolHandlesAvailable.Set(float64(available))
	poolHandlesInUse.Set(float64(inUse))
}

// IncRecovery counts one dead-handle recovery attempt.
func IncRecovery() {
	if poolRecoveriesTotal != nil {
		poolRecoveriesTotal.Inc()
	}
}

// ObserveFetch records the outcome and duration of one fetch.
func ObserveFetch(outcome string, duration time.Duration) {
	if fetchesTotal == nil {
		return
	}
	fetchesTotal.WithLabelValues(outcome).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// IncItemParsed counts one successfully assembled item.
func IncItemParsed() {
	if itemsParsedTotal != nil {
		itemsParsedTotal.Inc()
	}
}

// IncItemFailed counts one item that failed assembly or validation.
func IncItemFailed() {
	if itemsFailedTotal != nil {
		itemsFailedTotal.Inc()
	}
}

// IncItemWithoutLinks counts one item whose content carried no links.
func IncItemWithoutLinks() {
	if itemsNoLinksTotal != nil {
		itemsNoLinksTotal.Inc()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
