// Package metrics holds the Prometheus collectors for trades and the quote cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trade outcome label values.
const (
	OutcomeCommitted = "committed"
	OutcomeRefused   = "refused"
	OutcomeFailed    = "failed"
)

// Registry holds every collector exported by the service.
// All methods are safe on a nil *Registry, which records nothing.
type Registry struct {
	TradesTotal      *prometheus.CounterVec
	TradeDuration    *prometheus.HistogramVec
	QuoteCacheHits   prometheus.Counter
	QuoteCacheMisses prometheus.Counter
	QuoteCacheErrors *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eva_trades_total",
				Help: "Trade attempts by side and outcome",
			},
			[]string{"side", "outcome"},
		),
		TradeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eva_trade_duration_seconds",
				Help:    "Wall time of trade attempts including the atomic unit",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"side"},
		),
		QuoteCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eva_quote_cache_hits_total",
			Help: "Latest-rate reads answered from Redis",
		}),
		QuoteCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eva_quote_cache_misses_total",
			Help: "Latest-rate reads that fell through to the database",
		}),
		QuoteCacheErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eva_quote_cache_errors_total",
				Help: "Redis failures on the quote path by operation",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(
		m.TradesTotal,
		m.TradeDuration,
		m.QuoteCacheHits,
		m.QuoteCacheMisses,
		m.QuoteCacheErrors,
	)
	return m
}

// ObserveTrade records one trade attempt.
func (m *Registry) ObserveTrade(side, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TradesTotal.WithLabelValues(side, outcome).Inc()
	m.TradeDuration.WithLabelValues(side).Observe(d.Seconds())
}

// QuoteCacheHit records a cache hit.
func (m *Registry) QuoteCacheHit() {
	if m != nil {
		m.QuoteCacheHits.Inc()
	}
}

// QuoteCacheMiss records a cache miss.
func (m *Registry) QuoteCacheMiss() {
	if m != nil {
		m.QuoteCacheMisses.Inc()
	}
}

// QuoteCacheError records a Redis failure for op (get, set, del).
func (m *Registry) QuoteCacheError(op string) {
	if m != nil {
		m.QuoteCacheErrors.WithLabelValues(op).Inc()
	}
}

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
