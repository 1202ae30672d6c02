// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	LastCycleRun  prometheus.Gauge

	// Trade metrics
	TradesTotal *prometheus.CounterVec
	DriftPct    prometheus.Histogram

	// Portfolio metrics
	PortfolioValueUSD *prometheus.GaugeVec

	// External call metrics
	LedgerCallLatency *prometheus.HistogramVec
	VenueCallLatency  *prometheus.HistogramVec

	// Scheduler metrics
	SchedulerPassesTotal prometheus.Counter
	BotsDueTotal         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_rebalancer"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of rebalance cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Rebalance cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		LastCycleRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "last_cycle_timestamp",
			Help:      "Unix timestamp of the last completed cycle",
		}),

		TradesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_total",
			Help:      "Total number of executed trades by action and status",
		}, []string{"action", "status"}),
		DriftPct: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "drift_percentage_points",
			Help:      "Observed allocation drift per trade intent",
			Buckets:   []float64{5, 10, 15, 20, 30, 50, 75, 100},
		}),

		PortfolioValueUSD: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "portfolio_value_usd",
			Help:      "Last valued portfolio total in USD by bot",
		}, []string{"bot_id"}),

		LedgerCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rpc_call_latency_seconds",
			Help:      "Ledger RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		VenueCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "request_latency_seconds",
			Help:      "Swap venue request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		SchedulerPassesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "passes_total",
			Help:      "Total number of scheduler passes",
		}),
		BotsDueTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "bots_due_total",
			Help:      "Total number of bots found due for rebalancing",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a completed cycle with its outcome and duration.
func RecordCycle(outcome string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(outcome).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordTrade increments the trade counter.
func RecordTrade(action, status string) {
	DefaultMetrics.TradesTotal.WithLabelValues(action, status).Inc()
}

// RecordDrift records an intent's drift in percentage points.
func RecordDrift(pp float64) {
	DefaultMetrics.DriftPct.Observe(pp)
}

// RecordPortfolioValue records a bot's last valued portfolio total.
func RecordPortfolioValue(botID string, usd float64) {
	DefaultMetrics.PortfolioValueUSD.WithLabelValues(botID).Set(usd)
}

// RecordLedgerCall records the latency of one ledger RPC call.
func RecordLedgerCall(method string, durationSeconds float64) {
	DefaultMetrics.LedgerCallLatency.WithLabelValues(method).Observe(durationSeconds)
}

// RecordVenueCall records the latency of one venue API request.
func RecordVenueCall(endpoint string, durationSeconds float64) {
	DefaultMetrics.VenueCallLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordSchedulerPass records one scheduler pass and how many bots it
// found due.
func RecordSchedulerPass(botsDue int) {
	DefaultMetrics.SchedulerPassesTotal.Inc()
	DefaultMetrics.BotsDueTotal.Add(float64(botsDue))
}
