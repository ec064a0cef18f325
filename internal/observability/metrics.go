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
	// Simulation metrics
	TicksTotal       *prometheus.CounterVec
	TickDuration     prometheus.Histogram
	TokensMutated    prometheus.Counter
	PriceSkipped     prometheus.Counter
	MutationsDropped prometheus.Counter
	SessionResets    prometheus.Counter
	LiveTokens       prometheus.Gauge

	// Feed metrics
	FeedClients      prometheus.Gauge
	FeedMessagesSent *prometheus.CounterVec
	FeedIntents      *prometheus.CounterVec
	FeedErrors       *prometheus.CounterVec

	// Summary metrics
	SummaryRuns   prometheus.Counter
	TopMoverAbs1h prometheus.Gauge

	// Health metrics
	LastTickTimestamp prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_pulse"
	}

	return &Metrics{
		// Simulation metrics
		TicksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "ticks_total",
			Help:      "Total number of tick passes by mode",
		}, []string{"mode"}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "tick_duration_seconds",
			Help:      "Time to compute and apply one tick pass",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		TokensMutated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "tokens_mutated_total",
			Help:      "Total number of token updates applied",
		}),
		PriceSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "price_skipped_total",
			Help:      "Token updates whose price fields were skipped for missing history",
		}),
		MutationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "mutations_dropped_total",
			Help:      "Token updates discarded because the session was stopping",
		}),
		SessionResets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "session_resets_total",
			Help:      "Total number of token set resets",
		}),
		LiveTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "live_tokens",
			Help:      "Number of tokens in the current set",
		}),

		// Feed metrics
		FeedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Number of connected feed clients",
		}),
		FeedMessagesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_sent_total",
			Help:      "Total number of feed messages sent by type",
		}, []string{"type"}),
		FeedIntents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "intents_total",
			Help:      "Total number of client intents received by type",
		}, []string{"type"}),
		FeedErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "errors_total",
			Help:      "Total number of feed errors by kind",
		}, []string{"kind"}),

		// Summary metrics
		SummaryRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "runs_total",
			Help:      "Total number of summary reports produced",
		}),
		TopMoverAbs1h: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "top_mover_abs_change_1h_percent",
			Help:      "Largest absolute 1h price change at the last summary",
		}),

		// Health metrics
		LastTickTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_tick_timestamp",
			Help:      "Unix timestamp of the last applied tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTick records one applied tick pass.
func RecordTick(mode string, mutated, priceSkipped int, seconds float64, unixTime int64) {
	DefaultMetrics.TicksTotal.WithLabelValues(mode).Inc()
	DefaultMetrics.TickDuration.Observe(seconds)
	DefaultMetrics.TokensMutated.Add(float64(mutated))
	DefaultMetrics.PriceSkipped.Add(float64(priceSkipped))
	DefaultMetrics.LastTickTimestamp.Set(float64(unixTime))
}

// RecordMutationDropped increments the dropped mutations counter.
func RecordMutationDropped() {
	DefaultMetrics.MutationsDropped.Inc()
}

// RecordReset records a token set reset of the given size.
func RecordReset(tokens int) {
	DefaultMetrics.SessionResets.Inc()
	DefaultMetrics.LiveTokens.Set(float64(tokens))
}

// UpdateFeedClients sets the connected clients gauge.
func UpdateFeedClients(n int) {
	DefaultMetrics.FeedClients.Set(float64(n))
}

// RecordFeedMessage increments the sent messages counter for msgType.
func RecordFeedMessage(msgType string) {
	DefaultMetrics.FeedMessagesSent.WithLabelValues(msgType).Inc()
}

// RecordIntent increments the received intents counter for intentType.
func RecordIntent(intentType string) {
	DefaultMetrics.FeedIntents.WithLabelValues(intentType).Inc()
}

// RecordFeedError records a feed error by kind.
func RecordFeedError(kind string) {
	DefaultMetrics.FeedErrors.WithLabelValues(kind).Inc()
}

// RecordSummary records a summary run and its top absolute 1h change.
func RecordSummary(topAbs1h float64) {
	DefaultMetrics.SummaryRuns.Inc()
	DefaultMetrics.TopMoverAbs1h.Set(topAbs1h)
}
