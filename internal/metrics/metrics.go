package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for remote calls.
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeNetwork   = "network"
	OutcomeBadStatus = "bad_status"
	OutcomeMalformed = "malformed"
)

// Kinds of work that can fall back or go stale.
const (
	KindPredictions = "predictions"
	KindCatalog     = "catalog"
)

// Metrics provides observability for the retrieval and recommendation layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Remote calls by endpoint and outcome
	RemoteCalls *prometheus.CounterVec

	// Remote call latency by endpoint
	RemoteLatency *prometheus.HistogramVec

	// Local substitutions served after the remote was unavailable
	Fallbacks *prometheus.CounterVec

	// Completions dropped because a newer request superseded them
	StaleResults *prometheus.CounterVec
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer for
// the process-wide registry or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RemoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storedash_remote_calls_total",
			Help: "Total remote calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		RemoteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storedash_remote_call_duration_seconds",
			Help:    "Duration of remote calls by endpoint, including failed ones",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),

		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storedash_fallback_total",
			Help: "Total local fallbacks served by kind",
		}, []string{"kind"}),

		StaleResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storedash_stale_results_total",
			Help: "Total superseded results discarded by kind",
		}, []string{"kind"}),
	}
}

// ObserveRemoteCall records one finished remote call.
func (m *Metrics) ObserveRemoteCall(endpoint, outcome string, d time.Duration) {
	if m != nil {
		m.RemoteCalls.WithLabelValues(endpoint, outcome).Inc()
		m.RemoteLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementFallback(kind string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementStale(kind string) {
	if m != nil {
		m.StaleResults.WithLabelValues(kind).Inc()
	}
}
