package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh results.
const (
	resultUpdated   = "updated"
	resultUnchanged = "unchanged"
	resultFailed    = "failed"
)

// Metrics instruments refreshes. A nil *Metrics records nothing.
type Metrics struct {
	refreshes *prometheus.CounterVec
	duration  prometheus.Histogram
	flags     *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartflags",
			Name:      "refresh_total",
			Help:      "Feature flag refreshes against the remote store, by result.",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "smartflags",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching feature flags from the remote store.",
			Buckets:   prometheus.DefBuckets,
		}),
		flags: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "smartflags",
			Name:      "flags",
			Help:      "Feature flags currently loaded, by label.",
		}, []string{"label"}),
	}
}

func (m *Metrics) observe(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) setFlags(label string, n int) {
	if m == nil {
		return
	}
	m.flags.WithLabelValues(label).Set(float64(n))
}
