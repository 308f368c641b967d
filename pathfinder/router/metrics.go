package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records quote fetch outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cycleTotal    *prometheus.CounterVec
	staleTotal    prometheus.Counter
}

// NewMetrics registers the quote metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spectra_swap",
			Subsystem: "quotes",
			Name:      "fetch_total",
			Help:      "Quote fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spectra_swap",
			Subsystem: "quotes",
			Name:      "fetch_duration_seconds",
			Help:      "Quote fetch latency by source.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		cycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spectra_swap",
			Subsystem: "quotes",
			Name:      "resolve_total",
			Help:      "Completed best-quote resolutions by resulting state.",
		}, []string{"state"}),
		staleTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spectra_swap",
			Subsystem: "quotes",
			Name:      "stale_results_total",
			Help:      "Resolutions discarded because a newer request superseded them.",
		}),
	}
	reg.MustRegister(m.fetchTotal, m.fetchDuration, m.cycleTotal, m.staleTotal)
	return m
}

func (m *Metrics) observeFetch(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fetchTotal.WithLabelValues(source, outcome).Inc()
	m.fetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeCycle(state State) {
	if m == nil {
		return
	}
	m.cycleTotal.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) observeStale() {
	if m == nil {
		return
	}
	m.staleTotal.Inc()
}
