package slizzai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. Attach with
// WithMetrics; a nil *Metrics disables recording (every method is
// nil-safe), so the pipeline never branches on whether metrics are
// configured.
type Metrics struct {
	tilesCompleted prometheus.Counter
	tilesFailed    prometheus.Counter
	tilesSkipped   prometheus.Counter
	retriesTotal   prometheus.Counter

	budgetConsumed prometheus.Gauge
	budgetReserved prometheus.Gauge

	runDuration prometheus.Histogram
}

// NewMetrics creates and registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		tilesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "slizzai_tiles_completed_total",
			Help: "Total number of tiles that reached the frame buffer",
		}),
		tilesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "slizzai_tiles_failed_total",
			Help: "Total number of tiles that exhausted retries or hit a fatal failure",
		}),
		tilesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "slizzai_tiles_skipped_total",
			Help: "Total number of tiles never admitted (budget exhausted or run cancelled)",
		}),
		retriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slizzai_stage_retries_total",
			Help: "Total number of stage retry attempts",
		}),
		budgetConsumed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "slizzai_budget_consumed_units",
			Help: "Finalized budget consumption of the current cycle",
		}),
		budgetReserved: factory.NewGauge(prometheus.GaugeOpts{
			Name: "slizzai_budget_reserved_units",
			Help: "Outstanding budget reservations of the current cycle",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "slizzai_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~163s
		}),
	}
}

func (m *Metrics) tileCompleted() {
	if m != nil {
		m.tilesCompleted.Inc()
	}
}

func (m *Metrics) tileFailed() {
	if m != nil {
		m.tilesFailed.Inc()
	}
}

func (m *Metrics) tileSkipped() {
	if m != nil {
		m.tilesSkipped.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retriesTotal.Inc()
	}
}

func (m *Metrics) budget(consumed, reserved float64) {
	if m != nil {
		m.budgetConsumed.Set(consumed)
		m.budgetReserved.Set(reserved)
	}
}

func (m *Metrics) runFinished(seconds float64) {
	if m != nil {
		m.runDuration.Observe(seconds)
	}
}
