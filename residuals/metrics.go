package residuals

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	reasonUnderdetermined = "underdetermined"
	reasonForecaster      = "forecaster"
)

// Metrics counts residual rows computed by the builder. A nil *Metrics records nothing.
type Metrics struct {
	rowsBuilt   prometheus.Counter
	rowsFailed  *prometheus.CounterVec
	rowDuration prometheus.Histogram
}

// NewMetrics registers the residual builder collectors with reg. A nil registerer uses the
// prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		rowsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conformal",
			Subsystem: "residuals",
			Name:      "rows_built_total",
			Help:      "Number of residual matrix rows computed from a refit forecaster.",
		}),
		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conformal",
			Subsystem: "residuals",
			Name:      "rows_failed_total",
			Help:      "Number of residual matrix rows left empty, by reason.",
		}, []string{"reason"}),
		rowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "conformal",
			Subsystem: "residuals",
			Name:      "row_duration_seconds",
			Help:      "Time spent fitting and predicting a single residual row.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.rowsBuilt, m.rowsFailed, m.rowDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("unable to register residual metrics, %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeBuilt(d time.Duration) {
	if m == nil {
		return
	}
	m.rowsBuilt.Inc()
	m.rowDuration.Observe(d.Seconds())
}

func (m *Metrics) observeFailed(d time.Duration, reason string) {
	if m == nil {
		return
	}
	m.rowsFailed.WithLabelValues(reason).Inc()
	m.rowDuration.Observe(d.Seconds())
}
