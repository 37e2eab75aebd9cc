// Package metrics exposes grid recompute statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mapgrid"

// Reasons a view change is skipped without a recompute.
const (
	ReasonGuard   = "guard"
	ReasonNoView  = "no_view"
	ReasonStopped = "stopped"
)

// Recorder holds the collectors of one generator. A nil *Recorder records
// nothing.
type Recorder struct {
	recomputes *prometheus.CounterVec
	duration   prometheus.Histogram
	features   prometheus.Gauge
	skipped    *prometheus.CounterVec
	coalesced  prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Recorder{
		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Grid recomputes by resolution tier",
		}, []string{"tier"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent computing one grid",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		features: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Number of features in the published grid",
		}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_skipped_total",
			Help:      "View changes that did not trigger a recompute",
		}, []string{"reason"}),
		coalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_coalesced_total",
			Help:      "Pending view changes replaced by a newer one",
		}),
	}
}

// ObserveRecompute records one finished compute.
func (r *Recorder) ObserveRecompute(tier string, d time.Duration, features int) {
	if r == nil {
		return
	}
	r.recomputes.WithLabelValues(tier).Inc()
	r.duration.Observe(d.Seconds())
	r.features.Set(float64(features))
}

// Published updates the feature gauge without a compute, e.g. when the grid is
// cleared.
func (r *Recorder) Published(features int) {
	if r == nil {
		return
	}
	r.features.Set(float64(features))
}

// Skipped counts a view change that was not computed.
func (r *Recorder) Skipped(reason string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(reason).Inc()
}

// Coalesced counts a pending request overwritten by a newer one.
func (r *Recorder) Coalesced() {
	if r == nil {
		return
	}
	r.coalesced.Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
