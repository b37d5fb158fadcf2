package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// metrics holds the Prometheus gauges this server exposes, scoped to
// what the status server actually tracks: per-eval F1, precision, recall
// and iteration count, trimmed from arx-backend/gateway/health.go's broader
// HealthMetrics (status/response-time/failure histograms) since there's
// no remote service being polled here, just local aggregate.json files.
type metrics struct {
	f1         *prometheus.GaugeVec
	precision  *prometheus.GaugeVec
	recall     *prometheus.GaugeVec
	iterations *prometheus.GaugeVec
}

func newMetrics(registerer prometheus.Registerer) *metrics {
	factory := promauto.With(registerer)
	return &metrics{
		f1: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "takeoff24_eval_f1",
			Help: "Latest field-level F1 score recorded for an evaluation.",
		}, []string{"eval_id"}),
		precision: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "takeoff24_eval_precision",
			Help: "Latest field-level precision recorded for an evaluation.",
		}, []string{"eval_id"}),
		recall: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "takeoff24_eval_recall",
			Help: "Latest field-level recall recorded for an evaluation.",
		}, []string{"eval_id"}),
		iterations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "takeoff24_eval_iterations",
			Help: "Number of improvement iterations recorded for an evaluation.",
		}, []string{"eval_id"}),
	}
}

func (m *metrics) observe(aggregate *store.Aggregate) {
	if len(aggregate.Iterations) == 0 {
		return
	}
	latest := aggregate.Iterations[len(aggregate.Iterations)-1]
	m.f1.WithLabelValues(aggregate.EvalID).Set(latest.F1)
	m.precision.WithLabelValues(aggregate.EvalID).Set(latest.Precision)
	m.recall.WithLabelValues(aggregate.EvalID).Set(latest.Recall)
	m.iterations.WithLabelValues(aggregate.EvalID).Set(float64(len(aggregate.Iterations)))
}
