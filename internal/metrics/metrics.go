// Package metrics provides a prometheus-backed implementation of
// mpipe.MetricsReporter for use by cmd/mpipedemo. It is kept out of the
// core mpipe package so that the library itself carries no hard dependency
// on github.com/prometheus/client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reporter counts tasks processed and stop sentinels observed, labeled by
// stage name, the same shape the sibling linksrus services expose under
// /metrics (see Chapter13/prom_http).
type Reporter struct {
	tasksProcessed *prometheus.CounterVec
	stopsObserved  *prometheus.CounterVec
}

// New creates a Reporter and registers its collectors with reg.
func New(reg prometheus.Registerer) *Reporter {
	r := &Reporter{
		tasksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpipe",
			Name:      "tasks_processed_total",
			Help:      "Number of tasks successfully processed by a stage.",
		}, []string{"stage"}),
		stopsObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpipe",
			Name:      "stop_observed_total",
			Help:      "Number of workers that observed the stop sentinel, per stage.",
		}, []string{"stage"}),
	}
	reg.MustRegister(r.tasksProcessed, r.stopsObserved)
	return r
}

// TaskProcessed implements mpipe.MetricsReporter.
func (r *Reporter) TaskProcessed(stage string) {
	r.tasksProcessed.WithLabelValues(stage).Inc()
}

// StopObserved implements mpipe.MetricsReporter.
func (r *Reporter) StopObserved(stage string) {
	r.stopsObserved.WithLabelValues(stage).Inc()
}
