package mpipe

// MetricsReporter receives lifecycle notifications from stage workers. It
// is an interface, not a concrete prometheus dependency, so the core
// package stays instrumentation-agnostic; see internal/metrics for a
// github.com/prometheus/client_golang-backed implementation used by
// cmd/mpipedemo. A nil MetricsReporter on a Stage is valid and disables
// reporting entirely.
type MetricsReporter interface {
	// TaskProcessed is called after a worker's transform returns
	// successfully for one task.
	TaskProcessed(stage string)

	// StopObserved is called once per worker that observes the stop
	// sentinel, including the worker that finally propagates it downstream.
	StopObserved(stage string)
}
