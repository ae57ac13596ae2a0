package mpipe

import "context"

// TaskProcessor is the capability interface a custom worker implements. It
// is the low-level counterpart of TransformFunc: it receives a
// WorkerContext so it can publish zero, one, or many results per input via
// PutResult, instead of returning a single value.
type TaskProcessor interface {
	Process(ctx context.Context, w *WorkerContext, task interface{}) error
}

// TransformFunc adapts a plain function into a TaskProcessor, the same
// trick ProcessorFunc plays for the Processor interface. A non-nil
// returned result is published to every output tube; a nil result
// publishes nothing for this task. A TransformFunc has no WorkerContext, so
// publishing several results per task takes a TaskProcessor instead.
type TransformFunc func(ctx context.Context, task interface{}) (interface{}, error)

// Process implements TaskProcessor.
func (f TransformFunc) Process(ctx context.Context, w *WorkerContext, task interface{}) error {
	result, err := f(ctx, task)
	if err != nil {
		return err
	}
	if result != nil {
		w.PutResult(result)
	}
	return nil
}

// WorkerContext is handed to a TaskProcessor on every call so it can
// publish results explicitly. For an ordered worker, PutResult buffers the
// result and the worker flushes the buffer atomically under the output-ring
// token once Process returns, preserving output order even across
// multi-result calls. For an unordered worker, PutResult publishes
// immediately since there is no ordering to preserve.
type WorkerContext struct {
	outputs  []Tube
	buffered bool
	pending  []interface{}
}

// PutResult registers result by publishing it to every output tube of the
// worker's stage. Calling it with a nil result is a no-op: nil is reserved
// for the stop sentinel and is never forwarded as a task result.
func (w *WorkerContext) PutResult(result interface{}) {
	if result == nil {
		return
	}
	if w.buffered {
		w.pending = append(w.pending, result)
		return
	}
	publishAll(w.outputs, result)
}

func (w *WorkerContext) flush() {
	for _, r := range w.pending {
		publishAll(w.outputs, r)
	}
	w.pending = w.pending[:0]
}

func publishAll(outputs []Tube, result interface{}) {
	for _, t := range outputs {
		t.put(dataEnvelope(result))
	}
}

// ringToken is a one-shot handoff primitive: a buffered channel of capacity
// one that holds at most a single token. The holder of the token is never
// the one who releases it back to itself within the same step — acquire
// waits for the token to arrive, release hands it to the next owner.
type ringToken chan struct{}

func newRingToken(released bool) ringToken {
	t := make(ringToken, 1)
	if released {
		t <- struct{}{}
	}
	return t
}

func (t ringToken) acquire() { <-t }
func (t ringToken) release() { t <- struct{}{} }

// ringSet bundles the four tokens a single ordered worker holds: its
// previous/next neighbors on the input ring and on the output ring.
type ringSet struct {
	prevInput, nextInput   ringToken
	prevOutput, nextOutput ringToken
}

// buildRings constructs the two token rings (input, output) for a pool of n
// ordered workers. Edge i represents the handoff from worker i to worker
// (i+1)%n. Worker 0 is designated first: the edge feeding it (n-1 -> 0) is
// pre-released on both rings so it can proceed on the first iteration
// without waiting on anyone; every other edge starts held.
func buildRings(n int) []ringSet {
	inputEdges := make([]ringToken, n)
	outputEdges := make([]ringToken, n)
	for i := 0; i < n; i++ {
		released := i == n-1
		inputEdges[i] = newRingToken(released)
		outputEdges[i] = newRingToken(released)
	}

	rings := make([]ringSet, n)
	for i := 0; i < n; i++ {
		prevEdge := (i - 1 + n) % n
		rings[i] = ringSet{
			prevInput:  inputEdges[prevEdge],
			nextInput:  inputEdges[i],
			prevOutput: outputEdges[prevEdge],
			nextOutput: outputEdges[i],
		}
	}
	return rings
}

// propagateStop implements the shared stop-aggregation rule (spec §4.4) for
// both worker kinds. count is the value already carried by the observed
// stop envelope (0 on first observation by any worker in the stage). When
// the full pool has now seen stop, exactly one NONE envelope is emitted to
// every output tube and no further synchronization is needed: count == n
// proves no peer of this stage is still computing or publishing.
// Otherwise the incremented stop is re-enqueued on the stage's own input
// tube for another worker to pick up.
func propagateStop(count, n int, input Tube, outputs []Tube) {
	count++
	if count == n {
		for _, t := range outputs {
			t.put(stopEnvelope(0))
		}
		return
	}
	input.put(stopEnvelope(count))
}

// runOrderedWorker implements the per-iteration protocol of spec §4.2. ctx
// is threaded through to the user's TaskProcessor only; ring acquisition
// and tube reads are not cancellable, because the spec defines no forced
// cancellation mechanism — the stop sentinel is the only shutdown path, and
// tearing a worker out mid-ring would strand its neighbor.
func runOrderedWorker(stageName string, idx, n int, input Tube, outputs []Tube, proc TaskProcessor, r ringSet, errCh chan<- error, reporter MetricsReporter) {
	ctx := context.Background()
	wctx := &WorkerContext{outputs: outputs, buffered: true}

	for {
		r.prevInput.acquire()
		env := input.get()
		r.nextInput.release()

		if env.isStop() {
			if reporter != nil {
				reporter.StopObserved(stageName)
			}
			propagateStop(env.count, n, input, outputs)
			return
		}

		if err := proc.Process(ctx, wctx, env.payload); err != nil {
			maybeEmitError(wrapWorkerError(stageName, idx, err), errCh)
			wctx.pending = wctx.pending[:0]
		} else if reporter != nil {
			reporter.TaskProcessed(stageName)
		}

		r.prevOutput.acquire()
		wctx.flush()
		r.nextOutput.release()
	}
}

// runUnorderedWorker implements spec §4.3: no inter-worker synchronization,
// publish as soon as the transform completes.
func runUnorderedWorker(stageName string, idx, n int, input Tube, outputs []Tube, proc TaskProcessor, errCh chan<- error, reporter MetricsReporter) {
	ctx := context.Background()
	wctx := &WorkerContext{outputs: outputs, buffered: false}

	for {
		env := input.get()
		if env.isStop() {
			if reporter != nil {
				reporter.StopObserved(stageName)
			}
			propagateStop(env.count, n, input, outputs)
			return
		}

		if err := proc.Process(ctx, wctx, env.payload); err != nil {
			maybeEmitError(wrapWorkerError(stageName, idx, err), errCh)
		} else if reporter != nil {
			reporter.TaskProcessed(stageName)
		}
	}
}
