package mpipe

import "golang.org/x/xerrors"

var (
	// ErrInvalidPoolSize is returned by the stage constructors when size < 1.
	ErrInvalidPoolSize = xerrors.New("mpipe: stage pool size must be >= 1")

	// ErrAlreadyBuilt is returned by Link when the pipeline containing the
	// stage has already been built; the graph is frozen at that point.
	ErrAlreadyBuilt = xerrors.New("mpipe: pipeline graph already built")

	// ErrNilPayload is returned by Put when the caller tries to enqueue a
	// nil task; nil is reserved for the stop sentinel.
	ErrNilPayload = xerrors.New("mpipe: payload must not be nil; nil is reserved for the stop sentinel")

	// ErrCycle is returned by Link when linking would introduce a cycle in
	// the stage graph.
	ErrCycle = xerrors.New("mpipe: link would introduce a cycle")
)

// maybeEmitError attempts to queue err onto a buffered error channel. If the
// channel is full the error is dropped rather than blocking the worker that
// observed it, the same non-blocking send used by pipeline.maybeEmitError.
func maybeEmitError(err error, errCh chan<- error) {
	select {
	case errCh <- err:
	default:
	}
}

func wrapWorkerError(stageName string, workerIdx int, err error) error {
	return xerrors.Errorf("mpipe: stage %q worker %d: %w", stageName, workerIdx, err)
}
