package mpipe

import (
	"time"

	"github.com/hashicorp/go-multierror"
)

// Pipeline is the root handle of a stage graph: it triggers the build,
// exposes put/get over the root and its leaves, and a lazy result stream.
// A Pipeline is single-shot: once the stop sentinel drains through, Results
// closes and the pipeline cannot be restarted.
type Pipeline struct {
	root   *Stage
	leaves []*Stage
	errCh  chan error
}

// New builds a Pipeline rooted at root: it records root's leaves and then
// builds the graph, starting every stage's worker pool. No further Link
// calls are permitted on any stage in the graph after this returns.
func New(root *Stage) *Pipeline {
	p := &Pipeline{
		root:   root,
		leaves: root.Leaves(),
		errCh:  make(chan error, 64),
	}
	root.build(p.errCh)
	return p
}

// Put enqueues task on the pipeline's root stage.
func (p *Pipeline) Put(task interface{}) error {
	return p.root.Put(task)
}

// Stop enqueues the stop sentinel on the root stage. The sentinel
// propagates through every stage and eventually closes Results.
func (p *Pipeline) Stop() {
	p.root.Stop()
}

// Get reads one payload from every leaf stage's output tube, in leaf order,
// and returns the last one read, along with whether at least one leaf
// yielded a value within timeout. timeout <= 0 blocks forever. Values read
// from the other leaves are discarded, so with several leaves only the last
// leaf's value is returned; in the common single-leaf pipeline this simply
// returns that leaf's next value.
func (p *Pipeline) Get(timeout time.Duration) (interface{}, bool) {
	var (
		result interface{}
		valid  bool
	)
	for _, leaf := range p.leaves {
		v, ok := leaf.Get(timeout)
		if ok {
			valid = true
			result = v
		}
	}
	return result, valid
}

// Results returns a channel that yields the payload returned by each
// successive Get (with several leaves, only the last leaf's values),
// closing as soon as the stop sentinel is observed. It is a one-shot lazy sequence: create at most one per
// pipeline, since it drives Get just like a direct caller would.
func (p *Pipeline) Results() <-chan interface{} {
	out := make(chan interface{})
	go func() {
		defer close(out)
		for {
			v, ok := p.Get(0)
			if !ok {
				continue
			}
			if v == nil {
				return
			}
			out <- v
		}
	}()
	return out
}

// Errors returns the channel that stage workers report transform errors on.
// It is buffered and never blocks a worker: once full, further errors are
// dropped (see maybeEmitError).
func (p *Pipeline) Errors() <-chan error {
	return p.errCh
}

// Err drains any errors currently queued on Errors and folds them into a
// single error via hashicorp/go-multierror, or nil if none are queued.
func (p *Pipeline) Err() error {
	var result error
	for {
		select {
		case err := <-p.errCh:
			result = multierror.Append(result, err)
		default:
			return result
		}
	}
}
