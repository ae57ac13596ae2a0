package mpipe

import "time"

type workerClass int

const (
	unordered workerClass = iota
	ordered
)

// Stage is a pool of identical workers sharing one input tube and a
// fan-out list of output tubes. It is the unit of composition: stages are
// linked into a DAG and handed to New to build a Pipeline.
type Stage struct {
	name       string
	class      workerClass
	size       int
	proc       TaskProcessor
	input      Tube
	outputs    []Tube
	downstream []*Stage
	built      bool
	reporter   MetricsReporter
}

// NewOrderedStage returns a stage of size workers whose output order always
// matches its input order, regardless of how the transform interleaves
// internally. fn is applied to every task; a non-nil return value is
// published to every downstream edge.
func NewOrderedStage(name string, fn TransformFunc, size int) (*Stage, error) {
	return newStage(name, ordered, fn, size)
}

// NewUnorderedStage returns a stage of size workers that publish results as
// soon as each transform completes, with no ordering guarantee relative to
// input order.
func NewUnorderedStage(name string, fn TransformFunc, size int) (*Stage, error) {
	return newStage(name, unordered, fn, size)
}

// NewCustomOrderedStage is the capability-interface counterpart of
// NewOrderedStage, for workers that need to publish zero, one, or many
// results per input task via WorkerContext.PutResult.
func NewCustomOrderedStage(name string, proc TaskProcessor, size int) (*Stage, error) {
	return newStage(name, ordered, proc, size)
}

// NewCustomUnorderedStage is the capability-interface counterpart of
// NewUnorderedStage.
func NewCustomUnorderedStage(name string, proc TaskProcessor, size int) (*Stage, error) {
	return newStage(name, unordered, proc, size)
}

func newStage(name string, class workerClass, proc TaskProcessor, size int) (*Stage, error) {
	if size < 1 {
		return nil, ErrInvalidPoolSize
	}

	var input Tube
	if class == ordered {
		input = NewPTube()
	} else {
		input = NewQTube()
	}

	return &Stage{
		name:  name,
		class: class,
		size:  size,
		proc:  proc,
		input: input,
	}, nil
}

// newTerminalTube returns the tube variant this stage's own worker class
// requires for an output edge: a QTube for unordered stages, since an
// unordered pool's workers publish to every output tube concurrently and
// contend freely on it (spec §4.3), and a PTube for ordered stages, whose
// ring protocol already serializes publication.
func (s *Stage) newTerminalTube() Tube {
	if s.class == unordered {
		return NewQTube()
	}
	return NewPTube()
}

// WithMetrics attaches a MetricsReporter to the stage. Must be called
// before the pipeline is built.
func (s *Stage) WithMetrics(r MetricsReporter) *Stage {
	s.reporter = r
	return s
}

// Link appends next's input tube to this stage's output-tube list, so that
// every result this stage produces is also delivered to next. Link must be
// called before the pipeline is built; once built the graph is frozen.
func (s *Stage) Link(next *Stage) error {
	if s.built {
		return ErrAlreadyBuilt
	}
	if next == s || reaches(next, s) {
		return ErrCycle
	}
	s.outputs = append(s.outputs, next.input)
	s.downstream = append(s.downstream, next)
	return nil
}

// reaches reports whether target is reachable from start by following
// downstream links.
func reaches(start, target *Stage) bool {
	if start == target {
		return true
	}
	for _, d := range start.downstream {
		if reaches(d, target) {
			return true
		}
	}
	return false
}

// Put enqueues task on the stage's input tube. task must not be nil; nil is
// reserved for the stop sentinel (see Stop).
func (s *Stage) Put(task interface{}) error {
	if task == nil {
		return ErrNilPayload
	}
	s.input.put(dataEnvelope(task))
	return nil
}

// Stop enqueues the stop sentinel on the stage's input tube.
func (s *Stage) Stop() {
	s.input.put(stopEnvelope(0))
}

// Get reads one envelope from every output tube of the stage and returns
// the last payload read along with whether at least one tube yielded a
// value within timeout. timeout <= 0 blocks forever. Callers that only care about
// a single downstream edge typically go through Pipeline.Get instead, which
// does the same thing across the pipeline's leaf stages.
func (s *Stage) Get(timeout time.Duration) (interface{}, bool) {
	var (
		result interface{}
		valid  bool
	)
	for _, t := range s.outputs {
		env, ok := t.getTimeout(timeout)
		if ok {
			valid = true
			result = env.payload
		}
	}
	return result, valid
}

// Leaves returns the set of stages reachable from s (including s itself)
// that have no downstream links, found by a DFS. It is idempotent: calling
// it repeatedly on an unmodified graph returns an equivalent set every time.
func (s *Stage) Leaves() []*Stage {
	if len(s.downstream) == 0 {
		return []*Stage{s}
	}
	var leaves []*Stage
	for _, d := range s.downstream {
		leaves = append(leaves, d.Leaves()...)
	}
	return leaves
}

// build freezes the stage, ensures it has at least one output tube (adding
// a terminal tube of the stage's own class if it is a leaf so the result
// stream stays observable), starts its worker pool, and recurses into
// downstream stages. Calling build twice on the same stage is a
// programming error and panics.
func (s *Stage) build(errCh chan<- error) {
	if s.built {
		panic("mpipe: stage " + s.name + " already built")
	}
	s.built = true

	if len(s.outputs) == 0 {
		s.outputs = append(s.outputs, s.newTerminalTube())
	}

	s.assemble(errCh)

	for _, d := range s.downstream {
		d.build(errCh)
	}
}

func (s *Stage) assemble(errCh chan<- error) {
	switch s.class {
	case ordered:
		rings := buildRings(s.size)
		for i := 0; i < s.size; i++ {
			go runOrderedWorker(s.name, i, s.size, s.input, s.outputs, s.proc, rings[i], errCh, s.reporter)
		}
	default:
		for i := 0; i < s.size; i++ {
			go runUnorderedWorker(s.name, i, s.size, s.input, s.outputs, s.proc, errCh, s.reporter)
		}
	}
}
