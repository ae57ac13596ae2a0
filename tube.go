package mpipe

import "time"

// Tube is a unidirectional FIFO channel carrying envelopes between a stage
// and its neighbors. Two concrete variants are provided: PTube, for
// single-producer/single-consumer edges, and QTube, safe for arbitrary
// fan-in and fan-out. Both are unbounded.
type Tube interface {
	// put enqueues env. Never blocks on a healthy tube.
	put(env envelope)

	// get dequeues one envelope, blocking until one is available.
	get() envelope

	// getTimeout dequeues one envelope, waiting at most d. d <= 0 blocks
	// forever (equivalent to get). Returns ok == false on timeout.
	getTimeout(d time.Duration) (env envelope, ok bool)
}

// PTube is a point-to-point tube: it assumes at most one concurrent
// producer and at most one concurrent consumer, the same contract the
// original mpipe.py gives multiprocessing.Pipe-backed TubeP. Ordered
// workers use PTubes because the ring protocol already externally
// serializes access to the tube on both ends.
//
// getTimeout is documented single-consumer only by contract, not by a
// runtime lock: a bare channel receive composed with a timer inside a
// single select is already an atomic poll-or-recv from the caller's point
// of view, so nothing here reproduces the poll/recv race the Python
// implementation's TODO warned about — it simply never arises in Go.
type PTube struct {
	in chan envelope
	ch chan envelope
}

// NewPTube returns a new, empty point-to-point tube. It is buffered by the
// same pump goroutine as QTube, so put never waits for a consumer.
func NewPTube() *PTube {
	q := NewQTube()
	return &PTube{in: q.in, ch: q.out}
}

func (t *PTube) put(env envelope) { t.in <- env }

func (t *PTube) get() envelope { return <-t.ch }

func (t *PTube) getTimeout(d time.Duration) (envelope, bool) {
	if d <= 0 {
		return t.get(), true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case env := <-t.ch:
		return env, true
	case <-timer.C:
		return envelope{}, false
	}
}

// QTube is a multi-access tube: safe for arbitrary concurrent producers and
// consumers, used by unordered workers which contend freely on both ends.
// It is backed by a dedicated pump goroutine feeding an internal unbounded
// buffer, the idiomatic Go substitute for multiprocessing.Queue's unbounded
// semantics (native Go channels are always bounded).
type QTube struct {
	in  chan envelope
	out chan envelope
}

// NewQTube returns a new, empty multi-access tube.
func NewQTube() *QTube {
	q := &QTube{
		in:  make(chan envelope),
		out: make(chan envelope),
	}
	go q.pump()
	return q
}

func (q *QTube) pump() {
	var buf []envelope
	for {
		if len(buf) == 0 {
			v, ok := <-q.in
			if !ok {
				close(q.out)
				return
			}
			buf = append(buf, v)
			continue
		}

		select {
		case v, ok := <-q.in:
			if !ok {
				for _, e := range buf {
					q.out <- e
				}
				close(q.out)
				return
			}
			buf = append(buf, v)
		case q.out <- buf[0]:
			buf = buf[1:]
		}
	}
}

func (q *QTube) put(env envelope) { q.in <- env }

func (q *QTube) get() envelope {
	env, ok := <-q.out
	if !ok {
		return stopEnvelope(0)
	}
	return env
}

func (q *QTube) getTimeout(d time.Duration) (envelope, bool) {
	if d <= 0 {
		return q.get(), true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case env, ok := <-q.out:
		if !ok {
			return stopEnvelope(0), true
		}
		return env, true
	case <-timer.C:
		return envelope{}, false
	}
}
