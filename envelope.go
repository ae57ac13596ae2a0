package mpipe

// envelope is the unit of transport on every tube: a payload paired with a
// count that is only meaningful when payload is the stop sentinel (nil),
// where it carries how many workers of the current stage have already
// observed the stop.
type envelope struct {
	payload interface{}
	count   int
}

// isStop reports whether e carries the stop sentinel.
func (e envelope) isStop() bool { return e.payload == nil }

func stopEnvelope(count int) envelope { return envelope{payload: nil, count: count} }

func dataEnvelope(payload interface{}) envelope { return envelope{payload: payload} }
