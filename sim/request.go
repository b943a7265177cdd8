// Package sim implements the M/M/c/K-style discrete-event queueing
// simulator: the event-driven engine, its random variate generators,
// streaming statistics, and the parallel experiment runner.
package sim

import "sync/atomic"

// requestIDCounter is a process-wide monotonic counter. It is shared
// across all concurrently-running experiments purely for uniqueness;
// it is never read for simulation logic.
var requestIDCounter uint64

func nextRequestID() uint64 {
	return atomic.AddUint64(&requestIDCounter, 1)
}

// Request is a value object carrying the per-request timestamps the
// engine and statistics accumulator need. CreatedAt and StartedAt are
// unset (ok=false) until the engine assigns them; reading an unset
// timestamp without checking its ok flag is a programmer error.
type Request struct {
	ID uint64

	// TimeToFinish is the service duration sampled when the request's
	// arrival event was scheduled, so the request carries its own
	// workload across the waiting queue.
	TimeToFinish float64

	createdAt  float64
	createdSet bool
	startedAt  float64
	startedSet bool
}

// NewRequest creates a Request with a fresh, process-unique ID and the
// given service duration. CreatedAt/StartedAt are unset.
func NewRequest(timeToFinish float64) Request {
	return Request{
		ID:           nextRequestID(),
		TimeToFinish: timeToFinish,
	}
}

// CreatedAt returns the time the request entered the waiting queue and
// whether it has been set yet.
func (r Request) CreatedAt() (float64, bool) {
	return r.createdAt, r.createdSet
}

// StartedAt returns the time the request entered service and whether it
// has been set yet.
func (r Request) StartedAt() (float64, bool) {
	return r.startedAt, r.startedSet
}

// markCreated sets CreatedAt. Calling it twice on the same request is a
// programmer error: each request is enqueued at most once per lifecycle.
func (r *Request) markCreated(t float64) {
	r.createdAt = t
	r.createdSet = true
}

// markStarted sets StartedAt. Invariant: CreatedAt must already be set
// and CreatedAt <= t.
func (r *Request) markStarted(t float64) {
	r.startedAt = t
	r.startedSet = true
}

// Wait returns the time the request spent waiting (StartedAt - CreatedAt).
// Both timestamps must be set; callers should only invoke this for
// requests that have completed service.
func (r Request) Wait() float64 {
	return r.startedAt - r.createdAt
}
