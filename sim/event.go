package sim

import "container/heap"

// EventKind tags what an Event does when it is processed.
type EventKind int

const (
	// EventArrival admits (or drops) a request into the waiting queue.
	EventArrival EventKind = iota
	// EventDeparture frees the node a request was occupying.
	EventDeparture
)

func (k EventKind) String() string {
	switch k {
	case EventArrival:
		return "arrival"
	case EventDeparture:
		return "departure"
	default:
		return "unknown"
	}
}

// Event is a single scheduled occurrence in the simulation: an arrival
// at Time admits Request (or drops it if the queue is full); a
// departure at Time frees the node Request was occupying.
type Event struct {
	Time    float64
	Request Request
	Kind    EventKind

	// seq is the insertion order, used only to break exact time ties
	// deterministically (lower seq wins). It never affects correctness,
	// only bit-stable output across runs with identical input.
	seq uint64
}

// EventQueue is a min-priority queue of Events ordered by Time
// ascending, with ties broken by insertion order. Push and Pop are
// O(log n); IsEmpty is O(1). There is no removal by identity and no
// decrease-key.
type EventQueue struct {
	h   eventHeap
	seq uint64
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() *EventQueue {
	eq := &EventQueue{}
	heap.Init(&eq.h)
	return eq
}

// Push schedules e onto the queue.
func (eq *EventQueue) Push(e Event) {
	e.seq = eq.seq
	eq.seq++
	heap.Push(&eq.h, e)
}

// Pop removes and returns the event with the smallest Time (ties broken
// by insertion order). ok is false if the queue is empty.
func (eq *EventQueue) Pop() (e Event, ok bool) {
	if eq.h.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(&eq.h).(Event), true
}

// IsEmpty reports whether the queue has no pending events.
func (eq *EventQueue) IsEmpty() bool {
	return eq.h.Len() == 0
}

// Len returns the number of pending events.
func (eq *EventQueue) Len() int {
	return eq.h.Len()
}

// eventHeap implements container/heap.Interface over a slice of Events,
// keyed by Time ascending with insertion order as the tiebreaker.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
