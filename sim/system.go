package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Stats is the snapshot System.Step returns: the virtual time the step
// advanced to, the current in-system population, and at most one
// request that departed during this step (to feed SysState without
// retaining history).
type Stats struct {
	CurrentTime      float64
	RequestsInSystem int
	LastFinished     *Request
}

// System is the simulator state: the fixed node pool, the bounded
// waiting queue, the event queue, and the RNG driving both
// distributions. See spec System invariants: nodesBusy+len(waiting) <=
// nodesTotal+queueCapacity; every waiting request has CreatedAt set and
// StartedAt unset; every pending departure corresponds to exactly one
// busy node; the event queue always holds at least one arrival.
type System struct {
	currentTime float64

	nodesTotal    int
	nodesBusy     int
	queueCapacity int
	waiting       []Request

	events EventQueue
	rng    *rand.Rand

	arrivalDist ArrivalDistribution
	serviceDist ServiceDistribution

	finishedCount     int64
	pendingDepartures int

	log *logrus.Entry
}

// NewSystem builds a System with nodesTotal service nodes and a waiting
// queue bounded at queueCapacity. log may be nil, in which case a
// discarding logger is used.
func NewSystem(nodesTotal, queueCapacity int, arrivalDist ArrivalDistribution, serviceDist ServiceDistribution, rng *rand.Rand, log *logrus.Entry) *System {
	if log == nil {
		l := logrus.New()
		l.SetOutput(nopWriter{})
		log = logrus.NewEntry(l)
	}
	s := &System{
		nodesTotal:    nodesTotal,
		queueCapacity: queueCapacity,
		events:        *NewEventQueue(),
		rng:           rng,
		arrivalDist:   arrivalDist,
		serviceDist:   serviceDist,
		log:           log,
	}
	return s
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// Step advances virtual time to the next scheduled event and returns a
// snapshot. The event queue is guaranteed non-empty on entry to every
// call after the first (the engine always re-seeds an arrival whenever
// it consumes one).
func (s *System) Step() Stats {
	if s.events.IsEmpty() {
		s.scheduleNextArrival()
	}

	event, ok := s.events.Pop()
	if !ok {
		panic("queuesim: event queue empty immediately after scheduling an arrival")
	}
	s.currentTime = event.Time

	var lastFinished *Request
	switch event.Kind {
	case EventArrival:
		s.scheduleNextArrival()
		// Admission: the waiting queue has room, or a node is
		// immediately free (and the dispatch phase below will hand the
		// request straight to it this same step). This is what makes
		// queue_capacity=0 behave as "admit only onto a free node"
		// rather than "drop everything", per spec.md §9's admission
		// note.
		if len(s.waiting) < s.queueCapacity || s.nodesBusy < s.nodesTotal {
			event.Request.markCreated(s.currentTime)
			s.waiting = append(s.waiting, event.Request)
		} else {
			s.log.WithField("request_id", event.Request.ID).Debug("request dropped: waiting queue full")
		}
	case EventDeparture:
		if s.nodesBusy == 0 {
			panic("queuesim: departure event processed with no busy nodes")
		}
		s.finishedCount++
		s.nodesBusy--
		s.pendingDepartures--
		req := event.Request
		lastFinished = &req
	default:
		panic("queuesim: unknown event kind")
	}

	s.dispatch()

	return Stats{
		CurrentTime:      s.currentTime,
		RequestsInSystem: s.nodesBusy + len(s.waiting),
		LastFinished:     lastFinished,
	}
}

// dispatch moves waiting requests into free nodes until either no node
// is free or the waiting queue is empty.
func (s *System) dispatch() {
	for s.nodesBusy < s.nodesTotal && len(s.waiting) > 0 {
		req := s.waiting[0]
		s.waiting = s.waiting[1:]
		req.markStarted(s.currentTime)
		s.nodesBusy++
		s.scheduleDeparture(req)
	}
}

// scheduleNextArrival samples the next inter-arrival delay and the new
// request's own service duration (sampled now so the request carries
// its workload across the waiting queue), then pushes the Arrival
// event.
func (s *System) scheduleNextArrival() {
	delta := s.arrivalDist.Sample(s.rng)
	serviceTime := s.serviceDist.Sample(s.rng)
	req := NewRequest(serviceTime)
	s.events.Push(Event{
		Time:    s.currentTime + delta,
		Request: req,
		Kind:    EventArrival,
	})
}

// scheduleDeparture pushes req's Departure event at its completion time.
func (s *System) scheduleDeparture(req Request) {
	s.pendingDepartures++
	s.events.Push(Event{
		Time:    s.currentTime + req.TimeToFinish,
		Request: req,
		Kind:    EventDeparture,
	})
}

// CurrentTime returns the engine's virtual time cursor.
func (s *System) CurrentTime() float64 { return s.currentTime }

// NodesBusy returns the number of currently-occupied service nodes.
func (s *System) NodesBusy() int { return s.nodesBusy }

// WaitingLen returns the number of requests currently in the waiting
// queue.
func (s *System) WaitingLen() int { return len(s.waiting) }

// PendingDepartures returns the number of Departure events currently in
// the event queue; it must always equal NodesBusy() at step boundaries.
func (s *System) PendingDepartures() int { return s.pendingDepartures }
