package sim

import "strconv"

// SysState accumulates the two running means spec.md §4.5 defines,
// without retaining any sample history: mean waiting time over
// finished requests, and mean in-system population over every Step
// snapshot observed.
type SysState struct {
	Time             float64
	RequestsInSystem int
	MeanWait         float64
	MeanInSystem     float64

	iterations    int64
	finishedCount int64
}

// NewSysState returns a zeroed SysState ready for its first Update.
func NewSysState() *SysState {
	return &SysState{}
}

// Update folds one Step snapshot into the running means using the
// Welford-style incremental formula μ_n = (μ_{n-1}*(n-1) + x_n) / n.
// If lastFinished is non-nil, its wait time (StartedAt - CreatedAt) is
// folded into MeanWait first; requestsInSystem is always folded into
// MeanInSystem. time and requestsInSystem become the new snapshot
// values.
func (s *SysState) Update(time float64, requestsInSystem int, lastFinished *Request) {
	if lastFinished != nil {
		started, _ := lastFinished.StartedAt()
		created, _ := lastFinished.CreatedAt()
		wait := started - created
		s.finishedCount++
		s.MeanWait = incrementalMean(s.MeanWait, s.finishedCount-1, wait)
	}

	s.iterations++
	s.MeanInSystem = incrementalMean(s.MeanInSystem, s.iterations-1, float64(requestsInSystem))

	s.Time = time
	s.RequestsInSystem = requestsInSystem
}

// incrementalMean returns the new mean after folding sample x into a
// mean computed over n prior samples. When n=0, MeanWait/MeanInSystem
// both stay well-defined: the new mean is simply x.
func incrementalMean(prevMean float64, n int64, x float64) float64 {
	return (prevMean*float64(n) + x) / float64(n+1)
}

// ToRow serializes the four CSV columns spec.md §6 specifies:
// seconds, requests_in_system, waiting_mean, reqs_in_system_mean. When
// no request has finished yet, MeanWait is reported as 0.0 (not NaN) —
// see DESIGN.md's Open Question decision.
func (s *SysState) ToRow() []string {
	return []string{
		strconv.FormatFloat(s.Time, 'f', -1, 64),
		strconv.Itoa(s.RequestsInSystem),
		strconv.FormatFloat(s.MeanWait, 'f', -1, 64),
		strconv.FormatFloat(s.MeanInSystem, 'f', -1, 64),
	}
}
