package sim

import (
	"fmt"
	"io"
	"sync"
)

// ProgressHandle is the per-experiment progress collaborator spec.md
// §1 treats as external; here it is a thin position tracker an
// experiment job updates once per Step.
type ProgressHandle struct {
	name    string
	total   float64
	current float64
	done    bool

	reporter *ProgressReporter
}

// SetTotal sets the horizon (in simulated seconds) the bar measures
// progress against.
func (h *ProgressHandle) SetTotal(total float64) {
	h.total = total
	h.reporter.redraw()
}

// Advance moves the bar to currentTime and redraws.
func (h *ProgressHandle) Advance(currentTime float64) {
	h.current = currentTime
	h.reporter.redraw()
}

// Finish marks the bar complete.
func (h *ProgressHandle) Finish() {
	h.done = true
	h.current = h.total
	h.reporter.redraw()
}

func (h *ProgressHandle) fraction() float64 {
	if h.total <= 0 {
		return 1
	}
	f := h.current / h.total
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	return f
}

const progressBarWidth = 30

func (h *ProgressHandle) render() string {
	f := h.fraction()
	filled := int(f * float64(progressBarWidth))
	bar := make([]byte, progressBarWidth)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '-'
		}
	}
	return fmt.Sprintf("[%-16s] [%s] %3.0f%%", h.name, bar, f*100)
}

// ProgressReporter multiplexes every experiment's ProgressHandle onto a
// single writer, redrawing all lines in place. Grounded in the original
// Rust implementation's indicatif::MultiProgress (one bar inserted per
// experiment, in submission order); reimplemented over io.Writer with
// carriage-return redraws since no progress-bar library is present in
// the reference pack (see DESIGN.md).
type ProgressReporter struct {
	mu      sync.Mutex
	out     io.Writer
	handles []*ProgressHandle
	drawn   int
}

// NewProgressReporter creates a reporter writing to out.
func NewProgressReporter(out io.Writer) *ProgressReporter {
	return &ProgressReporter{out: out}
}

// NewHandle registers and returns a new progress handle for name, in
// submission order.
func (r *ProgressReporter) NewHandle(name string) *ProgressHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &ProgressHandle{name: name, reporter: r}
	r.handles = append(r.handles, h)
	return h
}

// redraw repaints every registered bar in place.
func (r *ProgressReporter) redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return
	}
	if r.drawn > 0 {
		fmt.Fprintf(r.out, "\x1b[%dA", r.drawn)
	}
	for _, h := range r.handles {
		fmt.Fprintf(r.out, "\x1b[2K%s\n", h.render())
	}
	r.drawn = len(r.handles)
}
