package sim

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressHandle_Fraction_ClampsToZeroAndOne(t *testing.T) {
	// GIVEN a handle with total=10
	r := NewProgressReporter(nil)
	h := r.NewHandle("exp")
	h.SetTotal(10)

	// WHEN current is negative-relative or beyond total
	h.Advance(-5)
	if f := h.fraction(); f != 0 {
		t.Errorf("fraction() = %v, want 0 when current < 0", f)
	}

	h.Advance(50)
	if f := h.fraction(); f != 1 {
		t.Errorf("fraction() = %v, want 1 when current > total", f)
	}
}

func TestProgressHandle_Fraction_ZeroTotalIsComplete(t *testing.T) {
	// GIVEN a handle whose horizon is zero (spec.md §8 horizon-zero case)
	r := NewProgressReporter(nil)
	h := r.NewHandle("instant")
	h.SetTotal(0)

	// THEN it reports complete rather than dividing by zero
	if f := h.fraction(); f != 1 {
		t.Errorf("fraction() = %v, want 1 for a zero-total handle", f)
	}
}

func TestProgressReporter_Redraw_WritesOneLinePerHandle(t *testing.T) {
	// GIVEN a reporter with two registered handles
	var buf bytes.Buffer
	r := NewProgressReporter(&buf)
	a := r.NewHandle("alpha")
	b := r.NewHandle("beta")
	a.SetTotal(10)
	b.SetTotal(10)

	// WHEN one of them advances
	buf.Reset()
	a.Advance(5)

	// THEN the redraw emits exactly one rendered line per handle
	out := buf.String()
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("redraw wrote %d lines, want 2", got)
	}
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "beta") {
		t.Errorf("redraw output missing a handle name: %q", out)
	}
}

func TestProgressReporter_NilWriter_RedrawIsNoop(t *testing.T) {
	// GIVEN a reporter with no backing writer (batch/headless mode)
	r := NewProgressReporter(nil)
	h := r.NewHandle("solo")

	// WHEN advanced, THEN nothing panics
	h.SetTotal(1)
	h.Advance(1)
	h.Finish()
}
