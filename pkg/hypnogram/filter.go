package hypnogram

import (
	"fmt"
	"time"
)

// KeepStates returns the sub-timeline of bouts whose state is in the given
// set, order preserved.
func (h *Hypnogram[T, D]) KeepStates(states ...string) *Hypnogram[T, D] {
	want := stateSet(states)
	var kept []Bout[T, D]
	for _, b := range h.bouts {
		if want[b.State] {
			kept = append(kept, b)
		}
	}
	return &Hypnogram[T, D]{ax: h.ax, bouts: kept}
}

// KeepLonger returns the sub-timeline of bouts strictly longer than min.
func (h *Hypnogram[T, D]) KeepLonger(min D) *Hypnogram[T, D] {
	var kept []Bout[T, D]
	for _, b := range h.bouts {
		if h.ax.cmp(b.Duration, min) > 0 {
			kept = append(kept, b)
		}
	}
	return &Hypnogram[T, D]{ax: h.ax, bouts: kept}
}

// KeepFirst keeps leading bouts while their running cumulative duration stays
// within the budget. One bout pushing the sum past the budget ends the
// selection; bouts already kept stay kept.
func (h *Hypnogram[T, D]) KeepFirst(budget D) *Hypnogram[T, D] {
	var kept []Bout[T, D]
	sum := h.ax.zero()
	for _, b := range h.bouts {
		sum = h.ax.add(sum, b.Duration)
		if h.ax.cmp(sum, budget) > 0 {
			break
		}
		kept = append(kept, b)
	}
	return &Hypnogram[T, D]{ax: h.ax, bouts: kept}
}

// KeepLast keeps trailing bouts while their cumulative duration, accumulated
// from the end, stays within the budget.
func (h *Hypnogram[T, D]) KeepLast(budget D) *Hypnogram[T, D] {
	from := len(h.bouts)
	sum := h.ax.zero()
	for i := len(h.bouts) - 1; i >= 0; i-- {
		sum = h.ax.add(sum, h.bouts[i].Duration)
		if h.ax.cmp(sum, budget) > 0 {
			break
		}
		from = i
	}
	kept := make([]Bout[T, D], len(h.bouts)-from)
	copy(kept, h.bouts[from:])
	return &Hypnogram[T, D]{ax: h.ax, bouts: kept}
}

// KeepBetween keeps bouts whose start and end both fall inside a daily
// time-of-day window, inclusive on both bounds. The window is
// date-independent and wraps midnight when start > end; bouts crossing a
// window boundary are dropped, not split. Only wall-clock hypnograms carry a
// time of day.
func (h *Hypnogram[T, D]) KeepBetween(start, end time.Duration) (*Hypnogram[T, D], error) {
	const day = 24 * time.Hour
	if start < 0 || start >= day || end < 0 || end >= day {
		return nil, fmt.Errorf("time-of-day window [%v, %v): %w", start, end, ErrInvalidArgument)
	}
	var probe T
	if _, ok := h.ax.timeOfDay(probe); !ok {
		return nil, &AxisError{Op: "KeepBetween"}
	}
	var kept []Bout[T, D]
	for _, b := range h.bouts {
		s, _ := h.ax.timeOfDay(b.Start)
		e, _ := h.ax.timeOfDay(b.End)
		if inWindow(s, start, end) && inWindow(e, start, end) {
			kept = append(kept, b)
		}
	}
	return &Hypnogram[T, D]{ax: h.ax, bouts: kept}, nil
}

func inWindow(tod, start, end time.Duration) bool {
	if start <= end {
		return tod >= start && tod <= end
	}
	// Window wraps midnight.
	return tod >= start || tod <= end
}
