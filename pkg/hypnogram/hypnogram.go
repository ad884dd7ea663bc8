package hypnogram

import (
	"fmt"
	"sort"
	"time"
)

// requiredFields are the columns every named-column bout source must carry.
var requiredFields = []string{"state", "start_time", "end_time", "duration"}

// ValidateSchema checks that a named-column record source carries every field
// a bout requires, returning a *SchemaError listing the absent ones.
func ValidateSchema(fields []string) error {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = true
	}
	var missing []string
	for _, f := range requiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// New builds a relative-axis hypnogram from fully scored bouts.
func New(bouts []FloatBout) (*FloatHypnogram, error) {
	return newHypnogram[float64, float64](relAxis{}, bouts)
}

// NewClock builds a wall-clock hypnogram from fully scored bouts.
func NewClock(bouts []ClockBout) (*ClockHypnogram, error) {
	return newHypnogram[time.Time, time.Duration](clockAxis{}, bouts)
}

func newHypnogram[T, D any](ax axis[T, D], bouts []Bout[T, D]) (*Hypnogram[T, D], error) {
	owned := make([]Bout[T, D], len(bouts))
	copy(owned, bouts)
	for i, b := range owned {
		if ax.less(b.End, b.Start) {
			return nil, fmt.Errorf("bout %d: end_time precedes start_time: %w", i, ErrInvalidBout)
		}
		if ax.cmp(b.Duration, ax.zero()) < 0 {
			return nil, fmt.Errorf("bout %d: negative duration: %w", i, ErrInvalidBout)
		}
	}
	return &Hypnogram[T, D]{ax: ax, bouts: owned}, nil
}

// FromIntervals builds a relative-axis hypnogram from ingestion records,
// computing each bout's duration from its endpoints.
func FromIntervals(intervals []FloatInterval) (*FloatHypnogram, error) {
	return fromIntervals[float64, float64](relAxis{}, intervals)
}

// FromClockIntervals builds a wall-clock hypnogram from ingestion records,
// computing each bout's duration from its endpoints.
func FromClockIntervals(intervals []ClockInterval) (*ClockHypnogram, error) {
	return fromIntervals[time.Time, time.Duration](clockAxis{}, intervals)
}

func fromIntervals[T, D any](ax axis[T, D], intervals []Interval[T]) (*Hypnogram[T, D], error) {
	bouts := make([]Bout[T, D], len(intervals))
	for i, iv := range intervals {
		if ax.less(iv.End, iv.Start) {
			return nil, fmt.Errorf("interval %d: end_time precedes start_time: %w", i, ErrInvalidBout)
		}
		bouts[i] = Bout[T, D]{
			State:    iv.State,
			Start:    iv.Start,
			End:      iv.End,
			Duration: ax.span(iv.Start, iv.End),
		}
	}
	return &Hypnogram[T, D]{ax: ax, bouts: bouts}, nil
}

// NewEmpty returns a hypnogram whose whole span [0, end] is a single
// unscored bout.
func NewEmpty(end float64) (*FloatHypnogram, error) {
	if end < 0 {
		return nil, fmt.Errorf("end time %v: %w", end, ErrInvalidArgument)
	}
	return New([]FloatBout{{State: Unscored, Start: 0, End: end, Duration: end}})
}

// AsClock anchors a relative-axis hypnogram to a reference instant: start is
// added to every bout endpoint and each duration becomes a wall-clock
// duration. Pure and total for a well-formed hypnogram.
func AsClock(h *FloatHypnogram, start time.Time) *ClockHypnogram {
	bouts := make([]ClockBout, len(h.bouts))
	for i, b := range h.bouts {
		bouts[i] = ClockBout{
			State:    b.State,
			Start:    start.Add(secondsToDuration(b.Start)),
			End:      start.Add(secondsToDuration(b.End)),
			Duration: secondsToDuration(b.Duration),
		}
	}
	return &ClockHypnogram{ax: clockAxis{}, bouts: bouts}
}

// AsRelative converts a wall-clock hypnogram back to seconds offsets from the
// reference instant. It is the inverse of AsClock for the same instant.
func AsRelative(h *ClockHypnogram, start time.Time) *FloatHypnogram {
	bouts := make([]FloatBout, len(h.bouts))
	for i, b := range h.bouts {
		bouts[i] = FloatBout{
			State:    b.State,
			Start:    b.Start.Sub(start).Seconds(),
			End:      b.End.Sub(start).Seconds(),
			Duration: b.Duration.Seconds(),
		}
	}
	return &FloatHypnogram{ax: relAxis{}, bouts: bouts}
}

// Len returns the number of bouts.
func (h *Hypnogram[T, D]) Len() int {
	return len(h.bouts)
}

// Bouts returns a copy of the bouts in sequence order.
func (h *Hypnogram[T, D]) Bouts() []Bout[T, D] {
	out := make([]Bout[T, D], len(h.bouts))
	copy(out, h.bouts)
	return out
}

// States returns the distinct state labels in first-appearance order.
func (h *Hypnogram[T, D]) States() []string {
	seen := make(map[string]bool)
	var states []string
	for _, b := range h.bouts {
		if !seen[b.State] {
			seen[b.State] = true
			states = append(states, b.State)
		}
	}
	return states
}

// TotalDuration sums the durations of all bouts.
func (h *Hypnogram[T, D]) TotalDuration() D {
	total := h.ax.zero()
	for _, b := range h.bouts {
		total = h.ax.add(total, b.Duration)
	}
	return total
}

// Span returns the earliest start time and the latest end time across all
// bouts, or zero values for an empty hypnogram.
func (h *Hypnogram[T, D]) Span() (start, end T) {
	if len(h.bouts) == 0 {
		return start, end
	}
	start, end = h.bouts[0].Start, h.bouts[0].End
	for _, b := range h.bouts[1:] {
		if h.ax.less(b.Start, start) {
			start = b.Start
		}
		if h.ax.less(end, b.End) {
			end = b.End
		}
	}
	return start, end
}

// IsSorted reports whether bouts are ordered by non-decreasing start time.
func (h *Hypnogram[T, D]) IsSorted() bool {
	return h.sortCheck() < 0
}

// sortCheck returns the index of the first bout starting before its
// predecessor, or -1 when bouts are ordered.
func (h *Hypnogram[T, D]) sortCheck() int {
	for i := 1; i < len(h.bouts); i++ {
		if h.ax.less(h.bouts[i].Start, h.bouts[i-1].Start) {
			return i
		}
	}
	return -1
}

// Merge combines the receiver with other hypnograms into one timeline ordered
// by start time. Relative order among bouts sharing a start time is
// preserved.
func (h *Hypnogram[T, D]) Merge(others ...*Hypnogram[T, D]) *Hypnogram[T, D] {
	n := len(h.bouts)
	for _, o := range others {
		n += len(o.bouts)
	}
	merged := make([]Bout[T, D], 0, n)
	merged = append(merged, h.bouts...)
	for _, o := range others {
		merged = append(merged, o.bouts...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return h.ax.less(merged[i].Start, merged[j].Start)
	})
	return &Hypnogram[T, D]{ax: h.ax, bouts: merged}
}

// slice copies bouts[from:to] into a new hypnogram on the same axis.
func (h *Hypnogram[T, D]) slice(from, to int) *Hypnogram[T, D] {
	bouts := make([]Bout[T, D], to-from)
	copy(bouts, h.bouts[from:to])
	return &Hypnogram[T, D]{ax: h.ax, bouts: bouts}
}

func stateSet(states []string) map[string]bool {
	set := make(map[string]bool, len(states))
	for _, s := range states {
		set[s] = true
	}
	return set
}
