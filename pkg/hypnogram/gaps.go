package hypnogram

import (
	"fmt"
	"sort"
)

// Gaps reports every unscored hole between consecutive bouts whose width
// strictly exceeds the tolerance. Bouts are taken in sequence order;
// overlapping bouts never produce a gap.
func (h *Hypnogram[T, D]) Gaps(tolerance D) ([]Gap[T, D], error) {
	if h.ax.cmp(tolerance, h.ax.zero()) < 0 {
		return nil, fmt.Errorf("negative tolerance: %w", ErrInvalidArgument)
	}
	var gaps []Gap[T, D]
	for i := 0; i+1 < len(h.bouts); i++ {
		cur, next := h.bouts[i], h.bouts[i+1]
		width := h.ax.span(cur.End, next.Start)
		if h.ax.cmp(width, tolerance) > 0 {
			gaps = append(gaps, Gap[T, D]{Start: cur.End, End: next.Start, Duration: width})
		}
	}
	return gaps, nil
}

// FillGaps scores every gap wider than the tolerance with fillState and
// returns a new hypnogram re-sorted by start time; the receiver is unchanged.
// The stable sort keeps the relative order of bouts sharing a start time.
func (h *Hypnogram[T, D]) FillGaps(tolerance D, fillState string) (*Hypnogram[T, D], error) {
	gaps, err := h.Gaps(tolerance)
	if err != nil {
		return nil, err
	}
	bouts := make([]Bout[T, D], 0, len(h.bouts)+len(gaps))
	bouts = append(bouts, h.bouts...)
	for _, g := range gaps {
		bouts = append(bouts, Bout[T, D]{
			State:    fillState,
			Start:    g.Start,
			End:      g.End,
			Duration: g.Duration,
		})
	}
	sort.SliceStable(bouts, func(i, j int) bool {
		return h.ax.less(bouts[i].Start, bouts[j].Start)
	})
	return &Hypnogram[T, D]{ax: h.ax, bouts: bouts}, nil
}
