package hypnogram

import (
	"fmt"
)

// Consolidated finds every maximal period dominated by the given states. A
// period qualifies when the cumulative duration of its bouts of interest is
// at least minTime and accounts for at least frac of the period's full span.
// Maximal means no returned period is contained in a longer returned period.
//
// Each match is a slice of the full timeline, not just the bouts of
// interest, and matches are returned in ascending order of where they begin.
// Bouts must be sorted by start time.
func (h *Hypnogram[T, D]) Consolidated(states []string, frac float64, minTime D) ([]*Hypnogram[T, D], error) {
	if frac < 0 || frac > 1 {
		return nil, fmt.Errorf("frac %v outside [0, 1]: %w", frac, ErrInvalidArgument)
	}
	if i := h.sortCheck(); i >= 0 {
		return nil, &OrderingError{Op: "Consolidated", Index: i}
	}

	// Indices into the full timeline of the bouts of interest.
	want := stateSet(states)
	var sel []int
	for i, b := range h.bouts {
		if want[b.State] {
			sel = append(sel, i)
		}
	}
	if len(sel) == 0 {
		return nil, nil
	}

	// i = period start, j = period end, k = end of the last accepted period.
	// For each i the candidate ends are scanned in decreasing order of period
	// length, so the first accepted j is the longest and shorter periods
	// inside it are never reconsidered.
	k := sel[0] - 1
	var matches []*Hypnogram[T, D]
	for pi, i := range sel {
		if i <= k {
			continue
		}
		for pj := len(sel) - 1; pj >= 0; pj-- {
			j := sel[pj]
			if j < max(i, k) {
				break
			}
			timeIn := h.ax.zero()
			for _, x := range sel[pi : pj+1] {
				timeIn = h.ax.add(timeIn, h.bouts[x].Duration)
			}
			if h.ax.cmp(timeIn, h.ax.zero()) < 0 {
				timeIn = h.ax.zero()
			}
			if h.ax.cmp(timeIn, minTime) < 0 {
				// Every shorter period for this i holds even less time.
				break
			}
			end := h.bouts[i].End
			for _, b := range h.bouts[i+1 : j+1] {
				if h.ax.less(end, b.End) {
					end = b.End
				}
			}
			total := h.ax.span(h.bouts[i].Start, end)
			if h.ax.frac(timeIn, total) >= frac {
				matches = append(matches, h.slice(i, j+1))
				k = j
				break
			}
		}
	}
	return matches, nil
}
