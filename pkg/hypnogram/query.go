package hypnogram

// contains reports whether t falls within the bout, inclusive on both ends.
// Adjacent bouts sharing a boundary both claim it.
func (h *Hypnogram[T, D]) contains(b Bout[T, D], t T) bool {
	return !h.ax.less(t, b.Start) && !h.ax.less(b.End, t)
}

// MaskTimesByState returns a mask that is true where times fall inside a bout
// of one of the given states. The mask is only ever set, never cleared, so
// overlapping bouts cannot un-mask a time.
func (h *Hypnogram[T, D]) MaskTimesByState(times []T, states ...string) []bool {
	mask := make([]bool, len(times))
	want := stateSet(states)
	for _, b := range h.bouts {
		if !want[b.State] {
			continue
		}
		for i, t := range times {
			if h.contains(b, t) {
				mask[i] = true
			}
		}
	}
	return mask
}

// StatesAt labels each query time with the state of the bout covering it, or
// the empty string when nothing covers it. When bouts overlap a time, the
// last bout in sequence order wins.
func (h *Hypnogram[T, D]) StatesAt(times []T) []string {
	labels := make([]string, len(times))
	for _, b := range h.bouts {
		for i, t := range times {
			if h.contains(b, t) {
				labels[i] = b.State
			}
		}
	}
	return labels
}

// CoversTime reports, for each query time, whether any bout covers it
// regardless of state.
func (h *Hypnogram[T, D]) CoversTime(times []T) []bool {
	covered := make([]bool, len(times))
	for _, b := range h.bouts {
		for i, t := range times {
			if h.contains(b, t) {
				covered[i] = true
			}
		}
	}
	return covered
}
