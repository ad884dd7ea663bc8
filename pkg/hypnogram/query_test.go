package hypnogram

import (
	"testing"
	"time"
)

func TestMaskTimesByState(t *testing.T) {
	h := mustNew(t, []FloatBout{
		{State: "Wake", Start: 0, End: 10, Duration: 10},
		{State: "NREM", Start: 10, End: 20, Duration: 10},
		{State: "REM", Start: 20, End: 30, Duration: 10},
	})
	times := []float64{0, 5, 10, 15, 25, 35}

	tests := []struct {
		name     string
		states   []string
		expected []bool
	}{
		{
			name:     "single state includes both boundaries",
			states:   []string{"Wake"},
			expected: []bool{true, true, true, false, false, false},
		},
		{
			name:     "interior state",
			states:   []string{"NREM"},
			expected: []bool{false, false, true, true, false, false},
		},
		{
			name:     "state union",
			states:   []string{"NREM", "REM"},
			expected: []bool{false, false, true, true, true, false},
		},
		{
			name:     "no states of interest",
			states:   nil,
			expected: []bool{false, false, false, false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask := h.MaskTimesByState(times, tt.states...)
			if len(mask) != len(tt.expected) {
				t.Fatalf("expected %d entries, got %d", len(tt.expected), len(mask))
			}
			for i := range mask {
				if mask[i] != tt.expected[i] {
					t.Errorf("times[%d]=%v: expected %v, got %v", i, times[i], tt.expected[i], mask[i])
				}
			}
		})
	}
}

func TestStatesAt(t *testing.T) {
	tests := []struct {
		name     string
		bouts    []FloatBout
		times    []float64
		expected []string
	}{
		{
			name: "interior times take the covering state",
			bouts: []FloatBout{
				{State: "Wake", Start: 0, End: 10, Duration: 10},
				{State: "NREM", Start: 10, End: 20, Duration: 10},
			},
			times:    []float64{5, 15},
			expected: []string{"Wake", "NREM"},
		},
		{
			name: "uncovered times stay unlabeled",
			bouts: []FloatBout{
				{State: "Wake", Start: 0, End: 10, Duration: 10},
			},
			times:    []float64{-1, 11},
			expected: []string{"", ""},
		},
		{
			name: "shared boundary goes to the later bout",
			bouts: []FloatBout{
				{State: "Wake", Start: 0, End: 10, Duration: 10},
				{State: "NREM", Start: 10, End: 20, Duration: 10},
			},
			times:    []float64{10},
			expected: []string{"NREM"},
		},
		{
			name: "overlapping bouts resolve last-wins",
			bouts: []FloatBout{
				{State: "Wake", Start: 0, End: 10, Duration: 10},
				{State: "Artifact", Start: 5, End: 15, Duration: 10},
			},
			times:    []float64{7},
			expected: []string{"Artifact"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := mustNew(t, tt.bouts).StatesAt(tt.times)
			if len(labels) != len(tt.expected) {
				t.Fatalf("expected %d labels, got %d", len(tt.expected), len(labels))
			}
			for i := range labels {
				if labels[i] != tt.expected[i] {
					t.Errorf("times[%d]=%v: expected %q, got %q", i, tt.times[i], tt.expected[i], labels[i])
				}
			}
		})
	}
}

func TestCoversTimeBoundariesInclusive(t *testing.T) {
	h := mustNew(t, []FloatBout{
		{State: "Wake", Start: 0, End: 10, Duration: 10},
		{State: "NREM", Start: 15, End: 20, Duration: 5},
	})

	times := []float64{0, 10, 12, 15, 20, 21}
	expected := []bool{true, true, false, true, true, false}
	covered := h.CoversTime(times)
	for i := range covered {
		if covered[i] != expected[i] {
			t.Errorf("times[%d]=%v: expected %v, got %v", i, times[i], expected[i], covered[i])
		}
	}
}

func TestQueriesOnClockAxis(t *testing.T) {
	base := time.Date(2026, 7, 1, 22, 0, 0, 0, time.UTC)
	h := mustNewClock(t, []ClockBout{
		{State: "Wake", Start: base, End: base.Add(time.Hour), Duration: time.Hour},
		{State: "NREM", Start: base.Add(time.Hour), End: base.Add(3 * time.Hour), Duration: 2 * time.Hour},
	})

	times := []time.Time{base.Add(30 * time.Minute), base.Add(2 * time.Hour), base.Add(4 * time.Hour)}

	labels := h.StatesAt(times)
	want := []string{"Wake", "NREM", ""}
	for i := range labels {
		if labels[i] != want[i] {
			t.Errorf("labels[%d]: expected %q, got %q", i, want[i], labels[i])
		}
	}

	mask := h.MaskTimesByState(times, "NREM")
	if mask[0] || !mask[1] || mask[2] {
		t.Errorf("unexpected mask %v", mask)
	}
}
