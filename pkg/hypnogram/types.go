package hypnogram

import (
	"time"
)

// Unscored is the state label given to time that carries no score. It is a
// real category: gap filling writes it by default and state counts downstream
// may tally it like any other label.
const Unscored = "None"

// Bout is a single scored interval: one state label over [Start, End],
// inclusive on both ends. T is the time axis and D its duration type; the
// two supported pairings are FloatBout and ClockBout.
type Bout[T, D any] struct {
	State    string `json:"state"`
	Start    T      `json:"start_time"`
	End      T      `json:"end_time"`
	Duration D      `json:"duration"`
}

// FloatBout is a bout on the relative axis: raw seconds with no wall-clock
// meaning.
type FloatBout = Bout[float64, float64]

// ClockBout is a bout on the wall-clock axis.
type ClockBout = Bout[time.Time, time.Duration]

// Interval is the minimal ingestion record: a state over [Start, End] with
// the duration left for the hypnogram to compute.
type Interval[T any] struct {
	State string `json:"state"`
	Start T      `json:"start_time"`
	End   T      `json:"end_time"`
}

// FloatInterval is an ingestion record on the relative axis.
type FloatInterval = Interval[float64]

// ClockInterval is an ingestion record on the wall-clock axis.
type ClockInterval = Interval[time.Time]

// Gap is an unscored hole between two consecutive bouts.
type Gap[T, D any] struct {
	Start    T `json:"start_time"`
	End      T `json:"end_time"`
	Duration D `json:"duration"`
}

// FloatGap is a gap on the relative axis.
type FloatGap = Gap[float64, float64]

// ClockGap is a gap on the wall-clock axis.
type ClockGap = Gap[time.Time, time.Duration]

// Hypnogram is an ordered sequence of scored bouts over one recording. It
// owns its bouts: accessors copy, and every operation returns a new
// Hypnogram rather than mutating the receiver, so independently held values
// are safe to use concurrently.
type Hypnogram[T, D any] struct {
	ax    axis[T, D]
	bouts []Bout[T, D]
}

// FloatHypnogram is a hypnogram on the relative axis, scored in seconds from
// an arbitrary zero.
type FloatHypnogram = Hypnogram[float64, float64]

// ClockHypnogram is a hypnogram on the wall-clock axis. It is the only
// variant that supports time-of-day operations.
type ClockHypnogram = Hypnogram[time.Time, time.Duration]
