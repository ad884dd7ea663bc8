package hypnogram

import (
	"cmp"
	"fmt"
	"math"
	"strings"
	"time"
)

// axis abstracts the primitives shared by the supported time representations:
// point ordering and subtraction, duration arithmetic, and an optional
// time-of-day projection. The relative axis has no time of day.
type axis[T, D any] interface {
	span(start, end T) D
	less(a, b T) bool
	zero() D
	add(a, b D) D
	cmp(a, b D) int
	frac(num, den D) float64
	timeOfDay(t T) (time.Duration, bool)
}

type relAxis struct{}

func (relAxis) span(start, end float64) float64 { return end - start }
func (relAxis) less(a, b float64) bool          { return a < b }
func (relAxis) zero() float64                   { return 0 }
func (relAxis) add(a, b float64) float64        { return a + b }
func (relAxis) cmp(a, b float64) int            { return cmp.Compare(a, b) }
func (relAxis) frac(num, den float64) float64   { return num / den }

func (relAxis) timeOfDay(float64) (time.Duration, bool) { return 0, false }

type clockAxis struct{}

func (clockAxis) span(start, end time.Time) time.Duration { return end.Sub(start) }
func (clockAxis) less(a, b time.Time) bool                { return a.Before(b) }
func (clockAxis) zero() time.Duration                     { return 0 }
func (clockAxis) add(a, b time.Duration) time.Duration    { return a + b }
func (clockAxis) cmp(a, b time.Duration) int              { return cmp.Compare(a, b) }
func (clockAxis) frac(num, den time.Duration) float64     { return float64(num) / float64(den) }

func (clockAxis) timeOfDay(t time.Time) (time.Duration, bool) {
	hour, min, sec := t.Clock()
	tod := time.Duration(hour)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(t.Nanosecond())
	return tod, true
}

// secondsToDuration converts raw seconds to a duration, rounding to the
// nearest nanosecond so that nanosecond-representable values survive a round
// trip through the wall-clock axis exactly.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ParseClockTime parses a time of day such as "13:00" or "13:00:30" into an
// offset from midnight.
func ParseClockTime(s string) (time.Duration, error) {
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("clock time %q: %w", s, ErrInvalidArgument)
	}
	tod, _ := clockAxis{}.timeOfDay(t)
	return tod, nil
}
