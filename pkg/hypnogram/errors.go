package hypnogram

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument marks out-of-range parameters, such as a negative
	// gap tolerance or a fraction outside [0, 1].
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidBout marks a bout whose end precedes its start or whose
	// duration is negative.
	ErrInvalidBout = errors.New("invalid bout")
)

// SchemaError reports bout fields absent from a named-column record source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// OrderingError reports an operation that requires bouts sorted by start time
// running against an unsorted hypnogram.
type OrderingError struct {
	Op    string
	Index int // first bout that starts before its predecessor
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("%s requires bouts sorted by start_time: bout %d is out of order", e.Op, e.Index)
}

// AxisError reports an operation that requires the wall-clock time axis
// running against a relative-axis hypnogram.
type AxisError struct {
	Op string
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("%s requires a wall-clock time axis", e.Op)
}
