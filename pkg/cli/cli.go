// Package cli implements the hypnogram command line tool: inspecting,
// converting, filtering, and analyzing scored sleep files locally, without a
// running service.
package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/CSC-UW/hypnogram/pkg/hypnofile"
	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

// Input and output file formats.
const (
	FormatVisbrain = "visbrain"
	FormatSpike2   = "spike2"
	FormatDatetime = "datetime"
)

// Context carries the global flags into every subcommand.
type Context struct {
	// Format names the input file format.
	Format string
	// Reference is the wall-clock instant a relative file's zero second maps
	// to. Zero leaves relative files unanchored, which rules out time-of-day
	// operations on them.
	Reference time.Time
	// JSON switches reporting commands to machine-readable output.
	JSON bool
}

// loaded is a hypnogram on either time axis. Exactly one field is non-nil:
// datetime files are clock-based, visbrain and spike2 files are relative
// unless a reference anchors them.
type loaded struct {
	clock *hypnogram.ClockHypnogram
	rel   *hypnogram.FloatHypnogram
}

func (l *loaded) len() int {
	if l.clock != nil {
		return l.clock.Len()
	}
	return l.rel.Len()
}

// load reads path in the context's format. Relative files are anchored on the
// reference instant when one was given.
func (ctx *Context) load(path string) (*loaded, error) {
	switch ctx.Format {
	case FormatDatetime:
		h, err := hypnofile.LoadDatetime(path)
		if err != nil {
			return nil, err
		}
		return &loaded{clock: h}, nil

	case FormatVisbrain, FormatSpike2:
		var h *hypnogram.FloatHypnogram
		var err error
		if ctx.Format == FormatVisbrain {
			h, err = hypnofile.LoadVisbrain(path)
		} else {
			h, err = hypnofile.LoadSpike2(path)
		}
		if err != nil {
			return nil, err
		}
		if !ctx.Reference.IsZero() {
			return &loaded{clock: hypnogram.AsClock(h, ctx.Reference)}, nil
		}
		return &loaded{rel: h}, nil

	default:
		return nil, fmt.Errorf("unknown format %q (want visbrain, spike2, or datetime)", ctx.Format)
	}
}

// write saves l to path in the named format, converting between axes when the
// format demands it. Spike2 is a vendor export format with no writer.
func (ctx *Context) write(l *loaded, path, format string) error {
	switch format {
	case FormatDatetime:
		if l.clock != nil {
			return hypnofile.Write(l.clock, path)
		}
		return hypnofile.Write(l.rel, path)

	case FormatVisbrain:
		rel := l.rel
		if rel == nil {
			start := ctx.Reference
			if start.IsZero() {
				start, _ = l.clock.Span()
			}
			rel = hypnogram.AsRelative(l.clock, start)
		}
		return hypnofile.WriteVisbrain(rel, path)

	case FormatSpike2:
		return fmt.Errorf("spike2 files can only be read: convert to visbrain or datetime instead")

	default:
		return fmt.Errorf("unknown output format %q (want visbrain or datetime)", format)
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

// fmtSeconds renders a relative-axis quantity as a duration string, so both
// axes report durations the same way.
func fmtSeconds(s float64) string {
	return time.Duration(math.Round(s * float64(time.Second))).String()
}
