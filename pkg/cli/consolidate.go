package cli

import (
	"fmt"
	"strings"
	"time"
)

type ConsolidateCmd struct {
	File        string        `arg:"" help:"Hypnogram file to inspect." type:"existingfile"`
	States      []string      `help:"States of interest." required:""`
	Frac        float64       `help:"Minimum fraction of each period spent in the states." default:"0.8"`
	MinimumTime time.Duration `help:"Minimum time in the states per period." default:"0s"`
}

// periodReport describes one maximal consolidated period.
type periodReport struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Bouts        int     `json:"bouts"`
	TimeInStates string  `json:"time_in_states"`
	SpanDuration string  `json:"span_duration"`
	Frac         float64 `json:"frac"`
}

func (c *ConsolidateCmd) Run(ctx *Context) error {
	l, err := ctx.load(c.File)
	if err != nil {
		return err
	}

	var reports []periodReport
	if l.clock != nil {
		periods, err := l.clock.Consolidated(c.States, c.Frac, c.MinimumTime)
		if err != nil {
			return err
		}
		reports = make([]periodReport, len(periods))
		for i, period := range periods {
			start, end := period.Span()
			span := end.Sub(start)
			timeIn := period.KeepStates(c.States...).TotalDuration()
			reports[i] = periodReport{
				Start:        start.Format(time.RFC3339),
				End:          end.Format(time.RFC3339),
				Bouts:        period.Len(),
				TimeInStates: timeIn.String(),
				SpanDuration: span.String(),
				Frac:         float64(timeIn) / float64(span),
			}
		}
	} else {
		periods, err := l.rel.Consolidated(c.States, c.Frac, c.MinimumTime.Seconds())
		if err != nil {
			return err
		}
		reports = make([]periodReport, len(periods))
		for i, period := range periods {
			start, end := period.Span()
			span := end - start
			timeIn := period.KeepStates(c.States...).TotalDuration()
			reports[i] = periodReport{
				Start:        fmtSeconds(start),
				End:          fmtSeconds(end),
				Bouts:        period.Len(),
				TimeInStates: fmtSeconds(timeIn),
				SpanDuration: fmtSeconds(span),
				Frac:         timeIn / span,
			}
		}
	}

	if ctx.JSON {
		return printJSON(reports)
	}

	if len(reports) == 0 {
		fmt.Printf("No consolidated periods of %s found\n", strings.Join(c.States, ", "))
		return nil
	}
	fmt.Printf("Found %d consolidated periods of %s:\n", len(reports), strings.Join(c.States, ", "))
	for i, report := range reports {
		fmt.Printf("  %d. %s to %s: %s of %s in state (%.0f%%, %d bouts)\n",
			i+1, report.Start, report.End, report.TimeInStates, report.SpanDuration,
			report.Frac*100, report.Bouts)
	}
	return nil
}
