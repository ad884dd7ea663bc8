package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type InfoCmd struct {
	File string `arg:"" help:"Hypnogram file to inspect." type:"existingfile"`
}

// infoReport summarizes a hypnogram file. Times and durations are formatted
// strings so relative and clock files report the same way.
type infoReport struct {
	File          string            `json:"file"`
	Bouts         int               `json:"bouts"`
	States        []string          `json:"states"`
	Start         string            `json:"start"`
	End           string            `json:"end"`
	TotalDuration string            `json:"total_duration"`
	SpanDuration  string            `json:"span_duration"`
	TimeInState   map[string]string `json:"time_in_state"`
}

func (c *InfoCmd) Run(ctx *Context) error {
	l, err := ctx.load(c.File)
	if err != nil {
		return err
	}

	report := buildInfo(c.File, l)

	if ctx.JSON {
		return printJSON(report)
	}

	fmt.Printf("File:   %s\n", report.File)
	fmt.Printf("Bouts:  %d\n", report.Bouts)
	fmt.Printf("States: %s\n", strings.Join(report.States, ", "))
	fmt.Printf("Span:   %s to %s (%s)\n", report.Start, report.End, report.SpanDuration)
	fmt.Printf("Scored: %s\n", report.TotalDuration)

	if len(report.TimeInState) > 0 {
		fmt.Println("Time in state:")
		states := make([]string, 0, len(report.TimeInState))
		for state := range report.TimeInState {
			states = append(states, state)
		}
		sort.Strings(states)
		for _, state := range states {
			fmt.Printf("  %-8s %s\n", state, report.TimeInState[state])
		}
	}

	return nil
}

func buildInfo(file string, l *loaded) *infoReport {
	report := &infoReport{
		File:        file,
		Bouts:       l.len(),
		TimeInState: make(map[string]string),
	}

	if l.clock != nil {
		h := l.clock
		start, end := h.Span()
		report.States = h.States()
		report.Start = start.Format(time.RFC3339)
		report.End = end.Format(time.RFC3339)
		report.TotalDuration = h.TotalDuration().String()
		report.SpanDuration = end.Sub(start).String()
		perState := make(map[string]time.Duration)
		for _, b := range h.Bouts() {
			perState[b.State] += b.Duration
		}
		for state, d := range perState {
			report.TimeInState[state] = d.String()
		}
		return report
	}

	h := l.rel
	start, end := h.Span()
	report.States = h.States()
	report.Start = fmtSeconds(start)
	report.End = fmtSeconds(end)
	report.TotalDuration = fmtSeconds(h.TotalDuration())
	report.SpanDuration = fmtSeconds(end - start)
	perState := make(map[string]float64)
	for _, b := range h.Bouts() {
		perState[b.State] += b.Duration
	}
	for state, s := range perState {
		report.TimeInState[state] = fmtSeconds(s)
	}
	return report
}
