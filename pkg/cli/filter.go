package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

type FilterCmd struct {
	Input  string `arg:"" help:"Hypnogram file to read." type:"existingfile"`
	Output string `arg:"" help:"Destination path." type:"path"`

	States  []string      `help:"Keep only bouts in these states."`
	Longer  time.Duration `help:"Keep only bouts strictly longer than this."`
	Between string        `help:"Keep only bouts inside this time-of-day window (HH:MM-HH:MM, may wrap midnight)."`
	First   time.Duration `help:"Keep leading bouts while their total duration stays within this budget."`
	Last    time.Duration `help:"Keep trailing bouts while their total duration stays within this budget."`

	To string `help:"Output format." enum:"visbrain,datetime" default:"datetime"`
}

func (c *FilterCmd) Run(ctx *Context) error {
	if len(c.States) == 0 && c.Longer == 0 && c.Between == "" && c.First == 0 && c.Last == 0 {
		return fmt.Errorf("nothing to do: give at least one of --states, --longer, --between, --first, --last")
	}

	l, err := ctx.load(c.Input)
	if err != nil {
		return err
	}

	if c.Between != "" && l.clock == nil {
		return fmt.Errorf("--between needs wall-clock times: use a datetime file or anchor with --reference")
	}

	before := l.len()

	// Filters apply in a fixed order: states, longer, between, first, last.
	// The budget filters run last so "the first hour" means the first hour of
	// whatever survived the other filters.
	var kept *loaded
	if l.clock != nil {
		h := l.clock
		if len(c.States) > 0 {
			h = h.KeepStates(c.States...)
		}
		if c.Longer > 0 {
			h = h.KeepLonger(c.Longer)
		}
		if c.Between != "" {
			start, end, err := parseWindow(c.Between)
			if err != nil {
				return err
			}
			h, err = h.KeepBetween(start, end)
			if err != nil {
				return err
			}
		}
		if c.First > 0 {
			h = h.KeepFirst(c.First)
		}
		if c.Last > 0 {
			h = h.KeepLast(c.Last)
		}
		kept = &loaded{clock: h}
	} else {
		h := l.rel
		if len(c.States) > 0 {
			h = h.KeepStates(c.States...)
		}
		if c.Longer > 0 {
			h = h.KeepLonger(c.Longer.Seconds())
		}
		if c.First > 0 {
			h = h.KeepFirst(c.First.Seconds())
		}
		if c.Last > 0 {
			h = h.KeepLast(c.Last.Seconds())
		}
		kept = &loaded{rel: h}
	}

	if err := ctx.write(kept, c.Output, c.To); err != nil {
		return err
	}

	fmt.Printf("Kept %d of %d bouts, wrote %s\n", kept.len(), before, c.Output)
	return nil
}

// parseWindow splits a HH:MM-HH:MM window into its times of day.
func parseWindow(window string) (start, end time.Duration, err error) {
	parts := strings.SplitN(window, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid window %q (want HH:MM-HH:MM)", window)
	}
	start, err = hypnogram.ParseClockTime(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window start: %w", err)
	}
	end, err = hypnogram.ParseClockTime(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window end: %w", err)
	}
	return start, end, nil
}
