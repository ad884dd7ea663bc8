package cli

import (
	"fmt"
	"time"
)

type GapsCmd struct {
	File      string        `arg:"" help:"Hypnogram file to inspect." type:"existingfile"`
	Tolerance time.Duration `help:"Ignore holes no longer than this." default:"0s"`
}

func (c *GapsCmd) Run(ctx *Context) error {
	l, err := ctx.load(c.File)
	if err != nil {
		return err
	}

	if l.clock != nil {
		gaps, err := l.clock.Gaps(c.Tolerance)
		if err != nil {
			return err
		}
		if ctx.JSON {
			return printJSON(gaps)
		}
		if len(gaps) == 0 {
			fmt.Println("No gaps found")
			return nil
		}
		fmt.Printf("Found %d gaps:\n", len(gaps))
		for _, g := range gaps {
			fmt.Printf("  %s to %s (%s)\n",
				g.Start.Format(time.RFC3339), g.End.Format(time.RFC3339), g.Duration)
		}
		return nil
	}

	gaps, err := l.rel.Gaps(c.Tolerance.Seconds())
	if err != nil {
		return err
	}
	if ctx.JSON {
		return printJSON(gaps)
	}
	if len(gaps) == 0 {
		fmt.Println("No gaps found")
		return nil
	}
	fmt.Printf("Found %d gaps:\n", len(gaps))
	for _, g := range gaps {
		fmt.Printf("  %s to %s (%s)\n", fmtSeconds(g.Start), fmtSeconds(g.End), fmtSeconds(g.Duration))
	}
	return nil
}
