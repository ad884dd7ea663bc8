package cli

import (
	"fmt"
	"time"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

type FillCmd struct {
	Input     string        `arg:"" help:"Hypnogram file to read." type:"existingfile"`
	Output    string        `arg:"" help:"Destination path." type:"path"`
	Tolerance time.Duration `help:"Leave holes no longer than this unfilled." default:"0s"`
	State     string        `help:"State label for filled time (default the unscored label)."`
	To        string        `help:"Output format." enum:"visbrain,datetime" default:"datetime"`
}

func (c *FillCmd) Run(ctx *Context) error {
	l, err := ctx.load(c.Input)
	if err != nil {
		return err
	}

	fill := c.State
	if fill == "" {
		fill = hypnogram.Unscored
	}

	var filled *loaded
	if l.clock != nil {
		h, err := l.clock.FillGaps(c.Tolerance, fill)
		if err != nil {
			return err
		}
		filled = &loaded{clock: h}
	} else {
		h, err := l.rel.FillGaps(c.Tolerance.Seconds(), fill)
		if err != nil {
			return err
		}
		filled = &loaded{rel: h}
	}

	if err := ctx.write(filled, c.Output, c.To); err != nil {
		return err
	}

	fmt.Printf("Filled %d gaps with %q, wrote %d bouts to %s\n",
		filled.len()-l.len(), fill, filled.len(), c.Output)
	return nil
}
