package cli

import (
	"fmt"
)

type ConvertCmd struct {
	Input  string `arg:"" help:"Hypnogram file to read." type:"existingfile"`
	Output string `arg:"" help:"Destination path." type:"path"`
	To     string `help:"Output format." enum:"visbrain,datetime" default:"datetime"`
}

func (c *ConvertCmd) Run(ctx *Context) error {
	l, err := ctx.load(c.Input)
	if err != nil {
		return err
	}

	if err := ctx.write(l, c.Output, c.To); err != nil {
		return err
	}

	fmt.Printf("Wrote %d bouts to %s\n", l.len(), c.Output)
	return nil
}
