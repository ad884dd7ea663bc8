package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/CSC-UW/hypnogram/pkg/cli"
)

var CLI struct {
	Version   kong.VersionFlag
	Format    string    `short:"f" help:"Input file format." enum:"visbrain,spike2,datetime" default:"datetime"`
	Reference time.Time `help:"Wall-clock instant the file's zero second maps to (RFC 3339); anchors relative formats."`
	JSON      bool      `help:"Emit JSON instead of text."`

	Info        cli.InfoCmd        `cmd:"" help:"Summarize a hypnogram file."`
	Convert     cli.ConvertCmd     `cmd:"" help:"Convert between hypnogram file formats."`
	Gaps        cli.GapsCmd        `cmd:"" help:"List unscored holes in a hypnogram."`
	Fill        cli.FillCmd        `cmd:"" help:"Fill unscored holes with a state."`
	Consolidate cli.ConsolidateCmd `cmd:"" help:"Find consolidated periods of chosen states."`
	Filter      cli.FilterCmd      `cmd:"" help:"Keep a subset of bouts."`
	Analyze     cli.AnalyzeCmd     `cmd:"" help:"Run an HCL analysis spec against a file."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("hypnogram"),
		kong.Description("Inspect, convert, and analyze sleep scoring files"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	appCtx := &cli.Context{
		Format:    CLI.Format,
		Reference: CLI.Reference,
		JSON:      CLI.JSON,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
