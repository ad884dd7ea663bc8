package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/CSC-UW/hypnogram/pkg/hcl"
	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

type AnalyzeCmd struct {
	File string `arg:"" help:"Hypnogram file to analyze." type:"existingfile"`
	Spec string `arg:"" help:"HCL analysis spec (file or directory)." type:"path"`
}

func (c *AnalyzeCmd) Run(ctx *Context) error {
	l, err := ctx.load(c.File)
	if err != nil {
		return err
	}

	results, err := runSpec(l, c.Spec, ctx.Reference)
	if err != nil {
		return err
	}

	return printJSON(results)
}

// runSpec parses the spec and executes its operations against the loaded
// hypnogram. The spec's time range selects bouts the way the service does
// when loading from storage: a bout is in range when its start is. A
// reference in the spec wins over the command line one.
func runSpec(l *loaded, specPath string, reference time.Time) (map[string]temporal.OperationResult, error) {
	request, err := loadSpec(specPath)
	if err != nil {
		return nil, err
	}

	h := l.clock
	if h == nil {
		return nil, fmt.Errorf("analysis needs wall-clock times: use a datetime file or anchor with --reference")
	}

	if request.TimeRange != nil {
		var bouts []hypnogram.ClockBout
		for _, b := range h.Bouts() {
			if !b.Start.Before(request.TimeRange.Start) && !b.Start.After(request.TimeRange.End) {
				bouts = append(bouts, b)
			}
		}
		h, err = hypnogram.NewClock(bouts)
		if err != nil {
			return nil, fmt.Errorf("time range selection: %w", err)
		}
	}

	ref := request.Reference
	if ref.IsZero() {
		ref = reference
	}

	return temporal.NewAnalysisProcessor(ref).Run(h, request.Operations)
}

// loadSpec reads an HCL analysis spec from a single file or, Terraform-style,
// from every .hcl file in a directory.
func loadSpec(path string) (*temporal.AnalysisRequest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec: %w", err)
	}
	if info.IsDir() {
		return hcl.ParseAnalysisDir(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec: %w", err)
	}
	return hcl.ParseAnalysisSpec(content)
}
