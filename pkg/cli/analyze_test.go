package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

func writeSpecFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}
	return path
}

func TestRunSpec(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpecFile(t, dir, "analysis.hcl", `
recording_id = "local"

operation "sleep" {
	op     = "keep_states"
	states = ["NREM", "REM"]
}

operation "overview" {
	op     = "summary"
	source = "sleep"
}
`)

	ctx := &Context{Format: FormatDatetime}
	l, err := ctx.load(writeDatetimeFile(t, dir))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	results, err := runSpec(l, spec, time.Time{})
	if err != nil {
		t.Fatalf("runSpec failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	sleep := results["sleep"]
	if sleep.Kind != temporal.KindBouts {
		t.Errorf("expected a bouts result, got %q", sleep.Kind)
	}
	if len(sleep.Bouts) != 3 {
		t.Errorf("expected 3 sleep bouts, got %d", len(sleep.Bouts))
	}

	overview := results["overview"]
	if overview.Summary == nil {
		t.Fatal("expected a summary")
	}
	if overview.Summary.Bouts != 3 {
		t.Errorf("expected the summary to cover 3 bouts, got %d", overview.Summary.Bouts)
	}
	if got := overview.Summary.TimeInState["NREM"]; got != time.Hour {
		t.Errorf("expected 1h of NREM, got %v", got)
	}
}

func TestRunSpecTimeRange(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpecFile(t, dir, "analysis.hcl", `
recording_id = "local"

time_range {
	start = timestamp("2026-07-01T21:10:00Z")
	end   = timestamp("2026-07-01T21:50:00Z")
}

operation "overview" {
	op = "summary"
}
`)

	ctx := &Context{Format: FormatDatetime}
	l, err := ctx.load(writeDatetimeFile(t, dir))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	results, err := runSpec(l, spec, time.Time{})
	if err != nil {
		t.Fatalf("runSpec failed: %v", err)
	}

	// Only the bouts starting inside the range survive.
	overview := results["overview"]
	if overview.Summary.Bouts != 2 {
		t.Errorf("expected 2 bouts in range, got %d", overview.Summary.Bouts)
	}
	if got := overview.Summary.TimeInState["NREM"]; got != 30*time.Minute {
		t.Errorf("expected 30m of NREM in range, got %v", got)
	}
}

func TestRunSpecReferenceWins(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpecFile(t, dir, "analysis.hcl", `
recording_id = "local"
reference    = timestamp("2026-07-01T21:00:00Z")

operation "coverage" {
	op    = "covers"
	times = [0, 5401]
}
`)

	ctx := &Context{Format: FormatDatetime}
	l, err := ctx.load(writeDatetimeFile(t, dir))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// The command line reference would shift every query time by a day; the
	// spec's own reference must win.
	cliReference := time.Date(2026, 7, 2, 21, 0, 0, 0, time.UTC)
	results, err := runSpec(l, spec, cliReference)
	if err != nil {
		t.Fatalf("runSpec failed: %v", err)
	}

	coverage := results["coverage"]
	if coverage.Kind != temporal.KindCovers {
		t.Fatalf("expected a covers result, got %q", coverage.Kind)
	}
	if len(coverage.Mask) != 2 || !coverage.Mask[0] || coverage.Mask[1] {
		t.Errorf("expected [true false], got %v", coverage.Mask)
	}
}

func TestRunSpecDirectory(t *testing.T) {
	dir := t.TempDir()
	specDir := filepath.Join(dir, "spec")
	if err := os.MkdirAll(specDir, 0o755); err != nil {
		t.Fatalf("failed to create spec dir: %v", err)
	}
	writeSpecFile(t, specDir, "01_recording.hcl", `
recording_id = "local"
`)
	writeSpecFile(t, specDir, "02_operations.hcl", `
operation "holes" {
	op = "gaps"
}
`)

	ctx := &Context{Format: FormatDatetime}
	l, err := ctx.load(writeDatetimeFile(t, dir))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	results, err := runSpec(l, specDir, time.Time{})
	if err != nil {
		t.Fatalf("runSpec failed: %v", err)
	}

	holes := results["holes"]
	if len(holes.Gaps) != 1 {
		t.Fatalf("expected the one scoring hole, got %d gaps", len(holes.Gaps))
	}
	if holes.Gaps[0].Duration != 10*time.Minute {
		t.Errorf("expected a 10m gap, got %v", holes.Gaps[0].Duration)
	}
}

func TestRunSpecRequiresClock(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpecFile(t, dir, "analysis.hcl", `
recording_id = "local"

operation "overview" {
	op = "summary"
}
`)

	ctx := &Context{Format: FormatVisbrain}
	l, err := ctx.load(writeVisbrainFile(t, dir))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	_, err = runSpec(l, spec, time.Time{})
	if err == nil {
		t.Fatal("expected an error for an unanchored relative file")
	}
	if !strings.Contains(err.Error(), "--reference") {
		t.Errorf("expected the error to mention --reference, got: %v", err)
	}
}

func TestRunSpecMissingSpec(t *testing.T) {
	dir := t.TempDir()

	ctx := &Context{Format: FormatDatetime}
	l, err := ctx.load(writeDatetimeFile(t, dir))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	_, err = runSpec(l, filepath.Join(dir, "missing.hcl"), time.Time{})
	if err == nil {
		t.Fatal("expected an error for a missing spec")
	}
	if !strings.Contains(err.Error(), "failed to read spec") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAnalyzeCmd(t *testing.T) {
	dir := t.TempDir()
	spec := writeSpecFile(t, dir, "analysis.hcl", `
recording_id = "local"

operation "overview" {
	op = "summary"
}
`)

	ctx := &Context{Format: FormatDatetime}
	cmd := &AnalyzeCmd{File: writeDatetimeFile(t, dir), Spec: spec}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("analyze command failed: %v", err)
	}
}
