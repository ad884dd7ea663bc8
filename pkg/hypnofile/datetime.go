package hypnofile

import (
	"encoding/csv"
	"fmt"
	"time"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

// datetimeLayout is the timestamp form Write emits. LoadDatetime accepts any
// RFC3339 timestamp, with or without fractional seconds.
const datetimeLayout = time.RFC3339Nano

var datetimeColumns = []string{"state", "start_time", "end_time", "duration"}

// LoadDatetime reads a hypnogram saved with Write: a tab-separated file whose
// header row names at least the state, start_time, end_time, and duration
// columns, in any order. Timestamps are RFC3339 and durations use Go duration
// syntax. A header missing required columns yields a *hypnogram.SchemaError.
func LoadDatetime(path string) (*hypnogram.ClockHypnogram, error) {
	rows, err := readTSV(path, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &hypnogram.SchemaError{Missing: datetimeColumns}
	}
	header := rows[0]
	if err := hypnogram.ValidateSchema(header); err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	bouts := make([]hypnogram.ClockBout, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < len(header) {
			return nil, fmt.Errorf("row %d: want %d fields, got %d", i+2, len(header), len(row))
		}
		start, err := time.Parse(datetimeLayout, row[col["start_time"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad start_time: %w", i+2, err)
		}
		end, err := time.Parse(datetimeLayout, row[col["end_time"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad end_time: %w", i+2, err)
		}
		dur, err := time.ParseDuration(row[col["duration"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad duration: %w", i+2, err)
		}
		bouts = append(bouts, hypnogram.ClockBout{
			State:    row[col["state"]],
			Start:    start,
			End:      end,
			Duration: dur,
		})
	}
	return hypnogram.NewClock(bouts)
}

// Write saves h as a tab-separated file with a header row naming all four
// bout columns, creating parent directories as needed. Wall-clock hypnograms
// get RFC3339 timestamps and Go duration strings; relative hypnograms get
// plain numeric seconds.
func Write[T, D any](h *hypnogram.Hypnogram[T, D], path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(datetimeColumns); err != nil {
		return fmt.Errorf("write hypnogram file: %w", err)
	}
	for _, b := range h.Bouts() {
		var row []string
		switch b := any(b).(type) {
		case hypnogram.ClockBout:
			row = []string{b.State, b.Start.Format(datetimeLayout), b.End.Format(datetimeLayout), b.Duration.String()}
		case hypnogram.FloatBout:
			row = []string{b.State, formatSeconds(b.Start), formatSeconds(b.End), formatSeconds(b.Duration)}
		default:
			return fmt.Errorf("write: unsupported time axis %T", b)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write hypnogram file: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write hypnogram file: %w", err)
	}
	return nil
}
