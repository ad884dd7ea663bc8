package hypnofile

import (
	"bufio"
	"fmt"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

// LoadVisbrain reads a hypnogram exported from Visbrain: a headerless
// tab-separated file of "state<TAB>end_time" rows where end_time is in
// seconds and lines starting with '*' carry metadata. The first bout starts
// at 0.0 and each later bout starts where the previous one ended.
func LoadVisbrain(path string) (*hypnogram.FloatHypnogram, error) {
	rows, err := readTSV(path, '*')
	if err != nil {
		return nil, err
	}

	ivs := make([]hypnogram.FloatInterval, 0, len(rows))
	start := 0.0
	for i, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("row %d: want 2 fields (state, end_time), got %d", i+1, len(row))
		}
		end, err := parseSeconds(row[1], "end_time", i+1)
		if err != nil {
			return nil, err
		}
		ivs = append(ivs, hypnogram.FloatInterval{State: row[0], Start: start, End: end})
		start = end
	}
	return hypnogram.FromIntervals(ivs)
}

// WriteVisbrain writes h in the two-column form LoadVisbrain reads, creating
// parent directories as needed. Only states and end times survive the round
// trip; start times are reconstructed on load, so a hypnogram whose first
// bout does not start at 0.0 will not read back identically.
func WriteVisbrain(h *hypnogram.FloatHypnogram, path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, b := range h.Bouts() {
		fmt.Fprintf(w, "%s\t%s\n", b.State, formatSeconds(b.End))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write hypnogram file: %w", err)
	}
	return nil
}
