package hypnofile

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

// Spike2 sleep-score exports carry a fixed 22-line preamble before the data.
const spike2HeaderLines = 22

// LoadSpike2 reads a hypnogram exported from Spike2. After the preamble each
// line holds tab-separated fields "epoch, start_time, end_time, state" with
// optional trailing comment columns; times are in seconds. Durations are
// computed from the start and end columns.
func LoadSpike2(path string) (*hypnogram.FloatHypnogram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hypnogram file: %w", err)
	}
	defer f.Close()

	var ivs []hypnogram.FloatInterval
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		if line <= spike2HeaderLines {
			continue
		}
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: want at least 4 fields (epoch, start_time, end_time, state), got %d", line, len(fields))
		}
		start, err := parseSeconds(fields[1], "start_time", line)
		if err != nil {
			return nil, err
		}
		end, err := parseSeconds(fields[2], "end_time", line)
		if err != nil {
			return nil, err
		}
		ivs = append(ivs, hypnogram.FloatInterval{State: fields[3], Start: start, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read hypnogram file: %w", err)
	}
	return hypnogram.FromIntervals(ivs)
}
