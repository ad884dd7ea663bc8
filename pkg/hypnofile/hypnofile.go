// Package hypnofile reads and writes the scoring-file formats that produce
// hypnograms: Visbrain two-column exports, Spike2 sleep-score exports, and the
// tab-separated datetime format this project writes itself. Loaders hand the
// core an ordered sequence of records per the ingestion contract; everything
// else about the files stays in this package.
package hypnofile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// readTSV opens path and reads every tab-separated row, dropping lines whose
// first byte is the comment rune when one is given. Rows may have a varying
// number of fields; the caller validates shape.
func readTSV(path string, comment rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hypnogram file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.Comment = comment
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// createFile makes the parent directory as needed and creates path,
// truncating any existing file.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create hypnogram file: %w", err)
	}
	return f, nil
}

func parseSeconds(field, column string, row int) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: %s %q is not a number: %w", row, column, field, err)
	}
	return v, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
