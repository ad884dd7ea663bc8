// Package store persists recordings and analysis runs in SQLite.
//
// Bouts keep their RFC 3339 text form so a recording scored in local time
// round-trips with its zone offset intact; range queries and ordering use a
// parallel integer nanosecond column instead of comparing text.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maypok86/otter/v2"
	_ "modernc.org/sqlite"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

const schema = `
CREATE TABLE IF NOT EXISTS bouts (
	recording_id TEXT    NOT NULL,
	seq          INTEGER NOT NULL,
	state        TEXT    NOT NULL,
	start_time   TEXT    NOT NULL,
	end_time     TEXT    NOT NULL,
	start_ns     INTEGER NOT NULL,
	duration_ns  INTEGER NOT NULL,
	PRIMARY KEY (recording_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_bouts_recording_start ON bouts (recording_id, start_ns);

CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id       TEXT PRIMARY KEY,
	recording_id TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	payload      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_recording ON analysis_runs (recording_id);
`

const (
	cacheMaximumSize     = 256
	cacheInitialCapacity = 16
	cacheTTL             = 5 * time.Minute
)

// Store keeps bouts and analysis runs in a SQLite database, with a small
// in-memory cache in front of whole-recording loads.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	cache  *otter.Cache[string, []hypnogram.ClockBout]
}

var _ temporal.RecordingStore = (*Store)(nil)

// Open opens (creating if needed) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; serialize access through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	cache := otter.Must(&otter.Options[string, []hypnogram.ClockBout]{
		MaximumSize:      cacheMaximumSize,
		InitialCapacity:  cacheInitialCapacity,
		ExpiryCalculator: otter.ExpiryWriting[string, []hypnogram.ClockBout](cacheTTL),
	})

	logger.Info("Store opened", "path", path)
	return &Store{db: db, logger: logger, cache: cache}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendBouts appends bouts to a recording in scoring order.
func (s *Store) AppendBouts(ctx context.Context, recordingID string, bouts []hypnogram.ClockBout) error {
	if len(bouts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM bouts WHERE recording_id = ?", recordingID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read bout sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bouts (recording_id, seq, state, start_time, end_time, start_ns, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range bouts {
		_, err := stmt.ExecContext(ctx,
			recordingID,
			next+int64(i),
			b.State,
			b.Start.Format(time.RFC3339Nano),
			b.End.Format(time.RFC3339Nano),
			b.Start.UnixNano(),
			int64(b.Duration),
		)
		if err != nil {
			return fmt.Errorf("failed to insert bout %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bouts: %w", err)
	}

	s.cache.Invalidate(recordingID)
	s.logger.Debug("Appended bouts", "recordingID", recordingID, "count", len(bouts))
	return nil
}

// LoadBouts returns a recording's bouts in scoring order, optionally limited
// to bouts starting inside timeRange. An unknown recording is an error.
func (s *Store) LoadBouts(ctx context.Context, recordingID string, timeRange *temporal.TimeRange) ([]hypnogram.ClockBout, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM bouts WHERE recording_id = ?)", recordingID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check recording: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("recording %q not found", recordingID)
	}

	query := "SELECT state, start_time, end_time, duration_ns FROM bouts WHERE recording_id = ?"
	args := []interface{}{recordingID}
	if timeRange != nil {
		query += " AND start_ns >= ? AND start_ns <= ?"
		args = append(args, timeRange.Start.UnixNano(), timeRange.End.UnixNano())
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bouts: %w", err)
	}
	defer rows.Close()

	var bouts []hypnogram.ClockBout
	for rows.Next() {
		var state, startText, endText string
		var durationNs int64
		if err := rows.Scan(&state, &startText, &endText, &durationNs); err != nil {
			return nil, fmt.Errorf("failed to scan bout: %w", err)
		}
		start, err := time.Parse(time.RFC3339Nano, startText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored start time: %w", err)
		}
		end, err := time.Parse(time.RFC3339Nano, endText)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored end time: %w", err)
		}
		bouts = append(bouts, hypnogram.ClockBout{
			State:    state,
			Start:    start,
			End:      end,
			Duration: time.Duration(durationNs),
		})
	}
	return bouts, rows.Err()
}

// LoadHypnogram assembles a recording's hypnogram. Whole-recording loads are
// served from the cache when possible; ranged loads always hit the database.
func (s *Store) LoadHypnogram(ctx context.Context, recordingID string, timeRange *temporal.TimeRange) (*hypnogram.ClockHypnogram, error) {
	if timeRange == nil {
		if bouts, ok := s.cache.GetIfPresent(recordingID); ok {
			return hypnogram.NewClock(bouts)
		}
	}

	bouts, err := s.LoadBouts(ctx, recordingID, timeRange)
	if err != nil {
		return nil, err
	}

	h, err := hypnogram.NewClock(bouts)
	if err != nil {
		return nil, err
	}
	if timeRange == nil {
		s.cache.Set(recordingID, bouts)
	}
	return h, nil
}

// SaveResult persists an analysis run keyed by its run ID. Re-saving a run
// replaces the earlier payload.
func (s *Store) SaveResult(ctx context.Context, result *temporal.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_runs (run_id, recording_id, created_at, payload)
		VALUES (?, ?, ?, ?)`,
		result.RunID,
		result.RecordingID,
		time.Now().UTC().Format(time.RFC3339Nano),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}

	s.logger.Debug("Saved analysis run", "runID", result.RunID, "recordingID", result.RecordingID)
	return nil
}

// Result loads a persisted analysis run.
func (s *Store) Result(ctx context.Context, runID string) (*temporal.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM analysis_runs WHERE run_id = ?", runID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis run %q not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis run: %w", err)
	}

	var result temporal.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis run: %w", err)
	}
	return &result, nil
}

// Recordings lists the recording IDs present in the store.
func (s *Store) Recordings(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT recording_id FROM bouts ORDER BY recording_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recording ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
