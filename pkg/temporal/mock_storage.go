package temporal

import (
	"context"
	"fmt"
	"sync"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

// MockRecordingStore implements RecordingStore in memory for testing
type MockRecordingStore struct {
	mu      sync.RWMutex
	bouts   map[string][]hypnogram.ClockBout
	results map[string]*AnalysisResult
}

// NewMockRecordingStore creates a new mock recording store
func NewMockRecordingStore() *MockRecordingStore {
	return &MockRecordingStore{
		bouts:   make(map[string][]hypnogram.ClockBout),
		results: make(map[string]*AnalysisResult),
	}
}

// AppendBouts appends bouts to the mock store
func (m *MockRecordingStore) AppendBouts(ctx context.Context, recordingID string, bouts []hypnogram.ClockBout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bouts[recordingID] = append(m.bouts[recordingID], bouts...)
	return nil
}

// LoadHypnogram rebuilds a recording's hypnogram from the stored bouts. With
// a time range, only bouts starting inside it are kept.
func (m *MockRecordingStore) LoadHypnogram(ctx context.Context, recordingID string, timeRange *TimeRange) (*hypnogram.ClockHypnogram, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, exists := m.bouts[recordingID]
	if !exists {
		return nil, fmt.Errorf("recording %q not found", recordingID)
	}

	var kept []hypnogram.ClockBout
	for _, b := range stored {
		if timeRange != nil && (b.Start.Before(timeRange.Start) || b.Start.After(timeRange.End)) {
			continue
		}
		kept = append(kept, b)
	}

	return hypnogram.NewClock(kept)
}

// SaveResult stores an analysis result keyed by its run ID
func (m *MockRecordingStore) SaveResult(ctx context.Context, result *AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[result.RunID] = result
	return nil
}

// BoutCount returns the number of stored bouts for a recording (for testing)
func (m *MockRecordingStore) BoutCount(recordingID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.bouts[recordingID])
}

// Result returns a stored analysis result by run ID (for testing)
func (m *MockRecordingStore) Result(runID string) *AnalysisResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.results[runID]
}
