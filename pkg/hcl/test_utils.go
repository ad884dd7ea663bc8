package hcl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

// AssertRequestsEqual compares two AnalysisRequest objects for equality in
// tests.
func AssertRequestsEqual(t *testing.T, expected, actual *temporal.AnalysisRequest) {
	t.Helper()

	assert.Equal(t, expected.RecordingID, actual.RecordingID)
	assert.True(t, expected.Reference.Equal(actual.Reference),
		"reference: expected %v, got %v", expected.Reference, actual.Reference)

	if expected.TimeRange != nil && actual.TimeRange != nil {
		// Compare instants, allowing for zone differences.
		assert.Equal(t,
			expected.TimeRange.Start.UTC().Format(time.RFC3339),
			actual.TimeRange.Start.UTC().Format(time.RFC3339))
		assert.Equal(t,
			expected.TimeRange.End.UTC().Format(time.RFC3339),
			actual.TimeRange.End.UTC().Format(time.RFC3339))
	} else {
		assert.Equal(t, expected.TimeRange == nil, actual.TimeRange == nil)
	}

	assert.Equal(t, len(expected.Operations), len(actual.Operations))
	for i := 0; i < len(expected.Operations) && i < len(actual.Operations); i++ {
		AssertOperationsEqual(t, &expected.Operations[i], &actual.Operations[i])
	}
}

// AssertOperationsEqual compares two Operation objects for equality in tests.
func AssertOperationsEqual(t *testing.T, expected, actual *temporal.Operation) {
	t.Helper()

	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Op, actual.Op)
	assert.Equal(t, expected.Source, actual.Source)
	assert.Equal(t, expected.States, actual.States)
	assert.Equal(t, expected.MinimumTime, actual.MinimumTime)
	assert.Equal(t, expected.Tolerance, actual.Tolerance)
	assert.Equal(t, expected.FillState, actual.FillState)
	assert.Equal(t, expected.Budget, actual.Budget)
	assert.Equal(t, expected.Start, actual.Start)
	assert.Equal(t, expected.End, actual.End)
	assert.Equal(t, expected.Times, actual.Times)

	if expected.Frac != nil || actual.Frac != nil {
		if expected.Frac == nil {
			t.Fatal("Expected Frac is nil but actual is not")
		}
		if actual.Frac == nil {
			t.Fatal("Actual Frac is nil but expected is not")
		}
		assert.Equal(t, *expected.Frac, *actual.Frac)
	}
}
