package temporal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

const (
	// TaskQueue is shared by the worker and every workflow starter.
	TaskQueue = "hypnogram-task-queue"

	// Workflow IDs
	ImportWorkflowIDPrefix   = "hypnogram-"
	AnalysisWorkflowIDPrefix = "analysis-"
	BatchWorkflowIDPrefix    = "batch-"

	// Signal names
	BoutsSignalName = "bouts-signal"

	// Activity names
	AppendBoutsActivityName   = "append-bouts"
	LoadHypnogramActivityName = "load-hypnogram"
	RunAnalysisActivityName   = "run-analysis"
	SaveResultActivityName    = "save-result"

	// Default values
	DefaultContinueAsNewThreshold = 1000 // bouts before ContinueAsNew
	DefaultConsolidatedFrac       = 0.8  // fraction of a period the states of interest must fill
)

// BoutsSignal carries newly scored bouts into an import workflow.
type BoutsSignal struct {
	Bouts []hypnogram.ClockInterval `json:"bouts"`
}

// TimeRange bounds which part of a recording an analysis sees.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AnalysisRequest asks for a sequence of operations over one recording.
type AnalysisRequest struct {
	RecordingID string      `json:"recording_id"`
	RunID       string      `json:"run_id,omitempty"`
	Operations  []Operation `json:"operations"`
	TimeRange   *TimeRange  `json:"time_range,omitempty"`
	// Reference anchors relative query times (Operation.Times) on the wall
	// clock. Zero means the recording's own span start.
	Reference time.Time `json:"reference,omitempty"`
}

// Operation is a single analysis step. Op names the operation; the remaining
// fields parameterize it. Durations (MinimumTime, Tolerance, Budget) use Go
// duration syntax, Start/End are times of day such as "21:30", and Times are
// seconds offsets from the request's reference instant.
type Operation struct {
	ID          string    `json:"id"`
	Op          string    `json:"op"`
	Source      string    `json:"source,omitempty"` // prior operation ID, empty = the loaded hypnogram
	States      []string  `json:"states,omitempty"`
	Frac        *float64  `json:"frac,omitempty"`
	MinimumTime string    `json:"minimum_time,omitempty"`
	Tolerance   string    `json:"tolerance,omitempty"`
	FillState   string    `json:"fill_state,omitempty"`
	Budget      string    `json:"budget,omitempty"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Times       []float64 `json:"times,omitempty"`
}

// OperationResult is the outcome of one operation. Kind names the populated
// payload field; Mask serves both mask and covers results.
type OperationResult struct {
	Kind    string                  `json:"kind"`
	Bouts   []hypnogram.ClockBout   `json:"bouts,omitempty"`
	Periods [][]hypnogram.ClockBout `json:"periods,omitempty"`
	Gaps    []hypnogram.ClockGap    `json:"gaps,omitempty"`
	Mask    []bool                  `json:"mask,omitempty"`
	Labels  []string                `json:"labels,omitempty"`
	Summary *Summary                `json:"summary,omitempty"`
}

// Summary describes a hypnogram in aggregate.
type Summary struct {
	Bouts         int                      `json:"bouts"`
	States        []string                 `json:"states"`
	Start         time.Time                `json:"start"`
	End           time.Time                `json:"end"`
	TotalDuration time.Duration            `json:"total_duration"`
	SpanDuration  time.Duration            `json:"span_duration"`
	TimeInState   map[string]time.Duration `json:"time_in_state"`
}

// AnalysisResult is the persisted outcome of one analysis run, keyed by
// operation ID.
type AnalysisResult struct {
	RunID       string                     `json:"run_id"`
	RecordingID string                     `json:"recording_id"`
	Results     map[string]OperationResult `json:"results"`
	Metadata    map[string]interface{}     `json:"metadata,omitempty"`
}

// BatchAnalysisRequest runs the same operations across several recordings.
type BatchAnalysisRequest struct {
	RecordingIDs []string    `json:"recording_ids"`
	Operations   []Operation `json:"operations"`
	TimeRange    *TimeRange  `json:"time_range,omitempty"`
	Reference    time.Time   `json:"reference,omitempty"`
}

// BatchAnalysisResult collects per-recording outcomes; recordings whose
// analysis failed land in Failures instead of Results.
type BatchAnalysisResult struct {
	RunID    string                     `json:"run_id"`
	Results  map[string]*AnalysisResult `json:"results"`
	Failures map[string]string          `json:"failures,omitempty"`
}

// ImportWorkflowState tracks bout intake for a recording's import workflow.
type ImportWorkflowState struct {
	RecordingID string    `json:"recording_id"`
	BoutCount   int       `json:"bout_count"`
	LastBoutAt  time.Time `json:"last_bout_at"`
}

// ImportWorkflow receives scored bouts for one recording and appends them to
// storage. It runs until history grows past the threshold, then continues as
// new so a recording can be scored over weeks without unbounded history.
func ImportWorkflow(ctx workflow.Context, recordingID string) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting import workflow", "recordingID", recordingID)

	state := ImportWorkflowState{
		RecordingID: recordingID,
		LastBoutAt:  workflow.Now(ctx),
	}

	ao := workflow.ActivityOptions{
		ScheduleToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	signalChan := workflow.GetSignalChannel(ctx, BoutsSignalName)

	for {
		var signal BoutsSignal
		signalChan.Receive(ctx, &signal)

		logger.Info("Received bouts", "recordingID", recordingID, "count", len(signal.Bouts))

		err := workflow.ExecuteActivity(ctx, AppendBoutsActivityName, recordingID, signal.Bouts).Get(ctx, nil)
		if err != nil {
			// Keep receiving; a bad batch must not kill the recording's intake.
			logger.Error("Failed to append bouts", "error", err)
			continue
		}

		state.BoutCount += len(signal.Bouts)
		state.LastBoutAt = workflow.Now(ctx)

		if state.BoutCount >= DefaultContinueAsNewThreshold {
			logger.Info("Continuing as new", "boutCount", state.BoutCount)
			return workflow.NewContinueAsNewError(ctx, ImportWorkflow, recordingID)
		}
	}
}

// AnalysisWorkflow loads a recording's hypnogram, runs the requested
// operations against it, and persists the result.
func AnalysisWorkflow(ctx workflow.Context, request AnalysisRequest) (*AnalysisResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting analysis workflow", "recordingID", request.RecordingID, "operations", len(request.Operations))

	if request.RunID == "" {
		runID, err := assignRunID(ctx)
		if err != nil {
			return nil, err
		}
		request.RunID = runID
	}

	ao := workflow.ActivityOptions{
		ScheduleToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var bouts []hypnogram.ClockBout
	err := workflow.ExecuteActivity(ctx, LoadHypnogramActivityName, request.RecordingID, request.TimeRange).Get(ctx, &bouts)
	if err != nil {
		return nil, fmt.Errorf("failed to load hypnogram: %w", err)
	}

	var result *AnalysisResult
	err = workflow.ExecuteActivity(ctx, RunAnalysisActivityName, request, bouts).Get(ctx, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to run analysis: %w", err)
	}

	err = workflow.ExecuteActivity(ctx, SaveResultActivityName, result).Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	logger.Info("Analysis completed", "runID", result.RunID, "results", len(result.Results))
	return result, nil
}

// BatchAnalysisWorkflow fans the same analysis out across recordings, one
// child workflow per recording. A failed recording is recorded and does not
// stop the rest of the batch.
func BatchAnalysisWorkflow(ctx workflow.Context, request BatchAnalysisRequest) (*BatchAnalysisResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting batch analysis workflow", "recordings", len(request.RecordingIDs))

	runID, err := assignRunID(ctx)
	if err != nil {
		return nil, err
	}

	batch := &BatchAnalysisResult{
		RunID:    runID,
		Results:  make(map[string]*AnalysisResult),
		Failures: make(map[string]string),
	}
	if len(request.RecordingIDs) == 0 {
		return batch, nil
	}

	// Run each recording in parallel as a child workflow.
	var futures []workflow.ChildWorkflowFuture
	var recordingIDs []string

	for _, recordingID := range request.RecordingIDs {
		childOptions := workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("%s%s-%d", AnalysisWorkflowIDPrefix, recordingID, workflow.Now(ctx).UnixNano()),
		}
		childCtx := workflow.WithChildOptions(ctx, childOptions)

		child := AnalysisRequest{
			RecordingID: recordingID,
			RunID:       fmt.Sprintf("%s-%s", runID, recordingID),
			Operations:  request.Operations,
			TimeRange:   request.TimeRange,
			Reference:   request.Reference,
		}
		futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, AnalysisWorkflow, child))
		recordingIDs = append(recordingIDs, recordingID)
	}

	for i, future := range futures {
		var result *AnalysisResult
		if err := future.Get(ctx, &result); err != nil {
			logger.Error("Child analysis failed", "recordingID", recordingIDs[i], "error", err)
			batch.Failures[recordingIDs[i]] = err.Error()
			continue
		}
		batch.Results[result.RecordingID] = result
	}

	logger.Info("Batch analysis completed", "succeeded", len(batch.Results), "failed", len(batch.Failures))
	return batch, nil
}

// assignRunID draws a fresh UUID through a side effect so the ID survives
// replay.
func assignRunID(ctx workflow.Context) (string, error) {
	var runID string
	err := workflow.SideEffect(ctx, func(ctx workflow.Context) interface{} {
		return uuid.NewString()
	}).Get(&runID)
	if err != nil {
		return "", fmt.Errorf("failed to assign run ID: %w", err)
	}
	return runID, nil
}

// Utility functions for workflow IDs

// GenerateImportWorkflowID creates a workflow ID for bout import. One import
// workflow exists per recording, so the ID carries no nonce.
func GenerateImportWorkflowID(recordingID string) string {
	return ImportWorkflowIDPrefix + recordingID
}

// GenerateAnalysisWorkflowID creates a workflow ID for a single analysis run.
func GenerateAnalysisWorkflowID(recordingID string) string {
	return fmt.Sprintf("%s%s-%d", AnalysisWorkflowIDPrefix, recordingID, time.Now().UnixNano())
}

// GenerateBatchWorkflowID creates a workflow ID for a batch analysis run.
func GenerateBatchWorkflowID() string {
	return fmt.Sprintf("%s%d", BatchWorkflowIDPrefix, time.Now().UnixNano())
}
