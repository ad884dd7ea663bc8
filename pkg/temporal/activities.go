package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
)

// Activities interface defines all the activities used by workflows
type Activities interface {
	AppendBoutsActivity(ctx context.Context, recordingID string, bouts []hypnogram.ClockInterval) error
	LoadHypnogramActivity(ctx context.Context, recordingID string, timeRange *TimeRange) ([]hypnogram.ClockBout, error)
	RunAnalysisActivity(ctx context.Context, request AnalysisRequest, bouts []hypnogram.ClockBout) (*AnalysisResult, error)
	SaveResultActivity(ctx context.Context, result *AnalysisResult) error
}

// RecordingStore defines the persistence boundary for scored recordings and
// their analysis results.
type RecordingStore interface {
	AppendBouts(ctx context.Context, recordingID string, bouts []hypnogram.ClockBout) error
	LoadHypnogram(ctx context.Context, recordingID string, timeRange *TimeRange) (*hypnogram.ClockHypnogram, error)
	SaveResult(ctx context.Context, result *AnalysisResult) error
}

// ActivitiesImpl implements the Activities interface
type ActivitiesImpl struct {
	logger *slog.Logger
	store  RecordingStore
}

// NewActivitiesImpl creates a new activities implementation
func NewActivitiesImpl(logger *slog.Logger, store RecordingStore) *ActivitiesImpl {
	return &ActivitiesImpl{
		logger: logger,
		store:  store,
	}
}

// AppendBoutsActivity validates incoming bouts and persists them. Durations
// are computed from the endpoints, and a batch with an inverted interval is
// rejected whole.
func (a *ActivitiesImpl) AppendBoutsActivity(ctx context.Context, recordingID string, intervals []hypnogram.ClockInterval) error {
	a.logger.Info("Appending bouts", "recordingID", recordingID, "count", len(intervals))

	h, err := hypnogram.FromClockIntervals(intervals)
	if err != nil {
		a.logger.Error("Rejected bout batch", "recordingID", recordingID, "error", err)
		return fmt.Errorf("invalid bouts: %w", err)
	}

	if err := a.store.AppendBouts(ctx, recordingID, h.Bouts()); err != nil {
		a.logger.Error("Failed to append bouts", "error", err)
		return fmt.Errorf("failed to append bouts: %w", err)
	}

	a.logger.Info("Successfully appended bouts", "recordingID", recordingID, "count", h.Len())
	return nil
}

// LoadHypnogramActivity loads a recording's bouts from storage, optionally
// bounded to a time range.
func (a *ActivitiesImpl) LoadHypnogramActivity(ctx context.Context, recordingID string, timeRange *TimeRange) ([]hypnogram.ClockBout, error) {
	a.logger.Info("Loading hypnogram", "recordingID", recordingID, "timeRange", timeRange)

	h, err := a.store.LoadHypnogram(ctx, recordingID, timeRange)
	if err != nil {
		a.logger.Error("Failed to load hypnogram", "error", err)
		return nil, fmt.Errorf("failed to load hypnogram: %w", err)
	}

	a.logger.Info("Successfully loaded hypnogram", "recordingID", recordingID, "bouts", h.Len())
	return h.Bouts(), nil
}

// RunAnalysisActivity rebuilds the hypnogram from its bouts and executes the
// requested operations against it.
func (a *ActivitiesImpl) RunAnalysisActivity(ctx context.Context, request AnalysisRequest, bouts []hypnogram.ClockBout) (*AnalysisResult, error) {
	a.logger.Info("Running analysis", "recordingID", request.RecordingID, "runID", request.RunID,
		"boutCount", len(bouts), "operationCount", len(request.Operations))

	// Report progress via heartbeat
	info := activity.GetInfo(ctx)
	activity.RecordHeartbeat(ctx, map[string]interface{}{
		"recordingID": request.RecordingID,
		"boutCount":   len(bouts),
		"activityID":  info.ActivityID,
	})

	h, err := hypnogram.NewClock(bouts)
	if err != nil {
		a.logger.Error("Stored bouts failed validation", "error", err)
		return nil, fmt.Errorf("failed to rebuild hypnogram: %w", err)
	}

	processor := NewAnalysisProcessor(request.Reference)
	results, err := processor.Run(h, request.Operations)
	if err != nil {
		a.logger.Error("Failed to run analysis", "error", err)
		return nil, fmt.Errorf("failed to run analysis: %w", err)
	}

	result := &AnalysisResult{
		RunID:       request.RunID,
		RecordingID: request.RecordingID,
		Results:     results,
		Metadata: map[string]interface{}{
			"boutCount":      h.Len(),
			"operationCount": len(request.Operations),
			"processedAt":    time.Now().UTC(),
		},
	}

	a.logger.Info("Successfully ran analysis", "recordingID", request.RecordingID, "results", len(results))
	return result, nil
}

// SaveResultActivity persists an analysis result under its run ID.
func (a *ActivitiesImpl) SaveResultActivity(ctx context.Context, result *AnalysisResult) error {
	a.logger.Info("Saving analysis result", "runID", result.RunID, "recordingID", result.RecordingID)

	if err := a.store.SaveResult(ctx, result); err != nil {
		a.logger.Error("Failed to save result", "error", err)
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

// AnalysisProcessor executes analysis operations against a hypnogram.
type AnalysisProcessor struct {
	reference time.Time
}

// NewAnalysisProcessor creates a processor. Relative query times resolve
// against reference; a zero reference falls back to the hypnogram's own span
// start.
func NewAnalysisProcessor(reference time.Time) *AnalysisProcessor {
	return &AnalysisProcessor{reference: reference}
}

// Run executes operations in order against h. A filtering operation registers
// its output under its ID so later operations can chain from it through
// Source; the empty source is the loaded hypnogram itself.
func (p *AnalysisProcessor) Run(h *hypnogram.ClockHypnogram, operations []Operation) (map[string]OperationResult, error) {
	results := make(map[string]OperationResult, len(operations))
	intermediates := map[string]*hypnogram.ClockHypnogram{"": h}

	for _, op := range operations {
		if op.ID == "" {
			return nil, fmt.Errorf("operation %q is missing an ID", op.Op)
		}
		if _, dup := results[op.ID]; dup {
			return nil, fmt.Errorf("duplicate operation ID %q", op.ID)
		}
		source, ok := intermediates[op.Source]
		if !ok {
			return nil, fmt.Errorf("operation %q: source %q does not name a prior filtering operation", op.ID, op.Source)
		}
		result, derived, err := p.executeOperation(source, op)
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", op.ID, err)
		}
		results[op.ID] = result
		if derived != nil {
			intermediates[op.ID] = derived
		}
	}

	return results, nil
}

// executeOperation runs a single analysis operation against h. Operations
// that produce a filtered hypnogram also return it for downstream chaining.
func (p *AnalysisProcessor) executeOperation(h *hypnogram.ClockHypnogram, op Operation) (OperationResult, *hypnogram.ClockHypnogram, error) {
	switch op.Op {
	case OpKeepStates:
		if len(op.States) == 0 {
			return OperationResult{}, nil, fmt.Errorf("keep_states requires a 'states' parameter")
		}
		kept := h.KeepStates(op.States...)
		return boutsResult(kept), kept, nil

	case OpKeepLonger:
		minTime, err := requireDuration(op.MinimumTime, "minimum_time")
		if err != nil {
			return OperationResult{}, nil, err
		}
		kept := h.KeepLonger(minTime)
		return boutsResult(kept), kept, nil

	case OpKeepFirst:
		budget, err := requireDuration(op.Budget, "budget")
		if err != nil {
			return OperationResult{}, nil, err
		}
		kept := h.KeepFirst(budget)
		return boutsResult(kept), kept, nil

	case OpKeepLast:
		budget, err := requireDuration(op.Budget, "budget")
		if err != nil {
			return OperationResult{}, nil, err
		}
		kept := h.KeepLast(budget)
		return boutsResult(kept), kept, nil

	case OpKeepBetween:
		if op.Start == "" || op.End == "" {
			return OperationResult{}, nil, fmt.Errorf("keep_between requires 'start' and 'end' parameters")
		}
		start, err := hypnogram.ParseClockTime(op.Start)
		if err != nil {
			return OperationResult{}, nil, fmt.Errorf("invalid 'start': %w", err)
		}
		end, err := hypnogram.ParseClockTime(op.End)
		if err != nil {
			return OperationResult{}, nil, fmt.Errorf("invalid 'end': %w", err)
		}
		kept, err := h.KeepBetween(start, end)
		if err != nil {
			return OperationResult{}, nil, err
		}
		return boutsResult(kept), kept, nil

	case OpConsolidated:
		if len(op.States) == 0 {
			return OperationResult{}, nil, fmt.Errorf("consolidated requires a 'states' parameter")
		}
		frac := DefaultConsolidatedFrac
		if op.Frac != nil {
			frac = *op.Frac
		}
		minTime, err := optionalDuration(op.MinimumTime, "minimum_time")
		if err != nil {
			return OperationResult{}, nil, err
		}
		periods, err := h.Consolidated(op.States, frac, minTime)
		if err != nil {
			return OperationResult{}, nil, err
		}
		out := make([][]hypnogram.ClockBout, len(periods))
		for i, period := range periods {
			out[i] = period.Bouts()
		}
		return OperationResult{Kind: KindPeriods, Periods: out}, nil, nil

	case OpGaps:
		tolerance, err := optionalDuration(op.Tolerance, "tolerance")
		if err != nil {
			return OperationResult{}, nil, err
		}
		gaps, err := h.Gaps(tolerance)
		if err != nil {
			return OperationResult{}, nil, err
		}
		return OperationResult{Kind: KindGaps, Gaps: gaps}, nil, nil

	case OpFillGaps:
		tolerance, err := optionalDuration(op.Tolerance, "tolerance")
		if err != nil {
			return OperationResult{}, nil, err
		}
		fill := op.FillState
		if fill == "" {
			fill = hypnogram.Unscored
		}
		filled, err := h.FillGaps(tolerance, fill)
		if err != nil {
			return OperationResult{}, nil, err
		}
		return boutsResult(filled), filled, nil

	case OpMask:
		if len(op.States) == 0 {
			return OperationResult{}, nil, fmt.Errorf("mask requires a 'states' parameter")
		}
		times, err := p.clockTimes(h, op.Times)
		if err != nil {
			return OperationResult{}, nil, err
		}
		return OperationResult{Kind: KindMask, Mask: h.MaskTimesByState(times, op.States...)}, nil, nil

	case OpStatesAt:
		times, err := p.clockTimes(h, op.Times)
		if err != nil {
			return OperationResult{}, nil, err
		}
		return OperationResult{Kind: KindLabels, Labels: h.StatesAt(times)}, nil, nil

	case OpCovers:
		times, err := p.clockTimes(h, op.Times)
		if err != nil {
			return OperationResult{}, nil, err
		}
		return OperationResult{Kind: KindCovers, Mask: h.CoversTime(times)}, nil, nil

	case OpSummary:
		return OperationResult{Kind: KindSummary, Summary: summarize(h)}, nil, nil

	default:
		return OperationResult{}, nil, fmt.Errorf("unknown operation: %s", op.Op)
	}
}

// clockTimes anchors relative seconds offsets on the wall clock.
func (p *AnalysisProcessor) clockTimes(h *hypnogram.ClockHypnogram, offsets []float64) ([]time.Time, error) {
	ref := p.reference
	if ref.IsZero() {
		if h.Len() == 0 {
			return nil, fmt.Errorf("relative times require a 'reference' instant when the hypnogram is empty")
		}
		ref, _ = h.Span()
	}
	times := make([]time.Time, len(offsets))
	for i, s := range offsets {
		times[i] = ref.Add(time.Duration(math.Round(s * float64(time.Second))))
	}
	return times, nil
}

// summarize aggregates a hypnogram for reporting.
func summarize(h *hypnogram.ClockHypnogram) *Summary {
	start, end := h.Span()
	s := &Summary{
		Bouts:         h.Len(),
		States:        h.States(),
		Start:         start,
		End:           end,
		TotalDuration: h.TotalDuration(),
		SpanDuration:  end.Sub(start),
		TimeInState:   make(map[string]time.Duration),
	}
	for _, b := range h.Bouts() {
		s.TimeInState[b.State] += b.Duration
	}
	return s
}

func boutsResult(h *hypnogram.ClockHypnogram) OperationResult {
	return OperationResult{Kind: KindBouts, Bouts: h.Bouts()}
}

func requireDuration(value, name string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("missing required '%s' parameter", name)
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid '%s': %w", name, err)
	}
	return d, nil
}

func optionalDuration(value, name string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid '%s': %w", name, err)
	}
	return d, nil
}
