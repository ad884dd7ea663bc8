// Package http exposes the recording intake and analysis API. Handlers are
// thin: they validate and decode, then hand off to Temporal workflows.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/CSC-UW/hypnogram/pkg/hcl"
	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

// Server handles HTTP requests for bout ingestion and analysis runs.
type Server struct {
	logger         *slog.Logger
	temporalClient client.Client
	addr           string
}

// NewServer creates a new HTTP server.
func NewServer(logger *slog.Logger, temporalClient client.Client, addr string) *Server {
	return &Server{
		logger:         logger,
		temporalClient: temporalClient,
		addr:           addr,
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /recordings/{id}/bouts", s.handleIngestBouts)
	mux.HandleFunc("POST /recordings/{id}/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyze/batch", s.handleBatchAnalyze)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.loggingMiddleware(mux)

	server := &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", s.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// handleIngestBouts accepts a batch of scored bouts for a recording and
// signals the recording's import workflow, starting it if needed. Intake is
// asynchronous: a 202 means the batch was handed to Temporal, not that it
// passed validation.
func (s *Server) handleIngestBouts(w http.ResponseWriter, r *http.Request) {
	recordingID := r.PathValue("id")
	if recordingID == "" {
		s.respondError(w, http.StatusBadRequest, "recording ID is required")
		return
	}

	var intervals []hypnogram.ClockInterval
	if err := json.NewDecoder(r.Body).Decode(&intervals); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(intervals) == 0 {
		s.respondError(w, http.StatusBadRequest, "no bouts provided")
		return
	}

	signal := temporal.BoutsSignal{Bouts: intervals}
	workflowID := temporal.GenerateImportWorkflowID(recordingID)

	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: temporal.TaskQueue,
	}

	_, err := s.temporalClient.SignalWithStartWorkflow(
		r.Context(),
		workflowID,
		temporal.BoutsSignalName,
		signal,
		options,
		temporal.ImportWorkflow,
		recordingID,
	)
	if err != nil {
		s.logger.Error("Failed to signal import workflow", "error", err, "recording_id", recordingID)
		s.respondError(w, http.StatusInternalServerError, "failed to ingest bouts")
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":       "accepted",
		"recording_id": recordingID,
		"bouts":        len(intervals),
	})
}

// handleAnalyze runs an analysis over one recording and waits for the result.
// The body is either a JSON AnalysisRequest or an HCL spec; the recording ID
// always comes from the path, overriding whatever the body carries.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	recordingID := r.PathValue("id")
	if recordingID == "" {
		s.respondError(w, http.StatusBadRequest, "recording ID is required")
		return
	}

	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var request temporal.AnalysisRequest
	switch contentType {
	case hcl.ContentTypeHCL:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		parsed, err := hcl.ParseAnalysisSpec(body)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid HCL spec: %v", err))
			return
		}
		request = *parsed
	default:
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	request.RecordingID = recordingID
	if len(request.Operations) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one operation is required")
		return
	}
	if request.RunID == "" {
		request.RunID = uuid.NewString()
	}

	options := client.StartWorkflowOptions{
		ID:        temporal.GenerateAnalysisWorkflowID(recordingID),
		TaskQueue: temporal.TaskQueue,
	}

	workflowRun, err := s.temporalClient.ExecuteWorkflow(r.Context(), options, temporal.AnalysisWorkflow, request)
	if err != nil {
		s.logger.Error("Failed to start analysis workflow", "error", err, "recording_id", recordingID)
		s.respondError(w, http.StatusInternalServerError, "failed to run analysis")
		return
	}

	var result *temporal.AnalysisResult
	if err := workflowRun.Get(r.Context(), &result); err != nil {
		s.logger.Error("Analysis workflow failed", "error", err, "recording_id", recordingID, "run_id", request.RunID)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleBatchAnalyze fans the same operations out over several recordings.
// Per-recording failures come back in the result's Failures map rather than
// failing the whole batch, so the response is 200 even when some recordings
// could not be analyzed.
func (s *Server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	var request temporal.BatchAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(request.RecordingIDs) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one recording ID is required")
		return
	}
	if len(request.Operations) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one operation is required")
		return
	}

	options := client.StartWorkflowOptions{
		ID:        temporal.GenerateBatchWorkflowID(),
		TaskQueue: temporal.TaskQueue,
	}

	workflowRun, err := s.temporalClient.ExecuteWorkflow(r.Context(), options, temporal.BatchAnalysisWorkflow, request)
	if err != nil {
		s.logger.Error("Failed to start batch analysis workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to run batch analysis")
		return
	}

	var result *temporal.BatchAnalysisResult
	if err := workflowRun.Get(r.Context(), &result); err != nil {
		s.logger.Error("Batch analysis workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("batch analysis failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError sends an error response.
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.logger.Warn("HTTP error response", "status", statusCode, "message", message)
	s.respondJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// responseWrapper captures the response status code for logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
