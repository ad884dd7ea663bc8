package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/client"
	sdkMocks "go.temporal.io/sdk/mocks"

	"github.com/CSC-UW/hypnogram/pkg/hypnogram"
	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

func TestServer_handleIngestBouts_ValidJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	intervals := []hypnogram.ClockInterval{
		{
			State: "Wake",
			Start: time.Date(2026, 7, 1, 21, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 7, 1, 21, 10, 0, 0, time.UTC),
		},
		{
			State: "NREM",
			Start: time.Date(2026, 7, 1, 21, 10, 0, 0, time.UTC),
			End:   time.Date(2026, 7, 1, 21, 40, 0, 0, time.UTC),
		},
	}

	body, _ := json.Marshal(intervals)
	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/bouts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	expectedSignal := temporal.BoutsSignal{Bouts: intervals}
	expectedWorkflowID := temporal.GenerateImportWorkflowID("CNPIX12-Santiago")
	expectedOptions := client.StartWorkflowOptions{
		ID:        expectedWorkflowID,
		TaskQueue: temporal.TaskQueue,
	}

	mockClient.On("SignalWithStartWorkflow",
		mock.Anything, // Context argument
		expectedWorkflowID,
		temporal.BoutsSignalName,
		expectedSignal,
		expectedOptions,
		mock.AnythingOfType("func(internal.Context, string) error"),
		"CNPIX12-Santiago",
	).Return(nil, nil).Once()

	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/bouts", server.handleIngestBouts)
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("Expected status %d, got %d. Response body: %s",
			http.StatusAccepted, rr.Code, rr.Body.String())
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	assert.Equal(t, "accepted", response["status"])
	assert.Equal(t, "CNPIX12-Santiago", response["recording_id"])
	assert.Equal(t, float64(2), response["bouts"])

	mockClient.AssertExpectations(t)
}

func TestServer_handleIngestBouts_TemporalError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	intervals := []hypnogram.ClockInterval{
		{
			State: "NREM",
			Start: time.Date(2026, 7, 1, 21, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 7, 1, 21, 30, 0, 0, time.UTC),
		},
	}

	body, _ := json.Marshal(intervals)
	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/bouts", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	mockClient.On("SignalWithStartWorkflow",
		mock.Anything,
		mock.Anything,
		mock.Anything,
		mock.Anything,
		mock.Anything,
		mock.Anything,
		mock.Anything,
	).Return(nil, errors.New("mock temporal error")).Once()

	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/bouts", server.handleIngestBouts)
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d after mocked Temporal error, got %d. Response body: %s",
			http.StatusInternalServerError, rr.Code, rr.Body.String())
	}

	mockClient.AssertExpectations(t)
}

func TestServer_handleIngestBouts_InvalidJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/bouts", strings.NewReader("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "CNPIX12-Santiago")

	rr := httptest.NewRecorder()
	server.handleIngestBouts(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handleIngestBouts_EmptyBatch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/bouts", strings.NewReader("[]"))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "CNPIX12-Santiago")

	rr := httptest.NewRecorder()
	server.handleIngestBouts(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handleAnalyze_NoOperations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze",
		strings.NewReader(`{"operations": []}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "CNPIX12-Santiago")

	rr := httptest.NewRecorder()
	server.handleAnalyze(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handleAnalyze_WorkflowFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	request := temporal.AnalysisRequest{
		Operations: []temporal.Operation{
			{ID: "sleep", Op: "keep_states", States: []string{"NREM", "REM"}},
		},
	}

	body, _ := json.Marshal(request)
	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.AnalysisRequest) (*temporal.AnalysisResult, error)"),
		mock.AnythingOfType("temporal.AnalysisRequest"),
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/analyze", server.handleAnalyze)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t)
}

func TestServer_handleBatchAnalyze(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	batchResult := &temporal.BatchAnalysisResult{
		RunID: "batch-run",
		Results: map[string]*temporal.AnalysisResult{
			"CNPIX12-Santiago":  {RunID: "batch-run-CNPIX12-Santiago", RecordingID: "CNPIX12-Santiago"},
			"CNPIX13-Valentino": {RunID: "batch-run-CNPIX13-Valentino", RecordingID: "CNPIX13-Valentino"},
		},
	}

	mockWorkflowRun := new(sdkMocks.WorkflowRun)
	mockWorkflowRun.On("Get", mock.Anything, mock.AnythingOfType("**temporal.BatchAnalysisResult")).
		Run(func(args mock.Arguments) {
			result := args[1].(**temporal.BatchAnalysisResult)
			*result = batchResult
		}).
		Return(nil)

	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.BatchAnalysisRequest) (*temporal.BatchAnalysisResult, error)"),
		mock.MatchedBy(func(req temporal.BatchAnalysisRequest) bool {
			return len(req.RecordingIDs) == 2 &&
				req.RecordingIDs[0] == "CNPIX12-Santiago" &&
				len(req.Operations) == 1
		}),
	).Return(mockWorkflowRun, nil).Once()

	request := temporal.BatchAnalysisRequest{
		RecordingIDs: []string{"CNPIX12-Santiago", "CNPIX13-Valentino"},
		Operations: []temporal.Operation{
			{ID: "overview", Op: "summary"},
		},
	}

	body, _ := json.Marshal(request)
	req := httptest.NewRequest("POST", "/analyze/batch", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.handleBatchAnalyze(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response temporal.BatchAnalysisResult
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	assert.Equal(t, "batch-run", response.RunID)
	assert.Len(t, response.Results, 2)

	mockClient.AssertExpectations(t)
	mockWorkflowRun.AssertExpectations(t)
}

func TestServer_handleBatchAnalyze_NoRecordings(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("POST", "/analyze/batch",
		strings.NewReader(`{"recording_ids": [], "operations": [{"id": "overview", "op": "summary"}]}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.handleBatchAnalyze(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handleHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response map[string]string
	err := json.NewDecoder(rr.Body).Decode(&response)
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", response["status"])
	}

	if response["time"] == "" {
		t.Error("Expected time field to be populated")
	}
}

func TestServer_loggingMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	server := NewServer(logger, mockClient, ":8080")

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	wrapped := server.loggingMiddleware(testHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	if rr.Body.String() != "test response" {
		t.Errorf("Expected 'test response', got %s", rr.Body.String())
	}
}

func TestResponseWrapper(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapper := &responseWrapper{ResponseWriter: rr, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusNotFound)

	if wrapper.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, wrapper.statusCode)
	}

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected response code %d, got %d", http.StatusNotFound, rr.Code)
	}
}
