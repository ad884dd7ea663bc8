package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkMocks "go.temporal.io/sdk/mocks"

	"github.com/CSC-UW/hypnogram/pkg/hcl"
	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

// mockAnalysisRun builds a WorkflowRun whose Get hands back the given result.
func mockAnalysisRun(result *temporal.AnalysisResult) *sdkMocks.WorkflowRun {
	mockWorkflowRun := new(sdkMocks.WorkflowRun)
	mockWorkflowRun.On("Get", mock.Anything, mock.AnythingOfType("**temporal.AnalysisResult")).
		Run(func(args mock.Arguments) {
			out := args[1].(**temporal.AnalysisResult)
			*out = result
		}).
		Return(nil)
	return mockWorkflowRun
}

func TestServer_handleAnalyze_HCL(t *testing.T) {
	mockClient := new(sdkMocks.Client)
	logger := testLogger()
	server := NewServer(logger, mockClient, ":8080")

	analysisResult := &temporal.AnalysisResult{
		RunID:       "run-hcl",
		RecordingID: "CNPIX12-Santiago",
		Results: map[string]temporal.OperationResult{
			"overview": {Kind: "summary", Summary: &temporal.Summary{Bouts: 4}},
		},
	}
	mockWorkflowRun := mockAnalysisRun(analysisResult)

	mockClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.AnalysisRequest) (*temporal.AnalysisResult, error)"),
		mock.MatchedBy(func(req temporal.AnalysisRequest) bool {
			// The path segment overrides whatever recording the spec names.
			return req.RecordingID == "CNPIX12-Santiago" &&
				req.RunID != "" &&
				len(req.Operations) == 2 &&
				req.Operations[0].ID == "sleep" &&
				req.Operations[0].Op == "keep_states" &&
				len(req.Operations[0].States) == 2 &&
				req.Operations[1].ID == "overview" &&
				req.Operations[1].Op == "summary" &&
				req.Operations[1].Source == "sleep"
		}),
	).Return(mockWorkflowRun, nil)

	hclBody := `
	recording_id = "some-other-recording"

	operation "sleep" {
		op     = "keep_states"
		states = ["NREM", "REM"]
	}

	operation "overview" {
		op     = "summary"
		source = "sleep"
	}
	`

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze", bytes.NewBufferString(hclBody))
	req.Header.Set("Content-Type", hcl.ContentTypeHCL)
	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/analyze", server.handleAnalyze)
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response temporal.AnalysisResult
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "run-hcl", response.RunID)
	assert.Equal(t, "CNPIX12-Santiago", response.RecordingID)
	require.Contains(t, response.Results, "overview")
	assert.Equal(t, 4, response.Results["overview"].Summary.Bouts)

	mockClient.AssertExpectations(t)
	mockWorkflowRun.AssertExpectations(t)
}

func TestServer_handleAnalyze_ExplicitJSON(t *testing.T) {
	mockClient := new(sdkMocks.Client)
	logger := testLogger()
	server := NewServer(logger, mockClient, ":8080")

	analysisResult := &temporal.AnalysisResult{
		RunID:       "run-json",
		RecordingID: "CNPIX12-Santiago",
	}
	mockWorkflowRun := mockAnalysisRun(analysisResult)

	mockClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.AnalysisRequest) (*temporal.AnalysisResult, error)"),
		mock.MatchedBy(func(req temporal.AnalysisRequest) bool {
			return req.RecordingID == "CNPIX12-Santiago" &&
				req.RunID == "caller-chose-this" &&
				len(req.Operations) == 1 &&
				req.Operations[0].Op == "gaps"
		}),
	).Return(mockWorkflowRun, nil)

	jsonBody := `{
		"run_id": "caller-chose-this",
		"operations": [
			{
				"id": "holes",
				"op": "gaps"
			}
		]
	}`

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze", bytes.NewBufferString(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/analyze", server.handleAnalyze)
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	mockClient.AssertExpectations(t)
	mockWorkflowRun.AssertExpectations(t)
}

// No Content-Type header: the body shape decides. JSON opens with a brace.
func TestServer_ContentTypeDetection_JSON(t *testing.T) {
	mockClient := new(sdkMocks.Client)
	logger := testLogger()
	server := NewServer(logger, mockClient, ":8080")

	mockWorkflowRun := mockAnalysisRun(&temporal.AnalysisResult{RunID: "run-sniffed"})

	mockClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.AnalysisRequest) (*temporal.AnalysisResult, error)"),
		mock.Anything,
	).Return(mockWorkflowRun, nil)

	jsonBody := `{"operations": [{"id": "overview", "op": "summary"}]}`

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze", bytes.NewBufferString(jsonBody))
	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/analyze", server.handleAnalyze)
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	mockClient.AssertExpectations(t)
	mockWorkflowRun.AssertExpectations(t)
}

func TestServer_ContentTypeDetection_HCL(t *testing.T) {
	mockClient := new(sdkMocks.Client)
	logger := testLogger()
	server := NewServer(logger, mockClient, ":8080")

	mockWorkflowRun := mockAnalysisRun(&temporal.AnalysisResult{RunID: "run-sniffed"})

	mockClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.AnalysisRequest) (*temporal.AnalysisResult, error)"),
		mock.Anything,
	).Return(mockWorkflowRun, nil)

	hclBody := `
	recording_id = "CNPIX12-Santiago"

	operation "overview" {
		op = "summary"
	}
	`

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze", bytes.NewBufferString(hclBody))
	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/analyze", server.handleAnalyze)
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	mockClient.AssertExpectations(t)
	mockWorkflowRun.AssertExpectations(t)
}

func TestServer_handleAnalyze_InvalidHCL(t *testing.T) {
	mockClient := new(sdkMocks.Client)
	logger := testLogger()
	server := NewServer(logger, mockClient, ":8080")

	invalidHCL := `
	recording_id = "CNPIX12-Santiago"
	operation "overview" {
		op = "summary"
	`

	req := httptest.NewRequest("POST", "/recordings/CNPIX12-Santiago/analyze", bytes.NewBufferString(invalidHCL))
	req.Header.Set("Content-Type", hcl.ContentTypeHCL)
	rr := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /recordings/{id}/analyze", server.handleAnalyze)
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid HCL spec")
}

// Helper function for consistent logger creation in tests
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
