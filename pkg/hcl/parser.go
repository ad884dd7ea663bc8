// Package hcl parses analysis specs written in HCL into the request types
// the workflows consume, and detects HCL versus JSON payloads for HTTP.
package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

// analysisDoc mirrors the HCL layout of an analysis spec. The block label is
// the operation ID.
type analysisDoc struct {
	RecordingID string           `hcl:"recording_id"`
	Reference   *string          `hcl:"reference,optional"`
	Operations  []operationBlock `hcl:"operation,block"`
	TimeRange   *timeRangeBlock  `hcl:"time_range,block"`
}

type operationBlock struct {
	Label       string    `hcl:"label,label"`
	Op          string    `hcl:"op"`
	Source      *string   `hcl:"source,optional"`
	States      []string  `hcl:"states,optional"`
	Frac        *float64  `hcl:"frac,optional"`
	MinimumTime *string   `hcl:"minimum_time,optional"`
	Tolerance   *string   `hcl:"tolerance,optional"`
	FillState   *string   `hcl:"fill_state,optional"`
	Budget      *string   `hcl:"budget,optional"`
	Start       *string   `hcl:"start,optional"`
	End         *string   `hcl:"end,optional"`
	Times       []float64 `hcl:"times,optional"`
}

type timeRangeBlock struct {
	Start string `hcl:"start"`
	End   string `hcl:"end"`
}

// ParseAnalysisSpec parses HCL content into a temporal.AnalysisRequest.
func ParseAnalysisSpec(content []byte) (*temporal.AnalysisRequest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, "analysis.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return parseAnalysisFromFile(file)
}

// parseAnalysisFromFile decodes an analysis spec from an already parsed file.
func parseAnalysisFromFile(file *hcl.File) (*temporal.AnalysisRequest, error) {
	evalCtx := analysisEvalContext()

	var doc analysisDoc
	diags := gohcl.DecodeBody(file.Body, evalCtx, &doc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}

	return convertAnalysisDoc(&doc)
}

// analysisEvalContext provides the functions usable in analysis specs.
// timestamp and duration validate eagerly so a typo fails at parse time, not
// in the middle of a workflow.
func analysisEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"timestamp": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "value", Type: cty.String},
				},
				Type: function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					s := args[0].AsString()
					if _, err := time.Parse(time.RFC3339, s); err != nil {
						return cty.NilVal, fmt.Errorf("not an RFC 3339 timestamp: %q", s)
					}
					return args[0], nil
				},
			}),
			"duration": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "value", Type: cty.String},
				},
				Type: function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					s := args[0].AsString()
					if _, err := time.ParseDuration(s); err != nil {
						return cty.NilVal, fmt.Errorf("not a duration: %q", s)
					}
					return args[0], nil
				},
			}),
		},
	}
}

// convertAnalysisDoc converts the decoded HCL document into the request type
// the workflows consume.
func convertAnalysisDoc(doc *analysisDoc) (*temporal.AnalysisRequest, error) {
	request := &temporal.AnalysisRequest{
		RecordingID: doc.RecordingID,
		Operations:  make([]temporal.Operation, 0, len(doc.Operations)),
	}

	if doc.Reference != nil {
		reference, err := time.Parse(time.RFC3339, *doc.Reference)
		if err != nil {
			return nil, fmt.Errorf("failed to parse reference: %w", err)
		}
		request.Reference = reference
	}

	for _, block := range doc.Operations {
		op := temporal.Operation{
			ID:          block.Label,
			Op:          block.Op,
			Source:      deref(block.Source),
			States:      block.States,
			Frac:        block.Frac,
			MinimumTime: deref(block.MinimumTime),
			Tolerance:   deref(block.Tolerance),
			FillState:   deref(block.FillState),
			Budget:      deref(block.Budget),
			Start:       deref(block.Start),
			End:         deref(block.End),
			Times:       block.Times,
		}
		request.Operations = append(request.Operations, op)
	}

	if doc.TimeRange != nil {
		start, err := time.Parse(time.RFC3339, doc.TimeRange.Start)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start time: %w", err)
		}
		end, err := time.Parse(time.RFC3339, doc.TimeRange.End)
		if err != nil {
			return nil, fmt.Errorf("failed to parse end time: %w", err)
		}
		request.TimeRange = &temporal.TimeRange{Start: start, End: end}
	}

	return request, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsHCL reports whether the content parses as HCL.
func IsHCL(content []byte) bool {
	_, diags := hclsyntax.ParseConfig(content, "", hcl.Pos{Line: 1, Column: 1})
	return !diags.HasErrors()
}
