package hcl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

// MergeAnalysisFiles combines several HCL files into one parsed body, the way
// Terraform loads every .tf file in a directory. Operations usually live in
// their own files with the recording and time range in another.
func MergeAnalysisFiles(paths []string) (*hcl.File, error) {
	var merged bytes.Buffer
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		merged.Write(content)
		merged.WriteString("\n")
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(merged.Bytes(), "merged.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse merged HCL content: %s", diags.Error())
	}
	return file, nil
}

// ParseAnalysisDir merges every .hcl file under dirPath into a single
// analysis spec.
func ParseAnalysisDir(dirPath string) (*temporal.AnalysisRequest, error) {
	var paths []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".hcl") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no HCL files found in directory %s", dirPath)
	}

	file, err := MergeAnalysisFiles(paths)
	if err != nil {
		return nil, err
	}
	return parseAnalysisFromFile(file)
}
