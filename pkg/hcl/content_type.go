package hcl

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const (
	// ContentTypeHCL is the MIME type for HCL analysis specs.
	ContentTypeHCL = "application/vnd.hcl"

	// ContentTypeJSON is the standard MIME type for JSON.
	ContentTypeJSON = "application/json"
)

// DetectContentType decides whether a request body is JSON or HCL, preferring
// the Content-Type header and falling back to sniffing the body. The body is
// restored so the handler can read it again.
func DetectContentType(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mediaType {
			case ContentTypeHCL:
				return ContentTypeHCL, nil
			case ContentTypeJSON:
				return ContentTypeJSON, nil
			}
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		// JSON opens with { or [; HCL never does.
		if trimmed[0] == '{' || trimmed[0] == '[' {
			return ContentTypeJSON, nil
		}
		if IsHCL(trimmed) {
			return ContentTypeHCL, nil
		}
	}

	return ContentTypeJSON, nil
}

// IsHCLBasedOnExtension reports whether the filename carries the HCL
// extension.
func IsHCLBasedOnExtension(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}
