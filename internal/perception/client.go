package perception

import (
	"context"

	"cropdoc/internal/types"
)

// Backend is one way of reaching the remote classifier. A backend call is a
// single attempt against a single model; fallback lives in Classifier.
type Backend interface {
	// Name identifies the backend in logs ("gemini-rest", "genai").
	Name() string
	// Validate reports a configuration problem (missing key) without network I/O.
	Validate() error
	// Generate sends req to model and returns the raw text answer.
	Generate(ctx context.Context, model string, req GenerateRequest) (string, error)
}

// GenerateRequest is the opaque classifier invocation: instruction text plus
// an optional observation or inline media part.
type GenerateRequest struct {
	Instruction string
	Observation string
	Media       *InlineMedia
}

// InlineMedia is base64 data with its mime type.
type InlineMedia struct {
	MimeType string
	Data     string
}

// requestFromPayload combines an instruction with a normalized payload.
func requestFromPayload(p NormalizedPayload, instruction string) GenerateRequest {
	req := GenerateRequest{Instruction: instruction}
	switch p.Kind {
	case types.PayloadImage:
		req.Media = &InlineMedia{MimeType: p.MimeType, Data: p.Data}
	case types.PayloadText:
		req.Observation = p.Text
	}
	return req
}
