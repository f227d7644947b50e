package types

import (
	"fmt"
	"strings"
)

// PayloadKind tells whether a request carries an image or a text observation.
type PayloadKind string

const (
	PayloadImage PayloadKind = "image"
	PayloadText  PayloadKind = "text"
)

// DiagnosisKind selects the instruction template.
type DiagnosisKind string

const (
	KindWeed    DiagnosisKind = "weed"
	KindPest    DiagnosisKind = "pest"
	KindDisease DiagnosisKind = "disease"
	KindSoil    DiagnosisKind = "soil"
)

// ParseDiagnosisKind accepts the CLI spellings of a kind.
func ParseDiagnosisKind(s string) (DiagnosisKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weed", "weeds":
		return KindWeed, nil
	case "pest", "pests", "insect":
		return KindPest, nil
	case "disease", "crop", "crop-disease":
		return KindDisease, nil
	case "soil", "soil-report":
		return KindSoil, nil
	}
	return "", fmt.Errorf("%w: unknown diagnosis kind %q (valid: weed, pest, disease, soil)", ErrInput, s)
}

// Coordinates is an optional location hint from the geolocation collaborator.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RequestContext carries optional hints rendered into the instruction template.
type RequestContext struct {
	Location *Coordinates `json:"location,omitempty"`
	CropHint string       `json:"crop_hint,omitempty"`
}

// DiagnosticRequest is one user submission. Build it with NewImageRequest or
// NewTextRequest and treat it as immutable afterwards.
type DiagnosticRequest struct {
	Kind        DiagnosisKind
	PayloadKind PayloadKind
	Image       []byte // raw bytes, or a data: URI when the collaborator hands one over
	Text        string
	MimeType    string
	Context     RequestContext
}

// NewImageRequest builds an image request. mimeType may be empty when image
// is a data URI or when sniffing is acceptable.
func NewImageRequest(kind DiagnosisKind, image []byte, mimeType string, ctx RequestContext) DiagnosticRequest {
	buf := make([]byte, len(image))
	copy(buf, image)
	return DiagnosticRequest{
		Kind:        kind,
		PayloadKind: PayloadImage,
		Image:       buf,
		MimeType:    mimeType,
		Context:     ctx,
	}
}

// NewTextRequest builds a free-text observation request.
func NewTextRequest(kind DiagnosisKind, text string, ctx RequestContext) DiagnosticRequest {
	return DiagnosticRequest{
		Kind:        kind,
		PayloadKind: PayloadText,
		Text:        text,
		Context:     ctx,
	}
}

// Severity of a diagnosed entity.
type Severity string

const (
	SeverityNone    Severity = "None"
	SeverityLow     Severity = "Low"
	SeverityMedium  Severity = "Medium"
	SeverityHigh    Severity = "High"
	SeverityUnknown Severity = "Unknown"
)

// ParseSeverity maps free text onto a Severity. Anything unrecognised is Unknown.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "no", "healthy":
		return SeverityNone
	case "low", "mild", "minor":
		return SeverityLow
	case "medium", "moderate":
		return SeverityMedium
	case "high", "severe", "critical":
		return SeverityHigh
	}
	return SeverityUnknown
}

// SeasonalPoint is one entry of a seasonal activity curve.
type SeasonalPoint struct {
	Label     string  `json:"label"`
	Intensity float64 `json:"intensity"`
}

// DiagnosticResult is the validated, sanitized classifier output.
// Only the result extractor and the pipeline's sentinel builders create one.
type DiagnosticResult struct {
	EntityName       string          `json:"entity_name"`
	Confidence       float64         `json:"confidence"`
	Severity         Severity        `json:"severity"`
	Description      string          `json:"description"`
	Treatment        string          `json:"treatment"`
	Prevention       string          `json:"prevention"`
	SeasonalActivity []SeasonalPoint `json:"seasonal_activity"`
	Causes           []string        `json:"causes"`
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
