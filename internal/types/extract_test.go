package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFloat(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   float64
		wantOK bool
	}{
		{"float", 85.0, 85, true},
		{"int", 85, 85, true},
		{"json number", json.Number("72.5"), 72.5, true},
		{"percent string", "85%", 85, true},
		{"plain string", " 90 ", 90, true},
		{"suffix text", "0.85 (high)", 0.85, true},
		{"trailing dot", "70.", 70, true},
		{"negative", "-5", -5, true},
		{"word", "high", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFloat(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractStringSlice(t *testing.T) {
	assert.Equal(t, []string{"wet soil", "3"}, ExtractStringSlice([]interface{}{"wet soil", " ", 3.0}))
	assert.Equal(t, []string{"single"}, ExtractStringSlice("single"))
	assert.Nil(t, ExtractStringSlice(42.0))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-3))
	assert.Equal(t, 100.0, ClampPercent(140))
	assert.Equal(t, 55.5, ClampPercent(55.5))
	assert.Equal(t, 0.0, ClampPercent(math.NaN()))
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, ParseSeverity(" HIGH "))
	assert.Equal(t, SeverityMedium, ParseSeverity("moderate"))
	assert.Equal(t, SeverityNone, ParseSeverity("None"))
	assert.Equal(t, SeverityUnknown, ParseSeverity("Low/Medium/High"))
}

func TestParseDiagnosisKind(t *testing.T) {
	k, err := ParseDiagnosisKind("Weed")
	assert.NoError(t, err)
	assert.Equal(t, KindWeed, k)

	_, err = ParseDiagnosisKind("fungus-ish")
	assert.ErrorIs(t, err, ErrInput)
}

func TestClassificationError(t *testing.T) {
	last := errors.New("HTTP 503")
	err := fmt.Errorf("classify: %w", &ClassificationError{Attempts: []ModelAttempt{
		{Model: "a", Err: errors.New("timeout")},
		{Model: "b", Err: last},
	}})

	assert.ErrorIs(t, err, ErrClassificationUnavailable)
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "tried a, b")

	var ce *ClassificationError
	if assert.ErrorAs(t, err, &ce) {
		assert.Len(t, ce.Attempts, 2)
	}
}

func TestMalformedResponseError(t *testing.T) {
	err := fmt.Errorf("extract: %w", &MalformedResponseError{Reason: "no JSON object found"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.NotErrorIs(t, err, ErrClassificationUnavailable)
}

func TestNewImageRequestCopiesBytes(t *testing.T) {
	img := []byte{1, 2, 3}
	req := NewImageRequest(KindPest, img, "image/png", RequestContext{})
	img[0] = 9
	assert.Equal(t, byte(1), req.Image[0])
	assert.Equal(t, PayloadImage, req.PayloadKind)
}
