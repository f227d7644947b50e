package perception

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropdoc/internal/config"
	"cropdoc/internal/types"
	"cropdoc/internal/usage"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	cfg := DefaultGeminiConfig("test-key")
	cfg.BaseURL = srv.URL
	b := NewGeminiBackend(cfg)
	t.Cleanup(func() {
		b.httpClient.CloseIdleConnections()
		srv.Close()
	})
	return b
}

func TestGeminiBackend_Generate(t *testing.T) {
	var got GeminiRequest
	b := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.Query().Get("key"), "key must not appear in the URL")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"name\":"},{"text":"\"Pigweed\"}"}],"role":"model"},"finishReason":"STOP"}]}`)
	})

	raw, err := b.Generate(context.Background(), "gemini-2.5-flash", GenerateRequest{
		Instruction: "identify",
		Media:       &InlineMedia{MimeType: "image/png", Data: "QUJD"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Pigweed"}`, raw)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "identify", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, "QUJD", got.Contents[0].Parts[1].InlineData.Data)
}

func TestGeminiBackend_RecordsUsage(t *testing.T) {
	b := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}],"usageMetadata":{"promptTokenCount":120,"candidatesTokenCount":30,"totalTokenCount":150}}`)
	})
	tracker, err := usage.NewTracker(t.TempDir() + "/" + usage.FileName)
	require.NoError(t, err)

	ctx := usage.WithKind(usage.NewContext(context.Background(), tracker), "pest")
	_, err = b.Generate(ctx, "gemini-2.5-flash", GenerateRequest{Instruction: "i", Observation: "o"})
	require.NoError(t, err)

	stats := tracker.Stats()
	assert.Equal(t, usage.TokenCounts{Calls: 1, Input: 120, Output: 30, Total: 150}, stats.ByModel["gemini-2.5-flash"])
	assert.Equal(t, int64(1), stats.ByKind["pest"].Calls)
	assert.Equal(t, int64(150), stats.ByBackend["gemini-rest"].Total)
}

func TestGeminiBackend_ObservationPart(t *testing.T) {
	var got GeminiRequest
	b := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	})
	_, err := b.Generate(context.Background(), "m", GenerateRequest{Instruction: "i", Observation: "holes in leaves"})
	require.NoError(t, err)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "Observation:\nholes in leaves", got.Contents[0].Parts[1].Text)
	assert.Nil(t, got.Contents[0].Parts[1].InlineData)
}

func TestGeminiBackend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"http error with envelope", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`, "quota exhausted"},
		{"http error raw body", http.StatusBadGateway, `upstream down`, "status 502"},
		{"blocked prompt", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked: SAFETY"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "no completion"},
		{"blank text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"MAX_TOKENS"}]}`, "MAX_TOKENS"},
		{"bad json", http.StatusOK, `not json`, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := b.Generate(context.Background(), "m", GenerateRequest{Instruction: "i"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
			assert.NotContains(t, err.Error(), "test-key")
		})
	}
}

func TestGeminiBackend_APIErrorType(t *testing.T) {
	b := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, strings.Repeat("x", 2000))
	})
	_, err := b.Generate(context.Background(), "m", GenerateRequest{Instruction: "i"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.LessOrEqual(t, len(apiErr.Message), maxErrorBody+3)
}

func TestGeminiBackend_MissingKey(t *testing.T) {
	b := NewGeminiBackend(DefaultGeminiConfig(""))
	assert.ErrorIs(t, b.Validate(), types.ErrConfiguration)
	_, err := b.Generate(context.Background(), "m", GenerateRequest{Instruction: "i"})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestNewBackendFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().LLM
	cfg.APIKey = "k"

	b, err := NewBackendFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "gemini-rest", b.Name())

	cfg.Backend = "genai"
	b, err = NewBackendFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "genai", b.Name())
	assert.NoError(t, b.Validate())

	cfg.APIKey = ""
	b, err = NewBackendFromConfig(cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Validate(), types.ErrConfiguration)

	cfg.Backend = "carrier-pigeon"
	_, err = NewBackendFromConfig(cfg)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
