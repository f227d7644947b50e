package perception

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropdoc/internal/usage"
)

func newTestGenAI(t *testing.T, suffix string, handler http.HandlerFunc) *GenAIBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	cfg := DefaultGeminiConfig("test-key")
	cfg.BaseURL = srv.URL + suffix
	b := NewGenAIBackend(cfg)
	require.NoError(t, b.Validate())
	t.Cleanup(func() {
		b.httpClient.CloseIdleConnections()
		srv.Close()
	})
	return b
}

func TestGenAIBackend_Generate(t *testing.T) {
	var body map[string]interface{}
	b := newTestGenAI(t, "/v1beta", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/m1:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"name\":\"Pigweed\"}"}],"role":"model"},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":40,"candidatesTokenCount":12,"totalTokenCount":52}}`)
	})
	tracker, err := usage.NewTracker(t.TempDir() + "/" + usage.FileName)
	require.NoError(t, err)
	ctx := usage.WithKind(usage.NewContext(context.Background(), tracker), "weed")

	text, err := b.Generate(ctx, "m1", GenerateRequest{
		Instruction: "identify",
		Media:       &InlineMedia{MimeType: "image/png", Data: "QUJD"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Pigweed"}`, text)

	contents, ok := body["contents"].([]interface{})
	require.True(t, ok, "request carries contents")
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]interface{})["parts"].([]interface{})
	require.Len(t, parts, 2)
	assert.Equal(t, "identify", parts[0].(map[string]interface{})["text"])
	inline, ok := parts[1].(map[string]interface{})["inlineData"].(map[string]interface{})
	require.True(t, ok, "second part is inline media")
	assert.Equal(t, "image/png", inline["mimeType"])
	assert.Equal(t, "QUJD", inline["data"])

	stats := tracker.Stats()
	assert.Equal(t, usage.TokenCounts{Calls: 1, Input: 40, Output: 12, Total: 52}, stats.ByModel["m1"])
	assert.Equal(t, int64(1), stats.ByBackend["genai"].Calls)
}

func TestGenAIBackend_EmptyCompletion(t *testing.T) {
	b := newTestGenAI(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  "}],"role":"model"}}]}`)
	})
	_, err := b.Generate(context.Background(), "m1", GenerateRequest{Instruction: "i"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}

func TestGenAIBackend_MissingKey(t *testing.T) {
	b := NewGenAIBackend(DefaultGeminiConfig(""))
	assert.Error(t, b.Validate())
	_, err := b.Generate(context.Background(), "m1", GenerateRequest{Instruction: "i"})
	assert.Error(t, err)
}

// Both backends must address the same endpoint for any spelling of the base URL.
func TestBackends_SharePathForBaseURL(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{"", "/v1beta/models/m1:generateContent"},
		{"/", "/v1beta/models/m1:generateContent"},
		{"/v1beta", "/v1beta/models/m1:generateContent"},
		{"/v1beta/", "/v1beta/models/m1:generateContent"},
		{"/v1", "/v1/models/m1:generateContent"},
	}
	for _, tt := range tests {
		t.Run("base"+tt.suffix, func(t *testing.T) {
			var (
				mu    sync.Mutex
				paths []string
			)
			handler := func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				paths = append(paths, r.URL.Path)
				mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}],"role":"model"}}]}`)
			}

			srv := httptest.NewServer(http.HandlerFunc(handler))
			defer srv.Close()
			cfg := DefaultGeminiConfig("test-key")
			cfg.BaseURL = srv.URL + tt.suffix

			rest := NewGeminiBackend(cfg)
			defer rest.httpClient.CloseIdleConnections()
			sdk := NewGenAIBackend(cfg)
			require.NoError(t, sdk.Validate())
			defer sdk.httpClient.CloseIdleConnections()

			_, err := rest.Generate(context.Background(), "m1", GenerateRequest{Instruction: "i"})
			require.NoError(t, err)
			_, err = sdk.Generate(context.Background(), "m1", GenerateRequest{Instruction: "i"})
			require.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []string{tt.want, tt.want}, paths)
		})
	}
}

func TestSplitAPIVersion(t *testing.T) {
	tests := []struct {
		in            string
		root, version string
	}{
		{"", "https://generativelanguage.googleapis.com", "v1beta"},
		{"https://example.test/v1beta/", "https://example.test", "v1beta"},
		{"https://example.test/v1", "https://example.test", "v1"},
		{"https://example.test/v1alpha", "https://example.test", "v1alpha"},
		{"https://example.test/proxy", "https://example.test/proxy", "v1beta"},
		{"  https://example.test  ", "https://example.test", "v1beta"},
	}
	for _, tt := range tests {
		root, version := splitAPIVersion(tt.in)
		assert.Equal(t, tt.root, root, "input %q", tt.in)
		assert.Equal(t, tt.version, version, "input %q", tt.in)
	}
}
