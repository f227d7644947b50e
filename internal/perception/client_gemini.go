package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"
	"cropdoc/internal/usage"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiAPIVersion = "v1beta"
)

var apiVersionRe = regexp.MustCompile(`^v\d+(?:alpha|beta)?\d*$`)

// splitAPIVersion separates a configured base URL into its root and API
// version. A base without a trailing version segment gets the default, so
// "http://host" and "http://host/v1beta/" address the same endpoint.
func splitAPIVersion(base string) (root, version string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}
	if i := strings.LastIndex(base, "/"); i >= 0 && apiVersionRe.MatchString(base[i+1:]) {
		return base[:i], base[i+1:]
	}
	return base, defaultGeminiAPIVersion
}

// maxErrorBody bounds how much of an error response ends up in an error string.
const maxErrorBody = 512

// APIError is a non-200 answer from the Gemini REST endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// GeminiBackend calls models/{model}:generateContent over REST.
type GeminiBackend struct {
	apiKey          string
	baseURL         string
	temperature     float64
	maxOutputTokens int
	httpClient      *http.Client
}

var _ Backend = (*GeminiBackend)(nil)

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		BaseURL:         defaultGeminiBaseURL,
		Timeout:         90 * time.Second,
		Temperature:     0.4,
		MaxOutputTokens: 8192,
	}
}

// NewGeminiBackend creates a REST backend. A missing key is reported by
// Validate, not here, so the rest of the CLI works without credentials.
func NewGeminiBackend(config GeminiConfig) *GeminiBackend {
	root, version := splitAPIVersion(config.BaseURL)
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &GeminiBackend{
		apiKey:          config.APIKey,
		baseURL:         root + "/" + version,
		temperature:     config.Temperature,
		maxOutputTokens: config.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// Name implements Backend.
func (c *GeminiBackend) Name() string { return "gemini-rest" }

// Validate implements Backend.
func (c *GeminiBackend) Validate() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return fmt.Errorf("%w: API key not configured", types.ErrConfiguration)
	}
	return nil
}

// Generate implements Backend. It makes exactly one HTTP call.
func (c *GeminiBackend) Generate(ctx context.Context, model string, req GenerateRequest) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	startTime := time.Now()

	parts := []GeminiPart{{Text: req.Instruction}}
	if req.Observation != "" {
		parts = append(parts, GeminiPart{Text: "Observation:\n" + req.Observation})
	}
	if req.Media != nil {
		parts = append(parts, GeminiPart{InlineData: &GeminiInlineData{
			MimeType: req.Media.MimeType,
			Data:     req.Media.Data,
		}})
	}

	reqBody := GeminiRequest{
		Contents: []GeminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// The key travels in a header so transport errors, which quote the URL, never carry it.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	logging.PerceptionDebug("[Gemini] generateContent: model=%s parts=%d", model, len(parts))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if geminiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", geminiResp.Error.Message)
	}
	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", geminiResp.PromptFeedback.BlockReason)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	var result strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}
	response := strings.TrimSpace(result.String())
	if response == "" {
		return "", fmt.Errorf("empty completion (finish reason %s)", geminiResp.Candidates[0].FinishReason)
	}

	logging.Perception("[Gemini] generateContent: model=%s completed in %v response_len=%d tokens=%d",
		model, time.Since(startTime), len(response), geminiResp.UsageMetadata.TotalTokenCount)
	usage.Record(ctx, c.Name(), model, geminiResp.UsageMetadata.PromptTokenCount, geminiResp.UsageMetadata.CandidatesTokenCount)
	return response, nil
}

// errorMessage pulls error.message out of a Gemini error body, or truncates the raw body.
func errorMessage(body []byte) string {
	var envelope GeminiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
