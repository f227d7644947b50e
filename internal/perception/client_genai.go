package perception

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"
	"cropdoc/internal/usage"
)

// GenAIBackend reaches Gemini through the google.golang.org/genai SDK.
type GenAIBackend struct {
	client          *genai.Client
	httpClient      *http.Client
	initErr         error
	temperature     float64
	maxOutputTokens int
	timeout         time.Duration
}

var _ Backend = (*GenAIBackend)(nil)

// NewGenAIBackend creates the SDK client. Client creation failures surface
// through Validate so the factory never fails outright.
func NewGenAIBackend(config GeminiConfig) *GenAIBackend {
	b := &GenAIBackend{
		temperature:     config.Temperature,
		maxOutputTokens: config.MaxOutputTokens,
		timeout:         config.Timeout,
		httpClient:      &http.Client{},
	}
	if strings.TrimSpace(config.APIKey) == "" {
		b.initErr = fmt.Errorf("%w: API key not configured", types.ErrConfiguration)
		return b
	}

	cc := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.httpClient,
	}
	// The SDK joins BaseURL and APIVersion itself.
	root, version := splitAPIVersion(config.BaseURL)
	cc.HTTPOptions = genai.HTTPOptions{BaseURL: root + "/", APIVersion: version}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		b.initErr = fmt.Errorf("%w: failed to create GenAI client: %v", types.ErrConfiguration, err)
		return b
	}
	b.client = client
	return b
}

// Name implements Backend.
func (b *GenAIBackend) Name() string { return "genai" }

// Validate implements Backend.
func (b *GenAIBackend) Validate() error { return b.initErr }

// Generate implements Backend.
func (b *GenAIBackend) Generate(ctx context.Context, model string, req GenerateRequest) (string, error) {
	if b.initErr != nil {
		return "", b.initErr
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Instruction)}
	if req.Observation != "" {
		parts = append(parts, genai.NewPartFromText("Observation:\n"+req.Observation))
	}
	if req.Media != nil {
		raw, err := base64.StdEncoding.DecodeString(req.Media.Data)
		if err != nil {
			return "", fmt.Errorf("invalid inline media: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(raw, req.Media.MimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if b.temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(b.temperature))
	}
	if b.maxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(b.maxOutputTokens)
	}

	start := time.Now()
	resp, err := b.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	logging.Perception("[GenAI] model=%s completed in %v response_len=%d", model, time.Since(start), len(text))
	if md := resp.UsageMetadata; md != nil {
		usage.Record(ctx, b.Name(), model, int(md.PromptTokenCount), int(md.CandidatesTokenCount))
	}
	return text, nil
}
