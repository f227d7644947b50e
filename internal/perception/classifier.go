package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"
)

// Classifier sends a normalized payload to a backend, trying model
// candidates in order until one answers.
type Classifier struct {
	backend Backend
}

// NewClassifier creates a classifier over backend.
func NewClassifier(backend Backend) *Classifier {
	return &Classifier{backend: backend}
}

// Classify returns the raw text of the first model that answers.
//
// Each candidate is attempted exactly once, in order. A failed attempt is
// logged and the next candidate is tried; there is no backoff and no retry
// of the same model. When every candidate fails the error is a
// *types.ClassificationError carrying each attempt. An empty candidate list
// or an invalid backend configuration fails with types.ErrConfiguration
// before any call is made. Context cancellation stops the sequence.
func (c *Classifier) Classify(ctx context.Context, payload NormalizedPayload, instruction string, models []string) (string, error) {
	candidates := make([]string, 0, len(models))
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no model candidates configured", types.ErrConfiguration)
	}
	if c.backend == nil {
		return "", fmt.Errorf("%w: no classification backend", types.ErrConfiguration)
	}
	if err := c.backend.Validate(); err != nil {
		return "", err
	}

	req := requestFromPayload(payload, instruction)
	timer := logging.StartTimer(logging.CategoryPerception, "Classify")
	defer timer.Stop()

	var attempts []types.ModelAttempt
	for i, model := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		logging.PerceptionDebug("attempt %d/%d: backend=%s model=%s payload=%s",
			i+1, len(candidates), c.backend.Name(), model, payload.Kind)
		start := time.Now()
		raw, err := c.backend.Generate(ctx, model, req)
		if err == nil {
			logging.Perception("model %s answered in %v (attempt %d/%d)", model, time.Since(start), i+1, len(candidates))
			logging.PerceptionDebug("raw response: %s", describeRaw(raw))
			return raw, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		logging.PerceptionWarn("model %s failed after %v: %v", model, time.Since(start), err)
		attempts = append(attempts, types.ModelAttempt{Model: model, Err: err})
	}

	logging.PerceptionError("all %d model candidates failed", len(candidates))
	return "", &types.ClassificationError{Attempts: attempts}
}
