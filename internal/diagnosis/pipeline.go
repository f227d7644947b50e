// Package diagnosis runs the diagnosis-to-action pipeline:
// normalize, classify, extract, enrich.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cropdoc/internal/articulation"
	"cropdoc/internal/enrichment"
	"cropdoc/internal/logging"
	"cropdoc/internal/perception"
	"cropdoc/internal/types"
	"cropdoc/internal/usage"
)

// Classifier returns the raw answer of the first model candidate that responds.
type Classifier interface {
	Classify(ctx context.Context, payload perception.NormalizedPayload, instruction string, models []string) (string, error)
}

// CropFinder reports which of the user's crops an entity affects.
type CropFinder interface {
	AffectedCrops(ctx context.Context, entityName string) []string
}

// Outcome is everything the caller needs to render a diagnosis and offer a task.
type Outcome struct {
	Result        types.DiagnosticResult
	AffectedCrops []string
	Actionable    bool
	Suggestion    string
	// Degraded is set when Result is a sentinel; Cause holds the error it replaced.
	Degraded bool
	Cause    error
}

// Pipeline wires the stages together.
type Pipeline struct {
	classifier Classifier
	crops      CropFinder
	models     []string
}

// New creates a pipeline. crops may be nil to skip enrichment.
func New(classifier Classifier, crops CropFinder, models []string) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		crops:      crops,
		models:     append([]string(nil), models...),
	}
}

// Diagnose runs one request through the pipeline.
//
// Input and configuration problems, and context cancellation, are returned
// as errors. Classifier unavailability and unparseable answers are not: they
// become a sentinel result with severity Unknown and Degraded set.
func (p *Pipeline) Diagnose(ctx context.Context, req types.DiagnosticRequest) (Outcome, error) {
	timer := logging.StartTimer(logging.CategoryDiagnosis, "Diagnose")
	defer timer.Stop()

	log := logging.Get(logging.CategoryDiagnosis).With("kind", string(req.Kind), "payload", string(req.PayloadKind))

	payload, err := perception.Normalize(req)
	if err != nil {
		log.Warn("input rejected: %v", err)
		return Outcome{}, err
	}
	instruction, err := perception.InstructionFor(req.Kind, req.Context)
	if err != nil {
		return Outcome{}, err
	}

	raw, err := p.classifier.Classify(usage.WithKind(ctx, string(req.Kind)), payload, instruction, p.models)
	if err != nil {
		if errors.Is(err, types.ErrClassificationUnavailable) {
			log.Warn("classification unavailable: %v", err)
			return degraded(unavailableResult(), err), nil
		}
		return Outcome{}, err
	}

	result, err := perception.Extract(raw)
	if err != nil {
		if errors.Is(err, types.ErrMalformedResponse) {
			log.Warn("malformed classifier response: %v", err)
			return degraded(malformedResult(), err), nil
		}
		return Outcome{}, err
	}

	out := Outcome{Result: result, AffectedCrops: []string{}}
	out.Actionable = enrichment.IsActionable(result)
	if out.Actionable {
		if p.crops != nil {
			out.AffectedCrops = p.crops.AffectedCrops(ctx, result.EntityName)
		}
		out.Suggestion = articulation.Suggestion(result)
	}

	log.Info("diagnosed %q severity=%s confidence=%.0f affected=%d",
		result.EntityName, result.Severity, result.Confidence, len(out.AffectedCrops))
	return out, nil
}

func degraded(result types.DiagnosticResult, cause error) Outcome {
	return Outcome{
		Result:        result,
		AffectedCrops: []string{},
		Degraded:      true,
		Cause:         cause,
	}
}

// SoilApologyPrefix starts the text returned when a soil report fails.
const SoilApologyPrefix = "Sorry, there was an error analyzing your soil data: "

var reportMarkupRe = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*|\*\*`)

// SoilReport asks for the sectioned soil report for crop. On a classifier
// failure it returns an apology text together with the error.
func (p *Pipeline) SoilReport(ctx context.Context, req types.DiagnosticRequest, crop string) (string, error) {
	if strings.TrimSpace(crop) == "" {
		return "", fmt.Errorf("%w: crop is required for a soil report", types.ErrInput)
	}
	payload, err := perception.Normalize(req)
	if err != nil {
		return "", err
	}
	instruction := perception.SoilReportInstruction(crop, req.Context)

	raw, err := p.classifier.Classify(usage.WithKind(ctx, string(req.Kind)), payload, instruction, p.models)
	if err != nil {
		if errors.Is(err, types.ErrConfiguration) || ctx.Err() != nil {
			return "", err
		}
		logging.DiagnosisWarn("soil report for %s failed: %v", crop, err)
		return SoilApologyPrefix + err.Error() + "\n\nPlease check your internet connection and try again.", err
	}

	report := strings.TrimSpace(reportMarkupRe.ReplaceAllString(raw, ""))
	logging.Diagnosis("soil report for %s: %d bytes", crop, len(report))
	return report, nil
}
