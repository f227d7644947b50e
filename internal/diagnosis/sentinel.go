package diagnosis

import "cropdoc/internal/types"

// SentinelName is the entity name of every degraded result.
const SentinelName = "Analysis Error"

// Causes carried by degraded results, one per failure class.
const (
	CauseUnavailable = "Analysis failed: all classification models were unavailable"
	CauseMalformed   = "Analysis failed: the classifier response could not be parsed"
)

// unavailableResult is returned when every model candidate failed.
func unavailableResult() types.DiagnosticResult {
	return types.DiagnosticResult{
		EntityName:       SentinelName,
		Confidence:       0,
		Severity:         types.SeverityUnknown,
		Description:      "The classification service could not be reached. Please try again in a moment.",
		Treatment:        "Retake the photo ensuring good lighting and focus, then try again.",
		Prevention:       "N/A",
		SeasonalActivity: []types.SeasonalPoint{},
		Causes:           []string{CauseUnavailable},
	}
}

// malformedResult is returned when the answer had no usable record.
func malformedResult() types.DiagnosticResult {
	return types.DiagnosticResult{
		EntityName:       SentinelName,
		Confidence:       0,
		Severity:         types.SeverityUnknown,
		Description:      "Failed to analyze the input. Please try again with a clearer photo or a more detailed description.",
		Treatment:        "Retake the photo ensuring good lighting and focus.",
		Prevention:       "N/A",
		SeasonalActivity: []types.SeasonalPoint{},
		Causes:           []string{CauseMalformed},
	}
}
