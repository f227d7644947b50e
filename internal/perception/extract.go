package perception

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"cropdoc/internal/logging"
	"cropdoc/internal/types"
)

// maxRawInError bounds how much of the raw response a MalformedResponseError keeps.
const maxRawInError = 2048

var (
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

var (
	nameKeys     = []string{"name", "entityName", "entity_name"}
	seasonalKeys = []string{"seasonalData", "seasonalActivity", "seasonal_data", "seasonal_activity"}
	labelKeys    = []string{"month", "label"}
	valueKeys    = []string{"occurrence", "intensity", "value"}
)

// Extract locates the first parseable JSON object in raw, validates the
// required fields and sanitizes every free-text field.
func Extract(raw string) (types.DiagnosticResult, error) {
	record, err := locateRecord(raw)
	if err != nil {
		return types.DiagnosticResult{}, err
	}

	name := Sanitize(types.ExtractString(firstOf(record, nameKeys...)))
	if name == "" {
		return types.DiagnosticResult{}, malformed("missing required field name", raw)
	}
	confRaw, hasConf := record["confidence"]
	if !hasConf {
		return types.DiagnosticResult{}, malformed("missing required field confidence", raw)
	}
	sevRaw, hasSev := record["severity"]
	if !hasSev {
		return types.DiagnosticResult{}, malformed("missing required field severity", raw)
	}

	result := types.DiagnosticResult{
		EntityName:  name,
		Severity:    types.ParseSeverity(types.ExtractString(sevRaw)),
		Description: Sanitize(types.ExtractString(record["description"])),
		Treatment:   Sanitize(types.ExtractString(record["treatment"])),
		Prevention:  Sanitize(types.ExtractString(record["prevention"])),
		Causes:      sanitizeAll(types.ExtractStringSlice(record["causes"])),
	}

	if conf, ok := types.ExtractFloat(confRaw); ok {
		result.Confidence = types.ClampPercent(conf)
	} else {
		logging.PerceptionWarn("non-numeric confidence %v, using 0", confRaw)
		result.Confidence = 0
		result.Severity = types.SeverityUnknown
	}

	result.SeasonalActivity = extractSeasonal(firstOf(record, seasonalKeys...))
	return result, nil
}

// locateRecord returns the first candidate object that decodes, trying the
// balanced candidates in order and then the greedy first-to-last brace span.
func locateRecord(raw string) (map[string]interface{}, error) {
	text := stripWrappers(raw)
	candidates := findJSONCandidates(text)
	if greedy, ok := greedyObject(text); ok {
		candidates = append(candidates, greedy)
	}
	if len(candidates) == 0 {
		return nil, malformed("no JSON object found", raw)
	}

	for _, candidate := range candidates {
		if record, ok := decodeObject(candidate); ok {
			return record, nil
		}
	}
	return nil, malformed("no candidate object could be parsed", raw)
}

func decodeObject(s string) (map[string]interface{}, bool) {
	var record map[string]interface{}
	if err := json.Unmarshal([]byte(s), &record); err == nil && record != nil {
		return record, true
	}
	if err := json.Unmarshal([]byte(relaxJSON(s)), &record); err == nil && record != nil {
		return record, true
	}
	return nil, false
}

// relaxJSON removes block comments and trailing commas, the two deviations
// models produce most often.
func relaxJSON(s string) string {
	s = blockCommentRe.ReplaceAllString(s, "")
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// firstOf returns the first alias holding a value. Blank strings count as
// absent so {"name":"","entityName":"X"} resolves to X.
func firstOf(record map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		v, ok := record[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func extractSeasonal(v interface{}) []types.SeasonalPoint {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	points := make([]types.SeasonalPoint, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		label := strings.TrimSpace(types.ExtractString(firstOf(m, labelKeys...)))
		if label == "" {
			continue
		}
		value, _ := types.ExtractFloat(firstOf(m, valueKeys...))
		points = append(points, types.SeasonalPoint{Label: label, Intensity: types.ClampPercent(value)})
	}
	return points
}

func malformed(reason, raw string) error {
	if len(raw) > maxRawInError {
		raw = raw[:maxRawInError]
	}
	return &types.MalformedResponseError{Reason: reason, Raw: raw}
}

// describeRaw is used in log lines so responses never flood the log.
func describeRaw(raw string) string {
	if len(raw) <= 120 {
		return fmt.Sprintf("%q", raw)
	}
	return fmt.Sprintf("%q... (%d bytes)", raw[:120], len(raw))
}
