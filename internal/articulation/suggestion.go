// Package articulation turns diagnostic results and store contents into
// text for the user: task suggestions and terminal views.
package articulation

import (
	"fmt"
	"strings"

	"cropdoc/internal/types"
)

// FallbackTreatment is used when a result carries no treatment text.
const FallbackTreatment = "Manual removal recommended"

// Suggestion builds the task text offered for a result:
// "Remove <name> - <first sentence of the treatment>".
func Suggestion(result types.DiagnosticResult) string {
	return fmt.Sprintf("Remove %s - %s", strings.TrimSpace(result.EntityName), firstSentence(result.Treatment))
}

func firstSentence(text string) string {
	first, _, _ := strings.Cut(text, ".")
	if first = strings.TrimSpace(first); first == "" {
		return FallbackTreatment
	}
	return first
}
