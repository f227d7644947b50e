package perception

import (
	"fmt"
	"strings"

	"cropdoc/internal/types"
)

// resultContract is the output schema every diagnosis template embeds.
// The extractor, not the classifier, enforces it.
const resultContract = `Provide output as a single JSON object only with these fields in plain text (no markdown):
{
  "name": %q,
  "confidence": confidence_percentage_as_number,
  "severity": "Low/Medium/High/None",
  "description": %q,
  "treatment": "Practical treatment recommendations in plain text",
  "prevention": "Prevention strategies in plain text",
  "seasonalData": [{"month": "Jan", "occurrence": percentage_number}],
  "causes": ["Reason 1", "Reason 2"]
}
Include all twelve months in seasonalData.`

type templateParts struct {
	role        string
	task        string
	nameHint    string
	description string
}

var diagnosisTemplates = map[types.DiagnosisKind]templateParts{
	types.KindWeed: {
		role:        "You are an expert agronomist specialized in weed identification.",
		task:        "Analyze the input and identify the weed species if present.",
		nameHint:    "Name of the weed species or 'No weed detected'",
		description: "Brief description of the weed and identifying features",
	},
	types.KindPest: {
		role:        "You are an expert entomologist specialized in crop pests.",
		task:        "Analyze the input and identify the pest and the damage it causes.",
		nameHint:    "Common name of the pest or 'No pest detected'",
		description: "Brief description of the pest and the visible damage",
	},
	types.KindDisease: {
		role:        "You are an expert plant pathologist.",
		task:        "Analyze the input and diagnose the crop disease or disorder if present.",
		nameHint:    "Name of the disease or 'No disease detected'",
		description: "Brief description of the symptoms and affected plant parts",
	},
	types.KindSoil: {
		role:        "You are an expert soil scientist.",
		task:        "Analyze the soil data and name the most important soil problem.",
		nameHint:    "Main soil problem (for example 'Nitrogen deficiency') or 'No issue detected'",
		description: "Brief summary of soil health, pH and N-P-K status",
	},
}

// locationLine renders the optional location hint.
func locationLine(loc *types.Coordinates) string {
	if loc == nil {
		return "Location: Not available"
	}
	return fmt.Sprintf("Location: %.2f, %.2f", loc.Latitude, loc.Longitude)
}

// InstructionFor renders the diagnosis instruction for kind.
func InstructionFor(kind types.DiagnosisKind, rc types.RequestContext) (string, error) {
	tmpl, ok := diagnosisTemplates[kind]
	if !ok {
		return "", fmt.Errorf("%w: no instruction template for kind %q", types.ErrInput, kind)
	}

	var sb strings.Builder
	sb.WriteString(tmpl.role)
	sb.WriteString(" ")
	sb.WriteString(tmpl.task)
	sb.WriteString("\n")
	sb.WriteString(locationLine(rc.Location))
	sb.WriteString("\n")
	if crop := strings.TrimSpace(rc.CropHint); crop != "" {
		fmt.Fprintf(&sb, "Crop: %s\n", crop)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, resultContract, tmpl.nameHint, tmpl.description)
	return sb.String(), nil
}

// SoilReportInstruction renders the sectioned soil report template for crop.
func SoilReportInstruction(crop string, rc types.RequestContext) string {
	crop = strings.TrimSpace(crop)
	return fmt.Sprintf(`Analyze soil data for %s cultivation. Provide a concise professional report.
%s

Format response as follows (no markdown symbols, keep it brief):

SOIL HEALTH
Condition: [Good/Fair/Poor]
Main issues: [List key problems]

NUTRIENTS
pH: [Value] - [Interpretation]
Nitrogen: [Status]
Phosphorus: [Status]
Potassium: [Status]
Organic matter: [Percentage]

FERTILIZER FOR %s
Primary: [Fertilizer type and rate]
Secondary: [Additional fertilizers if needed]
Timing: [When to apply]

IMPROVEMENTS NEEDED
Immediate: [Quick fixes]
Long-term: [Future actions]

CROP MANAGEMENT
Best planting: [Season/month]
Water needs: [Frequency]
Expected yield: [Amount per area]

WATCH FOR
Risks: [Key problems to monitor]
Prevention: [How to avoid issues]

Keep all responses short, factual, and actionable. No formatting symbols or verbose explanations.`,
		crop, locationLine(rc.Location), strings.ToUpper(crop))
}
