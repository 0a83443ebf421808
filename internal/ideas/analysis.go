package ideas

import (
	"fmt"
	"strings"

	"voicetovision/internal/services"
)

// ValidateAnalysis checks the fixed-shape analysis record at the store
// boundary. The external model's output is only trusted after it passes
// here; a missing required field or out-of-range score is a ValidationError.
func ValidateAnalysis(a *Analysis) error {
	if a == nil {
		return services.Wrap(services.ErrValidation, "ideas", "validate analysis", "analysis payload is nil", nil)
	}
	missing := make([]string, 0, 4)
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "nombre_idea")
	}
	if strings.TrimSpace(a.Summary) == "" {
		missing = append(missing, "resumen")
	}
	if strings.TrimSpace(a.Explanation) == "" {
		missing = append(missing, "explicacion")
	}
	if strings.TrimSpace(a.Type) == "" {
		missing = append(missing, "tipo")
	}
	if strings.TrimSpace(a.MaturityLevel) == "" {
		missing = append(missing, "nivel_madurez")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, "ideas", "validate analysis",
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}
	if a.Viability < 0 || a.Viability > 10 {
		return services.Wrap(services.ErrValidation, "ideas", "validate analysis",
			fmt.Sprintf("viabilidad %d outside 0-10", a.Viability), nil)
	}
	return nil
}

// normalizeAnalysis trims whitespace and drops empty entries so the index
// and persisted JSON stay tidy regardless of model output quirks.
func normalizeAnalysis(a Analysis) Analysis {
	a.Name = strings.TrimSpace(a.Name)
	a.Summary = strings.TrimSpace(a.Summary)
	a.Explanation = strings.TrimSpace(a.Explanation)
	a.Type = strings.TrimSpace(a.Type)
	a.MaturityLevel = strings.TrimSpace(a.MaturityLevel)
	a.Tags = trimList(a.Tags)
	a.NextSteps = trimList(a.NextSteps)
	a.Risks = trimList(a.Risks)
	return a
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
