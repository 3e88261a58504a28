package plan

import (
	"strconv"
	"strings"
)

// EffectiveStepID derives the identifier a step is addressed by: the explicit
// step_id when present and non-blank, otherwise the step's zero-based
// position rendered as a decimal string.
func EffectiveStepID(step map[string]any, index int) string {
	if sid, ok := step["step_id"].(string); ok {
		if trimmed := strings.TrimSpace(sid); trimmed != "" {
			return trimmed
		}
	}
	return strconv.Itoa(index)
}

// Steps extracts the raw step objects from a generic plan document. Entries
// that are not objects are returned as nil so positions stay aligned with the
// original document.
func Steps(doc map[string]any) []map[string]any {
	body, ok := doc["plan"].(map[string]any)
	if !ok {
		return nil
	}
	rawSteps, ok := body["steps"].([]any)
	if !ok {
		return nil
	}
	steps := make([]map[string]any, len(rawSteps))
	for i, raw := range rawSteps {
		if step, ok := raw.(map[string]any); ok {
			steps[i] = step
		}
	}
	return steps
}

// StepLookup maps every effective identifier to its step object.
func StepLookup(steps []map[string]any) map[string]map[string]any {
	lookup := make(map[string]map[string]any, len(steps))
	for i, step := range steps {
		if step == nil {
			continue
		}
		lookup[EffectiveStepID(step, i)] = step
	}
	return lookup
}
