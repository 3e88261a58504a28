package validator

import "github.com/harun/flowmind/pkg/plan"

// collectWarnings flags declared step outputs that nothing consumes: no later
// step references them and the plan's final outputs do not mention them.
// Warnings are advisory only and never affect the validity verdict.
func (v *run) collectWarnings() []Error {
	consumed := make(map[plan.Ref]bool)

	markRefs := func(values map[string]any) {
		for _, value := range values {
			if ref, ok := plan.ParseRef(value); ok {
				consumed[ref] = true
			}
		}
	}

	for _, step := range v.steps {
		if step == nil {
			continue
		}
		inputs, _ := step["inputs"].(map[string]any)
		markRefs(inputs)
	}
	if body, ok := v.doc["plan"].(map[string]any); ok {
		if outputs, ok := body["outputs"].(map[string]any); ok {
			markRefs(outputs)
		}
	}

	var warnings []Error
	for i, step := range v.steps {
		if step == nil {
			continue
		}
		atomID, _ := step["atom_id"].(string)
		atom, ok := v.registry.Get(atomID)
		if !ok {
			continue
		}
		for _, out := range atom.Outputs {
			if out.Name == "" || consumed[plan.Ref{StepID: v.ids[i], Output: out.Name}] {
				continue
			}
			warnings = append(warnings, Error{
				Code:    CodeUnusedStepOutput,
				Message: "Output '" + out.Name + "' of step '" + v.ids[i] + "' is never consumed",
				Path:    stepPath(i),
			})
		}
	}
	return warnings
}
