package validator

import (
	"strings"

	"github.com/harun/flowmind/pkg/plan"
)

// checkRoot validates the document's top-level shape: target string, plan
// object, non-empty plan.steps array, optional plan.outputs object. When the
// steps sequence itself is unusable the run is marked so later stages skip.
func (v *run) checkRoot() {
	if _, present := v.doc["target"]; !present {
		v.errf(CodeMissingField, "target", "Missing required field 'target'")
	} else if _, ok := v.doc["target"].(string); !ok {
		v.errf(CodeInvalidType, "target", "Field 'target' must be a string")
	}

	rawPlan, present := v.doc["plan"]
	if !present {
		v.errf(CodeMissingField, "plan", "Missing required field 'plan'")
		return
	}
	body, ok := rawPlan.(map[string]any)
	if !ok {
		v.errf(CodeInvalidType, "plan", "Field 'plan' must be an object")
		return
	}

	rawSteps, present := body["steps"]
	if !present {
		v.errf(CodeMissingField, "plan.steps", "Missing required field 'plan.steps'")
		return
	}
	steps, ok := rawSteps.([]any)
	if !ok {
		v.errf(CodeInvalidType, "plan.steps", "Field 'plan.steps' must be an array")
		return
	}
	if len(steps) == 0 {
		v.errf(CodeEmptySteps, "plan.steps", "plan.steps must not be empty")
		return
	}

	if rawOutputs, present := body["outputs"]; present && rawOutputs != nil {
		if _, ok := rawOutputs.(map[string]any); !ok {
			v.errf(CodeInvalidType, "plan.outputs", "Field 'plan.outputs' must be an object")
		}
	}

	v.rawSteps = steps
	v.stepsUsable = true
}

// checkSteps validates each step's shape, derives effective identifiers and
// flags duplicates. Steps that are not objects are excluded from later stages
// but keep their position so identifiers of the remaining steps stay stable.
func (v *run) checkSteps() {
	v.steps = make([]map[string]any, len(v.rawSteps))
	v.ids = make([]string, len(v.rawSteps))
	v.idToIndex = make(map[string]int, len(v.rawSteps))

	for i, raw := range v.rawSteps {
		base := stepPath(i)
		step, ok := raw.(map[string]any)
		if !ok {
			v.errf(CodeInvalidType, base, "Step must be an object")
			v.ids[i] = plan.EffectiveStepID(nil, i)
			v.idToIndex[v.ids[i]] = i
			continue
		}
		v.steps[i] = step

		v.requireString(step, "atom_id", base+".atom_id", "Step must have 'atom_id'")
		v.requireString(step, "target", base+".target", "Step must have 'target'")

		if rawInputs, present := step["inputs"]; !present {
			v.errf(CodeMissingField, base+".inputs", "Step must have 'inputs'")
		} else if _, ok := rawInputs.(map[string]any); !ok {
			v.errf(CodeInvalidType, base+".inputs", "Step 'inputs' must be an object")
		}

		if rawSID, present := step["step_id"]; present {
			if sid, ok := rawSID.(string); !ok {
				v.errf(CodeInvalidType, base+".step_id", "Step 'step_id' must be a string")
			} else if strings.TrimSpace(sid) == "" {
				v.errf(CodeEmptyStepID, base+".step_id", "Step 'step_id' must not be empty")
			}
		}

		if rawDeps, present := step["depends_on"]; present {
			if _, ok := rawDeps.([]any); !ok {
				v.errf(CodeInvalidType, base+".depends_on", "Step 'depends_on' must be an array")
			}
		}

		v.ids[i] = plan.EffectiveStepID(step, i)
		v.idToIndex[v.ids[i]] = i
	}

	seen := make(map[string]bool, len(v.ids))
	for i, id := range v.ids {
		if seen[id] {
			v.errf(CodeDuplicateStepID, stepPath(i)+".step_id", "Duplicate step_id: %q", id)
		}
		seen[id] = true
	}
}

// requireString emits MISSING_FIELD or INVALID_TYPE for a mandatory string
// field of a step.
func (v *run) requireString(step map[string]any, field, path, missingMsg string) {
	raw, present := step[field]
	if !present {
		v.errf(CodeMissingField, path, "%s", missingMsg)
		return
	}
	if _, ok := raw.(string); !ok {
		v.errf(CodeInvalidType, path, "Step %q must be a string", field)
	}
}
