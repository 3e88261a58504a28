package validator

import (
	"fmt"
	"sort"
	"strings"
)

func stepPath(i int) string {
	return fmt.Sprintf("plan.steps[%d]", i)
}

// checkAtomRefs cross-references every step against the atoms registry: the
// atom must exist, every supplied input key must be declared, and every
// required input must carry a value (a reference placeholder counts as
// present; resolution happens at execution time).
func (v *run) checkAtomRefs() {
	for i, step := range v.steps {
		if step == nil {
			continue
		}
		base := stepPath(i)
		atomID, _ := step["atom_id"].(string)
		if atomID == "" {
			continue
		}
		atom, ok := v.registry.Get(atomID)
		if !ok {
			v.errf(CodeUnknownAtomID, base+".atom_id", "Unknown atom id: %q", atomID)
			continue
		}

		inputs, _ := step["inputs"].(map[string]any)
		declared := atom.InputNames()

		for _, key := range sortedKeys(inputs) {
			if _, ok := declared[key]; !ok {
				v.errf(CodeUnknownInputField, base+".inputs."+key,
					"Unknown input field %q for atom %s", key, atomID)
			}
		}

		for _, in := range atom.Inputs {
			if !in.Required {
				continue
			}
			value, present := inputs[in.Name]
			if !present {
				v.errf(CodeMissingRequiredInput, base+".inputs",
					"Required input %q is missing", in.Name)
				continue
			}
			if isBlankValue(value) {
				v.errf(CodeMissingRequiredInput, base+".inputs."+in.Name,
					"Required input %q has no value", in.Name)
			}
		}
	}
}

// isBlankValue reports whether a supplied input value counts as absent: nil
// or a blank string. Reference placeholders are never blank, so they count as
// present even though they resolve later.
func isBlankValue(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
