package plan

import "encoding/json"

// Document is a structured plan produced by the planner. The engine treats a
// document as read-only: validation and execution never mutate it.
type Document struct {
	Target string `json:"target"`
	Plan   Body   `json:"plan"`
}

// Body holds the ordered steps and optional final outputs of a plan.
type Body struct {
	Steps   []Step         `json:"steps"`
	Outputs map[string]any `json:"outputs,omitempty"`
}

// Step invokes a single atom. Inputs values are either literals or reference
// placeholders of the form ${step_id.outputs.output_name}.
type Step struct {
	StepID    string         `json:"step_id,omitempty"`
	AtomID    string         `json:"atom_id"`
	Target    string         `json:"target"`
	Inputs    map[string]any `json:"inputs"`
	DependsOn []string       `json:"depends_on,omitempty"`
}

// AsMap converts a typed document into the generic map form consumed by the
// validator and executor, going through JSON so the shape matches what a
// decoded request body would look like.
func (d *Document) AsMap() (map[string]any, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
