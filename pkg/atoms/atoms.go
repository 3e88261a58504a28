package atoms

// Input declares a named input an atom accepts.
type Input struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// Output declares a named output an atom produces.
type Output struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Definition describes a single atom: an independently invocable operation
// with declared named inputs and outputs. Atom IDs follow the
// package.domain.action convention.
type Definition struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Inputs      []Input  `json:"inputs"`
	Outputs     []Output `json:"outputs"`
}

// InputNames returns the declared inputs keyed by name.
func (d *Definition) InputNames() map[string]Input {
	names := make(map[string]Input, len(d.Inputs))
	for _, in := range d.Inputs {
		if in.Name != "" {
			names[in.Name] = in
		}
	}
	return names
}

// OutputNames returns the set of declared output names.
func (d *Definition) OutputNames() map[string]struct{} {
	names := make(map[string]struct{}, len(d.Outputs))
	for _, out := range d.Outputs {
		if out.Name != "" {
			names[out.Name] = struct{}{}
		}
	}
	return names
}
