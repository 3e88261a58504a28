package atoms

import "sort"

// Registry is a read-only snapshot mapping atom_id -> Definition. The engine
// requires the mapping to be stable for the duration of one
// validation+execution pair; refresh policy belongs to the host (see Watcher).
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry builds a registry snapshot from the given definitions. Later
// duplicates of the same ID win, matching catalog load order.
func NewRegistry(defs []*Definition) *Registry {
	byID := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		if def != nil && def.ID != "" {
			byID[def.ID] = def
		}
	}
	return &Registry{defs: byID}
}

// Get looks up an atom definition by ID.
func (r *Registry) Get(atomID string) (*Definition, bool) {
	def, ok := r.defs[atomID]
	return def, ok
}

// Len returns the number of registered atoms.
func (r *Registry) Len() int {
	return len(r.defs)
}

// IDs returns all atom IDs in lexical order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns the definitions in lexical ID order.
func (r *Registry) All() []*Definition {
	defs := make([]*Definition, 0, len(r.defs))
	for _, id := range r.IDs() {
		defs = append(defs, r.defs[id])
	}
	return defs
}
