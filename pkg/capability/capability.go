// Package capability maps atom identifiers to invocable handlers. Handlers
// are registered explicitly at process start (or by plugins); resolution is
// deterministic for a given atom_id. This replaces any reliance on reflective
// module loading.
package capability

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Handler is the invocable implementation of an atom. It receives the step's
// resolved inputs as named parameters and returns the atom's raw result,
// which the executor maps onto the atom's declared outputs.
type Handler func(ctx context.Context, inputs map[string]any) (any, error)

// Registry is a concurrency-safe mapping from atom_id to Handler. Atom IDs
// follow the package.domain.action convention.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to an atom ID. Registering the same ID twice is an
// error so plugin collisions surface at startup, not mid-run.
func (r *Registry) Register(atomID string, handler Handler) error {
	if err := checkAtomID(atomID); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("handler for atom %q must not be nil", atomID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[atomID]; exists {
		return fmt.Errorf("atom %q already registered", atomID)
	}
	r.handlers[atomID] = handler
	return nil
}

// Resolve returns the handler bound to an atom ID, or an error when the atom
// is not resolvable.
func (r *Registry) Resolve(atomID string) (Handler, error) {
	if err := checkAtomID(atomID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[atomID]
	if !ok {
		return nil, fmt.Errorf("no handler registered for atom %q", atomID)
	}
	return handler, nil
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// checkAtomID enforces the package.domain.action naming convention.
func checkAtomID(atomID string) error {
	parts := strings.Split(atomID, ".")
	if len(parts) < 3 {
		return fmt.Errorf("atom ID %q does not follow package.domain.action convention", atomID)
	}
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("atom ID %q has an empty segment", atomID)
		}
	}
	return nil
}
