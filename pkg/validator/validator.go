// Package validator proves a plan document is well-formed and safely
// executable against an atoms registry: schema shape, identifier uniqueness,
// atom/input/output referential integrity, dependency graph acyclicity, and a
// deterministic topological execution order.
package validator

import (
	"errors"
	"fmt"

	"github.com/harun/flowmind/pkg/atoms"
)

// Validate runs every validation stage against the raw plan document and
// returns a single aggregated verdict. Stages do not short-circuit: each one
// runs on the best-effort results of the previous ones so as many independent
// problems as possible surface in one round-trip. The only exceptions are
// documents whose steps are fundamentally unusable (missing, not an array,
// empty), for which graph work is not attempted.
//
// A non-nil error is returned only for hard precondition violations (nil
// document or registry); malformed-but-parseable input always yields a
// structured Result.
func Validate(doc map[string]any, registry *atoms.Registry) (*Result, error) {
	if doc == nil {
		return nil, errors.New("plan document must not be nil")
	}
	if registry == nil {
		return nil, errors.New("atoms registry must not be nil")
	}

	v := &run{doc: doc, registry: registry}
	v.checkRoot()
	if v.stepsUsable {
		v.checkSteps()
		v.checkAtomRefs()
		v.buildGraph()
		v.scheduleOrFail()
	}
	return v.result(), nil
}

// run carries the mutable state of one validation pass.
type run struct {
	doc      map[string]any
	registry *atoms.Registry

	rawSteps    []any                    // steps exactly as decoded, positions preserved
	steps       []map[string]any         // object steps; nil where the raw entry was not an object
	ids         []string                 // effective identifier per position
	idToIndex   map[string]int           // effective identifier -> position (later duplicate wins)
	adjacency   map[int]map[int]struct{} // edge u -> v: u must run before v
	order       []string
	layers      [][]string
	stepsUsable bool

	errs     []Error
	warnings []Error
}

func (v *run) errf(code Code, path, format string, args ...any) {
	v.errs = append(v.errs, Error{Code: code, Message: fmt.Sprintf(format, args...), Path: path})
}

func (v *run) warnf(code Code, path, format string, args ...any) {
	v.warnings = append(v.warnings, Error{Code: code, Message: fmt.Sprintf(format, args...), Path: path})
}

// result freezes the run into an immutable verdict.
func (v *run) result() *Result {
	res := &Result{Warnings: []Error{}}
	if len(v.errs) > 0 {
		res.Errors = v.errs
		return res
	}
	res.Valid = true
	res.Warnings = append(res.Warnings, v.collectWarnings()...)
	res.ExecutionOrder = v.order
	res.Layers = v.layers
	return res
}
