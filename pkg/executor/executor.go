// Package executor drives a validated plan: it resolves each step's atom to a
// registered handler, substitutes reference placeholders with values produced
// by earlier steps, invokes the handler, and maps its return value onto the
// atom's declared outputs. Execution is fail-fast: the first failure ends the
// run, with no retry and no continuation.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/capability"
	"github.com/harun/flowmind/pkg/plan"
	"github.com/harun/flowmind/pkg/validator"
)

// Resolver resolves an atom ID to an invocable handler. Any registry or
// plugin mechanism satisfies the contract as long as resolution is
// deterministic for a given atom_id.
type Resolver interface {
	Resolve(atomID string) (capability.Handler, error)
}

// Executor runs validated plans sequentially in execution order.
type Executor struct {
	caps   Resolver
	logger zerolog.Logger
}

// New creates an executor backed by the given capability resolver.
func New(caps Resolver, logger zerolog.Logger) *Executor {
	return &Executor{
		caps:   caps,
		logger: logger.With().Str("component", "executor").Logger(),
	}
}

// Execute runs every step of the plan in the validated execution order,
// strictly sequentially: no step begins before the previous one's result is
// recorded. It refuses to run, with no side effects, unless the verdict's
// Valid flag is true. A non-nil error is returned only for hard precondition
// violations (nil arguments); all run outcomes are reported in the Result.
func (e *Executor) Execute(ctx context.Context, doc map[string]any, verdict *validator.Result, registry *atoms.Registry) (*Result, error) {
	if doc == nil {
		return nil, errors.New("plan document must not be nil")
	}
	if verdict == nil {
		return nil, errors.New("validation result must not be nil")
	}
	if registry == nil {
		return nil, errors.New("atoms registry must not be nil")
	}

	if !verdict.Valid {
		return &Result{
			Success:     false,
			StepResults: []StepResult{},
			Error:       "plan validation failed; refusing to execute",
		}, nil
	}

	lookup := plan.StepLookup(plan.Steps(doc))
	execCtx := NewContext()
	results := make([]StepResult, 0, len(verdict.ExecutionOrder))

	for _, stepID := range verdict.ExecutionOrder {
		step, ok := lookup[stepID]
		if !ok {
			// Post-validation this cannot happen; checked defensively.
			msg := fmt.Sprintf("[%s] Step %q from execution_order not found in plan.steps",
				codeStepNotFound, stepID)
			results = append(results, StepResult{
				StepID: stepID, Status: StatusFailed, Outputs: map[string]any{}, Error: msg,
			})
			return &Result{Success: false, StepResults: results, Error: msg}, nil
		}

		result := e.runStep(ctx, stepID, step, execCtx, registry)
		results = append(results, result)
		if result.Status != StatusCompleted {
			e.logger.Warn().Str("step_id", stepID).Str("error", result.Error).
				Msg("Step failed; aborting run")
			return &Result{Success: false, StepResults: results}, nil
		}
		execCtx.Record(stepID, result.Outputs)
	}

	return &Result{Success: true, StepResults: results}, nil
}

// runStep executes one step end to end: capability resolution, input
// resolution, invocation, output mapping.
func (e *Executor) runStep(ctx context.Context, stepID string, step map[string]any, execCtx *Context, registry *atoms.Registry) StepResult {
	atomID, _ := step["atom_id"].(string)

	handler, err := e.caps.Resolve(atomID)
	if err != nil {
		return stepFailure(stepID, atomID, codeUnresolvedAtom, err.Error())
	}

	inputs, _ := step["inputs"].(map[string]any)
	resolved, err := resolveInputs(inputs, execCtx)
	if err != nil {
		return stepFailure(stepID, atomID, codeUnresolvedRef, err.Error())
	}

	e.logger.Debug().Str("step_id", stepID).Str("atom_id", atomID).Msg("Invoking atom")
	returnValue, err := invoke(ctx, handler, resolved)
	if err != nil {
		return stepFailure(stepID, atomID, codeStepExecutionError,
			fmt.Sprintf("Atom %q failed: %v", atomID, err))
	}

	def, _ := registry.Get(atomID)
	outputs, err := mapOutputs(returnValue, def)
	if err != nil {
		return stepFailure(stepID, atomID, codeStepExecutionError,
			fmt.Sprintf("Atom %q output mapping failed: %v", atomID, err))
	}

	return StepResult{
		StepID:  stepID,
		AtomID:  atomID,
		Status:  StatusCompleted,
		Outputs: outputs,
	}
}

// invoke calls a handler, converting panics into errors so a misbehaving atom
// fails its step instead of the process.
func invoke(ctx context.Context, handler capability.Handler, inputs map[string]any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, inputs)
}

// resolveInputs replaces reference placeholders with concrete values from the
// execution context; literal values pass through untouched.
func resolveInputs(inputs map[string]any, execCtx *Context) (map[string]any, error) {
	resolved := make(map[string]any, len(inputs))
	for key, value := range inputs {
		ref, ok := plan.ParseRef(value)
		if !ok {
			resolved[key] = value
			continue
		}
		outputs, ok := execCtx.Outputs(ref.StepID)
		if !ok {
			return nil, fmt.Errorf("reference %q: step %q has no outputs in context", ref, ref.StepID)
		}
		produced, ok := outputs[ref.Output]
		if !ok {
			return nil, fmt.Errorf("reference %q: step %q has no output %q", ref, ref.StepID, ref.Output)
		}
		resolved[key] = produced
	}
	return resolved, nil
}

// mapOutputs maps a handler's return value onto the atom's declared outputs:
// zero declared outputs discard the return value, a single declared output
// receives the whole return value, and multiple declared outputs require the
// return value to be a mapping carrying every declared name.
func mapOutputs(returnValue any, def *atoms.Definition) (map[string]any, error) {
	if def == nil {
		return map[string]any{}, nil
	}

	var declared []string
	for _, out := range def.Outputs {
		if out.Name != "" {
			declared = append(declared, out.Name)
		}
	}

	switch len(declared) {
	case 0:
		return map[string]any{}, nil
	case 1:
		return map[string]any{declared[0]: returnValue}, nil
	}

	mapping, ok := returnValue.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("atom declares %d outputs but returned %T, expected a mapping keyed by output names",
			len(declared), returnValue)
	}
	outputs := make(map[string]any, len(declared))
	for _, name := range declared {
		value, present := mapping[name]
		if !present {
			return nil, fmt.Errorf("atom return value is missing declared output %q", name)
		}
		outputs[name] = value
	}
	return outputs, nil
}

func stepFailure(stepID, atomID, code, message string) StepResult {
	return StepResult{
		StepID:  stepID,
		AtomID:  atomID,
		Status:  StatusFailed,
		Outputs: map[string]any{},
		Error:   fmt.Sprintf("[%s] %s", code, message),
	}
}
