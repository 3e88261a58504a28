package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/harun/flowmind/pkg/atoms"
	"github.com/harun/flowmind/pkg/plan"
	"github.com/harun/flowmind/pkg/validator"
)

// ExecuteLayered runs the plan layer by layer. Steps sharing a graph layer
// have no path between them, so they are dispatched concurrently; a layer
// only starts after every step of the previous one has recorded its result.
// The first failure cancels the run: steps already started finish and report
// their own results, but no later layer begins. Step results are reported in
// layer order with the layer's own ordering inside, so a run of a given plan
// always lists results the same way regardless of goroutine timing.
func (e *Executor) ExecuteLayered(ctx context.Context, doc map[string]any, verdict *validator.Result, registry *atoms.Registry) (*Result, error) {
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

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lookup := plan.StepLookup(plan.Steps(doc))
	execCtx := NewContext()
	results := make([]StepResult, 0, len(verdict.ExecutionOrder))

	for _, layer := range verdict.Layers {
		layerResults := make([]StepResult, len(layer))
		var wg sync.WaitGroup

		for i, stepID := range layer {
			step, ok := lookup[stepID]
			if !ok {
				msg := "[" + codeStepNotFound + "] Step \"" + stepID + "\" from execution layers not found in plan.steps"
				results = append(results, StepResult{
					StepID: stepID, Status: StatusFailed, Outputs: map[string]any{}, Error: msg,
				})
				return &Result{Success: false, StepResults: results, Error: msg}, nil
			}

			wg.Add(1)
			go func(i int, stepID string, step map[string]any) {
				defer wg.Done()
				result := e.runStep(runCtx, stepID, step, execCtx, registry)
				if result.Status == StatusCompleted {
					execCtx.Record(stepID, result.Outputs)
				} else {
					cancel()
				}
				layerResults[i] = result
			}(i, stepID, step)
		}
		wg.Wait()

		failed := false
		for _, result := range layerResults {
			results = append(results, result)
			if result.Status != StatusCompleted {
				failed = true
			}
		}
		if failed {
			return &Result{Success: false, StepResults: results}, nil
		}
	}

	return &Result{Success: true, StepResults: results}, nil
}
