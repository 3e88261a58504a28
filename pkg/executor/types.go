package executor

import "sync"

// Status is the terminal state of one executed step.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Executor-level failure codes embedded in step error messages as
// "[CODE] message".
const (
	codeStepNotFound       = "STEP_NOT_FOUND"
	codeUnresolvedAtom     = "UNRESOLVED_ATOM"
	codeUnresolvedRef      = "UNRESOLVED_REF"
	codeStepExecutionError = "STEP_EXECUTION_ERROR"
)

// StepResult records the outcome of one step invocation.
type StepResult struct {
	StepID  string         `json:"step_id"`
	AtomID  string         `json:"atom_id"`
	Status  Status         `json:"status"`
	Outputs map[string]any `json:"outputs"`
	Error   string         `json:"error,omitempty"`
}

// Result is the outcome of one plan run. Success is true iff every scheduled
// step completed. StepResults holds an entry for every step attempted up to
// and including the first failure; steps scheduled after the failure never
// appear. Error is set only when the run aborted on a structural precondition
// rather than inside a specific step.
type Result struct {
	Success     bool         `json:"success"`
	StepResults []StepResult `json:"step_results"`
	Error       string       `json:"error,omitempty"`
}

// Context is the execution context of a single run: outputs produced so far,
// keyed by effective step identifier. It is append-only, a step's outputs are
// written exactly once and never overwritten, and it is discarded when the
// run ends. Each slot has exactly one writer; the lock guards the map itself
// so layered runs can record concurrently.
type Context struct {
	mu      sync.RWMutex
	outputs map[string]map[string]any
}

// NewContext creates an empty execution context.
func NewContext() *Context {
	return &Context{outputs: make(map[string]map[string]any)}
}

// Outputs returns the recorded outputs of a step, or false when the step has
// not produced outputs yet.
func (c *Context) Outputs(stepID string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	outputs, ok := c.outputs[stepID]
	return outputs, ok
}

// Record stores a step's outputs. It is a no-op when the slot is already
// written, preserving the write-once discipline.
func (c *Context) Record(stepID string, outputs map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.outputs[stepID]; exists {
		return
	}
	c.outputs[stepID] = outputs
}
