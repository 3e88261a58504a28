package validator

// Code identifies a validation failure class.
type Code string

// Error codes emitted by plan validation.
const (
	CodeMissingField         Code = "MISSING_FIELD"
	CodeInvalidType          Code = "INVALID_TYPE"
	CodeEmptySteps           Code = "EMPTY_STEPS"
	CodeEmptyStepID          Code = "EMPTY_STEP_ID"
	CodeDuplicateStepID      Code = "DUPLICATE_STEP_ID"
	CodeUnknownAtomID        Code = "UNKNOWN_ATOM_ID"
	CodeUnknownInputField    Code = "UNKNOWN_INPUT_FIELD"
	CodeMissingRequiredInput Code = "MISSING_REQUIRED_INPUT"
	CodeUnknownStepRef       Code = "UNKNOWN_STEP_REF"
	CodeUnknownOutputField   Code = "UNKNOWN_OUTPUT_FIELD"
	CodeUnknownDependency    Code = "UNKNOWN_DEPENDENCY"
	CodeCircularDependency   Code = "CIRCULAR_DEPENDENCY"
)

// Warning codes. Warnings never affect the validity verdict.
const (
	CodeUnusedStepOutput Code = "UNUSED_STEP_OUTPUT"
)

// Error is a single validation finding. Path is a dotted/bracketed locator
// into the plan document, e.g. plan.steps[2].inputs.file_path.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Result is the verdict of one validation call. Errors is populated iff the
// plan is invalid; ExecutionOrder and Layers iff it is valid. A Result is
// immutable once returned.
type Result struct {
	Valid          bool       `json:"valid"`
	Errors         []Error    `json:"errors,omitempty"`
	Warnings       []Error    `json:"warnings"`
	ExecutionOrder []string   `json:"execution_order,omitempty"`
	Layers         [][]string `json:"layers,omitempty"`
}
