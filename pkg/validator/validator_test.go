package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/flowmind/pkg/atoms"
)

func testRegistry() *atoms.Registry {
	return atoms.NewRegistry([]*atoms.Definition{
		{
			ID: "test.io.produce",
			Inputs: []atoms.Input{
				{Name: "seed", Type: "string", Required: true},
			},
			Outputs: []atoms.Output{
				{Name: "value", Type: "string"},
			},
		},
		{
			ID: "test.io.consume",
			Inputs: []atoms.Input{
				{Name: "value", Type: "string", Required: true},
				{Name: "note", Type: "string"},
			},
		},
		{
			ID: "test.io.noop",
		},
	})
}

func produceStep(stepID string) map[string]any {
	step := map[string]any{
		"atom_id": "test.io.produce",
		"target":  "produce a value",
		"inputs":  map[string]any{"seed": "s"},
	}
	if stepID != "" {
		step["step_id"] = stepID
	}
	return step
}

func consumeStep(stepID, ref string) map[string]any {
	step := map[string]any{
		"atom_id": "test.io.consume",
		"target":  "consume a value",
		"inputs":  map[string]any{"value": ref},
	}
	if stepID != "" {
		step["step_id"] = stepID
	}
	return step
}

func docWith(steps ...any) map[string]any {
	return map[string]any{
		"target": "test plan",
		"plan": map[string]any{
			"steps": steps,
		},
	}
}

func codesOf(errs []Error) []Code {
	codes := make([]Code, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	return codes
}

func findError(t *testing.T, res *Result, code Code) Error {
	t.Helper()
	for _, e := range res.Errors {
		if e.Code == code {
			return e
		}
	}
	t.Fatalf("no error with code %s in %v", code, res.Errors)
	return Error{}
}

func TestValidatePreconditions(t *testing.T) {
	t.Run("nil document", func(t *testing.T) {
		_, err := Validate(nil, testRegistry())
		assert.Error(t, err)
	})

	t.Run("nil registry", func(t *testing.T) {
		_, err := Validate(docWith(produceStep("")), nil)
		assert.Error(t, err)
	})
}

func TestValidateRootShape(t *testing.T) {
	registry := testRegistry()

	t.Run("missing target", func(t *testing.T) {
		doc := map[string]any{"plan": map[string]any{"steps": []any{produceStep("")}}}
		res, err := Validate(doc, registry)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		e := findError(t, res, CodeMissingField)
		assert.Equal(t, "target", e.Path)
	})

	t.Run("target wrong type", func(t *testing.T) {
		doc := docWith(produceStep(""))
		doc["target"] = 7
		res, err := Validate(doc, registry)
		require.NoError(t, err)
		assert.Contains(t, codesOf(res.Errors), CodeInvalidType)
	})

	t.Run("missing plan", func(t *testing.T) {
		res, err := Validate(map[string]any{"target": "t"}, registry)
		require.NoError(t, err)
		e := findError(t, res, CodeMissingField)
		assert.Equal(t, "plan", e.Path)
	})

	t.Run("empty steps yields exactly one error", func(t *testing.T) {
		res, err := Validate(docWith(), registry)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, CodeEmptySteps, res.Errors[0].Code)
		assert.Equal(t, "plan.steps", res.Errors[0].Path)
		assert.Empty(t, res.ExecutionOrder)
		assert.Empty(t, res.Layers)
	})

	t.Run("steps not an array", func(t *testing.T) {
		doc := map[string]any{"target": "t", "plan": map[string]any{"steps": "oops"}}
		res, err := Validate(doc, registry)
		require.NoError(t, err)
		e := findError(t, res, CodeInvalidType)
		assert.Equal(t, "plan.steps", e.Path)
	})

	t.Run("outputs must be an object when present", func(t *testing.T) {
		doc := docWith(produceStep(""))
		doc["plan"].(map[string]any)["outputs"] = []any{"x"}
		res, err := Validate(doc, registry)
		require.NoError(t, err)
		e := findError(t, res, CodeInvalidType)
		assert.Equal(t, "plan.outputs", e.Path)
	})
}

func TestValidateStepShape(t *testing.T) {
	registry := testRegistry()

	t.Run("non-object step", func(t *testing.T) {
		res, err := Validate(docWith("not a step"), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeInvalidType)
		assert.Equal(t, "plan.steps[0]", e.Path)
	})

	t.Run("missing atom_id, target, inputs", func(t *testing.T) {
		res, err := Validate(docWith(map[string]any{}), registry)
		require.NoError(t, err)
		paths := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			paths = append(paths, e.Path)
		}
		assert.Contains(t, paths, "plan.steps[0].atom_id")
		assert.Contains(t, paths, "plan.steps[0].target")
		assert.Contains(t, paths, "plan.steps[0].inputs")
	})

	t.Run("blank explicit step_id", func(t *testing.T) {
		res, err := Validate(docWith(produceStep("   ")), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeEmptyStepID)
		assert.Equal(t, "plan.steps[0].step_id", e.Path)
	})

	t.Run("duplicate explicit step_id", func(t *testing.T) {
		res, err := Validate(docWith(produceStep("dup"), produceStep("dup")), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeDuplicateStepID)
		assert.Equal(t, "plan.steps[1].step_id", e.Path)
	})

	t.Run("explicit step_id colliding with a positional id", func(t *testing.T) {
		// Step 0 explicitly names itself "1", colliding with the positional
		// identifier of step 1.
		res, err := Validate(docWith(produceStep("1"), produceStep("")), registry)
		require.NoError(t, err)
		assert.Contains(t, codesOf(res.Errors), CodeDuplicateStepID)
	})
}

func TestValidateAtomRefs(t *testing.T) {
	registry := testRegistry()

	t.Run("unknown atom id", func(t *testing.T) {
		step := produceStep("")
		step["atom_id"] = "no.such.atom"
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeUnknownAtomID)
		assert.Equal(t, "plan.steps[0].atom_id", e.Path)
	})

	t.Run("unknown input field", func(t *testing.T) {
		step := produceStep("")
		step["inputs"].(map[string]any)["bogus"] = 1
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeUnknownInputField)
		assert.Equal(t, "plan.steps[0].inputs.bogus", e.Path)
	})

	t.Run("missing required input", func(t *testing.T) {
		step := produceStep("")
		step["inputs"] = map[string]any{}
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeMissingRequiredInput)
		assert.Equal(t, "plan.steps[0].inputs", e.Path)
	})

	t.Run("blank required input", func(t *testing.T) {
		step := produceStep("")
		step["inputs"].(map[string]any)["seed"] = "   "
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeMissingRequiredInput)
		assert.Equal(t, "plan.steps[0].inputs.seed", e.Path)
	})

	t.Run("reference placeholder satisfies a required input", func(t *testing.T) {
		res, err := Validate(docWith(
			produceStep("p"),
			consumeStep("c", "${p.outputs.value}"),
		), registry)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})
}

func TestValidateGraph(t *testing.T) {
	registry := testRegistry()

	t.Run("unknown step reference", func(t *testing.T) {
		res, err := Validate(docWith(consumeStep("c", "${ghost.outputs.value}")), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeUnknownStepRef)
		assert.Equal(t, "plan.steps[0].inputs.value", e.Path)
	})

	t.Run("unknown output field", func(t *testing.T) {
		res, err := Validate(docWith(
			produceStep("p"),
			consumeStep("c", "${p.outputs.nope}"),
		), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeUnknownOutputField)
		assert.Equal(t, "plan.steps[1].inputs.value", e.Path)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		step := produceStep("p")
		step["depends_on"] = []any{"ghost"}
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeUnknownDependency)
		assert.Equal(t, "plan.steps[0].depends_on", e.Path)
	})

	t.Run("two-step cycle", func(t *testing.T) {
		x := produceStep("x")
		x["depends_on"] = []any{"y"}
		y := produceStep("y")
		y["depends_on"] = []any{"x"}
		res, err := Validate(docWith(x, y), registry)
		require.NoError(t, err)
		e := findError(t, res, CodeCircularDependency)
		assert.Equal(t, "plan.steps", e.Path)
		assert.Contains(t, e.Message, "x")
		assert.Contains(t, e.Message, "y")
		assert.Empty(t, res.ExecutionOrder)
	})

	t.Run("self-dependency is a cycle", func(t *testing.T) {
		step := produceStep("solo")
		step["depends_on"] = []any{"solo"}
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		assert.Contains(t, codesOf(res.Errors), CodeCircularDependency)
	})

	t.Run("non-string depends_on entries are skipped", func(t *testing.T) {
		step := produceStep("p")
		step["depends_on"] = []any{42, true}
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})
}

func TestExecutionOrder(t *testing.T) {
	registry := testRegistry()

	t.Run("independent steps keep document order", func(t *testing.T) {
		res, err := Validate(docWith(produceStep(""), produceStep(""), produceStep("")), registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		assert.Equal(t, []string{"0", "1", "2"}, res.ExecutionOrder)
		assert.Equal(t, [][]string{{"0", "1", "2"}}, res.Layers)
	})

	t.Run("reference-induced edge reorders", func(t *testing.T) {
		// First step in the document consumes the second's output.
		res, err := Validate(docWith(
			consumeStep("c", "${p.outputs.value}"),
			produceStep("p"),
		), registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		assert.Equal(t, []string{"p", "c"}, res.ExecutionOrder)
		assert.Equal(t, [][]string{{"p"}, {"c"}}, res.Layers)
	})

	t.Run("document position breaks ties among ready steps", func(t *testing.T) {
		// b and c both depend on a; among ready steps the earlier document
		// position always goes first.
		a := produceStep("a")
		b := consumeStep("b", "${a.outputs.value}")
		c := consumeStep("c", "${a.outputs.value}")
		res, err := Validate(docWith(b, c, a), registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		assert.Equal(t, []string{"a", "b", "c"}, res.ExecutionOrder)
		assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, res.Layers)
	})

	t.Run("explicit and implicit edges combine", func(t *testing.T) {
		a := produceStep("a")
		b := produceStep("b")
		b["depends_on"] = []any{"a"}
		c := consumeStep("c", "${b.outputs.value}")
		res, err := Validate(docWith(c, b, a), registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		assert.Equal(t, []string{"a", "b", "c"}, res.ExecutionOrder)
	})

	t.Run("validation is idempotent", func(t *testing.T) {
		doc := docWith(
			consumeStep("c", "${p.outputs.value}"),
			produceStep("p"),
		)
		first, err := Validate(doc, registry)
		require.NoError(t, err)
		second, err := Validate(doc, registry)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestWarnings(t *testing.T) {
	registry := testRegistry()

	t.Run("unused step output is flagged", func(t *testing.T) {
		res, err := Validate(docWith(produceStep("p")), registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, CodeUnusedStepOutput, res.Warnings[0].Code)
		assert.Equal(t, "plan.steps[0]", res.Warnings[0].Path)
	})

	t.Run("output consumed by a step is not flagged", func(t *testing.T) {
		res, err := Validate(docWith(
			produceStep("p"),
			consumeStep("c", "${p.outputs.value}"),
		), registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		assert.Empty(t, res.Warnings)
	})

	t.Run("output consumed by plan outputs is not flagged", func(t *testing.T) {
		doc := docWith(produceStep("p"))
		doc["plan"].(map[string]any)["outputs"] = map[string]any{
			"result": "${p.outputs.value}",
		}
		res, err := Validate(doc, registry)
		require.NoError(t, err)
		require.True(t, res.Valid)
		assert.Empty(t, res.Warnings)
	})

	t.Run("invalid plans carry no warnings", func(t *testing.T) {
		step := produceStep("p")
		step["inputs"] = map[string]any{}
		res, err := Validate(docWith(step), registry)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Empty(t, res.Warnings)
	})
}

func TestValidateAggregatesErrors(t *testing.T) {
	registry := testRegistry()

	// One document carrying several independent problems: all of them must
	// surface in a single pass.
	bad := map[string]any{
		"atom_id": "no.such.atom",
		"target":  "broken",
		"inputs":  map[string]any{},
	}
	dup1 := produceStep("dup")
	dup2 := produceStep("dup")
	dep := produceStep("p")
	dep["depends_on"] = []any{"ghost"}

	res, err := Validate(docWith(bad, dup1, dup2, dep), registry)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	codes := codesOf(res.Errors)
	assert.Contains(t, codes, CodeUnknownAtomID)
	assert.Contains(t, codes, CodeDuplicateStepID)
	assert.Contains(t, codes, CodeUnknownDependency)
}
