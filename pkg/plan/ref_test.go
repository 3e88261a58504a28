package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	t.Run("well-formed reference", func(t *testing.T) {
		ref, ok := ParseRef("${query_perm.outputs.has_permission}")
		require.True(t, ok)
		assert.Equal(t, "query_perm", ref.StepID)
		assert.Equal(t, "has_permission", ref.Output)
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		_, ok := ParseRef("  ${a.outputs.b}  ")
		assert.True(t, ok)
	})

	t.Run("malformed placeholders are literals", func(t *testing.T) {
		literals := []any{
			"${query_perm.outputs}",         // missing output segment
			"${.outputs.x}",                 // empty step segment
			"${a.outputs.}",                 // empty output segment
			"${a.b.outputs.x}",              // dot in step segment
			"${a.outputs.x",                 // unterminated
			"$a.outputs.x}",                 // missing brace
			"prefix ${a.outputs.x}",         // embedded, not the whole value
			"${a outputs.x}",                // whitespace inside
			42,                              // not a string
			nil,                             // nil
			map[string]any{"ref": "nested"}, // object
		}
		for _, value := range literals {
			_, ok := ParseRef(value)
			assert.False(t, ok, "value %v should be a literal", value)
		}
	})

	t.Run("String renders the placeholder form", func(t *testing.T) {
		ref := Ref{StepID: "s", Output: "o"}
		assert.Equal(t, "${s.outputs.o}", ref.String())

		parsed, ok := ParseRef(ref.String())
		require.True(t, ok)
		assert.Equal(t, ref, parsed)
	})
}

func TestIsRef(t *testing.T) {
	assert.True(t, IsRef("${a.outputs.b}"))
	assert.False(t, IsRef("literal"))
}
