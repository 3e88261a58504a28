package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, inputs map[string]any) (any, error) {
	return nil, nil
}

func TestRegistryRegister(t *testing.T) {
	t.Run("register and resolve", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("pkg.domain.action", noop))
		assert.Equal(t, 1, reg.Len())

		handler, err := reg.Resolve("pkg.domain.action")
		require.NoError(t, err)
		assert.NotNil(t, handler)
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register("pkg.domain.action", noop))
		assert.Error(t, reg.Register("pkg.domain.action", noop))
	})

	t.Run("malformed atom ids are rejected", func(t *testing.T) {
		reg := NewRegistry()
		for _, id := range []string{"", "flat", "two.parts", "a..c", "a.b.", ".b.c"} {
			assert.Error(t, reg.Register(id, noop), "id %q should be rejected", id)
		}
	})

	t.Run("nil handler is rejected", func(t *testing.T) {
		reg := NewRegistry()
		assert.Error(t, reg.Register("pkg.domain.action", nil))
	})
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("no.such.atom")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no.such.atom")
}
