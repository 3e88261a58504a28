package atomlib

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/flowmind/pkg/capability"
)

func TestDefinitionsAndHandlersAgree(t *testing.T) {
	caps := capability.NewRegistry()
	require.NoError(t, Register(caps, zerolog.Nop()))

	// Every shipped definition has a matching handler.
	for _, def := range Definitions() {
		_, err := caps.Resolve(def.ID)
		assert.NoError(t, err, "atom %s has no handler", def.ID)
	}
	assert.Equal(t, len(Definitions()), caps.Len())
}

func TestBuiltinHandlers(t *testing.T) {
	caps := capability.NewRegistry()
	require.NoError(t, Register(caps, zerolog.Nop()))
	ctx := context.Background()

	t.Run("query_permissions returns a bool", func(t *testing.T) {
		handler, err := caps.Resolve("globalx.permission.query_permissions")
		require.NoError(t, err)

		value, err := handler(ctx, map[string]any{"user_id": "user_001"})
		require.NoError(t, err)
		assert.IsType(t, false, value)
	})

	t.Run("query_quota returns an int in range", func(t *testing.T) {
		handler, err := caps.Resolve("globalx.space.query_quota")
		require.NoError(t, err)

		value, err := handler(ctx, map[string]any{"user_id": "user_001"})
		require.NoError(t, err)
		quota, ok := value.(int)
		require.True(t, ok)
		assert.GreaterOrEqual(t, quota, 100)
		assert.LessOrEqual(t, quota, 1000)
	})

	t.Run("file_transfer returns nothing", func(t *testing.T) {
		handler, err := caps.Resolve("globalx.transfer.file_transfer")
		require.NoError(t, err)

		value, err := handler(ctx, map[string]any{
			"file_path":   "/tmp/report.pdf",
			"sender_id":   "user_001",
			"receiver_id": "user_002",
		})
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("missing required input is an error", func(t *testing.T) {
		handler, err := caps.Resolve("globalx.transfer.file_transfer")
		require.NoError(t, err)

		_, err = handler(ctx, map[string]any{"file_path": "/tmp/report.pdf"})
		assert.Error(t, err)
	})

	t.Run("get_file_size returns an int", func(t *testing.T) {
		handler, err := caps.Resolve("common.file.get_file_size")
		require.NoError(t, err)

		value, err := handler(ctx, map[string]any{"file_path": "/tmp/report.pdf"})
		require.NoError(t, err)
		assert.IsType(t, 0, value)
	})
}
