package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "atoms", cfg.AtomsDir)
	assert.True(t, cfg.History.Enabled)
	assert.Empty(t, cfg.Planner.Provider)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("bad port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Port = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Planner.Provider = "gemini"
		assert.Error(t, cfg.Validate())
	})

	t.Run("provider without api key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Planner.Provider = "openai"
		assert.Error(t, cfg.Validate())

		cfg.Planner.APIKey = "sk-test"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoader(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.NotEmpty(t, cfg.DataDir)
		assert.NotEmpty(t, cfg.History.Path)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowmind.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"server": {"port": 9090},
			"atoms_dir": "/etc/flowmind/atoms"
		}`), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "/etc/flowmind/atoms", cfg.AtomsDir)
		// Untouched fields keep their defaults.
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	})

	t.Run("history path derives from data dir", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowmind.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"data_dir": "/var/lib/flowmind"}`), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/var/lib/flowmind", "runs.db"), cfg.History.Path)
	})
}
