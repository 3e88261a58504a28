package atoms

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnCatalogChange(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir, zerolog.Nop())

	reloaded := make(chan *Registry, 1)
	watcher, err := NewWatcher(loader, func(registry *Registry) {
		select {
		case reloaded <- registry:
		default:
		}
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	writeCatalog(t, dir, "new.json", `{"atoms": [{"id": "a.b.c"}]}`)

	select {
	case registry := <-reloaded:
		assert.Equal(t, 1, registry.Len())
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload after catalog change")
	}
}

func TestWatcherIgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir, zerolog.Nop())

	reloaded := make(chan struct{}, 1)
	watcher, err := NewWatcher(loader, func(*Registry) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	writeCatalog(t, dir, "notes.txt", "nothing to see")

	select {
	case <-reloaded:
		t.Fatal("non-JSON file should not trigger a reload")
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewWatcher(NewLoader(dir, zerolog.Nop()), nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, watcher.Start())

	assert.NoError(t, watcher.Stop())
	// Second stop must not panic on the already-closed channel.
	_ = watcher.Stop()
}
