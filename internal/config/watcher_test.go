package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "gitlab:\n  project: a\n")

	w, err := NewWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan ChangeEvent, 4)
	require.NoError(t, w.Start(ctx, changes))
	defer func() { _ = w.Stop() }()

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("gitlab:\n  project: b\n"), 0644))
	}

	select {
	case ev := <-changes:
		assert.Equal(t, w.path, ev.FilePath)
		assert.False(t, ev.Removed)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}

	select {
	case ev := <-changes:
		t.Fatalf("expected a single debounced event, got another: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	w, err := NewWatcher(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, w.debounceInterval)

	assert.NoError(t, w.Stop())
	require.NoError(t, w.Start(context.Background(), make(chan ChangeEvent, 1)))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
