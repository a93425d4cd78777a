package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "api.pb")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("v1"), 0o644))

	w, err := New([]string{input}, 150*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 10)
	stopped := make(chan error, 1)
	go func() {
		stopped <- w.Run(ctx, func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		})
	}()

	// give the watcher a moment to start receiving events
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(input, []byte{byte('a' + i)}, 0o644))
	}

	select {
	case changed := <-calls:
		abs, err := filepath.Abs(input)
		require.NoError(t, err)
		assert.Equal(t, []string{abs}, absAll(t, changed))
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}

	select {
	case extra := <-calls:
		t.Fatalf("burst was delivered more than once: %v", extra)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewRequiresPaths(t *testing.T) {
	_, err := New(nil, time.Millisecond)
	assert.Error(t, err)
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "absent", "api.pb")}, time.Millisecond)
	assert.Error(t, err)
}

func absAll(t *testing.T, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		require.NoError(t, err)
		out[i] = abs
	}
	return out
}
