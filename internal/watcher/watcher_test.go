package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/codelantern/lci/internal/domain"
	"github.com/codelantern/lci/internal/indexer"
	"github.com/codelantern/lci/internal/parser"
	"github.com/codelantern/lci/internal/store"
)

func newTestWatcher(t *testing.T, debounceMs int) (*Watcher, *store.Store) {
	t.Helper()
	bridge := parser.New()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ix := indexer.New(bridge, st)
	w := New(bridge, ix, st, Options{DebounceMs: debounceMs})
	t.Cleanup(func() { w.Close() })
	return w, st
}

func TestWatchRejectsNonDirectory(t *testing.T) {
	w, _ := newTestWatcher(t, 100)
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0o644))

	err := w.Watch(file)
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestWatchIsIdempotentAndTracked(t *testing.T) {
	w, _ := newTestWatcher(t, 100)
	dir := t.TempDir()

	require.NoError(t, w.Watch(dir))
	require.NoError(t, w.Watch(dir))

	watched := w.Watched()
	require.Len(t, watched, 1)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, watched[0])
}

func TestUnwatchRemovesDirectory(t *testing.T) {
	w, _ := newTestWatcher(t, 100)
	dir := t.TempDir()

	require.NoError(t, w.Watch(dir))
	require.NoError(t, w.Unwatch(dir))

	assert.Empty(t, w.Watched())
}

func TestStatusReportsActiveWhenSubscriptionEstablished(t *testing.T) {
	w, _ := newTestWatcher(t, 100)
	status := w.Status()
	assert.True(t, status.Active)
	assert.Equal(t, 0, status.PendingChangeCount)
}

// TestDebounceCoalescesBurstIntoOneReindex exercises E2E-5: three rapid
// writes to the same file within one debounce window trigger exactly one
// re-index of that file.
func TestDebounceCoalescesBurstIntoOneReindex(t *testing.T) {
	w, st := newTestWatcher(t, 50)
	var indexed atomic.Int32
	w.indexer.OnFileIndexed = func(string, []domain.Symbol) { indexed.Add(1) }
	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))

	path := filepath.Join(dir, "x.py")
	require.NoError(t, os.WriteFile(path, []byte("def a():\n    pass\n"), 0o644))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("def a():\n    pass\n\ndef b():\n    pass\n"), 0o644))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("def a():\n    pass\n\ndef b():\n    pass\n\ndef c():\n    pass\n"), 0o644))

	require.Eventually(t, func() bool {
		symbols, err := st.SymbolsInFile(context.Background(), path)
		return err == nil && len(symbols) == 3
	}, 2*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool { return indexed.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), indexed.Load())
}

func TestWatchDirectorySkipsExcludedSubdirectory(t *testing.T) {
	w, st := newTestWatcher(t, 30)
	root := t.TempDir()
	excluded := filepath.Join(root, "node_modules")
	require.NoError(t, os.MkdirAll(excluded, 0o755))

	require.NoError(t, w.Watch(root))

	path := filepath.Join(excluded, "vendored.py")
	require.NoError(t, os.WriteFile(path, []byte("def vendored():\n    pass\n"), 0o644))

	time.Sleep(200 * time.Millisecond)
	symbols, err := st.SymbolsInFile(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestRemovedFileRowsRemainAfterBareRemoveEvent(t *testing.T) {
	w, st := newTestWatcher(t, 30)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def a():\n    pass\n"), 0o644))
	require.NoError(t, w.Watch(dir))

	require.NoError(t, os.WriteFile(path, []byte("def a():\n    pass\ndef b():\n    pass\n"), 0o644))
	require.Eventually(t, func() bool {
		symbols, err := st.SymbolsInFile(context.Background(), path)
		return err == nil && len(symbols) == 2
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	// The watcher's acceptance rule never queues a bare "removed" event
	// (§6, §9 known gap), so the prior rows remain until something else
	// removes them.
	time.Sleep(150 * time.Millisecond)
	symbols, err := st.SymbolsInFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, symbols, 2)
}

func TestCloseStopsGoroutinesCleanly(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("github.com/tree-sitter/go-tree-sitter._Cfunc_GoString"),
	)

	bridge := parser.New()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ix := indexer.New(bridge, st)
	w := New(bridge, ix, st, Options{DebounceMs: 50})
	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))

	require.NoError(t, w.Close())
}

func TestRestartRecoversDegradedRoot(t *testing.T) {
	w, _ := newTestWatcher(t, 50)
	dir := t.TempDir()
	require.NoError(t, w.Watch(dir))

	// Simulate a root that degraded after its subscription crashed.
	w.mu.Lock()
	abs, _ := filepath.Abs(dir)
	w.roots[abs].degraded = true
	w.mu.Unlock()

	require.NoError(t, w.Restart(dir))

	w.mu.Lock()
	degraded := w.roots[abs].degraded
	w.mu.Unlock()
	assert.False(t, degraded)
}
