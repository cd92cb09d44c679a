// Package watcher keeps the Store synchronized with the filesystem over
// time: it subscribes to OS-level change notifications on a set of watched
// directories, debounces and coalesces bursts of events, and dispatches
// re-index (or removal) work to the Indexer (§4.7), exposing a
// Watch/Unwatch/Watched/Status/Restart lifecycle over an arbitrary number
// of independently tracked roots.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/codelantern/lci/internal/diag"
	"github.com/codelantern/lci/internal/errs"
	"github.com/codelantern/lci/internal/indexer"
	"github.com/codelantern/lci/internal/parser"
	"github.com/codelantern/lci/internal/store"
)

// ErrNotADirectory is returned by Watch when the path given is not a
// directory.
var ErrNotADirectory = errors.New("not_a_directory")

// defaultDebounce is the §6 enumerated debounce_ms default. A single timer
// armed per accepted event coalesces bursts (editor save = write + rename +
// chmod) into exactly one re-index pass per path.
const defaultDebounce = 100 * time.Millisecond

// defaultExclusions mirrors the indexer's own default exclusion set (§6);
// kept as a local copy rather than importing config, matching the
// indexer package's own independence from config.
var defaultExclusions = []string{
	"**/.git/**",
	"**/_build/**",
	"**/deps/**",
	"**/node_modules/**",
}

// Options configures a Watcher.
type Options struct {
	// DebounceMs overrides the 100ms default debounce window.
	DebounceMs int
	// Exclude supplements the default exclusion globs.
	Exclude []string
}

// rootState tracks one watched root directory: the set of subdirectories
// currently registered with the OS subscription, and whether this root is
// running in degraded (passive, untracked) mode.
type rootState struct {
	subdirs  map[string]bool
	degraded bool
}

// Watcher is the §4.7 component: it owns the OS filesystem subscription,
// the debounce timer, and the pending-change set, and dispatches
// re-indexing through an Indexer and removals through a Store.
type Watcher struct {
	bridge  *parser.Bridge
	indexer *indexer.Indexer
	store   *store.Store

	debounce time.Duration
	exclude  []string

	mu     sync.Mutex
	roots  map[string]*rootState
	fsw    *fsnotify.Watcher
	active bool

	pending map[string]bool
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher over an already-constructed Indexer/Store pair. If
// the OS filesystem subscription cannot be established (§7 "subscription
// unavailable at startup"), New still returns a usable Watcher: it
// degrades to passive mode and logs a warning rather than failing.
func New(bridge *parser.Bridge, ix *indexer.Indexer, st *store.Store, opts Options) *Watcher {
	debounce := defaultDebounce
	if opts.DebounceMs > 0 {
		debounce = time.Duration(opts.DebounceMs) * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		bridge:   bridge,
		indexer:  ix,
		store:    st,
		debounce: debounce,
		exclude:  append(append([]string(nil), defaultExclusions...), opts.Exclude...),
		roots:    make(map[string]*rootState),
		pending:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}

	w.startSubscription()

	return w
}

// startSubscription attempts to open the fsnotify watcher and, on success,
// launches the event-processing goroutine. Failure degrades the whole
// Watcher to passive mode (§7 "degrade to passive").
func (w *Watcher) startSubscription() {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		diag.Logf("watcher", "fsnotify unavailable, running in degraded mode: %v", err)
		return
	}

	w.mu.Lock()
	w.fsw = fsw
	w.active = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.processEvents()
}

// Watch begins observing dir (canonicalized to an absolute path). If the
// underlying subscription is unavailable, either globally or because adding
// this directory's subtree failed, dir is still recorded in Watched();
// it is simply not actively monitored (§4.7, §7).
func (w *Watcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errs.New(errs.KindInput, "watch", err).WithFile(dir)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return errs.New(errs.KindInput, "watch", ErrNotADirectory).WithFile(dir)
	}

	w.mu.Lock()
	if _, exists := w.roots[abs]; exists {
		w.mu.Unlock()
		return nil
	}
	state := &rootState{subdirs: make(map[string]bool)}
	w.roots[abs] = state
	fsw := w.fsw
	w.mu.Unlock()

	if fsw == nil {
		w.mu.Lock()
		state.degraded = true
		w.mu.Unlock()
		diag.Logf("watcher", "watching %s in degraded mode (no filesystem subscription)", abs)
		return nil
	}

	w.addTree(fsw, state, abs)
	return nil
}

// addTree walks root recursively, adding an fsnotify watch for every
// subdirectory not excluded, guarding against symlink cycles. A root whose
// own watch cannot be added at all is marked degraded; per-subdirectory
// failures are logged and skipped.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, state *rootState, root string) {
	visited := make(map[string]bool)
	addedAny := false

	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && w.isExcludedDir(rel) {
			return filepath.SkipDir
		}

		if err := fsw.Add(path); err != nil {
			diag.Logf("watcher", "failed to watch %s: %v", path, err)
			return nil
		}
		w.mu.Lock()
		state.subdirs[path] = true
		w.mu.Unlock()
		addedAny = true
		return nil
	})

	w.mu.Lock()
	state.degraded = !addedAny
	w.mu.Unlock()
	if !addedAny {
		diag.Logf("watcher", "no directories could be watched under %s, degraded", root)
	}
}

func (w *Watcher) isExcludedDir(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range w.exclude {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
		// A trailing "/**" also covers the directory itself; any other
		// pattern's last segment is tried against the path's base name.
		if patternBase := filepath.Base(pattern); patternBase == "**" {
			if matched, _ := doublestar.Match(filepath.Dir(pattern), relPath); matched {
				return true
			}
		} else if matched, _ := doublestar.Match(patternBase, filepath.Base(relPath)); matched {
			return true
		}
	}
	return false
}

// Unwatch stops observing dir: its fsnotify subtree watches are removed
// and any of its paths still pending in the debounce window are dropped.
func (w *Watcher) Unwatch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errs.New(errs.KindInput, "unwatch", err).WithFile(dir)
	}

	w.mu.Lock()
	state, ok := w.roots[abs]
	if !ok {
		w.mu.Unlock()
		return nil
	}
	delete(w.roots, abs)
	fsw := w.fsw
	for p := range w.pending {
		if isUnder(p, abs) {
			delete(w.pending, p)
		}
	}
	if len(w.pending) == 0 && w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if fsw != nil {
		for sub := range state.subdirs {
			_ = fsw.Remove(sub)
		}
	}
	return nil
}

func isUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Watched returns every directory currently tracked, sorted, whether or
// not it is actively monitored.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.roots))
	for dir := range w.roots {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// Status reports the watched directories (sorted), the number of paths
// currently waiting out the debounce window, and whether the underlying
// subscription is active.
type Status struct {
	WatchedDirs        []string
	PendingChangeCount int
	Active             bool
}

func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.roots))
	for dir := range w.roots {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return Status{
		WatchedDirs:        dirs,
		PendingChangeCount: len(w.pending),
		Active:             w.active,
	}
}

// Restart re-attempts the filesystem subscription for dir (§9 "Watcher
// restart"), without losing dir's place in Watched(). If the Watcher is
// globally degraded (no fsnotify instance at all), it first tries to
// establish one.
func (w *Watcher) Restart(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errs.New(errs.KindInput, "restart", err).WithFile(dir)
	}

	w.mu.Lock()
	state, ok := w.roots[abs]
	fsw := w.fsw
	w.mu.Unlock()
	if !ok {
		return errs.New(errs.KindInput, "restart", errors.New("not_watched")).WithFile(dir)
	}

	if fsw == nil {
		w.startSubscription()
		w.mu.Lock()
		fsw = w.fsw
		w.mu.Unlock()
		if fsw == nil {
			return errs.New(errs.KindWatcher, "restart", errors.New("subscription_unavailable")).WithFile(dir)
		}
	}

	w.addTree(fsw, state, abs)
	return nil
}

// Close cancels the event-processing goroutine, stops the debounce timer,
// and releases the fsnotify watcher. Safe to call once per Watcher.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	fsw := w.fsw
	w.mu.Unlock()

	if fsw != nil {
		_ = fsw.Close()
	}
	w.wg.Wait()
	return nil
}

// processEvents is the Watcher's single long-lived goroutine: it drains
// fsnotify's Events/Errors channels for the life of the component.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()

	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				w.markInactive()
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.markInactive()
				return
			}
			diag.Logf("watcher", "fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) markInactive() {
	w.mu.Lock()
	w.active = false
	w.mu.Unlock()
	diag.Logf("watcher", "filesystem subscription ended, watcher inactive")
}

// handleEvent applies §4.7's acceptance rule: a new directory under a
// watched root is added to the subscription; a file event is queued for
// debounce only if it is a supported source file AND its event set
// intersects {created, modified, renamed}. A bare "removed" event is
// discarded here, so a deleted file's rows stay in the Store (§6, §9). A
// rename event on the old name is queued like a modification; since that
// name no longer exists when the debounce fires, reindex removes it.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	info, statErr := os.Stat(ev.Name)
	if statErr == nil && info.IsDir() {
		w.handleDirectoryEvent(ev, info)
		return
	}

	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !w.isSupportedFile(ev.Name) {
		return
	}

	w.addPending(ev.Name)
}

func (w *Watcher) handleDirectoryEvent(ev fsnotify.Event, info os.FileInfo) {
	if ev.Op&fsnotify.Create == 0 {
		return
	}
	w.mu.Lock()
	var owner *rootState
	var root string
	for r, state := range w.roots {
		if isUnder(ev.Name, r) {
			owner = state
			root = r
			break
		}
	}
	fsw := w.fsw
	w.mu.Unlock()
	if owner == nil || fsw == nil {
		return
	}

	rel, err := filepath.Rel(root, ev.Name)
	if err == nil && w.isExcludedDir(rel) {
		return
	}
	if err := fsw.Add(ev.Name); err != nil {
		diag.Logf("watcher", "failed to watch new directory %s: %v", ev.Name, err)
		return
	}
	w.mu.Lock()
	owner.subdirs[ev.Name] = true
	w.mu.Unlock()
}

func (w *Watcher) isSupportedFile(path string) bool {
	_, ok := w.bridge.DetectLanguage(filepath.Ext(path))
	return ok
}

// addPending records path in the pending set and (re)arms the single
// global debounce timer (§4.7, §5).
func (w *Watcher) addPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush fires once the debounce window elapses with no further accepted
// events: every pending path is submitted for re-indexing, one goroutine
// per path, unordered, and the pending set is cleared (§4.7).
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := w.pending
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	diag.Logf("watcher", "debounce fired for %d path(s)", len(paths))

	for path := range paths {
		w.wg.Add(1)
		go func(path string) {
			defer w.wg.Done()
			w.reindex(path)
		}(path)
	}
}

// reindex applies the §4.7 re-indexing semantics for one path: index it if
// it still exists, remove it from the Store otherwise.
func (w *Watcher) reindex(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := os.Stat(path); err != nil {
		if _, rmErr := w.store.RemoveFile(ctx, path); rmErr != nil {
			diag.Logf("watcher", "remove_file failed for %s: %v", path, rmErr)
		}
		return
	}
	if _, err := w.indexer.IndexFile(ctx, path); err != nil {
		diag.Logf("watcher", "index_file failed for %s: %v", path, err)
	}
}
