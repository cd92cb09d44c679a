// Package indexer implements the read -> parse -> extract -> persist
// pipeline for one file and for collections of files (§4.5): a
// single-file operation generalized to a bounded-concurrency batch and a
// directory walk with exclusion filtering.
package indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/semaphore"

	"github.com/codelantern/lci/internal/diag"
	"github.com/codelantern/lci/internal/domain"
	"github.com/codelantern/lci/internal/errs"
	"github.com/codelantern/lci/internal/extractor"
	"github.com/codelantern/lci/internal/hash"
	"github.com/codelantern/lci/internal/parser"
	"github.com/codelantern/lci/internal/store"
)

// ErrUnknownLanguage is returned by IndexFile when path's extension is not
// registered with the Parser Bridge.
var ErrUnknownLanguage = errors.New("unknown_language")

const (
	maxConcurrency   = 4
	perFileTimeout   = 30 * time.Second
)

// defaultExclusions mirrors config.defaultExclusions for callers that drive
// the Indexer directly (e.g. tests) without going through config.Load.
var defaultExclusions = []string{
	"**/.git/**",
	"**/_build/**",
	"**/deps/**",
	"**/node_modules/**",
}

// Result summarizes one successfully indexed file.
type Result struct {
	FilePath        string
	SymbolsAdded    int
	ReferencesAdded int
}

// FileResult pairs a path with either its Result or the error encountered
// indexing it. index_files never lets one file's failure drop another's
// outcome from the returned slice.
type FileResult struct {
	FilePath string
	Result   Result
	Err      error
}

// OnFileIndexed is invoked after a successful commit for path, outside the
// Store transaction, best-effort: panics and errors from it are logged and
// swallowed rather than propagated (§5).
type OnFileIndexed func(path string, symbols []domain.Symbol)

// Indexer wires the Parser Bridge, Extractor and Store into the pipeline.
type Indexer struct {
	bridge    *parser.Bridge
	extractor *extractor.Extractor
	store     *store.Store

	OnFileIndexed OnFileIndexed
}

// New creates an Indexer over an already-open Store.
func New(bridge *parser.Bridge, st *store.Store) *Indexer {
	return &Indexer{
		bridge:    bridge,
		extractor: extractor.New(bridge),
		store:     st,
	}
}

// IndexFile runs the full pipeline for a single path: detect language, read,
// hash, parse, extract, replace_file. A parse, read, or language-detection
// failure leaves the Store's view of path unchanged.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (Result, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	language, ok := ix.bridge.DetectLanguage(filepath.Ext(path))
	if !ok {
		return Result{}, errs.New(errs.KindInput, "index_file", ErrUnknownLanguage).WithFile(path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errs.New(errs.KindInput, "index_file", err).WithFile(path)
	}

	fileHash := hash.Hash(source)

	tree, err := ix.bridge.Parse(source, language)
	if err != nil {
		return Result{}, errs.New(errs.KindParse, "index_file", err).WithFile(path)
	}
	defer tree.Close()

	symbols, references, err := ix.extractor.Extract(tree, path, fileHash)
	if err != nil {
		return Result{}, errs.New(errs.KindExtract, "index_file", err).WithFile(path)
	}

	replaced, err := ix.store.ReplaceFile(ctx, path, symbols, references, fileHash)
	if err != nil {
		return Result{}, errs.New(errs.KindStore, "index_file", err).WithFile(path)
	}

	result := Result{
		FilePath:        path,
		SymbolsAdded:    replaced.SymbolsWritten,
		ReferencesAdded: replaced.ReferencesWritten,
	}

	if ix.OnFileIndexed != nil {
		ix.safeCallback(path, symbols)
	}

	return result, nil
}

// safeCallback invokes OnFileIndexed, logging and swallowing a panic rather
// than letting a misbehaving consumer take down the indexing goroutine.
func (ix *Indexer) safeCallback(path string, symbols []domain.Symbol) {
	defer func() {
		if r := recover(); r != nil {
			diag.Logf("indexer", "on_file_indexed panic for %s: %v", path, r)
		}
	}()
	ix.OnFileIndexed(path, symbols)
}

// IndexFiles applies IndexFile to each path with bounded concurrency of 4
// and a 30s per-file timeout. A failure on one file never cancels the
// others; the returned slice always has len(paths) entries, in input order.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	sem := semaphore.NewWeighted(maxConcurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = FileResult{FilePath: path, Err: errs.New(errs.KindInternal, "index_files", err).WithFile(path)}
			continue
		}

		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)

			fileCtx, cancel := context.WithTimeout(ctx, perFileTimeout)
			defer cancel()

			res, err := ix.IndexFile(fileCtx, path)
			results[i] = FileResult{FilePath: path, Result: res, Err: err}
		}(i, path)
	}

	wg.Wait()
	return results
}

// DirectoryOptions narrows index_directory's walk (§4.5).
type DirectoryOptions struct {
	// Exclude supplements the default exclusion set with additional
	// doublestar glob patterns, matched against the path relative to root.
	Exclude []string
}

// IndexDirectory recursively walks root, filters to files whose extension
// the Parser Bridge supports, skips paths matching the default or supplied
// exclusion globs, and indexes the rest via IndexFiles.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string, opts DirectoryOptions) ([]FileResult, error) {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	exclude := append(append([]string(nil), defaultExclusions...), opts.Exclude...)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			diag.Logf("indexer", "walk error at %s: %v", path, err)
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && isExcluded(rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(rel, exclude) {
			return nil
		}
		if _, ok := ix.bridge.DetectLanguage(filepath.Ext(path)); !ok {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, errs.New(errs.KindInput, "index_directory", err).WithFile(root)
	}

	return ix.IndexFiles(ctx, paths), nil
}

func isExcluded(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
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
