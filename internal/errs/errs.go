// Package errs defines the typed error taxonomy used across the indexer:
// every operation that can fail wraps its cause in an Error carrying a
// Kind, the failing operation name, and (optionally) the file it was
// working on, so callers can branch on Kind without string matching.
package errs

import (
	"fmt"
	"time"
)

// Kind classifies the layer an error originated in.
type Kind string

const (
	KindInput    Kind = "input"    // bad config, bad CLI args
	KindParse    Kind = "parse"    // tree-sitter parse failure
	KindExtract  Kind = "extract"  // query/extraction failure
	KindStore    Kind = "store"    // sqlite persistence failure
	KindWatcher  Kind = "watcher"  // fsnotify/debounce failure
	KindInternal Kind = "internal" // anything else unexpected
)

// Error is the indexer's structured error type. It wraps an underlying
// cause and records enough context to decide whether an operation is
// worth retrying.
type Error struct {
	Kind        Kind
	Operation   string
	FilePath    string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// New creates an Error of the given kind for operation op, wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind:       kind,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile attaches the file path this error occurred on.
func (e *Error) WithFile(path string) *Error {
	e.FilePath = path
	return e
}

// WithRecoverable marks whether the caller should retry this operation.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

func (e *Error) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Kind, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the caller should retry this operation.
func (e *Error) IsRecoverable() bool {
	return e.Recoverable
}
