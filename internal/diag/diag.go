// Package diag provides toggleable, category-tagged debug logging for the
// indexer. Output is silent by default; it is written only when debug is
// enabled (EnableDebug set to "true" at build time, or LCI_DEBUG set to 1 or
// true) and a writer is configured via SetOutput or a log file via
// InitLogFile.
package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug is a build-time flag: go build -ldflags
// "-X github.com/codelantern/lci/internal/diag.EnableDebug=true"
var EnableDebug = "false"

var (
	mu     sync.Mutex
	output io.Writer
	file   *os.File
)

// SetOutput sets the writer debug output is written to. Pass nil to
// disable debug output entirely.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitLogFile opens a timestamped log file under <os.TempDir()>/lci-diag-logs
// and routes debug output there. Returns the file path.
func InitLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	logDir := filepath.Join(os.TempDir(), "lci-diag-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("create diag log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("diag-%s.log", timestamp))

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("create diag log file: %w", err)
	}

	file = f
	output = f
	return logPath, nil
}

// Close closes the log file opened by InitLogFile, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	output = nil
	return err
}

// Enabled reports whether debug output is active: either the EnableDebug
// build flag is set, or LCI_DEBUG is set in the environment.
func Enabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("LCI_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Logf writes a category-tagged debug line, e.g. Logf("watcher", "debounced %d events", n).
func Logf(category, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	w := writer()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[%s] "+format+"\n", append([]interface{}{category}, args...)...)
}
