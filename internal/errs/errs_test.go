package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWrapsUnderlying(t *testing.T) {
	cause := errors.New("disk full")
	err := New(KindStore, "replace_file", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, KindStore, err.Kind)
	assert.Equal(t, "replace_file", err.Operation)
	assert.False(t, err.IsRecoverable())
}

func TestWithFileAndRecoverable(t *testing.T) {
	err := New(KindParse, "parse_file", errors.New("syntax error")).
		WithFile("src/main.py").
		WithRecoverable(true)

	assert.Equal(t, "src/main.py", err.FilePath)
	assert.True(t, err.IsRecoverable())
	assert.Contains(t, err.Error(), "src/main.py")
	assert.Contains(t, err.Error(), "parse")
}

func TestErrorWithoutFilePath(t *testing.T) {
	err := New(KindInput, "load_config", errors.New("missing root"))
	assert.NotContains(t, err.Error(), "for :")
}
