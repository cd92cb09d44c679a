package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithRootAppliesDefaultsWhenNoKDLPresent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadWithRoot(filepath.Join(dir, ".indexer.kdl"), dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConcurrency, cfg.Index.MaxConcurrency)
	assert.Equal(t, DefaultDebounceMs, cfg.Index.DebounceMs)
	assert.Equal(t, DefaultSearchLimit, cfg.Search.DefaultLimit)
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Project.Root)
}

func TestLoadWithRootParsesProjectKDL(t *testing.T) {
	dir := t.TempDir()
	kdl := `
project {
    name "demo"
}
index {
    debounce_ms 250
    max_concurrency 8
    watch_mode false
}
search {
    default_limit 10
}
exclude "**/vendor/**" "**/testdata/**"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".indexer.kdl"), []byte(kdl), 0o644))

	cfg, err := LoadWithRoot(filepath.Join(dir, ".indexer.kdl"), dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, 250, cfg.Index.DebounceMs)
	assert.Equal(t, 8, cfg.Index.MaxConcurrency)
	assert.False(t, cfg.Index.WatchMode)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.ElementsMatch(t, []string{"**/vendor/**", "**/testdata/**"}, cfg.Exclude)
}

func TestValidateAndSetDefaultsRejectsNegativeValues(t *testing.T) {
	cfg := defaultConfig(t.TempDir())
	cfg.Index.DebounceMs = -1

	err := NewValidator().ValidateAndSetDefaults(cfg)
	assert.Error(t, err)
}

func TestValidateAndSetDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{Project: Project{Root: t.TempDir()}}
	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))

	assert.Equal(t, DefaultMaxConcurrency, cfg.Index.MaxConcurrency)
	assert.Equal(t, DefaultPerFileTimeoutMs, cfg.Index.PerFileTimeoutMs)
	assert.Equal(t, DefaultDebounceMs, cfg.Index.DebounceMs)
	assert.Equal(t, DefaultSearchLimit, cfg.Search.DefaultLimit)
	assert.NotEmpty(t, cfg.Exclude)
}

func TestDeduplicatePatternsPreservesOrder(t *testing.T) {
	out := DeduplicatePatterns([]string{"a", "b", "a", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, out)
}

func TestStoreFilePathDefaultsUnderProjectRoot(t *testing.T) {
	cfg := &Config{Project: Project{Root: "/srv/project"}}
	assert.Equal(t, filepath.Join("/srv/project", DefaultStoreDir, DefaultStoreFileName), cfg.StoreFilePath())

	cfg.StorePath = ":memory:"
	assert.Equal(t, ":memory:", cfg.StoreFilePath())
}

func TestEnrichExclusionsWithBuildArtifactsAddsDetectedDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsconfig.json"), []byte(`{"compilerOptions":{"outDir":"build"}}`), 0o644))

	cfg := defaultConfig(dir)
	cfg.EnrichExclusionsWithBuildArtifacts()

	assert.Contains(t, cfg.Exclude, "**/build/**")
}
