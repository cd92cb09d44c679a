// Package config loads and merges configuration for the indexer: the
// project root, watch/concurrency tuning, query defaults, and the
// directory exclusion list.
package config

import (
	"os"
	"path/filepath"
)

// Default exclusion patterns applied to every directory scan (§6) unless
// overridden or extended by a project's .indexer.kdl.
var defaultExclusions = []string{
	"**/.git/**",
	"**/_build/**",
	"**/deps/**",
	"**/node_modules/**",
}

const (
	DefaultDebounceMs       = 100
	DefaultMaxConcurrency   = 4
	DefaultPerFileTimeoutMs = 30_000
	DefaultSearchLimit      = 50
	DefaultStoreFileName    = "index.db"
	DefaultStoreDir         = ".indexer"
)

// Project identifies the root of the tree being indexed.
type Project struct {
	Root string
	Name string
}

// Index holds indexing/watch tuning knobs.
type Index struct {
	MaxConcurrency   int  // loaded and validated; the Indexer uses its own fixed bound of 4 (§6)
	PerFileTimeoutMs int  // loaded and validated; the Indexer uses its own fixed 30s timeout (§6)
	DebounceMs       int  // watcher debounce window (§6)
	WatchMode        bool // loaded from config; no command reads it, and "index" does not start the Watcher
	RespectGitignore bool // fold .gitignore patterns into the exclusion set
	FollowSymlinks   bool
}

// Search holds query-surface defaults.
type Search struct {
	DefaultLimit int // search() default limit (§6)
}

// Config is the fully resolved, validated configuration for one run of the
// indexer against one project root.
type Config struct {
	Version int
	Project Project
	Index   Index
	Search  Search
	Include []string
	Exclude []string

	// StorePath is the sqlite database file backing the Store. Empty means
	// "<Project.Root>/.indexer/index.db"; ":memory:" is honored verbatim.
	StorePath string
}

// Load reads configuration for path, merging a project-local .indexer.kdl
// over a user-global ~/.indexer.kdl, then applies validated defaults.
// A missing KDL file at either layer is not an error; defaults apply.
func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot behaves like Load but resolves relative KDL paths against
// rootDir instead of the current working directory.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = filepath.Dir(path)
		if searchDir == "" {
			searchDir = "."
		}
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	projectConfig, err := LoadKDL(searchDir)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		cfg = baseConfig
	default:
		cfg = defaultConfig(searchDir)
	}

	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig(root string) *Config {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Config{
		Version: 1,
		Project: Project{Root: abs},
		Index: Index{
			MaxConcurrency:   DefaultMaxConcurrency,
			PerFileTimeoutMs: DefaultPerFileTimeoutMs,
			DebounceMs:       DefaultDebounceMs,
			WatchMode:        true,
			RespectGitignore: true,
		},
		Search:  Search{DefaultLimit: DefaultSearchLimit},
		Include: []string{},
		Exclude: append([]string(nil), defaultExclusions...),
	}
}

// mergeConfigs layers project over base: project values win, exclusions
// and unset inclusions are unioned from base, so a global ~/.indexer.kdl
// supplies baseline exclusions a project file only adds to.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(append([]string{}, base.Exclude...), project.Exclude...))
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// EnrichExclusionsWithBuildArtifacts detects build-output directories from
// language config files (package.json, tsconfig.json, pyproject.toml) under
// the project root and folds the resulting glob patterns into Exclude.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) == 0 {
		return
	}
	c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
}

// ApplyGitignoreExclusions folds patterns from the project root's .gitignore
// into Exclude, when Index.RespectGitignore is set. A missing .gitignore is
// not an error.
func (c *Config) ApplyGitignoreExclusions() {
	if !c.Index.RespectGitignore || c.Project.Root == "" {
		return
	}
	parser := NewGitignoreParser()
	if err := parser.LoadGitignore(c.Project.Root); err != nil {
		return
	}
	patterns := parser.GetExclusionPatterns()
	if len(patterns) == 0 {
		return
	}
	c.Exclude = DeduplicatePatterns(append(c.Exclude, patterns...))
}

// DeduplicatePatterns removes duplicate exclusion globs, preserving order.
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// StoreFilePath resolves the effective sqlite database path for this config.
func (c *Config) StoreFilePath() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return filepath.Join(c.Project.Root, DefaultStoreDir, DefaultStoreFileName)
}
