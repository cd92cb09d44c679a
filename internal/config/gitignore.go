package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// GitignoreParser matches paths against the patterns in a project's
// .gitignore, pre-classifying each pattern into a fast comparison form so
// ShouldIgnore avoids a regex match on the common cases.
type GitignoreParser struct {
	patterns   []GitignorePattern
	regexCache sync.Map
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool

	patternType PatternType
	compiled    *regexp.Regexp
	prefix      string
	suffix      string
}

type PatternType int

const (
	PatternExact PatternType = iota
	PatternPrefix
	PatternSuffix
	PatternContains
	PatternWildcard
	PatternComplex
)

func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{patterns: make([]GitignorePattern, 0)}
}

// LoadGitignore reads rootPath/.gitignore, if present. A missing file is not
// an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer file.Close()

	return gp.scanAndParsePatterns(file)
}

func (gp *GitignoreParser) scanAndParsePatterns(file *os.File) error {
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if gp.shouldSkipLine(line) {
			continue
		}
		gp.patterns = append(gp.patterns, gp.parsePattern(line))
	}
	return scanner.Err()
}

func (gp *GitignoreParser) shouldSkipLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

// AddPattern registers one gitignore-syntax line directly, bypassing a file.
func (gp *GitignoreParser) AddPattern(line string) {
	gp.patterns = append(gp.patterns, gp.parsePattern(line))
}

func (gp *GitignoreParser) parsePattern(line string) GitignorePattern {
	pattern := GitignorePattern{}
	line = gp.extractPatternModifiers(&pattern, line)
	pattern.Pattern = line
	pattern.patternType, pattern.prefix, pattern.suffix, pattern.compiled = gp.analyzePattern(line)
	return pattern
}

// extractPatternModifiers strips and records the !, trailing /, and leading
// / modifiers, returning the bare pattern.
func (gp *GitignoreParser) extractPatternModifiers(pattern *GitignorePattern, line string) string {
	if strings.HasPrefix(line, "!") {
		pattern.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		pattern.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		pattern.Absolute = true
		line = line[1:]
	}
	return line
}

// analyzePattern classifies pattern for fastMatchPattern: a literal string
// gets an exact comparison, a single leading or trailing "*" gets a
// prefix/suffix comparison, anything else falls through to a compiled regex.
func (gp *GitignoreParser) analyzePattern(pattern string) (PatternType, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pattern, "*?[") {
		return PatternExact, pattern, pattern, nil
	}
	if patternType, prefix, suffix := gp.trySimplePatternOptimization(pattern); patternType != PatternWildcard {
		return patternType, prefix, suffix, nil
	}
	return gp.compileAndCachePattern(pattern)
}

func (gp *GitignoreParser) trySimplePatternOptimization(pattern string) (PatternType, string, string) {
	if !gp.isSimpleAsteriskPattern(pattern) {
		return PatternWildcard, "", ""
	}
	if suffix, ok := gp.extractSuffixPattern(pattern); ok {
		return PatternSuffix, "", suffix
	}
	if prefix, ok := gp.extractPrefixPattern(pattern); ok {
		return PatternPrefix, prefix, ""
	}
	return PatternWildcard, "", ""
}

func (gp *GitignoreParser) isSimpleAsteriskPattern(pattern string) bool {
	return strings.Contains(pattern, "*") && !strings.Contains(pattern, "?") && !strings.Contains(pattern, "[")
}

func (gp *GitignoreParser) extractSuffixPattern(pattern string) (string, bool) {
	if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*") {
		return pattern[1:], true
	}
	return "", false
}

func (gp *GitignoreParser) extractPrefixPattern(pattern string) (string, bool) {
	if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
		return pattern[:len(pattern)-1], true
	}
	return "", false
}

func (gp *GitignoreParser) compileAndCachePattern(pattern string) (PatternType, string, string, *regexp.Regexp) {
	regexPattern := gp.globToRegex(pattern)

	if cached, ok := gp.regexCache.Load(regexPattern); ok {
		return PatternComplex, "", "", cached.(*regexp.Regexp)
	}

	compiled, err := regexp.Compile(regexPattern)
	if err != nil {
		return PatternWildcard, "", "", nil
	}

	gp.regexCache.Store(regexPattern, compiled)
	return PatternComplex, "", "", compiled
}

func (gp *GitignoreParser) globToRegex(pattern string) string {
	regex := regexp.QuoteMeta(pattern)
	regex = strings.ReplaceAll(regex, `\*`, `.*`)
	regex = strings.ReplaceAll(regex, `\?`, `.`)
	regex = strings.ReplaceAll(regex, `\[`, `[`)
	regex = strings.ReplaceAll(regex, `\]`, `]`)
	return "^" + regex + "$"
}

// ShouldIgnore reports whether path (relative to the .gitignore's directory)
// is excluded, honoring later patterns overriding earlier ones via negation,
// same as git itself.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	ignored := false
	for _, pattern := range gp.patterns {
		if gp.matchesPattern(pattern, path, isDir) {
			ignored = !pattern.Negate
		}
	}
	return ignored
}

func (gp *GitignoreParser) matchesPattern(pattern GitignorePattern, path string, isDir bool) bool {
	if pattern.Directory {
		if isDir {
			return gp.matchDirectoryPatternOptimized(pattern, path)
		}
		return gp.matchInsideDirectoryPatternOptimized(pattern, path)
	}

	if pattern.Absolute {
		return gp.fastMatchPattern(pattern, path)
	}

	if gp.fastMatchPattern(pattern, path) {
		return true
	}
	pathParts := strings.Split(path, "/")
	for i := 0; i < len(pathParts); i++ {
		if gp.fastMatchPattern(pattern, strings.Join(pathParts[i:], "/")) {
			return true
		}
	}
	return false
}

func (gp *GitignoreParser) fastMatchPattern(pattern GitignorePattern, path string) bool {
	switch pattern.patternType {
	case PatternExact:
		return pattern.Pattern == path
	case PatternPrefix:
		return strings.HasPrefix(path, pattern.prefix)
	case PatternSuffix:
		return strings.HasSuffix(path, pattern.suffix)
	case PatternComplex:
		return pattern.compiled.MatchString(path)
	case PatternWildcard:
		matched, _ := filepath.Match(pattern.Pattern, path)
		return matched
	default:
		return pattern.Pattern == path
	}
}

func (gp *GitignoreParser) matchDirectoryPatternOptimized(pattern GitignorePattern, path string) bool {
	if gp.fastMatchPattern(pattern, path) {
		return true
	}
	if strings.HasSuffix(pattern.Pattern, "/**") {
		basePattern := strings.TrimSuffix(pattern.Pattern, "/**")
		if path == basePattern || strings.HasPrefix(path, basePattern+"/") {
			return true
		}
	}
	return false
}

func (gp *GitignoreParser) matchInsideDirectoryPatternOptimized(pattern GitignorePattern, path string) bool {
	if strings.HasPrefix(path, pattern.Pattern+"/") {
		return true
	}
	return gp.fastMatchPattern(pattern, path)
}

// GetExclusionPatterns renders the loaded patterns as doublestar globs
// usable directly by index_directory's exclusion filter. Negated patterns
// are dropped: the exclusion list has no notion of re-inclusion.
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, pattern := range gp.patterns {
		if pattern.Negate {
			continue
		}
		if glob := gp.convertToExclusionPattern(pattern); glob != "" {
			exclusions = append(exclusions, glob)
		}
	}
	return exclusions
}

func (gp *GitignoreParser) convertToExclusionPattern(pattern GitignorePattern) string {
	p := pattern.Pattern

	if pattern.Directory {
		if pattern.Absolute {
			return p + "/**"
		}
		return "**/" + p + "/**"
	}

	if pattern.Absolute {
		return p
	}
	return "**/" + p
}
