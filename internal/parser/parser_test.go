package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelantern/lci/internal/domain"
)

func TestDetectLanguageCoversEveryExtension(t *testing.T) {
	b := New()
	cases := map[string]domain.Language{
		".py":  domain.LangPython,
		".pyw": domain.LangPython,
		".js":  domain.LangJavaScript,
		".mjs": domain.LangJavaScript,
		".cjs": domain.LangJavaScript,
		".jsx": domain.LangJavaScript,
		".ts":  domain.LangTypeScript,
		".tsx": domain.LangTSX,
		".ex":  domain.LangElixir,
		".exs": domain.LangElixir,
	}
	for ext, want := range cases {
		got, ok := b.DetectLanguage(ext)
		assert.True(t, ok, ext)
		assert.Equal(t, want, got, ext)
	}

	_, ok := b.DetectLanguage(".go")
	assert.False(t, ok)
}

func TestParsePythonProducesWalkableTree(t *testing.T) {
	b := New()
	tree, err := b.Parse([]byte("def greet(name):\n    return name\n"), domain.LangPython)
	require.NoError(t, err)
	defer tree.Close()

	assert.Contains(t, b.Sexp(tree), "function_definition")
}

func TestParseIncrementalMatchesFreshParse(t *testing.T) {
	b := New()
	source := []byte("def greet(name):\n    return name\n")
	tree, err := b.Parse(source, domain.LangPython)
	require.NoError(t, err)
	defer tree.Close()

	edited := []byte("def greet(name, title):\n    return name\n")
	incremental, err := b.ParseIncremental(edited, tree, []Edit{
		{
			StartByte: 14, OldEndByte: 14, NewEndByte: 21,
			StartPoint:  Point{Row: 0, Column: 14},
			OldEndPoint: Point{Row: 0, Column: 14},
			NewEndPoint: Point{Row: 0, Column: 21},
		},
	})
	require.NoError(t, err)
	defer incremental.Close()

	fresh, err := b.Parse(edited, domain.LangPython)
	require.NoError(t, err)
	defer fresh.Close()

	assert.Equal(t, b.Sexp(fresh), b.Sexp(incremental))
}

func TestQueryReturnsCaptureGroupedMatches(t *testing.T) {
	b := New()
	tree, err := b.Parse([]byte("def greet(name):\n    return name\n"), domain.LangPython)
	require.NoError(t, err)
	defer tree.Close()

	matches, err := b.Query(tree, `(function_definition name: (identifier) @name)`)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Len(t, matches[0].Captures, 1)
	assert.Equal(t, "greet", matches[0].Captures[0].Text)
}

func TestQueryCompiledQueryIsCached(t *testing.T) {
	b := New()
	tree, err := b.Parse([]byte("def a():\n    pass\n"), domain.LangPython)
	require.NoError(t, err)
	defer tree.Close()

	pattern := `(function_definition name: (identifier) @name)`
	_, err = b.Query(tree, pattern)
	require.NoError(t, err)

	cached, err := b.compiledQuery(domain.LangPython, b.slots[domain.LangPython].language, pattern)
	require.NoError(t, err)
	assert.Same(t, b.queryCache[queryCacheKey{language: domain.LangPython, pattern: pattern}], cached)
}

func TestQueryUnsupportedLanguageErrors(t *testing.T) {
	b := New()
	tree, err := b.Parse([]byte("def a():\n    pass\n"), domain.LangPython)
	require.NoError(t, err)
	defer tree.Close()
	tree.Language = "cobol"

	_, err = b.Query(tree, `(module)`)
	assert.Error(t, err)
}
