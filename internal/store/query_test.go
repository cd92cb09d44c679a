package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelantern/lci/internal/domain"
)

func seedSearchFixture(t *testing.T, st *Store) {
	t.Helper()
	ctx := context.Background()
	symbols := []domain.Symbol{
		{FilePath: "a.py", Name: "greet", QualifiedName: "a.greet", Kind: domain.KindFunction, Language: domain.LangPython, Visibility: domain.VisibilityPublic, StartLine: 1, StartCol: 0, EndLine: 2, EndCol: 10},
		{FilePath: "a.py", Name: "Greeter", QualifiedName: "a.Greeter", Kind: domain.KindClass, Language: domain.LangPython, Visibility: domain.VisibilityPublic, StartLine: 4, StartCol: 0, EndLine: 8, EndCol: 0},
		{FilePath: "a.py", Name: "greeting", QualifiedName: "a.greeting", Kind: domain.KindVariable, Language: domain.LangPython, Visibility: domain.VisibilityPublic, StartLine: 9, StartCol: 0, EndLine: 9, EndCol: 12},
	}
	_, err := st.ReplaceFile(ctx, "a.py", symbols, nil, "h1")
	require.NoError(t, err)
}

func TestSearchRanksExactMatchBeforeCaseInsensitivePrefixMatches(t *testing.T) {
	st := openTestStore(t)
	seedSearchFixture(t, st)

	results, err := st.Search(context.Background(), "greet", FindOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "greet", results[0].Name)
	// Greeter and greeting are both prefix matches; name asc puts "G" first.
	assert.Equal(t, "Greeter", results[1].Name)
	assert.Equal(t, "greeting", results[2].Name)
}

func TestSearchFiltersByKindAndLanguage(t *testing.T) {
	st := openTestStore(t)
	seedSearchFixture(t, st)

	results, err := st.Search(context.Background(), "gree", FindOptions{Kind: "class"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Greeter", results[0].Name)

	results, err = st.Search(context.Background(), "gree", FindOptions{Language: "javascript"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSymbolAtRespectsStartInclusiveEndExclusiveColumns(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	fn := domain.Symbol{
		FilePath: "a.py", Name: "greet", QualifiedName: "a.greet",
		Kind: domain.KindFunction, Language: domain.LangPython, Visibility: domain.VisibilityPublic,
		StartLine: 2, StartCol: 4, EndLine: 2, EndCol: 14,
	}
	_, err := st.ReplaceFile(ctx, "a.py", []domain.Symbol{fn}, nil, "h1")
	require.NoError(t, err)

	sym, err := st.SymbolAt(ctx, "a.py", 2, 3)
	require.NoError(t, err)
	assert.Nil(t, sym, "column before start_col should not match")

	sym, err = st.SymbolAt(ctx, "a.py", 2, 4)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "greet", sym.Name)

	sym, err = st.SymbolAt(ctx, "a.py", 2, 14)
	require.NoError(t, err)
	assert.Nil(t, sym, "end_col is exclusive")

	sym, err = st.SymbolAt(ctx, "a.py", 2, 13)
	require.NoError(t, err)
	require.NotNil(t, sym)
}

func TestSymbolAtReturnsInnermostOfNestedSymbols(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	outer := domain.Symbol{
		FilePath: "a.py", Name: "Greeter", QualifiedName: "a.Greeter",
		Kind: domain.KindClass, Language: domain.LangPython, Visibility: domain.VisibilityPublic,
		StartLine: 1, StartCol: 0, EndLine: 10, EndCol: 0,
	}
	inner := domain.Symbol{
		FilePath: "a.py", Name: "hello", QualifiedName: "a.Greeter.hello",
		Kind: domain.KindMethod, Language: domain.LangPython, Visibility: domain.VisibilityPublic,
		StartLine: 2, StartCol: 4, EndLine: 3, EndCol: 20,
	}
	_, err := st.ReplaceFile(ctx, "a.py", []domain.Symbol{outer, inner}, nil, "h1")
	require.NoError(t, err)

	sym, err := st.SymbolAt(ctx, "a.py", 2, 10)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "hello", sym.Name)
}

func TestReferencesByContainerRestrictsToCallKinds(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	fn := domain.Symbol{
		FilePath: "a.py", Name: "greet", QualifiedName: "a.greet",
		Kind: domain.KindFunction, Language: domain.LangPython, Visibility: domain.VisibilityPublic,
		StartLine: 1, StartCol: 0, EndLine: 5, EndCol: 0,
	}
	refs := []domain.Reference{
		{FilePath: "a.py", Name: "helper", QualifiedName: "helper", Kind: domain.RefCall, Language: domain.LangPython, Line: 2, Col: 4},
		{FilePath: "a.py", Name: "os", QualifiedName: "os", Kind: domain.RefImport, Language: domain.LangPython, Line: 3, Col: 4},
	}
	_, err := st.ReplaceFile(ctx, "a.py", []domain.Symbol{fn}, refs, "h1")
	require.NoError(t, err)

	defn, err := st.FindDefinition(ctx, "greet")
	require.NoError(t, err)
	require.NotNil(t, defn)

	callees, err := st.ReferencesByContainer(ctx, defn.ID, []string{"call", "qualified_call"})
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.Equal(t, "helper", callees[0].Name)
}

func TestReplaceFileDoesNotAssignContainerToMacroEnclosure(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	macro := domain.Symbol{
		FilePath: "a.ex", Name: "with_logging", QualifiedName: "a.with_logging",
		Kind: domain.KindMacro, Language: domain.LangElixir, Visibility: domain.VisibilityPublic,
		StartLine: 1, StartCol: 0, EndLine: 5, EndCol: 0,
	}
	refs := []domain.Reference{
		{FilePath: "a.ex", Name: "helper", QualifiedName: "helper", Kind: domain.RefCall, Language: domain.LangElixir, Line: 2, Col: 4},
	}
	_, err := st.ReplaceFile(ctx, "a.ex", []domain.Symbol{macro}, refs, "h1")
	require.NoError(t, err)

	stored, err := st.ReferencesInFile(ctx, "a.ex")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].ContainerID, "macro is not an eligible container_id kind")
}

func TestFindDefinitionReturnsNilWhenMissing(t *testing.T) {
	st := openTestStore(t)
	def, err := st.FindDefinition(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, def)
}
