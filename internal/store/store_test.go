package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelantern/lci/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func moduleAndFunc(path string) ([]domain.Symbol, []domain.Reference) {
	module := domain.Symbol{
		FilePath: path, Name: "mod", QualifiedName: "mod",
		Kind: domain.KindModule, Language: domain.LangPython, Visibility: domain.VisibilityPublic,
		StartLine: 1, StartCol: 0, EndLine: 10, EndCol: 0,
	}
	fn := domain.Symbol{
		FilePath: path, Name: "greet", QualifiedName: "mod.greet",
		Kind: domain.KindFunction, Language: domain.LangPython, Visibility: domain.VisibilityPublic,
		StartLine: 2, StartCol: 0, EndLine: 3, EndCol: 12,
	}
	ref := domain.Reference{
		FilePath: path, Name: "helper", QualifiedName: "helper",
		Kind: domain.RefCall, Language: domain.LangPython, Line: 2, Col: 4,
	}
	return []domain.Symbol{module, fn}, []domain.Reference{ref}
}

func TestReplaceFileAssignsParentAndContainer(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	symbols, refs := moduleAndFunc("mod.py")

	result, err := st.ReplaceFile(ctx, "mod.py", symbols, refs, "h1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SymbolsWritten)
	assert.Equal(t, 1, result.ReferencesWritten)

	fn, err := st.FindDefinition(ctx, "greet")
	require.NoError(t, err)
	require.NotNil(t, fn)
	require.NotNil(t, fn.ParentID)

	mod, err := st.FindDefinition(ctx, "mod")
	require.NoError(t, err)
	require.NotNil(t, mod)
	assert.Equal(t, mod.ID, *fn.ParentID)

	stored, err := st.ReferencesInFile(ctx, "mod.py")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].ContainerID)
	assert.Equal(t, fn.ID, *stored[0].ContainerID)
}

func TestReplaceFileIsIdempotentAndReplacesPriorContent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	symbols, refs := moduleAndFunc("mod.py")

	_, err := st.ReplaceFile(ctx, "mod.py", symbols, refs, "h1")
	require.NoError(t, err)

	onlyModule := symbols[:1]
	result, err := st.ReplaceFile(ctx, "mod.py", onlyModule, nil, "h2")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SymbolsWritten)
	assert.Equal(t, 0, result.ReferencesWritten)

	stored, err := st.SymbolsInFile(ctx, "mod.py")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "mod", stored[0].Name)

	refsLeft, err := st.ReferencesInFile(ctx, "mod.py")
	require.NoError(t, err)
	assert.Empty(t, refsLeft)
}

func TestRemoveFileIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	symbols, refs := moduleAndFunc("mod.py")
	_, err := st.ReplaceFile(ctx, "mod.py", symbols, refs, "h1")
	require.NoError(t, err)

	n, err := st.RemoveFile(ctx, "mod.py")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = st.RemoveFile(ctx, "mod.py")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	symbolsLeft, err := st.SymbolsInFile(ctx, "mod.py")
	require.NoError(t, err)
	assert.Empty(t, symbolsLeft)
}

func TestStatsCountsAcrossFiles(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	symbolsA, refsA := moduleAndFunc("a.py")
	symbolsB, _ := moduleAndFunc("b.py")

	_, err := st.ReplaceFile(ctx, "a.py", symbolsA, refsA, "ha")
	require.NoError(t, err)
	_, err = st.ReplaceFile(ctx, "b.py", symbolsB, nil, "hb")
	require.NoError(t, err)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalSymbols)
	assert.Equal(t, 1, stats.TotalReferences)
	assert.Equal(t, 2, stats.IndexedFiles)
	assert.Equal(t, 2, stats.SymbolsByKind["function"])
	assert.Equal(t, 2, stats.SymbolsByKind["module"])
}
