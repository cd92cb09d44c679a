package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolContains(t *testing.T) {
	outer := &Symbol{FilePath: "a.ex", StartLine: 1, StartCol: 0, EndLine: 10, EndCol: 3}
	inner := &Symbol{FilePath: "a.ex", StartLine: 2, StartCol: 2, EndLine: 3, EndCol: 1}

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
	assert.False(t, outer.Contains(outer))
}

func TestSymbolContainsDifferentFile(t *testing.T) {
	a := &Symbol{FilePath: "a.ex", StartLine: 1, EndLine: 10}
	b := &Symbol{FilePath: "b.ex", StartLine: 2, EndLine: 3}
	assert.False(t, a.Contains(b))
}

func TestReferenceSplitQualifiedWithDots(t *testing.T) {
	r := &Reference{Name: "IO.puts"}
	r.SplitQualified()

	assert.Equal(t, "puts", r.Name)
	assert.Equal(t, "IO", r.TargetModule)
	assert.Equal(t, "IO.puts", r.QualifiedName)
}

func TestReferenceSplitQualifiedWithoutDots(t *testing.T) {
	r := &Reference{Name: "bar"}
	r.SplitQualified()

	assert.Equal(t, "bar", r.Name)
	assert.Equal(t, "", r.TargetModule)
	assert.Equal(t, "bar", r.QualifiedName)
}

func TestReferenceResolvedQualifiedName(t *testing.T) {
	r := &Reference{Name: "puts", TargetModule: "IO"}
	assert.Equal(t, "IO.puts", r.ResolvedQualifiedName())

	r2 := &Reference{Name: "bar", QualifiedName: "Foo.bar"}
	assert.Equal(t, "Foo.bar", r2.ResolvedQualifiedName())

	r3 := &Reference{Name: "bar"}
	assert.Equal(t, "bar", r3.ResolvedQualifiedName())
}

func TestDeduplicateReferences(t *testing.T) {
	refs := []Reference{
		{Line: 1, Col: 2, Name: "foo"},
		{Line: 1, Col: 2, Name: "foo"},
		{Line: 1, Col: 3, Name: "foo"},
	}
	out := DeduplicateReferences(refs)
	assert.Len(t, out, 2)
}
