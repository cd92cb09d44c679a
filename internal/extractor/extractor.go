// Package extractor converts a parsed tree into the language-neutral
// symbol/reference lists Store persists, using the fixed per-language
// query patterns and kind-normalization tables in queries.go and kinds.go
// (§4.2).
package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/codelantern/lci/internal/domain"
	"github.com/codelantern/lci/internal/parser"
)

// Extractor turns tree-sitter trees into Symbol/Reference lists.
type Extractor struct {
	bridge *parser.Bridge
}

// New creates an Extractor backed by bridge.
func New(bridge *parser.Bridge) *Extractor {
	return &Extractor{bridge: bridge}
}

// Extract runs the symbol and reference queries for tree's language,
// normalizes kinds, resolves qualified names, and post-processes
// references. The outputs are deterministic for a given (source,
// language) pair.
func (e *Extractor) Extract(tree *parser.Tree, path string, fileHash string) ([]domain.Symbol, []domain.Reference, error) {
	queries, ok := queryTable[tree.Language]
	if !ok {
		return nil, nil, fmt.Errorf("extractor: no queries registered for language %q", tree.Language)
	}

	symbols, err := e.extractSymbols(tree, queries.Symbols, path, fileHash)
	if err != nil {
		return nil, nil, fmt.Errorf("extractor: symbol extraction: %w", err)
	}
	resolveQualifiedNames(symbols)

	refs, err := e.extractReferences(tree, queries.References, path, fileHash)
	if err != nil {
		return nil, nil, fmt.Errorf("extractor: reference extraction: %w", err)
	}
	refs = domain.DeduplicateReferences(refs)

	return symbols, refs, nil
}

func (e *Extractor) extractSymbols(tree *parser.Tree, query, path, fileHash string) ([]domain.Symbol, error) {
	matches, err := e.bridge.Query(tree, query)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	seen := make(map[string]bool)
	var symbols []domain.Symbol

	for _, m := range matches {
		captures := indexCaptures(m.Captures)

		nameKey, nameCap, ok := findNameCapture(captures)
		if !ok {
			continue
		}
		prefix := strings.TrimSuffix(nameKey, ".name")
		kind, ok := symbolKindTable[prefix]
		if !ok {
			continue
		}

		span := nameCap
		if enclosing, ok := captures[prefix]; ok {
			span = enclosing
		}

		visibility := determineVisibility(tree.Language, nameCap.Text)
		if kw, ok := captures[prefix+".visibility"]; ok {
			visibility = determineVisibilityFromKeyword(kw.Text)
		}

		sym := domain.Symbol{
			FilePath:   path,
			Name:       nameCap.Text,
			Kind:       kind,
			Language:   tree.Language,
			Visibility: visibility,
			StartLine:  span.StartLine + 1,
			StartCol:   span.StartCol,
			EndLine:    span.EndLine + 1,
			EndCol:     span.EndCol,
			Metadata:   map[string]string{},
			FileHash:   fileHash,
			IndexedAt:  now,
		}

		dedupeKey := fmt.Sprintf("%d:%d:%s", sym.StartLine, sym.StartCol, sym.Name)
		if seen[dedupeKey] {
			continue
		}
		seen[dedupeKey] = true
		symbols = append(symbols, sym)
	}

	return symbols, nil
}

func (e *Extractor) extractReferences(tree *parser.Tree, query, path, fileHash string) ([]domain.Reference, error) {
	matches, err := e.bridge.Query(tree, query)
	if err != nil {
		return nil, err
	}

	var refs []domain.Reference

	for _, m := range matches {
		captures := indexCaptures(m.Captures)

		nameKey, nameCap, ok := findNameCapture(captures)
		if !ok {
			continue
		}
		prefix := strings.TrimSuffix(nameKey, ".name")
		kind, ok := referenceKindTable[prefix]
		if !ok {
			continue
		}

		ref := domain.Reference{
			FilePath: path,
			Name:     nameCap.Text,
			Kind:     kind,
			Language: tree.Language,
			Line:     nameCap.StartLine + 1,
			Col:      nameCap.StartCol,
			Metadata: map[string]string{},
			FileHash: fileHash,
		}

		if target, ok := captures[prefix+".target"]; ok {
			ref.TargetModule = target.Text
		}

		if strings.Contains(ref.Name, ".") {
			ref.SplitQualified()
		} else {
			ref.QualifiedName = ref.ResolvedQualifiedName()
		}

		refs = append(refs, ref)
	}

	return refs, nil
}

// indexCaptures groups one match's captures by capture name. A pattern
// capturing the same name more than once within a match keeps the first
// occurrence, matching tree-sitter's deterministic capture order.
func indexCaptures(caps []parser.Match) map[string]parser.Match {
	out := make(map[string]parser.Match, len(caps))
	for _, c := range caps {
		if _, exists := out[c.CaptureName]; !exists {
			out[c.CaptureName] = c
		}
	}
	return out
}

// findNameCapture locates the capture whose name ends in ".name", the
// identifier naming this definition or usage site.
func findNameCapture(captures map[string]parser.Match) (string, parser.Match, bool) {
	for key, cap := range captures {
		if strings.HasSuffix(key, ".name") {
			return key, cap, true
		}
	}
	return "", parser.Match{}, false
}

// determineVisibility applies a simple, language-appropriate convention:
// a leading underscore (Python) or leading "#" (JS/TS private class
// fields) marks a symbol private; everything else is public. The grammars
// in scope have no first-class "protected" keyword reaching this layer.
func determineVisibility(language domain.Language, name string) domain.Visibility {
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
		return domain.VisibilityPrivate
	}
	return domain.VisibilityPublic
}

// determineVisibilityFromKeyword maps an Elixir definition keyword
// (def/defp/defmacro/defmacrop) to visibility: the "p" suffix is Elixir's
// own private-definition convention, authoritative over any name-based
// guess.
func determineVisibilityFromKeyword(keyword string) domain.Visibility {
	if strings.HasSuffix(keyword, "p") {
		return domain.VisibilityPrivate
	}
	return domain.VisibilityPublic
}

// resolveQualifiedNames implements §4.2: a non-empty parent hint wins
// outright; otherwise the smallest symbol of kind module/class whose
// range strictly contains this symbol and whose name differs supplies the
// prefix. With neither, the symbol's own name is used unqualified.
func resolveQualifiedNames(symbols []domain.Symbol) {
	for i := range symbols {
		s := &symbols[i]
		if s.ParentHint != "" {
			s.QualifiedName = s.ParentHint + "." + s.Name
			continue
		}

		var container *domain.Symbol
		for j := range symbols {
			if i == j {
				continue
			}
			candidate := &symbols[j]
			if !domain.ContainerKinds[candidate.Kind] {
				continue
			}
			if candidate.Name == s.Name {
				continue
			}
			if !candidate.Contains(s) {
				continue
			}
			if container == nil || rangeSize(candidate) < rangeSize(container) {
				container = candidate
			}
		}

		if container != nil {
			s.QualifiedName = container.Name + "." + s.Name
		} else {
			s.QualifiedName = s.Name
		}
	}
}

// rangeSize orders symbols by span for "smallest containing symbol":
// total lines dominate, column span breaks ties.
func rangeSize(s *domain.Symbol) int {
	return (s.EndLine-s.StartLine)*1_000_000 + (s.EndCol - s.StartCol)
}
