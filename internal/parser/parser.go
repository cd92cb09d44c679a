// Package parser wraps the tree-sitter grammars this indexer supports
// behind a single thread-safe bridge: extension-to-language detection,
// parsing (full and incremental), query evaluation, and debug s-expression
// dumps (§4.1).
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codelantern/lci/internal/domain"
)

// languageSlot holds the immutable, shared grammar for one language plus a
// mutex-guarded parser instance reused across calls for that language.
// Grammar objects are safe to share; tree_sitter.Parser is not, so each
// slot serializes its own parser while still letting distinct languages
// parse concurrently (§4.1 concurrency).
type languageSlot struct {
	mu       sync.Mutex
	language *tree_sitter.Language
	parser   *tree_sitter.Parser
}

// Bridge is the Parser Bridge: a thread-safe front-end over a fixed set of
// tree-sitter grammars.
type Bridge struct {
	slots          map[domain.Language]*languageSlot
	extToLanguage  map[string]domain.Language
	queryMu        sync.Mutex
	queryCache     map[queryCacheKey]*tree_sitter.Query
}

type queryCacheKey struct {
	language domain.Language
	pattern  string
}

// extensionTable is the static extension→language mapping from §4.1.
var extensionTable = map[string]domain.Language{
	".ex":  domain.LangElixir,
	".exs": domain.LangElixir,
	".py":  domain.LangPython,
	".pyw": domain.LangPython,
	".js":  domain.LangJavaScript,
	".mjs": domain.LangJavaScript,
	".cjs": domain.LangJavaScript,
	".jsx": domain.LangJavaScript,
	".ts":  domain.LangTypeScript,
	".tsx": domain.LangTSX,
}

// New builds a Bridge with every supported grammar loaded. Grammar load or
// parser construction failure is fatal at startup (§4.1 failure policy),
// so New panics rather than returning a half-initialized bridge.
func New() *Bridge {
	b := &Bridge{
		slots:         make(map[domain.Language]*languageSlot),
		extToLanguage: extensionTable,
		queryCache:    make(map[queryCacheKey]*tree_sitter.Query),
	}

	for lang, loader := range languageLoaders {
		slot, err := newLanguageSlot(loader)
		if err != nil {
			panic(fmt.Sprintf("parser: failed to load grammar %s: %v", lang, err))
		}
		b.slots[lang] = slot
	}
	for lang, loader := range communityLoaders {
		slot, err := newLanguageSlot(loader)
		if err != nil {
			panic(fmt.Sprintf("parser: failed to load community grammar %s: %v", lang, err))
		}
		b.slots[lang] = slot
	}

	return b
}

func newLanguageSlot(loader func() *tree_sitter.Language) (*languageSlot, error) {
	language := loader()
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(language); err != nil {
		return nil, err
	}
	return &languageSlot{language: language, parser: p}, nil
}

// DetectLanguage maps a file extension (including the leading dot, e.g.
// ".py") to a supported language. The zero value and false are returned
// for unrecognized extensions.
func (b *Bridge) DetectLanguage(ext string) (domain.Language, bool) {
	lang, ok := b.extToLanguage[ext]
	return lang, ok
}

// SupportedLanguages returns the fixed list of languages this bridge can
// parse.
func (b *Bridge) SupportedLanguages() []domain.Language {
	return []domain.Language{
		domain.LangElixir,
		domain.LangPython,
		domain.LangJavaScript,
		domain.LangTypeScript,
		domain.LangTSX,
	}
}

// Tree wraps a parsed tree-sitter tree together with the source bytes it
// was parsed from, since queries need both to resolve capture text.
type Tree struct {
	Language domain.Language
	Source   []byte
	tree     *tree_sitter.Tree
}

// Close releases the native tree-sitter tree. Callers that obtained a Tree
// from Parse or ParseIncremental own it and must Close it when done (§3
// ownership).
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// Parse parses source as language, returning a tree handle or a
// parse_error.
func (b *Bridge) Parse(source []byte, language domain.Language) (*Tree, error) {
	return b.parse(source, language, nil)
}

// Edit describes one incremental source edit in byte offsets, mirroring
// tree-sitter's TSInputEdit.
type Edit struct {
	StartByte    uint32
	OldEndByte   uint32
	NewEndByte   uint32
	StartPoint   Point
	OldEndPoint  Point
	NewEndPoint  Point
}

// Point is a (row, column) position, 0-indexed as tree-sitter reports it.
type Point struct {
	Row    uint32
	Column uint32
}

// ParseIncremental reapplies edits to oldTree and reparses source. The
// result is observationally identical to calling Parse(source, language)
// fresh (§4.1).
func (b *Bridge) ParseIncremental(source []byte, oldTree *Tree, edits []Edit) (*Tree, error) {
	if oldTree == nil || oldTree.tree == nil {
		return b.parse(source, oldTree.languageOrZero(), nil)
	}
	for _, e := range edits {
		oldTree.tree.Edit(&tree_sitter.InputEdit{
			StartByte:  e.StartByte,
			OldEndByte: e.OldEndByte,
			NewEndByte: e.NewEndByte,
			StartPosition: tree_sitter.Point{Row: e.StartPoint.Row, Column: e.StartPoint.Column},
			OldEndPosition: tree_sitter.Point{Row: e.OldEndPoint.Row, Column: e.OldEndPoint.Column},
			NewEndPosition: tree_sitter.Point{Row: e.NewEndPoint.Row, Column: e.NewEndPoint.Column},
		})
	}
	return b.parse(source, oldTree.Language, oldTree.tree)
}

func (t *Tree) languageOrZero() domain.Language {
	if t == nil {
		return ""
	}
	return t.Language
}

func (b *Bridge) parse(source []byte, language domain.Language, old *tree_sitter.Tree) (*Tree, error) {
	slot, ok := b.slots[language]
	if !ok {
		return nil, fmt.Errorf("parser: unsupported language %q", language)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	tree := slot.parser.Parse(source, old)
	if tree == nil {
		return nil, fmt.Errorf("parser: parse failed for language %q", language)
	}

	return &Tree{Language: language, Source: source, tree: tree}, nil
}

// Match is one capture produced by a query evaluation.
type Match struct {
	CaptureName string
	Text        string
	NodeKind    string
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
}

// QueryMatch is one pattern match: every capture tree-sitter produced for
// a single occurrence of the pattern, so callers can correlate a name
// capture with the enclosing definition capture it belongs to.
type QueryMatch struct {
	Captures []Match
}

// Query evaluates pattern against tree's root node, returning every match
// with its captures grouped. Compiled queries are cached keyed by
// (language, pattern) (§4.1).
func (b *Bridge) Query(t *Tree, pattern string) ([]QueryMatch, error) {
	slot, ok := b.slots[t.Language]
	if !ok {
		return nil, fmt.Errorf("parser: unsupported language %q", t.Language)
	}

	query, err := b.compiledQuery(t.Language, slot.language, pattern)
	if err != nil {
		return nil, err
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	root := t.tree.RootNode()
	matches := cursor.Matches(query, root, t.Source)
	names := query.CaptureNames()

	var out []QueryMatch
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		qm := QueryMatch{Captures: make([]Match, 0, len(m.Captures))}
		for _, cap := range m.Captures {
			node := cap.Node
			start := node.StartPosition()
			end := node.EndPosition()
			qm.Captures = append(qm.Captures, Match{
				CaptureName: names[cap.Index],
				Text:        node.Utf8Text(t.Source),
				NodeKind:    node.Kind(),
				StartLine:   int(start.Row),
				StartCol:    int(start.Column),
				EndLine:     int(end.Row),
				EndCol:      int(end.Column),
			})
		}
		out = append(out, qm)
	}
	return out, nil
}

func (b *Bridge) compiledQuery(lang domain.Language, language *tree_sitter.Language, pattern string) (*tree_sitter.Query, error) {
	key := queryCacheKey{language: lang, pattern: pattern}

	b.queryMu.Lock()
	defer b.queryMu.Unlock()

	if q, ok := b.queryCache[key]; ok {
		return q, nil
	}

	q, err := tree_sitter.NewQuery(language, pattern)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid query for %s: %w", lang, err)
	}
	b.queryCache[key] = q
	return q, nil
}

// Sexp renders tree's root node as an s-expression, for debugging only.
func (b *Bridge) Sexp(t *Tree) string {
	return t.tree.RootNode().ToSexp()
}
