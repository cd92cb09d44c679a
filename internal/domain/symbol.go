// Package domain defines the Symbol and Reference entities the indexer
// extracts from source files and persists, independent of any particular
// grammar or storage engine.
package domain

import "time"

// SymbolKind enumerates the normalized definition-site kinds a symbol can
// carry, after the Extractor's per-grammar kind-normalization table runs.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
	KindModule   SymbolKind = "module"
	KindMethod   SymbolKind = "method"
	KindVariable SymbolKind = "variable"
	KindConstant SymbolKind = "constant"
	KindImport   SymbolKind = "import"
	KindAlias    SymbolKind = "alias"
	KindUse      SymbolKind = "use"
	KindRequire  SymbolKind = "require"
	KindMacro    SymbolKind = "macro"
)

// Language enumerates the grammars the Parser Bridge supports.
type Language string

const (
	LangElixir     Language = "elixir"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

// Visibility enumerates a symbol's access level.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Symbol is a lexical definition site extracted from one source file.
//
// Positions are 1-indexed lines and 0-indexed columns; end positions are
// inclusive of the last column (§3).
type Symbol struct {
	ID            int64
	FilePath      string
	Name          string
	QualifiedName string
	Kind          SymbolKind
	Language      Language
	Visibility    Visibility
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
	Signature     string
	Doc           string
	Metadata      map[string]string
	FileHash      string
	IndexedAt     time.Time
	ParentID      *int64

	// ParentHint is the textual parent name the Extractor's grammar query
	// supplied, if any, before qualified-name resolution collapses it into
	// QualifiedName. Not persisted.
	ParentHint string `json:"-"`
}

// DefinitionKinds is the set of kinds find_definition and call_graph
// consider when resolving "the definition of a name" (§4.6).
var DefinitionKinds = map[SymbolKind]bool{
	KindFunction: true,
	KindClass:    true,
	KindModule:   true,
	KindMethod:   true,
	KindMacro:    true,
}

// ContainerDefinitionKinds is the set of kinds eligible to own a
// reference's container_id: the innermost containing symbol of kind
// module/class/method/function (§3). Distinct from DefinitionKinds, which
// also admits macro for find_definition's broader lookup.
var ContainerDefinitionKinds = map[SymbolKind]bool{
	KindFunction: true,
	KindClass:    true,
	KindModule:   true,
	KindMethod:   true,
}

// ContainerKinds is the set of kinds eligible to contain a symbol for
// qualified-name resolution purposes (§4.2).
var ContainerKinds = map[SymbolKind]bool{
	KindModule: true,
	KindClass:  true,
}

// Contains reports whether s's range strictly contains other's range: s
// starts no later and ends no earlier, and s is not identical to other.
func (s *Symbol) Contains(other *Symbol) bool {
	if s.FilePath != other.FilePath {
		return false
	}
	startsBefore := s.StartLine < other.StartLine || (s.StartLine == other.StartLine && s.StartCol <= other.StartCol)
	endsAfter := s.EndLine > other.EndLine || (s.EndLine == other.EndLine && s.EndCol >= other.EndCol)
	if !startsBefore || !endsAfter {
		return false
	}
	sameRange := s.StartLine == other.StartLine && s.StartCol == other.StartCol &&
		s.EndLine == other.EndLine && s.EndCol == other.EndCol
	return !sameRange
}
