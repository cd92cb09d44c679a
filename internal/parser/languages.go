package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codelantern/lci/internal/domain"
)

// languageLoaders constructs the tree_sitter.Language for each supported
// language. JavaScript, Python and TypeScript/TSX ship standard Go
// bindings; Elixir is a community grammar registered in communityLoaders
// in community.go instead of a loader here.
var languageLoaders = map[domain.Language]func() *tree_sitter.Language{
	domain.LangJavaScript: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	},
	domain.LangPython: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_python.Language())
	},
	domain.LangTypeScript: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	},
	domain.LangTSX: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	},
}
