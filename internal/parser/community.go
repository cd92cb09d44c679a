package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_elixir "github.com/tree-sitter/tree-sitter-elixir/bindings/go"

	"github.com/codelantern/lci/internal/domain"
)

// communityLoaders holds grammars maintained outside the
// github.com/tree-sitter organization, whose Go bindings don't follow the
// standard tree-sitter-<lang>/bindings/go layout but still expose a
// Language() constructor compatible with tree_sitter.NewLanguage. Elixir's
// grammar is one such case (§4.1's fixed language set includes it even
// though go-tree-sitter itself ships no binding for it).
var communityLoaders = map[domain.Language]func() *tree_sitter.Language{
	domain.LangElixir: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_elixir.Language())
	},
}
