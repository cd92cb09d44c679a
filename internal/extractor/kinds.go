package extractor

import "github.com/codelantern/lci/internal/domain"

// symbolKindTable maps a query capture prefix (e.g. "function" from
// "@function.name") to the normalized Symbol kind. The per-language query
// patterns in queries.go are written so the capture prefix already names
// the normalized kind (§4.2's static kind table: def|defp -> function,
// defmodule -> module, class_definition|class_declaration -> class,
// method_definition -> method, const -> constant, let|var -> variable,
// defmacro|defmacrop -> macro, and so on), so this table is the single
// place that translation is pinned down.
var symbolKindTable = map[string]domain.SymbolKind{
	"function": domain.KindFunction,
	"class":    domain.KindClass,
	"module":   domain.KindModule,
	"method":   domain.KindMethod,
	"variable": domain.KindVariable,
	"constant": domain.KindConstant,
	"import":   domain.KindImport,
	"alias":    domain.KindAlias,
	"use":      domain.KindUse,
	"require":  domain.KindRequire,
	"macro":    domain.KindMacro,
}

// referenceKindTable maps a query capture prefix to the normalized
// Reference kind. A dotted member-access call ("dot" in the source
// grammars) normalizes to qualified_call; everything else passes through
// under its own name (§4.2).
var referenceKindTable = map[string]domain.ReferenceKind{
	"call":           domain.RefCall,
	"qualified_call": domain.RefQualifiedCall,
	"import":         domain.RefImport,
	"alias":          domain.RefAlias,
	"use":            domain.RefUse,
	"require":        domain.RefRequire,
	"new":            domain.RefNew,
	"extends":        domain.RefExtends,
	"implements":     domain.RefImplements,
	"type_reference": domain.RefTypeReference,
}
