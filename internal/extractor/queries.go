package extractor

import "github.com/codelantern/lci/internal/domain"

// languageQueries holds the two tree-sitter query patterns an Extractor
// evaluates per language: one surfacing definition sites, one surfacing
// usage sites. Capture naming follows a "<kind>.name" / "<kind>" pairing:
// "<kind>.name" captures the identifier, and the surrounding "<kind>"
// capture (when present) gives the definition's full range.
type languageQueries struct {
	Symbols    string
	References string
}

var queryTable = map[domain.Language]languageQueries{
	domain.LangPython: {
		Symbols: `
			(function_definition name: (identifier) @function.name) @function
			(class_definition name: (identifier) @class.name) @class
			(assignment left: (identifier) @variable.name) @variable
			(import_statement) @import
			(import_from_statement) @import
		`,
		References: `
			(call function: (identifier) @call.name) @call
			(call function: (attribute object: (identifier) @qualified_call.target attribute: (identifier) @qualified_call.name)) @qualified_call
			(class_definition superclasses: (argument_list (identifier) @extends.name)) @extends
		`,
	},
	domain.LangJavaScript: {
		Symbols: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function
			(variable_declarator
				name: (identifier) @variable.name
				value: (_)) @variable
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (identifier) @class.name) @class
			(import_statement source: (string) @import.name) @import
		`,
		References: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression object: (identifier) @qualified_call.target property: (property_identifier) @qualified_call.name)) @qualified_call
			(new_expression constructor: (identifier) @new.name) @new
			(class_heritage (extends_clause value: (identifier) @extends.name)) @extends
		`,
	},
	domain.LangTypeScript: {
		Symbols: `
			(function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @class.name) @class
			(type_alias_declaration name: (type_identifier) @alias.name) @alias
			(import_statement source: (string) @import.name) @import
		`,
		References: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression object: (identifier) @qualified_call.target property: (property_identifier) @qualified_call.name)) @qualified_call
			(new_expression constructor: (identifier) @new.name) @new
			(class_heritage (extends_clause value: (identifier) @extends.name)) @extends
			(implements_clause (type_identifier) @implements.name) @implements
			(type_annotation (type_identifier) @type_reference.name) @type_reference
		`,
	},
	domain.LangTSX: {
		Symbols: `
			(function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(class_declaration name: (type_identifier) @class.name) @class
			(interface_declaration name: (type_identifier) @class.name) @class
			(import_statement source: (string) @import.name) @import
		`,
		References: `
			(call_expression function: (identifier) @call.name) @call
			(call_expression function: (member_expression object: (identifier) @qualified_call.target property: (property_identifier) @qualified_call.name)) @qualified_call
			(new_expression constructor: (identifier) @new.name) @new
		`,
	},
	domain.LangElixir: {
		// def/defp and defmacro/defmacrop name their target in the first
		// argument, which tree-sitter-elixir shapes differently depending on
		// arity: a bare (identifier) for a zero-arg definition (def bar, do:
		// 1), a (call) whose own target is the identifier for a definition
		// with arguments, or a (binary_operator ... "when" ...) guard wrapping
		// either of those. @function.visibility/@macro.visibility carry the
		// def/defp/defmacro/defmacrop keyword text itself so the extractor can
		// tell public from private without guessing from the name.
		Symbols: `
			(call target: (identifier) @_kw (arguments (alias) @module.name) (#eq? @_kw "defmodule")) @module
			(call target: (identifier) @function.visibility (arguments . (identifier) @function.name) (#match? @function.visibility "^defp?$")) @function
			(call target: (identifier) @function.visibility (arguments . (call target: (identifier) @function.name)) (#match? @function.visibility "^defp?$")) @function
			(call target: (identifier) @function.visibility (arguments . (binary_operator left: (identifier) @function.name operator: "when")) (#match? @function.visibility "^defp?$")) @function
			(call target: (identifier) @function.visibility (arguments . (binary_operator left: (call target: (identifier) @function.name) operator: "when")) (#match? @function.visibility "^defp?$")) @function
			(call target: (identifier) @macro.visibility (arguments . (identifier) @macro.name) (#match? @macro.visibility "^defmacrop?$")) @macro
			(call target: (identifier) @macro.visibility (arguments . (call target: (identifier) @macro.name)) (#match? @macro.visibility "^defmacrop?$")) @macro
		`,
		References: `
			(call target: (dot left: (alias) @qualified_call.target right: (identifier) @qualified_call.name)) @qualified_call
			(call target: (identifier) @call.name) @call
			(call target: (identifier) @_kw (arguments (alias) @use.name) (#eq? @_kw "use")) @use
			(call target: (identifier) @_kw (arguments (alias) @require.name) (#eq? @_kw "require")) @require
			(call target: (identifier) @_kw (arguments (alias) @alias.name) (#eq? @_kw "alias")) @alias
			(call target: (identifier) @_kw (arguments (alias) @import.name) (#eq? @_kw "import")) @import
		`,
	},
}
