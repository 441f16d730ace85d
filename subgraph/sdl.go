package subgraph

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/aknsk/fedesub/internal/federation"
	"github.com/aknsk/fedesub/internal/graphql"
	"github.com/aknsk/fedesub/internal/printer"
)

// SDL renders the schema as the SDL a federation gateway should consume:
// the federation directive definitions, the machinery types and the
// specified (built-in) directive definitions are all suppressed, while @key
// and friends applied to the caller's types stay visible.
func SDL(s *Schema) string {
	return FilteredSDL(s, false)
}

// FilteredSDL is SDL with control over the query type: when
// queryTypeShouldBeEmpty is set the query type's own fields are hidden,
// leaving only the declaration the schema builder required.
func FilteredSDL(s *Schema, queryTypeShouldBeEmpty bool) string {
	hiddenDirectives := make(map[string]struct{})
	for _, name := range graphql.SpecifiedDirectiveNames() {
		hiddenDirectives[name] = struct{}{}
	}
	for _, name := range federation.DirectiveNames() {
		hiddenDirectives[name] = struct{}{}
	}

	hiddenTypes := map[string]struct{}{
		federation.AnyTypeName:      {},
		federation.EntityTypeName:   {},
		federation.FieldSetTypeName: {},
		federation.ServiceTypeName:  {},
	}

	var visibility printer.FieldVisibility = s.CodeRegistry.FieldVisibility()
	if queryTypeShouldBeEmpty {
		visibility = hideTypeFields{
			typeName: s.Schema.Query.Name,
			next:     visibility,
		}
	}

	return printer.Print(s.Schema, printer.Options{
		IncludeDirectiveDefinition: func(def *ast.DirectiveDefinition) bool {
			_, hidden := hiddenDirectives[def.Name]
			return !hidden
		},
		IncludeTypeDefinition: func(def *ast.Definition) bool {
			_, hidden := hiddenTypes[def.Name]
			return !hidden
		},
		FieldVisibility: visibility,
	})
}

// hideTypeFields suppresses every field of one named type and defers to the
// wrapped visibility everywhere else.
type hideTypeFields struct {
	typeName string
	next     printer.FieldVisibility
}

func (v hideTypeFields) FieldDefinitions(container *ast.Definition) ast.FieldList {
	if container.Name == v.typeName {
		return nil
	}
	return v.next.FieldDefinitions(container)
}
