package wiring

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
)

// ResolveEnv carries everything a data fetcher may observe while resolving
// one field of one object.
type ResolveEnv struct {
	Schema *ast.Schema
	Object *ast.Definition
	Field  *ast.FieldDefinition
	Args   map[string]interface{}
	Source interface{}
}

// DataFetcher produces the value of a single field.
type DataFetcher func(ctx context.Context, env *ResolveEnv) (interface{}, error)

// DataFetcherFactory builds a DataFetcher lazily, once the owning type and
// field definitions are known.
type DataFetcherFactory func(parent *ast.Definition, field *ast.FieldDefinition) DataFetcher

// TypeResolver names the concrete object type for a value resolved through
// an abstract (interface or union) type.
type TypeResolver func(ctx context.Context, value interface{}) (string, error)

// EnumValuesProvider maps a declared enum value name to its runtime value.
type EnumValuesProvider func(enumValue string) interface{}

// Coercing bundles the conversion logic for one scalar type. Any of the
// three functions may be nil, in which case values pass through untouched.
type Coercing struct {
	Serialize    func(value interface{}) (interface{}, error)
	ParseValue   func(value interface{}) (interface{}, error)
	ParseLiteral func(value *ast.Value) (interface{}, error)
}

// WiringFactory supplies fetchers and resolvers for fields and types that
// have no explicit binding.
type WiringFactory interface {
	DataFetcher(parent *ast.Definition, field *ast.FieldDefinition) (DataFetcher, bool)
	TypeResolver(def *ast.Definition) (TypeResolver, bool)
}

// DirectiveWiring rewrites a field's data fetcher based on a directive
// applied to that field.
type DirectiveWiring func(field *ast.FieldDefinition, directive *ast.Directive, next DataFetcher) DataFetcher

// ComparatorRegistry carries element ordering preferences. The bundled SDL
// printer orders lexicographically regardless; the registry exists so caller
// configuration survives transformation and is available to custom printers.
type ComparatorRegistry struct {
	Types      func(a, b *ast.Definition) bool
	Fields     func(a, b *ast.FieldDefinition) bool
	Arguments  func(a, b *ast.ArgumentDefinition) bool
	Directives func(a, b *ast.Directive) bool
}

// SchemaProcessor runs once against a freshly built schema and its code
// registry, before the schema is handed to the caller.
type SchemaProcessor func(schema *ast.Schema, registry *CodeRegistry)

// FieldVisibility restricts which fields of a container type are observable
// at read time. Implementations must not mutate the container.
type FieldVisibility interface {
	FieldDefinitions(container *ast.Definition) ast.FieldList
	FieldDefinition(container *ast.Definition, name string) *ast.FieldDefinition
}

type defaultVisibility struct{}

func (defaultVisibility) FieldDefinitions(container *ast.Definition) ast.FieldList {
	return container.Fields
}

func (defaultVisibility) FieldDefinition(container *ast.Definition, name string) *ast.FieldDefinition {
	return container.Fields.ForName(name)
}

// DefaultFieldVisibility exposes every field exactly as declared.
var DefaultFieldVisibility FieldVisibility = defaultVisibility{}
