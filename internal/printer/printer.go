// Package printer renders a schema to SDL while suppressing a configured
// set of directive and type definitions. It composes over gqlparser's
// formatter: filtering happens on a shallow view of the schema, so the
// input graph is never mutated and stays safe for concurrent readers.
package printer

import (
	"bytes"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// FieldVisibility is the read-time field filter the printer honors for
// object and interface types. wiring.FieldVisibility satisfies it.
type FieldVisibility interface {
	FieldDefinitions(container *ast.Definition) ast.FieldList
}

// Options configure what the printer suppresses. Nil predicates include
// everything; a nil FieldVisibility shows every field.
type Options struct {
	IncludeDirectiveDefinition func(def *ast.DirectiveDefinition) bool
	IncludeTypeDefinition      func(def *ast.Definition) bool
	FieldVisibility            FieldVisibility
}

// Print renders the schema as deterministic SDL under the given options.
// Ordering and formatting follow the base formatter's contract: type and
// directive definitions sorted by name, built-in declarations omitted.
func Print(schema *ast.Schema, opts Options) string {
	view := &ast.Schema{
		Query:         schema.Query,
		Mutation:      schema.Mutation,
		Subscription:  schema.Subscription,
		Types:         make(map[string]*ast.Definition, len(schema.Types)),
		Directives:    make(map[string]*ast.DirectiveDefinition, len(schema.Directives)),
		PossibleTypes: schema.PossibleTypes,
		Implements:    schema.Implements,
	}

	for name, def := range schema.Types {
		if opts.IncludeTypeDefinition != nil && !opts.IncludeTypeDefinition(def) {
			continue
		}
		view.Types[name] = filterFields(def, opts.FieldVisibility)
	}

	// The root operation pointers must follow their (possibly copied)
	// definitions so the formatter sees a consistent graph.
	if view.Query != nil {
		if def, ok := view.Types[view.Query.Name]; ok {
			view.Query = def
		}
	}
	if view.Mutation != nil {
		if def, ok := view.Types[view.Mutation.Name]; ok {
			view.Mutation = def
		}
	}
	if view.Subscription != nil {
		if def, ok := view.Types[view.Subscription.Name]; ok {
			view.Subscription = def
		}
	}

	for name, def := range schema.Directives {
		if opts.IncludeDirectiveDefinition != nil && !opts.IncludeDirectiveDefinition(def) {
			continue
		}
		view.Directives[name] = def
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchema(view)
	return buf.String()
}

func filterFields(def *ast.Definition, visibility FieldVisibility) *ast.Definition {
	if visibility == nil {
		return def
	}
	if def.Kind != ast.Object && def.Kind != ast.Interface {
		return def
	}
	visible := visibility.FieldDefinitions(def)
	if len(visible) == len(def.Fields) {
		return def
	}
	copied := *def
	copied.Fields = visible
	return &copied
}
