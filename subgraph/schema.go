package subgraph

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/aknsk/fedesub/wiring"
)

// Schema pairs a built schema graph with the code registry that carries its
// runtime bindings. Once returned by a build it is immutable: transforming
// it always produces a new Schema, and concurrent reads need no locking.
type Schema struct {
	Schema       *ast.Schema
	CodeRegistry *wiring.CodeRegistry
}

// makeExecutableSchema turns a declaration registry plus wiring into a built
// schema. The registry is merged on top of the validator prelude, so the
// standard scalars and directives are always available; redeclaring one of
// them is a registry error and surfaces as such.
func makeExecutableSchema(registry *ast.SchemaDocument, w *wiring.Wiring) (*Schema, error) {
	doc, gErr := parser.ParseSchema(validator.Prelude)
	if gErr != nil {
		return nil, gErr
	}
	doc.Definitions = append(doc.Definitions, registry.Definitions...)
	doc.Extensions = append(doc.Extensions, registry.Extensions...)
	doc.Directives = append(doc.Directives, registry.Directives...)
	doc.Schema = append(doc.Schema, registry.Schema...)
	doc.SchemaExtension = append(doc.SchemaExtension, registry.SchemaExtension...)

	schema, gErr := validator.ValidateSchemaDocument(doc)
	if gErr != nil {
		return nil, gErr
	}

	return &Schema{
		Schema:       schema,
		CodeRegistry: w.CodeRegistryFor(schema),
	}, nil
}
