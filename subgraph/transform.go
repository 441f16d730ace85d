// Package subgraph turns an ordinary GraphQL schema into an Apollo
// Federation subgraph schema: it injects the _service reflection field, the
// _entities resolution field and the supporting federation declarations,
// and publishes the original schema's SDL with the machinery filtered out.
package subgraph

import (
	"io"
	"os"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/aknsk/fedesub/internal/federation"
	"github.com/aknsk/fedesub/wiring"
)

var blankPos = &ast.Position{
	Src: &ast.Source{},
}

// Transform starts a federation transform from a schema that has already
// been built. The schema's query type must have at least one field; if the
// caller padded an intentionally empty query type with placeholder fields,
// use TransformEmptyQuery instead.
func Transform(schema *Schema) *SchemaTransformer {
	return &SchemaTransformer{
		schema:         schema,
		coercingForAny: federation.AnyCoercing,
	}
}

// TransformEmptyQuery is Transform for schemas whose query type exists only
// to satisfy construction: every query field is dropped from the federated
// schema and hidden from the published SDL.
func TransformEmptyQuery(schema *Schema) *SchemaTransformer {
	st := Transform(schema)
	st.queryTypeShouldBeEmpty = true
	return st
}

// TransformRegistry builds a schema from a declaration registry and a
// wiring, then starts a transform on it. The registry is normalized first:
// a query root is synthesized when absent, and the federation directive and
// _FieldSet declarations are added unless the caller already declared them.
// A nil wiring means an empty one.
func TransformRegistry(registry *ast.SchemaDocument, w *wiring.Wiring) (*SchemaTransformer, error) {
	if w == nil {
		w = wiring.New()
	}
	queryTypeShouldBeEmpty := ensureQueryTypeExists(registry)
	w = ensureFederationDefinitions(registry, w, federation.Directives(), federation.FieldSetScalar())

	schema, err := makeExecutableSchema(registry, w)
	if err != nil {
		return nil, err
	}

	st := Transform(schema)
	st.queryTypeShouldBeEmpty = queryTypeShouldBeEmpty
	return st, nil
}

// TransformSDL parses schema source text and starts a transform on it.
func TransformSDL(sdl string, w *wiring.Wiring) (*SchemaTransformer, error) {
	return transformSource(&ast.Source{Name: "schema.graphql", Input: sdl}, w)
}

// TransformReader reads schema source text from r and starts a transform.
func TransformReader(r io.Reader, w *wiring.Wiring) (*SchemaTransformer, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return transformSource(&ast.Source{Name: "schema.graphql", Input: string(b)}, w)
}

// TransformFile reads schema source text from the named file and starts a
// transform.
func TransformFile(path string, w *wiring.Wiring) (*SchemaTransformer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return transformSource(&ast.Source{Name: path, Input: string(b)}, w)
}

func transformSource(source *ast.Source, w *wiring.Wiring) (*SchemaTransformer, error) {
	registry, gErr := parser.ParseSchema(source)
	if gErr != nil {
		return nil, gErr
	}
	return TransformRegistry(registry, w)
}

// ensureQueryTypeExists guarantees the registry declares a query root the
// schema builder will accept. Reports whether a placeholder field was
// injected; the transform strips it from both the exposed schema and the
// published SDL.
func ensureQueryTypeExists(registry *ast.SchemaDocument) bool {
	queryName := "Query"
	for _, schemaDef := range registry.Schema {
		for _, op := range schemaDef.OperationTypes {
			if op.Operation == ast.Query {
				queryName = op.Type
			}
		}
	}

	queryType := registry.Definitions.ForName(queryName)
	if queryType == nil {
		queryType = &ast.Definition{
			Kind:     ast.Object,
			Name:     queryName,
			Position: blankPos,
		}
	}

	addDummyField := queryType.Kind == ast.Object && len(queryType.Fields) == 0
	if addDummyField {
		for _, ext := range registry.Extensions {
			// An object type extension must declare at least one field, so
			// the built query type cannot end up empty.
			if ext.Name == queryName && ext.Kind == ast.Object {
				addDummyField = false
				break
			}
		}
	}
	if addDummyField {
		copied := *queryType
		copied.Fields = append(ast.FieldList{}, queryType.Fields...)
		copied.Fields = append(copied.Fields, &ast.FieldDefinition{
			Name:     federation.DummyFieldName,
			Type:     ast.NamedType("String", blankPos),
			Position: blankPos,
		})
		queryType = &copied
	}

	// Replace any previous declaration under the query root name.
	kept := make(ast.DefinitionList, 0, len(registry.Definitions)+1)
	for _, def := range registry.Definitions {
		if def.Name != queryName {
			kept = append(kept, def)
		}
	}
	registry.Definitions = append(kept, queryType)

	return addDummyField
}

// ensureFederationDefinitions adds the catalogue's directive definitions
// and the field-set scalar to the registry, caller declarations winning.
// When the wiring lacks a coercing for the field-set scalar, the returned
// wiring is a full clone of the original with that one binding added; the
// input wiring is never modified.
func ensureFederationDefinitions(registry *ast.SchemaDocument, w *wiring.Wiring, catalogue ast.DirectiveDefinitionList, fieldSet *ast.Definition) *wiring.Wiring {
	for _, def := range catalogue {
		if registry.Directives.ForName(def.Name) == nil {
			registry.Directives = append(registry.Directives, def)
		}
	}

	if registry.Definitions.ForName(fieldSet.Name) == nil {
		registry.Definitions = append(registry.Definitions, fieldSet)
	}

	if w.HasScalar(fieldSet.Name) {
		return w
	}
	return w.Clone().Scalar(fieldSet.Name, federation.FieldSetCoercing)
}
