package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-logr/logr/testr"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/aknsk/fedesub/internal/federation"
	"github.com/aknsk/fedesub/internal/log"
	"github.com/aknsk/fedesub/wiring"
)

func testContext(t *testing.T) context.Context {
	return log.WithLogger(context.Background(), testr.New(t))
}

func noopEntitiesFetcher(ctx context.Context, env *wiring.ResolveEnv) (interface{}, error) {
	return nil, nil
}

func noopEntityTypeResolver(ctx context.Context, value interface{}) (string, error) {
	return "", nil
}

const productSDL = `
type Query {
	topProducts(first: Int = 5): [Product]
}

type Product @key(fields: "upc") {
	upc: String!
	name: String
	price: Int
}
`

func TestTransformSDL(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	query := s.Schema.Query
	if query.Fields.ForName(federation.ServiceFieldName) == nil {
		t.Error("_service field is missing on the query type")
	}
	if query.Fields.ForName(federation.EntitiesFieldName) == nil {
		t.Error("_entities field is missing on the query type")
	}
	if query.Fields.ForName("topProducts") == nil {
		t.Error("original query field went missing")
	}

	service := s.Schema.Types[federation.ServiceTypeName]
	if service == nil || service.Fields.ForName(federation.SDLFieldName) == nil {
		t.Error("_Service type is missing or lacks the sdl field")
	}

	entity := s.Schema.Types[federation.EntityTypeName]
	if entity == nil {
		t.Fatal("_Entity union is missing")
	}
	if len(entity.Types) != 1 || entity.Types[0] != "Product" {
		t.Errorf("unexpected _Entity members: %v", entity.Types)
	}

	if s.Schema.Types[federation.AnyTypeName] == nil {
		t.Error("_Any scalar is missing")
	}
	if s.CodeRegistry.ScalarFor(federation.AnyTypeName) != federation.AnyCoercing {
		t.Error("_Any did not get the default coercing")
	}

	possible := s.Schema.GetPossibleTypes(entity)
	if len(possible) != 1 || possible[0].Name != "Product" {
		t.Errorf("unexpected possible types for _Entity: %v", possible)
	}
}

func TestBuild_missingResolvers(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = st.Build(testContext(t))
	if err == nil {
		t.Fatal("expected an error")
	}

	var gErrs gqlerror.List
	if !errors.As(err, &gErrs) {
		t.Fatalf("expected a gqlerror.List, got %T", err)
	}
	if len(gErrs) != 2 {
		t.Fatalf("expected 2 errors, got %v", gErrs)
	}
	if gErrs[0].Message != "Missing a type resolver for _Entity" {
		t.Errorf("unexpected message: %s", gErrs[0].Message)
	}
	if gErrs[1].Message != "Missing a data fetcher for _entities" {
		t.Errorf("unexpected message: %s", gErrs[1].Message)
	}
}

func TestBuild_noEntities(t *testing.T) {
	st, err := TransformSDL(heredoc.Doc(`
		type Query {
			hello: String
		}
	`), nil)
	if err != nil {
		t.Fatal(err)
	}

	// Without @key there is nothing to resolve, so the entity-side
	// configuration is not required.
	s, err := st.Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if s.Schema.Query.Fields.ForName(federation.ServiceFieldName) == nil {
		t.Error("_service field is missing on the query type")
	}
	if s.Schema.Query.Fields.ForName(federation.EntitiesFieldName) != nil {
		t.Error("_entities must not exist without entity types")
	}
	if s.Schema.Types[federation.EntityTypeName] != nil {
		t.Error("_Entity must not exist without entity types")
	}
	if s.Schema.Types[federation.AnyTypeName] != nil {
		t.Error("_Any must not exist without entity types")
	}
}

func TestBuild_interfaceCarriedKey(t *testing.T) {
	st, err := TransformSDL(heredoc.Doc(`
		type Query {
			products: [Product]
		}

		interface Identifiable @key(fields: "id") {
			id: ID!
		}

		type Product implements Identifiable {
			id: ID!
			name: String
		}

		type Review {
			body: String
		}
	`), nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	entity := s.Schema.Types[federation.EntityTypeName]
	if entity == nil {
		t.Fatal("_Entity union is missing")
	}
	// Product joins through its interface; the interface itself and the
	// keyless Review do not.
	if len(entity.Types) != 1 || entity.Types[0] != "Product" {
		t.Errorf("unexpected _Entity members: %v", entity.Types)
	}
}

func TestBuild_callerDeclaredAny(t *testing.T) {
	st, err := TransformSDL(heredoc.Doc(`
		scalar _Any

		type Query {
			topProducts: [Product]
		}

		type Product @key(fields: "upc") {
			upc: String!
		}
	`), nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if s.Schema.Types[federation.AnyTypeName] != st.schema.Schema.Types[federation.AnyTypeName] {
		t.Error("caller-declared _Any was replaced")
	}
	if s.CodeRegistry.ScalarFor(federation.AnyTypeName) != nil {
		t.Error("caller-declared _Any must keep the caller's coercing binding")
	}
}

func TestBuild_inputSchemaUntouched(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}
	original := st.schema
	fieldsBefore := len(original.Schema.Query.Fields)

	_, err = st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if len(original.Schema.Query.Fields) != fieldsBefore {
		t.Error("input query type gained fields")
	}
	if original.Schema.Types[federation.ServiceTypeName] != nil {
		t.Error("input schema gained the _Service type")
	}
	if original.CodeRegistry.HasDataFetcher(wiring.Coordinates("Query", federation.ServiceFieldName)) {
		t.Error("input code registry gained the _service fetcher")
	}
}

func TestBuild_preRegisteredEntityWiring(t *testing.T) {
	w := wiring.New().
		FieldFetcher("Query", federation.EntitiesFieldName, noopEntitiesFetcher).
		TypeResolver(federation.EntityTypeName, noopEntityTypeResolver)

	st, err := TransformSDL(productSDL, w)
	if err != nil {
		t.Fatal(err)
	}

	// The wiring already covers both requirements; Build needs no fluent
	// configuration.
	if _, err := st.Build(testContext(t)); err != nil {
		t.Fatal(err)
	}
}

func TestBuild_fetcherFactory(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	factoryUsed := false
	s, err := st.
		FetchEntitiesFactory(func(parent *ast.Definition, field *ast.FieldDefinition) wiring.DataFetcher {
			factoryUsed = true
			return noopEntitiesFetcher
		}).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	query := s.Schema.Query
	df := s.CodeRegistry.DataFetcherFor(query, query.Fields.ForName(federation.EntitiesFieldName))
	if df == nil {
		t.Fatal("no fetcher resolved for _entities")
	}
	if !factoryUsed {
		t.Error("factory was not consulted")
	}
}

func TestTransformSDL_missingQueryType(t *testing.T) {
	st, err := TransformSDL(heredoc.Doc(`
		type Product @key(fields: "upc") {
			upc: String!
		}
	`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !st.queryTypeShouldBeEmpty {
		t.Error("expected the synthesized query type to be marked empty")
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	// The placeholder exists only to satisfy schema construction.
	if s.Schema.Query.Fields.ForName(federation.DummyFieldName) != nil {
		t.Error("placeholder field leaked into the federated schema")
	}
	if s.Schema.Query.Fields.ForName(federation.EntitiesFieldName) == nil {
		t.Error("_entities field is missing on the query type")
	}

	sdl := serviceSDL(t, s)
	if strings.Contains(sdl, federation.DummyFieldName) {
		t.Errorf("placeholder field leaked into the published SDL: %s", sdl)
	}
}

func TestTransformSDL_queryTypeExtension(t *testing.T) {
	// An object extension must declare a field, so the built query type
	// cannot be empty and no placeholder is needed.
	st, err := TransformSDL(heredoc.Doc(`
		extend type Query {
			topProducts: [Product]
		}

		type Product @key(fields: "upc") {
			upc: String!
		}
	`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.queryTypeShouldBeEmpty {
		t.Error("extension-declared fields must suppress the placeholder")
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if s.Schema.Query.Fields.ForName("topProducts") == nil {
		t.Error("extension field went missing")
	}
}

func TestBuild_coercingForAnyOverride(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	custom := &wiring.Coercing{}
	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		CoercingForAny(custom).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if s.CodeRegistry.ScalarFor(federation.AnyTypeName) != custom {
		t.Error("_Any coercing override was not applied")
	}
}

func TestTransform_prebuiltSchema(t *testing.T) {
	registry, gErr := parser.ParseSchema(&ast.Source{
		Name:  "test.graphqls",
		Input: productSDL,
	})
	if gErr != nil {
		t.Fatal(gErr)
	}
	for _, def := range federation.Directives() {
		registry.Directives = append(registry.Directives, def)
	}
	registry.Definitions = append(registry.Definitions, federation.FieldSetScalar())

	schema, err := makeExecutableSchema(registry, wiring.New())
	if err != nil {
		t.Fatal(err)
	}

	s, err := Transform(schema).
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if s.Schema.Query.Fields.ForName(federation.ServiceFieldName) == nil {
		t.Error("_service field is missing on the query type")
	}
	if s.Schema.Query.Fields.ForName("topProducts") == nil {
		t.Error("original query field went missing")
	}
}

func TestTransformEmptyQuery(t *testing.T) {
	registry, gErr := parser.ParseSchema(&ast.Source{
		Name: "test.graphqls",
		Input: heredoc.Doc(`
			type Query {
				placeholder: String
			}

			type Product @key(fields: "upc") {
				upc: String!
			}
		`),
	})
	if gErr != nil {
		t.Fatal(gErr)
	}
	for _, def := range federation.Directives() {
		registry.Directives = append(registry.Directives, def)
	}
	registry.Definitions = append(registry.Definitions, federation.FieldSetScalar())

	schema, err := makeExecutableSchema(registry, wiring.New())
	if err != nil {
		t.Fatal(err)
	}

	s, err := TransformEmptyQuery(schema).
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	// Every caller-declared query field was padding; only the federation
	// fields survive.
	if s.Schema.Query.Fields.ForName("placeholder") != nil {
		t.Error("padding field leaked into the federated schema")
	}
	if s.Schema.Query.Fields.ForName(federation.ServiceFieldName) == nil {
		t.Error("_service field is missing on the query type")
	}

	sdl := serviceSDL(t, s)
	if strings.Contains(sdl, "placeholder") {
		t.Errorf("padding field leaked into the published SDL: %s", sdl)
	}
}

func TestTransformReader(t *testing.T) {
	st, err := TransformReader(strings.NewReader(productSDL), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.FetchEntities(noopEntitiesFetcher).ResolveEntityType(noopEntityTypeResolver).Build(testContext(t)); err != nil {
		t.Fatal(err)
	}
}

func TestTransformFile(t *testing.T) {
	st, err := TransformFile("./testdata/transform/assets/product.graphqls", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.FetchEntities(noopEntitiesFetcher).ResolveEntityType(noopEntityTypeResolver).Build(testContext(t)); err != nil {
		t.Fatal(err)
	}

	if _, err := TransformFile("./testdata/transform/assets/does_not_exist.graphqls", nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// serviceSDL executes { _service { sdl } } against the schema and returns
// the published SDL, the way a composing gateway obtains it.
func serviceSDL(t *testing.T, s *Schema) string {
	t.Helper()

	resp := s.Execute(testContext(t), `{ _service { sdl } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatal(resp.Errors)
	}

	var data struct {
		Service struct {
			SDL string `json:"sdl"`
		} `json:"_service"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	return data.Service.SDL
}

func TestServiceSDL_hidesMachinery(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	sdl := serviceSDL(t, s)

	for _, hidden := range []string{
		"_Service", "_Entity", "_Any", "_FieldSet", "_service", "_entities",
		"directive @key", "directive @external", "directive @requires",
		"directive @provides", "directive @extends",
		"directive @skip", "directive @include",
		"directive @deprecated", "directive @specifiedBy",
	} {
		if strings.Contains(sdl, hidden) {
			t.Errorf("%q leaked into the published SDL:\n%s", hidden, sdl)
		}
	}

	if !strings.Contains(sdl, `@key(fields: "upc")`) {
		t.Errorf("@key application went missing from the published SDL:\n%s", sdl)
	}
	if !strings.Contains(sdl, "topProducts") {
		t.Errorf("original query field went missing from the published SDL:\n%s", sdl)
	}

	// A gateway must be able to parse what we publish.
	if _, gErr := parser.ParseSchema(&ast.Source{Name: "published.graphql", Input: sdl}); gErr != nil {
		t.Errorf("published SDL does not parse: %v", gErr)
	}
}

func TestExecute_malformedQuery(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	resp := s.Execute(testContext(t), `{ _service {`, nil)
	if len(resp.Errors) == 0 {
		t.Fatal("expected a parse error in the response")
	}
	if len(resp.Data) != 0 {
		t.Errorf("expected no data, got %s", resp.Data)
	}
}

func TestTransformSDL_singleEntitySubgraph(t *testing.T) {
	sdl := heredoc.Doc(`
		type Query {
			hello: String
		}

		type Product @key(fields: "id") {
			id: ID!
		}
	`)

	// Entity-side configuration is mandatory once @key appears, and both
	// omissions report together.
	st, err := TransformSDL(sdl, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = st.Build(testContext(t))
	var gErrs gqlerror.List
	if !errors.As(err, &gErrs) || len(gErrs) != 2 {
		t.Fatalf("expected 2 aggregated errors, got %v", err)
	}
	if gErrs[0].Message != "Missing a type resolver for _Entity" {
		t.Errorf("unexpected message: %s", gErrs[0].Message)
	}
	if gErrs[1].Message != "Missing a data fetcher for _entities" {
		t.Errorf("unexpected message: %s", gErrs[1].Message)
	}

	st, err = TransformSDL(sdl, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := st.
		FetchEntities(noopEntitiesFetcher).
		ResolveEntityType(noopEntityTypeResolver).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	entity := s.Schema.Types[federation.EntityTypeName]
	if entity == nil || len(entity.Types) != 1 || entity.Types[0] != "Product" {
		t.Fatalf("unexpected _Entity members: %v", entity)
	}

	sdlOut := serviceSDL(t, s)
	if !strings.Contains(sdlOut, "type Product") {
		t.Errorf("entity type went missing from the published SDL:\n%s", sdlOut)
	}
	if !strings.Contains(sdlOut, `@key(fields: "id")`) {
		t.Errorf("@key application went missing from the published SDL:\n%s", sdlOut)
	}
	for _, hidden := range []string{"_Any", "_Entity", "_Service"} {
		if strings.Contains(sdlOut, hidden) {
			t.Errorf("%q leaked into the published SDL:\n%s", hidden, sdlOut)
		}
	}
}

func TestExecuteEntities(t *testing.T) {
	st, err := TransformSDL(productSDL, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := st.
		FetchEntities(func(ctx context.Context, env *wiring.ResolveEnv) (interface{}, error) {
			reps := env.Args["representations"].([]interface{})
			entities := make([]interface{}, 0, len(reps))
			for _, rep := range reps {
				rep := rep.(map[string]interface{})
				entities = append(entities, map[string]interface{}{
					"__typename": rep["__typename"],
					"upc":        rep["upc"],
					"name":       "resolved",
				})
			}
			return entities, nil
		}).
		ResolveEntityType(func(ctx context.Context, value interface{}) (string, error) {
			return value.(map[string]interface{})["__typename"].(string), nil
		}).
		Build(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	query := heredoc.Doc(`
		query ($representations: [_Any!]!) {
			_entities(representations: $representations) {
				... on Product {
					upc
					name
				}
			}
		}
	`)
	resp := s.Execute(testContext(t), query, map[string]interface{}{
		"representations": []interface{}{
			map[string]interface{}{"__typename": "Product", "upc": "p1"},
		},
	})
	if len(resp.Errors) != 0 {
		t.Fatal(resp.Errors)
	}

	expected := `{"_entities":[{"upc":"p1","name":"resolved"}]}`
	if string(resp.Data) != expected {
		t.Errorf("unexpected data:\nexpected: %s\nactual:   %s", expected, resp.Data)
	}
}
