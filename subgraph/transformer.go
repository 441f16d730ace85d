package subgraph

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/aknsk/fedesub/internal/federation"
	"github.com/aknsk/fedesub/internal/log"
	"github.com/aknsk/fedesub/wiring"
)

// SchemaTransformer augments one built schema with the federation
// machinery. Configuration is optional and fluent; Build executes the
// whole transformation in one pass and either returns a new Schema or
// fails atomically with every validation problem aggregated.
type SchemaTransformer struct {
	schema                 *Schema
	queryTypeShouldBeEmpty bool

	entityTypeResolver     wiring.TypeResolver
	entitiesDataFetcher    wiring.DataFetcher
	entitiesFetcherFactory wiring.DataFetcherFactory
	coercingForAny         *wiring.Coercing
}

// ResolveEntityType sets the type resolver discriminating _Entity values.
func (st *SchemaTransformer) ResolveEntityType(tr wiring.TypeResolver) *SchemaTransformer {
	st.entityTypeResolver = tr
	return st
}

// FetchEntities sets the data fetcher for Query._entities. Clears any
// fetcher factory set before; the two are mutually exclusive.
func (st *SchemaTransformer) FetchEntities(df wiring.DataFetcher) *SchemaTransformer {
	st.entitiesDataFetcher = df
	st.entitiesFetcherFactory = nil
	return st
}

// FetchEntitiesFactory sets the data fetcher factory for Query._entities.
// Clears any fetcher set before; the two are mutually exclusive.
func (st *SchemaTransformer) FetchEntitiesFactory(f wiring.DataFetcherFactory) *SchemaTransformer {
	st.entitiesDataFetcher = nil
	st.entitiesFetcherFactory = f
	return st
}

// CoercingForAny overrides the coercing bound to the _Any scalar. It only
// applies when the transform itself adds _Any; a caller-declared _Any type
// keeps whatever the caller bound.
func (st *SchemaTransformer) CoercingForAny(coercing *wiring.Coercing) *SchemaTransformer {
	st.coercingForAny = coercing
	return st
}

// serviceSentinel is the value Query._service resolves to. _Service.sdl
// never reads it; it only marks the parent object as present.
var serviceSentinel = &struct{}{}

// Build runs the transformation and returns the federated schema. The
// input schema is left untouched; on failure every detected problem is
// returned together as one gqlerror.List and no schema is observable.
func (st *SchemaTransformer) Build(ctx context.Context) (*Schema, error) {
	logger := log.FromContext(ctx)
	var errs gqlerror.List

	original := st.schema
	originalQuery := original.Schema.Query
	newRegistry := original.CodeRegistry.Clone()

	// Capture the publishable SDL before any mutation. _Service.sdl serves
	// this exact text for the lifetime of the schema; it is never
	// recomputed per request.
	sdl := FilteredSDL(original, st.queryTypeShouldBeEmpty)

	newQuery := *originalQuery
	newQuery.Fields = append(ast.FieldList{}, originalQuery.Fields...)
	if st.queryTypeShouldBeEmpty {
		// The federation-exposed root starts clean: every original field
		// was placeholder padding, not just the injected one.
		newQuery.Fields = nil
	}
	newQuery.Fields = append(newQuery.Fields, federation.ServiceField())

	newRegistry.SetDataFetcher(
		wiring.Coordinates(originalQuery.Name, federation.ServiceFieldName),
		func(ctx context.Context, env *wiring.ResolveEnv) (interface{}, error) {
			return serviceSentinel, nil
		},
	)
	newRegistry.SetDataFetcher(
		wiring.Coordinates(federation.ServiceTypeName, federation.SDLFieldName),
		func(ctx context.Context, env *wiring.ResolveEnv) (interface{}, error) {
			return sdl, nil
		},
	)

	entityNames := entityTypeNames(original.Schema)
	var entityUnion *ast.Definition
	var anyType *ast.Definition
	if len(entityNames) != 0 {
		logger.V(1).Info("entity types discovered", "types", entityNames)

		newQuery.Fields = append(newQuery.Fields, federation.EntitiesField())

		var err error
		entityUnion, err = federation.EntityUnion(entityNames)
		if err != nil {
			// Unreachable: entityNames was checked non-empty above.
			return nil, err
		}

		if original.Schema.Types[federation.AnyTypeName] == nil {
			anyType = federation.AnyType()
		}

		if st.entityTypeResolver != nil {
			newRegistry.SetTypeResolver(federation.EntityTypeName, st.entityTypeResolver)
		} else if !newRegistry.HasTypeResolver(federation.EntityTypeName) {
			errs = append(errs, gqlerror.Errorf("Missing a type resolver for %s", federation.EntityTypeName))
		}

		entitiesCoords := wiring.Coordinates(originalQuery.Name, federation.EntitiesFieldName)
		switch {
		case st.entitiesDataFetcher != nil:
			newRegistry.SetDataFetcher(entitiesCoords, st.entitiesDataFetcher)
		case st.entitiesFetcherFactory != nil:
			newRegistry.SetDataFetcherFactory(entitiesCoords, st.entitiesFetcherFactory)
		case !newRegistry.HasDataFetcher(entitiesCoords):
			errs = append(errs, gqlerror.Errorf("Missing a data fetcher for %s", federation.EntitiesFieldName))
		}
	}

	if len(errs) != 0 {
		return nil, errs
	}

	newSchema := &ast.Schema{
		Query:         &newQuery,
		Mutation:      original.Schema.Mutation,
		Subscription:  original.Schema.Subscription,
		Types:         make(map[string]*ast.Definition, len(original.Schema.Types)+3),
		Directives:    make(map[string]*ast.DirectiveDefinition, len(original.Schema.Directives)),
		PossibleTypes: make(map[string][]*ast.Definition),
		Implements:    make(map[string][]*ast.Definition),
	}
	for name, def := range original.Schema.Types {
		newSchema.Types[name] = def
	}
	newSchema.Types[newQuery.Name] = &newQuery
	newSchema.Types[federation.ServiceTypeName] = federation.ServiceType()
	if entityUnion != nil {
		newSchema.Types[entityUnion.Name] = entityUnion
	}
	if anyType != nil {
		newSchema.Types[anyType.Name] = anyType
		newRegistry.SetScalar(anyType.Name, st.coercingForAny)
	}
	for name, def := range original.Schema.Directives {
		newSchema.Directives[name] = def
	}
	for _, def := range newSchema.Types {
		switch def.Kind {
		case ast.Union:
			for _, member := range def.Types {
				newSchema.AddPossibleType(def.Name, newSchema.Types[member])
				newSchema.AddImplements(member, def)
			}
		case ast.InputObject, ast.Object:
			for _, intf := range def.Interfaces {
				newSchema.AddPossibleType(intf, def)
				newSchema.AddImplements(def.Name, newSchema.Types[intf])
			}
			newSchema.AddPossibleType(def.Name, def)
		}
	}

	return &Schema{
		Schema:       newSchema,
		CodeRegistry: newRegistry,
	}, nil
}
