package wiring

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// FieldCoordinates addresses one field of one type.
type FieldCoordinates struct {
	TypeName  string
	FieldName string
}

func Coordinates(typeName, fieldName string) FieldCoordinates {
	return FieldCoordinates{TypeName: typeName, FieldName: fieldName}
}

func (fc FieldCoordinates) String() string {
	return fc.TypeName + "." + fc.FieldName
}

// CodeRegistry holds the runtime bindings of a built schema: data fetchers
// by coordinates, type resolvers and scalar coercings by name, plus the
// field visibility rule. A schema transformation never mutates the registry
// it received; it works on a Clone.
type CodeRegistry struct {
	fetchers         map[FieldCoordinates]DataFetcher
	fetcherFactories map[FieldCoordinates]DataFetcherFactory
	defaultFetchers  map[string]DataFetcher
	typeResolvers    map[string]TypeResolver
	scalars          map[string]*Coercing
	factory          WiringFactory
	fieldVisibility  FieldVisibility
}

func NewCodeRegistry() *CodeRegistry {
	return &CodeRegistry{
		fetchers:         make(map[FieldCoordinates]DataFetcher),
		fetcherFactories: make(map[FieldCoordinates]DataFetcherFactory),
		defaultFetchers:  make(map[string]DataFetcher),
		typeResolvers:    make(map[string]TypeResolver),
		scalars:          make(map[string]*Coercing),
	}
}

// Clone copies every binding into a fresh registry.
func (r *CodeRegistry) Clone() *CodeRegistry {
	c := NewCodeRegistry()
	for coords, df := range r.fetchers {
		c.fetchers[coords] = df
	}
	for coords, f := range r.fetcherFactories {
		c.fetcherFactories[coords] = f
	}
	for name, df := range r.defaultFetchers {
		c.defaultFetchers[name] = df
	}
	for name, tr := range r.typeResolvers {
		c.typeResolvers[name] = tr
	}
	for name, coercing := range r.scalars {
		c.scalars[name] = coercing
	}
	c.factory = r.factory
	c.fieldVisibility = r.fieldVisibility
	return c
}

func (r *CodeRegistry) SetDataFetcher(coords FieldCoordinates, df DataFetcher) {
	delete(r.fetcherFactories, coords)
	r.fetchers[coords] = df
}

func (r *CodeRegistry) SetDataFetcherFactory(coords FieldCoordinates, f DataFetcherFactory) {
	delete(r.fetchers, coords)
	r.fetcherFactories[coords] = f
}

func (r *CodeRegistry) SetDefaultDataFetcher(typeName string, df DataFetcher) {
	r.defaultFetchers[typeName] = df
}

func (r *CodeRegistry) SetTypeResolver(typeName string, tr TypeResolver) {
	r.typeResolvers[typeName] = tr
}

func (r *CodeRegistry) SetScalar(typeName string, coercing *Coercing) {
	r.scalars[typeName] = coercing
}

func (r *CodeRegistry) SetWiringFactory(factory WiringFactory) {
	r.factory = factory
}

func (r *CodeRegistry) SetFieldVisibility(visibility FieldVisibility) {
	r.fieldVisibility = visibility
}

// HasDataFetcher reports whether a fetcher or a fetcher factory is bound at
// the given coordinates. Default fetchers and the wiring factory do not
// count: they are fallbacks, not explicit bindings.
func (r *CodeRegistry) HasDataFetcher(coords FieldCoordinates) bool {
	if _, ok := r.fetchers[coords]; ok {
		return true
	}
	_, ok := r.fetcherFactories[coords]
	return ok
}

func (r *CodeRegistry) HasTypeResolver(typeName string) bool {
	_, ok := r.typeResolvers[typeName]
	return ok
}

// DataFetcherFor resolves the fetcher for a field: explicit binding, then
// factory binding, then the type's default fetcher, then the wiring factory.
// Returns nil when nothing is bound.
func (r *CodeRegistry) DataFetcherFor(parent *ast.Definition, field *ast.FieldDefinition) DataFetcher {
	coords := Coordinates(parent.Name, field.Name)
	if df, ok := r.fetchers[coords]; ok {
		return df
	}
	if f, ok := r.fetcherFactories[coords]; ok {
		return f(parent, field)
	}
	if df, ok := r.defaultFetchers[parent.Name]; ok {
		return df
	}
	if r.factory != nil {
		if df, ok := r.factory.DataFetcher(parent, field); ok {
			return df
		}
	}
	return nil
}

// TypeResolverFor resolves the type resolver for an abstract type, falling
// back to the wiring factory. Returns nil when nothing is bound.
func (r *CodeRegistry) TypeResolverFor(def *ast.Definition) TypeResolver {
	if tr, ok := r.typeResolvers[def.Name]; ok {
		return tr
	}
	if r.factory != nil {
		if tr, ok := r.factory.TypeResolver(def); ok {
			return tr
		}
	}
	return nil
}

func (r *CodeRegistry) ScalarFor(typeName string) *Coercing {
	return r.scalars[typeName]
}

// FieldVisibility never returns nil; absent configuration means every field
// is visible.
func (r *CodeRegistry) FieldVisibility() FieldVisibility {
	if r.fieldVisibility == nil {
		return DefaultFieldVisibility
	}
	return r.fieldVisibility
}
