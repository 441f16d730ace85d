// Package wiring binds runtime behavior to schema declarations: data
// fetchers per field, type resolvers and coercings per type name, and the
// surrounding configuration a schema build consumes.
package wiring

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// Wiring collects resolver bindings before a schema is built. The zero
// value is not usable; construct with New.
type Wiring struct {
	fieldFetchers   map[string]map[string]DataFetcher
	defaultFetchers map[string]DataFetcher
	typeResolvers   map[string]TypeResolver
	enumValues      map[string]EnumValuesProvider
	scalars         map[string]*Coercing
	factory         WiringFactory
	codeRegistry    *CodeRegistry
	fieldVisibility FieldVisibility
	namedDirectives map[string]DirectiveWiring
	directiveWiring []DirectiveWiring
	comparators     *ComparatorRegistry
	processors      []SchemaProcessor
}

func New() *Wiring {
	return &Wiring{
		fieldFetchers:   make(map[string]map[string]DataFetcher),
		defaultFetchers: make(map[string]DataFetcher),
		typeResolvers:   make(map[string]TypeResolver),
		enumValues:      make(map[string]EnumValuesProvider),
		scalars:         make(map[string]*Coercing),
		namedDirectives: make(map[string]DirectiveWiring),
	}
}

func (w *Wiring) FieldFetcher(typeName, fieldName string, df DataFetcher) *Wiring {
	fields := w.fieldFetchers[typeName]
	if fields == nil {
		fields = make(map[string]DataFetcher)
		w.fieldFetchers[typeName] = fields
	}
	fields[fieldName] = df
	return w
}

func (w *Wiring) DefaultFetcher(typeName string, df DataFetcher) *Wiring {
	w.defaultFetchers[typeName] = df
	return w
}

func (w *Wiring) TypeResolver(typeName string, tr TypeResolver) *Wiring {
	w.typeResolvers[typeName] = tr
	return w
}

func (w *Wiring) EnumValues(typeName string, provider EnumValuesProvider) *Wiring {
	w.enumValues[typeName] = provider
	return w
}

func (w *Wiring) Scalar(typeName string, coercing *Coercing) *Wiring {
	w.scalars[typeName] = coercing
	return w
}

func (w *Wiring) Factory(factory WiringFactory) *Wiring {
	w.factory = factory
	return w
}

func (w *Wiring) CodeRegistry(registry *CodeRegistry) *Wiring {
	w.codeRegistry = registry
	return w
}

func (w *Wiring) FieldVisibility(visibility FieldVisibility) *Wiring {
	w.fieldVisibility = visibility
	return w
}

// Directive registers directive wiring for one directive name.
func (w *Wiring) Directive(name string, dw DirectiveWiring) *Wiring {
	w.namedDirectives[name] = dw
	return w
}

// DirectiveWiring registers directive wiring that sees every directive.
func (w *Wiring) DirectiveWiring(dw DirectiveWiring) *Wiring {
	w.directiveWiring = append(w.directiveWiring, dw)
	return w
}

func (w *Wiring) Comparators(comparators *ComparatorRegistry) *Wiring {
	w.comparators = comparators
	return w
}

func (w *Wiring) Processor(processor SchemaProcessor) *Wiring {
	w.processors = append(w.processors, processor)
	return w
}

func (w *Wiring) HasScalar(typeName string) bool {
	_, ok := w.scalars[typeName]
	return ok
}

// Clone returns a wiring with every property copied into fresh storage.
// There is deliberately no shortcut here: each property is enumerated one
// by one so a newly added property cannot be dropped silently. The clone
// round-trip test fails when this enumeration and the struct drift apart.
func (w *Wiring) Clone() *Wiring {
	c := New()
	for typeName, fields := range w.fieldFetchers {
		copied := make(map[string]DataFetcher, len(fields))
		for fieldName, df := range fields {
			copied[fieldName] = df
		}
		c.fieldFetchers[typeName] = copied
	}
	for typeName, df := range w.defaultFetchers {
		c.defaultFetchers[typeName] = df
	}
	for typeName, tr := range w.typeResolvers {
		c.typeResolvers[typeName] = tr
	}
	for typeName, provider := range w.enumValues {
		c.enumValues[typeName] = provider
	}
	for typeName, coercing := range w.scalars {
		c.scalars[typeName] = coercing
	}
	c.factory = w.factory
	if w.codeRegistry != nil {
		c.codeRegistry = w.codeRegistry.Clone()
	}
	c.fieldVisibility = w.fieldVisibility
	for name, dw := range w.namedDirectives {
		c.namedDirectives[name] = dw
	}
	c.directiveWiring = append([]DirectiveWiring(nil), w.directiveWiring...)
	c.comparators = w.comparators
	c.processors = append([]SchemaProcessor(nil), w.processors...)
	return c
}

// CodeRegistryFor merges the wiring into a code registry for the given
// built schema. Field fetchers are wrapped with any applicable directive
// wiring; schema processors run last, against the finished registry.
func (w *Wiring) CodeRegistryFor(schema *ast.Schema) *CodeRegistry {
	registry := NewCodeRegistry()
	if w.codeRegistry != nil {
		registry = w.codeRegistry.Clone()
	}
	for typeName, df := range w.defaultFetchers {
		registry.SetDefaultDataFetcher(typeName, df)
	}
	for typeName, fields := range w.fieldFetchers {
		def := schema.Types[typeName]
		for fieldName, df := range fields {
			if def != nil {
				if fieldDef := def.Fields.ForName(fieldName); fieldDef != nil {
					df = w.applyDirectiveWiring(fieldDef, df)
				}
			}
			registry.SetDataFetcher(Coordinates(typeName, fieldName), df)
		}
	}
	for typeName, tr := range w.typeResolvers {
		registry.SetTypeResolver(typeName, tr)
	}
	for typeName, coercing := range w.scalars {
		registry.SetScalar(typeName, coercing)
	}
	if w.factory != nil {
		registry.SetWiringFactory(w.factory)
	}
	if w.fieldVisibility != nil {
		registry.SetFieldVisibility(w.fieldVisibility)
	}
	for _, processor := range w.processors {
		processor(schema, registry)
	}
	return registry
}

func (w *Wiring) applyDirectiveWiring(field *ast.FieldDefinition, df DataFetcher) DataFetcher {
	for _, directive := range field.Directives {
		if dw, ok := w.namedDirectives[directive.Name]; ok {
			df = dw(field, directive, df)
		}
		for _, dw := range w.directiveWiring {
			df = dw(field, directive, df)
		}
	}
	return df
}
