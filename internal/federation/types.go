// Package federation holds the declaration catalogue of the Apollo
// Federation subgraph contract: the directive definitions, the machinery
// types (_Service, _Entity, _Any, _FieldSet) and the reserved names that
// must never leak into published SDL.
package federation

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/aknsk/fedesub/wiring"
)

// Reserved names of the federation machinery.
const (
	ServiceTypeName   = "_Service"
	ServiceFieldName  = "_service"
	SDLFieldName      = "sdl"
	EntityTypeName    = "_Entity"
	EntitiesFieldName = "_entities"
	AnyTypeName       = "_Any"
	FieldSetTypeName  = "_FieldSet"
	KeyDirectiveName  = "key"

	// DummyFieldName is the placeholder injected into an otherwise empty
	// query type so schema construction succeeds. It is stripped from both
	// the published SDL and the exposed schema.
	DummyFieldName = "_dummy"
)

// FieldSetScalar returns a fresh declaration of the field-set scalar the
// key/requires/provides directives depend on.
func FieldSetScalar() *ast.Definition {
	return &ast.Definition{
		Kind:     ast.Scalar,
		Name:     FieldSetTypeName,
		Position: blankPos,
	}
}

// AnyType returns a fresh declaration of the _Any scalar carrying entity
// representations.
func AnyType() *ast.Definition {
	return &ast.Definition{
		Kind:     ast.Scalar,
		Name:     AnyTypeName,
		Position: blankPos,
	}
}

// ServiceType returns a fresh declaration of the _Service reflection type.
func ServiceType() *ast.Definition {
	return &ast.Definition{
		Kind: ast.Object,
		Name: ServiceTypeName,
		Fields: ast.FieldList{
			&ast.FieldDefinition{
				Name:     SDLFieldName,
				Type:     ast.NonNullNamedType("String", blankPos),
				Position: blankPos,
			},
		},
		Position: blankPos,
	}
}

// ServiceField returns the query-type field exposing _Service.
func ServiceField() *ast.FieldDefinition {
	return &ast.FieldDefinition{
		Name:     ServiceFieldName,
		Type:     ast.NonNullNamedType(ServiceTypeName, blankPos),
		Position: blankPos,
	}
}

// EntitiesField returns the query-type field
// _entities(representations: [_Any!]!): [_Entity]!
func EntitiesField() *ast.FieldDefinition {
	return &ast.FieldDefinition{
		Name: EntitiesFieldName,
		Arguments: ast.ArgumentDefinitionList{
			&ast.ArgumentDefinition{
				Name:     "representations",
				Type:     ast.NonNullListType(ast.NonNullNamedType(AnyTypeName, blankPos), blankPos),
				Position: blankPos,
			},
		},
		Type:     ast.NonNullListType(ast.NamedType(EntityTypeName, blankPos), blankPos),
		Position: blankPos,
	}
}

// EntityUnion returns the _Entity union over the given concrete type names.
// A union must have at least one member; callers check the set first.
func EntityUnion(members []string) (*ast.Definition, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("union %s must declare at least one member type", EntityTypeName)
	}
	sorted := append([]string{}, members...)
	sort.Strings(sorted)
	return &ast.Definition{
		Kind:     ast.Union,
		Name:     EntityTypeName,
		Types:    sorted,
		Position: blankPos,
	}, nil
}

// AnyCoercing passes representation values through untouched: the gateway
// sends plain maps and the entities fetcher wants them as-is.
var AnyCoercing = &wiring.Coercing{
	Serialize: func(value interface{}) (interface{}, error) {
		return value, nil
	},
	ParseValue: func(value interface{}) (interface{}, error) {
		return value, nil
	},
	ParseLiteral: func(value *ast.Value) (interface{}, error) {
		return value.Value(nil)
	},
}

// FieldSetCoercing treats field sets as their string form.
var FieldSetCoercing = &wiring.Coercing{
	Serialize: func(value interface{}) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %T", FieldSetTypeName, value)
		}
		return s, nil
	},
	ParseValue: func(value interface{}) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %T", FieldSetTypeName, value)
		}
		return s, nil
	},
	ParseLiteral: func(value *ast.Value) (interface{}, error) {
		if value.Kind != ast.StringValue && value.Kind != ast.BlockValue {
			return nil, fmt.Errorf("%s must be a string literal", FieldSetTypeName)
		}
		return value.Raw, nil
	},
}
