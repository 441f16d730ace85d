package federation

import "github.com/vektah/gqlparser/v2/ast"

var blankPos = &ast.Position{
	Src: &ast.Source{},
}

var keyDirective = &ast.DirectiveDefinition{
	Name: KeyDirectiveName,
	Arguments: ast.ArgumentDefinitionList{
		&ast.ArgumentDefinition{
			Name: "fields",
			Type: &ast.Type{
				NamedType: FieldSetTypeName,
				NonNull:   true,
			},
		},
	},
	Locations: []ast.DirectiveLocation{
		ast.LocationObject,
		ast.LocationInterface,
	},
	IsRepeatable: true,
	Position:     blankPos,
}

var extendsDirective = &ast.DirectiveDefinition{
	Name: "extends",
	Locations: []ast.DirectiveLocation{
		ast.LocationObject,
		ast.LocationInterface,
	},
	Position: blankPos,
}

var externalDirective = &ast.DirectiveDefinition{
	Name: "external",
	Locations: []ast.DirectiveLocation{
		ast.LocationObject,
		ast.LocationFieldDefinition,
	},
	Position: blankPos,
}

var requiresDirective = &ast.DirectiveDefinition{
	Name: "requires",
	Arguments: ast.ArgumentDefinitionList{
		&ast.ArgumentDefinition{
			Name: "fields",
			Type: &ast.Type{
				NamedType: FieldSetTypeName,
				NonNull:   true,
			},
		},
	},
	Locations: []ast.DirectiveLocation{
		ast.LocationFieldDefinition,
	},
	Position: blankPos,
}

var providesDirective = &ast.DirectiveDefinition{
	Name: "provides",
	Arguments: ast.ArgumentDefinitionList{
		&ast.ArgumentDefinition{
			Name: "fields",
			Type: &ast.Type{
				NamedType: FieldSetTypeName,
				NonNull:   true,
			},
		},
	},
	Locations: []ast.DirectiveLocation{
		ast.LocationFieldDefinition,
	},
	Position: blankPos,
}

var federationDirectives = ast.DirectiveDefinitionList{
	keyDirective,
	externalDirective,
	requiresDirective,
	providesDirective,
	extendsDirective,
}

// Directives returns the directive definitions the subgraph contract
// requires. The definitions are shared and must be treated as read-only.
func Directives() ast.DirectiveDefinitionList {
	return append(ast.DirectiveDefinitionList{}, federationDirectives...)
}

// DirectiveNames returns the names of every catalogue directive.
func DirectiveNames() []string {
	names := make([]string, 0, len(federationDirectives))
	for _, def := range federationDirectives {
		names = append(names, def.Name)
	}
	return names
}
