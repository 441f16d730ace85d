package subgraph

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/aknsk/fedesub/internal/executor"
	"github.com/aknsk/fedesub/internal/log"
)

// Execute parses, validates and runs one query against the schema, serving
// fields through the code registry. Failures never escape as Go errors; the
// response's error list carries them, matching the over-the-wire shape.
func (s *Schema) Execute(ctx context.Context, query string, variables map[string]interface{}) *graphql.Response {
	logger := log.FromContext(ctx)

	doc, err := parser.ParseQuery(&ast.Source{
		Name:  "query.graphql",
		Input: query,
	})
	if err != nil {
		return &graphql.Response{Errors: gqlerror.List{gqlerror.WrapPath(nil, err)}}
	}
	if gErrs := validator.Validate(s.Schema, doc); len(gErrs) != 0 {
		return &graphql.Response{Errors: gErrs}
	}

	logger.V(1).Info("executing query", "query", query)

	return executor.Execute(ctx, &executor.ExecutionArgs{
		Schema:         s.Schema,
		Registry:       s.CodeRegistry,
		Document:       doc,
		RawQuery:       query,
		VariableValues: variables,
	})
}
