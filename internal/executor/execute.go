// Package executor evaluates a validated query document against a built
// schema, pulling field values through the schema's code registry. It is a
// deliberately small engine: fields resolve serially, scalars coerce through
// the registry's coercings, and abstract types discriminate through the
// registry's type resolvers.
package executor

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/aknsk/fedesub/wiring"
)

// ExecutionArgs bundles everything one execution needs. Document must
// already be validated against Schema.
type ExecutionArgs struct {
	Schema         *ast.Schema
	Registry       *wiring.CodeRegistry
	Document       *ast.QueryDocument
	RawQuery       string                 // optional
	VariableValues map[string]interface{} // optional
	OperationName  string                 // optional
}

type executionContext struct {
	schema    *ast.Schema
	registry  *wiring.CodeRegistry
	variables map[string]interface{}
	errors    gqlerror.List
}

// Execute runs the requested operation and always returns a response;
// failures surface through the response's error list.
func Execute(ctx context.Context, args *ExecutionArgs) *graphql.Response {
	operation := args.Document.Operations.ForName(args.OperationName)
	if operation == nil {
		if args.OperationName != "" {
			return errorResponse(gqlerror.Errorf(`unknown operation named "%s"`, args.OperationName))
		}
		return errorResponse(gqlerror.Errorf("must provide an operation"))
	}

	var rootType *ast.Definition
	switch operation.Operation {
	case ast.Query:
		rootType = args.Schema.Query
	case ast.Mutation:
		rootType = args.Schema.Mutation
	default:
		return errorResponse(gqlerror.ErrorPosf(operation.Position, "can only execute query and mutation operations"))
	}
	if rootType == nil {
		return errorResponse(gqlerror.ErrorPosf(operation.Position, "schema is not configured for %ss", operation.Operation))
	}

	coercedVariables, err := validator.VariableValues(args.Schema, operation, args.VariableValues)
	if err != nil {
		return errorResponse(asGqlError(err))
	}

	oc := &graphql.OperationContext{
		RawQuery:  args.RawQuery,
		Variables: coercedVariables,
		Doc:       args.Document,
		Operation: operation,
		ResolverMiddleware: func(ctx context.Context, next graphql.Resolver) (interface{}, error) {
			return next(ctx)
		},
		Stats: graphql.Stats{},
	}
	ctx = graphql.WithOperationContext(ctx, oc)

	ec := &executionContext{
		schema:    args.Schema,
		registry:  args.Registry,
		variables: coercedVariables,
	}

	data := ec.executeSelectionSet(ctx, rootType, nil, operation.SelectionSet)

	var buf bytes.Buffer
	data.MarshalGQL(&buf)

	return &graphql.Response{
		Data:   buf.Bytes(),
		Errors: ec.errors,
	}
}

func errorResponse(gErr *gqlerror.Error) *graphql.Response {
	return &graphql.Response{
		Errors: gqlerror.List{gErr},
	}
}

// executeSelectionSet resolves the collected fields of one object value.
// When any non-nullable field resolves to null the whole set collapses to
// null, propagating the failure to the parent.
func (ec *executionContext) executeSelectionSet(ctx context.Context, objectType *ast.Definition, source interface{}, selectionSet ast.SelectionSet) graphql.Marshaler {
	// Fragment conditions may name the object itself or any abstract type
	// it belongs to.
	satisfies := []string{objectType.Name}
	for _, abstract := range ec.schema.Implements[objectType.Name] {
		satisfies = append(satisfies, abstract.Name)
	}

	fields := graphql.CollectFields(graphql.GetOperationContext(ctx), selectionSet, satisfies)

	out := graphql.NewFieldSet(fields)
	invalids := 0
	for i, field := range fields {
		switch field.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString(objectType.Name)
		default:
			value, ok := ec.executeField(ctx, objectType, source, field)
			if !ok {
				invalids++
			}
			out.Values[i] = value
		}
	}
	out.Dispatch(ctx)

	if invalids > 0 {
		return graphql.Null
	}
	return out
}

// executeField pulls one field's value through the registry and completes
// it against the field's declared type. The second return value reports
// whether the value satisfies the field's nullability.
func (ec *executionContext) executeField(ctx context.Context, parentType *ast.Definition, source interface{}, field graphql.CollectedField) (graphql.Marshaler, bool) {
	fieldDef := field.Definition
	if fieldDef == nil {
		ec.errors = append(ec.errors, gqlerror.Errorf(`cannot query field "%s" on type "%s"`, field.Name, parentType.Name))
		return graphql.Null, false
	}

	env := &wiring.ResolveEnv{
		Schema: ec.schema,
		Object: parentType,
		Field:  fieldDef,
		Args:   field.ArgumentMap(ec.variables),
		Source: source,
	}

	fetcher := ec.registry.DataFetcherFor(parentType, fieldDef)
	if fetcher == nil {
		fetcher = defaultDataFetcher
	}

	result, err := fetcher(ctx, env)
	if err != nil {
		ec.errors = append(ec.errors, asGqlError(err))
		return graphql.Null, !fieldDef.Type.NonNull
	}

	completed, gErr := ec.completeValue(ctx, fieldDef.Type, field, result)
	if gErr != nil {
		ec.errors = append(ec.errors, gErr)
		return graphql.Null, !fieldDef.Type.NonNull
	}

	return completed, completed != graphql.Null || !fieldDef.Type.NonNull
}

func (ec *executionContext) completeValue(ctx context.Context, returnType *ast.Type, field graphql.CollectedField, result interface{}) (graphql.Marshaler, *gqlerror.Error) {
	if returnType.NonNull {
		inner := *returnType
		inner.NonNull = false
		completed, gErr := ec.completeValue(ctx, &inner, field, result)
		if gErr != nil {
			return graphql.Null, gErr
		}
		if completed == graphql.Null {
			return graphql.Null, gqlerror.Errorf("cannot return null for non-nullable field %s.%s", field.ObjectDefinition.Name, field.Name)
		}
		return completed, nil
	}

	if result == nil {
		return graphql.Null, nil
	}

	if returnType.Elem != nil {
		return ec.completeListValue(ctx, returnType, field, result)
	}

	def := ec.schema.Types[returnType.NamedType]
	if def == nil {
		return graphql.Null, gqlerror.Errorf(`field %s.%s returned unknown type "%s"`, field.ObjectDefinition.Name, field.Name, returnType.NamedType)
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return ec.completeLeafValue(def, result)
	case ast.Interface, ast.Union:
		return ec.completeAbstractValue(ctx, def, field, result)
	default:
		return ec.executeSelectionSet(ctx, def, result, field.SelectionSet), nil
	}
}

func (ec *executionContext) completeListValue(ctx context.Context, returnType *ast.Type, field graphql.CollectedField, result interface{}) (graphql.Marshaler, *gqlerror.Error) {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return graphql.Null, gqlerror.Errorf(`field %s.%s expected a list, got %T`, field.ObjectDefinition.Name, field.Name, result)
	}

	ret := make(graphql.Array, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		completed, gErr := ec.completeValue(ctx, returnType.Elem, field, rv.Index(i).Interface())
		if gErr != nil {
			return graphql.Null, gErr
		}
		ret[i] = completed
	}
	return ret, nil
}

func (ec *executionContext) completeLeafValue(def *ast.Definition, result interface{}) (graphql.Marshaler, *gqlerror.Error) {
	if coercing := ec.registry.ScalarFor(def.Name); coercing != nil && coercing.Serialize != nil {
		serialized, err := coercing.Serialize(result)
		if err != nil {
			return graphql.Null, asGqlError(err)
		}
		result = serialized
	}

	if result == nil {
		return graphql.Null, nil
	}

	switch result := result.(type) {
	case bool:
		return graphql.MarshalBoolean(result), nil
	case float64:
		return graphql.MarshalFloat(result), nil
	case int:
		return graphql.MarshalInt(result), nil
	case int64:
		return graphql.MarshalInt64(result), nil
	case int32:
		return graphql.MarshalInt32(result), nil
	case string:
		return graphql.MarshalString(result), nil
	case time.Time:
		return graphql.MarshalTime(result), nil
	default:
		return graphql.MarshalAny(result), nil
	}
}

func (ec *executionContext) completeAbstractValue(ctx context.Context, def *ast.Definition, field graphql.CollectedField, result interface{}) (graphql.Marshaler, *gqlerror.Error) {
	var typeName string
	if tr := ec.registry.TypeResolverFor(def); tr != nil {
		name, err := tr(ctx, result)
		if err != nil {
			return graphql.Null, asGqlError(err)
		}
		typeName = name
	} else if m, ok := result.(map[string]interface{}); ok {
		typeName, _ = m["__typename"].(string)
	}

	if typeName == "" {
		return graphql.Null, gqlerror.Errorf(`abstract type "%s" must resolve to an object type at runtime for field %s.%s`, def.Name, field.ObjectDefinition.Name, field.Name)
	}

	runtimeType := ec.schema.Types[typeName]
	if runtimeType == nil {
		return graphql.Null, gqlerror.Errorf(`abstract type "%s" resolved to a type "%s" that does not exist in the schema`, def.Name, typeName)
	}
	if runtimeType.Kind != ast.Object {
		return graphql.Null, gqlerror.Errorf(`abstract type "%s" resolved to the non-object type "%s"`, def.Name, typeName)
	}
	possible := false
	for _, candidate := range ec.schema.GetPossibleTypes(def) {
		if candidate == runtimeType {
			possible = true
			break
		}
	}
	if !possible {
		return graphql.Null, gqlerror.Errorf(`object type "%s" is not a possible type for "%s"`, typeName, def.Name)
	}

	return ec.executeSelectionSet(ctx, runtimeType, result, field.SelectionSet), nil
}

// defaultDataFetcher reads the field's value straight off the source: a map
// lookup by field name, or a case-insensitive struct field match.
func defaultDataFetcher(ctx context.Context, env *wiring.ResolveEnv) (interface{}, error) {
	switch source := env.Source.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return source[env.Field.Name], nil
	}

	rv := reflect.Indirect(reflect.ValueOf(env.Source))
	if rv.Kind() == reflect.Struct {
		fv := rv.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, env.Field.Name)
		})
		if fv.IsValid() {
			return fv.Interface(), nil
		}
	}

	return nil, nil
}

func asGqlError(err error) *gqlerror.Error {
	var gErr *gqlerror.Error
	if errors.As(err, &gErr) {
		return gErr
	}
	return gqlerror.Errorf("%s", err.Error())
}
