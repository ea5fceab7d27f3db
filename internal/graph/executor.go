package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	gqlvalidator "github.com/vektah/gqlparser/v2/validator"

	"github.com/haguru/notedly/internal/apperrors"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/models/dto"
)

const (
	DefaultMaxDepth      = 5
	DefaultMaxComplexity = 1000

	dateTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// FieldResolver produces the value of one field. parent is the value of the
// enclosing object, nil for root fields.
type FieldResolver func(ctx context.Context, parent interface{}, args map[string]interface{}) (interface{}, error)

// Executor validates and runs operations against Schema.
type Executor struct {
	schema        *ast.Schema
	resolvers     map[string]map[string]FieldResolver
	maxDepth      int
	maxComplexity int
	logger        interfaces.Logger
}

// NewExecutor creates an Executor. Non-positive limits fall back to the defaults.
func NewExecutor(resolver *Resolver, maxDepth, maxComplexity int, logger interfaces.Logger) *Executor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxComplexity <= 0 {
		maxComplexity = DefaultMaxComplexity
	}
	return &Executor{
		schema:        Schema,
		resolvers:     resolver.fieldResolvers(),
		maxDepth:      maxDepth,
		maxComplexity: maxComplexity,
		logger:        logger,
	}
}

// Operation is a parsed, validated operation ready to execute.
type Operation struct {
	Name string
	def  *ast.OperationDefinition
	vars map[string]interface{}
}

// Type is query or mutation.
func (o *Operation) Type() ast.Operation {
	return o.def.Operation
}

// Response is the result of executing an operation.
type Response struct {
	Data   *OrderedMap
	Errors gqlerror.List
}

// MarshalData encodes Data, producing null when the root object was nulled.
func (r *Response) MarshalData() (json.RawMessage, error) {
	return json.Marshal(r.Data)
}

// Prepare parses and validates a request, checks the depth and complexity
// limits and coerces variables. Any failure means the operation must not run.
func (e *Executor) Prepare(req dto.GraphQLRequest) (*Operation, gqlerror.List) {
	if req.Query == "" {
		return nil, gqlerror.List{NewError(CodeBadRequest, ErrNoOperation)}
	}

	if _, err := parser.ParseQuery(&ast.Source{Name: "request", Input: req.Query}); err != nil {
		return nil, gqlerror.List{asGQLError(err, CodeParseFailed)}
	}
	doc, errs := gqlparser.LoadQuery(e.schema, req.Query)
	if len(errs) > 0 {
		for _, err := range errs {
			withCode(err, CodeValidationFailed)
		}
		return nil, errs
	}

	def := doc.Operations.ForName(req.OperationName)
	if def == nil {
		if req.OperationName == "" {
			return nil, gqlerror.List{NewError(CodeBadRequest, ErrNoOperation)}
		}
		return nil, gqlerror.List{NewError(CodeBadRequest, ErrUnknownOperation, req.OperationName)}
	}

	if usesIntrospection(def.SelectionSet) {
		return nil, gqlerror.List{NewError(CodeIntrospectionBlocked, ErrIntrospectionBlocked)}
	}
	if depth := operationDepth(def); depth > e.maxDepth {
		return nil, gqlerror.List{NewError(CodeValidationFailed, ErrDepthExceeded, e.maxDepth)}
	}
	if cost := operationComplexity(def); cost > e.maxComplexity {
		return nil, gqlerror.List{NewError(CodeValidationFailed, ErrComplexityExceeded, cost, e.maxComplexity)}
	}

	vars, err := gqlvalidator.VariableValues(e.schema, def, req.Variables)
	if err != nil {
		return nil, gqlerror.List{asGQLError(err, CodeBadRequest)}
	}

	return &Operation{Name: def.Name, def: def, vars: vars}, nil
}

// Execute runs op. Root fields run one after another in document order,
// which gives mutations their required serial execution.
func (e *Executor) Execute(ctx context.Context, op *Operation) *Response {
	root := e.schema.Query
	if op.def.Operation == ast.Mutation {
		root = e.schema.Mutation
	}

	ex := &execution{Executor: e, ctx: ctx, vars: op.vars}
	data, _ := ex.executeSelectionSet(root.Name, nil, []ast.SelectionSet{op.def.SelectionSet}, nil)
	return &Response{Data: data, Errors: ex.errors}
}

type execution struct {
	*Executor
	ctx    context.Context
	vars   map[string]interface{}
	errors gqlerror.List
}

// fieldGroup is every field selected under one response key.
type fieldGroup struct {
	key    string
	fields []*ast.Field
}

// executeSelectionSet resolves each response key of an object. It returns
// false when a non-null field failed, which nulls the object itself.
func (ex *execution) executeSelectionSet(typeName string, parent interface{}, sets []ast.SelectionSet, path ast.Path) (*OrderedMap, bool) {
	var groups []*fieldGroup
	index := map[string]*fieldGroup{}
	visited := map[string]bool{}
	for _, set := range sets {
		groups = ex.collectFields(typeName, set, groups, index, visited)
	}

	result := NewOrderedMap()
	for _, g := range groups {
		value, ok := ex.executeField(typeName, parent, g, appendPath(path, ast.PathName(g.key)))
		if !ok {
			return nil, false
		}
		result.Set(g.key, value)
	}
	return result, true
}

func (ex *execution) collectFields(typeName string, set ast.SelectionSet, groups []*fieldGroup, index map[string]*fieldGroup, visited map[string]bool) []*fieldGroup {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if !ex.shouldInclude(s.Directives) {
				continue
			}
			g, ok := index[s.Alias]
			if !ok {
				g = &fieldGroup{key: s.Alias}
				index[s.Alias] = g
				groups = append(groups, g)
			}
			g.fields = append(g.fields, s)
		case *ast.InlineFragment:
			if !ex.shouldInclude(s.Directives) || (s.TypeCondition != "" && s.TypeCondition != typeName) {
				continue
			}
			groups = ex.collectFields(typeName, s.SelectionSet, groups, index, visited)
		case *ast.FragmentSpread:
			if visited[s.Name] || !ex.shouldInclude(s.Directives) || s.Definition == nil {
				continue
			}
			visited[s.Name] = true
			if s.Definition.TypeCondition != typeName {
				continue
			}
			groups = ex.collectFields(typeName, s.Definition.SelectionSet, groups, index, visited)
		}
	}
	return groups
}

func (ex *execution) shouldInclude(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(ex.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(ex.vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

func (ex *execution) executeField(typeName string, parent interface{}, g *fieldGroup, path ast.Path) (interface{}, bool) {
	field := g.fields[0]
	if field.Name == "__typename" {
		return typeName, true
	}

	def := ex.schema.Types[typeName].Fields.ForName(field.Name)
	resolve := ex.resolvers[typeName][field.Name]
	if def == nil || resolve == nil {
		ex.addError(fieldError(apperrors.Internal(fmt.Sprintf("no resolver for %s.%s", typeName, field.Name), nil), path, field))
		return nil, false
	}

	value, err := ex.resolve(resolve, parent, field.ArgumentMap(ex.vars))
	if err != nil {
		ex.addError(fieldError(err, path, field))
		return nil, !def.Type.NonNull
	}
	return ex.completeValue(typeName, def, def.Type, g.fields, value, path)
}

func (ex *execution) resolve(resolve FieldResolver, parent interface{}, args map[string]interface{}) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			ex.logger.Error("Resolver panicked", "panic", r)
			err = apperrors.Internal("internal server error", fmt.Errorf("panic: %v", r))
		}
	}()
	return resolve(ex.ctx, parent, args)
}

// completeValue shapes a resolved value to its schema type. The boolean is
// false when a null reached a non-null position and has to propagate upwards.
func (ex *execution) completeValue(parentType string, def *ast.FieldDefinition, t *ast.Type, fields []*ast.Field, value interface{}, path ast.Path) (interface{}, bool) {
	if t.NonNull {
		v, ok := ex.completeNullable(parentType, def, t, fields, value, path)
		if !ok {
			return nil, false
		}
		if v == nil {
			ex.addError(fieldError(apperrors.Internal(fmt.Sprintf(ErrNonNullField, parentType, def.Name), nil), path, fields[0]))
			return nil, false
		}
		return v, true
	}

	v, ok := ex.completeNullable(parentType, def, t, fields, value, path)
	if !ok {
		return nil, true
	}
	return v, true
}

func (ex *execution) completeNullable(parentType string, def *ast.FieldDefinition, t *ast.Type, fields []*ast.Field, value interface{}, path ast.Path) (interface{}, bool) {
	if isNull(value) {
		return nil, true
	}

	if t.Elem != nil {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			ex.addError(fieldError(apperrors.Internal(fmt.Sprintf("expected a list for %s.%s", parentType, def.Name), nil), path, fields[0]))
			return nil, false
		}
		items := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, ok := ex.completeValue(parentType, def, t.Elem, fields, rv.Index(i).Interface(), appendPath(path, ast.PathIndex(i)))
			if !ok {
				return nil, false
			}
			items = append(items, item)
		}
		return items, true
	}

	named := ex.schema.Types[t.NamedType]
	if named != nil && named.Kind == ast.Object {
		sets := make([]ast.SelectionSet, 0, len(fields))
		for _, f := range fields {
			sets = append(sets, f.SelectionSet)
		}
		obj, ok := ex.executeSelectionSet(named.Name, value, sets, path)
		if !ok {
			return nil, false
		}
		return obj, true
	}

	return serializeScalar(t.NamedType, value), true
}

func serializeScalar(name string, value interface{}) interface{} {
	if name == "DateTime" {
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format(dateTimeLayout)
		}
	}
	return value
}

func (ex *execution) addError(err *gqlerror.Error) {
	if Code(err) == string(apperrors.KindInternal) {
		ex.logger.Error("GraphQL field failed", "path", err.Path.String(), "error", err.Err)
	}
	ex.errors = append(ex.errors, err)
}

func isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
