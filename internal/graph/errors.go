package graph

import (
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/haguru/notedly/internal/apperrors"
)

// Extension codes not covered by apperrors kinds.
const (
	CodeParseFailed          = "GRAPHQL_PARSE_FAILED"
	CodeValidationFailed     = "GRAPHQL_VALIDATION_FAILED"
	CodeIntrospectionBlocked = "INTROSPECTION_DISABLED"
	CodeBadRequest           = "BAD_REQUEST"
)

const (
	ErrNotSignedIn          = "You must be signed in"
	ErrIntrospectionBlocked = "GraphQL introspection is not allowed"
	ErrUnknownOperation     = "Unknown operation named \"%s\""
	ErrNoOperation          = "Must provide an operation"
	ErrDepthExceeded        = "Query exceeds maximum operation depth of %d"
	ErrComplexityExceeded   = "Query is too complex: %d. Maximum allowed complexity: %d"
	ErrNonNullField         = "Cannot return null for non-nullable field %s.%s."
	ErrInvalidArguments     = "Invalid arguments"
)

// NewError builds a request-level error carrying an extension code.
func NewError(code, format string, args ...interface{}) *gqlerror.Error {
	err := gqlerror.Errorf(format, args...)
	err.Extensions = map[string]interface{}{"code": code}
	return err
}

// withCode returns err with the extension code set, keeping existing extensions.
func withCode(err *gqlerror.Error, code string) *gqlerror.Error {
	if err.Extensions == nil {
		err.Extensions = map[string]interface{}{}
	}
	if _, ok := err.Extensions["code"]; !ok {
		err.Extensions["code"] = code
	}
	return err
}

// asGQLError converts a parser or validator error into a *gqlerror.Error.
func asGQLError(err error, code string) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return withCode(gqlErr, code)
	}
	return NewError(code, "%s", err.Error())
}

// fieldError converts a resolver error into a located GraphQL error.
func fieldError(err error, path ast.Path, field *ast.Field) *gqlerror.Error {
	gqlErr := &gqlerror.Error{
		Err:        err,
		Message:    apperrors.PublicMessage(err),
		Path:       path,
		Extensions: map[string]interface{}{"code": string(apperrors.KindOf(err))},
	}
	if field != nil && field.Position != nil {
		gqlErr.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
	}
	return gqlErr
}

// Code returns the extension code of err, or INTERNAL_SERVER_ERROR.
func Code(err *gqlerror.Error) string {
	if code, ok := err.Extensions["code"].(string); ok {
		return code
	}
	return string(apperrors.KindInternal)
}
