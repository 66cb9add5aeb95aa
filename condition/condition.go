// Package condition provides named boolean predicates over a request/response
// pair and the evaluator that composes them into and/or/not expression trees.
package condition

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
)

// Handler is the predicate function a condition definition registers.
// params carries the invocation-site parameters (a string, map, slice, or nil
// depending on how the condition is referenced in an expression). Handlers
// report failures through the error return; the evaluator recovers them and
// treats the condition as false.
type Handler func(ctx context.Context, params any, rctx *RequestContext) (bool, error)

// Definition describes a registered condition.
type Definition struct {
	// Name uniquely identifies the condition in expressions.
	Name string
	// Handler evaluates the condition against a request context.
	Handler Handler
	// Schema optionally carries a JSON schema (with $id) describing the
	// condition's parameters. It is compiled at registration to catch
	// malformed documents, but never enforced at evaluation time; it exists
	// for external validation tooling.
	Schema json.RawMessage
}

// RequestContext is the request/response pair a condition is evaluated
// against. Response may be nil when evaluation happens before a response
// writer exists (e.g. inside GraphQL execution).
type RequestContext struct {
	Request  *http.Request
	Response http.ResponseWriter

	// GraphQL carries GraphQL execution state when the condition is
	// evaluated inside a resolver or operation pipeline.
	GraphQL *GraphQLContext
}

// GraphQLContext carries the GraphQL execution state available to conditions
// and policies evaluated during query execution.
type GraphQLContext struct {
	// RawQuery is the request body's query document.
	RawQuery string
	// OperationName is the requested operation, if named.
	OperationName string
	// Variables are the request variables.
	Variables map[string]any

	// Field and Operation are populated when evaluation happens inside
	// gqlgen resolver middleware.
	Field     *graphql.FieldContext
	Operation *graphql.OperationContext
}
