// Package hook provides priority-ordered GraphQL execution extension points
// contributed by plugins: schema transforms, resolver middleware, subgraph
// request decoration, and entity reference resolution.
package hook

import (
	"context"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

// Type identifies the GraphQL execution phase a hook attaches to.
type Type string

const (
	// SchemaTransform hooks rewrite the executable schema before serving.
	SchemaTransform Type = "schema-transform"
	// ResolverMiddleware hooks wrap field resolution.
	ResolverMiddleware Type = "resolver-middleware"
	// SubgraphRequest hooks decorate outbound subgraph HTTP requests.
	SubgraphRequest Type = "subgraph-request"
	// EntityReference hooks resolve federated entity references.
	EntityReference Type = "entity-reference"
)

// Types lists all valid hook types.
func Types() []Type {
	return []Type{SchemaTransform, ResolverMiddleware, SubgraphRequest, EntityReference}
}

// Valid reports whether t is a known hook type.
func (t Type) Valid() bool {
	switch t {
	case SchemaTransform, ResolverMiddleware, SubgraphRequest, EntityReference:
		return true
	default:
		return false
	}
}

// DefaultPriority is assigned to hooks registered without an explicit
// priority. Lower priorities run earlier.
const DefaultPriority = 100

// Handler signatures per hook type. A Definition's Handler must hold the
// signature matching its Type; the gateway asserts the concrete type when
// invoking a bucket.

// SchemaTransformFunc rewrites the schema, returning the replacement.
type SchemaTransformFunc func(ctx context.Context, schema *ast.Schema) (*ast.Schema, error)

// ResolverMiddlewareFunc wraps field resolution in the gqlgen middleware
// shape; implementations call next to proceed.
type ResolverMiddlewareFunc func(ctx context.Context, next graphql.Resolver) (any, error)

// SubgraphRequestFunc decorates an outbound subgraph request in place.
type SubgraphRequestFunc func(ctx context.Context, req *http.Request) error

// EntityReferenceFunc resolves a federated entity reference to a value,
// or returns (nil, nil) to defer to the next hook.
type EntityReferenceFunc func(ctx context.Context, typeName string, reference map[string]any) (any, error)

// Definition describes a registered GraphQL hook.
type Definition struct {
	// Type selects the bucket and therefore the expected Handler signature.
	Type Type
	// Handler is one of the *Func signatures above, matching Type.
	Handler any
	// Priority orders execution within the bucket; lower runs earlier.
	// Zero means unset and is replaced with DefaultPriority. Ties keep
	// registration order.
	Priority int
}
