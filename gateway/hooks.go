package gateway

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/gatewayql/gatewayql/errors"
	"github.com/gatewayql/gatewayql/hook"
)

// ApplySchemaTransforms runs every registered schema-transform hook in
// priority order, threading the schema through each. A transform returning
// a nil schema or an error aborts the chain.
func (g *Gateway) ApplySchemaTransforms(ctx context.Context, schema *ast.Schema) (*ast.Schema, error) {
	for _, def := range g.hooks.GetByType(hook.SchemaTransform) {
		fn, ok := def.Handler.(hook.SchemaTransformFunc)
		if !ok {
			continue
		}
		next, err := fn(ctx, schema)
		if err != nil {
			return nil, errors.Wrap(err, "Gateway", "ApplySchemaTransforms", "schema transform hook")
		}
		if next == nil {
			return nil, errors.WrapInvalid(stderrors.New("nil schema returned"), "Gateway", "ApplySchemaTransforms", "schema transform hook")
		}
		schema = next
	}
	return schema, nil
}

// ResolverMiddleware composes every registered resolver-middleware hook
// around the given resolver, highest-priority hook outermost.
func (g *Gateway) ResolverMiddleware(resolver graphql.Resolver) graphql.Resolver {
	defs := g.hooks.GetByType(hook.ResolverMiddleware)
	wrapped := resolver
	for i := len(defs) - 1; i >= 0; i-- {
		fn, ok := defs[i].Handler.(hook.ResolverMiddlewareFunc)
		if !ok {
			continue
		}
		next := wrapped
		wrapped = func(ctx context.Context) (any, error) {
			return fn(ctx, next)
		}
	}
	return wrapped
}

// DecorateSubgraphRequest applies every subgraph-request hook to the
// outbound request in priority order. The first hook error aborts.
func (g *Gateway) DecorateSubgraphRequest(ctx context.Context, req *http.Request) error {
	for _, def := range g.hooks.GetByType(hook.SubgraphRequest) {
		fn, ok := def.Handler.(hook.SubgraphRequestFunc)
		if !ok {
			continue
		}
		if err := fn(ctx, req); err != nil {
			return errors.Wrap(err, "Gateway", "DecorateSubgraphRequest", "subgraph request hook")
		}
	}
	return nil
}

// ResolveEntityReference asks entity-reference hooks, in priority order,
// to resolve a federated entity reference. The first hook returning a
// non-nil entity wins. The bool reports whether any hook resolved it.
func (g *Gateway) ResolveEntityReference(ctx context.Context, typeName string, ref map[string]any) (any, bool, error) {
	for _, def := range g.hooks.GetByType(hook.EntityReference) {
		fn, ok := def.Handler.(hook.EntityReferenceFunc)
		if !ok {
			continue
		}
		entity, err := fn(ctx, typeName, ref)
		if err != nil {
			return nil, false, errors.Wrap(err, "Gateway", "ResolveEntityReference", "entity reference hook")
		}
		if entity != nil {
			return entity, true, nil
		}
	}
	return nil, false, nil
}
