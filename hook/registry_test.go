package hook

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/99designs/gqlgen/graphql"
)

func noopTransform(_ context.Context, schema *ast.Schema) (*ast.Schema, error) {
	return schema, nil
}

func transformDef(priority int) *Definition {
	return &Definition{
		Type:     SchemaTransform,
		Handler:  SchemaTransformFunc(noopTransform),
		Priority: priority,
	}
}

func TestRegistryPriorityOrdering(t *testing.T) {
	r := NewRegistry()

	for _, p := range []int{20, 10, 5} {
		require.NoError(t, r.Register(transformDef(p)))
	}

	bucket := r.GetByType(SchemaTransform)
	require.Len(t, bucket, 3)
	priorities := []int{bucket[0].Priority, bucket[1].Priority, bucket[2].Priority}
	assert.Equal(t, []int{5, 10, 20}, priorities)
}

func TestRegistryDefaultPriority(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(transformDef(0)))
	require.NoError(t, r.Register(transformDef(150)))
	require.NoError(t, r.Register(transformDef(50)))

	bucket := r.GetByType(SchemaTransform)
	require.Len(t, bucket, 3)
	assert.Equal(t, 50, bucket[0].Priority)
	assert.Equal(t, DefaultPriority, bucket[1].Priority, "unset priority behaves as 100")
	assert.Equal(t, 150, bucket[2].Priority)
}

func TestRegistryTiesKeepInsertionOrder(t *testing.T) {
	r := NewRegistry()

	first := transformDef(10)
	second := transformDef(10)
	third := transformDef(10)
	for _, def := range []*Definition{first, second, third} {
		require.NoError(t, r.Register(def))
	}

	bucket := r.GetByType(SchemaTransform)
	require.Len(t, bucket, 3)
	assert.Same(t, first, bucket[0])
	assert.Same(t, second, bucket[1])
	assert.Same(t, third, bucket[2])
}

func TestRegistryBucketsAreIndependent(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(transformDef(10)))
	require.NoError(t, r.Register(&Definition{
		Type: SubgraphRequest,
		Handler: SubgraphRequestFunc(func(_ context.Context, _ *http.Request) error {
			return nil
		}),
	}))

	assert.Len(t, r.GetByType(SchemaTransform), 1)
	assert.Len(t, r.GetByType(SubgraphRequest), 1)
	assert.Empty(t, r.GetByType(ResolverMiddleware))
	assert.Equal(t, 2, r.Len())
}

func TestRegistryValidation(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&Definition{Type: "bogus", Handler: SchemaTransformFunc(noopTransform)}))
	assert.Error(t, r.Register(&Definition{Type: SchemaTransform}))
}

func TestRegistrySignatureValidation(t *testing.T) {
	r := NewRegistry()

	// Wrong handler type for the bucket is rejected at registration
	err := r.Register(&Definition{
		Type:    SchemaTransform,
		Handler: SubgraphRequestFunc(func(_ context.Context, _ *http.Request) error { return nil }),
	})
	assert.Error(t, err)

	require.NoError(t, r.Register(&Definition{
		Type: ResolverMiddleware,
		Handler: ResolverMiddlewareFunc(func(ctx context.Context, next graphql.Resolver) (any, error) {
			return next(ctx)
		}),
	}))

	require.NoError(t, r.Register(&Definition{
		Type: EntityReference,
		Handler: EntityReferenceFunc(func(_ context.Context, _ string, _ map[string]any) (any, error) {
			return nil, nil
		}),
	}))
}

func TestRegistryGetByTypeIsACopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(transformDef(10)))

	bucket := r.GetByType(SchemaTransform)
	bucket[0] = nil

	fresh := r.GetByType(SchemaTransform)
	require.Len(t, fresh, 1)
	assert.NotNil(t, fresh[0], "mutating the returned slice must not affect the registry")
}

func TestRegistryGetAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(transformDef(10)))

	all := r.GetAll()
	require.Contains(t, all, SchemaTransform)
	delete(all, SchemaTransform)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(transformDef(10)))

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.GetByType(SchemaTransform))
}

func TestTypeValid(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, typ.Valid())
	}
	assert.False(t, Type("nope").Valid())
}
