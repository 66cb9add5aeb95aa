package hook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gatewayql/gatewayql/errors"
)

// Registry stores GraphQL hook definitions bucketed by type. Each bucket is
// kept priority-sorted immediately after every Register call, so readers
// always observe execution order.
type Registry struct {
	mu      sync.RWMutex
	buckets map[Type][]*Definition
}

// NewRegistry creates a new empty hook registry
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[Type][]*Definition),
	}
}

// Register inserts a hook definition into its type bucket and re-sorts the
// bucket by priority. A zero priority is replaced with DefaultPriority.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "HookRegistry", "Register", "definition validation")
	}
	if !def.Type.Valid() {
		msg := fmt.Errorf("hook type '%s': %w", def.Type, errors.ErrUnknownHookType)
		return errors.WrapInvalid(msg, "HookRegistry", "Register", "hook type validation")
	}
	if def.Handler == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "HookRegistry", "Register", "hook handler validation")
	}
	if err := validateHandlerSignature(def); err != nil {
		return errors.WrapInvalid(err, "HookRegistry", "Register", "hook handler signature validation")
	}

	if def.Priority == 0 {
		def.Priority = DefaultPriority
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := append(r.buckets[def.Type], def)
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].Priority < bucket[j].Priority
	})
	r.buckets[def.Type] = bucket
	return nil
}

// GetByType returns the hooks of one type in execution order. The returned
// slice is a copy.
func (r *Registry) GetByType(t Type) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.buckets[t]
	result := make([]*Definition, len(bucket))
	copy(result, bucket)
	return result
}

// GetAll returns all buckets keyed by type. Slices are copies.
func (r *Registry) GetAll() map[Type][]*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[Type][]*Definition, len(r.buckets))
	for t, bucket := range r.buckets {
		cp := make([]*Definition, len(bucket))
		copy(cp, bucket)
		result[t] = cp
	}
	return result
}

// Len returns the total number of registered hooks across all buckets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, bucket := range r.buckets {
		total += len(bucket)
	}
	return total
}

// Clear removes all registered hooks. Test-only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = make(map[Type][]*Definition)
}

// validateHandlerSignature enforces the per-type handler signatures at
// registration so the gateway's bucket assertions cannot fail at request
// time. Untyped functions with the right shape are accepted via conversion
// by the caller; here only the declared alias types pass.
func validateHandlerSignature(def *Definition) error {
	switch def.Type {
	case SchemaTransform:
		if _, ok := def.Handler.(SchemaTransformFunc); !ok {
			return fmt.Errorf("schema-transform hook handler is %T, want SchemaTransformFunc", def.Handler)
		}
	case ResolverMiddleware:
		if _, ok := def.Handler.(ResolverMiddlewareFunc); !ok {
			return fmt.Errorf("resolver-middleware hook handler is %T, want ResolverMiddlewareFunc", def.Handler)
		}
	case SubgraphRequest:
		if _, ok := def.Handler.(SubgraphRequestFunc); !ok {
			return fmt.Errorf("subgraph-request hook handler is %T, want SubgraphRequestFunc", def.Handler)
		}
	case EntityReference:
		if _, ok := def.Handler.(EntityReferenceFunc); !ok {
			return fmt.Errorf("entity-reference hook handler is %T, want EntityReferenceFunc", def.Handler)
		}
	}
	return nil
}
