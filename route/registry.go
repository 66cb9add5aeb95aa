package route

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gatewayql/gatewayql/errors"
)

// routeKey is the composite (method, path) registry key.
type routeKey struct {
	method string
	path   string
}

// Registry is the keyed in-memory store of plugin route definitions.
type Registry struct {
	mu     sync.RWMutex
	routes map[routeKey]*Definition
	order  []routeKey
}

// NewRegistry creates a new empty route registry
func NewRegistry() *Registry {
	return &Registry{
		routes: make(map[routeKey]*Definition),
	}
}

// Register inserts a route definition. A duplicate (method, path) pair is a
// hard error and leaves the existing entry untouched.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "RouteRegistry", "Register", "definition validation")
	}
	if def.Method == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "RouteRegistry", "Register", "route method validation")
	}
	if def.Path == "" || !strings.HasPrefix(def.Path, "/") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "RouteRegistry", "Register", "route path validation")
	}
	if def.Handler == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "RouteRegistry", "Register", "route handler validation")
	}

	key := routeKey{method: strings.ToUpper(def.Method), path: def.Path}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routes[key]; exists {
		msg := fmt.Errorf("route %s %s: %w", key.method, key.path, errors.ErrDuplicateRegistration)
		return errors.WrapInvalid(msg, "RouteRegistry", "Register", "duplicate route check")
	}

	r.routes[key] = def
	r.order = append(r.order, key)
	return nil
}

// Get retrieves the route for a (method, path) pair. Method matching is
// case-insensitive.
func (r *Registry) Get(method, path string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.routes[routeKey{method: strings.ToUpper(method), path: path}]
	return def, ok
}

// GetByMethod returns all routes with the given method, in registration order.
func (r *Registry) GetByMethod(method string) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	upper := strings.ToUpper(method)
	var result []*Definition
	for _, key := range r.order {
		if key.method == upper {
			result = append(result, r.routes[key])
		}
	}
	return result
}

// GetByPath returns all routes with the given path, in registration order.
func (r *Registry) GetByPath(path string) []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Definition
	for _, key := range r.order {
		if key.path == path {
			result = append(result, r.routes[key])
		}
	}
	return result
}

// GetAll returns all registered routes in registration order. The slice is
// a copy.
func (r *Registry) GetAll() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Definition, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.routes[key])
	}
	return result
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.routes)
}

// Clear removes all registered routes. Test-only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = make(map[routeKey]*Definition)
	r.order = nil
}
