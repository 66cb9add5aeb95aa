package condition

import (
	"fmt"
	"maps"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gatewayql/gatewayql/errors"
)

// Registry is the keyed in-memory store of condition definitions.
// Registration happens during plugin boot; request-time access is read-only.
type Registry struct {
	mu         sync.RWMutex
	conditions map[string]*Definition
}

// NewRegistry creates a new empty condition registry
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[string]*Definition),
	}
}

// Register inserts a condition definition. Duplicate names are a hard error
// and leave the existing entry untouched.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConditionRegistry", "Register", "definition validation")
	}
	if def.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConditionRegistry", "Register", "condition name validation")
	}
	if def.Handler == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ConditionRegistry", "Register", "condition handler validation")
	}

	if len(def.Schema) > 0 {
		if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(def.Schema)); err != nil {
			return errors.WrapInvalid(err, "ConditionRegistry", "Register", "schema compilation")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conditions[def.Name]; exists {
		msg := fmt.Errorf("condition '%s': %w", def.Name, errors.ErrDuplicateRegistration)
		return errors.WrapInvalid(msg, "ConditionRegistry", "Register", "duplicate condition check")
	}

	r.conditions[def.Name] = def
	return nil
}

// Get retrieves a condition definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.conditions[name]
	return def, ok
}

// Has reports whether a condition with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conditions[name]
	return ok
}

// GetAll returns a copy of all registered condition definitions.
func (r *Registry) GetAll() map[string]*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Definition, len(r.conditions))
	maps.Copy(result, r.conditions)
	return result
}

// Len returns the number of registered conditions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conditions)
}

// Clear removes all registered conditions. Test-only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conditions = make(map[string]*Definition)
}
