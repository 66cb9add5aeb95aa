package policy

import (
	"fmt"
	"maps"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gatewayql/gatewayql/errors"
)

// Registry is the keyed in-memory store of policy definitions.
// Registration is append-only and happens during plugin boot.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]*Definition
}

// NewRegistry creates a new empty policy registry
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]*Definition),
	}
}

// Register inserts a policy definition. Duplicate names are a hard error
// and leave the existing entry untouched.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PolicyRegistry", "Register", "definition validation")
	}
	if def.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PolicyRegistry", "Register", "policy name validation")
	}
	if def.Handler == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PolicyRegistry", "Register", "policy handler validation")
	}

	if len(def.Schema) > 0 {
		if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(def.Schema)); err != nil {
			return errors.WrapInvalid(err, "PolicyRegistry", "Register", "schema compilation")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[def.Name]; exists {
		msg := fmt.Errorf("policy '%s': %w", def.Name, errors.ErrDuplicateRegistration)
		return errors.WrapInvalid(msg, "PolicyRegistry", "Register", "duplicate policy check")
	}

	r.policies[def.Name] = def
	return nil
}

// Get retrieves a policy definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.policies[name]
	return def, ok
}

// Has reports whether a policy with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.policies[name]
	return ok
}

// GetAll returns a copy of all registered policy definitions.
func (r *Registry) GetAll() map[string]*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Definition, len(r.policies))
	maps.Copy(result, r.policies)
	return result
}

// Len returns the number of registered policies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.policies)
}

// Clear removes all registered policies. Test-only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies = make(map[string]*Definition)
}
