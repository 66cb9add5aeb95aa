package plugin

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gatewayql/gatewayql/condition"
	"github.com/gatewayql/gatewayql/config"
	"github.com/gatewayql/gatewayql/errors"
	"github.com/gatewayql/gatewayql/hook"
	"github.com/gatewayql/gatewayql/policy"
	"github.com/gatewayql/gatewayql/route"
)

// Registries groups the four stores a plugin Context registers into.
type Registries struct {
	Policies   *policy.Registry
	Conditions *condition.Registry
	Routes     *route.Registry
	Hooks      *hook.Registry
}

// Context is the bound registration surface handed to a plugin's init.
// Each Context is scoped to one plugin: its logger carries the plugin name
// and GetConfig without a path returns that plugin's own settings bag.
type Context struct {
	manifest   *Manifest
	settings   map[string]any
	global     *config.Config
	registries Registries
	logger     *slog.Logger

	// Registration counts for boot logging
	policyCount    int
	conditionCount int
	routeCount     int
	hookCount      int
}

func newContext(manifest *Manifest, settings map[string]any, global *config.Config,
	registries Registries, logger *slog.Logger) *Context {
	return &Context{
		manifest:   manifest,
		settings:   settings,
		global:     global,
		registries: registries,
		logger:     logger.With("plugin", manifest.Name),
	}
}

// PluginName returns the owning plugin's name.
func (c *Context) PluginName() string {
	return c.manifest.Name
}

// Logger returns the plugin-scoped logger. Every record carries the
// plugin's name.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// RegisterPolicy registers a policy definition.
func (c *Context) RegisterPolicy(def *policy.Definition) error {
	if err := c.registries.Policies.Register(def); err != nil {
		return errors.Wrap(err, "PluginContext", "RegisterPolicy", "policy registration")
	}
	c.policyCount++
	return nil
}

// RegisterCondition registers a condition definition.
func (c *Context) RegisterCondition(def *condition.Definition) error {
	if err := c.registries.Conditions.Register(def); err != nil {
		return errors.Wrap(err, "PluginContext", "RegisterCondition", "condition registration")
	}
	c.conditionCount++
	return nil
}

// RegisterRoutes registers each route individually, stopping on the first
// failure.
func (c *Context) RegisterRoutes(defs ...*route.Definition) error {
	for _, def := range defs {
		if err := c.registries.Routes.Register(def); err != nil {
			return errors.Wrap(err, "PluginContext", "RegisterRoutes", "route registration")
		}
		c.routeCount++
	}
	return nil
}

// RegisterGraphQLHook registers a GraphQL execution hook.
func (c *Context) RegisterGraphQLHook(def *hook.Definition) error {
	if err := c.registries.Hooks.Register(def); err != nil {
		return errors.Wrap(err, "PluginContext", "RegisterGraphQLHook", "hook registration")
	}
	c.hookCount++
	return nil
}

// RegisterProvider hands a named provider off to the host framework's
// dependency injection. The engine records the hand-off and does nothing
// else with it.
func (c *Context) RegisterProvider(name string, provider any) {
	c.logger.Debug("Provider handed off to host", "provider", name, "type", fmt.Sprintf("%T", provider))
}

// GetConfig returns the plugin's own settings bag when called without a
// path, or resolves a dotted path against the gateway's global settings.
// Missing paths return nil.
func (c *Context) GetConfig(path ...string) any {
	if len(path) == 0 || path[0] == "" {
		return c.settings
	}
	val, ok := c.global.Lookup(strings.Join(path, "."))
	if !ok {
		return nil
	}
	return val
}
