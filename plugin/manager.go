package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/gatewayql/gatewayql/config"
	"github.com/gatewayql/gatewayql/errors"
	"github.com/gatewayql/gatewayql/metric"
)

// Manager discovers, validates, and initializes plugins. Loading is
// strictly sequential in configured list order, fail-fast, and
// all-or-nothing: any failure aborts the entire boot sequence.
type Manager struct {
	resolver   Resolver
	global     *config.Config
	registries Registries
	logger     *slog.Logger
	metrics    *metric.Engine

	mu     sync.RWMutex
	loaded map[string]*Manifest
	order  []string
}

// NewManager creates a plugin manager. metrics may be nil.
func NewManager(resolver Resolver, global *config.Config, registries Registries,
	logger *slog.Logger, metrics *metric.Engine) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		resolver:   resolver,
		global:     global,
		registries: registries,
		logger:     logger,
		metrics:    metrics,
		loaded:     make(map[string]*Manifest),
	}
}

// LoadAll loads every enabled plugin entry in list order. The first failure
// aborts and is returned; no partial recovery is attempted. Load order is
// caller-controlled: a dependency must appear earlier in the list than its
// dependents, since the manager checks presence rather than solving a
// dependency graph.
func (m *Manager) LoadAll(ctx context.Context, entries []config.PluginConfig) error {
	for _, entry := range entries {
		if !entry.IsEnabled() {
			m.logger.Debug("Plugin disabled, skipping", "package", entry.Package)
			continue
		}
		if err := m.loadPlugin(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// loadPlugin resolves, validates, dependency-checks, and initializes one
// plugin, recording its manifest only after init succeeds.
func (m *Manager) loadPlugin(ctx context.Context, entry config.PluginConfig) error {
	manifest, err := m.resolver.Resolve(entry.Package)
	if err != nil {
		return errors.WrapFatal(err, "Manager", "loadPlugin", "plugin resolution")
	}

	if err := manifest.Validate(); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("package '%s': %w", entry.Package, err),
			"Manager", "loadPlugin", "manifest validation")
	}

	if m.IsPluginLoaded(manifest.Name) {
		return errors.WrapFatal(
			fmt.Errorf("plugin '%s' (package '%s'): %w", manifest.Name, entry.Package, errors.ErrDuplicateRegistration),
			"Manager", "loadPlugin", "duplicate plugin check")
	}

	for _, dep := range manifest.Dependencies {
		if !m.IsPluginLoaded(dep) {
			return errors.WrapFatal(
				fmt.Errorf("plugin '%s' requires plugin '%s', which is not loaded: %w",
					manifest.Name, dep, errors.ErrMissingDependency),
				"Manager", "loadPlugin", "dependency check")
		}
	}

	pctx := newContext(manifest, entry.Settings, m.global, m.registries, m.logger)
	if err := manifest.Init(ctx, pctx); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("plugin '%s' init: %w", manifest.Name, err),
			"Manager", "loadPlugin", "plugin initialization")
	}

	m.mu.Lock()
	m.loaded[manifest.Name] = manifest
	m.order = append(m.order, manifest.Name)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.PluginLoaded()
	}
	m.logger.Info("Plugin loaded",
		"plugin", manifest.Name,
		"version", manifest.Version,
		"policies", pctx.policyCount,
		"conditions", pctx.conditionCount,
		"routes", pctx.routeCount,
		"hooks", pctx.hookCount,
	)
	return nil
}

// GetPlugin returns a loaded plugin's manifest by name.
func (m *Manager) GetPlugin(name string) (*Manifest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	manifest, ok := m.loaded[name]
	return manifest, ok
}

// GetAllPlugins returns all loaded manifests keyed by name. The map is a
// copy.
func (m *Manager) GetAllPlugins() map[string]*Manifest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*Manifest, len(m.loaded))
	maps.Copy(result, m.loaded)
	return result
}

// IsPluginLoaded reports whether a plugin with the given name has loaded.
func (m *Manager) IsPluginLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.loaded[name]
	return ok
}

// LoadOrder returns plugin names in the order they finished loading.
func (m *Manager) LoadOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, len(m.order))
	copy(result, m.order)
	return result
}
