// Package config provides the gateway's boot-time configuration: the ordered
// plugin list, the HTTP surface, and arbitrary global settings exposed to
// plugins by dotted path.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gatewayql/gatewayql/errors"
)

// Defaults applied by Load when the file leaves fields unset.
const (
	DefaultListen      = ":8080"
	DefaultMountPath   = "/plugins"
	DefaultMetricsPath = "/metrics"
)

// PluginConfig is one boot-time plugin entry. Entries load strictly in list
// order; the operator is responsible for ordering dependencies before their
// dependents.
type PluginConfig struct {
	// Package resolves the plugin implementation: a registered package
	// name, or a local filesystem path relative to the working directory.
	Package string `json:"package" yaml:"package"`
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Settings is the plugin's private settings bag, handed to it through
	// its Context.
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// IsEnabled reports whether the entry should be loaded.
func (p *PluginConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Config is the complete gateway configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `json:"listen" yaml:"listen"`
	// MountPath is the fixed prefix plugin routes are exposed under.
	MountPath string `json:"mount_path" yaml:"mount_path"`
	// MetricsPath is where Prometheus metrics are exposed.
	MetricsPath string `json:"metrics_path" yaml:"metrics_path"`
	// Plugins is the ordered plugin boot list.
	Plugins []PluginConfig `json:"plugins" yaml:"plugins"`
	// Settings holds arbitrary global configuration, readable by plugins
	// through dotted-path lookup.
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Load reads and validates a configuration file. JSON and YAML are
// supported, selected by file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Config", "Load", "config file read")
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "JSON config parse")
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "YAML config parse")
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.MountPath == "" {
		c.MountPath = DefaultMountPath
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
}

// Validate checks structural requirements of the configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.MountPath, "/") {
		return errors.WrapFatal(
			fmt.Errorf("mount_path %q must start with '/': %w", c.MountPath, errors.ErrInvalidConfig),
			"Config", "Validate", "mount path validation")
	}
	for i, p := range c.Plugins {
		if p.Package == "" {
			return errors.WrapFatal(
				fmt.Errorf("plugins[%d] has no package: %w", i, errors.ErrInvalidConfig),
				"Config", "Validate", "plugin entry validation")
		}
	}
	return nil
}

// Lookup resolves a dotted path (e.g. "graphql.maxDepth") against the
// global settings map.
func (c *Config) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	return lookupNested(c.Settings, strings.Split(path, "."))
}

func lookupNested(m map[string]any, keys []string) (any, bool) {
	current := m
	for i, key := range keys {
		val, ok := current[key]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return val, true
		}
		nested, ok := val.(map[string]any)
		if !ok {
			return nil, false
		}
		current = nested
	}
	return nil, false
}
