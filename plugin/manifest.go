// Package plugin provides the plugin contract (manifest and bound context)
// and the manager that discovers, validates, and initializes plugins at boot.
package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/gatewayql/gatewayql/errors"
)

// InitFunc is a plugin's entry point. It receives the bound Context through
// which the plugin registers its policies, conditions, routes, and hooks.
// It runs once per process, during boot.
type InitFunc func(ctx context.Context, pctx *Context) error

// Manifest is the static plugin descriptor. Built once by the plugin
// author, loaded once per process, never mutated after load.
type Manifest struct {
	// Name uniquely identifies the plugin and is the key other plugins
	// declare dependencies against.
	Name string
	// Version is a semantic version string.
	Version string
	// Description and Author are informational.
	Description string
	Author      string
	// Init is the plugin's entry point.
	Init InitFunc
	// Schema optionally describes the plugin's settings bag as a JSON
	// schema (with $id) for external validation tooling.
	Schema json.RawMessage
	// Dependencies lists plugin names that must be loaded before this one.
	Dependencies []string
}

// Validate checks the manifest exposes the required contract: a name, a
// parseable semantic version, and an init entry point.
func (m *Manifest) Validate() error {
	if m == nil {
		return errors.WrapFatal(errors.ErrInvalidManifest, "Manifest", "Validate", "manifest presence check")
	}
	if m.Name == "" {
		return errors.WrapFatal(
			fmt.Errorf("manifest has no name: %w", errors.ErrInvalidManifest),
			"Manifest", "Validate", "name validation")
	}
	if m.Version == "" {
		return errors.WrapFatal(
			fmt.Errorf("plugin '%s' has no version: %w", m.Name, errors.ErrInvalidManifest),
			"Manifest", "Validate", "version validation")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("plugin '%s' version %q is not semver: %w", m.Name, m.Version, errors.ErrInvalidManifest),
			"Manifest", "Validate", "semver validation")
	}
	if m.Init == nil {
		return errors.WrapFatal(
			fmt.Errorf("plugin '%s' has no init entry point: %w", m.Name, errors.ErrInvalidManifest),
			"Manifest", "Validate", "init validation")
	}
	if len(m.Schema) > 0 {
		if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(m.Schema)); err != nil {
			return errors.WrapFatal(
				fmt.Errorf("plugin '%s' schema: %w", m.Name, err),
				"Manifest", "Validate", "schema compilation")
		}
	}
	return nil
}
