package plugin

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	goplugin "plugin"

	"github.com/gatewayql/gatewayql/errors"
)

// Resolver maps a configured package reference to a plugin Manifest.
type Resolver interface {
	Resolve(pkg string) (*Manifest, error)
}

// Table is a build-time registration table keyed by package name. Plugins
// compiled into the gateway binary register themselves here and are resolved
// without any runtime loading.
type Table map[string]*Manifest

// Add registers a manifest under a package name. Duplicate package names
// are a hard error.
func (t Table) Add(pkg string, manifest *Manifest) error {
	if pkg == "" || manifest == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Table", "Add", "registration validation")
	}
	if _, exists := t[pkg]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("package '%s': %w", pkg, errors.ErrDuplicateRegistration),
			"Table", "Add", "duplicate package check")
	}
	t[pkg] = manifest
	return nil
}

// Resolve implements Resolver.
func (t Table) Resolve(pkg string) (*Manifest, error) {
	manifest, ok := t[pkg]
	if !ok {
		return nil, fmt.Errorf("package '%s': %w", pkg, errors.ErrPluginNotFound)
	}
	return manifest, nil
}

// SharedObjectResolver loads a plugin from a Go shared object on the local
// filesystem, resolved relative to Dir (the working directory when empty).
// The shared object must export a symbol named Manifest of type
// plugin.Manifest or *plugin.Manifest.
//
// This is the narrowly scoped runtime-loading path; compiled-in plugins via
// Table are the primary mechanism.
type SharedObjectResolver struct {
	Dir string
}

// Resolve implements Resolver.
func (r *SharedObjectResolver) Resolve(pkg string) (*Manifest, error) {
	path := pkg
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Dir, path)
	}
	if filepath.Ext(path) == "" {
		path += ".so"
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("package '%s' (%s): %w", pkg, path, errors.ErrPluginNotFound)
	}

	lib, err := goplugin.Open(path)
	if err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("package '%s': %w", pkg, err),
			"SharedObjectResolver", "Resolve", "shared object open")
	}

	sym, err := lib.Lookup("Manifest")
	if err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("package '%s' exports no Manifest symbol: %w", pkg, errors.ErrInvalidManifest),
			"SharedObjectResolver", "Resolve", "manifest symbol lookup")
	}

	switch m := sym.(type) {
	case *Manifest:
		return m, nil
	case **Manifest:
		return *m, nil
	default:
		return nil, errors.WrapFatal(
			fmt.Errorf("package '%s' Manifest symbol is %T: %w", pkg, sym, errors.ErrInvalidManifest),
			"SharedObjectResolver", "Resolve", "manifest symbol type check")
	}
}

// ChainResolver tries each resolver in order, falling through on "not
// found" and stopping on any other error. It implements the package-name
// first, filesystem-path fallback resolution order.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(pkg string) (*Manifest, error) {
	for _, r := range c {
		manifest, err := r.Resolve(pkg)
		if err == nil {
			return manifest, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("package '%s' unresolved by all resolvers: %w", pkg, errors.ErrPluginNotFound)
}

func isNotFound(err error) bool {
	return stderrors.Is(err, errors.ErrPluginNotFound)
}
