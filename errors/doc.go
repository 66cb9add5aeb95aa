// Package errors provides standardized error handling patterns for GatewayQL components.
//
// # Overview
//
// The errors package implements a three-class error classification system for the
// plugin and policy engine: Transient (temporary), Invalid (bad input,
// non-retryable), and Fatal (unrecoverable, abort boot).
//
// The engine's error taxonomy maps onto these classes as follows:
//
//   - Plugin load errors (unresolved package, invalid manifest, unmet dependency)
//     are Fatal: they abort the entire boot sequence and surface at the process
//     entry point.
//   - Registration errors (duplicate keys, invalid definitions) are Invalid: a
//     plugin init that produces one fails that plugin's load, which in turn
//     aborts boot.
//   - Condition evaluation errors are never surfaced as errors at all: the
//     evaluator recovers them locally, logs, and treats the condition as false.
//   - Policy handler errors are wrapped with the policy name and propagate to
//     the caller, aborting the request's policy chain.
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if _, exists := r.policies[name]; exists {
//	    return errors.WrapInvalid(errors.ErrDuplicateRegistration,
//	        "PolicyRegistry", "Register", "duplicate policy check")
//	}
//
// Wrap errors with component context:
//
//	if err := manifest.Validate(); err != nil {
//	    return errors.WrapFatal(err, "Manager", "loadPlugin", "manifest validation")
//	}
//
// Check classification at handling sites:
//
//	if errors.IsFatal(err) {
//	    return err // abort boot
//	}
package errors
