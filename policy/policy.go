// Package policy provides named, parameterized request-governing behaviors
// and the executor that runs them in ordered, conditionally-gated,
// short-circuiting chains.
package policy

import (
	"context"
	"encoding/json"

	"github.com/gatewayql/gatewayql/condition"
)

// Outcome is a policy handler's verdict on the request chain.
type Outcome int

const (
	// Continue lets the chain proceed to the next policy.
	Continue Outcome = iota
	// Stop short-circuits the chain; no later policy runs.
	Stop
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return "unknown"
	}
}

// Handler is the tagged variant of a policy implementation: either a
// HandlerFunc executed by the engine, or a NativeHandler delegated to the
// host framework. The executor resolves behavior by matching the variant,
// never by reflective type probing of arbitrary values.
type Handler interface {
	isPolicyHandler()
}

// HandlerFunc is a policy implemented as a function of the invocation
// parameters and the request context.
type HandlerFunc func(ctx context.Context, params any, rctx *condition.RequestContext) (Outcome, error)

func (HandlerFunc) isPolicyHandler() {}

// NativeHandler references a host-framework policy by an opaque token.
// The engine does not execute it; it records the delegation and continues
// the chain, leaving the real behavior to the host.
type NativeHandler struct {
	Token string
}

func (NativeHandler) isPolicyHandler() {}

// Definition describes a registered policy.
type Definition struct {
	// Name uniquely identifies the policy in execution configs.
	Name string
	// Handler is the policy implementation variant.
	Handler Handler
	// Schema optionally carries a JSON schema (with $id) describing the
	// policy's parameters, for external validation tooling. Compiled at
	// registration, never enforced at execution time.
	Schema json.RawMessage
}

// ExecutionConfig is the transient, invocation-site description of one
// policy in a chain.
type ExecutionConfig struct {
	// Name of the registered policy to run.
	Name string `json:"name"`
	// Params passed to the policy handler.
	Params any `json:"params,omitempty"`
	// Condition optionally gates the policy with a condition expression
	// tree. A false condition skips the policy; the chain continues as if
	// the entry were absent.
	Condition any `json:"condition,omitempty"`
}
