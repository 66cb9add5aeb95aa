// Package gatewayql is the extensibility and request-governance core of a
// GraphQL API gateway.
//
// # Architecture
//
// GatewayQL lets independently packaged plugins register reusable behaviors
// that the gateway composes and executes at request time:
//
//   - Policies: named, parameterized request-governing behaviors executed in
//     ordered, short-circuiting chains
//   - Conditions: named boolean predicates over a request/response pair,
//     composable with and/or/not expression trees
//   - Routes: plugin-contributed HTTP endpoints exposed under a fixed mount
//   - GraphQL hooks: priority-ordered extension points for schema transforms,
//     resolver middleware, subgraph requests, and entity references
//
// The leaf-to-root component stack:
//
//	plugin.Manifest / plugin.Context   static contract a plugin is written against
//	condition/policy/route/hook        four independent keyed registries
//	condition.Evaluator                recursive boolean expression evaluation
//	policy.Executor                    ordered, conditionally-gated policy chains
//	plugin.Manager                     dependency-checked, fail-fast plugin boot
//	route.Controller                   HTTP edge dispatching plugin routes
//	gateway.Gateway                    one instance value owning all of the above
//
// At boot the plugin Manager walks the configured plugin list in order,
// resolves each package, verifies its declared dependencies are already
// loaded, and invokes its init entry point with a bound Context through
// which the plugin populates the registries. At request time the gateway
// pipeline asks the policy Executor to run a chain; each policy's condition
// tree is evaluated first and gates whether its handler runs.
//
// Registries are written only during boot and read-only during request
// handling, so request-time access needs no coordination beyond the
// registries' own locking.
package gatewayql
