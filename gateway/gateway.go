// Package gateway assembles the plugin and policy engine into one
// explicitly constructed instance value. There are no process-wide
// singletons: every registry, the evaluator, the executor, and the plugin
// manager are owned by a Gateway and passed by reference where needed.
package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gatewayql/gatewayql/condition"
	"github.com/gatewayql/gatewayql/config"
	"github.com/gatewayql/gatewayql/errors"
	"github.com/gatewayql/gatewayql/hook"
	"github.com/gatewayql/gatewayql/metric"
	"github.com/gatewayql/gatewayql/plugin"
	"github.com/gatewayql/gatewayql/policy"
	"github.com/gatewayql/gatewayql/route"
)

// Gateway owns the engine's registries and execution machinery for one
// gateway instance.
type Gateway struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metric.Engine

	policies   *policy.Registry
	conditions *condition.Registry
	routes     *route.Registry
	hooks      *hook.Registry

	evaluator  *condition.Evaluator
	executor   *policy.Executor
	controller *route.Controller
	manager    *plugin.Manager
}

// New constructs a gateway instance: fresh registries, built-in conditions
// registered, and a plugin manager bound to the given resolver. metrics may
// be nil.
func New(cfg *config.Config, resolver plugin.Resolver, logger *slog.Logger, metrics *metric.Engine) (*Gateway, error) {
	if cfg == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Gateway", "New", "config validation")
	}
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		config:     cfg,
		logger:     logger,
		metrics:    metrics,
		policies:   policy.NewRegistry(),
		conditions: condition.NewRegistry(),
		routes:     route.NewRegistry(),
		hooks:      hook.NewRegistry(),
	}

	if err := condition.RegisterBuiltins(g.conditions); err != nil {
		return nil, errors.Wrap(err, "Gateway", "New", "builtin condition registration")
	}

	g.evaluator = condition.NewEvaluator(g.conditions, logger, metrics)
	g.executor = policy.NewExecutor(g.policies, g.evaluator, logger, metrics)
	g.controller = route.NewController(g.routes, cfg.MountPath, logger, metrics)
	g.manager = plugin.NewManager(resolver, cfg, plugin.Registries{
		Policies:   g.policies,
		Conditions: g.conditions,
		Routes:     g.routes,
		Hooks:      g.hooks,
	}, logger, metrics)

	return g, nil
}

// Boot loads all configured plugins in list order. Any failure aborts the
// sequence and should abort process startup.
func (g *Gateway) Boot(ctx context.Context) error {
	if err := g.manager.LoadAll(ctx, g.config.Plugins); err != nil {
		return err
	}
	g.logger.Info("Plugin boot complete",
		"plugins", len(g.manager.GetAllPlugins()),
		"policies", g.policies.Len(),
		"conditions", g.conditions.Len(),
		"routes", g.routes.Len(),
		"hooks", g.hooks.Len(),
	)
	return nil
}

// Handler returns the HTTP handler serving plugin routes under the
// configured mount path.
func (g *Gateway) Handler() http.Handler {
	return g.controller
}

// ExecutePolicy runs one policy against the request context.
func (g *Gateway) ExecutePolicy(ctx context.Context, cfg policy.ExecutionConfig, rctx *condition.RequestContext) (bool, error) {
	return g.executor.ExecutePolicy(ctx, cfg, rctx)
}

// ExecutePolicies runs an ordered policy chain against the request context.
func (g *Gateway) ExecutePolicies(ctx context.Context, cfgs []policy.ExecutionConfig, rctx *condition.RequestContext) (bool, error) {
	return g.executor.ExecutePolicies(ctx, cfgs, rctx)
}

// EvaluateCondition evaluates a condition expression tree.
func (g *Gateway) EvaluateCondition(ctx context.Context, expr any, rctx *condition.RequestContext) bool {
	return g.evaluator.Evaluate(ctx, expr, rctx)
}

// Policies returns the policy registry.
func (g *Gateway) Policies() *policy.Registry { return g.policies }

// Conditions returns the condition registry.
func (g *Gateway) Conditions() *condition.Registry { return g.conditions }

// Routes returns the route registry.
func (g *Gateway) Routes() *route.Registry { return g.routes }

// Hooks returns the GraphQL hook registry.
func (g *Gateway) Hooks() *hook.Registry { return g.hooks }

// Plugins returns the plugin manager's read-only query surface.
func (g *Gateway) Plugins() *plugin.Manager { return g.manager }
