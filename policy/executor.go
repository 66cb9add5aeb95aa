package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatewayql/gatewayql/condition"
	"github.com/gatewayql/gatewayql/errors"
	"github.com/gatewayql/gatewayql/metric"
)

// Executor runs policy chains against a request. Chains are strictly
// sequential; array order encodes a correctness contract (auth before
// rate-limit before business logic) and is never reordered or parallelized.
type Executor struct {
	registry  *Registry
	evaluator *condition.Evaluator
	logger    *slog.Logger
	metrics   *metric.Engine
}

// NewExecutor creates a policy executor. metrics may be nil.
func NewExecutor(registry *Registry, evaluator *condition.Evaluator, logger *slog.Logger, metrics *metric.Engine) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry:  registry,
		evaluator: evaluator,
		logger:    logger,
		metrics:   metrics,
	}
}

// ExecutePolicy runs a single policy. The boolean result is the chain
// verdict: true continues the chain, false stops it.
//
//   - Unknown policy name: logged, counts as not executed (false).
//   - Condition evaluates false: the policy is skipped, not failed; the
//     handler never runs and the chain continues (true).
//   - Handler returns an error: logged with the policy name and returned.
//     Unlike conditions, policy failures abort the request, since policies
//     often guard security behavior.
func (e *Executor) ExecutePolicy(ctx context.Context, cfg ExecutionConfig, rctx *condition.RequestContext) (bool, error) {
	def, ok := e.registry.Get(cfg.Name)
	if !ok {
		e.logger.Warn("Unknown policy", "policy", cfg.Name)
		e.record(cfg.Name, metric.OutcomeMissing)
		return false, nil
	}

	if cfg.Condition != nil {
		if !e.evaluator.Evaluate(ctx, cfg.Condition, rctx) {
			e.logger.Debug("Policy skipped by condition", "policy", cfg.Name)
			e.record(cfg.Name, metric.OutcomeSkipped)
			return true, nil
		}
	}

	switch h := def.Handler.(type) {
	case HandlerFunc:
		start := time.Now()
		outcome, err := h(ctx, cfg.Params, rctx)
		if e.metrics != nil {
			e.metrics.PolicyTimed(cfg.Name, time.Since(start).Seconds())
		}
		if err != nil {
			e.logger.Error("Policy handler failed", "policy", cfg.Name, "error", err)
			e.record(cfg.Name, metric.OutcomeError)
			return false, errors.Wrap(err, "Executor", "ExecutePolicy",
				fmt.Sprintf("policy '%s' execution", cfg.Name))
		}
		if outcome == Stop {
			e.record(cfg.Name, metric.OutcomeStopped)
			return false, nil
		}
		e.record(cfg.Name, metric.OutcomeExecuted)
		return true, nil

	case NativeHandler:
		// Real behavior is delegated to the host framework; the engine
		// records the hand-off and continues the chain.
		e.logger.Debug("Native policy handler delegated to host", "policy", cfg.Name, "token", h.Token)
		e.record(cfg.Name, metric.OutcomeExecuted)
		return true, nil

	default:
		e.record(cfg.Name, metric.OutcomeError)
		return false, errors.WrapInvalid(
			fmt.Errorf("policy '%s' has unsupported handler variant %T", cfg.Name, def.Handler),
			"Executor", "ExecutePolicy", "handler variant resolution")
	}
}

// ExecutePolicies runs a chain of policies strictly in order, stopping
// immediately on the first false verdict or error. An empty chain is true.
func (e *Executor) ExecutePolicies(ctx context.Context, cfgs []ExecutionConfig, rctx *condition.RequestContext) (bool, error) {
	for _, cfg := range cfgs {
		result, err := e.ExecutePolicy(ctx, cfg, rctx)
		if err != nil {
			return false, err
		}
		if !result {
			return false, nil
		}
	}
	return true, nil
}

func (e *Executor) record(policy, outcome string) {
	if e.metrics != nil {
		e.metrics.PolicyExecuted(policy, outcome)
	}
}
