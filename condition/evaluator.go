package condition

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gatewayql/gatewayql/errors"
	"github.com/gatewayql/gatewayql/metric"
)

// Combinator keys recognized in expression objects. Combinators take priority
// over condition names when both appear in the same object.
const (
	keyAnd = "and"
	keyOr  = "or"
	keyNot = "not"
)

// Evaluator evaluates condition expression trees against a request context.
//
// An expression is one of:
//   - a string: a condition name with empty parameters
//   - map{"and": [...]}: all children must hold (short-circuits, empty is true)
//   - map{"or": [...]}: any child must hold (short-circuits, empty is false)
//   - map{"not": expr}: negation
//   - map{name: params}: a single condition invocation
//
// Evaluation never propagates an error: handler failures, unknown condition
// names, and malformed expressions are logged and treated as false.
type Evaluator struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metric.Engine
}

// NewEvaluator creates a condition evaluator backed by the given registry.
// metrics may be nil.
func NewEvaluator(registry *Registry, logger *slog.Logger, metrics *metric.Engine) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// Evaluate evaluates an expression tree against the request context.
// Conditions fail closed: any error anywhere in the tree yields false.
func (e *Evaluator) Evaluate(ctx context.Context, expr any, rctx *RequestContext) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Condition evaluation panicked", "panic", r)
			result = false
		}
		if e.metrics != nil {
			e.metrics.ConditionEvaluated(result)
		}
	}()

	result, err := e.evaluate(ctx, expr, rctx)
	if err != nil {
		e.logger.Error("Condition evaluation failed", "error", err)
		return false
	}
	return result
}

// evaluate recurses through combinators; all nesting re-enters here.
func (e *Evaluator) evaluate(ctx context.Context, expr any, rctx *RequestContext) (bool, error) {
	switch v := expr.(type) {
	case string:
		return e.invoke(ctx, v, nil, rctx)

	case map[string]any:
		if children, ok := v[keyAnd]; ok {
			return e.evaluateAll(ctx, children, rctx)
		}
		if children, ok := v[keyOr]; ok {
			return e.evaluateAny(ctx, children, rctx)
		}
		if nested, ok := v[keyNot]; ok {
			result, err := e.evaluate(ctx, nested, rctx)
			if err != nil {
				return false, err
			}
			return !result, nil
		}
		return e.evaluateNamed(ctx, v, rctx)

	default:
		e.logger.Debug("Unsupported condition expression type", "expression", fmt.Sprintf("%T", expr))
		return false, nil
	}
}

// evaluateAll implements the "and" combinator: left-to-right with
// short-circuit on the first false. An empty child list is true.
func (e *Evaluator) evaluateAll(ctx context.Context, children any, rctx *RequestContext) (bool, error) {
	list, ok := children.([]any)
	if !ok {
		return false, errors.WrapInvalid(
			fmt.Errorf("'and' operand is %T, not a list: %w", children, errors.ErrInvalidExpression),
			"Evaluator", "evaluateAll", "operand validation")
	}

	for _, child := range list {
		result, err := e.evaluate(ctx, child, rctx)
		if err != nil {
			return false, err
		}
		if !result {
			return false, nil
		}
	}
	return true, nil
}

// evaluateAny implements the "or" combinator: left-to-right with
// short-circuit on the first true. An empty child list is false.
func (e *Evaluator) evaluateAny(ctx context.Context, children any, rctx *RequestContext) (bool, error) {
	list, ok := children.([]any)
	if !ok {
		return false, errors.WrapInvalid(
			fmt.Errorf("'or' operand is %T, not a list: %w", children, errors.ErrInvalidExpression),
			"Evaluator", "evaluateAny", "operand validation")
	}

	for _, child := range list {
		result, err := e.evaluate(ctx, child, rctx)
		if err != nil {
			return false, err
		}
		if result {
			return true, nil
		}
	}
	return false, nil
}

// evaluateNamed handles the {name: params} form. Only one key is honored;
// Go maps are unordered, so "first" means first in lexical key order and any
// extra keys are dropped with a warning.
func (e *Evaluator) evaluateNamed(ctx context.Context, obj map[string]any, rctx *RequestContext) (bool, error) {
	if len(obj) == 0 {
		e.logger.Debug("Empty condition expression object")
		return false, nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	name := keys[0]
	if len(keys) > 1 {
		e.logger.Warn("Condition expression has multiple keys, honoring only the first",
			"honored", name, "dropped", keys[1:])
	}

	return e.invoke(ctx, name, obj[name], rctx)
}

// invoke resolves a condition name and calls its handler.
func (e *Evaluator) invoke(ctx context.Context, name string, params any, rctx *RequestContext) (bool, error) {
	def, ok := e.registry.Get(name)
	if !ok {
		e.logger.Warn("Unknown condition", "condition", name)
		return false, nil
	}

	result, err := def.Handler(ctx, params, rctx)
	if err != nil {
		return false, errors.Wrap(err, "Evaluator", "invoke", fmt.Sprintf("condition '%s' evaluation", name))
	}
	return result, nil
}
