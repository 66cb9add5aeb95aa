package policy

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewayql/gatewayql/condition"
)

type executorFixture struct {
	executor   *Executor
	policies   *Registry
	conditions *condition.Registry
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	policies := NewRegistry()
	conditions := condition.NewRegistry()
	evaluator := condition.NewEvaluator(conditions, nil, nil)
	return &executorFixture{
		executor:   NewExecutor(policies, evaluator, nil, nil),
		policies:   policies,
		conditions: conditions,
	}
}

func (f *executorFixture) addPolicy(t *testing.T, name string, outcome Outcome, calls *int) {
	t.Helper()
	err := f.policies.Register(&Definition{
		Name: name,
		Handler: HandlerFunc(func(_ context.Context, _ any, _ *condition.RequestContext) (Outcome, error) {
			if calls != nil {
				*calls++
			}
			return outcome, nil
		}),
	})
	require.NoError(t, err)
}

func (f *executorFixture) addCondition(t *testing.T, name string, result bool) {
	t.Helper()
	err := f.conditions.Register(&condition.Definition{
		Name: name,
		Handler: func(_ context.Context, _ any, _ *condition.RequestContext) (bool, error) {
			return result, nil
		},
	})
	require.NoError(t, err)
}

func requestContext() *condition.RequestContext {
	return &condition.RequestContext{
		Request:  httptest.NewRequest("POST", "/graphql", nil),
		Response: httptest.NewRecorder(),
	}
}

func TestExecutePolicyContinue(t *testing.T) {
	f := newExecutorFixture(t)
	calls := 0
	f.addPolicy(t, "auth", Continue, &calls)

	result, err := f.executor.ExecutePolicy(context.Background(), ExecutionConfig{Name: "auth"}, requestContext())
	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, 1, calls)
}

func TestExecutePolicyStop(t *testing.T) {
	f := newExecutorFixture(t)
	f.addPolicy(t, "deny", Stop, nil)

	result, err := f.executor.ExecutePolicy(context.Background(), ExecutionConfig{Name: "deny"}, requestContext())
	require.NoError(t, err)
	assert.False(t, result)
}

func TestExecutePolicyUnknownName(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.ExecutePolicy(context.Background(), ExecutionConfig{Name: "ghost"}, requestContext())
	require.NoError(t, err, "unknown policy is recovered, not an error")
	assert.False(t, result)
}

func TestExecutePolicySkippedByCondition(t *testing.T) {
	f := newExecutorFixture(t)
	calls := 0
	f.addPolicy(t, "auth", Stop, &calls)
	f.addCondition(t, "never", false)

	cfg := ExecutionConfig{Name: "auth", Condition: "never"}
	result, err := f.executor.ExecutePolicy(context.Background(), cfg, requestContext())
	require.NoError(t, err)
	assert.True(t, result, "a skipped policy must not stop the chain")
	assert.Equal(t, 0, calls, "the handler must never run when the condition gates it out")
}

func TestExecutePolicyGatedInByCondition(t *testing.T) {
	f := newExecutorFixture(t)
	calls := 0
	f.addPolicy(t, "auth", Continue, &calls)
	f.addCondition(t, "always", true)

	cfg := ExecutionConfig{Name: "auth", Condition: "always"}
	result, err := f.executor.ExecutePolicy(context.Background(), cfg, requestContext())
	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, 1, calls)
}

func TestExecutePolicyHandlerError(t *testing.T) {
	f := newExecutorFixture(t)
	require.NoError(t, f.policies.Register(&Definition{
		Name: "exploding",
		Handler: HandlerFunc(func(_ context.Context, _ any, _ *condition.RequestContext) (Outcome, error) {
			return Continue, errors.New("boom")
		}),
	}))

	result, err := f.executor.ExecutePolicy(context.Background(), ExecutionConfig{Name: "exploding"}, requestContext())
	require.Error(t, err, "handler errors propagate, unlike condition errors")
	assert.False(t, result)
	assert.Contains(t, err.Error(), "exploding")
}

func TestExecutePolicyNativeHandlerContinues(t *testing.T) {
	f := newExecutorFixture(t)
	require.NoError(t, f.policies.Register(&Definition{
		Name:    "cors",
		Handler: NativeHandler{Token: "cors.v1"},
	}))

	result, err := f.executor.ExecutePolicy(context.Background(), ExecutionConfig{Name: "cors"}, requestContext())
	require.NoError(t, err)
	assert.True(t, result)
}

func TestExecutePolicyParamsReachHandler(t *testing.T) {
	f := newExecutorFixture(t)
	var seen any
	require.NoError(t, f.policies.Register(&Definition{
		Name: "limit",
		Handler: HandlerFunc(func(_ context.Context, params any, _ *condition.RequestContext) (Outcome, error) {
			seen = params
			return Continue, nil
		}),
	}))

	params := map[string]any{"max": 100.0}
	_, err := f.executor.ExecutePolicy(context.Background(), ExecutionConfig{Name: "limit", Params: params}, requestContext())
	require.NoError(t, err)
	assert.Equal(t, params, seen)
}

func TestExecutePoliciesEmptyChain(t *testing.T) {
	f := newExecutorFixture(t)

	result, err := f.executor.ExecutePolicies(context.Background(), nil, requestContext())
	require.NoError(t, err)
	assert.True(t, result)
}

func TestExecutePoliciesShortCircuit(t *testing.T) {
	f := newExecutorFixture(t)
	p1Calls, p2Calls := 0, 0
	f.addPolicy(t, "p1", Stop, &p1Calls)
	f.addPolicy(t, "p2", Continue, &p2Calls)

	chain := []ExecutionConfig{{Name: "p1"}, {Name: "p2"}}
	result, err := f.executor.ExecutePolicies(context.Background(), chain, requestContext())
	require.NoError(t, err)
	assert.False(t, result)
	assert.Equal(t, 1, p1Calls)
	assert.Equal(t, 0, p2Calls, "p2 must never run after p1 stops the chain")
}

func TestExecutePoliciesRunsInOrder(t *testing.T) {
	f := newExecutorFixture(t)
	var order []string
	for _, name := range []string{"auth", "rate-limit", "audit"} {
		name := name
		require.NoError(t, f.policies.Register(&Definition{
			Name: name,
			Handler: HandlerFunc(func(_ context.Context, _ any, _ *condition.RequestContext) (Outcome, error) {
				order = append(order, name)
				return Continue, nil
			}),
		}))
	}

	chain := []ExecutionConfig{{Name: "auth"}, {Name: "rate-limit"}, {Name: "audit"}}
	result, err := f.executor.ExecutePolicies(context.Background(), chain, requestContext())
	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, []string{"auth", "rate-limit", "audit"}, order)
}

func TestExecutePoliciesErrorAbortsChain(t *testing.T) {
	f := newExecutorFixture(t)
	require.NoError(t, f.policies.Register(&Definition{
		Name: "exploding",
		Handler: HandlerFunc(func(_ context.Context, _ any, _ *condition.RequestContext) (Outcome, error) {
			return Continue, errors.New("boom")
		}),
	}))
	tailCalls := 0
	f.addPolicy(t, "tail", Continue, &tailCalls)

	chain := []ExecutionConfig{{Name: "exploding"}, {Name: "tail"}}
	result, err := f.executor.ExecutePolicies(context.Background(), chain, requestContext())
	require.Error(t, err)
	assert.False(t, result)
	assert.Equal(t, 0, tailCalls)
}

func TestExecutePoliciesSkippedPolicyContinuesChain(t *testing.T) {
	f := newExecutorFixture(t)
	f.addCondition(t, "never", false)
	f.addPolicy(t, "gated", Stop, nil)
	tailCalls := 0
	f.addPolicy(t, "tail", Continue, &tailCalls)

	chain := []ExecutionConfig{
		{Name: "gated", Condition: "never"},
		{Name: "tail"},
	}
	result, err := f.executor.ExecutePolicies(context.Background(), chain, requestContext())
	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, 1, tailCalls, "chain continues past a skipped policy")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "continue", Continue.String())
	assert.Equal(t, "stop", Stop.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
