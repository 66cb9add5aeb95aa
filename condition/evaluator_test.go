package condition

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHandler returns a fixed result and counts invocations.
func countingHandler(result bool, calls *int) Handler {
	return func(_ context.Context, _ any, _ *RequestContext) (bool, error) {
		*calls++
		return result, nil
	}
}

func newTestEvaluator(t *testing.T) (*Evaluator, *Registry) {
	t.Helper()
	reg := NewRegistry()
	return NewEvaluator(reg, nil, nil), reg
}

func testRequestContext() *RequestContext {
	return &RequestContext{
		Request:  httptest.NewRequest("GET", "/graphql", nil),
		Response: httptest.NewRecorder(),
	}
}

func TestEvaluateStringExpression(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	calls := 0
	require.NoError(t, reg.Register(&Definition{Name: "always", Handler: countingHandler(true, &calls)}))

	assert.True(t, ev.Evaluate(context.Background(), "always", testRequestContext()))
	assert.Equal(t, 1, calls)
}

func TestEvaluateEmptyCombinators(t *testing.T) {
	ev, _ := newTestEvaluator(t)
	rctx := testRequestContext()

	assert.True(t, ev.Evaluate(context.Background(), map[string]any{"and": []any{}}, rctx))
	assert.False(t, ev.Evaluate(context.Background(), map[string]any{"or": []any{}}, rctx))
}

func TestEvaluateAndShortCircuit(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	aCalls, bCalls := 0, 0
	require.NoError(t, reg.Register(&Definition{Name: "a", Handler: countingHandler(false, &aCalls)}))
	require.NoError(t, reg.Register(&Definition{Name: "b", Handler: countingHandler(true, &bCalls)}))

	expr := map[string]any{"and": []any{"a", "b"}}
	assert.False(t, ev.Evaluate(context.Background(), expr, testRequestContext()))
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls, "b must never be invoked after a short-circuits the and")
}

func TestEvaluateOrShortCircuit(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	aCalls, bCalls := 0, 0
	require.NoError(t, reg.Register(&Definition{Name: "a", Handler: countingHandler(true, &aCalls)}))
	require.NoError(t, reg.Register(&Definition{Name: "b", Handler: countingHandler(false, &bCalls)}))

	expr := map[string]any{"or": []any{"a", "b"}}
	assert.True(t, ev.Evaluate(context.Background(), expr, testRequestContext()))
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls)
}

func TestEvaluateDoubleNegation(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	for _, leaf := range []struct {
		name   string
		result bool
	}{
		{"truthy", true},
		{"falsy", false},
	} {
		calls := 0
		require.NoError(t, reg.Register(&Definition{Name: leaf.name, Handler: countingHandler(leaf.result, &calls)}))

		rctx := testRequestContext()
		direct := ev.Evaluate(context.Background(), leaf.name, rctx)
		doubled := ev.Evaluate(context.Background(),
			map[string]any{"not": map[string]any{"not": leaf.name}}, rctx)

		assert.Equal(t, direct, doubled, "not(not(%s)) must equal %s", leaf.name, leaf.name)
	}
}

func TestEvaluateNot(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	calls := 0
	require.NoError(t, reg.Register(&Definition{Name: "always", Handler: countingHandler(true, &calls)}))

	assert.False(t, ev.Evaluate(context.Background(), map[string]any{"not": "always"}, testRequestContext()))
}

func TestEvaluateNamedWithParams(t *testing.T) {
	ev, reg := newTestEvaluator(t)

	var seenParams any
	require.NoError(t, reg.Register(&Definition{
		Name: "paramEcho",
		Handler: func(_ context.Context, params any, _ *RequestContext) (bool, error) {
			seenParams = params
			return true, nil
		},
	}))

	expr := map[string]any{"paramEcho": map[string]any{"limit": 10.0}}
	assert.True(t, ev.Evaluate(context.Background(), expr, testRequestContext()))
	require.IsType(t, map[string]any{}, seenParams)
	assert.Equal(t, 10.0, seenParams.(map[string]any)["limit"])
}

func TestEvaluateMultiKeyHonorsOnlyOne(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	aCalls, bCalls := 0, 0
	require.NoError(t, reg.Register(&Definition{Name: "alpha", Handler: countingHandler(true, &aCalls)}))
	require.NoError(t, reg.Register(&Definition{Name: "beta", Handler: countingHandler(true, &bCalls)}))

	expr := map[string]any{"alpha": nil, "beta": nil}
	assert.True(t, ev.Evaluate(context.Background(), expr, testRequestContext()))
	assert.Equal(t, 1, aCalls+bCalls, "exactly one key must be honored")
}

func TestEvaluateUnknownConditionIsFalse(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	assert.False(t, ev.Evaluate(context.Background(), "missing", testRequestContext()))
}

func TestEvaluateHandlerErrorIsFalse(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	require.NoError(t, reg.Register(&Definition{
		Name: "exploding",
		Handler: func(_ context.Context, _ any, _ *RequestContext) (bool, error) {
			return true, errors.New("boom")
		},
	}))

	assert.False(t, ev.Evaluate(context.Background(), "exploding", testRequestContext()))
}

func TestEvaluateHandlerPanicIsFalse(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	require.NoError(t, reg.Register(&Definition{
		Name: "panicking",
		Handler: func(_ context.Context, _ any, _ *RequestContext) (bool, error) {
			panic("boom")
		},
	}))

	assert.False(t, ev.Evaluate(context.Background(), "panicking", testRequestContext()))
}

func TestEvaluateNonExpressionValues(t *testing.T) {
	ev, _ := newTestEvaluator(t)
	rctx := testRequestContext()

	for _, expr := range []any{nil, 42, 3.14, true, []any{"a"}} {
		assert.False(t, ev.Evaluate(context.Background(), expr, rctx), "expression %v must be false", expr)
	}
	assert.False(t, ev.Evaluate(context.Background(), map[string]any{}, rctx))
}

func TestEvaluateMalformedCombinator(t *testing.T) {
	ev, _ := newTestEvaluator(t)

	// "and" operand that is not a list fails closed
	assert.False(t, ev.Evaluate(context.Background(), map[string]any{"and": "notAList"}, testRequestContext()))
}

func TestEvaluateNestedCombinators(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	tCalls, fCalls := 0, 0
	require.NoError(t, reg.Register(&Definition{Name: "t", Handler: countingHandler(true, &tCalls)}))
	require.NoError(t, reg.Register(&Definition{Name: "f", Handler: countingHandler(false, &fCalls)}))

	// (t or f) and not(f)
	expr := map[string]any{"and": []any{
		map[string]any{"or": []any{"t", "f"}},
		map[string]any{"not": "f"},
	}}
	assert.True(t, ev.Evaluate(context.Background(), expr, testRequestContext()))
}

func TestEvaluateErrorInsideCombinatorFailsClosed(t *testing.T) {
	ev, reg := newTestEvaluator(t)
	calls := 0
	require.NoError(t, reg.Register(&Definition{Name: "t", Handler: countingHandler(true, &calls)}))
	require.NoError(t, reg.Register(&Definition{
		Name: "exploding",
		Handler: func(_ context.Context, _ any, _ *RequestContext) (bool, error) {
			return true, errors.New("boom")
		},
	}))

	// An error in a child poisons the whole tree, even under "or"
	expr := map[string]any{"or": []any{"exploding", "t"}}
	assert.False(t, ev.Evaluate(context.Background(), expr, testRequestContext()))
}
