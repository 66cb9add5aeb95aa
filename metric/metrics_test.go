package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCounters(t *testing.T) {
	e := NewEngine()

	e.PluginLoaded()
	e.PluginLoaded()
	assert.Equal(t, 2.0, testutil.ToFloat64(e.pluginsLoaded))

	e.PolicyExecuted("rate-limit", OutcomeExecuted)
	e.PolicyExecuted("rate-limit", OutcomeSkipped)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.policyExecutions.WithLabelValues("rate-limit", OutcomeExecuted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.policyExecutions.WithLabelValues("rate-limit", OutcomeSkipped)))

	e.ConditionEvaluated(true)
	e.ConditionEvaluated(false)
	e.ConditionEvaluated(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.conditionEvaluations.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.conditionEvaluations.WithLabelValues("false")))

	e.RouteDispatched("GET", "200")
	assert.Equal(t, 1.0, testutil.ToFloat64(e.routeRequests.WithLabelValues("GET", "200")))
}

func TestEngineHandlerExposition(t *testing.T) {
	e := NewEngine()
	e.PluginLoaded()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "gatewayql_plugins_loaded_total 1"))
}
