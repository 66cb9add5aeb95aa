// Package metric provides Prometheus instrumentation for the plugin and
// policy engine. All metrics live in an engine-owned registry so embedding
// applications can expose or merge them as they see fit.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Policy execution outcomes recorded on the policy_executions_total counter.
const (
	OutcomeExecuted = "executed" // handler ran and continued the chain
	OutcomeStopped  = "stopped"  // handler ran and stopped the chain
	OutcomeSkipped  = "skipped"  // condition gated the policy out
	OutcomeMissing  = "missing"  // policy name not registered
	OutcomeError    = "error"    // handler returned an error
)

// Engine holds the engine's Prometheus metrics.
type Engine struct {
	registry *prometheus.Registry

	pluginsLoaded        prometheus.Counter
	policyExecutions     *prometheus.CounterVec
	policyDuration       *prometheus.HistogramVec
	conditionEvaluations *prometheus.CounterVec
	routeRequests        *prometheus.CounterVec
}

// NewEngine creates the engine metrics and registers them, along with Go
// runtime and process collectors, on a fresh Prometheus registry.
func NewEngine() *Engine {
	registry := prometheus.NewRegistry()

	e := &Engine{
		registry: registry,
		pluginsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gatewayql",
			Name:      "plugins_loaded_total",
			Help:      "Number of plugins successfully loaded",
		}),
		policyExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatewayql",
			Name:      "policy_executions_total",
			Help:      "Policy executions by policy name and outcome",
		}, []string{"policy", "outcome"}),
		policyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatewayql",
			Name:      "policy_duration_seconds",
			Help:      "Policy handler execution duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"policy"}),
		conditionEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatewayql",
			Name:      "condition_evaluations_total",
			Help:      "Condition expression evaluations by result",
		}, []string{"result"}),
		routeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatewayql",
			Name:      "route_requests_total",
			Help:      "Plugin route dispatches by method and status code",
		}, []string{"method", "status"}),
	}

	registry.MustRegister(
		e.pluginsLoaded,
		e.policyExecutions,
		e.policyDuration,
		e.conditionEvaluations,
		e.routeRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return e
}

// Registry returns the underlying Prometheus registry.
func (e *Engine) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler exposing the engine metrics.
func (e *Engine) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// PluginLoaded records a successful plugin load.
func (e *Engine) PluginLoaded() {
	e.pluginsLoaded.Inc()
}

// PolicyExecuted records a policy execution outcome.
func (e *Engine) PolicyExecuted(policy, outcome string) {
	e.policyExecutions.WithLabelValues(policy, outcome).Inc()
}

// PolicyTimed records a policy handler's execution duration in seconds.
func (e *Engine) PolicyTimed(policy string, seconds float64) {
	e.policyDuration.WithLabelValues(policy).Observe(seconds)
}

// ConditionEvaluated records a condition expression evaluation result.
func (e *Engine) ConditionEvaluated(result bool) {
	if result {
		e.conditionEvaluations.WithLabelValues("true").Inc()
	} else {
		e.conditionEvaluations.WithLabelValues("false").Inc()
	}
}

// RouteDispatched records a plugin route dispatch.
func (e *Engine) RouteDispatched(method, status string) {
	e.routeRequests.WithLabelValues(method, status).Inc()
}
