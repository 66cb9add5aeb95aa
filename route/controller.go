package route

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gatewayql/gatewayql/metric"
)

// Controller dispatches inbound requests to plugin-registered routes.
// It is mounted at a fixed prefix (e.g. "/plugins") and strips that prefix
// before matching (method, path) against the route registry.
type Controller struct {
	registry  *Registry
	mountPath string
	logger    *slog.Logger
	metrics   *metric.Engine
}

// NewController creates a route dispatch controller. mountPath is the fixed
// prefix plugin routes are exposed under; metrics may be nil.
func NewController(registry *Registry, mountPath string, logger *slog.Logger, metrics *metric.Engine) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	mountPath = strings.TrimSuffix(mountPath, "/")
	return &Controller{
		registry:  registry,
		mountPath: mountPath,
		logger:    logger,
		metrics:   metrics,
	}
}

// MountPath returns the fixed prefix plugin routes are exposed under.
func (c *Controller) MountPath() string {
	return c.mountPath
}

// requestIDFor extracts the request ID from headers or generates a new one
// for tracing route dispatches.
func requestIDFor(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return uuid.NewString()
}

// ServeHTTP implements http.Handler. Matched routes run their middleware
// sequence to completion and then the handler; a non-nil handler result is
// JSON-serialized unless a response was already written. Errors anywhere in
// the chain are caught, logged, and converted to a 500 JSON response.
func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if c.mountPath != "" {
		if !strings.HasPrefix(path, c.mountPath) {
			c.writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		path = strings.TrimPrefix(path, c.mountPath)
	}
	if path == "" {
		path = "/"
	}

	def, ok := c.registry.Get(r.Method, path)
	if !ok {
		c.writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	rec := &responseRecorder{ResponseWriter: w}
	handler := def.Handler
	for i := len(def.Middleware) - 1; i >= 0; i-- {
		handler = def.Middleware[i](handler)
	}

	result, err := handler(r.Context(), &Request{HTTP: r, Response: rec, Path: path})
	if err != nil {
		requestID := requestIDFor(r)
		c.logger.Error("Route handler failed",
			"method", r.Method, "path", path, "request_id", requestID, "error", err)
		if !rec.written {
			c.writeJSON(rec, http.StatusInternalServerError, map[string]any{
				"error":      "internal server error",
				"request_id": requestID,
			})
		}
		c.recordDispatch(r.Method, http.StatusInternalServerError)
		return
	}

	// A handler or middleware that already wrote the response owns it
	if rec.written {
		c.recordDispatch(r.Method, rec.status)
		return
	}

	if result == nil {
		rec.WriteHeader(http.StatusNoContent)
		c.recordDispatch(r.Method, http.StatusNoContent)
		return
	}

	c.writeJSON(rec, http.StatusOK, result)
	c.recordDispatch(r.Method, http.StatusOK)
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("Failed to encode route response", "error", err)
	}
}

func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	c.writeJSON(w, status, map[string]any{"error": message})
	c.recordDispatch(r.Method, status)
}

func (c *Controller) recordDispatch(method string, status int) {
	if c.metrics != nil {
		c.metrics.RouteDispatched(method, strconv.Itoa(status))
	}
}

// responseRecorder tracks whether a response has been started so the
// controller can defer entirely once a handler writes.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.written {
		return
	}
	r.status = status
	r.written = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.status = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}
