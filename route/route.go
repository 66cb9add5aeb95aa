// Package route provides plugin-contributed HTTP routes and the dispatch
// controller that serves them under the gateway's plugin mount path.
package route

import (
	"context"
	"net/http"
)

// Request carries the inbound request to route handlers and middleware.
// Path is the route-relative path, with the mount prefix already stripped.
type Request struct {
	HTTP     *http.Request
	Response http.ResponseWriter
	Path     string
}

// Handler produces a result for a matched route. A non-nil result is
// JSON-serialized to the response unless the handler (or its middleware)
// already wrote one; a nil result with nothing written yields 204.
type Handler func(ctx context.Context, req *Request) (any, error)

// Middleware wraps a route handler. Calling next continues the chain;
// returning an error without calling next aborts it.
type Middleware func(next Handler) Handler

// Definition describes a plugin-registered route. (Method, Path) is the
// composite registry key.
type Definition struct {
	// Method is the HTTP method, matched case-insensitively.
	Method string
	// Path is the sub-path under the plugin mount, e.g. "/cache/stats".
	Path string
	// Handler serves matched requests.
	Handler Handler
	// Middleware runs in order around Handler.
	Middleware []Middleware
}
