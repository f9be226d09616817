package route

import (
	"context"
	"net/http"
)

// Request is the per-request context handed to handlers by the engine.
// It is confined to a single request and never shared across requests.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Params  map[string]string
	Query   map[string]string
	Body    any

	// Principal is the decoded token payload attached after successful
	// authentication; nil on unauthenticated routes.
	Principal map[string]any

	// TraceID correlates log lines for this request.
	TraceID string

	status int
}

// SetStatus overrides the success status code for this request.
func (r *Request) SetStatus(code int) {
	r.status = code
}

// Status returns the status set by the handler, or the fallback when no
// override was made.
func (r *Request) Status(fallback int) int {
	if r.status != 0 {
		return r.status
	}
	return fallback
}

// Header returns a request header value by canonical name.
func (r *Request) Header(name string) string {
	return r.Headers[http.CanonicalHeaderKey(name)]
}

// Response is the terminal outcome of a dispatched request.
type Response struct {
	Status  int
	Body    any
	Headers map[string]string
}

// Wrapped is a fully dispatched route handler: authentication, invocation
// and error containment already applied. The engine calls it once per
// matching request.
type Wrapped func(ctx context.Context, req *Request) Response

// Middleware decorates a wrapped handler. The registry owns an ordered
// pipeline of these, built once at construction.
type Middleware func(next Wrapped) Wrapped

// ErrorBody is the structured body for handler-level failures.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EngineErrorBody is the structured body for engine-level failures, the
// last-resort net underneath the handler-level policy.
type EngineErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
