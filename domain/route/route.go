// Package route provides the declarative route description value types.
// A Descriptor is the full record an integrator supplies to register one
// endpoint; it is compiled exactly once at registration time and never
// mutated afterwards.
package route

import (
	"context"
	"strings"

	"github.com/declroute/declroute/core/schema"
)

// Handler is the business handler for a route. The returned value is
// passed through unmodified as the response body; a returned error is
// converted to a structured 500 response by the compiler's wrapper.
type Handler func(ctx context.Context, req *Request) (any, error)

// Descriptor declares one endpoint (immutable value type).
type Descriptor struct {
	Method      string
	Path        string
	Description string
	Summary     string
	Tags        []string

	// Params declares query, path, header and cookie parameters.
	Params []schema.Parameter

	// RequestSchema declares the body shape. POST, PUT and PATCH routes
	// without one still accept any JSON body; other methods get no body
	// validation at all.
	RequestSchema schema.Input

	// ResponseSchema is the fallback shape inherited by the 200/201
	// entries of Responses when they carry no schema of their own.
	ResponseSchema schema.Input

	// Responses documents per-status responses.
	Responses schema.ResponseTable

	// RequiresAuth routes demand a valid bearer token before the handler
	// runs; the decoded payload becomes the request's Principal.
	RequiresAuth bool

	Handler Handler
}

// DefaultSummary returns the summary, falling back to the description and
// finally to "<METHOD> <path>". A route is never undocumented.
func (d Descriptor) DefaultSummary() string {
	if d.Summary != "" {
		return d.Summary
	}
	return d.DefaultDescription()
}

// DefaultDescription returns the description, falling back to
// "<METHOD> <path>".
func (d Descriptor) DefaultDescription() string {
	if d.Description != "" {
		return d.Description
	}
	return strings.ToUpper(d.Method) + " " + d.Path
}

// HasBody reports whether the route's method conventionally carries a
// request body.
func (d Descriptor) HasBody() bool {
	switch strings.ToUpper(d.Method) {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// JoinPath joins a base path and a route path, collapsing the double
// slash that appears when both sides contribute one: "/" + "/users" is
// "/users", "/api" + "/users/:id" is "/api/users/:id".
func JoinPath(basePath, path string) string {
	if basePath == "" {
		basePath = "/"
	}
	joined := strings.TrimSuffix(basePath, "/") + "/" + strings.TrimPrefix(path, "/")
	if joined != "/" && strings.HasSuffix(joined, "/") {
		joined = strings.TrimSuffix(joined, "/")
	}
	return joined
}
