// Package app contains the route compiler and the route registry: the
// service layer that turns declarative route descriptors into validation
// schemas, documentation entries and dispatch-ready handlers.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/declroute/declroute/core/openapi"
	"github.com/declroute/declroute/core/schema"
	"github.com/declroute/declroute/core/validation"
	"github.com/declroute/declroute/domain/route"
	"github.com/declroute/declroute/ports"
)

// CompiledSchema is the per-route derivation produced at registration
// time: one validation schema per populated input location plus the
// documentation operation. It is recomputed on registration and never
// mutated afterwards.
type CompiledSchema struct {
	Query  *validation.Object
	Path   *validation.Object
	Header *validation.Object
	Body   validation.Schema

	Doc openapi.Operation
}

// Compiler derives schemas and wraps handlers for route descriptors.
type Compiler struct {
	verifier ports.TokenVerifier
	logger   zerolog.Logger
}

// NewCompiler creates a compiler. The verifier may be nil when no route
// requires authentication.
func NewCompiler(verifier ports.TokenVerifier, logger zerolog.Logger) *Compiler {
	return &Compiler{verifier: verifier, logger: logger}
}

// Compile derives the validation schemas and documentation metadata for a
// descriptor.
func (c *Compiler) Compile(d route.Descriptor) CompiledSchema {
	var cs CompiledSchema

	if len(d.Params) > 0 {
		p := schema.BuildParams(d.Params)
		cs.Query, cs.Path, cs.Header = p.Query, p.Path, p.Header
	}

	cs.Body = c.bodySchema(d)

	op := openapi.Operation{
		Summary:     d.DefaultSummary(),
		Description: d.DefaultDescription(),
		Tags:        d.Tags,
		Parameters:  schema.DocumentParams(d.Params),
		Responses:   schema.BuildResponses(d.Responses, d.ResponseSchema),
	}
	if op.Responses == nil {
		// OpenAPI requires at least one response per operation.
		op.Responses = map[string]openapi.Response{
			"200": {
				Description: "Successful response",
				Content:     openapi.JSONContent(openapi.GenericObject()),
			},
		}
	}
	if !d.RequestSchema.IsZero() {
		op.RequestBody = &openapi.RequestBody{
			Required: true,
			Content:  openapi.JSONContent(schema.ToDocument(d.RequestSchema)),
		}
	}
	cs.Doc = op

	c.warnUnknownTokens(d)
	return cs
}

// bodySchema picks the body validation schema: an explicit request schema
// wins (compiled inputs pass through); otherwise body-carrying methods get
// a maximally permissive schema so parsing is never rejected just for a
// missing declaration, and bodiless methods get none.
func (c *Compiler) bodySchema(d route.Descriptor) validation.Schema {
	if !d.RequestSchema.IsZero() {
		return schema.ToValidation(d.RequestSchema)
	}
	if d.HasBody() {
		return validation.Any{}
	}
	return nil
}

// warnUnknownTokens logs unrecognized type tokens at registration time.
// Inference still fails open on them; the warning makes typos observable.
func (c *Compiler) warnUnknownTokens(d route.Descriptor) {
	for _, p := range d.Params {
		if p.Type != "" && !p.Type.Known() {
			c.logger.Warn().
				Str("method", d.Method).
				Str("path", d.Path).
				Str("param", p.Name).
				Str("type", string(p.Type)).
				Msg("unknown parameter type token, validation falls open")
		}
	}
	warnInput(c.logger, d, d.RequestSchema)
	warnInput(c.logger, d, d.ResponseSchema)
	for _, entry := range d.Responses {
		warnInput(c.logger, d, entry.Schema)
	}
}

func warnInput(logger zerolog.Logger, d route.Descriptor, in schema.Input) {
	if el := in.Element(); el != nil {
		warnDefinition(logger, d, schema.Definition{*el})
		return
	}
	warnDefinition(logger, d, in.Definition())
}

func warnDefinition(logger zerolog.Logger, d route.Descriptor, def schema.Definition) {
	for _, f := range def {
		if f.Type != "" && !f.Type.Known() {
			logger.Warn().
				Str("method", d.Method).
				Str("path", d.Path).
				Str("field", f.Name).
				Str("type", string(f.Type)).
				Msg("unknown schema type token, validation falls open")
		}
		if f.Items != nil {
			warnDefinition(logger, d, schema.Definition{*f.Items})
		}
		warnDefinition(logger, d, f.Fields)
	}
}

// Wrap builds the dispatch-ready handler for a descriptor. Each request
// walks a small state machine: an optional auth check, then exactly one
// handler invocation, with 401 and 500 error exits. One failing request
// never affects another.
func (c *Compiler) Wrap(d route.Descriptor) route.Wrapped {
	handler := d.Handler
	requiresAuth := d.RequiresAuth
	verifier := c.verifier
	logger := c.logger

	return func(ctx context.Context, req *route.Request) route.Response {
		if requiresAuth {
			principal, errResp := authenticate(verifier, req)
			if errResp != nil {
				logger.Debug().
					Str("method", req.Method).
					Str("path", req.Path).
					Str("trace_id", req.TraceID).
					Str("reason", errResp.Body.(route.ErrorBody).Message).
					Msg("request rejected")
				return *errResp
			}
			req.Principal = principal
		}

		body, err := invoke(ctx, handler, req)
		if err != nil {
			logger.Error().
				Err(err).
				Str("method", req.Method).
				Str("path", req.Path).
				Str("trace_id", req.TraceID).
				Msg("handler error")
			return route.Response{
				Status: 500,
				Body: route.ErrorBody{
					Error:   "Internal Server Error",
					Message: errorMessage(err),
				},
			}
		}

		return route.Response{Status: req.Status(200), Body: body}
	}
}

// authenticate runs the AUTH_CHECK state: extract the bearer token, verify
// it, and return the decoded principal. A non-nil response means the
// request terminates with 401 and the handler is never invoked.
func authenticate(verifier ports.TokenVerifier, req *route.Request) (map[string]any, *route.Response) {
	header := req.Header("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, unauthorized("Missing or invalid token")
	}

	if verifier == nil {
		return nil, unauthorized("Token verification failed")
	}

	principal, err := verifier.Verify(token)
	if err != nil {
		return nil, unauthorized("Invalid or expired token")
	}
	// A nil payload with a nil error counts as a verification failure;
	// an empty-but-present claims map does not.
	if principal == nil {
		return nil, unauthorized("Token verification failed")
	}
	return principal, nil
}

func unauthorized(message string) *route.Response {
	return &route.Response{
		Status: 401,
		Body:   route.ErrorBody{Error: "Unauthorized", Message: message},
	}
}

// invoke runs the handler exactly once, converting panics into errors so
// a single bad request can never crash the process.
func invoke(ctx context.Context, h route.Handler, req *route.Request) (body any, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("%v", v)
			}
		}
	}()
	if h == nil {
		return nil, fmt.Errorf("no handler registered")
	}
	return h(ctx, req)
}

// errorMessage extracts a message from an error, with a generic fallback
// for errors that carry none.
func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "An unexpected error occurred"
	}
	return err.Error()
}
