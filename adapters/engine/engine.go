// Package engine provides the chi-backed HTTP engine: it matches requests
// to registered routes, enforces compiled validation schemas, and invokes
// the wrapped handlers produced by the route compiler.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/declroute/declroute/app"
	"github.com/declroute/declroute/core/validation"
	"github.com/declroute/declroute/domain/route"
)

const maxBodyBytes = 10 << 20 // 10MB

// Engine implements app.Engine on top of chi.
type Engine struct {
	router chi.Router
	server *http.Server
	logger zerolog.Logger
}

// Config configures the engine's HTTP server.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates an engine with the fallback error responder and health
// endpoint installed.
func New(logger zerolog.Logger, cfg Config) *Engine {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)

	e := &Engine{
		router: r,
		logger: logger,
		server: &http.Server{
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	// Last-resort net: uncaught engine-level errors become structured
	// 400 responses instead of crashing the connection.
	r.Use(e.fallbackResponder)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// Handler exposes the underlying router, mainly for tests.
func (e *Engine) Handler() http.Handler {
	return e.router
}

// Register implements app.Engine.
func (e *Engine) Register(method, path string, h route.Wrapped, cs *app.CompiledSchema) {
	e.router.MethodFunc(strings.ToUpper(method), chiPath(path), e.dispatch(h, cs))
}

// RegisterRaw implements app.Engine.
func (e *Engine) RegisterRaw(method, path string, h route.Wrapped) {
	e.router.MethodFunc(strings.ToUpper(method), chiPath(path), e.dispatch(h, nil))
}

// Mount implements app.Engine.
func (e *Engine) Mount(path string, h http.Handler) {
	e.router.Mount(path, h)
}

// Start implements app.Engine. It returns immediately with an error when
// the socket cannot be bound, and nil after a clean shutdown.
func (e *Engine) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	e.logger.Info().Str("addr", addr).Msg("listening")

	if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown implements app.Engine.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.server.Shutdown(ctx)
}

// dispatch adapts a wrapped handler into an http.HandlerFunc, enforcing
// the compiled schema first when one is present.
func (e *Engine) dispatch(h route.Wrapped, cs *app.CompiledSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, errResp := e.buildRequest(r, cs)
		if errResp != nil {
			writeJSON(w, errResp.Status, errResp.Body)
			return
		}

		if cs != nil {
			if violations := validate(req, cs); len(violations) > 0 {
				writeJSON(w, http.StatusBadRequest, route.EngineErrorBody{
					Code:    "validation_failed",
					Message: "Request validation failed",
					Details: violations,
				})
				return
			}
		}

		resp := h(r.Context(), req)
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		if resp.Body == nil {
			w.WriteHeader(resp.Status)
			return
		}
		writeJSON(w, resp.Status, resp.Body)
	}
}

// buildRequest converts the incoming http.Request into the engine-agnostic
// request context handed to handlers.
func (e *Engine) buildRequest(r *http.Request, cs *app.CompiledSchema) (*route.Request, *route.Response) {
	req := &route.Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Headers: make(map[string]string, len(r.Header)),
		Params:  make(map[string]string),
		Query:   make(map[string]string),
		TraceID: chimw.GetReqID(r.Context()),
	}

	for k, v := range r.Header {
		if len(v) > 0 {
			req.Headers[k] = v[0]
		}
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			req.Query[k] = v[0]
		}
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			req.Params[key] = rctx.URLParams.Values[i]
		}
	}

	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, &route.Response{
				Status: http.StatusBadRequest,
				Body: route.EngineErrorBody{
					Code:    "bad_request",
					Message: "Failed to read request body",
				},
			}
		}
		if len(raw) > 0 {
			var body any
			if err := json.Unmarshal(raw, &body); err != nil {
				return nil, &route.Response{
					Status: http.StatusBadRequest,
					Body: route.EngineErrorBody{
						Code:    "invalid_json",
						Message: "Request body is not valid JSON",
					},
				}
			}
			req.Body = body
		}
	}

	return req, nil
}

// validate runs the per-location schemas against the request and returns
// every violation found.
func validate(req *route.Request, cs *app.CompiledSchema) []validation.FieldError {
	var violations []validation.FieldError

	violations = append(violations, checkLocation(cs.Query, "query", req.Query)...)
	violations = append(violations, checkLocation(cs.Path, "path", req.Params)...)
	violations = append(violations, checkHeaders(cs.Header, req.Headers)...)

	if cs.Body != nil {
		body := req.Body
		if body == nil {
			// Absent bodies check as empty objects so required fields
			// report individually instead of one opaque type error.
			body = map[string]any{}
		}
		res := cs.Body.Check(body)
		for _, fe := range res.Errors {
			fe.Field = prefixField("body", fe.Field)
			violations = append(violations, fe)
		}
	}

	return violations
}

func prefixField(location, field string) string {
	if field == "" {
		return location
	}
	return location + "." + field
}

func checkLocation(obj *validation.Object, location string, values map[string]string) []validation.FieldError {
	if obj == nil {
		return nil
	}
	m := make(map[string]any, len(values))
	for k, v := range values {
		m[k] = v
	}
	res := obj.Check(m)
	out := make([]validation.FieldError, 0, len(res.Errors))
	for _, fe := range res.Errors {
		fe.Field = prefixField(location, fe.Field)
		out = append(out, fe)
	}
	return out
}

// checkHeaders matches header schema fields case-insensitively, since
// header names are canonicalized on arrival.
func checkHeaders(obj *validation.Object, headers map[string]string) []validation.FieldError {
	if obj == nil {
		return nil
	}
	m := make(map[string]any, len(headers))
	for k, v := range headers {
		m[k] = v
	}
	for _, f := range obj.Fields {
		if _, ok := m[f.Name]; ok {
			continue
		}
		if v, ok := headers[http.CanonicalHeaderKey(f.Name)]; ok {
			m[f.Name] = v
		}
	}
	res := obj.Check(m)
	out := make([]validation.FieldError, 0, len(res.Errors))
	for _, fe := range res.Errors {
		fe.Field = prefixField("header", fe.Field)
		out = append(out, fe)
	}
	return out
}

// fallbackResponder converts panics escaping the engine's own processing
// into structured 400 responses.
func (e *Engine) fallbackResponder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				e.logger.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("engine-level error")
				writeJSON(w, http.StatusBadRequest, route.EngineErrorBody{
					Code:    "bad_request",
					Message: fmt.Sprintf("%v", rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// chiPath converts ":name" path parameters to chi's "{name}" form.
func chiPath(path string) string {
	if !strings.Contains(path, ":") {
		return path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already sent; nothing more to do.
		_ = err
	}
}
