package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/declroute/declroute/core/openapi"
	"github.com/declroute/declroute/domain/route"
	"github.com/declroute/declroute/ports"
)

// DefaultPort is used when neither the configured host nor the Start
// argument carries a port.
const DefaultPort = 8420

// Engine is the external HTTP engine collaborator. It matches requests to
// registered paths, enforces the compiled validation schema, and invokes
// the wrapped handler. The chi-backed implementation lives in
// adapters/engine.
type Engine interface {
	// Register mounts a compiled route. The engine enforces cs before
	// invoking h.
	Register(method, path string, h route.Wrapped, cs *CompiledSchema)

	// RegisterRaw mounts a route with no validation schema.
	RegisterRaw(method, path string, h route.Wrapped)

	// Mount attaches a plain http.Handler subtree (metrics, docs UI).
	Mount(path string, h http.Handler)

	// MountDocs exposes the generated OpenAPI document and its UI.
	MountDocs(provider func() *openapi.Spec)

	// Start binds the listening socket and serves until Shutdown. It
	// returns an error immediately if binding fails and nil after a
	// clean shutdown.
	Start(addr string) error

	// Shutdown gracefully stops the engine.
	Shutdown(ctx context.Context) error
}

// Options configures a Registry.
type Options struct {
	// BasePath prefixes every registered route path. A trailing or
	// duplicated slash is collapsed when joining.
	BasePath string

	// Host is the bind host; it may embed a port ("0.0.0.0:9000"),
	// which then takes priority over the Start argument.
	Host string

	// Docs is the document metadata (title, description, version).
	Docs openapi.Info

	// DisableDocs leaves the documentation endpoints unmounted. The
	// document is still built and available through Document.
	DisableDocs bool

	// Verifier validates bearer tokens for RequiresAuth routes.
	Verifier ports.TokenVerifier

	// Middleware is the caller-supplied tail of the dispatch pipeline.
	// The pipeline is fixed at construction and never mutated after.
	Middleware []route.Middleware

	Logger zerolog.Logger
}

type registered struct {
	desc     route.Descriptor
	compiled CompiledSchema
	fullPath string
}

// Registry accumulates route descriptors, compiles each exactly once, and
// registers the result with the engine. Registration happens during the
// startup phase, before the listening socket is bound; the route list is
// read-only afterwards.
type Registry struct {
	engine   Engine
	compiler *Compiler
	opts     Options
	pipeline []route.Middleware
	logger   zerolog.Logger

	routes  []registered
	started atomic.Bool
}

// NewRegistry creates a registry around an engine. The middleware
// pipeline is built here, once, in the order given.
func NewRegistry(engine Engine, opts Options) *Registry {
	pipeline := make([]route.Middleware, len(opts.Middleware))
	copy(pipeline, opts.Middleware)

	return &Registry{
		engine:   engine,
		compiler: NewCompiler(opts.Verifier, opts.Logger),
		opts:     opts,
		pipeline: pipeline,
		logger:   opts.Logger,
	}
}

// Register compiles a descriptor and mounts it on the engine. Returns the
// registry for chaining. Calls after Start are rejected: the route list
// must be complete before the socket binds.
func (r *Registry) Register(d route.Descriptor) *Registry {
	if r.started.Load() {
		r.logger.Error().
			Str("method", d.Method).
			Str("path", d.Path).
			Msg("route registered after start, ignoring")
		return r
	}

	cs := r.compiler.Compile(d)
	h := r.applyPipeline(r.compiler.Wrap(d))
	fullPath := route.JoinPath(r.opts.BasePath, d.Path)

	r.engine.Register(d.Method, fullPath, h, &cs)
	r.routes = append(r.routes, registered{desc: d, compiled: cs, fullPath: fullPath})

	r.logger.Info().
		Str("method", d.Method).
		Str("path", fullPath).
		Bool("auth", d.RequiresAuth).
		Msg("route registered")
	return r
}

// RegisterRaw mounts a handler with no validation and no documentation
// entry; the route is hidden from the generated document. The dispatch
// pipeline and error containment still apply.
func (r *Registry) RegisterRaw(method, path string, h route.Handler) *Registry {
	if r.started.Load() {
		r.logger.Error().
			Str("method", method).
			Str("path", path).
			Msg("raw route registered after start, ignoring")
		return r
	}

	wrapped := r.applyPipeline(r.compiler.Wrap(route.Descriptor{
		Method:  method,
		Path:    path,
		Handler: h,
	}))
	fullPath := route.JoinPath(r.opts.BasePath, path)
	r.engine.RegisterRaw(method, fullPath, wrapped)

	r.logger.Info().
		Str("method", method).
		Str("path", fullPath).
		Msg("raw route registered")
	return r
}

func (r *Registry) applyPipeline(h route.Wrapped) route.Wrapped {
	for i := len(r.pipeline) - 1; i >= 0; i-- {
		h = r.pipeline[i](h)
	}
	return h
}

// List returns the documented route descriptors in registration order.
// Raw routes are not included.
func (r *Registry) List() []route.Descriptor {
	out := make([]route.Descriptor, 0, len(r.routes))
	for _, reg := range r.routes {
		out = append(out, reg.desc)
	}
	return out
}

// Document aggregates every documented route's compiled operation into an
// OpenAPI specification.
func (r *Registry) Document() *openapi.Spec {
	b := openapi.NewBuilder(r.opts.Docs)
	for _, reg := range r.routes {
		b.AddOperation(reg.desc.Method, reg.fullPath, reg.compiled.Doc, reg.desc.RequiresAuth)
	}
	return b.Build()
}

// resolveAddr resolves the bind address. Port priority: a port embedded
// in the configured host, then the explicit argument, then DefaultPort.
func (r *Registry) resolveAddr(port int) string {
	host := r.opts.Host
	if h, p, err := net.SplitHostPort(host); err == nil && p != "" {
		if n, convErr := strconv.Atoi(p); convErr == nil && n > 0 {
			return net.JoinHostPort(h, p)
		}
		host = h
	}
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Start mounts the documentation endpoints, seals registration, and binds
// the engine's listening socket. The call blocks for the lifetime of the
// server; a bind failure is returned immediately.
func (r *Registry) Start(port int) error {
	if !r.opts.DisableDocs {
		r.engine.MountDocs(r.Document)
	}
	r.started.Store(true)

	addr := r.resolveAddr(port)
	r.logger.Info().
		Str("addr", addr).
		Int("routes", len(r.routes)).
		Msg("starting server")
	return r.engine.Start(addr)
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts the
// engine down gracefully.
func (r *Registry) Run(port int) error {
	errCh := make(chan error, 1)
	go func() {
		if err := r.Start(port); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		r.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return r.engine.Shutdown(ctx)
}
