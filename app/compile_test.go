package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declroute/declroute/core/schema"
	"github.com/declroute/declroute/core/validation"
	"github.com/declroute/declroute/domain/route"
)

// fakeVerifier maps tokens to principals; unknown tokens fail.
type fakeVerifier struct {
	tokens map[string]map[string]any
}

func (v *fakeVerifier) Verify(token string) (map[string]any, error) {
	if p, ok := v.tokens[token]; ok {
		return p, nil
	}
	return nil, errors.New("bad token")
}

func newRequest(method, path string) *route.Request {
	return &route.Request{
		Method:  method,
		Path:    path,
		Headers: map[string]string{},
	}
}

func TestCompileParamSchemas(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())

	cs := c.Compile(route.Descriptor{
		Method: "GET",
		Path:   "/users/:id",
		Params: []schema.Parameter{
			{Name: "id", In: schema.InPath, Type: schema.TypeString, Required: true},
			{Name: "limit", In: schema.InQuery, Type: schema.TypeNumber},
		},
	})

	require.NotNil(t, cs.Path)
	require.NotNil(t, cs.Query)
	assert.Nil(t, cs.Header, "no header parameters declared")
	assert.Nil(t, cs.Body, "GET routes carry no body schema")
	assert.Len(t, cs.Doc.Parameters, 2)
}

func TestCompileBodySchema(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())

	t.Run("explicit schema wins", func(t *testing.T) {
		cs := c.Compile(route.Descriptor{
			Method:        "POST",
			Path:          "/users",
			RequestSchema: schema.Compact(map[string]any{"!email": "string"}),
		})
		obj, ok := cs.Body.(*validation.Object)
		require.True(t, ok, "explicit schema compiles to an object")
		assert.False(t, obj.Check(map[string]any{}).Valid)
		require.NotNil(t, cs.Doc.RequestBody)
		assert.True(t, cs.Doc.RequestBody.Required)
	})

	t.Run("array request schema", func(t *testing.T) {
		cs := c.Compile(route.Descriptor{
			Method:        "POST",
			Path:          "/tags",
			RequestSchema: schema.ArrayOf(schema.Field{Type: schema.TypeString}),
		})
		assert.True(t, cs.Body.Check([]any{"a", "b"}).Valid)
		assert.False(t, cs.Body.Check([]any{1.0}).Valid)
		require.NotNil(t, cs.Doc.RequestBody)
		assert.Equal(t, "array", cs.Doc.RequestBody.Content["application/json"].Schema.Type)
	})

	t.Run("undeclared body falls open", func(t *testing.T) {
		cs := c.Compile(route.Descriptor{Method: "POST", Path: "/events"})
		require.NotNil(t, cs.Body)
		assert.True(t, cs.Body.Check(map[string]any{"anything": 1}).Valid)
		assert.Nil(t, cs.Doc.RequestBody, "no declared body, no documented body")
	})
}

func TestCompileResponses(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())

	t.Run("empty table gets a default entry", func(t *testing.T) {
		cs := c.Compile(route.Descriptor{Method: "GET", Path: "/ping"})
		require.Contains(t, cs.Doc.Responses, "200")
	})

	t.Run("declared table passes through", func(t *testing.T) {
		cs := c.Compile(route.Descriptor{
			Method: "GET",
			Path:   "/users",
			Responses: schema.ResponseTable{
				"200": schema.Plain("ok"),
				"404": schema.Plain("missing"),
			},
		})
		assert.Len(t, cs.Doc.Responses, 2)
		assert.Equal(t, "missing", cs.Doc.Responses["404"].Description)
	})
}

func TestCompileSummaryFallback(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())
	cs := c.Compile(route.Descriptor{Method: "get", Path: "/users"})
	assert.Equal(t, "GET /users", cs.Doc.Summary)
	assert.Equal(t, "GET /users", cs.Doc.Description)
}

func TestWrapAuthentication(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]map[string]any{
		"good": {"sub": "u1"},
	}}
	c := NewCompiler(verifier, zerolog.Nop())

	invoked := 0
	h := c.Wrap(route.Descriptor{
		Method:       "GET",
		Path:         "/me",
		RequiresAuth: true,
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			invoked++
			return map[string]any{"sub": req.Principal["sub"]}, nil
		},
	})

	t.Run("missing header", func(t *testing.T) {
		resp := h(context.Background(), newRequest("GET", "/me"))
		assert.Equal(t, 401, resp.Status)
		assert.Equal(t, route.ErrorBody{
			Error:   "Unauthorized",
			Message: "Missing or invalid token",
		}, resp.Body)
		assert.Zero(t, invoked, "handler must not run without a token")
	})

	t.Run("malformed header", func(t *testing.T) {
		req := newRequest("GET", "/me")
		req.Headers["Authorization"] = "Basic abc"
		resp := h(context.Background(), req)
		assert.Equal(t, 401, resp.Status)
		assert.Equal(t, "Missing or invalid token", resp.Body.(route.ErrorBody).Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := newRequest("GET", "/me")
		req.Headers["Authorization"] = "Bearer forged"
		resp := h(context.Background(), req)
		assert.Equal(t, 401, resp.Status)
		assert.Equal(t, "Invalid or expired token", resp.Body.(route.ErrorBody).Message)
		assert.Zero(t, invoked)
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		req := newRequest("GET", "/me")
		req.Headers["Authorization"] = "Bearer good"
		resp := h(context.Background(), req)
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, map[string]any{"sub": "u1"}, resp.Body)
		assert.Equal(t, 1, invoked, "handler runs exactly once")
	})
}

func TestWrapNilPrincipalRejected(t *testing.T) {
	// A verifier returning (nil, nil) is a verification failure.
	verifier := &fakeVerifier{tokens: map[string]map[string]any{
		"hollow": nil,
	}}
	c := NewCompiler(verifier, zerolog.Nop())
	h := c.Wrap(route.Descriptor{
		Method:       "GET",
		Path:         "/me",
		RequiresAuth: true,
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			t.Fatal("handler must not run")
			return nil, nil
		},
	})

	req := newRequest("GET", "/me")
	req.Headers["Authorization"] = "Bearer hollow"
	resp := h(context.Background(), req)
	assert.Equal(t, 401, resp.Status)
	assert.Equal(t, "Token verification failed", resp.Body.(route.ErrorBody).Message)
}

func TestWrapEmptyPrincipalAccepted(t *testing.T) {
	// An empty-but-present claims map verified fine; only nil is a failure.
	verifier := &fakeVerifier{tokens: map[string]map[string]any{
		"anon": {},
	}}
	c := NewCompiler(verifier, zerolog.Nop())
	h := c.Wrap(route.Descriptor{
		Method:       "GET",
		Path:         "/me",
		RequiresAuth: true,
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			if req.Principal == nil {
				t.Error("principal must be attached even when empty")
			}
			return "ok", nil
		},
	})

	req := newRequest("GET", "/me")
	req.Headers["Authorization"] = "Bearer anon"
	resp := h(context.Background(), req)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "ok", resp.Body)
}

func TestWrapNilVerifier(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())
	h := c.Wrap(route.Descriptor{
		Method:       "GET",
		Path:         "/me",
		RequiresAuth: true,
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			t.Fatal("handler must not run")
			return nil, nil
		},
	})

	req := newRequest("GET", "/me")
	req.Headers["Authorization"] = "Bearer anything"
	resp := h(context.Background(), req)
	assert.Equal(t, 401, resp.Status)
	assert.Equal(t, "Token verification failed", resp.Body.(route.ErrorBody).Message)
}

func TestWrapHandlerError(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())
	h := c.Wrap(route.Descriptor{
		Method: "GET",
		Path:   "/broken",
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			return nil, fmt.Errorf("boom")
		},
	})

	resp := h(context.Background(), newRequest("GET", "/broken"))
	assert.Equal(t, 500, resp.Status)
	assert.Equal(t, route.ErrorBody{
		Error:   "Internal Server Error",
		Message: "boom",
	}, resp.Body)
}

func TestWrapPanicContainment(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())

	calls := 0
	h := c.Wrap(route.Descriptor{
		Method: "GET",
		Path:   "/flaky",
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			calls++
			if calls == 1 {
				panic("first request dies")
			}
			return "recovered", nil
		},
	})

	resp := h(context.Background(), newRequest("GET", "/flaky"))
	assert.Equal(t, 500, resp.Status)
	assert.Equal(t, "first request dies", resp.Body.(route.ErrorBody).Message)

	// The failure is confined to its own request.
	resp = h(context.Background(), newRequest("GET", "/flaky"))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "recovered", resp.Body)
}

func TestWrapStatusOverride(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())
	h := c.Wrap(route.Descriptor{
		Method: "POST",
		Path:   "/users",
		Handler: func(ctx context.Context, req *route.Request) (any, error) {
			req.SetStatus(http.StatusCreated)
			return map[string]any{"id": "u1"}, nil
		},
	})

	resp := h(context.Background(), newRequest("POST", "/users"))
	assert.Equal(t, 201, resp.Status)
}

func TestWrapNoHandler(t *testing.T) {
	c := NewCompiler(nil, zerolog.Nop())
	h := c.Wrap(route.Descriptor{Method: "GET", Path: "/void"})

	resp := h(context.Background(), newRequest("GET", "/void"))
	assert.Equal(t, 500, resp.Status)
	assert.Equal(t, "Internal Server Error", resp.Body.(route.ErrorBody).Error)
}
