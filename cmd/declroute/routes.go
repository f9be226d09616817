package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/declroute/declroute/adapters/sqlite"
	"github.com/declroute/declroute/app"
	"github.com/declroute/declroute/core/schema"
	"github.com/declroute/declroute/domain/route"
	"github.com/declroute/declroute/ports"
)

type exampleDeps struct {
	users  ports.UserStore
	hasher ports.Hasher
	ids    ports.IDGenerator
	signer ports.TokenSigner
}

var userFields = map[string]any{
	"!id":    "string",
	"!email": "string",
	"!name":  "string",
}

var userShape = schema.Compact(userFields)

var userListShape = schema.Compact(map[string]any{
	"!users": []any{userFields},
})

// registerExampleRoutes wires the demo user-management API through the
// declarative layer.
func registerExampleRoutes(reg *app.Registry, deps exampleDeps) {
	reg.Register(route.Descriptor{
		Method:      "POST",
		Path:        "/auth/login",
		Summary:     "Log in",
		Description: "Exchanges email and password for a bearer token",
		Tags:        []string{"auth"},
		RequestSchema: schema.Compact(map[string]any{
			"!email":    "string",
			"!password": "string",
		}),
		ResponseSchema: schema.Compact(map[string]any{
			"!token": "string",
		}),
		Responses: schema.ResponseTable{
			"200": schema.Plain("Token issued"),
			"401": schema.Plain("Invalid credentials"),
		},
		Handler: deps.login,
	})

	reg.Register(route.Descriptor{
		Method:      "GET",
		Path:        "/users",
		Summary:     "List users",
		Tags:        []string{"users"},
		Params: []schema.Parameter{
			{Name: "limit", In: schema.InQuery, Type: schema.TypeNumber,
				Description: "Maximum number of users returned", Default: 50},
		},
		ResponseSchema: userListShape,
		Responses: schema.ResponseTable{
			"200": schema.Plain("A page of users"),
		},
		Handler: deps.listUsers,
	})

	reg.Register(route.Descriptor{
		Method: "GET",
		Path:   "/users/:id",
		Tags:   []string{"users"},
		Params: []schema.Parameter{
			{Name: "id", In: schema.InPath, Type: schema.TypeString,
				Description: "User ID", Required: true},
		},
		ResponseSchema: userShape,
		Responses: schema.ResponseTable{
			"200": schema.Plain("The user"),
			"404": schema.Plain("No such user"),
		},
		Handler: deps.getUser,
	})

	reg.Register(route.Descriptor{
		Method:  "POST",
		Path:    "/users",
		Summary: "Create a user",
		Tags:    []string{"users"},
		RequestSchema: schema.Compact(map[string]any{
			"!email":    "string",
			"!name":     "string",
			"!password": "string",
		}),
		ResponseSchema: userShape,
		Responses: schema.ResponseTable{
			"201": schema.Plain("User created"),
			"409": schema.Plain("Email already registered"),
		},
		Handler: deps.createUser,
	})

	reg.Register(route.Descriptor{
		Method:         "GET",
		Path:           "/me",
		Summary:        "Current user",
		Description:    "Returns the authenticated principal's user record",
		Tags:           []string{"auth"},
		RequiresAuth:   true,
		ResponseSchema: userShape,
		Responses: schema.ResponseTable{
			"200": schema.Plain("The authenticated user"),
		},
		Handler: deps.me,
	})

	// Undocumented liveness probe.
	reg.RegisterRaw("GET", "/ping", func(ctx context.Context, req *route.Request) (any, error) {
		return map[string]string{"ping": "pong"}, nil
	})
}

func (d exampleDeps) login(ctx context.Context, req *route.Request) (any, error) {
	body, _ := req.Body.(map[string]any)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	user, err := d.users.GetByEmail(ctx, email)
	if errors.Is(err, sqlite.ErrNotFound) || (err == nil && !d.hasher.Compare(user.PasswordHash, password)) {
		req.SetStatus(401)
		return route.ErrorBody{Error: "Unauthorized", Message: "Invalid credentials"}, nil
	}
	if err != nil {
		return nil, err
	}

	token, err := d.signer.Sign(map[string]any{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"token": token}, nil
}

func (d exampleDeps) listUsers(ctx context.Context, req *route.Request) (any, error) {
	limit := 50
	if raw, ok := req.Query["limit"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = n
		}
	}

	users, err := d.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) > limit {
		users = users[:limit]
	}

	views := make([]map[string]any, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	return map[string]any{"users": views}, nil
}

func (d exampleDeps) getUser(ctx context.Context, req *route.Request) (any, error) {
	user, err := d.users.Get(ctx, req.Params["id"])
	if errors.Is(err, sqlite.ErrNotFound) {
		req.SetStatus(404)
		return route.ErrorBody{Error: "Not Found", Message: "No such user"}, nil
	}
	if err != nil {
		return nil, err
	}
	return userView(user), nil
}

func (d exampleDeps) createUser(ctx context.Context, req *route.Request) (any, error) {
	body, _ := req.Body.(map[string]any)
	email, _ := body["email"].(string)
	name, _ := body["name"].(string)
	password, _ := body["password"].(string)

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := ports.User{
		ID:           d.ids.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := d.users.Create(ctx, user); err != nil {
		if errors.Is(err, sqlite.ErrDuplicate) {
			req.SetStatus(409)
			return route.ErrorBody{Error: "Conflict", Message: "Email already registered"}, nil
		}
		return nil, err
	}

	req.SetStatus(201)
	return userView(user), nil
}

func (d exampleDeps) me(ctx context.Context, req *route.Request) (any, error) {
	id, _ := req.Principal["sub"].(string)
	user, err := d.users.Get(ctx, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		req.SetStatus(404)
		return route.ErrorBody{Error: "Not Found", Message: "No such user"}, nil
	}
	if err != nil {
		return nil, err
	}
	return userView(user), nil
}

func userView(u ports.User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
	}
}
