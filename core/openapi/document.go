package openapi

import (
	"regexp"
	"sort"
	"strings"
)

// BearerScheme is the security scheme name attached to authenticated routes.
const BearerScheme = "bearerAuth"

// Builder aggregates compiled route operations into a single Spec.
// The registry creates one builder per document request; builders are not
// safe for concurrent mutation.
type Builder struct {
	info    Info
	servers []Server
	paths   map[string]PathItem
	tags    map[string]bool
	secured bool
}

// NewBuilder creates a document builder with the given API metadata.
func NewBuilder(info Info) *Builder {
	if info.Title == "" {
		info.Title = "API"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	return &Builder{
		info:  info,
		paths: make(map[string]PathItem),
		tags:  make(map[string]bool),
	}
}

// AddServer adds a server URL to the document.
func (b *Builder) AddServer(url, description string) {
	b.servers = append(b.servers, Server{URL: url, Description: description})
}

// AddOperation records one operation under the given method and path.
// Paths use the router's ":name" parameter style and are converted to the
// OpenAPI "{name}" style here. Secured marks the operation (and document)
// as using bearer authentication.
func (b *Builder) AddOperation(method, path string, op Operation, secured bool) {
	docPath := ParamPath(path)
	item := b.paths[docPath]

	if secured {
		op.Security = append(op.Security, SecurityRequirement{BearerScheme: {}})
		b.secured = true
	}
	for _, t := range op.Tags {
		b.tags[t] = true
	}

	switch strings.ToUpper(method) {
	case "GET":
		item.Get = &op
	case "POST":
		item.Post = &op
	case "PUT":
		item.Put = &op
	case "PATCH":
		item.Patch = &op
	case "DELETE":
		item.Delete = &op
	case "HEAD":
		item.Head = &op
	case "OPTIONS":
		item.Options = &op
	default:
		return
	}
	b.paths[docPath] = item
}

// Build produces the final specification.
func (b *Builder) Build() *Spec {
	spec := &Spec{
		OpenAPI: "3.0.3",
		Info:    b.info,
		Servers: b.servers,
		Paths:   b.paths,
		Components: Components{
			SecuritySchemes: make(map[string]SecurityScheme),
		},
	}

	if b.secured {
		spec.Components.SecuritySchemes[BearerScheme] = SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "JWT bearer token authentication",
		}
	}

	names := make([]string, 0, len(b.tags))
	for name := range b.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec.Tags = append(spec.Tags, Tag{Name: name})
	}

	return spec
}

var pathParamPattern = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

// ParamPath converts router-style ":name" path segments to the OpenAPI
// "{name}" form. Paths already using braces pass through unchanged.
func ParamPath(path string) string {
	return pathParamPattern.ReplaceAllString(path, "{$1}")
}
