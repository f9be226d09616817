package schema

import (
	"github.com/declroute/declroute/core/openapi"
	"github.com/declroute/declroute/core/validation"
)

// Location places a parameter in the request.
type Location string

const (
	InQuery  Location = "query"
	InPath   Location = "path"
	InHeader Location = "header"
	InCookie Location = "cookie"
)

// Parameter describes one named, located, typed route parameter.
type Parameter struct {
	Name        string
	In          Location
	Type        TypeToken
	Description string
	Required    bool
	Default     any
}

// Optional reports whether the parameter tolerates absence. A parameter
// is optional when Required is false or a default is defined; a default
// always wins, even against an explicit Required.
func (p Parameter) Optional() bool {
	return !p.Required || p.Default != nil
}

// ParamSchemas holds per-location validation objects. A location with no
// parameters has a nil entry ("no validation requested"), which is
// distinct from an empty object meaning "validation requires nothing."
type ParamSchemas struct {
	Query  *validation.Object
	Path   *validation.Object
	Header *validation.Object
}

// BuildParams partitions a parameter list by location and builds one
// validation object per populated location. Cookie parameters are
// documented but not validated here; the three validated locations are
// query, path and header.
func BuildParams(params []Parameter) ParamSchemas {
	var out ParamSchemas
	for _, p := range params {
		field := validation.ObjectField{
			Name:        p.Name,
			Schema:      tokenToValidation(Field{Name: p.Name, Type: p.Type}),
			Required:    !p.Optional(),
			Description: p.Description,
		}
		switch p.In {
		case InQuery:
			out.Query = appendField(out.Query, field)
		case InPath:
			out.Path = appendField(out.Path, field)
		case InHeader:
			out.Header = appendField(out.Header, field)
		}
	}
	return out
}

func appendField(obj *validation.Object, f validation.ObjectField) *validation.Object {
	if obj == nil {
		obj = &validation.Object{}
	}
	obj.Fields = append(obj.Fields, f)
	return obj
}

// DocumentParams converts a parameter list into OpenAPI parameter entries.
// Path parameters are always required in the document, matching OpenAPI's
// own rule, even when a Default makes them optional at validation time;
// other locations follow the parameter's optionality.
func DocumentParams(params []Parameter) []openapi.Parameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]openapi.Parameter, 0, len(params))
	for _, p := range params {
		s := TokenToDocument(p.Type)
		if p.Default != nil {
			s.Default = p.Default
		}
		required := !p.Optional()
		if p.In == InPath {
			required = true
		}
		out = append(out, openapi.Parameter{
			Name:        p.Name,
			In:          string(p.In),
			Description: p.Description,
			Required:    required,
			Schema:      s,
		})
	}
	return out
}
