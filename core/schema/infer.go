package schema

import (
	"github.com/declroute/declroute/core/openapi"
	"github.com/declroute/declroute/core/validation"
)

// ToValidation derives the runtime validation schema for an input.
// Compiled inputs pass through unchanged, which makes inference idempotent:
// feeding a compiled schema back in returns the identical schema. Unknown
// type tokens map to an open placeholder rather than failing: a typo like
// "strnig" weakens validation instead of breaking registration.
func ToValidation(in Input) validation.Schema {
	if in.compiled != nil {
		return in.compiled
	}
	if in.element != nil {
		return validation.Array{Items: tokenToValidation(*in.element)}
	}
	if in.def == nil {
		return nil
	}
	return definitionToValidation(in.def)
}

func definitionToValidation(def Definition) *validation.Object {
	obj := &validation.Object{
		Fields: make([]validation.ObjectField, 0, len(def)),
	}
	for _, f := range def {
		obj.Fields = append(obj.Fields, validation.ObjectField{
			Name:        f.Name,
			Schema:      tokenToValidation(f),
			Required:    f.Required,
			Description: f.Description,
		})
	}
	return obj
}

func tokenToValidation(f Field) validation.Schema {
	switch f.Type {
	case TypeString:
		return validation.String{}
	case TypeNumber:
		return validation.Number{}
	case TypeBoolean:
		return validation.Boolean{}
	case TypeArray:
		if f.Items != nil {
			return validation.Array{Items: tokenToValidation(*f.Items)}
		}
		return validation.Array{}
	case TypeObject:
		return definitionToValidation(f.Fields)
	default:
		// Fail open: unrecognized tokens accept any value.
		return validation.Any{}
	}
}

// ToDocument derives the OpenAPI schema fragment for an input. Compiled
// validation schemas carry no declarative shape to document, so they map
// to the generic object schema. Unknown type tokens degrade to "string"
// here, not to the validation path's open placeholder; the two
// derivations are not required to agree for unsupported tokens.
func ToDocument(in Input) *openapi.Schema {
	if in.compiled != nil {
		return openapi.GenericObject()
	}
	if in.element != nil {
		return &openapi.Schema{Type: "array", Items: tokenToDocument(*in.element)}
	}
	if in.def == nil {
		return nil
	}
	return definitionToDocument(in.def)
}

func definitionToDocument(def Definition) *openapi.Schema {
	s := &openapi.Schema{
		Type:       "object",
		Properties: make(map[string]*openapi.Schema, len(def)),
	}
	var required []string
	for _, f := range def {
		s.Properties[f.Name] = tokenToDocument(f)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	// Attach the required list only when non-empty.
	if len(required) > 0 {
		s.Required = required
	}
	return s
}

func tokenToDocument(f Field) *openapi.Schema {
	doc := &openapi.Schema{Description: f.Description}
	switch f.Type {
	case TypeString, TypeNumber, TypeBoolean:
		doc.Type = string(f.Type)
	case TypeArray:
		doc.Type = "array"
		if f.Items != nil {
			doc.Items = tokenToDocument(*f.Items)
		} else {
			doc.Items = &openapi.Schema{}
		}
	case TypeObject:
		nested := definitionToDocument(f.Fields)
		nested.Description = f.Description
		doc = nested
	default:
		// Unknown tokens document as plain strings.
		doc.Type = "string"
	}
	return doc
}

// TokenToDocument maps a single type token to its documentation schema,
// applying the same fallback as ToDocument. Used for parameters, whose
// types are single tokens rather than definitions.
func TokenToDocument(t TypeToken) *openapi.Schema {
	return tokenToDocument(Field{Type: t})
}
