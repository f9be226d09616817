// Package schema implements the translation layer between compact route
// schema descriptions and their two derived forms: a runtime validation
// schema and an OpenAPI documentation fragment.
package schema

import (
	"sort"
	"strings"

	"github.com/declroute/declroute/core/validation"
)

// TypeToken names a field type in the compact notation.
type TypeToken string

const (
	TypeString  TypeToken = "string"
	TypeNumber  TypeToken = "number"
	TypeBoolean TypeToken = "boolean"
	TypeObject  TypeToken = "object"
	TypeArray   TypeToken = "array"
)

// Known reports whether the token is one of the supported types.
// Unknown tokens are not rejected; inference falls back to a permissive
// form on the validation path and to "string" on the documentation path.
func (t TypeToken) Known() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// Field is a structured field descriptor. Required-ness is an explicit
// flag rather than a marker encoded into the field name, so names with
// any leading character remain expressible.
type Field struct {
	Name        string
	Type        TypeToken
	Required    bool
	Description string

	// Items describes the element type when Type is TypeArray. A nil
	// Items leaves the element type unconstrained.
	Items *Field

	// Fields holds the nested definition when Type is TypeObject.
	Fields Definition
}

// Definition is an ordered list of field descriptors. Order is preserved
// into the documentation output.
type Definition []Field

// RequiredMarkerPrefix is the compact-notation prefix that marks a field
// required. It is syntax only: FromCompact strips it before the name is
// used anywhere.
const RequiredMarkerPrefix = "!"

// FromCompact converts the `{fieldName: "typeToken"}` shorthand into a
// structured Definition. Values may be type token strings or nested maps.
// A "!" key prefix marks the field required and is stripped from the
// emitted name. Map iteration order is not defined in Go, so keys are
// sorted (after marker stripping) for deterministic output.
func FromCompact(compact map[string]any) Definition {
	keys := make([]string, 0, len(compact))
	for k := range compact {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.TrimPrefix(keys[i], RequiredMarkerPrefix) <
			strings.TrimPrefix(keys[j], RequiredMarkerPrefix)
	})

	def := make(Definition, 0, len(keys))
	for _, k := range keys {
		f := Field{Name: k}
		if strings.HasPrefix(k, RequiredMarkerPrefix) {
			f.Name = strings.TrimPrefix(k, RequiredMarkerPrefix)
			f.Required = true
		}

		switch v := compact[k].(type) {
		case string:
			f.Type = TypeToken(v)
		case TypeToken:
			f.Type = v
		case map[string]any:
			f.Type = TypeObject
			f.Fields = FromCompact(v)
		case []any:
			f.Type = TypeArray
			if len(v) > 0 {
				el := elementField(v[0])
				f.Items = &el
			}
		default:
			// Unrepresentable value: treat as an unknown token so the
			// fail-open policy applies downstream.
			f.Type = ""
		}
		def = append(def, f)
	}
	return def
}

// elementField converts one compact array-element value into a field
// descriptor carrying only type information.
func elementField(v any) Field {
	switch el := v.(type) {
	case string:
		return Field{Type: TypeToken(el)}
	case TypeToken:
		return Field{Type: el}
	case map[string]any:
		return Field{Type: TypeObject, Fields: FromCompact(el)}
	case []any:
		f := Field{Type: TypeArray}
		if len(el) > 0 {
			inner := elementField(el[0])
			f.Items = &inner
		}
		return f
	default:
		return Field{Type: ""}
	}
}

// Input is the tagged union of schema inputs: a raw object-rooted
// Definition, an array-rooted element descriptor, or an already-compiled
// validation schema supplied by a caller bypassing the compact notation.
// Which branch applies is fixed by the constructor used, never probed
// from the value.
type Input struct {
	def      Definition
	element  *Field
	compiled validation.Schema
}

// Raw wraps a structured definition for inference.
func Raw(def Definition) Input {
	return Input{def: def}
}

// Compact wraps a shorthand map for inference.
func Compact(compact map[string]any) Input {
	return Input{def: FromCompact(compact)}
}

// ArrayOf wraps an element descriptor for an array-rooted schema, for
// routes whose body or response is a list rather than an object.
func ArrayOf(element Field) Input {
	return Input{element: &element}
}

// Compiled wraps a validation schema that inference must pass through
// unchanged.
func Compiled(s validation.Schema) Input {
	return Input{compiled: s}
}

// IsZero reports whether no schema input was supplied.
func (in Input) IsZero() bool {
	return in.def == nil && in.element == nil && in.compiled == nil
}

// IsCompiled reports whether the input is a pre-compiled validation schema.
func (in Input) IsCompiled() bool {
	return in.compiled != nil
}

// Definition returns the raw definition, or nil for array-rooted and
// compiled inputs.
func (in Input) Definition() Definition {
	return in.def
}

// Element returns the array element descriptor, or nil for object-rooted
// and compiled inputs.
func (in Input) Element() *Field {
	return in.element
}
