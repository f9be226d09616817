// Package validation provides the runtime validation representation produced
// by schema inference. A Schema checks decoded request data (query, path and
// header values arrive as strings, JSON bodies as decoded values) and reports
// every violation rather than stopping at the first.
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Schema is a runtime-checkable description of an accepted input shape.
type Schema interface {
	// Check validates a single value. The value may be nil when the input
	// was absent; absence handling for object fields is decided by the
	// enclosing Object via the field's Required flag.
	Check(value any) Result
}

// String accepts any textual value.
type String struct{}

// Check implements Schema.
func (String) Check(value any) Result {
	var r Result
	r.Valid = true
	if _, ok := value.(string); !ok {
		r.AddError("", "type", value, "must be a string")
	}
	return r
}

// Number accepts Go numeric values and, because query, path and header
// values always arrive as text, strings that parse as numbers.
type Number struct{}

// Check implements Schema.
func (Number) Check(value any) Result {
	var r Result
	r.Valid = true
	switch v := value.(type) {
	case int, int32, int64, float32, float64:
	case json.Number:
	case string:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			r.AddError("", "type", value, "must be a number")
		}
	default:
		r.AddError("", "type", value, "must be a number")
	}
	return r
}

// Boolean accepts bool values and the textual forms "true" and "false".
type Boolean struct{}

// Check implements Schema.
func (Boolean) Check(value any) Result {
	var r Result
	r.Valid = true
	switch v := value.(type) {
	case bool:
	case string:
		if v != "true" && v != "false" {
			r.AddError("", "type", value, "must be a boolean")
		}
	default:
		r.AddError("", "type", value, "must be a boolean")
	}
	return r
}

// Array accepts JSON arrays. When Items is non-nil every element is checked
// against it; otherwise element types are unconstrained.
type Array struct {
	Items Schema
}

// Check implements Schema.
func (a Array) Check(value any) Result {
	var r Result
	r.Valid = true
	items, ok := value.([]any)
	if !ok {
		r.AddError("", "type", value, "must be an array")
		return r
	}
	if a.Items == nil {
		return r
	}
	for i, item := range items {
		r.Merge(fmt.Sprintf("[%d]", i), a.Items.Check(item))
	}
	return r
}

// Any accepts every value including nil. It is the open placeholder used for
// unrecognized type tokens and for permissive request bodies.
type Any struct{}

// Check implements Schema.
func (Any) Check(any) Result { return OK() }

// ObjectField pairs a field name with its schema and optionality.
type ObjectField struct {
	Name        string
	Schema      Schema
	Required    bool
	Description string
}

// Object validates a decoded JSON object (or a string-keyed parameter map).
// Missing optional fields pass; missing required fields fail. Fields not
// declared in the schema are accepted unchanged.
type Object struct {
	Fields []ObjectField
}

// Check implements Schema.
func (o *Object) Check(value any) Result {
	var r Result
	r.Valid = true

	m, ok := value.(map[string]any)
	if !ok {
		r.AddError("", "type", value, "must be an object")
		return r
	}

	for _, f := range o.Fields {
		v, present := m[f.Name]
		if !present || v == nil {
			if f.Required {
				r.AddError(f.Name, "required", nil, "field is required")
			}
			continue
		}
		if f.Schema == nil {
			continue
		}
		r.Merge(f.Name, f.Schema.Check(v))
	}
	return r
}

// Field returns the schema entry for name, if declared.
func (o *Object) Field(name string) (ObjectField, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ObjectField{}, false
}
