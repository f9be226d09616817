package validation

import (
	"fmt"
	"strings"
)

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Result collects the outcome of checking a value against a schema.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// OK returns a passing result.
func OK() Result {
	return Result{Valid: true}
}

// AddError records a validation failure and marks the result invalid.
func (r *Result) AddError(field, rule string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{
		Field:   field,
		Rule:    rule,
		Value:   value,
		Message: message,
	})
}

// Merge folds another result into this one, prefixing nested field paths.
func (r *Result) Merge(prefix string, other Result) {
	if other.Valid {
		return
	}
	r.Valid = false
	for _, e := range other.Errors {
		if prefix != "" {
			if e.Field == "" {
				e.Field = prefix
			} else {
				e.Field = prefix + "." + e.Field
			}
		}
		r.Errors = append(r.Errors, e)
	}
}

// Error renders all failures as a single message. Returns "" when valid.
func (r Result) Error() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Field != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
		} else {
			parts = append(parts, e.Message)
		}
	}
	return strings.Join(parts, "; ")
}
