package schema

import (
	"github.com/declroute/declroute/core/openapi"
)

// ResponseEntry documents one response status. Description is always set;
// Schema is optional and, when present, takes precedence over any
// route-level fallback.
type ResponseEntry struct {
	Description string
	Schema      Input
}

// Plain builds a description-only response entry.
func Plain(description string) ResponseEntry {
	return ResponseEntry{Description: description}
}

// Described builds a response entry carrying its own schema.
func Described(description string, s Input) ResponseEntry {
	return ResponseEntry{Description: description, Schema: s}
}

// ResponseTable maps HTTP status codes (as strings) to response entries.
type ResponseTable map[string]ResponseEntry

// successFallbackCodes are the only statuses that inherit a route-level
// fallback schema. Error responses never silently borrow the success
// shape.
var successFallbackCodes = map[string]bool{
	"200": true,
	"201": true,
}

// BuildResponses converts a response table into documentation entries.
// Per status code: the entry's own schema wins; otherwise a route-level
// fallback applies to 200/201 only; otherwise a generic untyped object.
// Every entry wraps its schema in the application/json content envelope,
// so the output shape is uniform regardless of which branch produced it.
func BuildResponses(table ResponseTable, fallback Input) map[string]openapi.Response {
	if len(table) == 0 {
		return nil
	}
	out := make(map[string]openapi.Response, len(table))
	for code, entry := range table {
		var s *openapi.Schema
		switch {
		case !entry.Schema.IsZero():
			s = ToDocument(entry.Schema)
		case !fallback.IsZero() && successFallbackCodes[code]:
			s = ToDocument(fallback)
		default:
			s = openapi.GenericObject()
		}
		out[code] = openapi.Response{
			Description: entry.Description,
			Content:     openapi.JSONContent(s),
		}
	}
	return out
}
