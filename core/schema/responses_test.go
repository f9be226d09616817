package schema

import (
	"testing"
)

func TestBuildResponsesFallbackPrecedence(t *testing.T) {
	table := ResponseTable{
		"200": Plain("ok"),
		"404": Plain("missing"),
	}
	fallback := Compact(map[string]any{"id": "number"})

	out := BuildResponses(table, fallback)

	// The success entry inherits the fallback shape.
	ok := out["200"].Content["application/json"].Schema
	if ok == nil || ok.Properties["id"] == nil || ok.Properties["id"].Type != "number" {
		t.Errorf("200 entry must carry the fallback schema, got %+v", ok)
	}

	// The fallback never leaks into non-success codes.
	missing := out["404"].Content["application/json"].Schema
	if missing == nil || missing.Type != "object" || missing.Properties != nil {
		t.Errorf("404 entry must carry only the generic object schema, got %+v", missing)
	}
}

func TestBuildResponsesOwnSchemaWins(t *testing.T) {
	table := ResponseTable{
		"200": Described("ok", Compact(map[string]any{"name": "string"})),
	}
	fallback := Compact(map[string]any{"id": "number"})

	out := BuildResponses(table, fallback)
	s := out["200"].Content["application/json"].Schema
	if s.Properties["name"] == nil || s.Properties["id"] != nil {
		t.Errorf("entry's own schema must take precedence over the fallback: %+v", s)
	}
}

func TestBuildResponsesFallbackForCreated(t *testing.T) {
	out := BuildResponses(ResponseTable{"201": Plain("created")},
		Compact(map[string]any{"id": "number"}))

	s := out["201"].Content["application/json"].Schema
	if s.Properties["id"] == nil {
		t.Errorf("201 is a success code and inherits the fallback: %+v", s)
	}
}

func TestBuildResponsesArrayFallback(t *testing.T) {
	out := BuildResponses(ResponseTable{"200": Plain("ok")},
		ArrayOf(Field{Type: TypeObject, Fields: Definition{
			{Name: "id", Type: TypeNumber, Required: true},
		}}))

	s := out["200"].Content["application/json"].Schema
	if s.Type != "array" || s.Items == nil {
		t.Fatalf("list-shaped fallback must document as an array: %+v", s)
	}
	if s.Items.Properties["id"] == nil || s.Items.Properties["id"].Type != "number" {
		t.Errorf("element schema lost: %+v", s.Items)
	}
}

func TestBuildResponsesUniformEnvelope(t *testing.T) {
	table := ResponseTable{
		"200": Plain("ok"),
		"400": Described("bad", Compact(map[string]any{"error": "string"})),
		"500": Plain("broken"),
	}

	out := BuildResponses(table, Input{})
	for code, resp := range out {
		if resp.Description == "" {
			t.Errorf("%s: description missing", code)
		}
		mt, ok := resp.Content["application/json"]
		if !ok || mt.Schema == nil {
			t.Errorf("%s: every entry wraps a schema in the application/json envelope", code)
		}
	}
}

func TestBuildResponsesEmptyTable(t *testing.T) {
	if out := BuildResponses(nil, Input{}); out != nil {
		t.Errorf("empty table builds no entries, got %v", out)
	}
}
