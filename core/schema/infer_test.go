package schema

import (
	"testing"

	"github.com/declroute/declroute/core/validation"
)

func TestToValidationSupportedTokens(t *testing.T) {
	def := Definition{
		{Name: "name", Type: TypeString, Required: true},
		{Name: "age", Type: TypeNumber},
		{Name: "active", Type: TypeBoolean},
		{Name: "tags", Type: TypeArray},
	}

	s := ToValidation(Raw(def))
	obj, ok := s.(*validation.Object)
	if !ok {
		t.Fatalf("expected *validation.Object, got %T", s)
	}

	res := obj.Check(map[string]any{
		"name":   "alice",
		"age":    30.0,
		"active": true,
		"tags":   []any{"a", "b"},
	})
	if !res.Valid {
		t.Errorf("well-typed value rejected: %s", res.Error())
	}

	// Optional fields tolerate absence; required ones do not.
	if res := obj.Check(map[string]any{"name": "bob"}); !res.Valid {
		t.Errorf("absent optional fields rejected: %s", res.Error())
	}
	if res := obj.Check(map[string]any{"age": 1.0}); res.Valid {
		t.Error("missing required field accepted")
	}
}

func TestToValidationNestedObject(t *testing.T) {
	def := Definition{
		{Name: "profile", Type: TypeObject, Required: true, Fields: Definition{
			{Name: "age", Type: TypeNumber, Required: true},
		}},
	}

	obj := ToValidation(Raw(def)).(*validation.Object)
	res := obj.Check(map[string]any{"profile": map[string]any{"age": "not a number"}})
	if res.Valid {
		t.Fatal("nested type error not detected")
	}
	if res.Errors[0].Field != "profile.age" {
		t.Errorf("expected profile.age, got %q", res.Errors[0].Field)
	}
}

// Unknown tokens degrade differently on the two derivation paths: the
// validation side gets an open placeholder, the documentation side gets
// "string". Neither path fails; a typo like "strnig" weakens validation
// instead of breaking registration.
func TestUnknownTokenDivergence(t *testing.T) {
	def := Definition{{Name: "oops", Type: "strnig", Required: true}}

	obj := ToValidation(Raw(def)).(*validation.Object)
	res := obj.Check(map[string]any{"oops": 12345})
	if !res.Valid {
		t.Errorf("validation of unknown token must fail open: %s", res.Error())
	}

	doc := ToDocument(Raw(def))
	if doc.Properties["oops"].Type != "string" {
		t.Errorf("documentation of unknown token must degrade to string, got %q",
			doc.Properties["oops"].Type)
	}
}

// Feeding a compiled schema back through inference returns the identical
// schema: the pass-through branch is a type-level certainty of the Input
// union, not a runtime probe.
func TestToValidationPassThrough(t *testing.T) {
	custom := &validation.Object{Fields: []validation.ObjectField{
		{Name: "id", Schema: validation.Number{}, Required: true},
	}}

	once := ToValidation(Compiled(custom))
	if once != validation.Schema(custom) {
		t.Fatal("compiled input must pass through unchanged")
	}

	twice := ToValidation(Compiled(once))
	if twice != once {
		t.Fatal("inference must be idempotent on compiled schemas")
	}
}

func TestToDocumentRequiredList(t *testing.T) {
	def := Definition{
		{Name: "id", Type: TypeNumber, Required: true},
		{Name: "name", Type: TypeString},
		{Name: "profile", Type: TypeObject, Fields: Definition{
			{Name: "bio", Type: TypeString},
		}},
	}

	doc := ToDocument(Raw(def))
	if doc.Type != "object" {
		t.Fatalf("expected object schema, got %q", doc.Type)
	}
	if len(doc.Required) != 1 || doc.Required[0] != "id" {
		t.Errorf("required list should contain exactly id: %v", doc.Required)
	}

	// Nested objects with no required members carry no required list.
	nested := doc.Properties["profile"]
	if nested.Type != "object" || nested.Required != nil {
		t.Errorf("empty nested required list must be omitted: %+v", nested)
	}
}

func TestToDocumentArrayItems(t *testing.T) {
	doc := ToDocument(Raw(Definition{{Name: "tags", Type: TypeArray}}))
	tags := doc.Properties["tags"]
	if tags.Type != "array" || tags.Items == nil {
		t.Errorf("array fields need an items schema: %+v", tags)
	}

	typed := ToDocument(Raw(Definition{
		{Name: "tags", Type: TypeArray, Items: &Field{Type: TypeString}},
	}))
	if got := typed.Properties["tags"].Items.Type; got != "string" {
		t.Errorf("declared element type lost, items.type = %q", got)
	}
}

func TestToValidationArrayRoot(t *testing.T) {
	s := ToValidation(ArrayOf(Field{Type: TypeNumber}))

	if res := s.Check([]any{1.0, 2.0}); !res.Valid {
		t.Errorf("number list rejected: %s", res.Error())
	}
	res := s.Check([]any{1.0, "abc"})
	if res.Valid {
		t.Fatal("mistyped element accepted")
	}
	if res.Errors[0].Field != "[1]" {
		t.Errorf("expected error on element [1], got %q", res.Errors[0].Field)
	}
	if res := s.Check(map[string]any{}); res.Valid {
		t.Error("non-array value accepted by array-rooted schema")
	}
}

func TestToValidationTypedArrayField(t *testing.T) {
	def := FromCompact(map[string]any{"!tags": []any{"string"}})
	obj := ToValidation(Raw(def)).(*validation.Object)

	if res := obj.Check(map[string]any{"tags": []any{"a", "b"}}); !res.Valid {
		t.Errorf("string list rejected: %s", res.Error())
	}
	if res := obj.Check(map[string]any{"tags": []any{1.0}}); res.Valid {
		t.Error("number element accepted in a string array")
	}
}

func TestToDocumentArrayRoot(t *testing.T) {
	doc := ToDocument(ArrayOf(Field{Type: TypeObject, Fields: Definition{
		{Name: "id", Type: TypeNumber, Required: true},
	}}))

	if doc.Type != "array" || doc.Items == nil {
		t.Fatalf("expected array schema, got %+v", doc)
	}
	item := doc.Items
	if item.Type != "object" || item.Properties["id"] == nil || item.Properties["id"].Type != "number" {
		t.Errorf("element schema lost: %+v", item)
	}
	if len(item.Required) != 1 || item.Required[0] != "id" {
		t.Errorf("element required list lost: %v", item.Required)
	}
}

func TestToDocumentCompiledInput(t *testing.T) {
	doc := ToDocument(Compiled(&validation.Object{}))
	if doc.Type != "object" || len(doc.Properties) != 0 {
		t.Errorf("compiled inputs document as a generic object, got %+v", doc)
	}
}

// Values accepted by the documentation schema's declared types must also
// pass the validation derivation for supported tokens.
func TestDerivationConsistency(t *testing.T) {
	def := Definition{
		{Name: "s", Type: TypeString, Required: true},
		{Name: "n", Type: TypeNumber, Required: true},
		{Name: "b", Type: TypeBoolean, Required: true},
		{Name: "a", Type: TypeArray, Required: true},
	}
	value := map[string]any{
		"s": "text",
		"n": 1.5,
		"b": false,
		"a": []any{},
	}

	doc := ToDocument(Raw(def))
	for name, prop := range doc.Properties {
		if prop.Type == "" {
			t.Errorf("documented field %s has no type", name)
		}
	}

	if res := ToValidation(Raw(def)).Check(value); !res.Valid {
		t.Errorf("value satisfying documented types rejected: %s", res.Error())
	}
}
