package runner

import "testing"

func TestParseSchemaRejectsDuplicateArgumentNames(t *testing.T) {
	data := []byte(`{
		"name": "dup",
		"arguments": [
			{"name": "a", "typeString": "number"},
			{"name": "a", "typeString": "string"}
		]
	}`)
	if _, err := parseSchema(data); err == nil {
		t.Fatalf("expected duplicate argument names to be rejected")
	}
}

func TestParseSchemaAcceptsUniqueNames(t *testing.T) {
	data := []byte(`{
		"name": "ok",
		"arguments": [
			{"name": "a", "typeString": "number"},
			{"name": "b", "typeString": "string"}
		]
	}`)
	s, err := parseSchema(data)
	if err != nil {
		t.Fatalf("parseSchema: %v", err)
	}
	if len(s.Arguments) != 2 {
		t.Fatalf("want 2 arguments, got %d", len(s.Arguments))
	}
}
