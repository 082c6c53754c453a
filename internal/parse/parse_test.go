package parse

import (
	"errors"
	"reflect"
	"testing"
)

func TestJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"surrounded by prose", `Here is the result: {"kind": "essay"} Thanks!`, map[string]any{"kind": "essay"}},
		{"bare object", `{"a": 1}`, map[string]any{"a": float64(1)}},
		{"fenced", "```json\n{\"gated\": true}\n```", map[string]any{"gated": true}},
		{"brace inside string", `{"text": "use {curly} braces"}`, map[string]any{"text": "use {curly} braces"}},
		{"escaped quote", `{"q": "say \"hi\" {"}`, map[string]any{"q": `say "hi" {`}},
		{"nested", `x {"t": {"g": false}} y`, map[string]any{"t": map[string]any{"g": false}}},
		{"skips invalid candidate", `{not json} then {"ok": "yes"}`, map[string]any{"ok": "yes"}},
		{"unbalanced prefix", `{ stray {"ok": 1}`, map[string]any{"ok": float64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONObject(tt.raw)
			if err != nil {
				t.Fatalf("JSONObject() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("JSONObject() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONObject_Malformed(t *testing.T) {
	for _, raw := range []string{"not json at all", "", "{unterminated", `["array", "only"]`} {
		_, err := JSONObject(raw)
		var me *MalformedOutputError
		if !errors.As(err, &me) {
			t.Errorf("JSONObject(%q) error = %v, want *MalformedOutputError", raw, err)
		}
	}
}

func TestLeadingInteger(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"I believe the answer is 3 because...", 3},
		{"2", 2},
		{"  12. The last option", 12},
		{"of the 4 options, I pick 2", 4},
		{"Option #007", 7},
	}
	for _, tt := range tests {
		got, err := LeadingInteger(tt.raw)
		if err != nil {
			t.Errorf("LeadingInteger(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LeadingInteger(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestLeadingInteger_NoDigits(t *testing.T) {
	for _, raw := range []string{"no digits here", "", "four"} {
		_, err := LeadingInteger(raw)
		if !errors.Is(err, ErrNoIntegerFound) {
			t.Errorf("LeadingInteger(%q) error = %v, want ErrNoIntegerFound", raw, err)
		}
		var ne *NoIntegerFoundError
		if !errors.As(err, &ne) {
			t.Errorf("LeadingInteger(%q) error is not *NoIntegerFoundError", raw)
		}
	}
}

func TestLeadingInteger_Overflow(t *testing.T) {
	_, err := LeadingInteger("99999999999999999999999999")
	if !errors.Is(err, ErrNoIntegerFound) {
		t.Fatalf("LeadingInteger() error = %v, want ErrNoIntegerFound", err)
	}
}

func TestStrictLeadingInteger(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"2", 2, false},
		{"**3** because it is prime", 3, false},
		{"(4) four", 4, false},
		{"  \"1\"", 1, false},
		{"of the 4 options, I pick 2", 0, true},
		{"I believe the answer is 3", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := StrictLeadingInteger(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrNoIntegerFound) {
				t.Errorf("StrictLeadingInteger(%q) error = %v, want ErrNoIntegerFound", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("StrictLeadingInteger(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("StrictLeadingInteger(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

const personSchema = `{
  "type": "object",
  "required": ["name", "age"],
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer"}
  }
}`

func TestValidate(t *testing.T) {
	schema := MustCompileSchema("person", personSchema)

	if err := Validate(schema, map[string]any{"name": "Ada", "age": float64(36)}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	err := Validate(schema, map[string]any{"name": 5})
	var sv *SchemaViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("Validate() error = %v, want *SchemaViolationError", err)
	}
	if sv.Schema != "person" {
		t.Errorf("Schema = %q, want person", sv.Schema)
	}
	if len(sv.Violations) != 2 {
		t.Errorf("Violations = %v, want 2 entries", sv.Violations)
	}
}

func TestCompileSchema_Invalid(t *testing.T) {
	if _, err := CompileSchema("bad", `{"type": 12}`); err == nil {
		t.Fatal("CompileSchema() should fail on an invalid schema")
	}
}
