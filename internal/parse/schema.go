package parse

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema with a name used in violation reports.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// CompileSchema compiles a JSON Schema document.
func CompileSchema(name, document string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name, document string) *Schema {
	s, err := CompileSchema(name, document)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Validate checks doc against schema and returns a *SchemaViolationError
// listing every violation.
func Validate(schema *Schema, doc map[string]any) error {
	result, err := schema.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s: %w", schema.name, err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, re.String())
	}
	return &SchemaViolationError{Schema: schema.name, Violations: violations}
}
