package config

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/pack.v1.schema.json
var schemaBytes []byte

// SchemaError lists every schema violation of a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// ValidateDocument checks raw pack.yaml content against the JSON schema.
func ValidateDocument(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return eris.Wrap(err, "failed to parse YAML")
	}
	if doc == nil {
		// An empty file means all defaults.
		doc = map[string]interface{}{}
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return eris.Wrap(err, "validation error")
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Violations: violations}
}
