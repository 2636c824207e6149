package scenario

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/scenario-v1.json
var scenarioSchemaJSON string

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("scenario-v1.json",
		strings.NewReader(scenarioSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("scenario-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks a scenario document, given as the generic structure
// produced by decoding its YAML, against the scenario schema.
func (v *Validator) Validate(doc interface{}) error {
	// Round-trip through JSON so numbers and nested maps carry the
	// types the schema library expects.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalize document: %w", err)
	}

	var normalized interface{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	if err := v.schema.Validate(normalized); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}
