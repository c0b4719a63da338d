// Package validation checks job variables against the JSON Schemas published in
// the activity registry.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"ghostwriter-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Validator compiles each schema once and validates raw variable documents against it.
type Validator struct {
	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
	sources map[string]map[string]interface{}
}

// NewValidator takes schemas keyed by task type.
func NewValidator(schemas map[string]map[string]interface{}) *Validator {
	return &Validator{
		schemas: make(map[string]*gojsonschema.Schema),
		sources: schemas,
	}
}

// Validate checks variablesJSON against the schema for taskType. Task types
// without a schema pass.
func (v *Validator) Validate(taskType, variablesJSON string) error {
	schema, err := v.compiled(taskType)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if schema == nil {
		return nil
	}
	return validateWith(schema, variablesJSON)
}

func (v *Validator) compiled(taskType string) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[taskType]; ok {
		return s, nil
	}
	src, ok := v.sources[taskType]
	if !ok || len(src) == 0 {
		return nil, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(src))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", taskType, err)
	}
	v.schemas[taskType] = s
	return s, nil
}

// ValidateVariables validates variablesJSON against an uncompiled schema.
func ValidateVariables(schemaMap map[string]interface{}, variablesJSON string) error {
	if len(schemaMap) == 0 {
		return nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("compile schema: %w", err))
	}
	return validateWith(s, variablesJSON)
}

func validateWith(schema *gojsonschema.Schema, variablesJSON string) error {
	if strings.TrimSpace(variablesJSON) == "" {
		variablesJSON = "{}"
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(variablesJSON))
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("variables are not valid JSON: %v", err))
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return errors.NewInvalidInputError(strings.Join(msgs, "; "))
}
