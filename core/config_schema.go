package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v FieldViolation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// ConfigSchema is a compiled JSON Schema for an adapter configuration.
type ConfigSchema struct {
	schema   *gojsonschema.Schema
	defaults map[string]any
}

func NewConfigSchema(definition map[string]any) (*ConfigSchema, error) {
	if len(definition) == 0 {
		return nil, fmt.Errorf("core: config schema definition is required")
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("core: compile config schema: %w", err)
	}
	return &ConfigSchema{schema: compiled, defaults: topLevelDefaults(definition)}, nil
}

// MustConfigSchema is NewConfigSchema for package-level schema literals.
func MustConfigSchema(definition map[string]any) *ConfigSchema {
	schema, err := NewConfigSchema(definition)
	if err != nil {
		panic(err)
	}
	return schema
}

// Validate applies top-level defaults and returns the resulting config along
// with every violation found.
func (s *ConfigSchema) Validate(config map[string]any) (map[string]any, []FieldViolation) {
	if s == nil || s.schema == nil {
		return nil, []FieldViolation{{Message: "config schema is not configured"}}
	}
	resolved := make(map[string]any, len(config)+len(s.defaults))
	for key, value := range config {
		resolved[key] = value
	}
	for key, value := range s.defaults {
		if _, present := resolved[key]; !present {
			resolved[key] = value
		}
	}

	result, err := s.schema.Validate(gojsonschema.NewGoLoader(resolved))
	if err != nil {
		return nil, []FieldViolation{{Message: err.Error()}}
	}
	if result.Valid() {
		return resolved, nil
	}
	violations := make([]FieldViolation, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		violations = append(violations, FieldViolation{
			Field:   violationField(resultErr),
			Message: resultErr.Description(),
		})
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Field < violations[j].Field
	})
	return nil, violations
}

func violationField(resultErr gojsonschema.ResultError) string {
	field := resultErr.Field()
	if field == "(root)" || field == "" {
		if property, ok := resultErr.Details()["property"].(string); ok {
			return property
		}
		return ""
	}
	return field
}

func topLevelDefaults(definition map[string]any) map[string]any {
	defaults := map[string]any{}
	properties, ok := definition["properties"].(map[string]any)
	if !ok {
		return defaults
	}
	for name, raw := range properties {
		property, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if value, present := property["default"]; present && strings.TrimSpace(name) != "" {
			defaults[name] = value
		}
	}
	return defaults
}
