package llm

import (
	"encoding/json"
	"slices"
)

// JSONSchema implements json.Marshaler for OpenAI's JSON Schema format.
// The alias type prevents infinite recursion during marshaling.
type JSONSchema struct {
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

// MarshalJSON implements json.Marshaler for JSONSchema.
// It uses type alias to prevent infinite recursion.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	return json.Marshal((*alias)(s))
}

// Object builds an object schema from property definitions, marking every
// property as required. Providers running in strict mode reject schemas whose
// required list does not cover all properties; optionality is expressed by
// the contract types tolerating empty values instead.
func Object(props map[string]*JSONSchema) *JSONSchema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	slices.Sort(required)
	return &JSONSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// String builds a string property schema.
func String(description string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description}
}

// Boolean builds a boolean property schema.
func Boolean(description string) *JSONSchema {
	return &JSONSchema{Type: "boolean", Description: description}
}

// StringEnum builds a string schema restricted to the given values.
func StringEnum(description string, values ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description, Enum: values}
}

// Array builds an array schema with the given item shape.
func Array(description string, items *JSONSchema) *JSONSchema {
	return &JSONSchema{Type: "array", Description: description, Items: items}
}
