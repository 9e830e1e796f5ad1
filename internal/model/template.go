package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FieldType is the kind of a template field.
type FieldType string

// Supported field types. Unknown types are rendered and validated as text.
const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Known reports whether t is one of the supported field types.
func (t FieldType) Known() bool {
	switch t {
	case FieldText, FieldNumber, FieldEmail, FieldTextarea, FieldSelect, FieldCheckbox:
		return true
	default:
		return false
	}
}

// Template is a stored form definition. Its fields describe the controls
// rendered on the form page and the validation applied to submissions.
type Template struct {
	ID        int64       `json:"id,omitempty" yaml:"-"`
	Name      string      `json:"name" yaml:"name"`
	Fields    []FieldSpec `json:"fields" yaml:"fields"`
	CreatedAt time.Time   `json:"created_at,omitzero" yaml:"-"`
	IsActive  bool        `json:"is_active,omitempty" yaml:"-"`
}

// FieldSpec describes a single field of a template.
type FieldSpec struct {
	// Name is the field name and the key in the submitted JSON object.
	Name string `json:"name" yaml:"name"`

	// Type is the field type; empty means text.
	Type FieldType `json:"type,omitempty" yaml:"type,omitempty"`

	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string `json:"help_text,omitempty" yaml:"help_text,omitempty"`

	// Validation is a regular expression searched in text values.
	Validation string `json:"validation,omitempty" yaml:"validation,omitempty"`

	// Min and Max bound number fields and become input attributes.
	Min *int64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *int64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Choices are the options of a select field.
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// EffectiveType returns the field type with the text fallback applied.
func (f FieldSpec) EffectiveType() FieldType {
	if f.Type == "" || !f.Type.Known() {
		return FieldText
	}
	return f.Type
}

// Choice is a select option. In template files it is written either as a
// plain string (value and label are equal) or as a [value, label] pair.
type Choice struct {
	Value string
	Label string
}

var errInvalidChoice = errors.New("choice must be a string or a [value, label] pair")

// MarshalJSON writes the short string form when value and label are equal.
func (c Choice) MarshalJSON() ([]byte, error) {
	if c.Label == "" || c.Label == c.Value {
		return json.Marshal(c.Value)
	}
	return json.Marshal([]string{c.Value, c.Label})
}

// UnmarshalJSON accepts a string, a number, or a [value, label] array.
func (c *Choice) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.fromAny(raw)
}

// MarshalYAML mirrors MarshalJSON.
func (c Choice) MarshalYAML() (any, error) {
	if c.Label == "" || c.Label == c.Value {
		return c.Value, nil
	}
	return []string{c.Value, c.Label}, nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (c *Choice) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return c.fromAny(raw)
}

func (c *Choice) fromAny(raw any) error {
	switch v := raw.(type) {
	case string:
		c.Value, c.Label = v, v
	case float64, int, int64, bool:
		s := fmt.Sprint(v)
		c.Value, c.Label = s, s
	case []any:
		if len(v) != 2 {
			return errInvalidChoice
		}
		c.Value = fmt.Sprint(v[0])
		c.Label = fmt.Sprint(v[1])
	default:
		return errInvalidChoice
	}
	return nil
}
