package formdef

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/formbuilder/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrMissingFieldName is returned when a field has no name.
	ErrMissingFieldName = errors.New(`field configuration missing "name"`)

	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("duplicate field name")

	// ErrInvalidPattern is returned when a validation pattern does not compile.
	ErrInvalidPattern = errors.New("invalid validation pattern")
)

// Definition is a template compiled for rendering and validation.
type Definition struct {
	Template model.Template
	Fields   []*Field
}

// Field is one compiled template field.
type Field struct {
	Spec model.FieldSpec

	// Type is the effective field type; unknown types are text.
	Type model.FieldType

	// Label is the display label, derived from the name when unset.
	Label string

	pattern *regexp.Regexp
}

// Build compiles tpl. It fails when a field has no name, when a name is
// used twice, or when a validation pattern does not compile.
func Build(tpl model.Template) (*Definition, error) {
	def := &Definition{
		Template: tpl,
		Fields:   make([]*Field, 0, len(tpl.Fields)),
	}
	seen := make(map[string]bool, len(tpl.Fields))

	for i, spec := range tpl.Fields {
		if spec.Name == "" {
			return nil, fmt.Errorf("field %d: %w", i, ErrMissingFieldName)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, spec.Name)
		}
		seen[spec.Name] = true

		f := &Field{
			Spec:  spec,
			Type:  spec.EffectiveType(),
			Label: spec.Label,
		}
		if f.Label == "" {
			f.Label = DefaultLabel(spec.Name)
		}
		if spec.Validation != "" && f.Type != model.FieldCheckbox {
			re, err := regexp.Compile(spec.Validation)
			if err != nil {
				return nil, fmt.Errorf("%w for field %s: %w", ErrInvalidPattern, spec.Name, err)
			}
			f.pattern = re
		}
		def.Fields = append(def.Fields, f)
	}

	return def, nil
}

// Field returns the field named name.
func (d *Definition) Field(name string) (*Field, bool) {
	for _, f := range d.Fields {
		if f.Spec.Name == name {
			return f, true
		}
	}
	return nil, false
}

// DefaultLabel turns a field name such as "first_name" into "First Name".
func DefaultLabel(name string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	return cases.Title(language.English).String(strings.Join(words, " "))
}
