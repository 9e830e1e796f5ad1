package form

import (
	"fmt"
	"strings"

	"github.com/nao1215/formbuilder/internal/model"
)

// Checkbox values that serialize to boolean true.
const (
	checkedOn   = "on"
	checkedTrue = "true"
)

// Snapshot serializes the current state of the form.
//
// Successful controls are read as strings in document order, the way the
// browser's form data serialization does: disabled and unnamed controls are
// skipped, checkboxes and radios only count when checked, and duplicate
// names keep the last value. Every named checkbox is then rewritten as a
// boolean: true only when its serialized value is exactly "on" or "true",
// false otherwise, including when it was not serialized at all.
// Each name is normalized once, unlike the browser script, which repeats
// the rewrite per checkbox input and so turns a repeated name false.
func (f *Form) Snapshot() *model.Snapshot {
	snap := model.NewSnapshot()

	for _, c := range f.Controls {
		if value, ok := c.serialized(); ok {
			snap.SetString(c.Name, value)
		}
	}

	normalized := make(map[string]bool)
	for _, c := range f.Controls {
		if !c.IsCheckbox() || c.Name == "" || normalized[c.Name] {
			continue
		}
		normalized[c.Name] = true

		v, ok := snap.Get(c.Name)
		if !ok {
			snap.SetBool(c.Name, false)
			continue
		}
		s, _ := v.(string)
		snap.SetBool(c.Name, s == checkedOn || s == checkedTrue)
	}

	return snap
}

// serialized returns the value the control contributes, if any.
func (c *Control) serialized() (string, bool) {
	if c.Name == "" || c.Disabled {
		return "", false
	}

	switch c.Tag {
	case htmlElementInput:
		if excludedTypes[c.Type] {
			return "", false
		}
		if c.IsCheckbox() || c.IsRadio() {
			if !c.Checked {
				return "", false
			}
		}
		return c.Value, true
	case htmlElementSelect:
		opt := c.selectedOption()
		if opt == nil {
			return "", false
		}
		return opt.Value, true
	case htmlElementTextarea:
		return c.Value, true
	}

	return "", false
}

// selectedOption returns the last selected option, or the first enabled
// option when nothing is selected.
func (c *Control) selectedOption() *Option {
	var selected *Option
	for _, o := range c.Options {
		if o.Selected && !o.Disabled {
			selected = o
		}
	}
	if selected != nil {
		return selected
	}
	for _, o := range c.Options {
		if !o.Disabled {
			return o
		}
	}
	return nil
}

// Set assigns value to the control named name, the way a user filling in
// the form would.
//
// Checkboxes are checked when value is "on", "true", "1" or "yes" and
// unchecked otherwise. Radios check the button whose value matches. Selects
// select the option whose value matches. Other controls take value as text;
// when several share the name, the last one is updated.
func (f *Form) Set(name, value string) error {
	matches := f.controlsNamed(name)
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchField, name)
	}

	first := matches[0]
	switch {
	case first.IsCheckbox():
		return f.Check(name, parseChecked(value))
	case first.IsRadio():
		return setRadio(matches, name, value)
	case first.Tag == htmlElementSelect:
		return setSelect(matches[len(matches)-1], name, value)
	default:
		matches[len(matches)-1].Value = value
		return nil
	}
}

// Check sets the checked state of every checkbox named name.
func (f *Form) Check(name string, checked bool) error {
	found := false
	for _, c := range f.controlsNamed(name) {
		if c.IsCheckbox() {
			c.Checked = checked
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: checkbox %s", ErrNoSuchField, name)
	}
	return nil
}

// Reset restores every control to the state described by the markup.
func (f *Form) Reset() {
	for _, c := range f.Controls {
		c.Value = c.DefaultValue
		c.Checked = c.DefaultChecked
		for _, o := range c.Options {
			o.Selected = o.DefaultSelected
		}
	}
}

// Control returns the first control named name.
func (f *Form) Control(name string) (*Control, bool) {
	for _, c := range f.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (f *Form) controlsNamed(name string) []*Control {
	var out []*Control
	for _, c := range f.Controls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func setRadio(group []*Control, name, value string) error {
	var target *Control
	for _, c := range group {
		if c.IsRadio() && c.Value == value {
			target = c
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s=%s", ErrNoSuchOption, name, value)
	}
	for _, c := range group {
		if c.IsRadio() {
			c.Checked = c == target
		}
	}
	return nil
}

func setSelect(c *Control, name, value string) error {
	var target *Option
	for _, o := range c.Options {
		if o.Value == value {
			target = o
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s=%s", ErrNoSuchOption, name, value)
	}
	for _, o := range c.Options {
		o.Selected = o == target
	}
	return nil
}

func parseChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
