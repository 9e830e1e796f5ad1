package formdef

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/formbuilder/internal/model"
)

// Validation messages returned to the browser.
const (
	MsgRequired      = "This field is required."
	MsgInvalidNumber = "Enter a whole number."
	MsgInvalidEmail  = "Enter a valid email address."
	MsgInvalidFormat = "Invalid format."
)

var (
	emailUser = regexp.MustCompile(
		`(?i)^[-!#$%&'*+/=?^_` + "`" + `{}|~0-9a-z]+(\.[-!#$%&'*+/=?^_` + "`" + `{}|~0-9a-z]+)*$`)
	emailDomain = regexp.MustCompile(
		`(?i)^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z0-9][a-z0-9-]{0,61}[a-z0-9]$`)
	trailingZeros = regexp.MustCompile(`\.0*$`)
)

// Errors maps field names to their validation messages.
type Errors map[string][]string

func (e Errors) add(name, msg string) {
	e[name] = append(e[name], msg)
}

// Validate checks payload against the definition and returns the cleaned
// values keyed by field name. Keys that are not template fields are
// ignored. errs is nil when the payload is valid.
func (d *Definition) Validate(payload map[string]any) (map[string]any, Errors) {
	cleaned := make(map[string]any, len(d.Fields))
	errs := Errors{}

	for _, f := range d.Fields {
		raw := payload[f.Spec.Name]
		value, msgs := f.clean(raw)
		if len(msgs) > 0 {
			errs[f.Spec.Name] = msgs
			continue
		}
		cleaned[f.Spec.Name] = value
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cleaned, nil
}

// clean converts raw to the field's value and validates it.
func (f *Field) clean(raw any) (any, []string) {
	if f.Type == model.FieldCheckbox {
		checked := checkboxValue(raw)
		if f.Spec.Required && !checked {
			return nil, []string{MsgRequired}
		}
		return checked, nil
	}

	if f.Type == model.FieldNumber {
		return f.cleanNumber(raw)
	}

	s := strings.TrimSpace(stringify(raw))
	if s == "" {
		if f.Spec.Required {
			return nil, []string{MsgRequired}
		}
		return "", nil
	}

	switch f.Type {
	case model.FieldEmail:
		if !validEmail(s) {
			return nil, []string{MsgInvalidEmail}
		}
	case model.FieldSelect:
		if !f.hasChoice(s) {
			return nil, []string{fmt.Sprintf(
				"Select a valid choice. %s is not one of the available choices.", s)}
		}
	}

	if f.pattern != nil && !f.pattern.MatchString(s) {
		return nil, []string{MsgInvalidFormat}
	}
	return s, nil
}

func (f *Field) cleanNumber(raw any) (any, []string) {
	var n int64
	switch v := raw.(type) {
	case nil:
		return f.emptyNumber()
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt64 || v < math.MinInt64 {
			return nil, []string{MsgInvalidNumber}
		}
		n = int64(v)
	case json.Number:
		parsed, ok := parseInteger(v.String())
		if !ok {
			return nil, []string{MsgInvalidNumber}
		}
		n = parsed
	default:
		s := strings.TrimSpace(stringify(v))
		if s == "" {
			return f.emptyNumber()
		}
		parsed, ok := parseInteger(s)
		if !ok {
			return nil, []string{MsgInvalidNumber}
		}
		n = parsed
	}

	var msgs []string
	if f.Spec.Min != nil && n < *f.Spec.Min {
		msgs = append(msgs, fmt.Sprintf("Ensure this value is greater than or equal to %d.", *f.Spec.Min))
	}
	if f.Spec.Max != nil && n > *f.Spec.Max {
		msgs = append(msgs, fmt.Sprintf("Ensure this value is less than or equal to %d.", *f.Spec.Max))
	}
	if f.pattern != nil && !f.pattern.MatchString(strconv.FormatInt(n, 10)) {
		msgs = append(msgs, MsgInvalidFormat)
	}
	if len(msgs) > 0 {
		return nil, msgs
	}
	return n, nil
}

func (f *Field) emptyNumber() (any, []string) {
	if f.Spec.Required {
		return nil, []string{MsgRequired}
	}
	return nil, nil
}

func (f *Field) hasChoice(value string) bool {
	for _, c := range f.Spec.Choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// parseInteger accepts an integer with an optional all-zero fraction,
// such as "42" or "42.0".
func parseInteger(s string) (int64, bool) {
	n, err := strconv.ParseInt(trailingZeros.ReplaceAllString(s, ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// checkboxValue reports whether a submitted checkbox value is checked.
// Missing, false, "false", "0", 0 and "" are unchecked.
func checkboxValue(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		lower := strings.ToLower(strings.TrimSpace(v))
		return lower != "" && lower != "false" && lower != "0"
	default:
		return true
	}
}

// stringify renders a decoded JSON value as text.
func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func validEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	user, domain := s[:at], s[at+1:]
	if !emailUser.MatchString(user) {
		return false
	}
	return domain == "localhost" || emailDomain.MatchString(domain)
}
