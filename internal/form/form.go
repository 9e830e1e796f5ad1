package form

import (
	"errors"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultID is the id of the form element that the submitter handles.
const DefaultID = "dynamic-form"

// HTML element name constants for form control detection.
const (
	htmlElementForm     = "form"
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
	htmlElementOption   = "option"
	htmlElementOptgroup = "optgroup"
	htmlElementFieldset = "fieldset"
	htmlElementScript   = "script"
)

// Control types that never contribute a value to the serialized form.
var excludedTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
	"image":  true,
	"file":   true,
}

var (
	// ErrFormNotFound is returned when the page has no form with the requested id.
	ErrFormNotFound = errors.New("form not found")

	// ErrNoSuchField is returned by Set when no control has the given name.
	ErrNoSuchField = errors.New("no such field")

	// ErrNoSuchOption is returned when a select or radio group has no option
	// with the requested value.
	ErrNoSuchOption = errors.New("no such option")

	// ErrNoSubmitURL is returned when neither the page configuration nor the
	// form markup names a submission endpoint.
	ErrNoSubmitURL = errors.New("form has no submit URL")
)

// configSubmitURL matches the submitUrl entry of an inline
// window.FORM_CONFIG assignment.
var configSubmitURL = regexp.MustCompile(`FORM_CONFIG\s*=\s*\{[^}]*submitUrl\s*:\s*["']([^"']*)["']`)

// Form is the live state of an HTML form: its controls in document order
// together with their current and default values.
type Form struct {
	// ID is the id attribute of the form element.
	ID string

	// Action and Method are the form's native submission attributes.
	Action string
	Method string

	// DataSubmitURL is the data-submit-url attribute, if any.
	DataSubmitURL string

	// ConfigSubmitURL is the submitUrl found in an inline
	// window.FORM_CONFIG script on the page, if any.
	ConfigSubmitURL string

	// Controls are the form's input, select and textarea elements.
	Controls []*Control
}

// Control is a single form control.
type Control struct {
	// Tag is the element name: input, select or textarea.
	Tag string

	// Type is the lower-cased input type. Select and textarea controls use
	// their tag name.
	Type string

	Name string

	// Value is the current value. For checkboxes and radios it is the value
	// submitted when checked.
	Value        string
	DefaultValue string

	Checked        bool
	DefaultChecked bool

	// Disabled controls are never serialized.
	Disabled bool

	// Options are the options of a select control.
	Options []*Option
}

// Option is a select option.
type Option struct {
	Value           string
	Label           string
	Selected        bool
	DefaultSelected bool
	Disabled        bool
}

// IsCheckbox reports whether the control is a checkbox input.
func (c *Control) IsCheckbox() bool {
	return c.Tag == htmlElementInput && c.Type == "checkbox"
}

// IsRadio reports whether the control is a radio input.
func (c *Control) IsRadio() bool {
	return c.Tag == htmlElementInput && c.Type == "radio"
}

// Parse reads an HTML document and returns the form whose id is id.
func Parse(r io.Reader, id string) (*Form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	node := findByID(doc, htmlElementForm, id)
	if node == nil {
		return nil, ErrFormNotFound
	}

	f := &Form{
		ID:            id,
		Action:        getAttr(node, "action"),
		Method:        strings.ToUpper(getAttr(node, "method")),
		DataSubmitURL: getAttr(node, "data-submit-url"),
		Controls:      make([]*Control, 0),
	}
	if f.Method == "" {
		f.Method = "GET"
	}
	f.ConfigSubmitURL = findConfigSubmitURL(doc)
	f.collect(node, false)

	return f, nil
}

// collect walks the form subtree and appends controls in document order.
func (f *Form) collect(n *html.Node, disabled bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}

		switch c.Data {
		case htmlElementFieldset:
			f.collect(c, disabled || hasAttr(c, "disabled"))
			continue
		case htmlElementInput:
			f.Controls = append(f.Controls, newInput(c, disabled))
			continue
		case htmlElementSelect:
			f.Controls = append(f.Controls, newSelect(c, disabled))
			continue
		case htmlElementTextarea:
			text := textContent(c)
			f.Controls = append(f.Controls, &Control{
				Tag:          htmlElementTextarea,
				Type:         htmlElementTextarea,
				Name:         getAttr(c, "name"),
				Value:        text,
				DefaultValue: text,
				Disabled:     disabled || hasAttr(c, "disabled"),
			})
			continue
		}

		f.collect(c, disabled)
	}
}

func newInput(n *html.Node, disabled bool) *Control {
	typ := strings.ToLower(strings.TrimSpace(getAttr(n, "type")))
	if typ == "" {
		typ = "text"
	}

	value := getAttr(n, "value")
	if (typ == "checkbox" || typ == "radio") && !hasAttr(n, "value") {
		value = "on"
	}
	checked := hasAttr(n, "checked")

	return &Control{
		Tag:            htmlElementInput,
		Type:           typ,
		Name:           getAttr(n, "name"),
		Value:          value,
		DefaultValue:   value,
		Checked:        checked,
		DefaultChecked: checked,
		Disabled:       disabled || hasAttr(n, "disabled"),
	}
}

func newSelect(n *html.Node, disabled bool) *Control {
	ctl := &Control{
		Tag:      htmlElementSelect,
		Type:     htmlElementSelect,
		Name:     getAttr(n, "name"),
		Disabled: disabled || hasAttr(n, "disabled"),
		Options:  make([]*Option, 0),
	}

	var walk func(*html.Node, bool)
	walk = func(p *html.Node, groupDisabled bool) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case htmlElementOptgroup:
				walk(c, groupDisabled || hasAttr(c, "disabled"))
			case htmlElementOption:
				label := collapseSpace(textContent(c))
				value := label
				if hasAttr(c, "value") {
					value = getAttr(c, "value")
				}
				selected := hasAttr(c, "selected")
				ctl.Options = append(ctl.Options, &Option{
					Value:           value,
					Label:           label,
					Selected:        selected,
					DefaultSelected: selected,
					Disabled:        groupDisabled || hasAttr(c, "disabled"),
				})
			}
		}
	}
	walk(n, false)

	return ctl
}

// SubmitURL returns the endpoint the form is submitted to, resolved against
// the page URL. The page's FORM_CONFIG wins over data-submit-url, which wins
// over the action attribute.
func (f *Form) SubmitURL(page *url.URL) (string, error) {
	var raw string
	switch {
	case f.ConfigSubmitURL != "":
		raw = f.ConfigSubmitURL
	case f.DataSubmitURL != "":
		raw = f.DataSubmitURL
	case f.Action != "":
		raw = f.Action
	default:
		return "", ErrNoSubmitURL
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if page == nil {
		return u.String(), nil
	}
	return page.ResolveReference(u).String(), nil
}

// findByID returns the first element named tag whose id attribute is id.
func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && getAttr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

// findConfigSubmitURL scans inline scripts for window.FORM_CONFIG.
func findConfigSubmitURL(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == htmlElementScript && !hasAttr(n, "src") {
		if m := configSubmitURL.FindStringSubmatch(textContent(n)); m != nil {
			return unescapeJS(m[1])
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := findConfigSubmitURL(c); v != "" {
			return v
		}
	}
	return ""
}

// unescapeJS decodes the escapes html/template writes into script string
// literals, such as \/ and \u0026.
func unescapeJS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `\/`, `/`) + `"`)
	if err != nil {
		return s
	}
	return unquoted
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
