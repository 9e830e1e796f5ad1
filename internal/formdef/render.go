package formdef

import (
	"html/template"
	"io"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nao1215/formbuilder/internal/form"
	"github.com/nao1215/formbuilder/internal/model"
)

// DefaultScriptURL is where the browser submitter script is served.
const DefaultScriptURL = "/static/form.js"

// RenderOptions are the page-specific values of a rendered form.
type RenderOptions struct {
	// Title defaults to the template name.
	Title string

	// SubmitURL is written to data-submit-url and window.FORM_CONFIG.
	SubmitURL string

	// CSRFToken is embedded as a hidden field when set.
	CSRFToken string

	// ScriptURL defaults to DefaultScriptURL.
	ScriptURL string
}

var helpPolicy = bluemonday.UGCPolicy()

var pageTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<form id="{{.FormID}}" method="post" data-submit-url="{{.SubmitURL}}" novalidate>
{{- if .CSRFToken}}
<input type="hidden" name="csrfmiddlewaretoken" value="{{.CSRFToken}}">
{{- end}}
{{- range .Fields}}
<p>
{{- if eq .Kind "checkbox"}}
<label for="id_{{.Name}}"><input type="checkbox" name="{{.Name}}" id="id_{{.Name}}"{{if .Required}} required{{end}}> {{.Label}}</label>
{{- else}}
<label for="id_{{.Name}}">{{.Label}}:</label>
{{- if eq .Kind "textarea"}}
<textarea name="{{.Name}}" id="id_{{.Name}}" cols="40" rows="10"{{template "attrs" .}}></textarea>
{{- else if eq .Kind "select"}}
<select name="{{.Name}}" id="id_{{.Name}}"{{template "attrs" .}}>
{{- range .Choices}}
<option value="{{.Value}}">{{.Label}}</option>
{{- end}}
</select>
{{- else}}
<input type="{{.InputType}}" name="{{.Name}}" id="id_{{.Name}}"{{template "attrs" .}}>
{{- end}}
{{- end}}
{{- if .HelpText}}
<span class="helptext">{{.HelpText}}</span>
{{- end}}
</p>
{{- end}}
<button type="submit">Submit</button>
</form>
<div id="messages"></div>
<script>window.FORM_CONFIG = {submitUrl: {{.SubmitURL}}};</script>
<script src="{{.ScriptURL}}"></script>
</body>
</html>
{{define "attrs"}}{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}{{if .Min}} min="{{.Min}}"{{end}}{{if .Max}} max="{{.Max}}"{{end}}{{if .Pattern}} pattern="{{.Pattern}}"{{end}}{{if .Required}} required{{end}}{{end}}
`))

type pageData struct {
	Title     string
	FormID    string
	SubmitURL string
	CSRFToken string
	ScriptURL string
	Fields    []fieldData
}

type fieldData struct {
	Name        string
	Kind        string
	InputType   string
	Label       string
	Required    bool
	Placeholder string
	Pattern     string
	Min         string
	Max         string
	HelpText    template.HTML
	Choices     []model.Choice
}

// Render writes the HTML page for def. Help text may contain markup and is
// sanitised; everything else is escaped.
func Render(w io.Writer, def *Definition, opts RenderOptions) error {
	data := pageData{
		Title:     opts.Title,
		FormID:    form.DefaultID,
		SubmitURL: opts.SubmitURL,
		CSRFToken: opts.CSRFToken,
		ScriptURL: opts.ScriptURL,
		Fields:    make([]fieldData, 0, len(def.Fields)),
	}
	if data.Title == "" {
		data.Title = def.Template.Name
	}
	if data.ScriptURL == "" {
		data.ScriptURL = DefaultScriptURL
	}

	for _, f := range def.Fields {
		data.Fields = append(data.Fields, f.view())
	}

	return pageTemplate.Execute(w, data)
}

func (f *Field) view() fieldData {
	v := fieldData{
		Name:        f.Spec.Name,
		Kind:        string(f.Type),
		InputType:   "text",
		Label:       f.Label,
		Required:    f.Spec.Required,
		Placeholder: f.Spec.Placeholder,
		Pattern:     f.Spec.Validation,
		Choices:     make([]model.Choice, 0, len(f.Spec.Choices)),
	}
	if f.Type == model.FieldNumber {
		v.InputType = "number"
	}
	if f.Spec.Min != nil {
		v.Min = strconv.FormatInt(*f.Spec.Min, 10)
	}
	if f.Spec.Max != nil {
		v.Max = strconv.FormatInt(*f.Spec.Max, 10)
	}
	if f.Spec.HelpText != "" {
		v.HelpText = template.HTML(helpPolicy.Sanitize(f.Spec.HelpText)) //nolint:gosec // sanitised above
	}
	for _, c := range f.Spec.Choices {
		if c.Label == "" {
			c.Label = c.Value
		}
		v.Choices = append(v.Choices, c)
	}
	return v
}
