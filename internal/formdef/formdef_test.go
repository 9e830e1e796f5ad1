package formdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/nao1215/formbuilder/internal/form"
	"github.com/nao1215/formbuilder/internal/model"
)

func int64Ptr(n int64) *int64 {
	return &n
}

// contactTemplate is used across tests.
func contactTemplate() model.Template {
	return model.Template{
		ID:   1,
		Name: "Contact",
		Fields: []model.FieldSpec{
			{Name: "full_name", Required: true, Validation: `^[A-Za-z ]+$`},
			{Name: "email", Type: model.FieldEmail, Label: "E-mail"},
			{Name: "age", Type: model.FieldNumber, Min: int64Ptr(18), Max: int64Ptr(120)},
			{Name: "topic", Type: model.FieldSelect, Choices: []model.Choice{
				{Value: "sales"}, {Value: "support", Label: "Customer support"},
			}},
			{Name: "message", Type: model.FieldTextarea, HelpText: `<b>Be nice</b><script>alert(1)</script>`},
			{Name: "subscribe", Type: model.FieldCheckbox},
			{Name: "agree", Type: model.FieldCheckbox, Required: true},
		},
	}
}

func mustBuild(t *testing.T, tpl model.Template) *Definition {
	t.Helper()

	def, err := Build(tpl)
	if err != nil {
		t.Fatalf("failed to build definition: %v", err)
	}
	return def
}

// TestBuild tests compiling templates.
func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("derives labels and types", func(t *testing.T) {
		t.Parallel()

		def := mustBuild(t, model.Template{Fields: []model.FieldSpec{
			{Name: "first_name"},
			{Name: "color", Type: "colour-picker"},
		}})

		if def.Fields[0].Label != "First Name" {
			t.Errorf("expected label 'First Name', got %q", def.Fields[0].Label)
		}
		if def.Fields[1].Type != model.FieldText {
			t.Errorf("unknown type should fall back to text, got %s", def.Fields[1].Type)
		}
	})

	t.Run("rejects field without name", func(t *testing.T) {
		t.Parallel()

		_, err := Build(model.Template{Fields: []model.FieldSpec{{Type: model.FieldText}}})
		if !errors.Is(err, ErrMissingFieldName) {
			t.Errorf("expected ErrMissingFieldName, got %v", err)
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		_, err := Build(model.Template{Fields: []model.FieldSpec{{Name: "a"}, {Name: "a"}}})
		if !errors.Is(err, ErrDuplicateField) {
			t.Errorf("expected ErrDuplicateField, got %v", err)
		}
	})

	t.Run("rejects bad pattern", func(t *testing.T) {
		t.Parallel()

		_, err := Build(model.Template{Fields: []model.FieldSpec{{Name: "a", Validation: "("}}})
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
	})
}

// TestValidate tests payload validation and cleaning.
func TestValidate(t *testing.T) {
	t.Parallel()

	def := mustBuild(t, contactTemplate())

	t.Run("valid payload is cleaned", func(t *testing.T) {
		t.Parallel()

		cleaned, errs := def.Validate(map[string]any{
			"full_name": "  Ann Lee ",
			"email":     "ann@example.com",
			"age":       "42",
			"topic":     "support",
			"message":   "",
			"subscribe": false,
			"agree":     true,
			"extra":     "ignored",
		})
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}

		want := map[string]any{
			"full_name": "Ann Lee",
			"email":     "ann@example.com",
			"age":       int64(42),
			"topic":     "support",
			"message":   "",
			"subscribe": false,
			"agree":     true,
		}
		if !reflect.DeepEqual(cleaned, want) {
			t.Errorf("unexpected cleaned data:\n got %#v\nwant %#v", cleaned, want)
		}
	})

	t.Run("error messages", func(t *testing.T) {
		t.Parallel()

		_, errs := def.Validate(map[string]any{
			"full_name": "Ann 2",
			"email":     "not-an-email",
			"age":       float64(7),
			"topic":     "billing",
			"agree":     "false",
		})

		want := Errors{
			"full_name": {"Invalid format."},
			"email":     {"Enter a valid email address."},
			"age":       {"Ensure this value is greater than or equal to 18."},
			"topic":     {"Select a valid choice. billing is not one of the available choices."},
			"agree":     {"This field is required."},
		}
		if !reflect.DeepEqual(errs, want) {
			t.Errorf("unexpected errors:\n got %v\nwant %v", errs, want)
		}
	})

	t.Run("missing required text", func(t *testing.T) {
		t.Parallel()

		_, errs := def.Validate(map[string]any{"agree": true})
		if got := errs["full_name"]; len(got) != 1 || got[0] != MsgRequired {
			t.Errorf("expected required error, got %v", got)
		}
	})

	t.Run("empty optional number is nil", func(t *testing.T) {
		t.Parallel()

		cleaned, errs := def.Validate(map[string]any{"full_name": "Ann", "agree": "on", "age": ""})
		if errs != nil {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if v, ok := cleaned["age"]; !ok || v != nil {
			t.Errorf("expected age nil, got %v", v)
		}
	})
}

// TestCleanNumber tests integer conversion.
func TestCleanNumber(t *testing.T) {
	t.Parallel()

	def := mustBuild(t, model.Template{Fields: []model.FieldSpec{
		{Name: "n", Type: model.FieldNumber, Max: int64Ptr(100)},
	}})

	tests := []struct {
		name    string
		raw     any
		want    any
		wantErr string
	}{
		{"json integer", float64(5), int64(5), ""},
		{"json float with zero fraction", float64(5.0), int64(5), ""},
		{"string integer", " 12 ", int64(12), ""},
		{"string decimal zero", "12.00", int64(12), ""},
		{"fraction", float64(1.5), nil, MsgInvalidNumber},
		{"word", "twelve", nil, MsgInvalidNumber},
		{"bool", true, nil, MsgInvalidNumber},
		{"too large", float64(101), nil, "Ensure this value is less than or equal to 100."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cleaned, errs := def.Validate(map[string]any{"n": tt.raw})
			if tt.wantErr != "" {
				if got := errs["n"]; len(got) != 1 || got[0] != tt.wantErr {
					t.Errorf("expected %q, got %v", tt.wantErr, got)
				}
				return
			}
			if errs != nil {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if cleaned["n"] != tt.want {
				t.Errorf("expected %v, got %v", tt.want, cleaned["n"])
			}
		})
	}
}

// TestCheckboxValue tests submitted checkbox interpretation.
func TestCheckboxValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"false", false},
		{"False", false},
		{"0", false},
		{"", false},
		{float64(0), false},
		{"on", true},
		{"yes", true},
		{float64(1), true},
		{json.Number("0"), false},
		{json.Number("2"), true},
	}

	for _, tt := range tests {
		if got := checkboxValue(tt.raw); got != tt.want {
			t.Errorf("checkboxValue(%#v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

// TestValidEmail tests the address check.
func TestValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"ann@example.com", "a.b+c@sub.example.org", "root@localhost"}
	invalid := []string{"ann", "@example.com", "ann@", "ann@example", "a..b@example.com", "ann @example.com"}

	for _, s := range valid {
		if !validEmail(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if validEmail(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

// TestRender tests the rendered page.
func TestRender(t *testing.T) {
	t.Parallel()

	def := mustBuild(t, contactTemplate())

	var buf bytes.Buffer
	err := Render(&buf, def, RenderOptions{SubmitURL: "/forms/1/submit/", CSRFToken: "tok"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	page := buf.String()

	for _, want := range []string{
		`<title>Contact</title>`,
		`<form id="dynamic-form"`,
		`data-submit-url="/forms/1/submit/"`,
		`<div id="messages"></div>`,
		`<script src="/static/form.js"></script>`,
		`<label for="id_full_name">Full Name:</label>`,
		`pattern="^[A-Za-z ]&#43;$"`,
		`<label for="id_email">E-mail:</label>`,
		`type="number" name="age" id="id_age" min="18" max="120"`,
		`<option value="support">Customer support</option>`,
		`<b>Be nice</b>`,
		`name="agree" id="id_agree" required`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
	if strings.Contains(page, "alert(1)") {
		t.Error("help text script was not sanitised")
	}

	t.Run("page is understood by the form parser", func(t *testing.T) {
		t.Parallel()

		f, err := form.Parse(strings.NewReader(page), form.DefaultID)
		if err != nil {
			t.Fatalf("failed to parse rendered page: %v", err)
		}
		if f.ConfigSubmitURL != "/forms/1/submit/" {
			t.Errorf("unexpected FORM_CONFIG submitUrl %q", f.ConfigSubmitURL)
		}

		snap := f.Snapshot()
		if v, _ := snap.Get("subscribe"); v != false {
			t.Errorf("expected unchecked subscribe to be false, got %v", v)
		}
		if v, _ := snap.Get("topic"); v != "sales" {
			t.Errorf("expected first option selected, got %v", v)
		}
	})
}
