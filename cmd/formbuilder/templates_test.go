package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nao1215/formbuilder/internal/database"
	"github.com/nao1215/formbuilder/internal/model"
)

func openTestStore(t *testing.T, dir string) *database.Store {
	t.Helper()
	store, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

const templatesJSON = `[
  {"name": "Newsletter", "fields": [
    {"name": "email", "type": "email", "required": true},
    {"name": "color", "type": "select", "choices": ["red", ["blue", "Blue"]]}
  ]},
  {"name": "Broken"},
  "not an object",
  {"name": "Flat", "fields": "email"},
  {"name": "BadPattern", "fields": [{"name": "zip", "validation": "("}]}
]`

// TestImportTemplates tests importing and updating templates.
func TestImportTemplates(t *testing.T) {
	t.Parallel()

	t.Run("imports valid entries and reports the rest", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t, t.TempDir())
		var out bytes.Buffer

		created, updated, err := importTemplates(context.Background(), store, []byte(templatesJSON), false, &out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created != 1 || updated != 0 {
			t.Errorf("created=%d updated=%d, want 1 and 0", created, updated)
		}

		output := out.String()
		for _, want := range []string{
			"Imported/updated template: Newsletter",
			`Skipping invalid template entry: {"name":"Broken"}`,
			`Skipping invalid template entry: "not an object"`,
			`Invalid fields for template "Flat", expected list.`,
			`Invalid fields for template "BadPattern"`,
			"Done. Created: 1, Updated: 0",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}

		templates, err := store.ListTemplates(context.Background(), false)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(templates) != 1 {
			t.Fatalf("expected 1 template, got %d", len(templates))
		}
		choices := templates[0].Fields[1].Choices
		want := []model.Choice{{Value: "red", Label: "red"}, {Value: "blue", Label: "Blue"}}
		if !reflect.DeepEqual(choices, want) {
			t.Errorf("choices = %+v, want %+v", choices, want)
		}
	})

	t.Run("second import updates", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t, t.TempDir())
		data := []byte(`[{"name": "Newsletter", "fields": [{"name": "email"}]}]`)
		if _, _, err := importTemplates(context.Background(), store, data, false, &bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out bytes.Buffer
		created, updated, err := importTemplates(context.Background(), store, data, false, &out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created != 0 || updated != 1 {
			t.Errorf("created=%d updated=%d, want 0 and 1", created, updated)
		}
		if !strings.Contains(out.String(), "Done. Created: 0, Updated: 1") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t, t.TempDir())
		data := []byte(`
- name: Survey
  fields:
    - name: age
      type: number
      min: 18
    - name: agree
      type: checkbox
`)
		created, _, err := importTemplates(context.Background(), store, data, true, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created != 1 {
			t.Fatalf("expected 1 created, got %d", created)
		}

		templates, err := store.ListTemplates(context.Background(), false)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		age := templates[0].Fields[0]
		if age.Type != model.FieldNumber || age.Min == nil || *age.Min != 18 {
			t.Errorf("unexpected field %+v", age)
		}
	})

	t.Run("not a list", func(t *testing.T) {
		t.Parallel()

		store := openTestStore(t, t.TempDir())
		_, _, err := importTemplates(context.Background(), store, []byte(`{"name":"x"}`), false, &bytes.Buffer{})
		if !errors.Is(err, errNotTemplateList) {
			t.Errorf("expected errNotTemplateList, got %v", err)
		}

		if _, _, err := importTemplates(context.Background(), store, []byte(`[`), false, &bytes.Buffer{}); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestExportImportRoundTrip exports templates and imports them into a
// second database through the CLI.
func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"templates.json", "templates.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srcDir := t.TempDir()
			src := openTestStore(t, srcDir)
			ctx := context.Background()
			minQty := int64(1)
			fields := []model.FieldSpec{
				{Name: "qty", Type: model.FieldNumber, Min: &minQty, HelpText: "<b>How many</b>"},
				{Name: "size", Type: model.FieldSelect, Choices: []model.Choice{{Value: "s", Label: "Small"}}},
			}
			first, _, err := src.UpsertTemplate(ctx, "Order", fields)
			if err != nil {
				t.Fatal(err)
			}
			if _, _, err := src.UpsertTemplate(ctx, "Contact", []model.FieldSpec{{Name: "email", Type: model.FieldEmail}}); err != nil {
				t.Fatal(err)
			}
			if err := src.SetTemplateActive(ctx, first.ID, false); err != nil {
				t.Fatal(err)
			}

			path := filepath.Join(t.TempDir(), name)
			stdout, _, err := execute(t, "--db-dir", srcDir, "export", path)
			if err != nil {
				t.Fatalf("export failed: %v", err)
			}
			if want := "Exported 2 templates to " + path; !strings.Contains(stdout, want) {
				t.Errorf("expected %q, got %q", want, stdout)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Index(string(content), "Order") > strings.Index(string(content), "Contact") {
				t.Error("expected oldest template first")
			}

			dstDir := t.TempDir()
			stdout, _, err = execute(t, "--db-dir", dstDir, "import", path)
			if err != nil {
				t.Fatalf("import failed: %v", err)
			}
			if !strings.Contains(stdout, "Done. Created: 2, Updated: 0") {
				t.Errorf("unexpected import output %q", stdout)
			}

			dst := openTestStore(t, dstDir)
			templates, err := dst.ListTemplates(ctx, false)
			if err != nil {
				t.Fatal(err)
			}
			var order *model.Template
			for _, tpl := range templates {
				if tpl.Name == "Order" {
					order = tpl
				}
			}
			if order == nil {
				t.Fatal("Order template missing after import")
			}
			if !reflect.DeepEqual(order.Fields, fields) {
				t.Errorf("fields = %+v, want %+v", order.Fields, fields)
			}
		})
	}
}

// TestTemplatesCmd tests listing and toggling templates.
func TestTemplatesCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := openTestStore(t, dir)
	ctx := context.Background()
	tpl, _, err := store.UpsertTemplate(ctx, "Newsletter", []model.FieldSpec{{Name: "email"}})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := model.NewSubmission(tpl.ID, map[string]any{"email": "a@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InsertSubmission(ctx, sub); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "--db-dir", dir, "templates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Newsletter") || !strings.Contains(stdout, "active") {
		t.Errorf("unexpected listing:\n%s", stdout)
	}

	stdout, _, err = execute(t, "--db-dir", dir, "templates", "deactivate", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Template 1 deactivated") {
		t.Errorf("unexpected output %q", stdout)
	}

	stdout, _, err = execute(t, "--db-dir", dir, "templates", "--active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "No templates.") {
		t.Errorf("expected no active templates, got:\n%s", stdout)
	}

	if _, _, err := execute(t, "--db-dir", dir, "templates", "activate", "42"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := execute(t, "--db-dir", dir, "templates", "activate", "x"); err == nil {
		t.Error("expected error for invalid id")
	}
}

// TestListTemplates tests the listing columns.
func TestListTemplates(t *testing.T) {
	t.Parallel()

	store := openTestStore(t, t.TempDir())
	if _, _, err := store.UpsertTemplate(context.Background(), "Survey", []model.FieldSpec{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := listTemplates(context.Background(), store, false, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", out.String())
	}
	if fields := strings.Fields(lines[1]); !reflect.DeepEqual(fields, []string{"1", "Survey", "active", "2", "0"}) {
		t.Errorf("unexpected row %q", lines[1])
	}
}
