package main

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/formbuilder/internal/database"
	"github.com/nao1215/formbuilder/internal/formdef"
	"github.com/nao1215/formbuilder/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errNotTemplateList is returned when an import file is not a list.
var errNotTemplateList = errors.New("file must contain a list of templates")

// templateEntry is one template in an import or export file.
type templateEntry struct {
	Name   string            `json:"name" yaml:"name"`
	Fields []model.FieldSpec `json:"fields" yaml:"fields"`
}

// isYAML reports whether path names a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Import form templates from a JSON or YAML file",
		Long: `Import reads a list of templates, each with a name and a list of fields, and
creates or updates the template of the same name.

Files ending in .yaml or .yml are read as YAML, everything else as JSON.
Entries without a name or fields are skipped with a message.

Example file:
  [
    {"name": "Newsletter", "fields": [
      {"name": "email", "type": "email", "required": true},
      {"name": "subscribe", "type": "checkbox", "label": "Send me news"}
    ]}
  ]`,
		Args: cobra.ExactArgs(1),
		RunE: runImportCmd,
	}
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path) //nolint:gosec // User-provided import path is intentional
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	_, _, err = importTemplates(cmd.Context(), store, data, isYAML(path), cmd.OutOrStdout())
	return err
}

// importTemplates upserts every valid entry of data and reports each one
// on out, followed by the totals.
func importTemplates(ctx context.Context, store *database.Store, data []byte, yamlFormat bool, out io.Writer) (created, updated int, err error) {
	var raw any
	if yamlFormat {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse templates: %w", err)
	}

	list, ok := raw.([]any)
	if !ok {
		return 0, 0, errNotTemplateList
	}

	for _, item := range list {
		entry, ok := item.(map[string]any)
		rawName, hasName := entry["name"]
		rawFields, hasFields := entry["fields"]
		if !ok || !hasName || !hasFields {
			fmt.Fprintf(out, "Skipping invalid template entry: %s\n", compact(item))
			continue
		}

		name := fmt.Sprint(rawName)
		if _, ok := rawFields.([]any); !ok {
			fmt.Fprintf(out, "Invalid fields for template %q, expected list.\n", name)
			continue
		}

		fields, err := decodeFields(rawFields)
		if err == nil {
			_, err = formdef.Build(model.Template{Name: name, Fields: fields})
		}
		if err != nil {
			fmt.Fprintf(out, "Invalid fields for template %q: %v\n", name, err)
			continue
		}

		_, isCreated, err := store.UpsertTemplate(ctx, name, fields)
		if err != nil {
			return created, updated, fmt.Errorf("failed to import template %q: %w", name, err)
		}
		if isCreated {
			created++
		} else {
			updated++
		}
		fmt.Fprintf(out, "Imported/updated template: %s\n", name)
	}

	fmt.Fprintf(out, "Done. Created: %d, Updated: %d\n", created, updated)
	return created, updated, nil
}

// decodeFields converts a decoded field list to FieldSpecs through JSON,
// which applies the same choice parsing for both file formats.
func decodeFields(raw any) ([]model.FieldSpec, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var fields []model.FieldSpec
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// compact renders a decoded value for a skip message.
func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export all form templates to a JSON or YAML file",
		Long: `Export writes every template, active or not, as a list of {name, fields}
entries that import accepts. Paths ending in .yaml or .yml are written as
YAML, everything else as indented JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCmd,
	}
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := exportTemplates(cmd.Context(), store, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d templates to %s\n", n, path)
	return nil
}

// exportTemplates writes all templates, oldest first, to path.
func exportTemplates(ctx context.Context, store *database.Store, path string) (int, error) {
	templates, err := store.ListTemplates(ctx, false)
	if err != nil {
		return 0, err
	}
	slices.SortFunc(templates, func(a, b *model.Template) int {
		return cmp.Compare(a.ID, b.ID)
	})

	entries := make([]templateEntry, len(templates))
	for i, tpl := range templates {
		entries[i] = templateEntry{Name: tpl.Name, Fields: tpl.Fields}
	}

	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return 0, fmt.Errorf("failed to encode templates: %w", err)
		}
		if err := enc.Close(); err != nil {
			return 0, fmt.Errorf("failed to encode templates: %w", err)
		}
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(entries); err != nil {
			return 0, fmt.Errorf("failed to encode templates: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return len(entries), nil
}

// NewTemplatesCmd creates the templates command and its subcommands.
func NewTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List form templates",
		Long: `Templates lists every stored template with its id, status and number of
submissions. Use the activate and deactivate subcommands to control which
templates the server renders.`,
		Args: cobra.NoArgs,
		RunE: runTemplatesCmd,
	}

	cmd.Flags().BoolP("active", "a", false, "List active templates only")

	cmd.AddCommand(newSetActiveCmd("activate", true))
	cmd.AddCommand(newSetActiveCmd("deactivate", false))

	return cmd
}

// runTemplatesCmd executes the templates command.
func runTemplatesCmd(cmd *cobra.Command, _ []string) error {
	activeOnly, err := cmd.Flags().GetBool("active")
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	return listTemplates(cmd.Context(), store, activeOnly, cmd.OutOrStdout())
}

// listTemplates prints one line per template, newest first.
func listTemplates(ctx context.Context, store *database.Store, activeOnly bool, out io.Writer) error {
	templates, err := store.ListTemplates(ctx, activeOnly)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Fprintln(out, "No templates.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-30s %-8s %6s  %s\n", "ID", "NAME", "STATUS", "FIELDS", "SUBMISSIONS")
	for _, tpl := range templates {
		n, err := store.CountSubmissions(ctx, tpl.ID)
		if err != nil {
			return err
		}
		status := "active"
		if !tpl.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(out, "%-6d %-30s %-8s %6d  %d\n", tpl.ID, tpl.Name, status, len(tpl.Fields), n)
	}
	return nil
}

// newSetActiveCmd creates the activate or deactivate subcommand.
func newSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <template-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a form template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTemplateID(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetTemplateActive(cmd.Context(), id, active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template %d %sd\n", id, use)
			return nil
		},
	}
}

// parseTemplateID parses a template id argument.
func parseTemplateID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid template id %q", s)
	}
	return id, nil
}
