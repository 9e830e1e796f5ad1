package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/formbuilder/internal/config"
	"github.com/nao1215/formbuilder/internal/database"
	"github.com/nao1215/formbuilder/internal/log"
	"github.com/nao1215/formbuilder/internal/report"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getGlobalString retrieves a string flag from the command or its parent.
func getGlobalString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// getDBDir returns the database directory flag, falling back to the XDG
// data directory.
func getDBDir(cmd *cobra.Command) string {
	dir := getGlobalString(cmd, "db-dir")
	if dir == "" {
		return config.XDGDataDir()
	}
	return dir
}

// setupLogger creates the masking logger selected by --verbose and
// --log-format, writing to the command's stderr.
func setupLogger(cmd *cobra.Command) (*slog.Logger, error) {
	format := log.FormatText

	switch name := getGlobalString(cmd, "log-format"); strings.ToLower(name) {
	case "", "text":
	case "json":
		format = log.FormatJSON
	default:
		return nil, fmt.Errorf("unknown log format %q (expected text or json)", name)
	}

	return log.New(cmd.ErrOrStderr(), getVerboseFlag(cmd), format), nil
}

// openStore opens the database in the directory given by --db-dir.
func openStore(cmd *cobra.Command) (*database.Store, error) {
	store, err := database.Open(getDBDir(cmd), database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// openOutput returns the destination for a report: path when set,
// otherwise stdout. The returned close function is never nil.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports contain submitted values, so only the owner may read them.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the writer for the format chosen in cfg.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// addReportFlags registers the output format flags shared by commands
// that write reports.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// readReportFlags copies the output format flags into cfg.
func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	return err
}
