package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/formbuilder/internal/config"
	"github.com/nao1215/formbuilder/internal/database"
	"github.com/nao1215/formbuilder/internal/model"
	"github.com/spf13/cobra"
)

// NewSubmissionsCmd creates the submissions command.
func NewSubmissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions <template-id>",
		Short: "Show the stored submissions of a form template",
		Long: `Submissions lists every stored submission of a template, oldest first.
Submissions with identical values are counted as duplicates, and checkbox
fields are summarised.

Examples:
  # Human-readable listing
  formbuilder submissions 1

  # Markdown with a pie chart per checkbox, written to a file
  formbuilder submissions 1 --markdown -o reports/newsletter.md`,
		Args: cobra.ExactArgs(1),
		RunE: runSubmissionsCmd,
	}

	addReportFlags(cmd)

	return cmd
}

// runSubmissionsCmd executes the submissions command.
func runSubmissionsCmd(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if err := readReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	return writeSubmissions(cmd.Context(), cfg, store, id, cmd.OutOrStdout())
}

// writeSubmissions loads the template's submissions and writes the report.
func writeSubmissions(ctx context.Context, cfg *config.Config, store *database.Store, id int64, stdout io.Writer) error {
	tpl, err := store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	subs, err := store.ListSubmissions(ctx, id)
	if err != nil {
		return err
	}

	rep := &model.SubmissionReport{
		Template:    *tpl,
		Submissions: subs,
		GeneratedAt: time.Now().UTC(),
	}

	out, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // close errors after a successful write are not actionable

	if _, err := newReportWriter(cfg, out).WriteSubmissions(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
