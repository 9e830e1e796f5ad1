package main

import (
	"fmt"
	"os"

	"github.com/nao1215/formbuilder/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for formbuilder.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formbuilder",
		Short: "Serve and submit JSON-backed HTML forms",
		Long: `formbuilder renders forms described by stored templates, accepts their
JSON submissions, and submits form pages from the command line.

Templates and submissions are kept in a SQLite database in the XDG data
directory unless --db-dir is given.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory of the SQLite database")

	cmd.AddCommand(NewSubmitCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewTemplatesCmd())
	cmd.AddCommand(NewSubmissionsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
