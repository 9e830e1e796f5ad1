package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/formbuilder/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/formbuilder.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new formbuilder configuration file",
		Long: `Initialize creates a new .formbuilder configuration file in the current directory.

The generated file includes commented examples of:
- Field values filled in before every submission
- Per-page values, cookies and headers
- Overriding the submit URL of a page

Examples:
  # Create .formbuilder in current directory
  formbuilder init

  # Create config file at a specific path
  formbuilder init -o myconfig.yaml

  # Force overwrite existing file
  formbuilder init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Cookies in the file are credentials.
	if err := os.WriteFile(outputPath, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-page settings such as:")
	fmt.Fprintln(out, "  - Field values to submit")
	fmt.Fprintln(out, "  - Session cookies and headers")
	fmt.Fprintln(out, "  - The submit URL when the page does not expose one")

	return nil
}
