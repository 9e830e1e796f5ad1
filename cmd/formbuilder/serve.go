package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/formbuilder/internal/config"
	"github.com/nao1215/formbuilder/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forms and accept their submissions",
		Long: `Serve renders every active template as an HTML form and stores the JSON
submissions posted back by the page script.

Routes:
  GET  /                     list of active forms
  GET  /forms/{id}/          the rendered form
  POST /forms/{id}/submit/   JSON submission endpoint
  GET  /static/form.js       the page script

Examples:
  # Serve on the default loopback address
  formbuilder serve

  # Listen on all interfaces
  formbuilder serve --listen :8080`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address to listen on (host:port)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size in bytes of a submission body")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = getDBDir(cmd)

	var err error
	cfg.ListenAddress, err = cmd.Flags().GetString("listen")
	if err != nil {
		return err
	}
	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(store,
		server.WithLogger(logger),
		server.WithMaxBodySize(cfg.EffectiveMaxBodySize()),
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving forms on http://%s/ (database: %s)\n", cfg.ListenAddress, store.Path())
	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}
