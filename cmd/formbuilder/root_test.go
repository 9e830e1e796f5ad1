package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "formbuilder" {
			t.Errorf("expected use 'formbuilder', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has global flags", func(t *testing.T) {
		t.Parallel()
		verbose := cmd.PersistentFlags().Lookup("verbose")
		if verbose == nil || verbose.Shorthand != "v" || verbose.DefValue != "false" {
			t.Errorf("unexpected verbose flag %+v", verbose)
		}
		for _, name := range []string{"log-format", "db-dir"} {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"submit", "serve", "import", "export", "templates", "submissions", "init", "version"} {
			if !names[want] {
				t.Errorf("expected %s subcommand", want)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected SilenceUsage and SilenceErrors to be true")
		}
	})
}

// TestSetupLogger tests log format selection.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetErr(&stderr)
		if err := cmd.PersistentFlags().Set("log-format", "json"); err != nil {
			t.Fatal(err)
		}

		logger, err := setupLogger(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Warn("hello", "csrftoken", "abc")

		out := stderr.String()
		if !strings.HasPrefix(out, "{") || strings.Contains(out, "abc") {
			t.Errorf("expected masked JSON log line, got %q", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.PersistentFlags().Set("log-format", "xml"); err != nil {
			t.Fatal(err)
		}
		if _, err := setupLogger(cmd); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
