package main

import (
	"errors"
	"testing"

	"github.com/nao1215/formbuilder/internal/config"
)

// TestServeCmd tests flag validation before the server starts.
func TestServeCmd(t *testing.T) {
	t.Parallel()

	t.Run("negative max body size", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "--db-dir", t.TempDir(), "serve", "--max-body-size", "-1")
		if !errors.Is(err, config.ErrInvalidMaxBodySize) {
			t.Errorf("expected ErrInvalidMaxBodySize, got %v", err)
		}
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "--db-dir", t.TempDir(), "--log-format", "xml", "serve")
		if err == nil {
			t.Error("expected error for unknown log format")
		}
	})

	t.Run("unusable address", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "--db-dir", t.TempDir(), "serve", "--listen", "256.0.0.1:bad")
		if err == nil {
			t.Error("expected listen error")
		}
	})
}
