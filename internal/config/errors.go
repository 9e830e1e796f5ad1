package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateSubmit. Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when submit is run without a page URL.
	ErrNoTarget = errors.New("no target specified: provide a form page URL or use --list")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Zero disables the timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxyAddress is returned when the proxy is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
