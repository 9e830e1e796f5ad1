package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout of zero means submissions wait for the server as long
	// as it takes, like a browser fetch without an abort signal.
	DefaultTimeout = 0

	// DefaultBatchSize is the number of pages submitted concurrently.
	DefaultBatchSize = 10

	// DefaultListenAddress is where serve listens. Loopback only.
	DefaultListenAddress = "127.0.0.1:8000"

	// AppName is the application name used for XDG directory paths.
	AppName = "formbuilder"

	// DefaultUserAgent identifies formbuilder in HTTP requests.
	DefaultUserAgent = "formbuilder/1.0 (+https://github.com/nao1215/formbuilder)"

	// DefaultMaxBodySize limits request bodies accepted by the server and
	// response bodies read by the submitter.
	DefaultMaxBodySize = 1 << 20 // 1MB
)

// Config holds all configuration options for formbuilder.
// It is populated from CLI flags and passed down explicitly; nothing reads
// configuration from globals.
type Config struct {
	// Timeout bounds each HTTP request made by the submitter.
	// Zero means no timeout.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent submissions when several pages
	// are given.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .formbuilder in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Forms holds per-page settings loaded from the config file.
	Forms *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for reports and results.
	// When set, output is written to this file instead of stdout.
	ReportFile string

	// Targets are the form page URLs to submit.
	Targets []string

	// SubmitURL overrides the endpoint discovered in the page.
	SubmitURL string

	// CSRFToken overrides the token read from the csrftoken cookie.
	CSRFToken string

	// Values are field values set on every form before submission.
	// Values from the config file take precedence.
	Values map[string]string

	// ListenAddress is the host:port serve listens on.
	ListenAddress string

	// DBDir is the directory of the SQLite database.
	// Defaults to XDG data directory (~/.local/share/formbuilder on Linux).
	DBDir string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum body size in bytes. Zero means the default.
	MaxBodySize int64

	// ProxyAddress routes submissions through a SOCKS5 proxy when set.
	ProxyAddress string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		BatchSize:     DefaultBatchSize,
		ListenAddress: DefaultListenAddress,
		DBDir:         XDGDataDir(),
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for formbuilder.
// On Linux: ~/.local/share/formbuilder
// On macOS: ~/Library/Application Support/formbuilder
// On Windows: %LOCALAPPDATA%\formbuilder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for formbuilder.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// EffectiveMaxBodySize returns MaxBodySize with the default applied.
func (c *Config) EffectiveMaxBodySize() int64 {
	if c.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// Validate checks the options shared by all commands and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyAddress != "" && !validHostPort(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	return nil
}

// ValidateSubmit checks the configuration of the submit command, which
// additionally needs at least one target page.
func (c *Config) ValidateSubmit() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

func validHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
