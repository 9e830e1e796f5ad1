package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/nao1215/formbuilder/internal/config"
	"github.com/nao1215/formbuilder/internal/csrf"
	"github.com/nao1215/formbuilder/internal/display"
	"github.com/nao1215/formbuilder/internal/form"
	"github.com/nao1215/formbuilder/internal/model"
	"github.com/nao1215/formbuilder/internal/submitter"
	"github.com/spf13/cobra"
)

// errSubmissionsFailed is returned when at least one page did not end in
// success, so the process exits non-zero.
var errSubmissionsFailed = errors.New("submission failed")

// NewSubmitCmd creates the submit command.
func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [form-page-url...]",
		Short: "Fill in and submit form pages as JSON",
		Long: `Submit fetches each form page, fills in the configured values and posts the
form as a JSON object to the page's submit URL.

The anti-forgery token is read from the csrftoken cookie the page set and
sent in the X-CSRFToken header. Each page shows "Submitting..." and then
exactly one outcome:

  Thanks — submission saved.          the server stored the submission
  Server rejected submission.         the server answered ok:false
  Errors: {...}                       the server listed field errors
  Submission failed: <status>         any other error status
  Network error: <message>            the request did not complete

Examples:
  # Submit a form with two values
  formbuilder submit -S name=Ann -S subscribe=on http://127.0.0.1:8000/forms/1/

  # Submit every page listed in a file, four at a time
  formbuilder submit --list pages.txt --batch 4

  # Output JSON results
  formbuilder submit --json http://127.0.0.1:8000/forms/1/

Configuration file (.formbuilder) example:
  defaults:
    values:
      email: "ann@example.com"
  forms:
    "http://127.0.0.1:8000/forms/1/":
      values:
        name: "Ann"
      cookie: "sessionid=abc123"`,
		Args: cobra.ArbitraryArgs,
		RunE: runSubmitCmd,
	}

	// Target flags
	cmd.Flags().StringP("list", "l", "",
		"File with one form page URL per line (# starts a comment)")
	cmd.Flags().String("form-id", form.DefaultID,
		"id attribute of the form element to submit")
	cmd.Flags().StringToStringP("set", "S", nil,
		"Field value to set before submitting, as name=value (repeatable)")
	cmd.Flags().StringP("submit-url", "s", "",
		"Override the endpoint discovered in the page")
	cmd.Flags().String("csrf-token", "",
		"Override the token read from the csrftoken cookie")

	// Transport flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request (0 waits indefinitely)")
	cmd.Flags().StringP("proxy", "x", "",
		"Route requests through a SOCKS5 proxy at host:port")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size in bytes of a page or response body")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent submissions")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: ./.formbuilder, the XDG config dir, or ~/.formbuilder)")

	addReportFlags(cmd)

	return cmd
}

// runSubmitCmd executes the submit command.
func runSubmitCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildSubmitConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateSubmit(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}

	formID, err := cmd.Flags().GetString("form-id")
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runSubmit(ctx, cfg, formID, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildSubmitConfig creates a Config from the submit command's flags.
func buildSubmitConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.SubmitURL, err = cmd.Flags().GetString("submit-url")
	if err != nil {
		return nil, err
	}

	cfg.CSRFToken, err = cmd.Flags().GetString("csrf-token")
	if err != nil {
		return nil, err
	}

	cfg.Values, err = cmd.Flags().GetStringToString("set")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given config file must exist; the implicit search may
	// find nothing.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.Forms, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.Forms = &config.File{Forms: make(map[string]config.FormConfig)}
	}

	if err := readReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.Targets = append(cfg.Targets, args...)
	if listPath != "" {
		listed, err := readTargetList(listPath)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// readTargetList reads one page URL per line. Blank lines and lines
// starting with # are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// runSubmit prepares a job per target, submits them as a batch and writes
// the results.
func runSubmit(ctx context.Context, cfg *config.Config, formID string, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting submit",
		"targets", len(cfg.Targets),
		"batch_size", cfg.BatchSize,
	)

	attempts := make([]model.Attempt, len(cfg.Targets))
	jobs := make([]submitter.Job, 0, len(cfg.Targets))
	jobIndex := make([]int, 0, len(cfg.Targets))

	for i, target := range cfg.Targets {
		attempts[i].Page = target

		job, err := prepareJob(ctx, cfg, target, formID, logger, stderr)
		if err != nil {
			// The page never got as far as a submission; report it like a
			// request that did not complete.
			logger.Warn("failed to prepare form", "page", target, "error", err)
			attempts[i].Outcome = model.NetworkError(err.Error())
			fmt.Fprintf(stderr, "%s: %s\n", target, attempts[i].Outcome.Message)
			continue
		}
		jobs = append(jobs, job)
		jobIndex = append(jobIndex, i)
	}

	batch := submitter.NewBatch(
		submitter.WithConcurrency(cfg.BatchSize),
		submitter.WithBatchLogger(logger),
	)
	results, runErr := batch.Run(ctx, jobs)
	for j, result := range results {
		attempts[jobIndex[j]] = result
	}

	if err := writeAttempts(cfg, attempts, stdout); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, a := range attempts {
		if a.Outcome.Status != model.StatusSuccess {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d page(s)", errSubmissionsFailed, failed, len(attempts))
	}
	return nil
}

// prepareJob fetches the page of target, fills in its values and builds
// the submitter that will post it.
func prepareJob(ctx context.Context, cfg *config.Config, target, formID string, logger *slog.Logger, stderr io.Writer) (submitter.Job, error) {
	pageURL, err := url.Parse(target)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return submitter.Job{}, fmt.Errorf("invalid page URL %q", target)
	}

	formConfig := cfg.Forms.GetFormConfig(target)

	client, err := submitter.NewHTTPClient(submitter.ClientOptions{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
		UserAgent:    cfg.UserAgent,
		Cookie:       formConfig.Cookie,
		Headers:      formConfig.Headers,
	})
	if err != nil {
		return submitter.Job{}, err
	}

	f, err := fetchForm(ctx, client, pageURL, formID, cfg.EffectiveMaxBodySize())
	if err != nil {
		return submitter.Job{}, err
	}

	if err := applyValues(f, mergeValues(cfg.Values, formConfig.Values)); err != nil {
		return submitter.Job{}, err
	}

	submitURL, err := resolveSubmitURL(f, pageURL, cfg.SubmitURL, formConfig.SubmitURL)
	if err != nil {
		return submitter.Job{}, err
	}

	s, err := submitter.New(
		submitter.Config{SubmitURL: submitURL},
		tokenProvider(cfg.CSRFToken, client.Jar, pageURL, formConfig.Cookie),
		submitter.WithHTTPClient(client),
		submitter.WithLogger(logger),
		submitter.WithMaxResponseSize(cfg.EffectiveMaxBodySize()),
	)
	if err != nil {
		return submitter.Job{}, err
	}

	return submitter.Job{
		Name:      target,
		Form:      f,
		Submitter: s,
		Display:   display.NewTerminal(stderr, display.WithPrefix(target+": ")),
	}, nil
}

// fetchForm downloads the page and parses the form with the given id.
func fetchForm(ctx context.Context, client *http.Client, pageURL *url.URL, formID string, maxBody int64) (*form.Form, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch page: %s", resp.Status)
	}

	f, err := form.Parse(io.LimitReader(resp.Body, maxBody), formID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return f, nil
}

// mergeValues returns flag values overridden by config file values.
func mergeValues(flags, file map[string]string) map[string]string {
	merged := maps.Clone(flags)
	if merged == nil {
		merged = make(map[string]string, len(file))
	}
	maps.Copy(merged, file)
	return merged
}

// applyValues sets values on f in name order, so errors are reproducible.
func applyValues(f *form.Form, values map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if err := f.Set(name, values[name]); err != nil {
			return fmt.Errorf("failed to set field: %w", err)
		}
	}
	return nil
}

// resolveSubmitURL picks the endpoint: the flag, then the config file,
// then the page itself. Overrides may be relative to the page.
func resolveSubmitURL(f *form.Form, pageURL *url.URL, overrides ...string) (string, error) {
	for _, o := range overrides {
		if o == "" {
			continue
		}
		ref, err := url.Parse(o)
		if err != nil {
			return "", fmt.Errorf("invalid submit URL %q: %w", o, err)
		}
		return pageURL.ResolveReference(ref).String(), nil
	}
	return f.SubmitURL(pageURL)
}

// tokenProvider returns the anti-forgery token source for a page. An
// explicit token wins; otherwise the cookie the page set is used, and
// finally a csrftoken given in the configured Cookie string.
func tokenProvider(explicit string, jar http.CookieJar, pageURL *url.URL, cookie string) csrf.TokenProvider {
	if explicit != "" {
		return csrf.Static(explicit)
	}
	fromJar := &csrf.Jar{Jar: jar, URL: pageURL}
	fromConfig := csrf.NewCookieString(cookie)
	return csrf.TokenFunc(func() (string, bool) {
		if token, ok := fromJar.Token(); ok {
			return token, true
		}
		return fromConfig.Token()
	})
}

// writeAttempts writes the results in the format chosen in cfg.
func writeAttempts(cfg *config.Config, attempts []model.Attempt, stdout io.Writer) error {
	out, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // close errors after a successful write are not actionable

	if _, err := newReportWriter(cfg, out).WriteAttempts(attempts); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
