package submitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nao1215/formbuilder/internal/csrf"
	"github.com/nao1215/formbuilder/internal/display"
	"github.com/nao1215/formbuilder/internal/form"
	"github.com/nao1215/formbuilder/internal/model"
)

// DefaultMaxResponseSize limits how much of a response body is read.
const DefaultMaxResponseSize = 1 << 20

// ErrNoSubmitURL is returned by New when the configuration has no URL.
var ErrNoSubmitURL = errors.New("submit URL is required")

// Config is the read-only configuration of a Submitter.
type Config struct {
	// SubmitURL is the endpoint that receives the JSON payload.
	SubmitURL string
}

// Submitter posts form snapshots to the configured endpoint and turns the
// response into an Outcome.
type Submitter struct {
	cfg     Config
	tokens  csrf.TokenProvider
	client  *http.Client
	logger  *slog.Logger
	maxBody int64
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Submitter) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// WithMaxResponseSize limits the response body size read. Non-positive
// values keep the default.
func WithMaxResponseSize(n int64) Option {
	return func(s *Submitter) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a Submitter. tokens may be nil, in which case requests carry
// no anti-forgery header.
func New(cfg Config, tokens csrf.TokenProvider, opts ...Option) (*Submitter, error) {
	if cfg.SubmitURL == "" {
		return nil, ErrNoSubmitURL
	}
	if tokens == nil {
		tokens = csrf.Static("")
	}

	s := &Submitter{
		cfg:     cfg,
		tokens:  tokens,
		client:  &http.Client{},
		maxBody: DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Config returns the submitter's configuration.
func (s *Submitter) Config() Config {
	return s.cfg
}

// Handle runs one full submission of f: it shows the pending state, takes
// a snapshot of the form, submits it, shows the outcome and, when the
// server accepted the data, resets the form to its defaults.
//
// Handle never retries and always ends in exactly one terminal outcome.
// Concurrent calls may share d; the outcome of the call that finishes last
// is the one left on display.
func (s *Submitter) Handle(ctx context.Context, f *form.Form, d display.Display) model.Outcome {
	if d == nil {
		d = display.Discard
	}
	d.Show(model.Pending())

	outcome := s.Submit(ctx, f.Snapshot())
	if outcome.Status == model.StatusSuccess {
		f.Reset()
	}

	d.Show(outcome)
	return outcome
}

// Submit posts snap and interprets the response.
func (s *Submitter) Submit(ctx context.Context, snap *model.Snapshot) model.Outcome {
	token, ok := s.tokens.Token()
	if !ok {
		token = ""
	}

	req, err := BuildRequest(ctx, s.cfg, snap, token)
	if err != nil {
		return model.NetworkError(err.Error())
	}

	s.logger.Debug("submitting form",
		"url", s.cfg.SubmitURL,
		"fields", snap.Len(),
		"forgery_header", ok,
	)

	resp, err := s.client.Do(req)
	if err != nil {
		outcome := model.NetworkError(errorMessage(err))
		s.logger.Debug("submission failed", "url", s.cfg.SubmitURL, "error", err)
		return outcome
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return model.NetworkError(errorMessage(err))
	}

	outcome := Interpret(resp.StatusCode, resp.Status, body)
	s.logger.Debug("submission finished",
		"url", s.cfg.SubmitURL,
		"status_code", resp.StatusCode,
		"outcome", outcome.Status.String(),
	)
	return outcome
}
