package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/formbuilder/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent       bool
	indentPrefix string
	indentString string

	// version, when set, wraps output in an envelope carrying it.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps every document in an Envelope with the given version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Envelope is the versioned wrapper written when WithVersion is used.
type Envelope struct {
	// Version is the formbuilder version that generated the document.
	Version string `json:"version"`

	Report   *model.SubmissionReport `json:"report,omitempty"`
	Attempts []model.Attempt         `json:"attempts,omitempty"`

	// Duplicates is the number of submissions repeating an earlier payload.
	Duplicates int `json:"duplicates,omitempty"`
}

// WriteSubmissions outputs the report in JSON format.
func (w *JSONWriter) WriteSubmissions(report *model.SubmissionReport) (int, error) {
	if w.version != "" {
		return w.writeJSON(&Envelope{
			Version:    w.version,
			Report:     report,
			Duplicates: report.DuplicateCount(),
		})
	}
	return w.writeJSON(report)
}

// WriteAttempts outputs the attempts as a JSON array.
func (w *JSONWriter) WriteAttempts(attempts []model.Attempt) (int, error) {
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	if w.version != "" {
		return w.writeJSON(&Envelope{Version: w.version, Attempts: attempts})
	}
	return w.writeJSON(attempts)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
