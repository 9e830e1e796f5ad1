package report

import (
	"io"
	"maps"
	"slices"

	"github.com/nao1215/formbuilder/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteSubmissions outputs the stored submissions of a template.
	// Returns the number of bytes written and any error encountered.
	WriteSubmissions(report *model.SubmissionReport) (int, error)

	// WriteAttempts outputs the outcomes of a submit run.
	WriteAttempts(attempts []model.Attempt) (int, error)
}

// MultiWriter writes to multiple Writers, for example the terminal and a
// file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteSubmissions outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteSubmissions(report *model.SubmissionReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSubmissions(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAttempts outputs the attempts to all configured Writers.
func (m *MultiWriter) WriteAttempts(attempts []model.Attempt) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAttempts(attempts)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// columns returns the data keys to show for a report: template fields in
// template order, then any other stored keys sorted.
func columns(report *model.SubmissionReport) []string {
	cols := make([]string, 0, len(report.Template.Fields))
	known := make(map[string]bool, len(report.Template.Fields))
	for _, f := range report.Template.Fields {
		cols = append(cols, f.Name)
		known[f.Name] = true
	}

	extra := make(map[string]bool)
	for _, s := range report.Submissions {
		for k := range s.Data {
			if !known[k] {
				extra[k] = true
			}
		}
	}
	return append(cols, slices.Sorted(maps.Keys(extra))...)
}

// countStatuses counts attempts per outcome status.
func countStatuses(attempts []model.Attempt) map[model.Status]int {
	counts := make(map[model.Status]int)
	for _, a := range attempts {
		counts[a.Outcome.Status]++
	}
	return counts
}

// failedCount returns how many attempts ended in a failure outcome.
func failedCount(attempts []model.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.Outcome.Status.Failed() {
			n++
		}
	}
	return n
}
