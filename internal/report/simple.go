package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/formbuilder/internal/model"
)

// terminalStatuses lists the outcome kinds in display order.
var terminalStatuses = []model.Status{
	model.StatusSuccess,
	model.StatusRejected,
	model.StatusServerError,
	model.StatusNetworkError,
}

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds payload hashes to submission listings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteSubmissions outputs the submissions in human-readable format.
func (w *SimpleWriter) WriteSubmissions(report *model.SubmissionReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSubmissions(&sb, report)
	w.writeCheckboxes(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the template information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SubmissionReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "SUBMISSIONS: %s\n", report.Template.Name)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	status := "active"
	if !report.Template.IsActive {
		status = "inactive"
	}

	fmt.Fprintf(sb, "Template:     #%d %s (%s)\n", report.Template.ID, report.Template.Name, status)
	fmt.Fprintf(sb, "Fields:       %d\n", len(report.Template.Fields))
	fmt.Fprintf(sb, "Submissions:  %d\n", len(report.Submissions))
	fmt.Fprintf(sb, "Duplicates:   %d\n", report.DuplicateCount())
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(sb, "Generated:    %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")
}

// writeSubmissions lists every submission with its values.
func (w *SimpleWriter) writeSubmissions(sb *strings.Builder, report *model.SubmissionReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ENTRIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Submissions) == 0 {
		sb.WriteString("  No submissions\n\n")
		return
	}

	cols := columns(report)
	for _, s := range report.Submissions {
		fmt.Fprintf(sb, "  [#%d] %s\n", s.ID, s.SubmittedAt.Format("2006-01-02 15:04:05 MST"))
		if w.verbose {
			fmt.Fprintf(sb, "    hash: %s\n", s.PayloadHash)
		}
		for _, col := range cols {
			v, ok := s.Data[col]
			if !ok {
				continue
			}
			fmt.Fprintf(sb, "    %s: %s\n", col, formatValue(v))
		}
		sb.WriteString("\n")
	}
}

// writeCheckboxes summarises checkbox fields.
func (w *SimpleWriter) writeCheckboxes(sb *strings.Builder, report *model.SubmissionReport) {
	counts := report.CheckboxCounts()
	if len(counts) == 0 || len(report.Submissions) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CHECKBOXES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range report.Template.Fields {
		c, ok := counts[f.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "  %s: %d checked, %d unchecked\n", f.Name, c[0], c[1])
	}
	sb.WriteString("\n")
}

// WriteAttempts outputs one line per page and a summary.
func (w *SimpleWriter) WriteAttempts(attempts []model.Attempt) (int, error) {
	var sb strings.Builder

	for _, a := range attempts {
		fmt.Fprintf(&sb, "[%s] %s\n", a.Outcome.Status, a.Page)
		fmt.Fprintf(&sb, "    %s\n", a.Outcome.Message)
	}

	counts := countStatuses(attempts)
	parts := make([]string, 0, len(terminalStatuses))
	for _, s := range terminalStatuses {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	fmt.Fprintf(&sb, "\n%d submitted", len(attempts))
	if len(parts) > 0 {
		fmt.Fprintf(&sb, ": %s", strings.Join(parts, ", "))
	}
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by formbuilder\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// formatValue renders a stored value on one line.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return `""`
		}
		return t
	case bool, float64, int64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
