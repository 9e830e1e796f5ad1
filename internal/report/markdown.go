package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/formbuilder/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports as GitHub Flavored Markdown with tables,
// alerts and mermaid pie charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSubmissions outputs the submissions in Markdown format.
func (w *MarkdownWriter) WriteSubmissions(report *model.SubmissionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeEntries(md, report)
	w.writeCheckboxCharts(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the template summary table and duplicate alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SubmissionReport) {
	md.H1("Submissions: " + report.Template.Name)
	md.PlainText("")

	status := "✅ Active"
	if !report.Template.IsActive {
		status = "⏸️ Inactive"
	}

	rows := [][]string{
		{"Template", "#" + strconv.FormatInt(report.Template.ID, 10)},
		{"Status", status},
		{"Fields", strconv.Itoa(len(report.Template.Fields))},
		{"Submissions", strconv.Itoa(len(report.Submissions))},
		{"Duplicates", strconv.Itoa(report.DuplicateCount())},
	}
	if !report.GeneratedAt.IsZero() {
		rows = append(rows, []string{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if dups := report.DuplicateCount(); dups > 0 {
		md.Warningf("%d submission(s) repeat an earlier payload.", dups)
		md.PlainText("")
	}
}

// writeEntries writes one table row per submission.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, report *model.SubmissionReport) {
	md.H2("Entries")
	md.PlainText("")

	if len(report.Submissions) == 0 {
		md.Note("No submissions yet.")
		md.PlainText("")
		return
	}

	cols := columns(report)
	header := append([]string{"#", "Submitted"}, cols...)

	rows := make([][]string, len(report.Submissions))
	for i, s := range report.Submissions {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatInt(s.ID, 10), s.SubmittedAt.Format("2006-01-02 15:04"))
		for _, col := range cols {
			v, ok := s.Data[col]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, escapeCell(truncateString(formatValue(v), 40)))
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCheckboxCharts writes a pie chart per checkbox field.
func (w *MarkdownWriter) writeCheckboxCharts(md *markdown.Markdown, report *model.SubmissionReport) {
	if len(report.Submissions) == 0 {
		return
	}
	counts := report.CheckboxCounts()
	if len(counts) == 0 {
		return
	}

	md.H2("Checkboxes")
	md.PlainText("")

	for _, f := range report.Template.Fields {
		c, ok := counts[f.Name]
		if !ok {
			continue
		}

		label := f.Label
		if label == "" {
			label = f.Name
		}
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle(label),
			piechart.WithShowData(true),
		)
		if c[0] > 0 {
			chart.LabelAndIntValue("Checked", uint64(c[0]))
		}
		if c[1] > 0 {
			chart.LabelAndIntValue("Unchecked", uint64(c[1]))
		}

		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// WriteAttempts outputs submit results in Markdown format.
func (w *MarkdownWriter) WriteAttempts(attempts []model.Attempt) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Submission Results")
	md.PlainText("")

	rows := make([][]string, len(attempts))
	for i, a := range attempts {
		rows[i] = []string{
			"`" + a.Page + "`",
			statusLabel(a.Outcome.Status),
			escapeCell(truncateString(a.Outcome.Message, 80)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Status", "Message"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(attempts) > 1 {
		counts := countStatuses(attempts)
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Outcomes"),
			piechart.WithShowData(true),
		)
		for _, s := range terminalStatuses {
			if counts[s] > 0 {
				chart.LabelAndIntValue(s.String(), uint64(counts[s]))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	if failed := failedCount(attempts); failed > 0 {
		md.Cautionf("%d of %d submission(s) failed.", failed, len(attempts))
	} else {
		md.Tip("All submissions were saved.")
	}
	md.PlainText("")

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusSuccess:
		return "✅ " + s.String()
	case model.StatusPending:
		return "⏳ " + s.String()
	default:
		return "❌ " + s.String()
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [formbuilder](https://github.com/nao1215/formbuilder)*")
}

// escapeCell keeps a value from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
