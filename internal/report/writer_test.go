package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/formbuilder/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport(t *testing.T) *model.SubmissionReport {
	t.Helper()

	report := &model.SubmissionReport{
		Template: model.Template{
			ID:       3,
			Name:     "Newsletter",
			IsActive: true,
			Fields: []model.FieldSpec{
				{Name: "name"},
				{Name: "subscribe", Type: model.FieldCheckbox, Label: "Subscribe"},
			},
		},
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	payloads := []map[string]any{
		{"name": "Ann", "subscribe": true},
		{"name": "Bob | Co", "subscribe": false},
		{"name": "Ann", "subscribe": true},
		{"name": "Cy", "subscribe": true, "legacy": "x"},
	}
	for i, p := range payloads {
		sub, err := model.NewSubmission(report.Template.ID, p)
		if err != nil {
			t.Fatalf("failed to create submission: %v", err)
		}
		sub.ID = int64(i + 1)
		sub.SubmittedAt = time.Date(2024, 2, i+1, 9, 0, 0, 0, time.UTC)
		report.Submissions = append(report.Submissions, sub)
	}

	return report
}

func createTestAttempts() []model.Attempt {
	return []model.Attempt{
		{Page: "http://127.0.0.1:8000/forms/1/", Outcome: model.Success()},
		{Page: "http://127.0.0.1:8000/forms/2/", Outcome: model.ValidationErrors(`{"email":["Enter a valid email address."]}`)},
		{Page: "http://127.0.0.1:8000/forms/3/", Outcome: model.NetworkError("connection refused")},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes submissions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSubmissions(createTestReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"SUBMISSIONS: Newsletter",
			"Template:     #3 Newsletter (active)",
			"Submissions:  4",
			"Duplicates:   1",
			"[#2] 2024-02-02 09:00:00 UTC",
			"    name: Bob | Co",
			"    legacy: x",
			"  subscribe: 3 checked, 1 unchecked",
			"Report generated by formbuilder",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "hash:") {
			t.Error("hashes should only be shown in verbose mode")
		}
	})

	t.Run("verbose shows hashes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport(t)
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).WriteSubmissions(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "hash: "+report.Submissions[0].PayloadHash) {
			t.Error("expected payload hash in verbose output")
		}
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := &model.SubmissionReport{Template: model.Template{ID: 1, Name: "Empty"}}
		if _, err := NewSimpleWriter(&buf).WriteSubmissions(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No submissions") {
			t.Error("expected empty notice")
		}
		if !strings.Contains(output, "(inactive)") {
			t.Error("expected inactive status")
		}
		if strings.Contains(output, "CHECKBOXES") {
			t.Error("checkbox section should be omitted without submissions")
		}
	})

	t.Run("writes attempts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteAttempts(createTestAttempts()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"[success] http://127.0.0.1:8000/forms/1/",
			"    Thanks — submission saved.",
			`    Errors: {"email":["Enter a valid email address."]}`,
			"[network-error] http://127.0.0.1:8000/forms/3/",
			"3 submitted: 1 success, 1 server-error, 1 network-error",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes submissions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteSubmissions(createTestReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded struct {
			Template    model.Template `json:"template"`
			Submissions []struct {
				ID          int64          `json:"id"`
				Data        map[string]any `json:"data"`
				PayloadHash string         `json:"payload_hash"`
			} `json:"submissions"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Template.Name != "Newsletter" || len(decoded.Submissions) != 4 {
			t.Errorf("unexpected document: %+v", decoded)
		}
		if decoded.Submissions[0].Data["subscribe"] != true {
			t.Errorf("unexpected data %v", decoded.Submissions[0].Data)
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("writes attempts as array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteAttempts(createTestAttempts()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		outcome, _ := decoded[2]["outcome"].(map[string]any)
		if outcome["status"] != "network-error" || outcome["message"] != "Network error: connection refused" {
			t.Errorf("unexpected outcome %v", outcome)
		}
	})

	t.Run("empty attempts is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteAttempts(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("expected [], got %q", buf.String())
		}
	})

	t.Run("pretty print and version envelope", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3"))
		if _, err := w.WriteSubmissions(createTestReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"version\": \"1.2.3\"") {
			t.Errorf("expected indented version field:\n%s", buf.String())
		}
		var env struct {
			Version    string `json:"version"`
			Duplicates int    `json:"duplicates"`
		}
		if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if env.Duplicates != 1 {
			t.Errorf("expected 1 duplicate, got %d", env.Duplicates)
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent("", "\t")).WriteAttempts(createTestAttempts()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t{") {
			t.Errorf("expected tab indentation:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes submissions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSubmissions(createTestReport(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Submissions: Newsletter",
			"## Entries",
			"Bob",
			"[!WARNING]",
			"## Checkboxes",
			"```mermaid",
			"pie",
			"Subscribe",
			"formbuilder",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := &model.SubmissionReport{Template: model.Template{ID: 1, Name: "Empty", IsActive: true}}
		if _, err := NewMarkdownWriter(&buf).WriteSubmissions(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No submissions yet.") {
			t.Error("expected empty notice")
		}
		if strings.Contains(output, "mermaid") {
			t.Error("no chart expected without submissions")
		}
	})

	t.Run("writes attempts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteAttempts(createTestAttempts()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Submission Results",
			"✅ success",
			"❌ network-error",
			"[!CAUTION]",
			"2 of 3 submission(s) failed.",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("all saved", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		attempts := []model.Attempt{{Page: "http://example.com/", Outcome: model.Success()}}
		if _, err := NewMarkdownWriter(&buf).WriteAttempts(attempts); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Errorf("expected tip alert:\n%s", buf.String())
		}
	})
}

// failingWriter always fails.
type failingWriter struct{}

func (failingWriter) WriteSubmissions(*model.SubmissionReport) (int, error) {
	return 0, errors.New("write failed")
}

func (failingWriter) WriteAttempts([]model.Attempt) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := m.WriteAttempts(createTestAttempts())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))

		if _, err := m.WriteSubmissions(createTestReport(t)); err == nil {
			t.Error("expected error")
		}
		if buf.Len() != 0 {
			t.Error("later writers should not run after an error")
		}
	})
}

// TestTruncateString tests rune-aware truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"—————", 4, "—..."},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
