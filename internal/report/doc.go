// Package report writes stored submissions and submit results.
//
// Writers for three formats implement the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON for other tools, optionally in a versioned envelope
//   - MarkdownWriter: tables, alerts and a mermaid pie chart per checkbox
//
// MultiWriter sends the same report to several writers.
package report
