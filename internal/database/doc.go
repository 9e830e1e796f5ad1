// Package database provides SQLite-based storage for formbuilder.
//
// The Store keeps two tables:
//   - form_templates: named form definitions, with their fields as JSON
//   - form_submissions: validated payloads, linked to their template
//
// The database is a single file (via modernc.org/sqlite, no CGO) in the
// data directory, opened in WAL mode with a single writer connection.
package database
