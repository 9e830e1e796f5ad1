package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/formbuilder/internal/model"
)

// FileName is the database file created in the data directory.
const FileName = "formbuilder.db"

// ErrNotFound is returned when a template does not exist or is inactive.
var ErrNotFound = errors.New("not found")

// Store provides SQLite-based storage for form templates and their
// submissions.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the
	// writer while the server is handling submissions.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the Store in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS form_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		fields TEXT NOT NULL,
		created_at TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_templates_created ON form_templates(created_at);

	CREATE TABLE IF NOT EXISTS form_submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL REFERENCES form_templates(id) ON DELETE CASCADE,
		data TEXT NOT NULL,
		payload_hash TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_template ON form_submissions(template_id);
	CREATE INDEX IF NOT EXISTS idx_submissions_hash ON form_submissions(payload_hash);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// CreateTemplate inserts tpl and sets its ID. A zero CreatedAt is set to
// the current time.
func (s *Store) CreateTemplate(ctx context.Context, tpl *model.Template) error {
	fieldsJSON, err := json.Marshal(tpl.Fields)
	if err != nil {
		return fmt.Errorf("failed to serialize fields: %w", err)
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO form_templates (name, fields, created_at, is_active) VALUES (?, ?, ?, ?)`,
		tpl.Name, string(fieldsJSON), formatTimestamp(tpl.CreatedAt), tpl.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}

	tpl.ID, err = result.LastInsertId()
	return err
}

// UpsertTemplate replaces the fields of the template called name, or
// creates an active template when there is none. created reports which
// happened.
func (s *Store) UpsertTemplate(ctx context.Context, name string, fields []model.FieldSpec) (tpl *model.Template, created bool, err error) {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, false, fmt.Errorf("failed to serialize fields: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM form_templates WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		result, execErr := tx.ExecContext(ctx,
			`INSERT INTO form_templates (name, fields, created_at, is_active) VALUES (?, ?, ?, 1)`,
			name, string(fieldsJSON), formatTimestamp(time.Now().UTC()),
		)
		if execErr != nil {
			return nil, false, fmt.Errorf("failed to insert template: %w", execErr)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("failed to look up template: %w", err)
	default:
		if _, err = tx.ExecContext(ctx, `UPDATE form_templates SET fields = ? WHERE id = ?`, string(fieldsJSON), id); err != nil {
			return nil, false, fmt.Errorf("failed to update template: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit template: %w", err)
	}

	tpl, err = s.GetTemplate(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return tpl, created, nil
}

const templateColumns = `id, name, fields, created_at, is_active`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var (
		tpl        model.Template
		fieldsJSON string
		createdAt  string
	)
	if err := row.Scan(&tpl.ID, &tpl.Name, &fieldsJSON, &createdAt, &tpl.IsActive); err != nil {
		return nil, err
	}
	tpl.CreatedAt = parseTimestamp(createdAt)
	if err := json.Unmarshal([]byte(fieldsJSON), &tpl.Fields); err != nil {
		return nil, fmt.Errorf("failed to parse fields of template %d: %w", tpl.ID, err)
	}
	return &tpl, nil
}

// GetTemplate retrieves a template by ID regardless of its active flag.
func (s *Store) GetTemplate(ctx context.Context, id int64) (*model.Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM form_templates WHERE id = ?`, id)
	tpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// GetActiveTemplate retrieves a template that may receive submissions.
// Missing and inactive templates both yield ErrNotFound.
func (s *Store) GetActiveTemplate(ctx context.Context, id int64) (*model.Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM form_templates WHERE id = ? AND is_active = 1`, id)
	tpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active template %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

// ListTemplates returns templates newest first. With activeOnly set,
// inactive templates are left out.
func (s *Store) ListTemplates(ctx context.Context, activeOnly bool) ([]*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM form_templates`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}

// SetTemplateActive enables or disables a template.
func (s *Store) SetTemplateActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE form_templates SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertSubmission stores sub and sets its ID.
func (s *Store) InsertSubmission(ctx context.Context, sub *model.Submission) error {
	dataJSON, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("failed to serialize submission: %w", err)
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	if sub.PayloadHash == "" {
		if sub.PayloadHash, err = model.HashPayload(sub.Data); err != nil {
			return fmt.Errorf("failed to hash submission: %w", err)
		}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO form_submissions (template_id, data, payload_hash, submitted_at) VALUES (?, ?, ?, ?)`,
		sub.TemplateID, string(dataJSON), sub.PayloadHash, formatTimestamp(sub.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	sub.ID, err = result.LastInsertId()
	return err
}

// ListSubmissions returns the submissions of a template, oldest first.
func (s *Store) ListSubmissions(ctx context.Context, templateID int64) ([]*model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, template_id, data, payload_hash, submitted_at
	FROM form_submissions
	WHERE template_id = ?
	ORDER BY submitted_at, id
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		var (
			sub         model.Submission
			dataJSON    string
			submittedAt string
		)
		if err := rows.Scan(&sub.ID, &sub.TemplateID, &dataJSON, &sub.PayloadHash, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.SubmittedAt = parseTimestamp(submittedAt)
		if err := json.Unmarshal([]byte(dataJSON), &sub.Data); err != nil {
			continue // Skip malformed rows
		}
		submissions = append(submissions, &sub)
	}

	return submissions, rows.Err()
}

// CountSubmissions returns the number of submissions stored for a template.
func (s *Store) CountSubmissions(ctx context.Context, templateID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM form_submissions WHERE template_id = ?`, templateID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// formatTimestamp writes t in a form that sorts lexically in time order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z", // formatTimestamp
	"2006-01-02 15:04:05",            // SQLite default datetime format
	"2006-01-02T15:04:05Z",           // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",            // ISO 8601 without timezone
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
