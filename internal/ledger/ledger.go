package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status records the outcome of one document's ingestion.
type Status string

const (
	StatusIngested Status = "ingested"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Document is one row of the ingestion ledger.
type Document struct {
	ID        string
	UserID    string
	Domain    string
	Path      string
	Status    Status
	Chunks    int
	Figures   int
	Tables    int
	Error     string
	CreatedAt time.Time
}

// Ledger tracks ingested documents in SQLite.
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger database at the given path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging ledger: %w", err)
	}

	l := &Ledger{db: sqlDB}
	if err := l.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}
	return l, nil
}

// OpenMemory creates an in-memory ledger (useful for testing).
func OpenMemory() (*Ledger, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory ledger: %w", err)
	}
	l := &Ledger{db: sqlDB}
	if err := l.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			domain     TEXT NOT NULL DEFAULT '',
			path       TEXT NOT NULL,
			status     TEXT NOT NULL,
			chunks     INTEGER NOT NULL DEFAULT 0,
			figures    INTEGER NOT NULL DEFAULT 0,
			tables     INTEGER NOT NULL DEFAULT 0,
			error      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);
	`)
	return err
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one document row.
func (l *Ledger) Record(ctx context.Context, doc Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, domain, path, status, chunks, figures, tables, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Domain, doc.Path, string(doc.Status),
		doc.Chunks, doc.Figures, doc.Tables, doc.Error, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", doc.Path, err)
	}
	return nil
}

// ListByUser returns the user's ledger rows, newest first.
func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, domain, path, status, chunks, figures, tables, error, created_at
		FROM documents WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var status string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Domain, &d.Path, &status,
			&d.Chunks, &d.Figures, &d.Tables, &d.Error, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		d.Status = Status(status)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
