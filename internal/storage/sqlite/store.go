// Package sqlite provides the durable storage backend. Metadata and chat
// history live in one SQLite file opened in WAL mode; schema changes ship
// as embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
	"github.com/Divyansh-Atri/pdf-query/internal/storage"
	"github.com/Divyansh-Atri/pdf-query/internal/storage/sqlite/migrations"
)

// Store is a SQLite-backed implementation of storage.Store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database under dataDir and applies any
// pending migrations.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pdfquery.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Documents() storage.DocumentStore { return &documentStore{db: s.db} }
func (s *Store) History() storage.HistoryStore    { return &historyStore{db: s.db} }

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

type documentStore struct {
	db *sql.DB
}

func (s *documentStore) Create(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, page_count, file_size, status, failure_reason, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.PageCount, doc.FileSize,
		string(doc.Status), doc.FailureReason, doc.UploadedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *documentStore) Get(ctx context.Context, id string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, page_count, file_size, status, failure_reason, uploaded_at
		FROM documents WHERE id = ?`, id)
	return scanDocument(row, id)
}

func (s *documentStore) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, page_count, file_size, status, failure_reason, uploaded_at
		FROM documents ORDER BY uploaded_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var doc domain.Document
		var status string
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.PageCount, &doc.FileSize,
			&status, &doc.FailureReason, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Status = domain.IngestionStatus(status)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *documentStore) Update(ctx context.Context, doc domain.Document) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET filename = ?, page_count = ?, file_size = ?, status = ?, failure_reason = ?, uploaded_at = ?
		WHERE id = ?`,
		doc.Filename, doc.PageCount, doc.FileSize, string(doc.Status),
		doc.FailureReason, doc.UploadedAt.UTC(), doc.ID)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return requireAffected(result, doc.ID)
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(result, id)
}

func scanDocument(row *sql.Row, id string) (domain.Document, error) {
	var doc domain.Document
	var status string
	err := row.Scan(&doc.ID, &doc.Filename, &doc.PageCount, &doc.FileSize,
		&status, &doc.FailureReason, &doc.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("scanning document: %w", err)
	}
	doc.Status = domain.IngestionStatus(status)
	return doc, nil
}

func requireAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

type historyStore struct {
	db *sql.DB
}

func (s *historyStore) Append(ctx context.Context, record domain.QARecord) error {
	if record.DocumentID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (document_id, question, answer, created_at)
		VALUES (?, ?, ?, ?)`,
		record.DocumentID, record.Question, record.Answer, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

func (s *historyStore) List(ctx context.Context, documentID string) ([]domain.QARecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, question, answer, created_at
		FROM chat_history WHERE document_id = ? ORDER BY id ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.QARecord, 0)
	for rows.Next() {
		var record domain.QARecord
		if err := rows.Scan(&record.DocumentID, &record.Question, &record.Answer, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *historyStore) Purge(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_history WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("purging history: %w", err)
	}
	return nil
}
