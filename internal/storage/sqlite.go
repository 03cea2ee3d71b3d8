// SQLite implementation of Store for corpora too large to re-export as JSON
// on every run.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hiro0218/kanren/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		tags TEXT NOT NULL,
		date TEXT,
		updated TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(date);
	`
	_, err := db.Exec(schema)
	return err
}

// ImportDocuments replaces the stored corpus with docs in one transaction.
func (s *SQLiteStore) ImportDocuments(ctx context.Context, docs []models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	for _, doc := range docs {
		tagsJSON, err := json.Marshal(doc.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags for %s: %w", doc.Slug, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (slug, title, content, tags, date, updated)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			doc.Slug, doc.Title, doc.Content, string(tagsJSON), doc.Date, doc.Updated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", doc.Slug, err)
		}
	}
	return tx.Commit()
}

// Documents returns the full corpus ordered by slug.
func (s *SQLiteStore) Documents(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, title, content, tags, date, updated FROM documents ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		var tagsJSON string
		if err := rows.Scan(&doc.Slug, &doc.Title, &doc.Content, &tagsJSON, &doc.Date, &doc.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if tagsJSON != "" {
			if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tags for %s: %w", doc.Slug, err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// TagIndex derives the tag index from the stored documents.
func (s *SQLiteStore) TagIndex(ctx context.Context) (models.TagIndex, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveTagIndex(docs), nil
}

// CountDocuments returns the number of stored documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
