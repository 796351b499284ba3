package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iksnae/agentroom/internal"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS memory_collections (
		name TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS memory_documents (
		collection TEXT NOT NULL REFERENCES memory_collections(name) ON DELETE CASCADE ON UPDATE CASCADE,
		id TEXT NOT NULL,
		document TEXT NOT NULL,
		metadata BLOB,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
}

// SQLiteStore keeps collections in the application database
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates the memory tables if needed. The caller owns db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := internal.Migrate(db, sqliteSchema...); err != nil {
		return nil, &internal.MemoryError{Op: "open", Err: err}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// GetOrCreate returns the named collection, creating it if needed
func (s *SQLiteStore) GetOrCreate(ctx context.Context, name string) (Collection, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_collections (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, s.now().Unix())
	if err != nil {
		return nil, &internal.MemoryError{Collection: name, Op: "open", Err: err}
	}
	return &sqliteCollection{store: s, name: name}, nil
}

// Collections lists collection names alphabetically
func (s *SQLiteStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM memory_collections ORDER BY name`)
	if err != nil {
		return nil, &internal.MemoryError{Op: "list", Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &internal.MemoryError{Op: "list", Err: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a collection and its documents
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memory_collections WHERE name = ?`, name)
	if err != nil {
		return &internal.MemoryError{Collection: name, Op: "delete", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal.MemoryError{Collection: name, Op: "delete", Err: ErrCollectionNotFound}
	}
	return nil
}

// Rename moves a collection and its documents to a new name
func (s *SQLiteStore) Rename(ctx context.Context, oldName, newName string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_collections WHERE name = ?`, newName).Scan(&exists)
	if err != nil {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: err}
	}
	if exists > 0 {
		return &internal.MemoryError{Collection: newName, Op: "rename", Err: ErrCollectionExists}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE memory_collections SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &internal.MemoryError{Collection: oldName, Op: "rename", Err: ErrCollectionNotFound}
	}
	return nil
}

// Close is a no-op; the database belongs to the caller
func (s *SQLiteStore) Close() error {
	return nil
}

type sqliteCollection struct {
	store *SQLiteStore
	name  string
}

func (c *sqliteCollection) Name() string {
	return c.name
}

func (c *sqliteCollection) Upsert(ctx context.Context, id, doc string, meta map[string]string) error {
	blob, err := encodeMeta(meta)
	if err != nil {
		return &internal.MemoryError{Collection: c.name, Op: "upsert", Err: fmt.Errorf("failed to encode metadata: %w", err)}
	}
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO memory_documents (collection, id, document, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		c.name, id, doc, blob, c.store.now().Unix())
	if err != nil {
		return &internal.MemoryError{Collection: c.name, Op: "upsert", Err: err}
	}
	return nil
}

func (c *sqliteCollection) Query(ctx context.Context, text string, k int) ([]Document, error) {
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT id, document, metadata FROM memory_documents WHERE collection = ? ORDER BY updated_at, id`, c.name)
	if err != nil {
		return nil, &internal.MemoryError{Collection: c.name, Op: "query", Err: err}
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc  Document
			blob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &blob); err != nil {
			return nil, &internal.MemoryError{Collection: c.name, Op: "query", Err: err}
		}
		if doc.Meta, err = decodeMeta(blob); err != nil {
			internal.LogDebug("Ignoring unreadable metadata on %s/%s: %v", c.name, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &internal.MemoryError{Collection: c.name, Op: "query", Err: err}
	}
	return rank(docs, text, k), nil
}

func (c *sqliteCollection) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_documents WHERE collection = ?`, c.name).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, &internal.MemoryError{Collection: c.name, Op: "count", Err: err}
	}
	return n, nil
}
