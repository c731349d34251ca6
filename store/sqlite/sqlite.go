/*
Package sqlite provides the SQLite-backed implementation of docstore.Store.

PURPOSE:
  Persists every collection in a single documents table keyed by
  (collection, id) with a JSON body and an integer version column.
  In production the same patterns apply to PostgreSQL with jsonb -
  only minor SQL dialect differences.

SCHEMA:
  documents(collection, id, version, body, created_at, updated_at)

VERSIONED UPDATES:
  UpdateVersioned issues UPDATE ... WHERE version = ?, so the conditional
  check and the write are one statement. A zero rows-affected result is
  disambiguated into ErrNotFound vs ErrVersionConflict by re-reading.

FILTERS:
  Equality filters are pushed down with json_extract(body, '$.field').
  Collections here are small (village scale); no per-field indexes.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/festival.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - docstore: Interface definition
  - docstore/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gramsetu/festival-ledger/docstore"
)

// Store implements docstore.Store using SQLite.
type Store struct {
	db *sql.DB
}

// fieldNamePattern restricts filter field names to plain identifiers.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent recorders.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		version    INTEGER NOT NULL DEFAULT 1,
		body       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	var body string
	var version int64
	if err := row.Scan(&body, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeDocument(body, version)
}

func (s *Store) GetAll(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	query := `SELECT body, version FROM documents WHERE collection = ?`
	args := []any{collection}

	var clauses []string
	for field, value := range filter {
		// The field name is interpolated into the json path, so it must
		// never carry anything but a plain identifier.
		if !fieldNamePattern.MatchString(field) {
			return nil, fmt.Errorf("query %s: invalid filter field %q", collection, field)
		}
		clauses = append(clauses, fmt.Sprintf("json_extract(body, '$.%s') = ?", field))
		args = append(args, bindValue(value))
	}
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var result []docstore.Document
	for rows.Next() {
		var body string
		var version int64
		if err := rows.Scan(&body, &version); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(body, version)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

// bindValue converts a filter value to what json_extract yields.
// JSON booleans extract as 0/1 integers.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) Create(ctx context.Context, collection string, doc docstore.Document) (docstore.Document, error) {
	id := doc.String("id")
	if id == "" {
		return nil, fmt.Errorf("create in %s: document has no id", collection)
	}

	body, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, version, body, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)`,
		collection, id, body, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, docstore.ErrDuplicateID
		}
		return nil, fmt.Errorf("create %s/%s: %w", collection, id, err)
	}

	stored := doc.Clone()
	stored[docstore.VersionField] = int64(1)
	return stored, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Document) (docstore.Document, error) {
	return s.merge(ctx, collection, id, fields, nil)
}

func (s *Store) UpdateVersioned(ctx context.Context, collection, id string, expectedVersion int64, fields docstore.Document) (docstore.Document, error) {
	return s.merge(ctx, collection, id, fields, &expectedVersion)
}

func (s *Store) merge(ctx context.Context, collection, id string, fields docstore.Document, expectedVersion *int64) (docstore.Document, error) {
	current, err := s.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && current.Int(docstore.VersionField) != *expectedVersion {
		return nil, docstore.ErrVersionConflict
	}

	merged := current.Clone()
	for k, v := range fields {
		if k == docstore.VersionField || k == "id" {
			continue
		}
		merged[k] = v
	}

	body, err := encodeDocument(merged)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var res sql.Result
	if expectedVersion != nil {
		// Conditional check and write in one statement.
		res, err = s.db.ExecContext(ctx,
			`UPDATE documents SET body = ?, version = version + 1, updated_at = ?
			 WHERE collection = ? AND id = ? AND version = ?`,
			body, now, collection, id, *expectedVersion)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE documents SET body = ?, updated_at = ?
			 WHERE collection = ? AND id = ?`,
			body, now, collection, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Row vanished or another writer bumped the version between our
		// read and the update.
		if _, getErr := s.Get(ctx, collection, id); getErr != nil {
			return nil, getErr
		}
		return nil, docstore.ErrVersionConflict
	}

	if expectedVersion != nil {
		merged[docstore.VersionField] = *expectedVersion + 1
	}
	return merged, nil
}

// =============================================================================
// ENCODING
// =============================================================================

// encodeDocument marshals everything except the store-managed version field.
func encodeDocument(doc docstore.Document) (string, error) {
	payload := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == docstore.VersionField {
			continue
		}
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decodeDocument(body string, version int64) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc[docstore.VersionField] = version
	return doc, nil
}
