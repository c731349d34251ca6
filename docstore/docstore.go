/*
Package docstore defines the document persistence interface for the
festival-ledger engine.

PURPOSE:
  All entities (families, festivals, payments, expenses, the account and its
  transactions) are persisted as schemaless documents in named collections.
  This package defines the interface between domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY TYPES:
  Document: A loosely-typed key/value map, the unit of persistence.
  Filter:   Equality conditions applied server-side by GetAll.
  Store:    get/getAll/create/update plus a version-conditioned update.

VERSIONED UPDATES:
  The account document is shared by concurrent writers. UpdateVersioned writes
  only if the stored version still matches the one the caller read, and bumps
  it on success. A mismatch returns ErrVersionConflict so the caller can
  re-read and retry. Plain Update never touches the version column and is
  reserved for documents with a single writer.

IMPLEMENTATIONS:
  - store/sqlite:  Production SQLite store (JSON body per document)
  - docstore/memory: In-memory store for testing/dev

SEE ALSO:
  - ledger: Uses Account/Transaction collections
  - festival: Read-only consumer of the entity collections
*/
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Collection names used across the application.
const (
	CollectionFamilies     = "families"
	CollectionFestivals    = "festivals"
	CollectionPayments     = "payments"
	CollectionExpenses     = "expenses"
	CollectionAccounts     = "accounts"
	CollectionTransactions = "transactions"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a document id does not exist in a collection.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateID is returned by Create when the id already exists.
	// Callers doing get-or-create treat this as "someone else won the race".
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrVersionConflict is returned by UpdateVersioned when the stored
	// version no longer matches the expected one.
	ErrVersionConflict = errors.New("document version conflict")
)

// =============================================================================
// DOCUMENT - Loosely-typed persisted shape
// =============================================================================

// Document is the persisted shape of every entity: a key/value map.
// Typed accessors below default deterministically on missing or
// wrongly-typed fields; domain packages build entities through them.
type Document map[string]any

// Clone returns a shallow copy. Stores hand out clones so callers cannot
// mutate persisted state through a returned map.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String returns the field as a string, or "" when absent.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Bool returns the field as a bool. Absent or non-bool values return the
// given default (the observed store behavior: missing isActive means true).
func (d Document) Bool(field string, def bool) bool {
	b, ok := d[field].(bool)
	if !ok {
		return def
	}
	return b
}

// Int returns the field as an int64, accepting the numeric shapes a JSON
// round-trip produces. Absent or non-numeric values return 0.
func (d Document) Int(field string) int64 {
	switch v := d[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Decimal returns the field as a decimal. Amounts are stored as strings to
// avoid float drift; numeric values are accepted for documents written by
// earlier versions. Absent or unparsable values return zero.
func (d Document) Decimal(field string) decimal.Decimal {
	switch v := d[field].(type) {
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return dec
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case decimal.Decimal:
		return v
	default:
		return decimal.Zero
	}
}

// Time returns the field parsed as RFC3339 (fractional seconds accepted),
// or the zero time when absent or malformed.
func (d Document) Time(field string) time.Time {
	switch v := d[field].(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	case time.Time:
		return v
	default:
		return time.Time{}
	}
}

// =============================================================================
// FILTER - Server-side equality match
// =============================================================================

// Filter restricts GetAll to documents whose fields equal the given values.
// A nil or empty filter matches every document in the collection.
type Filter map[string]any

// Matches reports whether the document satisfies every condition.
// Comparison is on the JSON-normalized representation of both sides.
func (f Filter) Matches(doc Document) bool {
	for field, want := range f {
		if normalize(doc[field]) != normalize(want) {
			return false
		}
	}
	return true
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return v
	}
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store is the document persistence contract.
//
// Every returned Document is a copy; mutating it never affects stored state.
// Get and Update return ErrNotFound for unknown ids. Create requires an "id"
// field and returns ErrDuplicateID when it is taken.
type Store interface {
	// Get returns the document with the given id.
	Get(ctx context.Context, collection, id string) (Document, error)

	// GetAll returns every document matching the filter, in unspecified order.
	GetAll(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// Create persists a new document and returns it as stored
	// (with version initialized to 1).
	Create(ctx context.Context, collection string, doc Document) (Document, error)

	// Update merges the given fields into an existing document and returns
	// the result. The version column is left untouched.
	Update(ctx context.Context, collection, id string, fields Document) (Document, error)

	// UpdateVersioned merges fields only if the stored version equals
	// expectedVersion, bumping the version by one. Returns ErrVersionConflict
	// when another writer got there first.
	UpdateVersioned(ctx context.Context, collection, id string, expectedVersion int64, fields Document) (Document, error)
}

// VersionField is the reserved document field managed by the store.
const VersionField = "version"
