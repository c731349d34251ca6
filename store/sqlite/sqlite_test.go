package sqlite_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramsetu/festival-ledger/docstore"
	"github.com/gramsetu/festival-ledger/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// CRUD
// =============================================================================

func TestCreateGet_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "families", docstore.Document{
		"id":       "fam-1",
		"headName": "Sharma",
		"isActive": true,
	})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "families", "fam-1")
	require.NoError(t, err)
	assert.Equal(t, "Sharma", doc.String("headName"))
	assert.True(t, doc.Bool("isActive", false))
	assert.Equal(t, int64(1), doc.Int(docstore.VersionField))
}

func TestCreate_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "accounts", docstore.Document{"id": "org"})
	require.NoError(t, err)

	_, err = store.Create(ctx, "accounts", docstore.Document{"id": "org"})
	assert.ErrorIs(t, err, docstore.ErrDuplicateID)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "families", "nope")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetAll_FilterPushdown(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, doc := range []docstore.Document{
		{"id": "p1", "festivalId": "fest-1", "status": "PAID"},
		{"id": "p2", "festivalId": "fest-1", "status": "UNPAID"},
		{"id": "p3", "festivalId": "fest-2", "status": "PAID"},
	} {
		_, err := store.Create(ctx, "payments", doc)
		require.NoError(t, err)
	}

	docs, err := store.GetAll(ctx, "payments", docstore.Filter{"festivalId": "fest-1"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.GetAll(ctx, "payments", docstore.Filter{"festivalId": "fest-1", "status": "PAID"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "p1", docs[0].String("id"))

	// Boolean filters match documents written with JSON true/false.
	_, err = store.Create(ctx, "families", docstore.Document{"id": "f1", "isActive": true})
	require.NoError(t, err)
	docs, err = store.GetAll(ctx, "families", docstore.Filter{"isActive": true})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestGetAll_RejectsNonIdentifierFilterFields(t *testing.T) {
	// Filter field names end up inside the json_extract path, so anything
	// that is not a plain identifier must be refused, not interpolated.
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "payments", docstore.Document{"id": "p1", "status": "PAID"})
	require.NoError(t, err)

	for _, field := range []string{
		"status') = '' OR ('1'='1",
		"a.b",
		"a b",
		"",
		"1abc",
	} {
		_, err := store.GetAll(ctx, "payments", docstore.Filter{field: "PAID"})
		assert.Error(t, err, "field %q", field)
	}

	// Plain identifiers still work.
	docs, err := store.GetAll(ctx, "payments", docstore.Filter{"status": "PAID"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestUpdate_MergesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "families", docstore.Document{"id": "fam-1", "headName": "Sharma", "phone": "98"})
	require.NoError(t, err)

	doc, err := store.Update(ctx, "families", "fam-1", docstore.Document{"isActive": false})
	require.NoError(t, err)
	assert.False(t, doc.Bool("isActive", true))
	assert.Equal(t, "Sharma", doc.String("headName"), "untouched fields survive the merge")
}

// =============================================================================
// VERSIONED UPDATES
// =============================================================================

func TestUpdateVersioned_ConflictOnStaleVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "accounts", docstore.Document{"id": "org", "balance": "0"})
	require.NoError(t, err)

	doc, err := store.UpdateVersioned(ctx, "accounts", "org", 1, docstore.Document{"balance": "100"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Int(docstore.VersionField))

	// Same expected version again: stale.
	_, err = store.UpdateVersioned(ctx, "accounts", "org", 1, docstore.Document{"balance": "200"})
	assert.ErrorIs(t, err, docstore.ErrVersionConflict)

	current, err := store.Get(ctx, "accounts", "org")
	require.NoError(t, err)
	assert.Equal(t, "100", current.String("balance"))
}

func TestUpdateVersioned_ConcurrentWriters(t *testing.T) {
	// Two writers per read version: exactly one wins each round.
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "accounts", docstore.Document{"id": "org", "n": 0})
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	conflicts := make(chan struct{}, writers*writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				doc, err := store.Get(ctx, "accounts", "org")
				if err != nil {
					return
				}
				n := doc.Int("n")
				_, err = store.UpdateVersioned(ctx, "accounts", "org",
					doc.Int(docstore.VersionField), docstore.Document{"n": n + 1})
				if err == nil {
					return
				}
				conflicts <- struct{}{}
			}
		}()
	}
	wg.Wait()

	doc, err := store.Get(ctx, "accounts", "org")
	require.NoError(t, err)
	assert.Equal(t, int64(writers), doc.Int("n"), "every increment applied exactly once")
}
