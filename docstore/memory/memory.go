// Package memory provides an in-memory docstore.Store implementation
// for testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gramsetu/festival-ledger/docstore"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]docstore.Document
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]docstore.Document)}
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) GetAll(_ context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []docstore.Document
	for _, doc := range s.collections[collection] {
		if filter.Matches(doc) {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}

func (s *Store) Create(_ context.Context, collection string, doc docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := doc.String("id")
	if id == "" {
		return nil, fmt.Errorf("create in %s: document has no id", collection)
	}
	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]docstore.Document)
		s.collections[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, docstore.ErrDuplicateID
	}

	stored := doc.Clone()
	stored[docstore.VersionField] = int64(1)
	coll[id] = stored
	return stored.Clone(), nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeLocked(collection, id, fields, nil)
}

func (s *Store) UpdateVersioned(_ context.Context, collection, id string, expectedVersion int64, fields docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeLocked(collection, id, fields, &expectedVersion)
}

// mergeLocked merges fields into the stored document. When expectedVersion is
// non-nil, the merge is conditioned on it and bumps the version on success.
func (s *Store) mergeLocked(collection, id string, fields docstore.Document, expectedVersion *int64) (docstore.Document, error) {
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	if expectedVersion != nil && doc.Int(docstore.VersionField) != *expectedVersion {
		return nil, docstore.ErrVersionConflict
	}

	updated := doc.Clone()
	for k, v := range fields {
		if k == docstore.VersionField || k == "id" {
			continue
		}
		updated[k] = v
	}
	if expectedVersion != nil {
		updated[docstore.VersionField] = *expectedVersion + 1
	}
	s.collections[collection][id] = updated
	return updated.Clone(), nil
}
