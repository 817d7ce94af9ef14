package memstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/chonlathan-cloud/lineoa-public-mirror/docstore"
)

// Store is an in-memory docstore.Store for tests and single-instance local
// runs. All operations are guarded by one RWMutex, which also makes Update
// atomic per key.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]docstore.Document
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]docstore.Document),
	}
}

func (s *Store) Get(_ context.Context, collection, key string) (docstore.Document, error) {
	if collection == "" || key == "" {
		return nil, errors.New("collection and key are required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	doc, ok := col[key]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return docstore.Clone(doc), nil
}

func (s *Store) Put(_ context.Context, collection, key string, doc docstore.Document) error {
	if collection == "" || key == "" {
		return errors.New("collection and key are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(collection, key, doc)
	return nil
}

func (s *Store) Delete(_ context.Context, collection, key string) error {
	if collection == "" || key == "" {
		return errors.New("collection and key are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil
	}
	delete(col, key)
	if len(col) == 0 {
		delete(s.collections, collection)
	}
	return nil
}

func (s *Store) Query(_ context.Context, collection string, filter docstore.Filter) ([]docstore.Keyed, error) {
	if collection == "" {
		return nil, errors.New("collection is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[collection]
	results := make([]docstore.Keyed, 0, len(col))
	for key, doc := range col {
		if filter == nil || filter(doc) {
			results = append(results, docstore.Keyed{Key: key, Doc: docstore.Clone(doc)})
		}
	}
	return results, nil
}

func (s *Store) Update(_ context.Context, collection, key string, fn docstore.UpdateFunc) error {
	if collection == "" || key == "" {
		return errors.New("collection and key are required")
	}
	if fn == nil {
		return errors.New("update function is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current docstore.Document
	if col, ok := s.collections[collection]; ok {
		if doc, ok := col[key]; ok {
			current = docstore.Clone(doc)
		}
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return errors.New("update function returned nil document")
	}

	s.put(collection, key, next)
	return nil
}

// put assumes the write lock is held.
func (s *Store) put(collection, key string, doc docstore.Document) {
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]docstore.Document)
		s.collections[collection] = col
	}
	col[key] = docstore.Clone(doc)
}
