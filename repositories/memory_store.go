package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memoryCollection struct {
	order []string
	docs  map[string]map[string]any
}

// MemoryStore is the in-process DocumentStore used by tests, the offline
// CLI and servers started without DATABASE_URL. Every operation holds one
// lock, which gives the same per-document atomicity as the Postgres store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) collection(name string) *memoryCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

// lookup never creates a collection, so readers can hold the read lock.
func (s *MemoryStore) lookup(name string) *memoryCollection {
	if c, ok := s.collections[name]; ok {
		return c
	}
	return &memoryCollection{}
}

func (s *MemoryStore) match(c *memoryCollection, filter Filter) ([]string, error) {
	if filter == nil {
		filter = Filter{}
	}
	want, err := normalize(map[string]any(filter))
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	var ids []string
	for _, id := range c.order {
		if contains(any(c.docs[id]), want) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, filter Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.lookup(collection)
	ids, err := s.match(c, filter)
	if err != nil {
		return err
	}
	bodies := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		raw, err := json.Marshal(c.docs[id])
		if err != nil {
			return err
		}
		bodies = append(bodies, raw)
	}
	return decodeList(bodies, out)
}

func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.lookup(collection)
	ids, err := s.match(c, filter)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrDocumentNotFound
	}
	raw, err := json.Marshal(c.docs[ids[0]])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) Insert(ctx context.Context, collection, id string, doc any) error {
	obj, err := toObject(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateDocument, collection, id)
	}
	c.docs[id] = obj
	c.order = append(c.order, id)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection string, filter Filter, patch Patch) (int64, error) {
	values, err := toObject(map[string]any(patch))
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	ids, err := s.match(c, filter)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		doc := c.docs[id]
		for k, v := range values {
			doc[k] = v
		}
	}
	return int64(len(ids)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	ids, err := s.match(c, filter)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		delete(c.docs, id)
		gone[id] = struct{}{}
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := gone[id]; !ok {
			kept = append(kept, id)
		}
	}
	c.order = kept
	return int64(len(ids)), nil
}
