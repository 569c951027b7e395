package db

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"fireops/models"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory. It backs tests and the
// "memory" store backend.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[Kind]map[string]map[string]interface{}
	clock func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[Kind]map[string]map[string]interface{}),
		clock: time.Now,
	}
}

// SetClock replaces the timestamp source.
func (s *MemoryStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *MemoryStore) collection(kind Kind) map[string]map[string]interface{} {
	c, ok := s.docs[kind]
	if !ok {
		c = make(map[string]map[string]interface{})
		s.docs[kind] = c
	}
	return c
}

// List returns documents in creation order.
func (s *MemoryStore) List(_ context.Context, kind Kind, filter Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []Document{}
	for id, fields := range s.docs[kind] {
		if !filter.IsZero() && !reflect.DeepEqual(fields[filter.Field], filter.Value) {
			continue
		}
		docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
	}
	sort.SliceStable(docs, func(i, j int) bool {
		ti, _ := docs[i].Fields[fieldCreatedAt].(time.Time)
		tj, _ := docs[j].Fields[fieldCreatedAt].(time.Time)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *MemoryStore) Get(_ context.Context, kind Kind, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.docs[kind][id]
	if !ok {
		return Document{}, models.NotFound(string(kind), id)
	}
	return Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *MemoryStore) Create(_ context.Context, kind Kind, fields map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := s.clock()
	doc := copyFields(fields)
	doc[fieldCreatedAt] = now
	doc[fieldUpdatedAt] = now
	s.collection(kind)[id] = doc
	return id, nil
}

func (s *MemoryStore) Put(_ context.Context, kind Kind, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	doc := copyFields(fields)
	if prev, ok := s.collection(kind)[id]; ok {
		doc[fieldCreatedAt] = prev[fieldCreatedAt]
	} else {
		doc[fieldCreatedAt] = now
	}
	doc[fieldUpdatedAt] = now
	s.collection(kind)[id] = doc
	return nil
}

func (s *MemoryStore) Update(_ context.Context, kind Kind, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[kind][id]
	if !ok {
		return models.NotFound(string(kind), id)
	}
	for k, v := range copyFields(fields) {
		doc[k] = v
	}
	doc[fieldUpdatedAt] = s.clock()
	return nil
}

// Delete is a no-op for unknown ids.
func (s *MemoryStore) Delete(_ context.Context, kind Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[kind], id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
