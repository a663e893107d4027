// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package inmem is a Sink keeping the merged graph in memory.
package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/molecula/disclosure"
)

// Ensure Store implements interface.
var _ disclosure.Sink = &Store{}

// Store merges emitted entities into a map keyed by id.
type Store struct {
	mu       sync.RWMutex
	entities map[string]*disclosure.Entity
	emits    int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{entities: make(map[string]*disclosure.Entity)}
}

// Emit merges e into the store.
func (s *Store) Emit(ctx context.Context, e *disclosure.Entity) error {
	_, _, err := s.Upsert(e)
	return err
}

// Upsert merges e into the store and returns a copy of the merged entity.
// changed is false when the store already held every value of e.
func (s *Store) Upsert(e *disclosure.Entity) (merged *disclosure.Entity, changed bool, err error) {
	if err := disclosure.CheckSchema(e); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emits++
	cur, ok := s.entities[e.ID]
	if !ok {
		cur = e.Clone()
		s.entities[e.ID] = cur
		return cur.Clone(), true, nil
	}
	before := cur.Clone()
	if err := cur.Merge(e); err != nil {
		return nil, false, err
	}
	return cur.Clone(), !cur.Equal(before), nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Get returns a copy of the entity with the given id.
func (s *Store) Get(id string) (*disclosure.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Entities returns copies of all entities, sorted by id.
func (s *Store) Entities() []*disclosure.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*disclosure.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BySchema returns the entities of one schema, sorted by id.
func (s *Store) BySchema(schema *disclosure.Schema) []*disclosure.Entity {
	var out []*disclosure.Entity
	for _, e := range s.Entities() {
		if e.Schema == schema {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns the sorted ids of all entities.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entities))
	for id := range s.entities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Emits returns the number of accepted Emit calls, counting repeats.
func (s *Store) Emits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emits
}
