// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package boltdb is a Sink persisting the merged graph in a bolt file.
package boltdb

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	bolt "go.etcd.io/bbolt"
)

// Ensure Store implements interface.
var _ disclosure.Sink = &Store{}

var bucketEntities = []byte("entities")

// entityCache holds the merged state of recently written entities.
type entityCache struct {
	mu       sync.RWMutex
	entities map[string]*disclosure.Entity
	max      int
}

func newEntityCache(max int) *entityCache {
	return &entityCache{
		entities: make(map[string]*disclosure.Entity),
		max:      max,
	}
}

// Get returns a copy of the cached entity with the given id.
func (c *entityCache) Get(id string) *disclosure.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entities[id]
	if e == nil {
		return nil
	}
	return e.Clone()
}

// Set caches e. The cache is dropped when it grows past its limit.
func (c *entityCache) Set(e *disclosure.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entities) >= c.max {
		c.entities = make(map[string]*disclosure.Entity)
	}
	c.entities[e.ID] = e
}

// Store is a Sink which merges entities into a bolt bucket keyed by id.
type Store struct {
	mu    sync.Mutex
	path  string
	db    *bolt.DB
	cache *entityCache
}

// DefaultCacheSize is the number of entities kept in the read cache.
const DefaultCacheSize = 10000

// NewStore returns a new Store backed by the file at path. Call Open
// before use.
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		cache: newEntityCache(DefaultCacheSize),
	}
}

// Path returns path to the store's data file.
func (s *Store) Path() string { return s.path }

// Open opens and initializes the store.
func (s *Store) Open() error {
	db, err := bolt.Open(s.path, 0666, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return errors.Wrap(err, "opening storage")
	}
	s.db = db

	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntities)
		return err
	}); err != nil {
		return errors.Wrap(err, "initializing")
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the entity with the given id.
func (s *Store) Get(id string) (e *disclosure.Entity, err error) {
	if e = s.cache.Get(id); e != nil {
		return e, nil
	}
	if err = s.db.View(func(tx *bolt.Tx) error {
		e, err = txEntity(tx, id)
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "finding entity")
	}
	if e != nil {
		s.cache.Set(e.Clone())
	}
	return e, nil
}

// Emit merges e into the stored entity with the same id.
func (s *Store) Emit(ctx context.Context, e *disclosure.Entity) error {
	if err := disclosure.CheckSchema(e); err != nil {
		return err
	}

	// Skip the write when nothing new would be stored.
	if cur, err := s.Get(e.ID); err != nil {
		return errors.Wrap(err, "checking entity")
	} else if cur != nil && contains(cur, e) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var merged *disclosure.Entity
	if err := s.db.Update(func(tx *bolt.Tx) error {
		tmp, err := txMerge(tx, e)
		if err != nil {
			return err
		}
		merged = tmp
		return nil
	}); err != nil {
		return errors.Wrap(err, "updating store")
	}
	s.cache.Set(merged)
	return nil
}

// ForEach calls fn for each stored entity in id order.
func (s *Store) ForEach(fn func(*disclosure.Entity) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntities).ForEach(func(k, v []byte) error {
			e := &disclosure.Entity{}
			if err := json.Unmarshal(v, e); err != nil {
				return errors.Wrapf(err, "decoding %s", k)
			}
			return fn(e)
		})
	})
}

// Len returns the number of stored entities.
func (s *Store) Len() (n int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEntities).Stats().KeyN
		return nil
	})
	return n, err
}

// Checksum returns a hash of every key and value in the store. Two runs
// over the same input yield the same checksum.
func (s *Store) Checksum() (sum []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		h := xxhash.New()
		cur := tx.Bucket(bucketEntities).Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			// hash function writes don't usually need to be checked
			_, _ = h.Write(k)
			_, _ = h.Write(v)
		}
		sum = h.Sum(nil)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "computing checksum")
	}
	return sum, nil
}

// txEntity returns the stored entity for an id, or nil.
func txEntity(tx *bolt.Tx, id string) (*disclosure.Entity, error) {
	v := tx.Bucket(bucketEntities).Get([]byte(id))
	if v == nil {
		return nil, nil
	}
	e := &disclosure.Entity{}
	if err := json.Unmarshal(v, e); err != nil {
		return nil, errors.Wrap(err, "decoding entity")
	}
	return e, nil
}

// txMerge merges e into the stored entity and returns the combined entity.
func txMerge(tx *bolt.Tx, e *disclosure.Entity) (*disclosure.Entity, error) {
	merged, err := txEntity(tx, e.ID)
	if err != nil {
		return nil, err
	}
	if merged == nil {
		merged = e.Clone()
	} else if err := merged.Merge(e); err != nil {
		return nil, err
	}

	buf, err := json.Marshal(merged)
	if err != nil {
		return nil, errors.Wrap(err, "encoding entity")
	}
	if err := tx.Bucket(bucketEntities).Put([]byte(e.ID), buf); err != nil {
		return nil, errors.Wrap(err, "saving entity")
	}
	return merged, nil
}

// contains returns true if every value of subset is already in e.
func contains(e, subset *disclosure.Entity) bool {
	if e.Schema != subset.Schema {
		return false
	}
	c := e.Clone()
	if err := c.Merge(subset); err != nil {
		return false
	}
	return c.Equal(e)
}
