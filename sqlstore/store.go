// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package sqlstore is a Sink merging entities into a SQL table. It works
// with SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
)

// Ensure Store implements interface.
var _ disclosure.Sink = &Store{}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const createTable = `CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	schema TEXT NOT NULL,
	properties TEXT NOT NULL
)`

// Store merges entities into the entities table.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	driver string
}

// Open connects to dsn with the named driver and creates the entities
// table if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if driver == DriverSQLite {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating entities table")
	}
	return &Store{db: db, driver: driver}, nil
}

// rebind rewrites ? placeholders for drivers which number them.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Emit merges e into the stored row with the same id inside one
// transaction.
func (s *Store) Emit(ctx context.Context, e *disclosure.Entity) (retErr error) {
	if err := disclosure.CheckSchema(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	merged, err := s.txGet(ctx, tx, e.ID)
	if err != nil {
		return err
	}
	if merged == nil {
		merged = e.Clone()
	} else if err := merged.Merge(e); err != nil {
		return err
	}
	props, err := json.Marshal(merged.Properties)
	if err != nil {
		return errors.Wrap(err, "encoding properties")
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO entities(id, schema, properties) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET schema = EXCLUDED.schema, properties = EXCLUDED.properties`),
		merged.ID, merged.Schema.Name, string(props)); err != nil {
		return errors.Wrap(err, "upserting entity")
	}
	return errors.Wrap(tx.Commit(), "committing")
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) txGet(ctx context.Context, q querier, id string) (*disclosure.Entity, error) {
	var schema, props string
	err := q.QueryRowContext(ctx, s.rebind(`SELECT schema, properties FROM entities WHERE id = ?`), id).Scan(&schema, &props)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "selecting entity")
	}
	return decode(id, schema, props)
}

func decode(id, schema, props string) (*disclosure.Entity, error) {
	s, ok := disclosure.SchemaByName(schema)
	if !ok {
		return nil, errors.Newf(errors.ErrUnknownType, "entity %s has unknown schema %q", id, schema)
	}
	var m map[string][]string
	if err := json.Unmarshal([]byte(props), &m); err != nil {
		return nil, errors.Wrapf(err, "decoding properties of %s", id)
	}
	e := disclosure.NewEntity(s, id)
	for k, v := range m {
		if _, ok := s.Property(k); !ok {
			return nil, errors.Newf(errors.ErrUnknownType, "%s has no property %q", s.Name, k)
		}
		e.Add(k, v...)
	}
	return e, nil
}

// Get returns the entity with the given id, or nil.
func (s *Store) Get(ctx context.Context, id string) (*disclosure.Entity, error) {
	return s.txGet(ctx, s.db, id)
}

// Count returns the number of stored entities of each schema.
func (s *Store) Count(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT schema, COUNT(*) FROM entities GROUP BY schema`)
	if err != nil {
		return nil, errors.Wrap(err, "counting entities")
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var schema string
		var n int
		if err := rows.Scan(&schema, &n); err != nil {
			return nil, errors.Wrap(err, "scanning count")
		}
		out[schema] = n
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
