// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"context"
	"sync"

	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/logger"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Build returns an entity of the given schema holding props. It fails with
// ErrUnresolvableIdentity when id is empty and with ErrMissingRequiredField
// when a required property has no value.
func Build(schema *Schema, id string, props map[string][]string) (*Entity, error) {
	if id == "" {
		return nil, errors.Newf(errors.ErrUnresolvableIdentity, "%s has no id", schema.Name)
	}
	e := NewEntity(schema, id)
	keys := maps.Keys(props)
	slices.Sort(keys)
	for _, k := range keys {
		if _, ok := schema.Property(k); !ok {
			return nil, errors.Errorf("%s has no property %q", schema.Name, k)
		}
		e.Add(k, props[k]...)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Emitter hands entities to a sink on behalf of one dataset. It is the
// state shared by the code building entities from rows; each pipeline owns
// its own.
type Emitter struct {
	Dataset string
	Sink    Sink
	Log     logger.Logger

	// OnEmit, if set, is called after each entity the sink accepted.
	OnEmit func(*Entity)

	mu      sync.Mutex
	emitted map[string]int
	skipped int
}

// NewEmitter returns an Emitter writing to sink.
func NewEmitter(dataset string, sink Sink, log logger.Logger) *Emitter {
	if log == nil {
		log = logger.NopLogger
	}
	return &Emitter{
		Dataset: dataset,
		Sink:    sink,
		Log:     log,
		emitted: make(map[string]int),
	}
}

// Make returns a new unresolved entity of the given schema.
func (em *Emitter) Make(schema *Schema) *Entity {
	return NewEntity(schema, "")
}

// Emit validates e and writes it to the sink. Nil and unresolved entities
// are skipped without error. Invalid entities are not written and their
// ErrMissingRequiredField is returned.
func (em *Emitter) Emit(ctx context.Context, e *Entity) error {
	if !e.Resolved() {
		em.mu.Lock()
		em.skipped++
		em.mu.Unlock()
		if e != nil {
			em.Log.Debugf("skipping unresolved %s", e.Schema.Name)
		}
		return nil
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := em.Sink.Emit(ctx, e); err != nil {
		return errors.Wrapf(err, "emitting %s", e)
	}
	em.mu.Lock()
	em.emitted[e.Schema.Name]++
	em.mu.Unlock()
	if em.OnEmit != nil {
		em.OnEmit(e)
	}
	return nil
}

// EmitAll emits each entity in order, stopping at the first error.
func (em *Emitter) EmitAll(ctx context.Context, entities ...*Entity) error {
	for _, e := range entities {
		if err := em.Emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Emitted returns the number of entities written, by schema name.
func (em *Emitter) Emitted() map[string]int {
	em.mu.Lock()
	defer em.mu.Unlock()
	return maps.Clone(em.emitted)
}

// Total returns the number of entities written.
func (em *Emitter) Total() int {
	em.mu.Lock()
	defer em.mu.Unlock()
	n := 0
	for _, c := range em.emitted {
		n += c
	}
	return n
}

// Skipped returns the number of unresolved entities passed to Emit.
func (em *Emitter) Skipped() int {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.skipped
}
