// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"context"

	"github.com/molecula/disclosure/errors"
)

// Sink stores emitted entities. Emitting an id a second time must merge
// the new values into the stored entity, never replace it. Entities of
// unknown schemas must be rejected with ErrUnknownType.
type Sink interface {
	Emit(ctx context.Context, e *Entity) error
	Close() error
}

// CheckSchema returns an ErrUnknownType error when e's schema is not one of
// the package's schemas.
func CheckSchema(e *Entity) error {
	if e == nil || !Known(e.Schema) {
		name := "<nil>"
		if e != nil && e.Schema != nil {
			name = e.Schema.Name
		}
		return errors.Newf(errors.ErrUnknownType, "unknown schema %s", name)
	}
	return nil
}

// MultiSink writes every entity to each of its sinks.
type MultiSink []Sink

// Emit emits e to each sink in turn, stopping at the first failure.
func (m MultiSink) Emit(ctx context.Context, e *Entity) error {
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks and returns the first error.
func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
