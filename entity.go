// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/molecula/disclosure/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Entity is a node or an edge of the graph. Property values are kept sorted
// and distinct, so two entities holding the same facts are equal no matter
// in which order the facts were added.
type Entity struct {
	ID         string
	Schema     *Schema
	Properties map[string][]string
}

// NewEntity returns an empty entity of the given schema.
func NewEntity(schema *Schema, id string) *Entity {
	return &Entity{
		ID:         id,
		Schema:     schema,
		Properties: make(map[string][]string),
	}
}

// Resolved reports whether the entity has an id. Unresolved entities are
// never emitted.
func (e *Entity) Resolved() bool {
	return e != nil && e.ID != ""
}

func (e *Entity) property(name string) Property {
	p, ok := e.Schema.Property(name)
	if !ok {
		panic(fmt.Sprintf("%s has no property %q", e.Schema.Name, name))
	}
	return p
}

// Add adds values to the named property. Values are trimmed; empty values
// and duplicates are dropped. Add panics if the schema has no such
// property.
func (e *Entity) Add(name string, values ...string) {
	p := e.property(name)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		cur := e.Properties[name]
		if p.Cardinality == One {
			if len(cur) == 0 || v < cur[0] {
				e.Properties[name] = []string{v}
			}
			continue
		}
		i, found := slices.BinarySearch(cur, v)
		if found {
			continue
		}
		e.Properties[name] = slices.Insert(cur, i, v)
	}
}

// AddEntity adds the id of other to the named property, if other is resolved.
func (e *Entity) AddEntity(name string, other *Entity) {
	if other.Resolved() {
		e.Add(name, other.ID)
	}
}

// Get returns the values of the named property.
func (e *Entity) Get(name string) []string {
	e.property(name)
	return e.Properties[name]
}

// First returns the first value of the named property, or "".
func (e *Entity) First(name string) string {
	if v := e.Get(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether the named property has a value.
func (e *Entity) Has(name string) bool {
	return len(e.Get(name)) > 0
}

// Caption returns a display label for the entity.
func (e *Entity) Caption() string {
	for _, name := range e.Schema.Caption {
		if v := e.First(name); v != "" {
			return v
		}
	}
	return e.ID
}

// Countries returns the country codes of the entity.
func (e *Entity) Countries() []string {
	if _, ok := e.Schema.Property("country"); !ok {
		return nil
	}
	return e.Properties["country"]
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	c := NewEntity(e.Schema, e.ID)
	for k, v := range e.Properties {
		c.Properties[k] = slices.Clone(v)
	}
	return c
}

// Merge adds every value of other to e. Both must have the same id and
// schema.
func (e *Entity) Merge(other *Entity) error {
	if e.ID != other.ID {
		return errors.Errorf("cannot merge %s into %s", other.ID, e.ID)
	}
	if e.Schema != other.Schema {
		return errors.New(errors.ErrDuplicateIDCollision,
			fmt.Sprintf("id %s used by %s and %s", e.ID, e.Schema.Name, other.Schema.Name))
	}
	for k, v := range other.Properties {
		e.Add(k, v...)
	}
	return nil
}

// Validate checks that the required properties are set.
func (e *Entity) Validate() error {
	for _, name := range e.Schema.RequiredProperties() {
		if !e.Has(name) {
			return errors.Newf(errors.ErrMissingRequiredField,
				"%s %s: missing required field: %s", e.Schema.Name, e.ID, name)
		}
	}
	return nil
}

// Equal reports whether e and other hold the same id, schema and values.
func (e *Entity) Equal(other *Entity) bool {
	if e.ID != other.ID || e.Schema != other.Schema || len(e.Properties) != len(other.Properties) {
		return false
	}
	for k, v := range e.Properties {
		if !slices.Equal(v, other.Properties[k]) {
			return false
		}
	}
	return true
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.Schema.Name, e.ID)
}

type entityJSON struct {
	ID         string              `json:"id"`
	Schema     string              `json:"schema"`
	Properties map[string][]string `json:"properties"`
}

// MarshalJSON encodes the entity as {"id", "schema", "properties"}.
// encoding/json sorts map keys and values are kept sorted, so the output
// is stable.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityJSON{ID: e.ID, Schema: e.Schema.Name, Properties: e.Properties})
}

// UnmarshalJSON decodes an entity written by MarshalJSON. Unknown schemas
// and properties are rejected.
func (e *Entity) UnmarshalJSON(b []byte) error {
	var ej entityJSON
	if err := json.Unmarshal(b, &ej); err != nil {
		return err
	}
	s, ok := SchemaByName(ej.Schema)
	if !ok {
		return errors.Newf(errors.ErrUnknownType, "unknown schema %q", ej.Schema)
	}
	out := NewEntity(s, ej.ID)
	keys := maps.Keys(ej.Properties)
	slices.Sort(keys)
	for _, k := range keys {
		if _, ok := s.Property(k); !ok {
			return errors.Newf(errors.ErrUnknownType, "%s has no property %q", s.Name, k)
		}
		out.Add(k, ej.Properties[k]...)
	}
	*e = *out
	return nil
}
