// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Endpoint is one end of a relationship: the property holding the
// reference and the referenced id.
type Endpoint struct {
	Prop     string
	ID       string
	Optional bool
}

// Required returns an endpoint which must be resolved for the relationship
// to exist.
func Required(prop, id string) Endpoint {
	return Endpoint{Prop: prop, ID: strings.TrimSpace(id)}
}

// Optional returns an endpoint which may be empty.
func Optional(prop, id string) Endpoint {
	return Endpoint{Prop: prop, ID: strings.TrimSpace(id), Optional: true}
}

// Link builds a relationship of an edge schema between endpoints. It
// returns nil when a required endpoint has no id, so an unresolved party
// never yields a dangling edge.
//
// The id is made in the schema's namespace from the endpoint ids followed
// by the discriminants. Discriminants such as a record number or a date
// keep distinct edges between the same endpoints apart. For symmetric
// schemas the endpoints are put in canonical order first: the smallest id
// goes to the first endpoint property the schema declares, so both call
// orders build the same entity.
func Link(schema *Schema, endpoints []Endpoint, discriminants ...Part) *Entity {
	if !schema.Edge {
		panic(fmt.Sprintf("%s is not an edge schema", schema.Name))
	}
	for _, ep := range endpoints {
		if ep.ID == "" && !ep.Optional {
			return nil
		}
	}
	if schema.Symmetric {
		endpoints = canonical(schema, endpoints)
	}
	parts := make([]Part, 0, len(endpoints)+len(discriminants))
	for _, ep := range endpoints {
		parts = append(parts, Token(ep.ID))
	}
	parts = append(parts, discriminants...)
	id, ok := MakeID(schema.Namespace, parts...)
	if !ok {
		return nil
	}
	e := NewEntity(schema, id)
	for _, ep := range endpoints {
		e.Add(ep.Prop, ep.ID)
	}
	return e
}

// canonical pairs the endpoint ids, sorted, with the endpoint properties
// in schema declaration order.
func canonical(schema *Schema, endpoints []Endpoint) []Endpoint {
	ids := make([]Part, len(endpoints))
	props := make([]string, len(endpoints))
	for i, ep := range endpoints {
		ids[i] = Token(ep.ID)
		props[i] = ep.Prop
	}
	slices.SortStableFunc(props, func(a, b string) int {
		pa, pb := schema.position(a), schema.position(b)
		if pa < pb {
			return -1
		}
		if pa > pb {
			return 1
		}
		return 0
	})
	out := make([]Endpoint, len(endpoints))
	for i, p := range SortParts(ids...) {
		out[i] = Endpoint{Prop: props[i], ID: p.value}
	}
	return out
}
