// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"strings"

	"github.com/molecula/disclosure/fingerprint"
)

// AddressParts are the components of a postal address as found in a row.
type AddressParts struct {
	Remarks     string
	Street      string
	Street2     string
	PostalCode  string
	City        string
	Region      string
	State       string
	Country     string
	CountryCode string
}

// Full formats the parts as a single line.
func (p AddressParts) Full() string {
	var out []string
	add := func(s ...string) {
		var words []string
		for _, w := range s {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			out = append(out, strings.Join(words, " "))
		}
	}
	add(p.Street)
	add(p.Street2)
	add(p.PostalCode, p.City)
	add(p.Region)
	add(p.State)
	add(p.Country)
	return strings.Join(out, ", ")
}

// MakeAddress builds an Address entity keyed by the full address and the
// country code. It returns nil when the parts hold no address.
func MakeAddress(p AddressParts) *Entity {
	code := strings.ToLower(strings.TrimSpace(p.CountryCode))
	if code == "" {
		code = CountryCode(p.Country)
	}
	if fingerprint.IsEmpty(p.Country) {
		p.Country = ""
	}
	if p.Country == "" && code != "" {
		p.Country = CountryName(code)
	}
	full := p.Full()
	id, ok := MakeID("addr", Text(full), Token(code))
	if !ok {
		return nil
	}
	e := NewEntity(Address, id)
	e.Add("full", full)
	e.Add("remarks", p.Remarks)
	e.Add("street", p.Street)
	e.Add("street2", p.Street2)
	e.Add("postalCode", p.PostalCode)
	e.Add("city", p.City)
	e.Add("region", p.Region)
	e.Add("state", p.State)
	e.Add("country", code)
	return e
}

// AttachAddress stores the caption and id of addr on parent, along with
// its country. The address must be emitted before the parent.
func AttachAddress(parent, addr *Entity) {
	if !addr.Resolved() {
		return
	}
	parent.Add("address", addr.Caption())
	parent.Add("addressEntity", addr.ID)
	parent.Add("country", addr.Countries()...)
}
