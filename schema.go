// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"sort"
)

// Cardinality says how many values a property holds.
type Cardinality int

const (
	// One properties hold at most one value. When two values meet, the
	// lexicographically smallest one is kept, so merges commute.
	One Cardinality = iota
	// Many properties hold a set of distinct values.
	Many
)

// Property describes one attribute of a schema.
type Property struct {
	Name        string
	Cardinality Cardinality
	Required    bool
	// Ref properties hold an entity id, or a raw external reference when
	// the referenced entity could not be resolved.
	Ref bool
}

// Schema is one variant of the closed set of entity types. Schemas are
// package level values; compare them by pointer.
type Schema struct {
	Name string
	// Edge schemas describe relationships between entities.
	Edge bool
	// Symmetric edges get the same id regardless of endpoint order.
	Symmetric bool
	// Namespace is the clear text id prefix used by Link.
	Namespace string
	// Caption lists the properties tried, in order, by Entity.Caption.
	Caption []string

	props map[string]Property
	order []string
}

func newSchema(s Schema, props ...Property) *Schema {
	s.props = make(map[string]Property, len(props))
	for _, p := range props {
		if _, ok := s.props[p.Name]; ok {
			panic("duplicate property " + s.Name + "." + p.Name)
		}
		s.props[p.Name] = p
		s.order = append(s.order, p.Name)
	}
	return &s
}

// Property returns the named property.
func (s *Schema) Property(name string) (Property, bool) {
	p, ok := s.props[name]
	return p, ok
}

// position returns the declaration index of the named property, or -1.
func (s *Schema) position(name string) int {
	for i, n := range s.order {
		if n == name {
			return i
		}
	}
	return -1
}

// Properties returns the schema's properties in declaration order.
func (s *Schema) Properties() []Property {
	out := make([]Property, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.props[name])
	}
	return out
}

// RequiredProperties returns the names of the required properties.
func (s *Schema) RequiredProperties() []string {
	var out []string
	for _, name := range s.order {
		if s.props[name].Required {
			out = append(out, name)
		}
	}
	return out
}

func (s *Schema) String() string { return s.Name }

func many(names ...string) []Property {
	out := make([]Property, len(names))
	for i, n := range names {
		out[i] = Property{Name: n, Cardinality: Many}
	}
	return out
}

func one(names ...string) []Property {
	out := make([]Property, len(names))
	for i, n := range names {
		out[i] = Property{Name: n, Cardinality: One}
	}
	return out
}

func props(groups ...[]Property) []Property {
	var out []Property
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var (
	reqName = Property{Name: "name", Cardinality: Many, Required: true}

	thing = many("alias", "summary", "description", "notes", "keywords",
		"sourceUrl", "country", "address", "idNumber")
	addressRef = []Property{{Name: "addressEntity", Cardinality: Many, Ref: true}}
	legal      = props(many("legalForm", "classification", "website", "email", "phone"), addressRef)

	edgeCommon = many("role", "summary", "description", "date", "startDate",
		"endDate", "sourceUrl", "recordId")
)

func ref(name string, required bool) Property {
	return Property{Name: name, Cardinality: One, Required: required, Ref: true}
}

// The closed set of schemas.
var (
	Person = newSchema(Schema{Name: "Person", Caption: []string{"name", "lastName"}},
		props([]Property{reqName}, thing, addressRef,
			many("title", "firstName", "middleName", "lastName", "position"))...)

	Organization = newSchema(Schema{Name: "Organization", Caption: []string{"name"}},
		props([]Property{reqName}, thing, legal)...)

	Company = newSchema(Schema{Name: "Company", Caption: []string{"name"}},
		props([]Property{reqName}, thing, legal)...)

	// LegalEntity is a party which is known to be either a person or an
	// organization, but not which.
	LegalEntity = newSchema(Schema{Name: "LegalEntity", Caption: []string{"name"}},
		props([]Property{reqName}, thing, legal)...)

	Address = newSchema(Schema{Name: "Address", Caption: []string{"full"}},
		props([]Property{{Name: "full", Cardinality: One, Required: true}},
			many("remarks", "street", "street2", "postalCode", "city", "region", "state", "country"))...)

	Project = newSchema(Schema{Name: "Project", Caption: []string{"name", "projectId"}},
		props([]Property{reqName}, thing,
			many("projectId", "status", "amount", "amountUsd", "amountEur",
				"currency", "date", "startDate", "endDate", "program"))...)

	Payment = newSchema(Schema{Name: "Payment", Edge: true, Namespace: "payment",
		Caption: []string{"amount", "purpose"}},
		props([]Property{
			ref("payer", true),
			ref("beneficiary", false),
			ref("project", false),
			{Name: "amount", Cardinality: Many, Required: true},
			{Name: "currency", Cardinality: Many, Required: true},
		}, many("date", "amountUsd", "amountEur", "purpose", "programme", "summary",
			"description", "startDate", "endDate", "sourceUrl", "recordId",
			"transactionNumber"))...)

	Membership = newSchema(Schema{Name: "Membership", Edge: true, Symmetric: true,
		Namespace: "membership", Caption: []string{"role"}},
		props([]Property{ref("member", true), ref("organization", true)}, edgeCommon)...)

	Ownership = newSchema(Schema{Name: "Ownership", Edge: true, Namespace: "ownership",
		Caption: []string{"role", "ownershipType"}},
		props([]Property{ref("owner", true), ref("asset", true)}, edgeCommon,
			many("ownershipType", "percentage", "sharesValue", "sharesCurrency", "sharesCount"))...)

	ProjectParticipant = newSchema(Schema{Name: "ProjectParticipant", Edge: true,
		Namespace: "participant", Caption: []string{"role"}},
		props([]Property{ref("project", true), ref("participant", true)}, edgeCommon)...)

	// UnknownLink connects two parties whose relationship is only described
	// by its role, e.g. two registry profiles of the same physician. The
	// object may be a raw external reference, so the edge is directed.
	UnknownLink = newSchema(Schema{Name: "UnknownLink", Edge: true,
		Namespace: "link", Caption: []string{"role"}},
		props([]Property{ref("subject", true), ref("object", true)}, edgeCommon)...)

	Article = newSchema(Schema{Name: "Article", Caption: []string{"title", "doi", "pmcId", "pmid"}},
		many("title", "pmid", "pmcId", "doi", "publisher", "publishedAt", "sourceUrl")...)

	Journal = newSchema(Schema{Name: "Journal", Caption: []string{"name"}},
		props([]Property{reqName}, many("issn", "publisher", "country", "sourceUrl"))...)

	Publication = newSchema(Schema{Name: "Publication", Edge: true, Namespace: "publication"},
		ref("journal", true), ref("article", true), Property{Name: "date", Cardinality: Many})
)

var schemas = map[string]*Schema{}

func init() {
	for _, s := range []*Schema{
		Person, Organization, Company, LegalEntity, Address, Project, Payment,
		Membership, Ownership, ProjectParticipant, UnknownLink, Article,
		Journal, Publication,
	} {
		schemas[s.Name] = s
	}
}

// SchemaByName returns the schema with the given name.
func SchemaByName(name string) (*Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

// Schemas returns all schemas sorted by name.
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Known reports whether s is one of the package's schemas. Sinks use it
// to reject entities of foreign types.
func Known(s *Schema) bool {
	if s == nil {
		return false
	}
	k, ok := schemas[s.Name]
	return ok && k == s
}
