// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package usopenpayments

import (
	"strconv"
	"strings"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/fingerprint"
)

// Recipient types.
const (
	TypePhysician    = "Covered Recipient Physician"
	TypePractitioner = "Covered Recipient Non-Physician Practitioner"
	TypeHospital     = "Covered Recipient Teaching Hospital"
	TypeNonCovered   = "Non-covered Recipient"
)

const manufacturerIDCol = "Applicable_Manufacturer_or_Applicable_GPO_Making_Payment_ID"

// party is an entity together with the address it refers to, which has
// to be emitted first.
type party struct {
	*disclosure.Entity
	addr *disclosure.Entity
}

func (p party) entities() []*disclosure.Entity {
	if p.Entity == nil {
		return nil
	}
	return []*disclosure.Entity{p.addr, p.Entity}
}

// makeAddress reads the Recipient address columns of row.
func makeAddress(row disclosure.Row) *disclosure.Entity {
	return disclosure.MakeAddress(disclosure.AddressParts{
		Street: row.First("Recipient_Address_Line_1", "Recipient_Address_Line1",
			"Recipient_Business_Street_Address_Line1"),
		Street2: row.First("Recipient_Address_Line_2", "Recipient_Address_Line2",
			"Recipient_Business_Street_Address_Line2"),
		PostalCode: row.First("Recipient_Zip_Code", "Recipient_Zipcode", "Recipient_Postal_Code"),
		City:       row.String("Recipient_City"),
		Region:     row.First("Recipient_Province", "Recipient_Province_Name"),
		State:      row.String("Recipient_State"),
		Country:    row.String("Recipient_Country"),
	})
}

// makePerson builds the physician described by the Recipient columns of
// row. Profile id columns vary between files.
func makePerson(row disclosure.Row) party {
	p := disclosure.NewEntity(disclosure.Person, "")
	p.ID, _ = disclosure.MakeID("physician",
		disclosure.Token(row.First("Recipient_ID", "Recipient_Profile_ID")))

	first := row.String("Recipient_First_Name")
	middle := row.String("Recipient_Middle_Name")
	last := row.String("Recipient_Last_Name")
	p.Add("name", joinNonEmpty(" ", first, middle, last))
	p.Add("firstName", first)
	p.Add("middleName", middle)
	p.Add("lastName", last)
	p.Add("title", row.String("Recipient_Name_Suffix"))
	p.Add("alias", joinNonEmpty(" ",
		row.String("Recipient_Alternate_First_Name"),
		row.String("Recipient_Alternate_Middle_Name"),
		row.String("Recipient_Alternate_Last_Name")))

	for _, sp := range specialties(row) {
		p.Add("summary", sp)
		p.Add("keywords", strings.Split(sp, "|")...)
	}
	p.Add("position", row.String("Recipient_Primary_Type"))

	addr := makeAddress(row)
	disclosure.AttachAddress(p, addr)
	return party{Entity: p, addr: addr}
}

func makeHospital(row disclosure.Row) party {
	h := disclosure.NewEntity(disclosure.Organization, "")
	h.ID, _ = disclosure.MakeID("hospital", disclosure.Token(row.String("Teaching_Hospital_ID")))
	h.Add("name", row.String("Teaching_Hospital_Name"))
	h.Add("idNumber", row.String("Teaching_Hospital_CCN"))
	h.Add("legalForm", "Teaching Hospital")
	addr := makeAddress(row)
	disclosure.AttachAddress(h, addr)
	return party{Entity: h, addr: addr}
}

// makeNonCovered builds a recipient outside the program, which may be
// a person or an organization. Having no registry id, it is keyed by its
// name and address, or by the program year.
func makeNonCovered(row disclosure.Row) party {
	name := row.String("Noncovered_Recipient_Entity_Name")
	if fingerprint.IsEmpty(name) {
		return party{}
	}
	addr := makeAddress(row)
	key := row.String("Program_Year")
	if addr.Resolved() {
		key = addr.ID
	}
	e := disclosure.NewEntity(disclosure.LegalEntity, "")
	e.ID, _ = disclosure.MakeID("entity",
		disclosure.Token(disclosure.MakeEntityID(fingerprint.Generate(name), key)))
	e.Add("name", name)
	disclosure.AttachAddress(e, addr)
	return party{Entity: e, addr: addr}
}

// makeRecipient builds the recipient of a payment according to its type.
// An unknown type is an ErrUnknownVariant.
func makeRecipient(row disclosure.Row) (party, error) {
	switch typ := row.String("Recipient_Type"); {
	case typ == TypePhysician, typ == TypePractitioner:
		return makePerson(row), nil
	case typ == TypeHospital:
		return makeHospital(row), nil
	case strings.Contains(typ, TypeNonCovered):
		return makeNonCovered(row), nil
	default:
		return party{}, errors.Newf(errors.ErrUnknownVariant, "unknown recipient type: %q", typ)
	}
}

// makeCompany builds the manufacturer or purchasing organization making
// a payment.
func makeCompany(row disclosure.Row) *disclosure.Entity {
	c := disclosure.NewEntity(disclosure.Company, "")
	c.ID, _ = disclosure.MakeID("company", disclosure.Token(row.String(manufacturerIDCol)))
	c.Add("name", row.First(
		"Applicable_Manufacturer_or_Applicable_GPO_Making_Payment_Name",
		"Submitting_Applicable_Manufacturer_or_Applicable_GPO_Name"))
	c.Add("country", disclosure.CountryCode(row.String("Applicable_Manufacturer_or_Applicable_GPO_Making_Payment_Country")))
	return c
}

// primaryTypes returns the recipient's numbered primary types and
// specialties, or the unnumbered ones of older releases.
func primaryTypes(row disclosure.Row) []string {
	var out []string
	for i := 1; i <= 6; i++ {
		n := strconv.Itoa(i)
		out = append(out, row.String("Recipient_Primary_Type_"+n), row.String("Recipient_Specialty_"+n))
	}
	if joinNonEmpty("", out...) == "" {
		out = []string{row.String("Recipient_Primary_Type"), row.String("Recipient_Specialty")}
	}
	return out
}

// specialties returns the recipient's specialty, or the numbered ones of
// later releases. A specialty lists its levels separated by "|".
func specialties(row disclosure.Row) []string {
	if sp := row.String("Recipient_Specialty"); sp != "" {
		return []string{sp}
	}
	var out []string
	for i := 1; i <= 6; i++ {
		if sp := row.String("Recipient_Specialty_" + strconv.Itoa(i)); sp != "" {
			out = append(out, sp)
		}
	}
	return out
}

func joinNonEmpty(sep string, s ...string) string {
	var out []string
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}
