// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ukdisclosure reads Disclosure UK, the register of payments by
// pharmaceutical companies to UK healthcare organisations (HCO sheet) and
// professionals (HCP sheet).
package ukdisclosure

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/source"
)

func init() {
	datasets.Register(Dataset{})
}

// Title is the programme of the payments.
const Title = "Disclosure UK – Payments from the pharmaceutical industry"

// Sheets of a workbook; each has one title row above the header.
const (
	SheetHCO = "HCO"
	SheetHCP = "HCP"
)

// Columns maps the workbook headers onto canonical fields. Columns not
// named here hold amounts, the header being the purpose of the payment.
var Columns = disclosure.ColumnMap{
	{Prefix: "Pharma Company Name", Name: "company"},
	{Prefix: "Institution Name", Name: "institution"},
	{Prefix: "Country", Name: "country"},
	{Prefix: "Location", Name: "location"},
	{Prefix: "Address Line 1", Name: "street"},
	{Prefix: "Address Line 2", Name: "street2"},
	{Prefix: "City", Name: "city"},
	{Prefix: "Postcode", Name: "postcode"},
	{Prefix: "Year of Disclosure", Name: "year"},
	{Prefix: "Collaborative Working link", Name: "link"},
	{Prefix: "Joint Working Link", Name: "link"},
	{Prefix: "Title", Name: "title"},
	{Prefix: "First Name", Name: "firstName"},
	{Prefix: "Initial", Name: "initial"},
	{Prefix: "Last Name", Name: "lastName"},
	{Prefix: "Speciality", Name: "speciality"},
	{Prefix: "Role", Name: "role"},
}

var known = func() map[string]bool {
	m := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		m[c.Name] = true
	}
	return m
}()

// Schema is the row schema of both sheets.
var Schema = &disclosure.RowSchema{
	Columns: Columns,
	Fields: []disclosure.FieldSpec{
		{Name: "company", Required: true},
		{Name: "year", Type: disclosure.Date},
	},
}

// Dataset is Disclosure UK.
type Dataset struct{}

func (Dataset) Name() string  { return "ukdisclosure" }
func (Dataset) Title() string { return Title }
func (Dataset) URL() string   { return "https://www.abpi.org.uk/value-and-access/disclosure-uk/" }

// Plan returns an HCO and an HCP job for every workbook at path, inside
// zip archives or not.
func (Dataset) Plan(p string) ([]datasets.Job, error) {
	files, err := source.Glob(p, "*.zip", "*.xlsx")
	if err != nil {
		return nil, err
	}
	var jobs []datasets.Job
	for _, f := range files {
		if !source.IsZip(f) {
			jobs = append(jobs, workbookJobs(filepath.Base(f), openFile(f))...)
			continue
		}
		members, err := source.Members(f)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if strings.EqualFold(path.Ext(m), ".xlsx") {
				jobs = append(jobs, workbookJobs(filepath.Base(f)+":"+m, openMember(f, m))...)
			}
		}
	}
	return jobs, nil
}

func openFile(f string) func(ctx context.Context, label, sheet string) (source.Source, error) {
	return func(ctx context.Context, label, sheet string) (source.Source, error) {
		r, err := os.Open(f)
		if err != nil {
			return nil, errors.Wrap(errors.New(errors.ErrSourceDecode, err.Error()), label)
		}
		return source.OpenXLSX(label, r, sheet, 1)
	}
}

func openMember(f, member string) func(ctx context.Context, label, sheet string) (source.Source, error) {
	return func(ctx context.Context, label, sheet string) (source.Source, error) {
		r, err := source.OpenMember(f, member)
		if err != nil {
			return nil, err
		}
		return source.OpenXLSX(label, r, sheet, 1)
	}
}

func workbookJobs(label string, open func(ctx context.Context, label, sheet string) (source.Source, error)) []datasets.Job {
	job := func(sheet string, h func(context.Context, *disclosure.Emitter, disclosure.Row) error) datasets.Job {
		l := label + " " + sheet
		return datasets.Job{
			Label:    l,
			Open:     func(ctx context.Context) (source.Source, error) { return open(ctx, l, sheet) },
			Schema:   Schema,
			Handler:  h,
			KeyField: "institution",
		}
	}
	return []datasets.Job{job(SheetHCO, HandleHCO), job(SheetHCP, HandleHCP)}
}

// HandleHCO emits a payment from a company to a healthcare organisation.
func HandleHCO(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	company, err := emitCompany(ctx, em, row)
	if err != nil {
		return err
	}
	country := row.String("country")
	org := makeInstitution(em, row)
	addr := makeAddress(row, country)
	disclosure.AttachAddress(org, addr)
	if err := em.EmitAll(ctx, addr, org); err != nil {
		return err
	}
	return emitPayments(ctx, em, company, org, row)
}

// HandleHCP emits a payment from a company to a healthcare professional,
// and the professional's membership of their institution.
func HandleHCP(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	company, err := emitCompany(ctx, em, row)
	if err != nil {
		return err
	}
	inst := makeInstitution(em, row)
	if err := em.Emit(ctx, inst); err != nil {
		return err
	}

	title, first, initial, last := row.String("title"), row.String("firstName"), row.String("initial"), row.String("lastName")
	name := joinText(title, first, initial, last)
	person := em.Make(disclosure.Person)
	person.ID, _ = disclosure.MakeID("hcp", disclosure.Text(name), disclosure.Token(inst.ID))
	person.Add("name", name)
	person.Add("title", title)
	person.Add("firstName", first)
	person.Add("middleName", initial)
	person.Add("lastName", last)
	person.Add("country", inst.Get("country")...)
	person.Add("description", row.String("speciality"))
	addr := makeAddress(row, inst.First("country"))
	disclosure.AttachAddress(person, addr)
	if err := em.EmitAll(ctx, addr, person); err != nil {
		return err
	}

	if inst.Resolved() {
		rel := disclosure.Link(disclosure.Membership, []disclosure.Endpoint{
			disclosure.Required("member", person.ID),
			disclosure.Required("organization", inst.ID),
		})
		if rel != nil {
			rel.Add("role", row.String("role"))
		}
		if err := em.Emit(ctx, rel); err != nil {
			return err
		}
	}
	return emitPayments(ctx, em, company, person, row)
}

func emitCompany(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) (*disclosure.Entity, error) {
	c := em.Make(disclosure.Company)
	c.ID, _ = disclosure.MakeID("company", disclosure.Text(row.String("company")))
	c.Add("name", row.String("company"))
	c.Add("country", "gb")
	return c, em.Emit(ctx, c)
}

// makeInstitution returns the institution of a row, unresolved for
// professionals without one.
func makeInstitution(em *disclosure.Emitter, row disclosure.Row) *disclosure.Entity {
	org := em.Make(disclosure.Organization)
	org.ID, _ = disclosure.MakeID("hco", disclosure.Text(row.String("institution")))
	org.Add("name", row.String("institution"))
	org.Add("country", disclosure.CountryCode(row.String("country")))
	return org
}

func makeAddress(row disclosure.Row, country string) *disclosure.Entity {
	return disclosure.MakeAddress(disclosure.AddressParts{
		Remarks:    row.String("location"),
		Street:     row.String("street"),
		Street2:    row.String("street2"),
		City:       row.String("city"),
		PostalCode: row.String("postcode"),
		Country:    country,
	})
}

// emitPayments emits one payment per positive amount column.
func emitPayments(ctx context.Context, em *disclosure.Emitter, payer, beneficiary *disclosure.Entity, row disclosure.Row) error {
	year := row.String("year")
	for _, col := range row.Columns() {
		if known[col] || col == "" || strings.HasPrefix(col, "Unnamed") {
			continue
		}
		amount, ok := row.Decimal(col)
		if !ok {
			continue
		}
		if f, _ := strconv.ParseFloat(amount, 64); f <= 0 {
			continue
		}
		p := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
			disclosure.Required("payer", payer.ID),
			disclosure.Optional("beneficiary", beneficiary.ID),
		}, disclosure.Token(year), disclosure.Token(col), disclosure.Token(amount))
		if p == nil {
			return nil
		}
		p.Add("amount", amount)
		p.Add("currency", "GBP")
		p.Add("date", year)
		p.Add("purpose", col)
		p.Add("programme", Title)
		p.Add("sourceUrl", row.String("link"))
		if err := em.Emit(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func joinText(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
