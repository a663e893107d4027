// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package payments reads a plain table of payments from organizations to
// named people, one payment per row.
package payments

import (
	"context"
	"path/filepath"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/source"
)

func init() {
	datasets.Register(Dataset{})
}

// Title is used as the programme of the payments.
const Title = "Payments to health professionals"

// Columns folds common header spellings onto the canonical fields.
var Columns = disclosure.ColumnMap{
	{Prefix: "Recipient Name", Name: "name"},
	{Prefix: "Name", Name: "name"},
	{Prefix: "Organization", Name: "org"},
	{Prefix: "Organisation", Name: "org"},
	{Prefix: "Payer", Name: "org"},
	{Prefix: "Country", Name: "country"},
	{Prefix: "Amount", Name: "amount"},
	{Prefix: "Currency", Name: "currency"},
	{Prefix: "Date", Name: "date"},
	{Prefix: "Purpose", Name: "purpose"},
}

// Schema is the row schema of a payments table.
var Schema = &disclosure.RowSchema{
	Columns: Columns,
	Fields: []disclosure.FieldSpec{
		{Name: "amount", Type: disclosure.Decimal},
		{Name: "date", Type: disclosure.Date},
	},
}

// Dataset is the payments dataset.
type Dataset struct{}

func (Dataset) Name() string  { return "payments" }
func (Dataset) Title() string { return Title }
func (Dataset) URL() string   { return "" }

// Plan returns one job per CSV file at path.
func (Dataset) Plan(path string) ([]datasets.Job, error) {
	files, err := source.Glob(path, "*.csv", "*.csv.gz")
	if err != nil {
		return nil, err
	}
	jobs := make([]datasets.Job, 0, len(files))
	for _, f := range files {
		label := filepath.Base(f)
		jobs = append(jobs, datasets.Job{
			Label:   label,
			Open:    datasets.OpenCSV(f, label, nil),
			Schema:  Schema,
			Handler: Handle,
		})
	}
	return jobs, nil
}

// Handle emits the person paid, the paying organization and the payment
// between them.
func Handle(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	country := disclosure.CountryCode(row.String("country"))

	person := em.Make(disclosure.Person)
	person.ID, _ = disclosure.MakeID("physician", disclosure.NameText(row.String("name")))
	person.Add("name", row.String("name"))
	person.Add("country", country)

	org := em.Make(disclosure.Organization)
	org.ID, _ = disclosure.MakeID("org", disclosure.Text(row.String("org")), disclosure.Token(country))
	org.Add("name", row.String("org"))
	org.Add("country", country)

	if err := em.EmitAll(ctx, person, org); err != nil {
		return err
	}

	amount, _ := row.Decimal("amount")
	currency := row.String("currency")
	payment := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", org.ID),
		disclosure.Optional("beneficiary", person.ID),
	}, disclosure.Token(amount), disclosure.Token(currency), disclosure.Token(row.String("date")),
		disclosure.Text(row.String("purpose")))
	if payment == nil {
		return nil
	}
	payment.Add("amount", amount)
	payment.Add("currency", currency)
	payment.Add("date", row.String("date"))
	payment.Add("purpose", row.String("purpose"))
	payment.Add("programme", Title)
	return em.Emit(ctx, payment)
}
