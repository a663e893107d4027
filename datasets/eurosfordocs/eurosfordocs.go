// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package eurosfordocs reads the eurosfordocs.eu compilation of European
// transparency registers of payments by the pharmaceutical industry.
package eurosfordocs

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/fingerprint"
	"github.com/molecula/disclosure/source"
)

func init() {
	datasets.Register(Dataset{})
}

// Title is the programme of the payments.
const Title = "eurosfordocs – Payments from the pharmaceutical industry"

// Columns folds the column variants of the national exports onto
// canonical fields.
var Columns = disclosure.ColumnMap{
	{Prefix: "clean_source_organization_id", Name: "payerId"},
	{Prefix: "source_organisation_full_name", Name: "payerName"},
	{Prefix: "recipient_entity_id", Name: "recipientId"},
	{Prefix: "recipient_id", Name: "recipientId"},
	{Prefix: "recipient_entity_is_person", Name: "isPerson"},
	{Prefix: "recipient_entity_full_name", Name: "recipientName"},
	{Prefix: "recipient_full_name", Name: "recipientName"},
	{Prefix: "recipient_entity_type", Name: "recipientType"},
	{Prefix: "recipient_entity_city", Name: "city"},
	{Prefix: "recipient_city", Name: "city"},
	{Prefix: "publication_country", Name: "country"},
	{Prefix: "publication_url", Name: "sourceUrl"},
	{Prefix: "value_total_amount_eur", Name: "amountEur"},
	{Prefix: "value_total_amount", Name: "amount"},
	{Prefix: "link_id", Name: "linkId"},
}

// Schema is the row schema of the exports.
var Schema = &disclosure.RowSchema{
	Columns: Columns,
	Fields: []disclosure.FieldSpec{
		{Name: "linkId", Required: true},
		{Name: "amount", Type: disclosure.Decimal},
		{Name: "amountEur", Type: disclosure.Decimal},
		{Name: "year", Type: disclosure.Date},
		{Name: "isPerson", Type: disclosure.Bool},
	},
}

// Dataset is eurosfordocs.
type Dataset struct{}

func (Dataset) Name() string  { return "eurosfordocs" }
func (Dataset) Title() string { return Title }
func (Dataset) URL() string   { return "https://www.eurosfordocs.eu/" }

// Plan returns a job per CSV file at path, inside zip archives or not.
func (Dataset) Plan(p string) ([]datasets.Job, error) {
	files, err := source.Glob(p, "*.zip", "*.csv")
	if err != nil {
		return nil, err
	}
	var jobs []datasets.Job
	for _, f := range files {
		if !source.IsZip(f) {
			label := filepath.Base(f)
			jobs = append(jobs, job(label, datasets.OpenCSV(f, label, nil)))
			continue
		}
		members, err := source.Members(f)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if strings.EqualFold(path.Ext(m), ".csv") {
				label := filepath.Base(f) + ":" + m
				jobs = append(jobs, job(label, datasets.OpenZipCSV(f, m, label, nil)))
			}
		}
	}
	return jobs, nil
}

func job(label string, open func(context.Context) (source.Source, error)) datasets.Job {
	return datasets.Job{
		Label:    label,
		Open:     open,
		Schema:   Schema,
		Handler:  Handle,
		KeyField: "linkId",
	}
}

// Handle emits the paying organization, the beneficiary with its city and
// the payment. Rows without a valid country are skipped.
func Handle(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	country := disclosure.CountryCode(row.String("country"))
	if country == "" {
		return errors.Newf(errors.ErrUnknownVariant, "invalid country %q", row.String("country"))
	}

	payer := em.Make(disclosure.Organization)
	payer.ID, _ = disclosure.MakeID("payer", disclosure.Token(row.String("payerId")))
	payer.Add("name", row.String("payerName"))
	payer.Add("country", country)
	if err := em.Emit(ctx, payer); err != nil {
		return err
	}

	beneficiary, err := emitBeneficiary(ctx, em, row, country)
	if err != nil {
		return err
	}

	payment := disclosure.Link(disclosure.Payment, []disclosure.Endpoint{
		disclosure.Required("payer", payer.ID),
		disclosure.Optional("beneficiary", beneficiary.ID),
	}, disclosure.Token(row.String("linkId")))
	if payment == nil {
		return nil
	}
	payment.Add("date", row.String("year"))
	payment.Add("purpose", row.String("type"), row.String("category"))
	payment.Add("amount", row.String("amount"))
	payment.Add("currency", row.String("currency"))
	payment.Add("amountEur", row.String("amountEur"))
	payment.Add("programme", Title)
	payment.Add("sourceUrl", row.String("sourceUrl"))
	payment.Add("recordId", row.String("linkId"))
	return em.Emit(ctx, payment)
}

// emitBeneficiary emits the recipient of a payment, a person or an
// organization. It is unresolved when the row has no recipient id.
func emitBeneficiary(ctx context.Context, em *disclosure.Emitter, row disclosure.Row, country string) (*disclosure.Entity, error) {
	schema, ns := disclosure.Organization, "hco"
	if person, _ := row.Bool("isPerson"); person {
		schema, ns = disclosure.Person, "hcp"
	}
	b := em.Make(schema)
	b.ID, _ = disclosure.MakeID(ns, disclosure.Token(row.String("recipientId")))
	if !b.Resolved() {
		return b, nil
	}
	b.Add("name", row.String("recipientName"))
	if schema != disclosure.Person {
		b.Add("legalForm", row.String("recipientType"))
	}
	b.Add("country", country)

	if city := row.String("city"); !fingerprint.IsEmpty(city) {
		addr := disclosure.MakeAddress(disclosure.AddressParts{
			City:        city,
			Country:     disclosure.CountryName(country),
			CountryCode: country,
		})
		if err := em.Emit(ctx, addr); err != nil {
			return nil, err
		}
		disclosure.AttachAddress(b, addr)
	}
	return b, em.Emit(ctx, b)
}
