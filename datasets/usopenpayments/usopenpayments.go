// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package usopenpayments reads CMS Open Payments, the US register of
// payments and ownership interests linking drug and device manufacturers
// to physicians, practitioners and teaching hospitals.
//
// A yearly release is a set of zip archives. Each CSV member is one of
// four file kinds, recognized by a marker in its name: general payments,
// research payments, ownership interests and the physician profile
// supplement.
package usopenpayments

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/source"
)

func init() {
	datasets.Register(Dataset{})
}

// Title is the name of the register.
const Title = "CMS Open Payments"

// Columns folds the header variants of the releases onto the names used
// by the handlers. Releases before 2021 say "Physician" where later ones
// say "Covered_Recipient".
var Columns = disclosure.ColumnMap{
	{Prefix: "Recipient_Primary_Business_Street_Address_Line1", Name: "Recipient_Address_Line_1"},
	{Prefix: "Recipient_Primary_Business_Street_Address_Line2", Name: "Recipient_Address_Line_2"},
	{Prefix: "Physician_Primary_Business_Street_Address_Line1", Name: "Recipient_Address_Line_1"},
	{Prefix: "Physician_Primary_Business_Street_Address_Line2", Name: "Recipient_Address_Line_2"},
	{Prefix: "Covered_Recipient_Profile_Primary_Specialty", Name: "Recipient_Specialty"},
	{Prefix: "Covered_Recipient_Profile_Country_Name", Name: "Recipient_Country"},
	{Prefix: "Covered_Recipient_Profile", Name: "Recipient"},
	{Prefix: "Physician_Profile", Name: "Recipient"},
	{Prefix: "Covered_Recipient", Name: "Recipient"},
	{Prefix: "Physician", Name: "Recipient"},
}

var typedFields = []disclosure.FieldSpec{
	{Name: "Total_Amount_of_Payment_USDollars", Type: disclosure.Decimal},
	{Name: "Total_Amount_Invested_USDollars", Type: disclosure.Decimal},
	{Name: "Value_of_Interest", Type: disclosure.Decimal},
	{Name: "Date_of_Payment", Type: disclosure.Date},
	{Name: "Program_Year", Type: disclosure.Date},
}

func schema(required ...string) *disclosure.RowSchema {
	s := &disclosure.RowSchema{Columns: Columns}
	for _, r := range required {
		s.Fields = append(s.Fields, disclosure.FieldSpec{Name: r, Required: true})
	}
	s.Fields = append(s.Fields, typedFields...)
	return s
}

// Kind is one of the file kinds of a release.
type Kind struct {
	// Marker is the part of the file name identifying the kind.
	Marker   string
	Handler  func(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error
	Schema   *disclosure.RowSchema
	KeyField string
}

// Kinds are the file kinds, in the order they are matched against file
// names.
var Kinds = []Kind{
	{Marker: "PRFL_SPLMTL", Handler: HandleProfile, Schema: schema("Recipient_ID"), KeyField: "Recipient_ID"},
	{Marker: "OWNRSHP", Handler: HandleOwnership, Schema: schema("Record_ID"), KeyField: "Record_ID"},
	{Marker: "RSRCH", Handler: HandleResearch, Schema: schema("Record_ID"), KeyField: "Record_ID"},
	{Marker: "GNRL", Handler: HandleGeneral, Schema: schema("Record_ID"), KeyField: "Record_ID"},
}

// KindOf returns the kind of the named file.
func KindOf(name string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.Contains(name, k.Marker) {
			return k, true
		}
	}
	return Kind{}, false
}

// Dataset is CMS Open Payments.
type Dataset struct{}

func (Dataset) Name() string  { return "usopenpayments" }
func (Dataset) Title() string { return Title }
func (Dataset) URL() string {
	return "https://www.cms.gov/priorities/key-initiatives/open-payments/data/dataset-downloads"
}

// Plan returns a job per CSV member of the release archives at p. Plain
// CSV files are accepted too. Members of an unknown kind, such as the
// README, yield jobs failing with ErrUnknownVariant.
func (Dataset) Plan(p string) ([]datasets.Job, error) {
	files, err := source.Glob(p, "*.zip", "*.csv")
	if err != nil {
		return nil, err
	}
	var jobs []datasets.Job
	for _, f := range files {
		if !source.IsZip(f) {
			label := filepath.Base(f)
			jobs = append(jobs, job(label, label, datasets.OpenCSV(f, label, nil)))
			continue
		}
		members, err := source.Members(f)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if !strings.EqualFold(path.Ext(m), ".csv") {
				continue
			}
			label := filepath.Base(f) + ":" + m
			jobs = append(jobs, job(path.Base(m), label, datasets.OpenZipCSV(f, m, label, nil)))
		}
	}
	return jobs, nil
}

func job(name, label string, open func(context.Context) (source.Source, error)) datasets.Job {
	kind, ok := KindOf(name)
	if !ok {
		return datasets.Job{
			Label: label,
			Open: func(context.Context) (source.Source, error) {
				return nil, errors.Newf(errors.ErrUnknownVariant, "no handler for file `%s`", name)
			},
		}
	}
	return datasets.Job{
		Label:    label,
		Open:     open,
		Schema:   kind.Schema,
		Handler:  kind.Handler,
		KeyField: kind.KeyField,
	}
}
