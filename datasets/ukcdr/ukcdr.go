// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ukcdr reads the UKCDR COVID-19 research project tracker: funded
// projects, their lead institutions and principal investigators.
package ukcdr

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
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

// Sheet is the worksheet holding the projects.
const Sheet = "Funded Research Projects"

// Columns maps the tracker's headers onto canonical fields.
var Columns = disclosure.ColumnMap{
	{Prefix: "Funder Project ID/Reference Number", Name: "funderId"},
	{Prefix: "Unique database reference number", Name: "whoId"},
	{Prefix: "Project Title", Name: "title"},
	{Prefix: "PRIMARY WHO Research Priority Area Name(s)", Name: "primaryArea"},
	{Prefix: "SECONDARY WHO Research Priority Area Name(s)", Name: "secondaryArea"},
	{Prefix: "Study Population", Name: "population"},
	{Prefix: "Amount Awarded converted to USD", Name: "amountUsd"},
	{Prefix: "Amount Awarded", Name: "amount"},
	{Prefix: "Currency", Name: "currency"},
	{Prefix: "Country/ countries research is being are conducted", Name: "countries"},
	{Prefix: "Start Date", Name: "startDate"},
	{Prefix: "End Date", Name: "endDate"},
	{Prefix: "Abstract", Name: "abstract"},
	{Prefix: "Lay Summary", Name: "laySummary"},
	{Prefix: "Notes", Name: "notes"},
	{Prefix: "Lead Institution", Name: "institution"},
	{Prefix: "Principal Investigator (PI)", Name: "investigators"},
	{Prefix: "PI First Name", Name: "piFirstName"},
	{Prefix: "PI Last Name", Name: "piLastName"},
	{Prefix: "PI Title", Name: "piTitle"},
}

// Schema is the row schema of the tracker. The tracker writes "unknown"
// for missing values.
var Schema = &disclosure.RowSchema{
	Columns: Columns,
	Fields: []disclosure.FieldSpec{
		{Name: "amount", Type: disclosure.Decimal},
		{Name: "amountUsd", Type: disclosure.Decimal},
		{Name: "startDate", Type: disclosure.Date},
		{Name: "endDate", Type: disclosure.Date},
	},
	Nulls: append(append([]string{}, disclosure.DefaultNulls...), "unknown"),
}

// Dataset is the research project tracker.
type Dataset struct{}

func (Dataset) Name() string  { return "ukcdr" }
func (Dataset) Title() string { return "UKCDR COVID-19 Research Project Tracker" }
func (Dataset) URL() string {
	return "https://www.ukcdr.org.uk/covid-circle/covid-19-research-project-tracker/"
}

// Plan returns a job per tracker workbook at path.
func (Dataset) Plan(path string) ([]datasets.Job, error) {
	files, err := source.Glob(path, "*.xlsx")
	if err != nil {
		return nil, err
	}
	var jobs []datasets.Job
	for _, f := range files {
		f, label := f, filepath.Base(f)
		jobs = append(jobs, datasets.Job{
			Label: label,
			Open: func(ctx context.Context) (source.Source, error) {
				r, err := os.Open(f)
				if err != nil {
					return nil, errors.Wrap(errors.New(errors.ErrSourceDecode, err.Error()), label)
				}
				return source.OpenXLSX(label, r, Sheet, 0)
			},
			Schema:   Schema,
			Handler:  Handle,
			Interval: 1000,
			KeyField: "whoId",
		})
	}
	return jobs, nil
}

// Handle emits the project of a row, then its lead institution and
// investigators, each followed by their participation in the project.
func Handle(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	project := makeProject(em, row)
	if err := em.Emit(ctx, project); err != nil {
		return err
	}

	ids := project.Get("projectId")
	sort.Strings(ids)
	personKey := ""
	if len(ids) > 0 {
		personKey = fingerprint.Generate(ids[0])
	}

	if name, code := InstitutionName(row.String("institution")); !fingerprint.IsEmpty(name) {
		inst := em.Make(disclosure.Organization)
		inst.ID, _ = disclosure.MakeID("org", disclosure.Text(name))
		inst.Add("name", name)
		inst.Add("country", code)
		if err := em.Emit(ctx, inst); err != nil {
			return err
		}
		if err := em.Emit(ctx, participation(project, inst, "LEAD INSTITUTION")); err != nil {
			return err
		}
		personKey = inst.ID
	}

	pis := row.String("investigators")
	sep := ","
	if strings.Contains(pis, ";") {
		sep = ";"
	}
	if fingerprint.IsEmpty(pis) {
		return nil
	}
	for i, name := range strings.Split(pis, sep) {
		name = strings.TrimSpace(name)
		person := em.Make(disclosure.Person)
		person.ID, _ = disclosure.MakeID("investigator", disclosure.NameText(name), disclosure.Token(personKey))
		person.Add("name", name)
		person.Add("firstName", pick(row.String("piFirstName"), i))
		person.Add("lastName", pick(row.String("piLastName"), i))
		person.Add("title", pick(row.String("piTitle"), i))
		if err := em.Emit(ctx, person); err != nil {
			return err
		}
		if err := em.Emit(ctx, participation(project, person, "PRINCIPAL INVESTIGATOR")); err != nil {
			return err
		}
	}
	return nil
}

func makeProject(em *disclosure.Emitter, row disclosure.Row) *disclosure.Entity {
	p := em.Make(disclosure.Project)
	p.ID, _ = disclosure.MakeID("project", disclosure.Token(row.First("funderId", "whoId")))
	p.Add("name", row.String("title"))
	p.Add("projectId", row.String("funderId"), row.String("whoId"))
	p.Add("keywords", row.String("primaryArea"), row.String("secondaryArea"), row.String("population"))
	p.Add("amount", row.String("amount"))
	p.Add("currency", row.String("currency"))
	p.Add("amountUsd", row.String("amountUsd"))
	for _, c := range strings.Split(row.String("countries"), ",") {
		if code := disclosure.CountryCode(c); code != "" {
			p.Add("country", code)
		}
	}
	p.Add("startDate", row.String("startDate"))
	p.Add("endDate", row.String("endDate"))
	p.Add("summary", row.String("abstract"), row.String("laySummary"))
	p.Add("notes", row.String("notes"))
	return p
}

func participation(project, participant *disclosure.Entity, role string) *disclosure.Entity {
	rel := disclosure.Link(disclosure.ProjectParticipant, []disclosure.Endpoint{
		disclosure.Required("project", project.ID),
		disclosure.Required("participant", participant.ID),
	})
	if rel == nil {
		return nil
	}
	rel.Add("role", role)
	rel.Add("startDate", project.Get("startDate")...)
	rel.Add("endDate", project.Get("endDate")...)
	return rel
}

var institutionCountry = regexp.MustCompile(`^(.*)\s\((\w{2})\)`)

// InstitutionName splits a lead institution into its name and country
// code. The tracker writes "Name, Country" or "Name (CC) ...".
func InstitutionName(s string) (name, country string) {
	parts := strings.Split(s, ",")
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), disclosure.CountryCode(parts[1])
	}
	if m := institutionCountry.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), disclosure.CountryCode(m[2])
	}
	return strings.TrimSpace(parts[0]), ""
}

// pick returns the i-th comma separated value of s.
func pick(s string, i int) string {
	names := strings.Split(s, ",")
	if i < len(names) {
		return strings.TrimSpace(names[i])
	}
	return ""
}
