// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package pubmed reads the PubMed Central id table, which relates
// articles to the journals publishing them.
package pubmed

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

// Columns maps the published header onto canonical fields.
var Columns = disclosure.ColumnMap{
	{Prefix: "Journal Title", Name: "journal"},
	{Prefix: "ISSN", Name: "issn"},
	{Prefix: "eISSN", Name: "eissn"},
	{Prefix: "Year", Name: "year"},
	{Prefix: "DOI", Name: "doi"},
	{Prefix: "PMCID", Name: "pmc"},
	{Prefix: "PMID", Name: "pmid"},
	{Prefix: "Release Date", Name: "released"},
}

// Schema is the row schema of the table.
var Schema = &disclosure.RowSchema{
	Columns: Columns,
	Fields: []disclosure.FieldSpec{
		{Name: "year", Type: disclosure.Date},
	},
}

// Dataset is the PMC id table.
type Dataset struct{}

func (Dataset) Name() string  { return "pubmed" }
func (Dataset) Title() string { return "PubMed Central article ids" }
func (Dataset) URL() string   { return "https://ftp.ncbi.nlm.nih.gov/pub/pmc/PMC-ids.csv.gz" }

// Plan returns a job for each table at path.
func (Dataset) Plan(path string) ([]datasets.Job, error) {
	files, err := source.Glob(path, "*.csv", "*.csv.gz")
	if err != nil {
		return nil, err
	}
	var jobs []datasets.Job
	for _, f := range files {
		label := filepath.Base(f)
		jobs = append(jobs, datasets.Job{
			Label:    label,
			Open:     datasets.OpenCSV(f, label, nil),
			Schema:   Schema,
			Handler:  Handle,
			KeyField: "pmc",
		})
	}
	return jobs, nil
}

// Handle emits the article, its journal and the publication linking
// them.
func Handle(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	year := row.String("year")

	article := datasets.MakeArticle(datasets.ArticleRefs{
		PMID:  row.String("pmid"),
		PMCID: row.String("pmc"),
		DOI:   row.String("doi"),
	})
	article.Add("publishedAt", year)

	journal := em.Make(disclosure.Journal)
	journal.ID, _ = disclosure.MakeID("journal", disclosure.Text(row.String("journal")))
	journal.Add("name", row.String("journal"))
	journal.Add("issn", row.String("issn"), row.String("eissn"))

	if err := em.EmitAll(ctx, article, journal); err != nil {
		return err
	}
	if !article.Resolved() || !journal.Resolved() {
		return nil
	}
	pub := disclosure.Link(disclosure.Publication, []disclosure.Endpoint{
		disclosure.Required("journal", journal.ID),
		disclosure.Required("article", article.ID),
	})
	pub.Add("date", year)
	return em.Emit(ctx, pub)
}
