// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package europepmc reads the Europe PMC table cross-referencing PubMed,
// PubMed Central and DOI identifiers.
package europepmc

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

// Header names the columns of the table, whose own header row is
// skipped.
var Header = []string{"pmid", "pmc", "doi"}

// Dataset is the Europe PMC identifier table.
type Dataset struct{}

func (Dataset) Name() string  { return "europepmc" }
func (Dataset) Title() string { return "Europe PMC article identifiers" }
func (Dataset) URL() string {
	return "https://europepmc.org/pub/databases/pmc/DOI/PMID_PMCID_DOI.csv.gz"
}

// Plan returns a job for each identifier table at path.
func (Dataset) Plan(path string) ([]datasets.Job, error) {
	files, err := source.Glob(path, "*.csv", "*.csv.gz")
	if err != nil {
		return nil, err
	}
	var jobs []datasets.Job
	for _, f := range files {
		label := filepath.Base(f)
		jobs = append(jobs, datasets.Job{
			Label: label,
			Open: datasets.OpenCSV(f, label, func(s *source.CSV) {
				s.Header = Header
				s.SkipHeader = true
			}),
			Schema:  &disclosure.RowSchema{},
			Handler: Handle,
		})
	}
	return jobs, nil
}

// Handle emits the article of one row.
func Handle(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error {
	return em.Emit(ctx, datasets.MakeArticle(datasets.ArticleRefs{
		PMID:  row.String("pmid"),
		PMCID: row.String("pmc"),
		DOI:   row.String("doi"),
	}))
}
