// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package datasets describes how each supported public-disclosure dataset
// is read. A Dataset plans Jobs, one per table found at a path; a Runner
// runs them into a sink.
//
// Datasets register themselves from their package's init function, so
// programs import the dataset packages they support for their side
// effects.
package datasets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/pipeline"
	"github.com/molecula/disclosure/source"
)

// Dataset plans the processing of one kind of source data.
type Dataset interface {
	// Name is the dataset's command line name.
	Name() string
	// Title is a human readable name, used as the payment programme where
	// the source has none.
	Title() string
	// URL is where the data is published, used when no input is given.
	URL() string
	// Plan returns the jobs reading the data at path, a local file or a
	// directory.
	Plan(path string) ([]Job, error)
}

// Job is one table of a dataset.
type Job struct {
	Label    string
	Open     func(ctx context.Context) (source.Source, error)
	Schema   *disclosure.RowSchema
	Handler  pipeline.Handler
	Interval int64
	KeyField string
}

// WithColumns returns a copy of j whose column rules m are tried before
// the default ones.
func (j Job) WithColumns(m disclosure.ColumnMap) Job {
	if len(m) == 0 {
		return j
	}
	schema := disclosure.RowSchema{}
	if j.Schema != nil {
		schema = *j.Schema
	}
	cols := make(disclosure.ColumnMap, 0, len(m)+len(schema.Columns))
	cols = append(cols, m...)
	schema.Columns = append(cols, schema.Columns...)
	j.Schema = &schema
	return j
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Dataset)
)

// Register makes a dataset available by name. It panics if the name is
// taken.
func Register(d Dataset) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[d.Name()]; dup {
		panic(fmt.Sprintf("datasets: Register called twice for %s", d.Name()))
	}
	registry[d.Name()] = d
}

// Lookup returns the dataset registered under name.
func Lookup(name string) (Dataset, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Names returns the names of all registered datasets, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OpenCSV returns a Job.Open function reading the CSV file at path,
// decompressing it if it ends in .gz. configure, if not nil, adjusts the
// source before the first record is read.
func OpenCSV(path, label string, configure func(*source.CSV)) func(context.Context) (source.Source, error) {
	return func(ctx context.Context) (source.Source, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, decodeError(err, label)
		}
		rc, err := source.Decompress(path, f)
		if err != nil {
			return nil, err
		}
		s := source.NewCSV(label, rc)
		if configure != nil {
			configure(s)
		}
		return s, nil
	}
}

// OpenZipCSV is OpenCSV for a member of a zip archive.
func OpenZipCSV(path, member, label string, configure func(*source.CSV)) func(context.Context) (source.Source, error) {
	return func(ctx context.Context) (source.Source, error) {
		rc, err := source.OpenMember(path, member)
		if err != nil {
			return nil, err
		}
		s := source.NewCSV(label, rc)
		if configure != nil {
			configure(s)
		}
		return s, nil
	}
}
