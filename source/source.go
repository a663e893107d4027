// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package source reads tabular records from CSV and XLSX files, locally,
// over HTTP or from S3, optionally inside zip or gzip archives.
package source

import (
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/logger"
)

// Source is a single forward pass over the records of one table.
type Source interface {
	// Record returns the next record, or io.EOF after the last one. Any
	// other error means the table cannot be read further.
	Record() (*Record, error)
	// Label names the table in logs and progress reports.
	Label() string
	Close() error
}

// Logged is implemented by sources which log recoverable problems, such
// as rows wider than the header.
type Logged interface {
	SetLogger(log logger.Logger)
}

// Record is one row of a table. Values has one entry per header column;
// missing cells are empty strings.
type Record struct {
	Ordinal int64
	Header  []string
	Values  []string
}

// Map returns the record as column name to value. Later duplicate columns
// do not override earlier ones.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.Header))
	for i, h := range r.Header {
		if _, ok := m[h]; ok {
			continue
		}
		if i < len(r.Values) {
			m[h] = r.Values[i]
		} else {
			m[h] = ""
		}
	}
	return m
}

func decodeError(err error, label string) error {
	return errors.Wrap(errors.New(errors.ErrSourceDecode, err.Error()), label)
}
