// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"io"
	"strings"

	"github.com/molecula/disclosure/errors"
	"github.com/xuri/excelize/v2"
)

// Ensure XLSX implements interface.
var _ Source = &XLSX{}

// XLSX reads records from one sheet of a workbook. The first row after
// the skipped ones is the header.
type XLSX struct {
	label  string
	file   *excelize.File
	rows   *excelize.Rows
	header []string

	ordinal int64
}

// OpenXLSX reads the workbook from r and positions the source at the first
// data row of sheet, after skipping skip leading rows.
func OpenXLSX(label string, r io.Reader, sheet string, skip int) (*XLSX, error) {
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, decodeError(err, "opening workbook "+label)
	}
	s := &XLSX{label: label, file: f}

	found := false
	for _, name := range f.GetSheetList() {
		if name == sheet {
			found = true
			break
		}
	}
	if !found {
		f.Close()
		return nil, errors.Wrap(errors.Newf(errors.ErrSourceDecode, "no sheet %q", sheet), label)
	}

	if s.rows, err = f.Rows(sheet); err != nil {
		f.Close()
		return nil, decodeError(err, "reading sheet "+sheet)
	}
	for i := 0; i <= skip; i++ {
		if !s.rows.Next() {
			// Empty sheet.
			return s, nil
		}
		if i < skip {
			continue
		}
		header, err := s.rows.Columns()
		if err != nil {
			s.Close()
			return nil, decodeError(err, "reading header of "+sheet)
		}
		for j := range header {
			header[j] = strings.TrimSpace(header[j])
		}
		s.header = header
	}
	return s, nil
}

// Label implements Source.
func (s *XLSX) Label() string { return s.label }

// Header returns the column names.
func (s *XLSX) Header() []string { return s.header }

// Record implements Source.
func (s *XLSX) Record() (*Record, error) {
	if s.header == nil {
		return nil, io.EOF
	}
	for s.rows.Next() {
		cols, err := s.rows.Columns()
		if err != nil {
			return nil, decodeError(err, "reading "+s.label)
		}
		if blank(cols) {
			continue
		}
		s.ordinal++
		values := make([]string, len(s.header))
		copy(values, cols)
		return &Record{Ordinal: s.ordinal, Header: s.header, Values: values}, nil
	}
	if err := s.rows.Error(); err != nil {
		return nil, decodeError(err, "reading "+s.label)
	}
	return nil, io.EOF
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Close releases the workbook.
func (s *XLSX) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
	}
	return s.file.Close()
}
