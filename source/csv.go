// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"encoding/csv"
	"io"
	"strings"
	"sync"

	"github.com/molecula/disclosure/logger"
)

// Ensure CSV implements interfaces.
var (
	_ Source = &CSV{}
	_ Logged = &CSV{}
)

// CSV reads records from comma separated text. The first row is the
// header unless Header is set.
type CSV struct {
	// Header, if set, names the columns; the file's first row is then
	// read as data unless SkipHeader is also set.
	Header     []string
	SkipHeader bool
	Comma      rune
	Log        logger.Logger

	label   string
	r       io.Reader
	c       io.Closer
	reader  *csv.Reader
	once    sync.Once
	initErr error
	header  []string
	ordinal int64
	extra   int
}

// NewCSV returns a CSV source reading r. If r is an io.Closer it is closed
// by Close.
func NewCSV(label string, r io.Reader) *CSV {
	s := &CSV{
		label: label,
		r:     r,
		Comma: ',',
		Log:   logger.NopLogger,
	}
	if c, ok := r.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Label implements Source.
func (s *CSV) Label() string { return s.label }

// SetLogger implements Logged.
func (s *CSV) SetLogger(log logger.Logger) { s.Log = log }

func (s *CSV) init() error {
	s.reader = csv.NewReader(s.r)
	s.reader.Comma = s.Comma
	s.reader.LazyQuotes = true
	s.reader.FieldsPerRecord = -1

	if len(s.Header) > 0 {
		s.header = s.Header
		if !s.SkipHeader {
			return nil
		}
	}
	header, err := s.reader.Read()
	if err == io.EOF {
		return io.EOF
	} else if err != nil {
		return decodeError(err, "reading header from "+s.label)
	}
	if s.header == nil {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
		s.header = header
	}
	return nil
}

// Record implements Source.
func (s *CSV) Record() (*Record, error) {
	s.once.Do(func() { s.initErr = s.init() })
	if s.initErr != nil {
		return nil, s.initErr
	}

	row, err := s.reader.Read()
	if err == io.EOF {
		if s.extra > 0 {
			s.Log.Printf("Processing '%s': %d rows have more columns than header specification", s.label, s.extra)
			s.extra = 0
		}
		return nil, io.EOF
	} else if err != nil {
		return nil, decodeError(err, "reading "+s.label)
	}
	s.ordinal++

	values := make([]string, len(s.header))
	if len(row) > len(s.header) {
		if s.extra == 0 {
			s.Log.Warnf("'%s': ignoring additional column(s) not included in the header specification", s.label)
		}
		s.extra++
	}
	copy(values, row)
	return &Record{Ordinal: s.ordinal, Header: s.header, Values: values}, nil
}

// Close closes the underlying reader.
func (s *CSV) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
