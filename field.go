// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package disclosure

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/molecula/disclosure/errors"
	"gopkg.in/yaml.v2"
)

// ColumnRule renames source columns starting with Prefix: the prefix is
// replaced by Name and the rest of the column name is kept.
type ColumnRule struct {
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

// ColumnMap is an ordered list of column rules. Registries rename their
// columns between releases; a ColumnMap folds the variants onto one set of
// canonical names.
type ColumnMap []ColumnRule

// Rename returns the canonical name of column. The first matching rule
// wins; columns matching no rule are returned unchanged.
func (m ColumnMap) Rename(column string) string {
	column = strings.TrimSpace(column)
	for _, r := range m {
		if strings.HasPrefix(column, r.Prefix) {
			return r.Name + column[len(r.Prefix):]
		}
	}
	return column
}

// RenameAll renames every column of header.
func (m ColumnMap) RenameAll(header []string) []string {
	out := make([]string, len(header))
	for i, c := range header {
		out[i] = m.Rename(c)
	}
	return out
}

// LoadColumnMaps reads column maps keyed by dataset name from YAML:
//
//	usopenpayments:
//	  - prefix: Physician_Profile
//	    name: Recipient
func LoadColumnMaps(r io.Reader) (map[string]ColumnMap, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading column maps")
	}
	out := make(map[string]ColumnMap)
	if err := yaml.UnmarshalStrict(b, &out); err != nil {
		return nil, errors.Wrap(err, "decoding column maps")
	}
	for name, m := range out {
		for i, r := range m {
			if r.Prefix == "" {
				return nil, errors.Errorf("column map %s: rule %d has no prefix", name, i)
			}
		}
	}
	return out, nil
}

// FieldType is the type a canonical field is coerced to.
type FieldType int

const (
	String FieldType = iota
	Int
	Decimal
	Date
	Bool
)

func (t FieldType) String() string {
	return [...]string{"string", "int", "decimal", "date", "bool"}[t]
}

// FieldSpec declares one canonical field of a row schema.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
}

// DefaultNulls are the raw values read as "no value".
var DefaultNulls = []string{"", "n/a", "na", "null", "none", "nan", "-"}

// RowSchema describes one variant of a source table: how its columns are
// renamed and which canonical fields are typed or required. Columns not
// named by Fields are kept as strings.
type RowSchema struct {
	Columns ColumnMap
	Fields  []FieldSpec
	// Nulls replaces DefaultNulls when set. Comparison ignores case and
	// surrounding space.
	Nulls []string
}

func (s *RowSchema) isNull(v string) bool {
	nulls := s.Nulls
	if nulls == nil {
		nulls = DefaultNulls
	}
	for _, n := range nulls {
		if strings.EqualFold(v, n) {
			return true
		}
	}
	return false
}

// Normalize turns a raw record into a Row. Values are trimmed, null
// sentinels dropped and typed fields coerced; values which fail coercion
// are dropped as well. When two columns rename to the same field the first
// non-null value is kept. A missing required field is an
// ErrMissingRequiredField.
func (s *RowSchema) Normalize(header, values []string) (Row, error) {
	row := Row{values: make(map[string]string, len(header))}
	for i, col := range header {
		name := s.Columns.Rename(col)
		if name == "" {
			continue
		}
		if _, seen := row.values[name]; !seen {
			row.columns = append(row.columns, name)
		}
		if i >= len(values) {
			continue
		}
		v := strings.TrimSpace(values[i])
		if s.isNull(v) {
			continue
		}
		if cur, ok := row.values[name]; ok && cur != "" {
			continue
		}
		row.values[name] = v
	}
	for _, f := range s.Fields {
		v, ok := row.values[f.Name]
		if ok {
			if v, ok = coerce(f.Type, v); ok {
				row.values[f.Name] = v
			} else {
				delete(row.values, f.Name)
			}
		}
		if !ok && f.Required {
			return Row{}, errors.New(errors.ErrMissingRequiredField, "missing required field: "+f.Name)
		}
	}
	return row, nil
}

func coerce(t FieldType, v string) (string, bool) {
	switch t {
	case Int:
		i, ok := ParseInt(v)
		return strconv.FormatInt(i, 10), ok
	case Decimal:
		return ParseDecimal(v)
	case Date:
		return ParseDate(v)
	case Bool:
		b, ok := ParseBool(v)
		return strconv.FormatBool(b), ok
	}
	return v, true
}

// Row is a normalized record. Absent and empty values are the same.
type Row struct {
	values  map[string]string
	columns []string
}

// NewRow returns a row holding the non-empty values of m.
func NewRow(m map[string]string) Row {
	row := Row{values: make(map[string]string, len(m))}
	for k, v := range m {
		if v = strings.TrimSpace(v); v != "" {
			row.values[k] = v
			row.columns = append(row.columns, k)
		}
	}
	return row
}

// Get returns the value of the named field.
func (r Row) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// String returns the value of the named field, or "".
func (r Row) String(name string) string {
	return r.values[name]
}

// Has reports whether the named field has a value.
func (r Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// First returns the first of the named fields holding a value.
func (r Row) First(names ...string) string {
	for _, n := range names {
		if v, ok := r.values[n]; ok {
			return v
		}
	}
	return ""
}

// Int returns the named field as an integer.
func (r Row) Int(name string) (int64, bool) {
	return ParseInt(r.values[name])
}

// Decimal returns the named field as a canonical decimal string.
func (r Row) Decimal(name string) (string, bool) {
	return ParseDecimal(r.values[name])
}

// Date returns the named field as an ISO 8601 date, month or year.
func (r Row) Date(name string) (string, bool) {
	return ParseDate(r.values[name])
}

// Bool returns the named field as a boolean.
func (r Row) Bool(name string) (bool, bool) {
	return ParseBool(r.values[name])
}

// Columns returns the canonical column names of the row in source order,
// including columns without a value.
func (r Row) Columns() []string {
	return r.columns
}

// Len returns the number of fields holding a value.
func (r Row) Len() int { return len(r.values) }

// Sub returns the fields whose name starts with prefix, renamed so that
// prefix is replaced by name. It lets one row describe several parties,
// e.g. numbered investigator columns.
func (r Row) Sub(prefix, name string) Row {
	out := Row{values: make(map[string]string)}
	for _, c := range r.columns {
		if !strings.HasPrefix(c, prefix) {
			continue
		}
		n := name + c[len(prefix):]
		out.columns = append(out.columns, n)
		if v, ok := r.values[c]; ok {
			out.values[n] = v
		}
	}
	return out
}

// ParseInt parses an integer, allowing thousands separators and a ".0"
// suffix as written by spreadsheets.
func ParseInt(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimSuffix(s, ".0")
	if s == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// ParseDecimal parses a decimal number, rounds it to two places and returns
// it in canonical form ("100", "12.5"). Currency symbols and thousands
// separators are ignored.
func ParseDecimal(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$£€ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	f = math.Round(f*100) / 100
	if f == 0 {
		f = 0 // no "-0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

var dateLayouts = []struct {
	layout string
	out    string
}{
	{"2006-01-02", "2006-01-02"},
	{time.RFC3339, "2006-01-02"},
	{"2006-01-02T15:04:05", "2006-01-02"},
	{"2006-01-02 15:04:05", "2006-01-02"},
	{"01/02/2006", "2006-01-02"},
	{"1/2/2006", "2006-01-02"},
	{"01-02-06", "2006-01-02"},
	{"1/2/06", "2006-01-02"},
	{"02.01.2006", "2006-01-02"},
	{"2 January 2006", "2006-01-02"},
	{"January 2, 2006", "2006-01-02"},
	{"2 Jan 2006", "2006-01-02"},
	{"2006-01", "2006-01"},
	{"01/2006", "2006-01"},
	{"January 2006", "2006-01"},
	{"2006", "2006"},
}

// ParseDate parses a date written in one of several common layouts and
// returns it as an ISO 8601 prefix with the precision of the input.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t.Format(l.out), true
		}
	}
	return "", false
}

// ParseBool parses the usual spellings of yes and no.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}
