package ukcdr_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/datasets/ukcdr"
	"github.com/molecula/disclosure/inmem"
	"github.com/molecula/disclosure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []interface{}{
	"Funder Project ID/Reference Number", "Unique database reference number", " Project Title ",
	"PRIMARY WHO Research Priority Area Name(s)", "Amount Awarded", "Currency",
	"Amount Awarded converted to USD", "Country/ countries research is being are conducted",
	"Start Date", "End Date", "Lead Institution", "Principal Investigator (PI)",
	"PI First Name", "PI Last Name", "PI Title",
}

func writeTracker(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet(ukcdr.Sheet)
	require.NoError(t, err)
	all := append([][]interface{}{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(ukcdr.Sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "COVID-19-Research-Project-Tracker.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestTracker(t *testing.T) {
	path := writeTracker(t,
		[]interface{}{"MR/V123", "C19-0001", "Vaccine trial", "Vaccines", "1000.456", "GBP", "1300",
			"United Kingdom, South Africa", "2020-04-01", "2021-03-31", "University of Oxford, UK",
			"Sarah Gilbert; Andrew Pollard", "Sarah, Andrew", "Gilbert, Pollard", "Prof, Prof"},
		[]interface{}{"unknown", "C19-0002", "Modelling", "unknown", "unknown", "unknown", "unknown",
			"unknown", "unknown", "unknown", "Imperial College (GB) London", "Neil Ferguson",
			"Neil", "Ferguson", "Prof"},
		[]interface{}{"", "", "", "", "", "", "", "", "", "", "", "", "", "", ""},
		[]interface{}{"X1", "", "", "", "", "", "", "", "", "", "", "Jane Doe"},
	)

	d, ok := datasets.Lookup("ukcdr")
	require.True(t, ok)
	store := inmem.NewStore()
	r := &datasets.Runner{Sink: store, Log: logger.NewLogfLogger(t)}
	sum, err := r.Run(context.Background(), d, filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, sum.Stats, 1)
	st := sum.Stats[0]
	// The blank row is skipped by the reader; the untitled project fails.
	assert.Equal(t, int64(3), st.Rows)
	assert.Equal(t, int64(1), st.Failed)

	pid, _ := disclosure.MakeID("project", disclosure.Token("MR/V123"))
	p, ok := store.Get(pid)
	require.True(t, ok)
	assert.Equal(t, []string{"Vaccine trial"}, p.Get("name"))
	assert.Equal(t, []string{"C19-0001", "MR/V123"}, p.Get("projectId"))
	assert.Equal(t, []string{"1000.46"}, p.Get("amount"))
	assert.Equal(t, []string{"gb", "za"}, p.Get("country"))
	assert.Equal(t, []string{"2020-04-01"}, p.Get("startDate"))

	oid, _ := disclosure.MakeID("org", disclosure.Text("University of Oxford"))
	org, ok := store.Get(oid)
	require.True(t, ok)
	assert.Equal(t, []string{"gb"}, org.Get("country"))

	people := store.BySchema(disclosure.Person)
	require.Len(t, people, 3)
	gid, _ := disclosure.MakeID("investigator", disclosure.NameText("Sarah Gilbert"), disclosure.Token(oid))
	gilbert, ok := store.Get(gid)
	require.True(t, ok)
	assert.Equal(t, []string{"Sarah"}, gilbert.Get("firstName"))
	assert.Equal(t, []string{"Gilbert"}, gilbert.Get("lastName"))
	assert.Equal(t, []string{"Prof"}, gilbert.Get("title"))

	// Unknown values are null: the second project is keyed by its WHO id.
	wid, _ := disclosure.MakeID("project", disclosure.Token("C19-0002"))
	modelling, ok := store.Get(wid)
	require.True(t, ok)
	assert.False(t, modelling.Has("amount"))
	assert.False(t, modelling.Has("keywords"))

	roles := map[string]int{}
	for _, rel := range store.BySchema(disclosure.ProjectParticipant) {
		roles[rel.First("role")]++
	}
	assert.Equal(t, map[string]int{"LEAD INSTITUTION": 2, "PRINCIPAL INVESTIGATOR": 3}, roles)
}

func TestInstitutionName(t *testing.T) {
	for _, tc := range []struct{ in, name, country string }{
		{"University of Oxford, UK", "University of Oxford", "gb"},
		{"Imperial College (GB) London", "Imperial College", "gb"},
		{"Institut Pasteur", "Institut Pasteur", ""},
		{"A, B, C", "A", ""},
	} {
		name, country := ukcdr.InstitutionName(tc.in)
		assert.Equal(t, tc.name, name, tc.in)
		assert.Equal(t, tc.country, country, tc.in)
	}
}
