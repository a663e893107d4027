package ukdisclosure_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/datasets/ukdisclosure"
	"github.com/molecula/disclosure/inmem"
	"github.com/molecula/disclosure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sheet(t *testing.T, f *excelize.File, name string, rows [][]interface{}) {
	t.Helper()
	_, err := f.NewSheet(name)
	require.NoError(t, err)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}
}

func writeArchive(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	sheet(t, f, ukdisclosure.SheetHCO, [][]interface{}{
		{"Disclosure UK 2021 - HCO"},
		{"Pharma Company Name", "Institution Name", "Location", "Address Line 1", "Address Line 2",
			"City", "Postcode", "Country", "Year of Disclosure", "Donations and Grants",
			"Sponsorship", "Joint Working Link"},
		{"Acme Pharma Ltd", "St Mary's Hospital", "Paddington", "Praed Street", "", "London",
			"W2 1NY", "United Kingdom", "2021", "1,500", "0", "https://example.org/jw/1"},
		{"ACME PHARMA LIMITED", "St Mary's Hospital", "Paddington", "Praed Street", "", "London",
			"W2 1NY", "United Kingdom", "2021", "", "250.5", ""},
	})
	sheet(t, f, ukdisclosure.SheetHCP, [][]interface{}{
		{"Disclosure UK 2021 - HCP"},
		{"Pharma Company Name", "Title", "First Name", "Initial", "Last Name", "Speciality", "Role",
			"Institution Name", "Location", "Address Line 1", "Address Line 2", "City", "Postcode",
			"Country", "Year of Disclosure", "Fees for Service", "Travel"},
		{"Acme Pharma Ltd", "Dr", "Jane", "A", "Doe", "Oncology", "Consultant", "St Mary's Hospital",
			"", "Praed Street", "", "London", "W2 1NY", "United Kingdom", "2021", "300", "abc"},
		{"Acme Pharma Ltd", "Dr", "John", "", "Roe", "", "", "", "", "1 High St", "", "Leeds",
			"LS1 1AA", "", "2021", "100", ""},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "disclosure-uk-2021.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	w, err := zw.Create("Disclosure UK 2021.xlsx")
	require.NoError(t, err)
	_, err = w.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return path
}

func TestDisclosureUK(t *testing.T) {
	path := writeArchive(t)
	d, ok := datasets.Lookup("ukdisclosure")
	require.True(t, ok)

	jobs, err := d.Plan(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "disclosure-uk-2021.zip:Disclosure UK 2021.xlsx HCO", jobs[0].Label)

	store := inmem.NewStore()
	r := &datasets.Runner{Sink: store, Log: logger.NewLogfLogger(t)}
	sum, err := r.Run(context.Background(), d, filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Rows())
	assert.True(t, sum.Complete())

	// "Ltd" and "Limited" are the same company.
	companies := store.BySchema(disclosure.Company)
	require.Len(t, companies, 1)
	assert.Equal(t, []string{"gb"}, companies[0].Get("country"))

	hcoID, _ := disclosure.MakeID("hco", disclosure.Text("St Mary's Hospital"))
	hco, ok := store.Get(hcoID)
	require.True(t, ok)
	assert.Equal(t, []string{"gb"}, hco.Get("country"))
	require.True(t, hco.Has("addressEntity"))
	_, ok = store.Get(hco.First("addressEntity"))
	assert.True(t, ok)

	payments := map[string]string{}
	for _, p := range store.BySchema(disclosure.Payment) {
		payments[p.First("purpose")+" "+p.First("amount")] = p.First("beneficiary")
		assert.Equal(t, []string{"GBP"}, p.Get("currency"))
		assert.Equal(t, []string{"2021"}, p.Get("date"))
	}
	janeID, _ := disclosure.MakeID("hcp", disclosure.Text("Dr Jane A Doe"), disclosure.Token(hcoID))
	johnID, _ := disclosure.MakeID("hcp", disclosure.Text("Dr John Roe"), disclosure.Token(""))
	assert.Equal(t, map[string]string{
		"Donations and Grants 1500": hcoID,
		"Sponsorship 250.5":         hcoID,
		"Fees for Service 300":      janeID,
		"Fees for Service 100":      johnID,
	}, payments)

	jane, ok := store.Get(janeID)
	require.True(t, ok)
	assert.Equal(t, []string{"Doe"}, jane.Get("lastName"))
	assert.Equal(t, []string{"Oncology"}, jane.Get("description"))

	members := store.BySchema(disclosure.Membership)
	require.Len(t, members, 1)
	assert.Equal(t, []string{"Consultant"}, members[0].Get("role"))

	// John has no institution: no membership, and his address has no
	// country.
	john, ok := store.Get(johnID)
	require.True(t, ok)
	assert.False(t, john.Has("country"))
	assert.True(t, john.Has("addressEntity"))
}
