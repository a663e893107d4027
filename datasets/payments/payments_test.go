package payments_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/boltdb"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/datasets/payments"
	"github.com/molecula/disclosure/inmem"
	"github.com/molecula/disclosure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(t *testing.T, ns string, parts ...disclosure.Part) string {
	t.Helper()
	id, ok := disclosure.MakeID(ns, parts...)
	require.True(t, ok)
	return id
}

func run(t *testing.T, sink disclosure.Sink, csv string) datasets.Summary {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payments.csv"), []byte(csv), 0600))
	d, ok := datasets.Lookup("payments")
	require.True(t, ok)
	r := &datasets.Runner{Sink: sink, Log: logger.NewLogfLogger(t)}
	sum, err := r.Run(context.Background(), d, dir)
	require.NoError(t, err)
	return sum
}

func TestJaneDoe(t *testing.T) {
	store := inmem.NewStore()
	sum := run(t, store, "name,org,country,amount,currency\nJane Doe,Acme Corp,US,100,USD\n")
	assert.True(t, sum.Complete())

	personID := id(t, "physician", disclosure.NameText("Jane Doe"))
	orgID := id(t, "org", disclosure.Text("Acme Corp"), disclosure.Token("us"))
	assert.Regexp(t, "^physician-[0-9a-f]{40}$", personID)
	assert.Regexp(t, "^org-[0-9a-f]{40}$", orgID)

	person, ok := store.Get(personID)
	require.True(t, ok)
	assert.Equal(t, []string{"Jane Doe"}, person.Get("name"))
	org, ok := store.Get(orgID)
	require.True(t, ok)
	assert.Equal(t, []string{"us"}, org.Get("country"))

	payments := store.BySchema(disclosure.Payment)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, orgID, p.First("payer"))
	assert.Equal(t, personID, p.First("beneficiary"))
	assert.Equal(t, []string{"100"}, p.Get("amount"))
	assert.Equal(t, []string{"USD"}, p.Get("currency"))
	assert.Equal(t, 3, store.Len())
}

func TestOrganizationSpellings(t *testing.T) {
	store := inmem.NewStore()
	run(t, store, "name,org,country,amount,currency\n"+
		"Jane Doe,Acme Corp,US,100,USD\n"+
		"\"Doe,  JANE\",\"ACME, Corp.\",United States,100,USD\n"+
		"Jane Doe,Acme Corp,GB,100,USD\n")

	orgs := store.BySchema(disclosure.Organization)
	require.Len(t, orgs, 2)
	us := id(t, "org", disclosure.Text("Acme Corp"), disclosure.Token("us"))
	gb := id(t, "org", disclosure.Text("Acme Corp"), disclosure.Token("gb"))
	assert.NotEqual(t, us, gb)
	org, ok := store.Get(us)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Acme Corp", "ACME, Corp."}, org.Get("name"))

	require.Len(t, store.BySchema(disclosure.Person), 1)
	// Same payer, payee and amount on both spellings: one payment; the GB
	// organization pays separately.
	assert.Len(t, store.BySchema(disclosure.Payment), 2)
}

func TestUnknownCountryEmptyNames(t *testing.T) {
	store := inmem.NewStore()
	sum := run(t, store, "name,org,country,amount,currency\n"+
		",,Unknown,100,USD\n"+
		"Jane Doe,Acme Corp,US,100,USD\n")
	require.Len(t, sum.Stats, 1)
	assert.Equal(t, int64(2), sum.Stats[0].Rows)
	assert.Equal(t, int64(0), sum.Stats[0].Failed)
	assert.Equal(t, 3, store.Len())
}

func TestMissingAmount(t *testing.T) {
	store := inmem.NewStore()
	sum := run(t, store, "name,org,country,amount,currency\n"+
		"Jane Doe,Acme Corp,US,n/a,USD\n"+
		"John Roe,Acme Corp,US,5,USD\n")
	require.Len(t, sum.Stats, 1)
	st := sum.Stats[0]
	assert.Equal(t, int64(2), st.Rows)
	assert.Equal(t, int64(1), st.Failed)
	// The parties of the failed row stand; only its payment is missing.
	assert.Len(t, store.BySchema(disclosure.Person), 2)
	assert.Len(t, store.BySchema(disclosure.Payment), 1)
}

func TestIdempotentRerun(t *testing.T) {
	csv := "Name,Organisation,Country,Amount,Currency,Date,Purpose\n" +
		"Jane Doe,Acme Corp,US,100,USD,2021-03-01,Consulting\n" +
		"John Roe,Big Pharma Inc,GB,\"1,200.50\",GBP,03/02/2021,Travel\n"

	open := func(name string) *boltdb.Store {
		s := boltdb.NewStore(filepath.Join(t.TempDir(), name))
		require.NoError(t, s.Open())
		t.Cleanup(func() { s.Close() })
		return s
	}
	once, twice := open("once.db"), open("twice.db")
	run(t, once, csv)
	run(t, twice, csv)
	run(t, twice, csv)

	a, err := once.Checksum()
	require.NoError(t, err)
	b, err := twice.Checksum()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	n, err := twice.Len()
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	var amounts []string
	require.NoError(t, twice.ForEach(func(e *disclosure.Entity) error {
		if e.Schema == disclosure.Payment {
			amounts = append(amounts, e.Get("amount")...)
			assert.Equal(t, []string{payments.Title}, e.Get("programme"))
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{"100", "1200.5"}, amounts)
}
