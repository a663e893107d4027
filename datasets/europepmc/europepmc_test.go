package europepmc_test

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/datasets"
	_ "github.com/molecula/disclosure/datasets/europepmc"
	"github.com/molecula/disclosure/inmem"
	"github.com/molecula/disclosure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEuropePMC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PMID_PMCID_DOI.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("PMID,PMCID,DOI\n" +
		"1,PMC11,10.1/A\n" +
		",PMC12,\n" +
		",,https://doi.org/10.1/b\n" +
		",,\n" +
		"1,,10.1/a\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	d, ok := datasets.Lookup("europepmc")
	require.True(t, ok)
	store := inmem.NewStore()
	r := &datasets.Runner{Sink: store, Log: logger.NewLogfLogger(t)}
	sum, err := r.Run(context.Background(), d, filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum.Rows())

	// Rows 1 and 5 share the PubMed id.
	require.Equal(t, 3, store.Len())
	id, _ := datasets.ArticleID(datasets.ArticleRefs{PMID: "1"})
	a, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, disclosure.Article, a.Schema)
	assert.Equal(t, []string{"PMC11"}, a.Get("pmcId"))
	assert.Equal(t, []string{"10.1/a"}, a.Get("doi"))

	id, _ = datasets.ArticleID(datasets.ArticleRefs{DOI: "10.1/B"})
	_, ok = store.Get(id)
	assert.True(t, ok)
}
