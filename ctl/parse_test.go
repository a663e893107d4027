package ctl

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/boltdb"
	_ "github.com/molecula/disclosure/datasets/payments"
	"github.com/molecula/disclosure/inmem"
	"github.com/molecula/disclosure/jsonl"
	"github.com/molecula/disclosure/logger"
	"github.com/molecula/disclosure/pipeline"
	"github.com/molecula/disclosure/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const janeDoe = "name,org,country,amount,currency\nJane Doe,Acme Corp,US,100,USD\n"

func paymentsDir(t *testing.T, csv string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payments.csv"), []byte(csv), 0600))
	return dir
}

func newParse(t *testing.T, input string) (*ParseCommand, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewParseCommand(nil, stdout, stderr)
	cmd.Config.Dataset = "payments"
	cmd.Config.Input = input
	return cmd, stdout, stderr
}

func TestParseCommandJSONL(t *testing.T) {
	cmd, stdout, stderr := newParse(t, paymentsDir(t, janeDoe))
	require.NoError(t, cmd.Run(context.Background()))
	assert.True(t, cmd.Summary.Complete())
	assert.Contains(t, stderr.String(), "run ")

	entities, err := jsonl.Read(stdout)
	require.NoError(t, err)
	schemas := map[string]int{}
	for _, e := range entities {
		schemas[e.Schema.Name]++
	}
	assert.Equal(t, map[string]int{"Person": 1, "Organization": 1, "Payment": 1}, schemas)
}

func TestParseCommandSeveralOutputs(t *testing.T) {
	dir := t.TempDir()
	cmd, _, _ := newParse(t, paymentsDir(t, janeDoe))
	cmd.Config.Output.Types = []string{"bolt", "sql"}
	cmd.Config.Output.Path = filepath.Join(dir, "entities.bolt")
	cmd.Config.Output.DSN = filepath.Join(dir, "entities.db")
	require.NoError(t, cmd.Run(context.Background()))

	bolt := boltdb.NewStore(cmd.Config.Output.Path)
	require.NoError(t, bolt.Open())
	defer bolt.Close()
	n, err := bolt.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, cmd.Config.Output.DSN)
	require.NoError(t, err)
	defer db.Close()
	counts, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Person": 1, "Organization": 1, "Payment": 1}, counts)
}

func TestParseCommandErrors(t *testing.T) {
	t.Run("UnknownDataset", func(t *testing.T) {
		cmd, _, _ := newParse(t, t.TempDir())
		cmd.Config.Dataset = "nope"
		err := cmd.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown dataset "nope"`)
		assert.Contains(t, err.Error(), "payments")
	})
	t.Run("NoInput", func(t *testing.T) {
		cmd, _, _ := newParse(t, "")
		err := cmd.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no input given")
	})
	t.Run("MissingInput", func(t *testing.T) {
		cmd, _, _ := newParse(t, filepath.Join(t.TempDir(), "missing"))
		require.Error(t, cmd.Run(context.Background()))
	})
	t.Run("UnknownOutput", func(t *testing.T) {
		cmd, _, _ := newParse(t, paymentsDir(t, janeDoe))
		cmd.Config.Output.Types = []string{"parquet"}
		err := cmd.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown output type "parquet"`)
	})
	t.Run("BoltWithoutPath", func(t *testing.T) {
		cmd, _, _ := newParse(t, paymentsDir(t, janeDoe))
		cmd.Config.Output.Types = []string{"bolt"}
		require.Error(t, cmd.Run(context.Background()))
	})
}

func TestParseCommandColumns(t *testing.T) {
	dir := t.TempDir()
	columns := filepath.Join(dir, "columns.yaml")
	require.NoError(t, os.WriteFile(columns, []byte("payments:\n  - prefix: Doctor\n    name: name\n"), 0600))

	cmd, _, _ := newParse(t, paymentsDir(t, "Doctor,org,country,amount,currency\nJane Doe,Acme Corp,US,100,USD\n"))
	cmd.Config.Columns = columns
	store := inmem.NewStore()
	cmd.Sink = store
	require.NoError(t, cmd.Run(context.Background()))
	assert.Len(t, store.BySchema(disclosure.Person), 1)
}

func TestParseCommandLogPath(t *testing.T) {
	cmd, _, stderr := newParse(t, paymentsDir(t, janeDoe))
	cmd.Config.LogPath = filepath.Join(t.TempDir(), "parse.log")
	cmd.Sink = inmem.NewStore()
	require.NoError(t, cmd.Run(context.Background()))
	assert.Empty(t, stderr.String())

	out, err := os.ReadFile(cmd.Config.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[payments] INFO:  Parsed 1 records of payments.csv")
}

func TestServeMetrics(t *testing.T) {
	pipeline.CounterRows.WithLabelValues("metrics-test").Inc()
	srv, addr, err := serveMetrics("127.0.0.1:0", logger.NewLogfLogger(t))
	require.NoError(t, err)
	defer srv.Close()

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `disclosure_rows_total{dataset="metrics-test"} 1`))
}
