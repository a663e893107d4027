package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/molecula/disclosure/cmd"
	_ "github.com/molecula/disclosure/datasets/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rc := cmd.NewRootCommand(os.Stdin, out, out)
	rc.SetArgs(args)
	err := rc.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, s := range []string{"Usage:", "Available Commands:", "--help", "parse", "generate-config"} {
		assert.Contains(t, out, s)
	}
}

func writeConfig(t *testing.T, conf string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disclosure.toml")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0600))
	return path
}

func TestParseConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
dataset = "payments"
concurrency = 3
progress-interval = 500

[output]
types = ["bolt", "sql"]

[kafka]
topic = "from-file"
timeout = "30s"
`)
	t.Setenv("DISCLOSURE_CONCURRENCY", "2")
	t.Setenv("DISCLOSURE_KAFKA_TOPIC", "from-env")

	_, err := execute(t, "parse", "--dry-run", "--config", path, "--kafka.topic", "from-flag")
	require.EqualError(t, err, "dry run")

	c := cmd.Parser.Config
	assert.Equal(t, "payments", c.Dataset)
	assert.Equal(t, int64(500), c.ProgressInterval)
	assert.Equal(t, 2, c.Concurrency)
	assert.Equal(t, "from-flag", c.Kafka.Topic)
	assert.Equal(t, []string{"bolt", "sql"}, c.Output.Types)
	assert.Equal(t, "30s", c.Kafka.Timeout.String())
}

func TestParseConfigInvalidOption(t *testing.T) {
	path := writeConfig(t, "bogus = 1\n")
	_, err := execute(t, "parse", "--dry-run", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid option in configuration file: bogus")
}

func TestParseInputArgument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payments.csv"),
		[]byte("name,org,country,amount,currency\nJane Doe,Acme Corp,US,100,USD\n"), 0600))
	out, err := execute(t, "parse", "--dataset", "payments", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"schema":"Payment"`)
	assert.Equal(t, int64(1), cmd.Parser.Summary.Rows())
}

func TestDatasetsCommand(t *testing.T) {
	out, err := execute(t, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, "payments")
}

func TestGenerateConfigCommand(t *testing.T) {
	out, err := execute(t, "generate-config")
	require.NoError(t, err)
	assert.Contains(t, out, "[output]")
	assert.Contains(t, out, "[tracing]")
}
