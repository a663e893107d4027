package ctl

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConfigCommand_Run(t *testing.T) {
	buf := &bytes.Buffer{}
	cm := NewGenerateConfigCommand(nil, buf, &bytes.Buffer{})
	require.NoError(t, cm.Run(context.Background()))
	assert.Contains(t, buf.String(), "[kafka]")
	assert.Contains(t, buf.String(), `topic = "disclosure"`)

	// The printed configuration reads back as the defaults.
	back := &Config{}
	require.NoError(t, toml.Unmarshal(buf.Bytes(), back))
	if diff := cmp.Diff(NewConfig(), back); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDatasetsCommand_Run(t *testing.T) {
	buf := &bytes.Buffer{}
	cm := NewDatasetsCommand(nil, buf, &bytes.Buffer{})
	require.NoError(t, cm.Run(context.Background()))
	assert.Contains(t, buf.String(), "payments")
	assert.Contains(t, buf.String(), "Payments to health professionals")
}
