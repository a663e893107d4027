// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/molecula/disclosure/ctl"
	"github.com/spf13/cobra"
)

// Parser is global so that tests can control and verify it.
var Parser *ctl.ParseCommand

func newParseCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	Parser = ctl.NewParseCommand(stdin, stdout, stderr)
	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a dataset into entities.",
		Long: `parse reads the tables of a dataset found at --input and writes the
entities they describe to the configured outputs.

The input is a file or a directory, or an http(s) or s3 URL which is
downloaded first. Tables which cannot be read are reported once the
others have been parsed. An interrupt stops the run after the current
rows; what was emitted so far is kept.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && Parser.Config.Input == "" {
				Parser.Config.Input = args[0]
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Parser.Run(ctx)
		},
	}
	ctl.BuildParseFlags(parseCmd, Parser)
	return parseCmd
}
