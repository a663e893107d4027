// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/molecula/disclosure/ctl"
	"github.com/spf13/cobra"
)

func newDatasetsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	list := ctl.NewDatasetsCommand(stdin, stdout, stderr)
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the supported datasets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return list.Run(context.Background())
		},
	}
}
