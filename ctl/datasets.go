// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/molecula/disclosure/datasets"
)

// DatasetsCommand lists the registered datasets.
type DatasetsCommand struct {
	*CmdIO
}

// NewDatasetsCommand returns a new instance of DatasetsCommand.
func NewDatasetsCommand(stdin io.Reader, stdout, stderr io.Writer) *DatasetsCommand {
	return &DatasetsCommand{CmdIO: NewCmdIO(stdin, stdout, stderr)}
}

// Run prints a line per dataset: its name, title and where it is
// published.
func (cmd *DatasetsCommand) Run(_ context.Context) error {
	tw := tabwriter.NewWriter(cmd.Stdout, 0, 8, 2, ' ', 0)
	for _, name := range datasets.Names() {
		d, _ := datasets.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name(), d.Title(), d.URL())
	}
	return tw.Flush()
}
