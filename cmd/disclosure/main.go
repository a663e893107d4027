// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
/*
This is the entrypoint for the disclosure binary.
*/
package main

import (
	"fmt"
	"os"

	"github.com/molecula/disclosure/cmd"

	_ "github.com/molecula/disclosure/datasets/europepmc"
	_ "github.com/molecula/disclosure/datasets/eurosfordocs"
	_ "github.com/molecula/disclosure/datasets/payments"
	_ "github.com/molecula/disclosure/datasets/pubmed"
	_ "github.com/molecula/disclosure/datasets/ukcdr"
	_ "github.com/molecula/disclosure/datasets/ukdisclosure"
	_ "github.com/molecula/disclosure/datasets/usopenpayments"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
