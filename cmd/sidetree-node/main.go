/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main runs a standalone Sidetree node.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/trustbloc/sidetree-node-go/pkg/log"
)

const loggerModule = "sidetree-node"

var logger = log.New(loggerModule)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sidetree-node",
		Short:        "Sidetree DID node",
		Long:         "Observes Sidetree transactions on a ledger, resolves DIDs and batches DID operations.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newStartCmd(), newVersionCmd())

	return rootCmd
}
