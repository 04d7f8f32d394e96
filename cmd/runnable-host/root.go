package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "runnable-host",
		Short:        "Run runnable guest modules",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd(), newSchemaCmd())
	return root
}
