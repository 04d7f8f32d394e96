package main

import (
	"fmt"

	"github.com/runnable-dev/runnable-sdk/config"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a host configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			caps := cfg.Capabilities
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (cache=%t db=%t graphql=%t file=%t, %d queries)\n",
				args[0], caps.Cache.Enabled, caps.DB.Enabled, caps.GraphQL.Enabled, caps.File.Enabled, len(caps.DB.Queries))
			return err
		},
	}
}
