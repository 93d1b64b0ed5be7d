package main

import (
	"fmt"

	"github.com/geoskills/skillcheck/pkg/version"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  `Print the version information of skillcheck in JSON format.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			json, err := version.Get().JSON()
			if err != nil {
				return errors.Wrap(err, "failed to format version info")
			}
			fmt.Fprintln(cmd.OutOrStdout(), json)
			return nil
		},
	}
}
