// Version command for the lnrsdb CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/lnrsdb/pkg/lnrs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lnrsdb version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "lnrsdb", lnrs.Version)
	},
}
