// Status command: table counts and snapshot inventory for the live database.
package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show table counts and the snapshot inventory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		status, err := app.Status()
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, status)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Database:  %s (%s)\n", status.DatabasePath, humanize.Bytes(uint64(status.SizeBytes)))
		fmt.Fprintf(out, "Snapshots: %d\n\n", status.Snapshots)

		table := tablewriter.NewWriter(out)
		table.Header("Table", "Rows")
		for _, name := range types.AllTableNames {
			if err := table.Append([]string{name, strconv.FormatInt(status.Tables[name], 10)}); err != nil {
				return err
			}
		}
		return table.Render()
	},
}
