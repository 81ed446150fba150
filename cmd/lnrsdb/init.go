// Init command: create and seed a fresh LNRS database.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/lnrsdb/pkg/lnrs"
)

var flagInitDemo bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and seed a new LNRS database",
	Long: `Creates the database file with the full LNRS schema and reference
lookup data. With --demo, also fills the entity and bridge tables with
generated sample records.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildConfig()
		if err != nil {
			return err
		}

		app, err := lnrs.Init(c, flagInitDemo)
		if err != nil {
			return err
		}
		defer app.Close()

		if flagJSON {
			status, err := app.Status()
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized LNRS database at %s\n", app.Config.DatabasePath())
		if flagInitDemo {
			fmt.Fprintln(cmd.OutOrStdout(), "Demo data seeded")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagInitDemo, "demo", false, "seed generated sample data")
}
