// Delete command: snapshot-gated cascade delete of one entity record.
package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

var flagDeleteDryRun bool

var deleteCmd = &cobra.Command{
	Use:   "delete <entity> <id>",
	Short: "Cascade delete one record and every row referencing it",
	Long: `Deletes one entity record together with its bridge-table rows, leaves
first and the record itself last. A snapshot is taken before any row is
removed. Entities whose bridges hold composite references commit statement
by statement; the rest commit as a single transaction.

Known entities: ` + strings.Join(types.KnownEntities, ", ") + `.`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&flagDeleteDryRun, "dry-run", false, "print the delete plan without executing it")
}

func runDelete(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	plan, err := app.Planner.Plan(args[0], parseKey(args[1]))
	if err != nil {
		return err
	}

	if flagDeleteDryRun {
		if flagJSON {
			return printJSON(cmd, plan)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Plan for %s %s (%s):\n\n", plan.Entity, plan.Key, plan.Mode)
		table := tablewriter.NewWriter(out)
		table.Header("Step", "Table")
		for i, stmt := range plan.Batch {
			if err := table.Append([]string{strconv.Itoa(i + 1), stmt.Table}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintln(out, "\nDry run: no rows were touched")
		return nil
	}

	summary, err := app.Planner.Execute(plan)
	if err != nil {
		var partial *types.PartialCascadeFailure
		if errors.As(err, &partial) {
			fmt.Fprintf(cmd.ErrOrStderr(),
				"%d related records were removed; the primary record remains - retry is safe\n",
				partial.RowsDeleted)
		}
		return err
	}

	if flagJSON {
		return printJSON(cmd, summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s: %d rows removed (snapshot %s)\n",
		summary.Entity, summary.Key, summary.Total, summary.SnapshotID)
	return nil
}

// parseKey returns the id as an int when it parses as one; grant ids stay
// strings.
func parseKey(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
