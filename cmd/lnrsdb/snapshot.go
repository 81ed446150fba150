// Snapshot commands: create, list, and prune database snapshots.
package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/lnrsdb/pkg/lnrs"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, list, and prune database snapshots",
}

var flagSnapshotDescription string

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the live database file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		id, err := app.Snapshots.Create(flagSnapshotDescription, types.OpManual, "", "")
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, map[string]string{"snapshot_id": id})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created snapshot %s\n", id)
		return nil
	},
}

var (
	flagSnapshotListOp     string
	flagSnapshotListEntity string
	flagSnapshotListLimit  int
)

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		snaps, err := app.Snapshots.List(lnrs.SnapshotFilter{
			OperationType: flagSnapshotListOp,
			EntityType:    flagSnapshotListEntity,
			Limit:         flagSnapshotListLimit,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, snaps)
		}

		out := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintln(out, "No snapshots")
			return nil
		}

		table := tablewriter.NewWriter(out)
		table.Header("ID", "Created", "Size", "Operation", "Description")
		for _, s := range snaps {
			err := table.Append([]string{
				s.ID,
				createdAgo(s),
				humanize.Bytes(uint64(s.SizeBytes)),
				s.OperationType,
				s.Description,
			})
			if err != nil {
				return err
			}
		}
		return table.Render()
	},
}

var flagSnapshotKeep int

var snapshotCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old snapshots, keeping the most recent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		keep := flagSnapshotKeep
		if keep < 0 {
			keep = app.Config.RetainCount
		}

		deleted, err := app.Snapshots.Cleanup(keep)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, map[string]int{"deleted": deleted, "kept": keep})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshots, keeping at most %d\n", deleted, keep)
		return nil
	},
}

func init() {
	snapshotCreateCmd.Flags().StringVar(&flagSnapshotDescription, "description", "", "description recorded on the snapshot")

	snapshotListCmd.Flags().StringVar(&flagSnapshotListOp, "operation", "", "filter by operation type")
	snapshotListCmd.Flags().StringVar(&flagSnapshotListEntity, "entity", "", "filter by entity type")
	snapshotListCmd.Flags().IntVar(&flagSnapshotListLimit, "limit", 0, "show at most this many snapshots")

	snapshotCleanupCmd.Flags().IntVar(&flagSnapshotKeep, "keep", -1, "snapshots to retain (default: configured retain_count)")

	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotCleanupCmd)
}
