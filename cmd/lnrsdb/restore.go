// Restore command: replace the live database with a snapshot.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// confirmPhrase must be passed verbatim to --confirm before a restore runs.
const confirmPhrase = "RESTORE"

var flagRestoreConfirm string

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot-id>",
	Short: "Replace the live database with a snapshot",
	Long: `Replaces the live database file with the named snapshot. A safety
snapshot of the current state is taken first, so the step can be undone.
The operation must be confirmed with --confirm ` + confirmPhrase + `.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagRestoreConfirm != confirmPhrase {
			return fmt.Errorf("refusing to restore: pass --confirm %s to proceed", confirmPhrase)
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Restorer.Restore(args[0]); err != nil {
			return err
		}

		if flagJSON {
			return printJSON(cmd, map[string]string{"restored": args[0]})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %s\n", args[0])
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&flagRestoreConfirm, "confirm", "", "confirmation phrase; must be "+confirmPhrase)
}
