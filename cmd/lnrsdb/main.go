// Package main provides the lnrsdb CLI: operator tooling for one LNRS
// database deployment (init, status, cascade delete, snapshots, restore).
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
