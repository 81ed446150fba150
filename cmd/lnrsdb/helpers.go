// Shared helpers for lnrsdb commands.
package main

import (
	"encoding/json"
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/lnrsdb/pkg/lnrs"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// buildConfig composes the effective configuration from flags, config.yaml,
// and defaults.
func buildConfig() (types.Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return types.Config{}, err
	}
	return types.Config{
		DataDir:     dataDir,
		DBFile:      cfg.GetString(cfgKeyDBFile),
		LogLevel:    cfg.GetString(cfgKeyLogLevel),
		LogFormat:   cfg.GetString(cfgKeyLogFormat),
		RetainCount: cfg.GetInt(cfgKeyRetainCount),
		VerifyTable: cfg.GetString(cfgKeyVerifyTable),
	}, nil
}

// openApp opens the configured database with every component wired. The
// caller must defer app.Close().
func openApp() (*lnrs.App, error) {
	c, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return lnrs.Open(c)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode maps an error to the process exit code. Snapshot IO, restore,
// transaction, and partial-cascade failures are system errors; everything
// else, including usage mistakes, is a user error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var (
		ioErr      *types.SnapshotIOError
		restoreErr *types.RestoreError
		execErr    *types.ExecError
		partial    *types.PartialCascadeFailure
	)
	if errors.As(err, &ioErr) || errors.As(err, &restoreErr) ||
		errors.As(err, &execErr) || errors.As(err, &partial) {
		return exitSysError
	}
	return exitUserError
}

// createdAgo renders a snapshot's creation time relative to now, falling
// back to the raw string when it does not parse.
func createdAgo(s types.Snapshot) string {
	at, err := s.CreatedTime()
	if err != nil {
		return s.CreatedAt
	}
	return humanize.Time(at)
}
