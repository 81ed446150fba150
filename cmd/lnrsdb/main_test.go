// CLI lifecycle tests: drive the real commands against a temp deployment.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with the given arguments against the
// test's config and data directories, returning the combined output.
func runCLI(t *testing.T, configDir, dataDir string, args ...string) (string, error) {
	t.Helper()

	// Flag values persist across Execute calls within one process.
	flagJSON = false
	flagInitDemo = false
	flagDeleteDryRun = false
	flagRestoreConfirm = ""
	flagSnapshotDescription = ""
	flagSnapshotListOp = ""
	flagSnapshotListEntity = ""
	flagSnapshotListLimit = 0
	flagSnapshotKeep = -1

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config-dir", configDir, "--data-dir", dataDir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLILifecycle(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()

	out, err := runCLI(t, configDir, dataDir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized LNRS database")

	out, err = runCLI(t, configDir, dataDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Database:")
	assert.Contains(t, out, "measure")
	assert.Contains(t, strings.ToUpper(out), "ROWS", "status table header must render")

	out, err = runCLI(t, configDir, dataDir, "snapshot", "create", "--description", "before anything")
	require.NoError(t, err)
	assert.Contains(t, out, "Created snapshot ")
	snapshotID := strings.TrimSpace(strings.TrimPrefix(out, "Created snapshot "))
	require.NotEmpty(t, snapshotID)

	out, err = runCLI(t, configDir, dataDir, "snapshot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "before anything")
	assert.Contains(t, out, "manual")
	assert.Contains(t, strings.ToUpper(out), "OPERATION", "list table header must render")

	out, err = runCLI(t, configDir, dataDir, "delete", "measure", "1", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: no rows were touched")
	assert.Contains(t, out, "measure_has_type")
	assert.Contains(t, strings.ToUpper(out), "STEP", "plan table header must render")

	out, err = runCLI(t, configDir, dataDir, "delete", "measure", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted measure 1")

	// Restore refuses to run without the exact confirmation phrase.
	_, err = runCLI(t, configDir, dataDir, "restore", snapshotID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to restore")

	_, err = runCLI(t, configDir, dataDir, "restore", snapshotID, "--confirm", "yes")
	require.Error(t, err)

	out, err = runCLI(t, configDir, dataDir, "restore", snapshotID, "--confirm", confirmPhrase)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored snapshot "+snapshotID)

	// Every restore leaves a pre_restore safety snapshot behind.
	out, err = runCLI(t, configDir, dataDir, "snapshot", "list", "--operation", "pre_restore")
	require.NoError(t, err)
	assert.Contains(t, out, "pre_restore")
}

func TestCLIUnknownEntity(t *testing.T) {
	configDir := t.TempDir()
	dataDir := t.TempDir()

	_, err := runCLI(t, configDir, dataDir, "init")
	require.NoError(t, err)

	_, err = runCLI(t, configDir, dataDir, "delete", "widget", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity type")
}

func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lnrsdb")
}
