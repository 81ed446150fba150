// Tests for the restore state machine against a real database file:
// round-trip restoration, the mandatory safety snapshot, and failure states.
package snapshot

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// newRestoreFixture initializes a real database with a snapshot manager and
// coordinator over it.
func newRestoreFixture(t *testing.T) (*store.Store, *Manager, *Coordinator) {
	t.Helper()

	cfg := types.Config{DataDir: t.TempDir()}.WithDefaults()
	s, err := store.Init(cfg.DatabasePath())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	log := oplog.Discard()
	mgr := NewManager(cfg, log)
	return s, mgr, NewCoordinator(s, mgr, cfg, log)
}

func insertMeasures(t *testing.T, s *store.Store, ids ...int) {
	t.Helper()
	db, err := s.DB()
	require.NoError(t, err)
	for _, id := range ids {
		_, err := db.Exec("INSERT INTO measure (measure_id, measure) VALUES (?, ?)", id, "measure")
		require.NoError(t, err)
	}
}

func measureCount(t *testing.T, s *store.Store) int64 {
	t.Helper()
	db, err := s.DB()
	require.NoError(t, err)
	count, err := store.VerifyIntegrity(db, types.MeasureTable)
	require.NoError(t, err)
	return count
}

func TestRestoreRoundTrip(t *testing.T) {
	s, mgr, coord := newRestoreFixture(t)

	insertMeasures(t, s, 1, 2, 3)
	require.EqualValues(t, 3, measureCount(t, s))

	id, err := mgr.Create("Before risky work", types.OpManual, "", "")
	require.NoError(t, err)

	insertMeasures(t, s, 4, 5)
	require.EqualValues(t, 5, measureCount(t, s))

	require.NoError(t, coord.Restore(id))

	t.Run("row counts match the snapshot exactly", func(t *testing.T) {
		assert.EqualValues(t, 3, measureCount(t, s))
	})

	t.Run("a pre_restore safety snapshot was left behind", func(t *testing.T) {
		records, err := mgr.List(ListFilter{OperationType: types.OpPreRestore})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Contains(t, records[0].Description, id)
	})

	t.Run("the connection is live again", func(t *testing.T) {
		insertMeasures(t, s, 99)
		assert.EqualValues(t, 4, measureCount(t, s))
	})
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	_, _, coord := newRestoreFixture(t)

	err := coord.Restore("20200101_000000_manual")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSnapshotNotFound)

	var restoreErr *types.RestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.Equal(t, types.RestoreStateIdle, restoreErr.State)
	assert.Empty(t, restoreErr.SafetySnapshotID, "no safety snapshot before the lookup succeeds")
}

func TestRestoreMissingArtifact(t *testing.T) {
	s, mgr, coord := newRestoreFixture(t)
	insertMeasures(t, s, 1)

	id, err := mgr.Create("snap", types.OpManual, "", "")
	require.NoError(t, err)

	snap, err := mgr.Get(id)
	require.NoError(t, err)
	require.NoError(t, os.Remove(snap.FilePath))

	err = coord.Restore(id)
	assert.ErrorIs(t, err, types.ErrSnapshotNotFound)
}

func TestRestoreVerificationFailure(t *testing.T) {
	s, mgr, coord := newRestoreFixture(t)
	insertMeasures(t, s, 1, 2)

	id, err := mgr.Create("snap", types.OpManual, "", "")
	require.NoError(t, err)

	// Swap the artifact for a valid database that lacks the verify table,
	// so reconnecting succeeds but the count query cannot.
	snap, err := mgr.Get(id)
	require.NoError(t, err)
	overwriteWithForeignDB(t, snap.FilePath)

	err = coord.Restore(id)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRestoreVerification)

	var restoreErr *types.RestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.Equal(t, types.RestoreStateReconnected, restoreErr.State)
	require.NotEmpty(t, restoreErr.SafetySnapshotID)
	assert.Contains(t, err.Error(), restoreErr.SafetySnapshotID,
		"the error must name the recovery snapshot")

	t.Run("recovery via the safety snapshot", func(t *testing.T) {
		require.NoError(t, coord.Restore(restoreErr.SafetySnapshotID))
		assert.EqualValues(t, 2, measureCount(t, s))
	})

	t.Run("every attempt left a pre_restore snapshot", func(t *testing.T) {
		records, err := mgr.List(ListFilter{OperationType: types.OpPreRestore})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

// overwriteWithForeignDB replaces path with a freshly created SQLite file
// holding a single unrelated table.
func overwriteWithForeignDB(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.Remove(path))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE unrelated (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
