package snapshot

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Coordinator drives the restore state machine over one store and one
// snapshot manager. Transitions are one-way; a failure leaves the system at
// the state reached and the returned *types.RestoreError names it so an
// operator can resume by hand.
type Coordinator struct {
	store       *store.Store
	mgr         *Manager
	log         *oplog.Log
	verifyTable string
}

// NewCoordinator returns a coordinator verifying restores against the
// configured core table.
func NewCoordinator(st *store.Store, mgr *Manager, cfg types.Config, log *oplog.Log) *Coordinator {
	return &Coordinator{
		store:       st,
		mgr:         mgr,
		log:         log,
		verifyTable: cfg.VerifyTable,
	}
}

// Restore replaces the live database file with the named snapshot's
// artifact. A safety snapshot of the current state is always taken first,
// so every restore attempt leaves a pre_restore snapshot behind. Steps:
// look up the snapshot, safety-backup, close the connection, copy the
// artifact over the live file, reopen, verify with a count query. A
// verification failure wraps types.ErrRestoreVerification and names the
// safety snapshot as the recovery path, because the file has already been
// replaced.
func (c *Coordinator) Restore(snapshotID string) (err error) {
	_, done := c.log.Timer("restore")
	defer func() { done(err) }()

	state := types.RestoreStateIdle
	fail := func(safetyID string, cause error) error {
		c.log.Snapshot().WithFields(logrus.Fields{
			"snapshot_id": snapshotID,
			"state":       state,
		}).WithError(cause).Error("restore failed")
		return &types.RestoreError{
			SnapshotID:       snapshotID,
			State:            state,
			SafetySnapshotID: safetyID,
			Err:              cause,
		}
	}

	snap, err := c.mgr.Get(snapshotID)
	if err != nil {
		return fail("", err)
	}
	if _, statErr := c.mgr.fs.Stat(snap.FilePath); statErr != nil {
		return fail("", fmt.Errorf("artifact %s: %w", snap.FilePath, types.ErrSnapshotNotFound))
	}

	safetyID, err := c.mgr.Create(
		fmt.Sprintf("Safety backup before restoring %s", snapshotID),
		types.OpPreRestore, "", "",
	)
	if err != nil {
		return fail("", err)
	}
	state = types.RestoreStateSafetyBackup

	if err = c.store.Close(); err != nil {
		return fail(safetyID, err)
	}
	state = types.RestoreStateConnsClosed

	if _, err = copyFile(c.mgr.fs, snap.FilePath, c.store.Path()); err != nil {
		return fail(safetyID, err)
	}
	state = types.RestoreStateFileReplaced

	if err = c.store.Reopen(); err != nil {
		return fail(safetyID, err)
	}
	state = types.RestoreStateReconnected

	db, err := c.store.DB()
	if err != nil {
		return fail(safetyID, err)
	}
	count, err := store.VerifyIntegrity(db, c.verifyTable)
	if err != nil {
		return fail(safetyID, fmt.Errorf("%w: %v", types.ErrRestoreVerification, err))
	}
	state = types.RestoreStateVerified

	c.log.Snapshot().WithFields(logrus.Fields{
		"snapshot_id":        snapshotID,
		"safety_snapshot_id": safetyID,
		"verify_table":       c.verifyTable,
		"verify_count":       count,
	}).Info("restore completed")
	return nil
}
