package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrNotAttached     = errors.New("store is not attached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrDatabaseMissing = errors.New("database file does not exist")
	ErrDatabaseExists  = errors.New("database file already exists")
)

// Cascade and entity operation errors.
var (
	ErrUnknownEntity  = errors.New("unknown entity type")
	ErrEntityNotFound = errors.New("entity record does not exist")
	ErrEmptyBatch     = errors.New("statement batch is empty")
	ErrLinkExists     = errors.New("link already exists")
	ErrLinkNotFound   = errors.New("link does not exist")
)

// Snapshot and restore errors.
var (
	ErrSnapshotNotFound    = errors.New("snapshot not found")
	ErrRestoreVerification = errors.New("restore verification failed")
)

// ExecError reports a failed statement inside a transactional batch. Index
// is the zero-based position of the failing statement; an Index of -1 marks
// a begin or commit failure rather than a statement failure. The whole
// batch was rolled back.
type ExecError struct {
	Index int
	Table string
	Err   error
}

func (e *ExecError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("transaction failed: %v", e.Err)
	}
	return fmt.Sprintf("statement %d (%s) failed, batch rolled back: %v", e.Index, e.Table, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ConstraintViolation reports a foreign-key or uniqueness breach. The
// engine's own message is preserved verbatim through Err; Table names the
// statement's target table.
type ConstraintViolation struct {
	Table string
	Index int
	Err   error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation on %s: %v", e.Table, e.Err)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// PartialCascadeFailure reports a sequential cascade delete that failed
// partway. Statements before FailedIndex remain committed; RowsDeleted
// counts the dependent rows already removed. Re-running the same plan is
// safe: the delete order guarantees no constraint error on retry, and the
// partially pruned parent row is not a corruption.
type PartialCascadeFailure struct {
	Entity      string
	Key         string
	FailedIndex int
	RowsDeleted int64
	Err         error
}

func (e *PartialCascadeFailure) Error() string {
	return fmt.Sprintf("cascade delete of %s %s failed at statement %d after removing %d dependent rows (committed): %v",
		e.Entity, e.Key, e.FailedIndex, e.RowsDeleted, e.Err)
}

func (e *PartialCascadeFailure) Unwrap() error { return e.Err }

// SnapshotIOError reports a failed snapshot copy or index write. Callers
// that gate destructive work on snapshot creation must treat it as a hard
// abort.
type SnapshotIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *SnapshotIOError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SnapshotIOError) Unwrap() error { return e.Err }

// Restore state machine positions. A failed restore reports the state it
// stopped at so an operator can resume manually.
const (
	RestoreStateIdle         = "idle"
	RestoreStateSafetyBackup = "safety-backup-created"
	RestoreStateConnsClosed  = "connections-closed"
	RestoreStateFileReplaced = "file-replaced"
	RestoreStateReconnected  = "reconnected"
	RestoreStateVerified     = "verified"
)

// RestoreError reports a failed restore together with the state reached.
// SafetySnapshotID names the pre-restore backup when one was created; for
// verification failures it is the operator's recovery path, because the
// live file has already been replaced.
type RestoreError struct {
	SnapshotID       string
	State            string
	SafetySnapshotID string
	Err              error
}

func (e *RestoreError) Error() string {
	msg := fmt.Sprintf("restore of %s failed at state %s: %v", e.SnapshotID, e.State, e.Err)
	if e.SafetySnapshotID != "" && errors.Is(e.Err, ErrRestoreVerification) {
		msg += fmt.Sprintf("; recover by restoring the pre-restore snapshot %s", e.SafetySnapshotID)
	}
	return msg
}

func (e *RestoreError) Unwrap() error { return e.Err }
