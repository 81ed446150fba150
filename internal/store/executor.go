package store

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Executor runs an ordered statement batch as one transaction. Either every
// statement commits or none does; no partial effect is ever visible outside
// the call.
type Executor struct {
	store *Store
	log   *oplog.Log
}

// NewExecutor returns an Executor over the given store.
func NewExecutor(store *Store, log *oplog.Log) *Executor {
	return &Executor{store: store, log: log}
}

// RunBatch executes the batch inside a single transaction and returns the
// per-statement affected row counts. On any failure the whole batch rolls
// back and the error names the failing statement: *types.ConstraintViolation
// when the engine reports a constraint breach, *types.ExecError otherwise.
// An ExecError index of -1 marks a begin or commit failure.
func (e *Executor) RunBatch(batch types.Batch) (counts []int64, err error) {
	if len(batch) == 0 {
		return nil, types.ErrEmptyBatch
	}
	db, err := e.store.DB()
	if err != nil {
		return nil, err
	}

	opID, done := e.log.Timer("batch_execute")
	defer func() { done(err) }()

	e.log.Mutation().WithFields(logrus.Fields{
		"op_id":      opID,
		"statements": len(batch),
	}).Debug("batch started")

	tx, err := db.Begin()
	if err != nil {
		return nil, &types.ExecError{Index: -1, Err: err}
	}

	counts = make([]int64, 0, len(batch))
	for i, stmt := range batch {
		res, execErr := tx.Exec(stmt.SQL, stmt.Args...)
		if execErr != nil {
			tx.Rollback()
			e.log.Mutation().WithFields(logrus.Fields{
				"op_id":     opID,
				"statement": i,
				"table":     stmt.Table,
			}).WithError(execErr).Debug("batch rolled back")
			return nil, statementError(i, stmt.Table, execErr)
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			tx.Rollback()
			return nil, &types.ExecError{Index: i, Table: stmt.Table, Err: execErr}
		}
		counts = append(counts, n)
	}

	if err = tx.Commit(); err != nil {
		return nil, &types.ExecError{Index: -1, Err: err}
	}

	e.log.Mutation().WithFields(logrus.Fields{
		"op_id":      opID,
		"statements": len(batch),
	}).Debug("batch committed")
	return counts, nil
}

// statementError classifies an engine error for one statement. SQLite
// reports every FK and uniqueness breach with "constraint" in the message.
func statementError(index int, table string, err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "constraint") {
		return &types.ConstraintViolation{Table: table, Index: index, Err: err}
	}
	return &types.ExecError{Index: index, Table: table, Err: err}
}
