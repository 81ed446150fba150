// Package cascade plans and executes dependency-ordered deletes under
// immediate foreign-key checking.
//
// The storage engine validates FK constraints after every statement, even
// inside an open transaction, so a cascade cannot lean on the transaction to
// settle ordering. The planner emits one DELETE per dependent table, leaves
// first and the root row last, and the entity graph decides per entity
// whether the whole plan can commit as one transaction or each statement
// must commit on its own.
package cascade

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// SnapshotGate creates a pre-operation snapshot. Execute calls it before
// touching any row and aborts the cascade when it fails.
type SnapshotGate interface {
	Create(description, opType, entityType, entityID string) (string, error)
}

// Plan is the ordered delete batch for one entity row, plus the execution
// mode its entity derives.
type Plan struct {
	Entity string      `json:"entity"`
	Key    string      `json:"key"`
	Mode   string      `json:"mode"`
	Batch  types.Batch `json:"statements"`
}

// DeleteSummary reports a completed cascade delete.
type DeleteSummary struct {
	Entity      string  `json:"entity"`
	Key         string  `json:"key"`
	Mode        string  `json:"mode"`
	SnapshotID  string  `json:"snapshot_id"`
	RowsDeleted []int64 `json:"rows_deleted"`
	Total       int64   `json:"total"`
}

// Planner builds and executes cascade delete plans.
type Planner struct {
	store *store.Store
	exec  *store.Executor
	graph *Graph
	gate  SnapshotGate
	log   *oplog.Log
}

// NewPlanner returns a planner over the given store and entity graph.
func NewPlanner(st *store.Store, exec *store.Executor, g *Graph, gate SnapshotGate, log *oplog.Log) *Planner {
	return &Planner{store: st, exec: exec, graph: g, gate: gate, log: log}
}

// Plan emits one DELETE per dependent table in the entity's declared order,
// ending with the root row. The key binds to each dependent's declared
// column.
func (p *Planner) Plan(entity string, key any) (*Plan, error) {
	entry, err := p.graph.Entry(entity)
	if err != nil {
		return nil, err
	}

	batch := make(types.Batch, 0, len(entry.Dependents)+1)
	for _, dep := range entry.Dependents {
		batch = append(batch, types.Statement{
			SQL:   fmt.Sprintf("DELETE FROM %s WHERE %s = ?", dep.Table, dep.Column),
			Args:  []any{key},
			Table: dep.Table,
		})
	}
	batch = append(batch, types.Statement{
		SQL:   fmt.Sprintf("DELETE FROM %s WHERE %s = ?", entry.Root, entry.KeyColumn),
		Args:  []any{key},
		Table: entry.Root,
	})

	return &Plan{
		Entity: entity,
		Key:    fmt.Sprint(key),
		Mode:   entry.Mode,
		Batch:  batch,
	}, nil
}

// Execute runs the plan under its mode. The snapshot gate runs first; a
// gate failure aborts before any row is touched. Atomic-safe plans go
// through the transactional executor; sequential-required plans commit each
// statement on its own, and a mid-plan failure surfaces as
// *types.PartialCascadeFailure with everything before it still committed.
func (p *Planner) Execute(plan *Plan) (summary *DeleteSummary, err error) {
	opID, done := p.log.Timer("cascade_delete")
	defer func() { done(err) }()

	snapshotID, err := p.gate.Create(
		fmt.Sprintf("Before cascade delete of %s %s", plan.Entity, plan.Key),
		types.OpDelete, plan.Entity, plan.Key,
	)
	if err != nil {
		p.log.Mutation().WithFields(logrus.Fields{
			"op_id":  opID,
			"entity": plan.Entity,
			"key":    plan.Key,
		}).WithError(err).Error("cascade aborted, snapshot failed")
		return nil, fmt.Errorf("pre-delete snapshot: %w", err)
	}

	p.log.Mutation().WithFields(logrus.Fields{
		"op_id":       opID,
		"entity":      plan.Entity,
		"key":         plan.Key,
		"mode":        plan.Mode,
		"snapshot_id": snapshotID,
		"statements":  len(plan.Batch),
	}).Info("cascade delete started")

	var counts []int64
	if plan.Mode == ModeAtomic {
		counts, err = p.exec.RunBatch(plan.Batch)
		if err != nil {
			p.log.Mutation().WithFields(logrus.Fields{
				"op_id":  opID,
				"entity": plan.Entity,
				"key":    plan.Key,
			}).WithError(err).Error("cascade rolled back")
			return nil, err
		}
	} else {
		counts, err = p.executeSequential(opID, plan)
		if err != nil {
			return nil, err
		}
	}

	summary = &DeleteSummary{
		Entity:      plan.Entity,
		Key:         plan.Key,
		Mode:        plan.Mode,
		SnapshotID:  snapshotID,
		RowsDeleted: counts,
	}
	for _, n := range counts {
		summary.Total += n
	}

	p.log.Mutation().WithFields(logrus.Fields{
		"op_id":        opID,
		"entity":       plan.Entity,
		"key":          plan.Key,
		"rows_deleted": summary.Total,
	}).Info("cascade delete completed")
	return summary, nil
}

// executeSequential commits each statement on its own, in plan order. On
// failure at statement i, statements before i stay committed; the returned
// error carries the failed index and the dependent rows already removed.
// Re-running the same plan is safe because the order guarantees no FK
// violation on retry.
func (p *Planner) executeSequential(opID string, plan *Plan) ([]int64, error) {
	db, err := p.store.DB()
	if err != nil {
		return nil, err
	}

	counts := make([]int64, 0, len(plan.Batch))
	var removed int64
	for i, stmt := range plan.Batch {
		res, execErr := db.Exec(stmt.SQL, stmt.Args...)
		if execErr != nil {
			failure := &types.PartialCascadeFailure{
				Entity:      plan.Entity,
				Key:         plan.Key,
				FailedIndex: i,
				RowsDeleted: removed,
				Err:         execErr,
			}
			p.log.Mutation().WithFields(logrus.Fields{
				"op_id":        opID,
				"entity":       plan.Entity,
				"key":          plan.Key,
				"statement":    i,
				"table":        stmt.Table,
				"rows_deleted": removed,
			}).WithError(execErr).Error("sequential cascade failed partway")
			return nil, failure
		}

		n, execErr := res.RowsAffected()
		if execErr != nil {
			return nil, &types.PartialCascadeFailure{
				Entity:      plan.Entity,
				Key:         plan.Key,
				FailedIndex: i,
				RowsDeleted: removed,
				Err:         execErr,
			}
		}
		counts = append(counts, n)
		removed += n

		p.log.Mutation().WithFields(logrus.Fields{
			"op_id": opID,
			"table": stmt.Table,
			"rows":  n,
		}).Debug("cascade statement committed")
	}
	return counts, nil
}
