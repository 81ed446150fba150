package entity

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stevecrawshaw/lnrsdb/internal/cascade"
	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// MAPKey identifies one measure-area-priority link.
type MAPKey struct {
	MeasureID  int
	AreaID     int
	PriorityID int
}

func (k MAPKey) String() string {
	return fmt.Sprintf("M%d-A%d-P%d", k.MeasureID, k.AreaID, k.PriorityID)
}

// BulkResult reports a bulk link creation: how many rows the single
// transaction inserted and which requested combinations already existed.
type BulkResult struct {
	Created int
	Skipped []MAPKey
}

// LinkDeleteSummary reports a completed link cascade.
type LinkDeleteSummary struct {
	Key           MAPKey
	SnapshotID    string
	GrantsDeleted int64
}

// Links mutates measure-area-priority rows and their grant attachments.
type Links struct {
	store *store.Store
	exec  *store.Executor
	gate  cascade.SnapshotGate
	log   *oplog.Log
}

// NewLinks returns a link mutator over the given store.
func NewLinks(st *store.Store, exec *store.Executor, gate cascade.SnapshotGate, log *oplog.Log) *Links {
	return &Links{store: st, exec: exec, gate: gate, log: log}
}

// CreateMAP inserts one measure-area-priority link. Returns
// types.ErrLinkExists when the combination is already present; a missing
// measure, area, or priority surfaces as *types.ConstraintViolation.
func (l *Links) CreateMAP(key MAPKey) error {
	db, err := l.store.DB()
	if err != nil {
		return err
	}
	exists, err := l.linkExists(db, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("link %s: %w", key, types.ErrLinkExists)
	}

	batch := types.Batch{{
		SQL:   "INSERT INTO measure_area_priority (measure_id, area_id, priority_id) VALUES (?, ?, ?)",
		Args:  []any{key.MeasureID, key.AreaID, key.PriorityID},
		Table: types.MeasureAreaPriorityTable,
	}}
	if _, err := l.exec.RunBatch(batch); err != nil {
		return err
	}

	l.log.Mutation().WithField("link", key.String()).Info("link created")
	return nil
}

// BulkCreateMAP inserts the Cartesian product of the given id lists as one
// transaction. Combinations already present are skipped, not errors; a
// duplicate inside the input lists counts as skipped too. When every
// combination already exists, no transaction runs. Any insert failure rolls
// the whole batch back.
func (l *Links) BulkCreateMAP(measureIDs, areaIDs, priorityIDs []int) (result *BulkResult, err error) {
	opID, done := l.log.Timer("link_bulk_create")
	defer func() { done(err) }()

	db, err := l.store.DB()
	if err != nil {
		return nil, err
	}
	existing, err := l.loadLinkSet(db)
	if err != nil {
		return nil, err
	}

	var batch types.Batch
	var skipped []MAPKey
	for _, measureID := range measureIDs {
		for _, areaID := range areaIDs {
			for _, priorityID := range priorityIDs {
				key := MAPKey{MeasureID: measureID, AreaID: areaID, PriorityID: priorityID}
				if _, ok := existing[key]; ok {
					skipped = append(skipped, key)
					continue
				}
				existing[key] = struct{}{}
				batch = append(batch, types.Statement{
					SQL:   "INSERT INTO measure_area_priority (measure_id, area_id, priority_id) VALUES (?, ?, ?)",
					Args:  []any{key.MeasureID, key.AreaID, key.PriorityID},
					Table: types.MeasureAreaPriorityTable,
				})
			}
		}
	}

	if len(batch) == 0 {
		l.log.Mutation().WithFields(logrus.Fields{
			"op_id":   opID,
			"skipped": len(skipped),
		}).Info("no new links to create")
		return &BulkResult{Skipped: skipped}, nil
	}

	if _, err = l.exec.RunBatch(batch); err != nil {
		l.log.Mutation().WithFields(logrus.Fields{
			"op_id":      opID,
			"statements": len(batch),
		}).WithError(err).Error("bulk link create rolled back")
		return nil, err
	}

	l.log.Mutation().WithFields(logrus.Fields{
		"op_id":   opID,
		"created": len(batch),
		"skipped": len(skipped),
	}).Info("links created in bulk")
	return &BulkResult{Created: len(batch), Skipped: skipped}, nil
}

// DeleteMAP removes one link and its grant attachments: the grant rows
// first, then the link row, each committed on its own because the grant
// table's composite FK is checked immediately. The snapshot gate runs
// before any row is touched. A failure after the grant delete surfaces as
// *types.PartialCascadeFailure with the grant rows already gone; re-running
// is safe.
func (l *Links) DeleteMAP(key MAPKey) (summary *LinkDeleteSummary, err error) {
	opID, done := l.log.Timer("link_delete")
	defer func() { done(err) }()

	db, err := l.store.DB()
	if err != nil {
		return nil, err
	}
	exists, err := l.linkExists(db, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("link %s: %w", key, types.ErrLinkNotFound)
	}

	snapshotID, err := l.gate.Create(
		fmt.Sprintf("Before deleting link %s", key),
		types.OpDelete, "map_link", key.String(),
	)
	if err != nil {
		l.log.Mutation().WithFields(logrus.Fields{
			"op_id": opID,
			"link":  key.String(),
		}).WithError(err).Error("link delete aborted, snapshot failed")
		return nil, fmt.Errorf("pre-delete snapshot: %w", err)
	}

	where := " WHERE measure_id = ? AND area_id = ? AND priority_id = ?"
	plan := types.Batch{
		{
			SQL:   "DELETE FROM measure_area_priority_grant" + where,
			Args:  []any{key.MeasureID, key.AreaID, key.PriorityID},
			Table: types.MAPGrantTable,
		},
		{
			SQL:   "DELETE FROM measure_area_priority" + where,
			Args:  []any{key.MeasureID, key.AreaID, key.PriorityID},
			Table: types.MeasureAreaPriorityTable,
		},
	}

	var grants int64
	for i, stmt := range plan {
		res, execErr := db.Exec(stmt.SQL, stmt.Args...)
		if execErr != nil {
			failure := &types.PartialCascadeFailure{
				Entity:      "map_link",
				Key:         key.String(),
				FailedIndex: i,
				RowsDeleted: grants,
				Err:         execErr,
			}
			l.log.Mutation().WithFields(logrus.Fields{
				"op_id":        opID,
				"link":         key.String(),
				"statement":    i,
				"table":        stmt.Table,
				"rows_deleted": grants,
			}).WithError(execErr).Error("link cascade failed partway")
			return nil, failure
		}
		if i == 0 {
			if grants, execErr = res.RowsAffected(); execErr != nil {
				return nil, execErr
			}
		}
	}

	l.log.Mutation().WithFields(logrus.Fields{
		"op_id":       opID,
		"link":        key.String(),
		"grants":      grants,
		"snapshot_id": snapshotID,
	}).Info("link deleted")
	return &LinkDeleteSummary{Key: key, SnapshotID: snapshotID, GrantsDeleted: grants}, nil
}

// AddGrant attaches grant funding to an existing link. Returns
// types.ErrLinkNotFound when the base link is missing and
// types.ErrLinkExists when the grant is already attached; an unknown grant
// id surfaces as *types.ConstraintViolation.
func (l *Links) AddGrant(key MAPKey, grantID string) error {
	db, err := l.store.DB()
	if err != nil {
		return err
	}
	exists, err := l.linkExists(db, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("link %s: %w", key, types.ErrLinkNotFound)
	}

	attached, err := l.grantAttached(db, key, grantID)
	if err != nil {
		return err
	}
	if attached {
		return fmt.Errorf("grant %s on link %s: %w", grantID, key, types.ErrLinkExists)
	}

	batch := types.Batch{{
		SQL:   "INSERT INTO measure_area_priority_grant (measure_id, area_id, priority_id, grant_id) VALUES (?, ?, ?, ?)",
		Args:  []any{key.MeasureID, key.AreaID, key.PriorityID, grantID},
		Table: types.MAPGrantTable,
	}}
	if _, err := l.exec.RunBatch(batch); err != nil {
		return err
	}

	l.log.Mutation().WithFields(logrus.Fields{
		"link":     key.String(),
		"grant_id": grantID,
	}).Info("grant attached")
	return nil
}

// RemoveGrant detaches one grant from a link. Returns
// types.ErrLinkNotFound when the attachment does not exist.
func (l *Links) RemoveGrant(key MAPKey, grantID string) error {
	db, err := l.store.DB()
	if err != nil {
		return err
	}

	res, err := db.Exec(
		"DELETE FROM measure_area_priority_grant WHERE measure_id = ? AND area_id = ? AND priority_id = ? AND grant_id = ?",
		key.MeasureID, key.AreaID, key.PriorityID, grantID,
	)
	if err != nil {
		return fmt.Errorf("remove grant %s from link %s: %w", grantID, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("grant %s on link %s: %w", grantID, key, types.ErrLinkNotFound)
	}

	l.log.Mutation().WithFields(logrus.Fields{
		"link":     key.String(),
		"grant_id": grantID,
	}).Info("grant detached")
	return nil
}

func (l *Links) linkExists(db *sql.DB, key MAPKey) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM measure_area_priority WHERE measure_id = ? AND area_id = ? AND priority_id = ?",
		key.MeasureID, key.AreaID, key.PriorityID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check link %s: %w", key, err)
	}
	return n > 0, nil
}

func (l *Links) grantAttached(db *sql.DB, key MAPKey, grantID string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM measure_area_priority_grant WHERE measure_id = ? AND area_id = ? AND priority_id = ? AND grant_id = ?",
		key.MeasureID, key.AreaID, key.PriorityID, grantID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check grant %s on link %s: %w", grantID, key, err)
	}
	return n > 0, nil
}

// loadLinkSet reads every existing link triple so bulk creation can skip
// duplicates without a per-combination query.
func (l *Links) loadLinkSet(db *sql.DB) (map[MAPKey]struct{}, error) {
	rows, err := db.Query("SELECT measure_id, area_id, priority_id FROM measure_area_priority")
	if err != nil {
		return nil, fmt.Errorf("load existing links: %w", err)
	}
	defer rows.Close()

	set := make(map[MAPKey]struct{})
	for rows.Next() {
		var key MAPKey
		if err := rows.Scan(&key.MeasureID, &key.AreaID, &key.PriorityID); err != nil {
			return nil, fmt.Errorf("scan link row: %w", err)
		}
		set[key] = struct{}{}
	}
	return set, rows.Err()
}
