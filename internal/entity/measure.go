// Package entity implements the mutation layer for LNRS records: measure
// create/update with their lookup-table memberships, and the
// measure-area-priority link operations including the link-level cascade.
// Every multi-statement mutation goes through the transactional executor;
// only the link cascade commits statement by statement, for the same
// immediate-FK reason as the entity cascades.
package entity

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Measures mutates measure rows and their type / stakeholder / benefit
// memberships.
type Measures struct {
	store *store.Store
	exec  *store.Executor
	log   *oplog.Log
}

// NewMeasures returns a measure mutator over the given store.
func NewMeasures(st *store.Store, exec *store.Executor, log *oplog.Log) *Measures {
	return &Measures{store: st, exec: exec, log: log}
}

// Create inserts a measure with its initial memberships as one transaction.
// The new id is allocated as max(measure_id)+1; the id on m is ignored.
// Returns the allocated id.
func (m *Measures) Create(rec types.Measure, typeIDs, stakeholderIDs, benefitIDs []int) (id int, err error) {
	opID, done := m.log.Timer("measure_create")
	defer func() { done(err) }()

	db, err := m.store.DB()
	if err != nil {
		return 0, err
	}
	if err = db.QueryRow("SELECT COALESCE(MAX(measure_id), 0) + 1 FROM measure").Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate measure id: %w", err)
	}

	batch := types.Batch{{
		SQL: "INSERT INTO measure (measure_id, measure, concise_measure, core_supplementary, mapped_unmapped) " +
			"VALUES (?, ?, ?, ?, ?)",
		Args:  []any{id, rec.Measure, rec.ConciseMeasure, rec.CoreSupplementary, rec.MappedUnmapped},
		Table: types.MeasureTable,
	}}
	batch = append(batch, membershipInserts(id, typeIDs, stakeholderIDs, benefitIDs)...)

	if _, err = m.exec.RunBatch(batch); err != nil {
		return 0, err
	}

	m.log.Mutation().WithFields(logrus.Fields{
		"op_id":      opID,
		"measure_id": id,
		"links":      len(batch) - 1,
	}).Info("measure created")
	return id, nil
}

// Update rewrites the measure's fields and replaces its type, stakeholder,
// and benefit memberships with the given lists, all in one transaction.
// Species links are left alone; they are managed through the cascade layer.
// Returns types.ErrEntityNotFound when no measure has the given id.
func (m *Measures) Update(id int, rec types.Measure, typeIDs, stakeholderIDs, benefitIDs []int) (err error) {
	opID, done := m.log.Timer("measure_update")
	defer func() { done(err) }()

	if err = m.mustExist(id); err != nil {
		return err
	}

	batch := types.Batch{
		{
			SQL: "UPDATE measure SET measure = ?, concise_measure = ?, core_supplementary = ?, mapped_unmapped = ? " +
				"WHERE measure_id = ?",
			Args:  []any{rec.Measure, rec.ConciseMeasure, rec.CoreSupplementary, rec.MappedUnmapped, id},
			Table: types.MeasureTable,
		},
		{SQL: "DELETE FROM measure_has_type WHERE measure_id = ?", Args: []any{id}, Table: types.MeasureHasTypeTable},
		{SQL: "DELETE FROM measure_has_stakeholder WHERE measure_id = ?", Args: []any{id}, Table: types.MeasureHasStakeholderTable},
		{SQL: "DELETE FROM measure_has_benefits WHERE measure_id = ?", Args: []any{id}, Table: types.MeasureHasBenefitsTable},
	}
	batch = append(batch, membershipInserts(id, typeIDs, stakeholderIDs, benefitIDs)...)

	if _, err = m.exec.RunBatch(batch); err != nil {
		return err
	}

	m.log.Mutation().WithFields(logrus.Fields{
		"op_id":      opID,
		"measure_id": id,
		"statements": len(batch),
	}).Info("measure updated")
	return nil
}

// AddTypes links the given measure types to a measure as one transaction.
// An empty list is a no-op.
func (m *Measures) AddTypes(measureID int, typeIDs []int) error {
	return m.addLinks(measureID, types.MeasureHasTypeTable, "measure_type_id", typeIDs)
}

// AddStakeholders links the given stakeholders to a measure as one
// transaction. An empty list is a no-op.
func (m *Measures) AddStakeholders(measureID int, stakeholderIDs []int) error {
	return m.addLinks(measureID, types.MeasureHasStakeholderTable, "stakeholder_id", stakeholderIDs)
}

// AddBenefits links the given benefits to a measure as one transaction. An
// empty list is a no-op.
func (m *Measures) AddBenefits(measureID int, benefitIDs []int) error {
	return m.addLinks(measureID, types.MeasureHasBenefitsTable, "benefit_id", benefitIDs)
}

func (m *Measures) addLinks(measureID int, table, column string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	batch := make(types.Batch, 0, len(ids))
	for _, linkID := range ids {
		batch = append(batch, types.Statement{
			SQL:   fmt.Sprintf("INSERT INTO %s (measure_id, %s) VALUES (?, ?)", table, column),
			Args:  []any{measureID, linkID},
			Table: table,
		})
	}
	if _, err := m.exec.RunBatch(batch); err != nil {
		return err
	}

	m.log.Mutation().WithFields(logrus.Fields{
		"measure_id": measureID,
		"table":      table,
		"rows":       len(ids),
	}).Debug("measure links added")
	return nil
}

func (m *Measures) mustExist(id int) error {
	db, err := m.store.DB()
	if err != nil {
		return err
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM measure WHERE measure_id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("check measure %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("measure %d: %w", id, types.ErrEntityNotFound)
	}
	return nil
}

// membershipInserts builds the bridge-row inserts for a measure's type,
// stakeholder, and benefit memberships.
func membershipInserts(measureID int, typeIDs, stakeholderIDs, benefitIDs []int) types.Batch {
	var batch types.Batch
	for _, typeID := range typeIDs {
		batch = append(batch, types.Statement{
			SQL:   "INSERT INTO measure_has_type (measure_id, measure_type_id) VALUES (?, ?)",
			Args:  []any{measureID, typeID},
			Table: types.MeasureHasTypeTable,
		})
	}
	for _, stakeholderID := range stakeholderIDs {
		batch = append(batch, types.Statement{
			SQL:   "INSERT INTO measure_has_stakeholder (measure_id, stakeholder_id) VALUES (?, ?)",
			Args:  []any{measureID, stakeholderID},
			Table: types.MeasureHasStakeholderTable,
		})
	}
	for _, benefitID := range benefitIDs {
		batch = append(batch, types.Statement{
			SQL:   "INSERT INTO measure_has_benefits (measure_id, benefit_id) VALUES (?, ?)",
			Args:  []any{measureID, benefitID},
			Table: types.MeasureHasBenefitsTable,
		})
	}
	return batch
}
