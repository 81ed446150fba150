// Unit tests for cascade planning and execution: plan shape, the snapshot
// gate, atomic and sequential execution, and partial-failure retry.
package cascade

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/internal/store"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// stubGate satisfies SnapshotGate and records every call.
type stubGate struct {
	calls int
	err   error
}

func (s *stubGate) Create(description, opType, entityType, entityID string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("20260823_141530_%s_%s_%s", opType, entityType, entityID), nil
}

// newTestPlanner initializes a database and returns a planner wired to a
// recording gate.
func newTestPlanner(t *testing.T) (*Planner, *stubGate, *sql.DB) {
	t.Helper()

	s, err := store.Init(filepath.Join(t.TempDir(), "lnrs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g, err := NewGraph()
	require.NoError(t, err)

	gate := &stubGate{}
	log := oplog.Discard()
	p := NewPlanner(s, store.NewExecutor(s, log), g, gate, log)

	db, err := s.DB()
	require.NoError(t, err)
	return p, gate, db
}

// seedMeasureFixture inserts measure 42 with rows in every bridge the
// measure cascade touches. The lookup tables are already seeded by Init.
func seedMeasureFixture(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, stmt := range []string{
		"INSERT INTO measure (measure_id, measure) VALUES (42, 'Plant hedgerows')",
		"INSERT INTO area (area_id, area_name) VALUES (1, 'Avon Gorge')",
		"INSERT INTO priority (priority_id, biodiversity_priority) VALUES (1, 'Connect woodland')",
		"INSERT INTO species (species_id, common_name) VALUES (7, 'Skylark')",
		"INSERT INTO grant_table (grant_id, grant_name) VALUES ('GR1', 'Hedgerow grant')",
		"INSERT INTO measure_has_type (measure_id, measure_type_id) VALUES (42, 1)",
		"INSERT INTO measure_has_stakeholder (measure_id, stakeholder_id) VALUES (42, 1)",
		"INSERT INTO measure_has_benefits (measure_id, benefit_id) VALUES (42, 1)",
		"INSERT INTO measure_has_species (measure_id, species_id) VALUES (42, 7)",
		"INSERT INTO measure_area_priority (measure_id, area_id, priority_id) VALUES (42, 1, 1)",
		"INSERT INTO measure_area_priority_grant (measure_id, area_id, priority_id, grant_id) VALUES (42, 1, 1, 'GR1')",
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

// countWhere returns the rows in table matching column = key.
func countWhere(t *testing.T, db *sql.DB, table, column string, key any) int {
	t.Helper()
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, column)
	require.NoError(t, db.QueryRow(query, key).Scan(&n))
	return n
}

func TestPlan(t *testing.T) {
	p, _, _ := newTestPlanner(t)

	t.Run("measure plan deletes leaves first and the root last", func(t *testing.T) {
		plan, err := p.Plan(types.EntityMeasure, 42)
		require.NoError(t, err)

		assert.Equal(t, ModeSequential, plan.Mode)
		assert.Equal(t, "42", plan.Key)
		require.Len(t, plan.Batch, 7)
		assert.Equal(t, types.MeasureHasTypeTable, plan.Batch[0].Table)
		assert.Equal(t, types.MeasureTable, plan.Batch[6].Table)
		assert.Equal(t, "DELETE FROM measure WHERE measure_id = ?", plan.Batch[6].SQL)
		assert.Equal(t, []any{42}, plan.Batch[6].Args)
	})

	t.Run("species plan is atomic", func(t *testing.T) {
		plan, err := p.Plan(types.EntitySpecies, 7)
		require.NoError(t, err)

		assert.Equal(t, ModeAtomic, plan.Mode)
		require.Len(t, plan.Batch, 3)
		assert.Equal(t, types.SpeciesAreaPriorityTable, plan.Batch[0].Table)
		assert.Equal(t, types.SpeciesTable, plan.Batch[2].Table)
	})

	t.Run("unknown entity is rejected", func(t *testing.T) {
		_, err := p.Plan("postcode", 1)
		assert.ErrorIs(t, err, types.ErrUnknownEntity)
	})
}

func TestExecuteSequential(t *testing.T) {
	t.Run("removes every dependent row, then the root", func(t *testing.T) {
		p, gate, db := newTestPlanner(t)
		seedMeasureFixture(t, db)

		plan, err := p.Plan(types.EntityMeasure, 42)
		require.NoError(t, err)

		summary, err := p.Execute(plan)
		require.NoError(t, err)

		assert.Equal(t, 1, gate.calls)
		assert.NotEmpty(t, summary.SnapshotID)
		assert.EqualValues(t, 7, summary.Total)
		assert.Equal(t, []int64{1, 1, 1, 1, 1, 1, 1}, summary.RowsDeleted)

		for _, table := range []string{
			types.MeasureHasTypeTable, types.MeasureHasStakeholderTable,
			types.MAPGrantTable, types.MeasureAreaPriorityTable,
			types.MeasureHasBenefitsTable, types.MeasureHasSpeciesTable,
			types.MeasureTable,
		} {
			assert.Zero(t, countWhere(t, db, table, "measure_id", 42), "table %s", table)
		}
	})

	t.Run("missing key deletes nothing and succeeds", func(t *testing.T) {
		p, _, _ := newTestPlanner(t)

		plan, err := p.Plan(types.EntityMeasure, 999)
		require.NoError(t, err)

		summary, err := p.Execute(plan)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
	})
}

func TestExecuteAtomic(t *testing.T) {
	t.Run("species cascade commits as one transaction", func(t *testing.T) {
		p, gate, db := newTestPlanner(t)
		seedMeasureFixture(t, db)
		mustExec(t, db, "INSERT INTO species_area_priority (species_id, area_id, priority_id) VALUES (7, 1, 1)")

		plan, err := p.Plan(types.EntitySpecies, 7)
		require.NoError(t, err)

		summary, err := p.Execute(plan)
		require.NoError(t, err)

		assert.Equal(t, 1, gate.calls)
		assert.EqualValues(t, 3, summary.Total)
		assert.Zero(t, countWhere(t, db, types.SpeciesTable, "species_id", 7))
		assert.Zero(t, countWhere(t, db, types.MeasureHasSpeciesTable, "species_id", 7))
		assert.Zero(t, countWhere(t, db, types.SpeciesAreaPriorityTable, "species_id", 7))
	})
}

func TestExecuteGateFailure(t *testing.T) {
	t.Run("gate failure aborts before any row is touched", func(t *testing.T) {
		p, gate, db := newTestPlanner(t)
		seedMeasureFixture(t, db)
		gate.err = errors.New("disk full")

		plan, err := p.Plan(types.EntityMeasure, 42)
		require.NoError(t, err)

		_, err = p.Execute(plan)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pre-delete snapshot")

		assert.Equal(t, 1, countWhere(t, db, types.MeasureTable, "measure_id", 42))
		assert.Equal(t, 1, countWhere(t, db, types.MeasureHasTypeTable, "measure_id", 42))
	})
}

func TestPartialCascadeFailure(t *testing.T) {
	// An extra table referencing measure makes the final root delete fail
	// while every declared dependent delete succeeds.
	p, _, db := newTestPlanner(t)
	seedMeasureFixture(t, db)
	mustExec(t, db, `CREATE TABLE blocker (
        id INTEGER PRIMARY KEY,
        measure_id INTEGER NOT NULL,
        FOREIGN KEY (measure_id) REFERENCES measure(measure_id)
    )`)
	mustExec(t, db, "INSERT INTO blocker (id, measure_id) VALUES (1, 42)")

	plan, err := p.Plan(types.EntityMeasure, 42)
	require.NoError(t, err)

	_, err = p.Execute(plan)
	require.Error(t, err)

	var partial *types.PartialCascadeFailure
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, types.EntityMeasure, partial.Entity)
	assert.Equal(t, "42", partial.Key)
	assert.Equal(t, 6, partial.FailedIndex, "failure lands on the root statement")
	assert.EqualValues(t, 6, partial.RowsDeleted)

	t.Run("earlier statements stay committed", func(t *testing.T) {
		assert.Zero(t, countWhere(t, db, types.MeasureHasTypeTable, "measure_id", 42))
		assert.Zero(t, countWhere(t, db, types.MeasureAreaPriorityTable, "measure_id", 42))
		assert.Equal(t, 1, countWhere(t, db, types.MeasureTable, "measure_id", 42),
			"root row survives the partial failure")
	})

	t.Run("retry after removing the blocker succeeds", func(t *testing.T) {
		mustExec(t, db, "DELETE FROM blocker WHERE id = 1")

		summary, err := p.Execute(plan)
		require.NoError(t, err, "retry must not raise a constraint error")
		assert.EqualValues(t, 1, summary.Total, "only the root row remained")
		assert.Zero(t, countWhere(t, db, types.MeasureTable, "measure_id", 42))
	})
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}
