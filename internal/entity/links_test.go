// Unit tests for measure-area-priority link mutations: create, bulk create
// atomicity, the snapshot-gated link cascade, and grant attachment.
package entity

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

// stubGate records snapshot gate calls.
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

func newTestLinks(t *testing.T) (*Links, *stubGate, *sql.DB) {
	t.Helper()

	s, err := store.Init(filepath.Join(t.TempDir(), "lnrs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	gate := &stubGate{}
	log := oplog.Discard()
	l := NewLinks(s, store.NewExecutor(s, log), gate, log)

	db, err := s.DB()
	require.NoError(t, err)
	return l, gate, db
}

// seedLinkFixture inserts two measures, areas, and priorities, two grants,
// one link (1,1,1), and one grant attachment on it.
func seedLinkFixture(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, stmt := range []string{
		"INSERT INTO measure (measure_id, measure) VALUES (1, 'Plant hedgerows')",
		"INSERT INTO measure (measure_id, measure) VALUES (2, 'Create ponds')",
		"INSERT INTO area (area_id, area_name) VALUES (1, 'Avon Gorge')",
		"INSERT INTO area (area_id, area_name) VALUES (2, 'Mendip Slopes')",
		"INSERT INTO priority (priority_id, biodiversity_priority) VALUES (1, 'Connect woodland')",
		"INSERT INTO priority (priority_id, biodiversity_priority) VALUES (2, 'Restore wetland')",
		"INSERT INTO grant_table (grant_id, grant_name) VALUES ('GR1', 'Hedgerow grant')",
		"INSERT INTO grant_table (grant_id, grant_name) VALUES ('GR2', 'Pond grant')",
		"INSERT INTO measure_area_priority (measure_id, area_id, priority_id) VALUES (1, 1, 1)",
		"INSERT INTO measure_area_priority_grant (measure_id, area_id, priority_id, grant_id) VALUES (1, 1, 1, 'GR1')",
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func linkCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM measure_area_priority").Scan(&n))
	return n
}

func TestCreateMAP(t *testing.T) {
	t.Run("inserts a new link", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		require.NoError(t, l.CreateMAP(MAPKey{MeasureID: 2, AreaID: 2, PriorityID: 2}))
		assert.Equal(t, 2, linkCount(t, db))
	})

	t.Run("existing combination is rejected", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		err := l.CreateMAP(MAPKey{MeasureID: 1, AreaID: 1, PriorityID: 1})
		assert.ErrorIs(t, err, types.ErrLinkExists)
		assert.Contains(t, err.Error(), "M1-A1-P1")
	})

	t.Run("missing parent surfaces as a constraint violation", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		err := l.CreateMAP(MAPKey{MeasureID: 99, AreaID: 1, PriorityID: 1})
		require.Error(t, err)

		var violation *types.ConstraintViolation
		assert.ErrorAs(t, err, &violation)
		assert.Equal(t, 1, linkCount(t, db))
	})
}

func TestBulkCreateMAP(t *testing.T) {
	t.Run("creates the Cartesian product, skipping existing links", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		result, err := l.BulkCreateMAP([]int{1, 2}, []int{1, 2}, []int{1})
		require.NoError(t, err)

		assert.Equal(t, 3, result.Created)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, MAPKey{MeasureID: 1, AreaID: 1, PriorityID: 1}, result.Skipped[0])
		assert.Equal(t, 4, linkCount(t, db))
	})

	t.Run("nothing to create when every combination exists", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		result, err := l.BulkCreateMAP([]int{1}, []int{1}, []int{1})
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Len(t, result.Skipped, 1)
		assert.Equal(t, 1, linkCount(t, db))
	})

	t.Run("one bad combination rolls back the whole batch", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		_, err := l.BulkCreateMAP([]int{2}, []int{1, 2}, []int{2, 99})
		require.Error(t, err)

		var violation *types.ConstraintViolation
		assert.ErrorAs(t, err, &violation)
		assert.Equal(t, 1, linkCount(t, db), "no combination may land when one fails")
	})

	t.Run("duplicate input ids count as skipped", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		result, err := l.BulkCreateMAP([]int{2, 2}, []int{1}, []int{1})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Len(t, result.Skipped, 1)
	})
}

func TestDeleteMAP(t *testing.T) {
	key := MAPKey{MeasureID: 1, AreaID: 1, PriorityID: 1}

	t.Run("removes the grant rows, then the link", func(t *testing.T) {
		l, gate, db := newTestLinks(t)
		seedLinkFixture(t, db)

		summary, err := l.DeleteMAP(key)
		require.NoError(t, err)

		assert.Equal(t, 1, gate.calls)
		assert.NotEmpty(t, summary.SnapshotID)
		assert.EqualValues(t, 1, summary.GrantsDeleted)
		assert.Zero(t, linkCount(t, db))
		assert.Zero(t, countWhere(t, db, types.MAPGrantTable, "measure_id", 1))
	})

	t.Run("missing link is rejected before the gate runs", func(t *testing.T) {
		l, gate, db := newTestLinks(t)
		seedLinkFixture(t, db)

		_, err := l.DeleteMAP(MAPKey{MeasureID: 9, AreaID: 9, PriorityID: 9})
		assert.ErrorIs(t, err, types.ErrLinkNotFound)
		assert.Zero(t, gate.calls)
	})

	t.Run("gate failure aborts before any row is touched", func(t *testing.T) {
		l, gate, db := newTestLinks(t)
		seedLinkFixture(t, db)
		gate.err = errors.New("disk full")

		_, err := l.DeleteMAP(key)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pre-delete snapshot")
		assert.Equal(t, 1, linkCount(t, db))
		assert.Equal(t, 1, countWhere(t, db, types.MAPGrantTable, "measure_id", 1))
	})

	t.Run("failure after the grant delete reports a partial cascade", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		// A table with a composite FK into the link makes the second
		// statement fail after the grant delete has committed.
		for _, stmt := range []string{
			`CREATE TABLE blocker (
                id INTEGER PRIMARY KEY,
                measure_id INTEGER,
                area_id INTEGER,
                priority_id INTEGER,
                FOREIGN KEY (measure_id, area_id, priority_id)
                    REFERENCES measure_area_priority(measure_id, area_id, priority_id)
            )`,
			"INSERT INTO blocker (id, measure_id, area_id, priority_id) VALUES (1, 1, 1, 1)",
		} {
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}

		_, err := l.DeleteMAP(key)
		require.Error(t, err)

		var partial *types.PartialCascadeFailure
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, "map_link", partial.Entity)
		assert.Equal(t, "M1-A1-P1", partial.Key)
		assert.Equal(t, 1, partial.FailedIndex)
		assert.EqualValues(t, 1, partial.RowsDeleted)

		assert.Zero(t, countWhere(t, db, types.MAPGrantTable, "measure_id", 1), "grant delete stays committed")
		assert.Equal(t, 1, linkCount(t, db), "link row survives")

		t.Run("retry succeeds once the blocker is gone", func(t *testing.T) {
			_, err := db.Exec("DELETE FROM blocker WHERE id = 1")
			require.NoError(t, err)

			summary, err := l.DeleteMAP(key)
			require.NoError(t, err)
			assert.Zero(t, summary.GrantsDeleted, "grants were already removed")
			assert.Zero(t, linkCount(t, db))
		})
	})
}

func TestGrantAttachment(t *testing.T) {
	key := MAPKey{MeasureID: 1, AreaID: 1, PriorityID: 1}

	t.Run("attaches and detaches a grant", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		require.NoError(t, l.AddGrant(key, "GR2"))
		assert.Equal(t, 2, countWhere(t, db, types.MAPGrantTable, "measure_id", 1))

		require.NoError(t, l.RemoveGrant(key, "GR2"))
		assert.Equal(t, 1, countWhere(t, db, types.MAPGrantTable, "measure_id", 1))
	})

	t.Run("attached grant is rejected", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		err := l.AddGrant(key, "GR1")
		assert.ErrorIs(t, err, types.ErrLinkExists)
	})

	t.Run("missing base link is rejected", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		err := l.AddGrant(MAPKey{MeasureID: 9, AreaID: 9, PriorityID: 9}, "GR1")
		assert.ErrorIs(t, err, types.ErrLinkNotFound)
	})

	t.Run("unknown grant id surfaces as a constraint violation", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		err := l.AddGrant(key, "GR9")
		require.Error(t, err)

		var violation *types.ConstraintViolation
		assert.ErrorAs(t, err, &violation)
	})

	t.Run("detaching an absent grant is rejected", func(t *testing.T) {
		l, _, db := newTestLinks(t)
		seedLinkFixture(t, db)

		err := l.RemoveGrant(key, "GR2")
		assert.ErrorIs(t, err, types.ErrLinkNotFound)
	})
}
