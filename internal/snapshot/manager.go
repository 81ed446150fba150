// Package snapshot implements whole-file database snapshots: creation with
// an operation-context id, a JSON index as the single source of truth,
// filtered listing, retention cleanup, and the coordinated restore flow.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/stevecrawshaw/lnrsdb/internal/oplog"
	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// timestampLayout is the id-forming timestamp token.
const timestampLayout = "20060102_150405"

// Manager creates, lists, and prunes snapshots of one database file.
type Manager struct {
	dbPath string
	dir    string
	fs     afero.Fs
	log    *oplog.Log
	now    func() time.Time
}

// NewManager returns a manager for the configured database and snapshot
// directory.
func NewManager(cfg types.Config, log *oplog.Log) *Manager {
	return &Manager{
		dbPath: cfg.DatabasePath(),
		dir:    cfg.SnapshotDir,
		fs:     afero.NewOsFs(),
		log:    log,
		now:    time.Now,
	}
}

// artifactName is the on-disk name of one snapshot copy.
func artifactName(id string) string {
	return "lnrs_backup_" + id + ".db"
}

// Create copies the live database file into the snapshot directory and
// appends the record to the index, returning the new snapshot id. The id
// joins the non-empty parts of [timestamp, opType, entityType, entityID];
// a same-second collision gets a numeric suffix. Failures surface as
// *types.SnapshotIOError and the index is never left pointing at a missing
// artifact.
func (m *Manager) Create(description, opType, entityType, entityID string) (id string, err error) {
	_, done := m.log.Timer("snapshot_create")
	defer func() { done(err) }()

	if err = m.fs.MkdirAll(m.dir, 0755); err != nil {
		return "", &types.SnapshotIOError{Op: "create directory", Path: m.dir, Err: err}
	}

	records, err := readIndex(m.fs, m.dir)
	if err != nil {
		return "", err
	}

	now := m.now()
	id = newID(records, now, opType, entityType, entityID)
	target := filepath.Join(m.dir, artifactName(id))

	size, err := copyFile(m.fs, m.dbPath, target)
	if err != nil {
		return "", err
	}

	records = append(records, types.Snapshot{
		ID:            id,
		Timestamp:     now.Format(timestampLayout),
		CreatedAt:     now.Format(time.RFC3339),
		Description:   description,
		OperationType: opType,
		EntityType:    entityType,
		EntityID:      entityID,
		FilePath:      target,
		SizeBytes:     size,
	})
	if err = writeIndex(m.fs, m.dir, records); err != nil {
		m.fs.Remove(target)
		return "", err
	}

	m.log.Snapshot().WithFields(logrus.Fields{
		"snapshot_id":    id,
		"operation_type": opType,
		"entity_type":    entityType,
		"entity_id":      entityID,
		"size_bytes":     size,
	}).Info("snapshot created")
	return id, nil
}

// newID builds the snapshot id from the creation time the record will
// carry, suffixing on collision with an existing record.
func newID(records []types.Snapshot, now time.Time, opType, entityType, entityID string) string {
	taken := make(map[string]bool, len(records))
	for _, rec := range records {
		taken[rec.ID] = true
	}

	base := now.Format(timestampLayout)
	for _, part := range []string{opType, entityType, entityID} {
		if part != "" {
			base += "_" + part
		}
	}

	id := base
	for n := 2; taken[id]; n++ {
		id = base + "_" + strconv.Itoa(n)
	}
	return id
}

// copyFile copies src to dst whole and returns the byte count.
func copyFile(fs afero.Fs, src, dst string) (int64, error) {
	in, err := fs.Open(src)
	if err != nil {
		return 0, &types.SnapshotIOError{Op: "open source", Path: src, Err: err}
	}
	defer in.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return 0, &types.SnapshotIOError{Op: "create copy", Path: dst, Err: err}
	}

	size, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		fs.Remove(dst)
		return 0, &types.SnapshotIOError{Op: "copy", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		fs.Remove(dst)
		return 0, &types.SnapshotIOError{Op: "copy", Path: dst, Err: err}
	}
	return size, nil
}

// ListFilter narrows List output. The zero value matches everything.
type ListFilter struct {
	OperationType string
	EntityType    string
	Limit         int
}

// List returns snapshots newest-first, optionally filtered. Artifact files
// without an index entry are ignored; List has no side effects.
func (m *Manager) List(filter ListFilter) ([]types.Snapshot, error) {
	records, err := readIndex(m.fs, m.dir)
	if err != nil {
		return nil, err
	}

	matched := make([]types.Snapshot, 0, len(records))
	for _, rec := range records {
		if filter.OperationType != "" && rec.OperationType != filter.OperationType {
			continue
		}
		if filter.EntityType != "" && rec.EntityType != filter.EntityType {
			continue
		}
		matched = append(matched, rec)
	}

	sortNewestFirst(matched)
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Get returns the index record for an id, or types.ErrSnapshotNotFound.
func (m *Manager) Get(id string) (types.Snapshot, error) {
	records, err := readIndex(m.fs, m.dir)
	if err != nil {
		return types.Snapshot{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return types.Snapshot{}, fmt.Errorf("%s: %w", id, types.ErrSnapshotNotFound)
}

// Cleanup deletes every snapshot beyond the keep newest, artifact and index
// entry both, and returns the deleted count.
func (m *Manager) Cleanup(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("retain count %d is negative", keep)
	}

	records, err := readIndex(m.fs, m.dir)
	if err != nil {
		return 0, err
	}
	if len(records) <= keep {
		return 0, nil
	}

	sorted := make([]types.Snapshot, len(records))
	copy(sorted, records)
	sortNewestFirst(sorted)

	victims := make(map[string]bool, len(sorted)-keep)
	for _, rec := range sorted[keep:] {
		victims[rec.ID] = true
	}

	deleted := 0
	retained := make([]types.Snapshot, 0, keep)
	for i, rec := range records {
		if !victims[rec.ID] {
			retained = append(retained, rec)
			continue
		}
		if err := m.fs.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			// Keep the entry for anything still on disk, including every
			// record not yet visited, then report the failure.
			retained = append(append(retained, rec), records[i+1:]...)
			if werr := writeIndex(m.fs, m.dir, retained); werr != nil {
				return deleted, werr
			}
			return deleted, &types.SnapshotIOError{Op: "remove artifact", Path: rec.FilePath, Err: err}
		}
		deleted++
	}

	if err := writeIndex(m.fs, m.dir, retained); err != nil {
		return deleted, err
	}

	m.log.Snapshot().WithFields(logrus.Fields{
		"deleted":  deleted,
		"retained": len(retained),
	}).Info("snapshot cleanup completed")
	return deleted, nil
}

// sortNewestFirst orders records by creation time, newest first; records
// created in the same second keep their index order reversed, so the later
// append wins.
func sortNewestFirst(records []types.Snapshot) {
	type keyed struct {
		rec types.Snapshot
		at  time.Time
		pos int
	}
	ks := make([]keyed, len(records))
	for i, rec := range records {
		at, _ := rec.CreatedTime()
		ks[i] = keyed{rec: rec, at: at, pos: i}
	}
	sort.Slice(ks, func(i, j int) bool {
		if !ks[i].at.Equal(ks[j].at) {
			return ks[i].at.After(ks[j].at)
		}
		return ks[i].pos > ks[j].pos
	})
	for i, k := range ks {
		records[i] = k.rec
	}
}
