package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// The index is the single source of truth for what snapshots exist.
// Artifact files without an index entry are orphans and ignored.
const (
	indexFile     = "snapshot_metadata.json"
	indexNextFile = "snapshot_metadata.json.next"
)

// readIndex loads the snapshot index. A missing file is an empty index.
func readIndex(fs afero.Fs, dir string) ([]types.Snapshot, error) {
	path := filepath.Join(dir, indexFile)
	f, err := fs.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, &types.SnapshotIOError{Op: "read index", Path: path, Err: err}
	}
	defer f.Close()

	var records []types.Snapshot
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, &types.SnapshotIOError{Op: "decode index", Path: path, Err: err}
	}
	return records, nil
}

// writeIndex rewrites the whole index: complete temp file first, then an
// atomic rename, so a crash never leaves a torn index behind.
func writeIndex(fs afero.Fs, dir string, records []types.Snapshot) error {
	next := filepath.Join(dir, indexNextFile)
	current := filepath.Join(dir, indexFile)

	f, err := fs.OpenFile(next, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return &types.SnapshotIOError{Op: "write index", Path: next, Err: err}
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(records); err != nil {
		f.Close()
		return &types.SnapshotIOError{Op: "encode index", Path: next, Err: err}
	}
	if err = f.Close(); err != nil {
		return &types.SnapshotIOError{Op: "write index", Path: next, Err: err}
	}
	if err = fs.Rename(next, current); err != nil {
		return &types.SnapshotIOError{Op: "rename index", Path: current, Err: err}
	}
	return nil
}
