package types

import "time"

// Operation type tags recorded on snapshots.
const (
	OpDelete     = "delete"
	OpUpdate     = "update"
	OpBulkDelete = "bulk_delete"
	OpManual     = "manual"
	OpPreRestore = "pre_restore"
)

// KnownOperationTypes lists the operation tags accepted by snapshot
// creation and list filtering.
var KnownOperationTypes = []string{
	OpDelete,
	OpUpdate,
	OpBulkDelete,
	OpManual,
	OpPreRestore,
}

// Snapshot describes one full-copy backup of the database file. Records are
// immutable once written to the snapshot index; each snapshot is a
// standalone copy with no parent/child chain.
type Snapshot struct {
	ID            string `json:"snapshot_id"`
	Timestamp     string `json:"timestamp"`
	CreatedAt     string `json:"datetime"`
	Description   string `json:"description"`
	OperationType string `json:"operation_type"`
	EntityType    string `json:"entity_type,omitempty"`
	EntityID      string `json:"entity_id,omitempty"`
	FilePath      string `json:"file_path"`
	SizeBytes     int64  `json:"size_bytes"`
}

// CreatedTime parses the RFC3339 creation time.
func (s Snapshot) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, s.CreatedAt)
}
