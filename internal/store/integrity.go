package store

import (
	"database/sql"
	"fmt"
	"slices"

	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// VerifyIntegrity runs a count query against one of the core tables and
// returns the row count. A table outside the core set is rejected, so a
// config value can never reach the query text unchecked.
func VerifyIntegrity(db *sql.DB, table string) (int64, error) {
	if !slices.Contains(types.CoreTableNames, table) {
		return 0, fmt.Errorf("verify table %q is not a core table", table)
	}
	var count int64
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// TableCounts returns the row count of every table, core and bridge, keyed
// by table name.
func TableCounts(db *sql.DB) (map[string]int64, error) {
	counts := make(map[string]int64, len(types.AllTableNames))
	for _, table := range types.AllTableNames {
		var count int64
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}
