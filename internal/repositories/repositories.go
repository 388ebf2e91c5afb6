// package repositories implements SQLite persistence for sync runs and the
// catalog search cache.
//
// Key implementations:
//   - [RunRepository] : run history with per-track outcomes for `tlsync history`
//   - [TrackCacheRepository] : catalog search results keyed by normalized query
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42)
// independent of UUIDs and creation timestamps. The [NextSequence] function
// atomically increments per-table sequence counters in dedicated sequence
// tables.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
