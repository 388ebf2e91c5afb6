package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions are appended to every SQLite path. Foreign keys must be on for
// run_tracks cascade deletes; the busy timeout covers concurrent cache writes
// from the match worker pool.
const dsnOptions = "_foreign_keys=on&_busy_timeout=5000"

// NewDatabase opens a SQLite database at the specified path, which can be
// ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + dsnOptions
	} else {
		dsn += "?" + dsnOptions
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
