package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
)

// TrackCacheRepository caches catalog search results keyed by normalized
// query. Implements match.SearchCache, so repeated syncs of the same
// tracklist skip the provider round trip.
type TrackCacheRepository struct {
	db *sql.DB
}

// NewTrackCacheRepository creates a new TrackCacheRepository with the given database connection
func NewTrackCacheRepository(db *sql.DB) *TrackCacheRepository {
	return &TrackCacheRepository{db: db}
}

// Get returns the cached entries for a query in original provider order.
// A cache miss returns (nil, nil).
func (r *TrackCacheRepository) Get(ctx context.Context, query string) ([]services.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, title, artists, duration, uri, popularity
		FROM track_cache
		WHERE query_key = ?
		ORDER BY position ASC
	`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read track cache: %w", err)
	}
	defer rows.Close()

	var entries []services.CatalogEntry
	for rows.Next() {
		var entry services.CatalogEntry
		var artists string
		if err := rows.Scan(&entry.ID, &entry.Title, &artists, &entry.Duration, &entry.URI, &entry.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		if err := json.Unmarshal([]byte(artists), &entry.Artists); err != nil {
			return nil, fmt.Errorf("failed to decode cached artists: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Put stores search results for a query. Entries already cached for the same
// query are silently ignored (UNIQUE constraint on query_key + entry_id).
func (r *TrackCacheRepository) Put(ctx context.Context, query string, entries []services.CatalogEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i, entry := range entries {
		artists, err := json.Marshal(entry.Artists)
		if err != nil {
			return fmt.Errorf("failed to encode artists: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO track_cache (id, query_key, position, entry_id, title, artists, duration, uri, popularity, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			shared.GenerateID(),
			query,
			i,
			entry.ID,
			entry.Title,
			string(artists),
			entry.Duration,
			entry.URI,
			entry.Popularity,
			now,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				continue
			}
			return fmt.Errorf("failed to insert cache entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache write: %w", err)
	}
	return nil
}

// Prune deletes cache entries older than the given age. Returns the number of
// rows removed.
func (r *TrackCacheRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := r.db.ExecContext(ctx, `DELETE FROM track_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune track cache: %w", err)
	}
	return result.RowsAffected()
}
