package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tasks"
)

// Run is a persisted sync run summary row.
type Run struct {
	ID           string    `json:"id"`
	Sequence     int       `json:"sequence"`
	Provider     string    `json:"provider"`
	PlaylistID   string    `json:"playlist_id,omitempty"`
	PlaylistName string    `json:"playlist_name"`
	Created      bool      `json:"created"`
	DryRun       bool      `json:"dry_run"`
	MatchedCount int       `json:"matched_count"`
	TotalCount   int       `json:"total_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunTrack is one candidate outcome within a persisted run, in tracklist order.
type RunTrack struct {
	RunID    string  `json:"run_id"`
	Position int     `json:"position"`
	Artist   string  `json:"artist"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Reason   string  `json:"reason,omitempty"`
	Score    float64 `json:"score"`
	EntryID  string  `json:"entry_id,omitempty"`
	EntryURI string  `json:"entry_uri,omitempty"`
}

// RunRepository persists sync runs and their per-track outcomes.
// Implements tasks.RunStore.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveReport stores a completed sync report: one runs row plus one run_tracks
// row per candidate, all in a single transaction.
func (r *RunRepository) SaveReport(ctx context.Context, report *tasks.SyncReport) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, sequence, provider, playlist_id, playlist_name, created, dry_run, matched_count, total_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		sequence,
		report.Provider,
		report.PlaylistID,
		report.PlaylistName,
		report.Created,
		report.DryRun,
		report.MatchedCount,
		report.TotalCount,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, result := range report.Results {
		var entryID, entryURI string
		if result.Entry != nil {
			entryID = result.Entry.ID
			entryURI = result.Entry.URI
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_tracks (id, run_id, position, artist, title, status, reason, score, entry_id, entry_uri)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			shared.GenerateID(),
			report.RunID,
			i,
			result.Candidate.ArtistString(),
			result.Candidate.Title,
			string(result.Status),
			string(result.Reason),
			result.Score,
			entryID,
			entryURI,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (r *RunRepository) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, sequence, provider, playlist_id, playlist_name, created, dry_run, matched_count, total_count, created_at
		FROM runs
		ORDER BY sequence DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.Sequence,
			&run.Provider,
			&run.PlaylistID,
			&run.PlaylistName,
			&run.Created,
			&run.DryRun,
			&run.MatchedCount,
			&run.TotalCount,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get retrieves one run and its per-track outcomes by run ID.
func (r *RunRepository) Get(ctx context.Context, id string) (*Run, []RunTrack, error) {
	var run Run
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sequence, provider, playlist_id, playlist_name, created, dry_run, matched_count, total_count, created_at
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Sequence,
		&run.Provider,
		&run.PlaylistID,
		&run.PlaylistName,
		&run.Created,
		&run.DryRun,
		&run.MatchedCount,
		&run.TotalCount,
		&run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run %s: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, position, artist, title, status, reason, score, entry_id, entry_uri
		FROM run_tracks
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run tracks: %w", err)
	}
	defer rows.Close()

	var tracks []RunTrack
	for rows.Next() {
		var track RunTrack
		if err := rows.Scan(
			&track.RunID,
			&track.Position,
			&track.Artist,
			&track.Title,
			&track.Status,
			&track.Reason,
			&track.Score,
			&track.EntryID,
			&track.EntryURI,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan run track: %w", err)
		}
		tracks = append(tracks, track)
	}
	return &run, tracks, rows.Err()
}

// Unmatched returns the tracks of a run that did not resolve.
func (r *RunRepository) Unmatched(ctx context.Context, id string) ([]RunTrack, error) {
	_, tracks, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var out []RunTrack
	for _, track := range tracks {
		if track.Status != string(match.StatusMatched) {
			out = append(out, track)
		}
	}
	return out, nil
}
