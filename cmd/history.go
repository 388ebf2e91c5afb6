package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tlsync/internal/repositories"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList lists recent sync runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openDatabase(); err != nil {
		return err
	}

	repo := repositories.NewRunRepository(r.db)
	runs, err := repo.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No sync runs recorded yet.\n")
		return nil
	}

	r.writePlain("Found %d run(s):\n\n", len(runs))
	for _, run := range runs {
		mode := "sync"
		if run.DryRun {
			mode = "dry-run"
		}
		r.writePlain("%s  %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04"), run.PlaylistName)
		r.writePlain("   ID: %s\n", run.ID)
		r.writePlain("   Matched: %d/%d (%s)\n\n", run.MatchedCount, run.TotalCount, mode)
	}

	return nil
}

// HistoryShow prints a single run with its per-track outcomes.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}

	if _, err := r.openDatabase(); err != nil {
		return err
	}

	repo := repositories.NewRunRepository(r.db)
	run, tracks, err := repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", id, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Run    *repositories.Run       `json:"run"`
			Tracks []repositories.RunTrack `json:"tracks"`
		}{run, tracks}, true)
	}

	r.writePlainHeader(run.PlaylistName)
	r.writePlain("ID: %s\n", run.ID)
	if run.PlaylistID != "" {
		r.writePlain("Playlist ID: %s\n", run.PlaylistID)
	}
	r.writePlain("Provider: %s\n", run.Provider)
	if run.DryRun {
		r.writePlain("Mode: dry-run\n")
	}
	r.writePlain("Date: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04"))
	r.writePlain("Matched: %d/%d\n\n", run.MatchedCount, run.TotalCount)

	for _, track := range tracks {
		marker := "✓"
		if track.Status != "matched" {
			marker = "✗"
		}
		r.writePlain("%s %2d. %s - %s", marker, track.Position+1, track.Artist, track.Title)
		if track.Reason != "" {
			r.writePlain(" [%s]", track.Reason)
		}
		r.writePlain("\n")
	}

	return nil
}
