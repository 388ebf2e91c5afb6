package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tlsync/internal/repositories"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// CachePrune deletes cached search results older than the given age.
func (r *Runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	olderThan, err := time.ParseDuration(cmd.String("older-than"))
	if err != nil {
		return fmt.Errorf("%w: invalid --older-than value: %v", shared.ErrInvalidFlag, err)
	}

	if _, err := r.openDatabase(); err != nil {
		return err
	}

	repo := repositories.NewTrackCacheRepository(r.db)
	removed, err := repo.Prune(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	r.logger.Info("pruned search cache", "removed", removed, "older_than", olderThan)
	r.writePlain("✓ Removed %d cached search result(s) older than %v\n", removed, olderThan)

	return nil
}
