// package tasks orchestrates tracklist-to-playlist sync runs.
//
// The core abstraction is SyncEngine, which parses raw tracklist text,
// matches candidates against a catalog, and writes the result to a playlist.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

// DefaultPlaylistSuffix marks playlists managed by this tool, so re-running a
// sync replaces the managed playlist instead of touching a user playlist that
// happens to share the tracklist title.
const DefaultPlaylistSuffix = " (Tracklist Sync)"

// RunOptions configures a single sync run.
type RunOptions struct {
	NameOverride string // playlist base name instead of the tracklist title
	DryRun       bool   // resolve matches but perform no provider mutations
}

// SyncReport is the complete record of one sync run.
type SyncReport struct {
	RunID        string              `json:"run_id"`
	Provider     string              `json:"provider"`
	PlaylistID   string              `json:"playlist_id,omitempty"`
	PlaylistName string              `json:"playlist_name"`
	Created      bool                `json:"created"`
	DryRun       bool                `json:"dry_run"`
	MatchedCount int                 `json:"matched_count"`
	TotalCount   int                 `json:"total_count"`
	Results      []match.MatchResult `json:"results"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Unmatched returns the results that did not resolve to a catalog entry.
func (r *SyncReport) Unmatched() []match.MatchResult {
	var out []match.MatchResult
	for _, result := range r.Results {
		if result.Status != match.StatusMatched {
			out = append(out, result)
		}
	}
	return out
}

// URIs returns the provider URIs of matched tracks in tracklist order.
func (r *SyncReport) URIs() []string {
	var out []string
	for _, result := range r.Results {
		if result.Status == match.StatusMatched && result.Entry != nil {
			out = append(out, result.Entry.URI)
		}
	}
	return out
}

// MatchPercentage returns the share of candidates that matched, 0-100.
func (r *SyncReport) MatchPercentage() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.MatchedCount) / float64(r.TotalCount) * 100
}

// RunStore persists completed sync runs. Implemented by
// repositories.RunRepository.
type RunStore interface {
	SaveReport(ctx context.Context, report *SyncReport) error
}

// SyncEngine defines the tracklist sync operations.
type SyncEngine interface {
	// Parse extracts a playlist title and track candidates from raw text.
	Parse(raw, nameOverride string) tracklist.ParsedTracklist

	// Run performs a full sync: parse, match every candidate, then create or
	// replace the target playlist. The report is non-nil whenever matching
	// completed, even if the playlist write failed.
	Run(ctx context.Context, progress chan<- ProgressUpdate, raw string, opts RunOptions) (*SyncReport, error)

	// Sync writes already-matched results to the provider playlist.
	Sync(ctx context.Context, progress chan<- ProgressUpdate, parsed tracklist.ParsedTracklist, results []match.MatchResult, opts RunOptions) (*SyncReport, error)
}

// PlaylistEngine implements SyncEngine against a catalog provider.
type PlaylistEngine struct {
	catalog services.Catalog
	matcher *match.Matcher
	runs    RunStore
	suffix  string
	logger  *log.Logger
}

// NewPlaylistEngine creates an engine over the given catalog and matcher.
func NewPlaylistEngine(catalog services.Catalog, matcher *match.Matcher, logger *log.Logger) *PlaylistEngine {
	return &PlaylistEngine{
		catalog: catalog,
		matcher: matcher,
		suffix:  DefaultPlaylistSuffix,
		logger:  logger,
	}
}

// SetRunStore enables run history persistence. Persistence failures are
// logged, not returned: a finished sync is not undone by a bookkeeping error.
func (e *PlaylistEngine) SetRunStore(runs RunStore) {
	e.runs = runs
}

// SetPlaylistSuffix overrides the managed-playlist name suffix.
func (e *PlaylistEngine) SetPlaylistSuffix(suffix string) {
	e.suffix = suffix
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Parse extracts a playlist title and track candidates from raw text.
func (e *PlaylistEngine) Parse(raw, nameOverride string) tracklist.ParsedTracklist {
	return tracklist.Parse(raw, nameOverride)
}

// Run performs a full sync run: parse, match, sync.
func (e *PlaylistEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, raw string, opts RunOptions) (*SyncReport, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	parsed := e.Parse(raw, opts.NameOverride)
	if len(parsed.Tracks) == 0 {
		return nil, fmt.Errorf("%w: nothing to sync", shared.ErrEmptyTracklist)
	}
	e.sendProgress(progress, parsedUpdate(parsed.Title, len(parsed.Tracks)))

	e.sendProgress(progress, matchingUpdate(len(parsed.Tracks)))
	e.matcher.SetProgress(func(done, total int, result match.MatchResult) {
		e.sendProgress(progress, matchedTrackUpdate(done, total, result))
	})

	results, err := e.matcher.MatchAll(ctx, parsed.Tracks)
	if err != nil {
		return nil, fmt.Errorf("matching aborted: %w", err)
	}

	return e.Sync(ctx, progress, parsed, results, opts)
}

// Sync writes matched results to the provider playlist and records the run.
//
// The canonical playlist name is the tracklist title plus the managed suffix.
// An existing playlist with that exact name is replaced in place; otherwise a
// new private playlist is created. A dry run performs no provider calls.
func (e *PlaylistEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, parsed tracklist.ParsedTracklist, results []match.MatchResult, opts RunOptions) (*SyncReport, error) {
	report := &SyncReport{
		RunID:        shared.GenerateID(),
		Provider:     e.catalog.Name(),
		PlaylistName: e.playlistName(parsed.Title),
		DryRun:       opts.DryRun,
		TotalCount:   len(results),
		Results:      results,
		CreatedAt:    time.Now().UTC(),
	}
	for _, result := range results {
		if result.Status == match.StatusMatched {
			report.MatchedCount++
		}
	}

	if opts.DryRun {
		e.logger.Info("dry run, skipping playlist write", "playlist", report.PlaylistName, "matched", report.MatchedCount)
		e.saveRun(ctx, progress, report)
		e.sendProgress(progress, doneUpdate(report))
		return report, nil
	}

	uris := report.URIs()

	e.sendProgress(progress, findPlaylistUpdate(report.PlaylistName))
	playlistID, err := e.catalog.FindPlaylistByName(ctx, report.PlaylistName)
	switch {
	case errors.Is(err, shared.ErrPlaylistNotFound):
		e.sendProgress(progress, createPlaylistUpdate(report.PlaylistName))
		playlistID, err = e.catalog.CreatePlaylist(ctx, report.PlaylistName, e.playlistDescription(parsed))
		if err != nil {
			return report, fmt.Errorf("failed to create playlist: %w", err)
		}
		report.Created = true
	case err != nil:
		return report, fmt.Errorf("failed to look up playlist: %w", err)
	}
	report.PlaylistID = playlistID

	e.sendProgress(progress, replaceTracksUpdate(report.PlaylistName, len(uris)))
	if err := e.catalog.ReplacePlaylistTracks(ctx, playlistID, uris); err != nil {
		return report, fmt.Errorf("failed to write playlist tracks: %w", err)
	}

	e.saveRun(ctx, progress, report)
	e.sendProgress(progress, doneUpdate(report))

	e.logger.Info("sync complete",
		"playlist", report.PlaylistName,
		"id", report.PlaylistID,
		"created", report.Created,
		"matched", report.MatchedCount,
		"total", report.TotalCount)
	return report, nil
}

func (e *PlaylistEngine) saveRun(ctx context.Context, progress chan<- ProgressUpdate, report *SyncReport) {
	if e.runs == nil {
		return
	}
	e.sendProgress(progress, saveRunUpdate(report.RunID))
	if err := e.runs.SaveReport(ctx, report); err != nil {
		e.logger.Warn("failed to save run history", "run", report.RunID, "err", err)
	}
}

func (e *PlaylistEngine) playlistName(title string) string {
	if title == "" {
		title = "Untitled Tracklist"
	}
	return title + e.suffix
}

func (e *PlaylistEngine) playlistDescription(parsed tracklist.ParsedTracklist) string {
	return fmt.Sprintf("Synced from tracklist %q (%d tracks)", parsed.Title, len(parsed.Tracks))
}
