package tasks

import (
	"fmt"

	"github.com/desertthunder/tlsync/internal/match"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ParseTracklist Phase = iota
	MatchTracks
	FindPlaylist
	CreatePlaylist
	ReplaceTracks
	SaveRun
	Done
)

func (p Phase) String() string {
	switch p {
	case ParseTracklist:
		return "parse_tracklist"
	case MatchTracks:
		return "match_tracks"
	case FindPlaylist:
		return "find_playlist"
	case CreatePlaylist:
		return "create_playlist"
	case ReplaceTracks:
		return "replace_tracks"
	case SaveRun:
		return "save_run"
	case Done:
		return "done"
	default:
		return ""
	}
}

func parsedUpdate(title string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseTracklist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsed %q: %d track(s)", title, count),
	}
}

func matchingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    0,
		Total:   total,
		Message: "Searching for tracks...",
	}
}

func matchedTrackUpdate(step, total int, result match.MatchResult) ProgressUpdate {
	mark := "✓"
	if result.Status != match.StatusMatched {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, result.Candidate.String()),
		Data:    result,
	}
}

func findPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking for playlist %q...", name),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func replaceTracksUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReplaceTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d track(s) to %q...", count, name),
	}
}

func saveRunUpdate(runID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saving run %s...", runID),
	}
}

func doneUpdate(report *SyncReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Synced %d/%d track(s) to %q", report.MatchedCount, report.TotalCount, report.PlaylistName),
		Data:    report,
	}
}
