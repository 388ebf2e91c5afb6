package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

var (
	_ list.Item = candidateItem{}
	_ list.Item = resultItem{}
)

// candidateItem wraps [tracklist.TrackCandidate] to implement [list.Item].
type candidateItem struct {
	candidate tracklist.TrackCandidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }
func (i candidateItem) Title() string       { return i.candidate.Title }
func (i candidateItem) Description() string { return i.candidate.ArtistString() }

// resultItem wraps [match.MatchResult] to implement [list.Item].
type resultItem struct {
	result match.MatchResult
}

func (i resultItem) FilterValue() string { return i.result.Candidate.Title }

func (i resultItem) Title() string {
	if i.result.Status == match.StatusMatched {
		return styles.ok.Render("✓ ") + i.result.Candidate.String()
	}
	return styles.err.Render("✗ ") + i.result.Candidate.String()
}

func (i resultItem) Description() string {
	if i.result.Status == match.StatusMatched && i.result.Entry != nil {
		return fmt.Sprintf("→ %s (score %.2f)", i.result.Entry.String(), i.result.Score)
	}
	return fmt.Sprintf("%s (score %.2f)", i.result.Reason, i.result.Score)
}
