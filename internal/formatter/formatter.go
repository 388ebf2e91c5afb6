// package formatter renders sync reports to various formats (text, JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tasks"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

// Format identifiers accepted by FormatReport and the --format flag.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// FormatReport renders a sync report in the named format.
func FormatReport(report *tasks.SyncReport, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ReportToJSON(report)
	case FormatCSV:
		return ReportToCSV(report)
	case FormatMarkdown:
		return ReportToMarkdown(report)
	case FormatText, "":
		return ReportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ReportToText renders a human-readable run summary.
func ReportToText(report *tasks.SyncReport) ([]byte, error) {
	var buf bytes.Buffer

	mode := "synced"
	if report.DryRun {
		mode = "dry run"
	}

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.PlaylistName))
	if report.PlaylistID != "" {
		buf.WriteString(fmt.Sprintf("ID: %s\n", report.PlaylistID))
	}
	buf.WriteString(fmt.Sprintf("Provider: %s\n", report.Provider))
	buf.WriteString(fmt.Sprintf("Mode: %s", mode))
	if report.Created {
		buf.WriteString(" (created)")
	}
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("Matched: %d/%d (%.0f%%)\n\n", report.MatchedCount, report.TotalCount, report.MatchPercentage()))

	for i, result := range report.Results {
		mark := "✓"
		detail := ""
		if result.Status != match.StatusMatched {
			mark = "✗"
			detail = fmt.Sprintf(" [%s]", result.Reason)
		} else if result.Entry != nil {
			detail = fmt.Sprintf(" → %s", result.Entry.String())
		}
		buf.WriteString(fmt.Sprintf("%2d. %s %s%s\n", i+1, mark, result.Candidate.String(), detail))
	}

	if unmatched := report.Unmatched(); len(unmatched) > 0 {
		buf.WriteString(fmt.Sprintf("\n%d track(s) could not be matched.\n", len(unmatched)))
	}

	return buf.Bytes(), nil
}

// ReportToJSON renders the full report as indented JSON.
func ReportToJSON(report *tasks.SyncReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ReportToCSV renders per-track outcomes with columns:
// Position, Artist, Title, Status, Reason, Score, EntryURI
func ReportToCSV(report *tasks.SyncReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Artist", "Title", "Status", "Reason", "Score", "EntryURI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, result := range report.Results {
		uri := ""
		if result.Entry != nil {
			uri = result.Entry.URI
		}
		record := []string{
			strconv.Itoa(i + 1),
			result.Candidate.ArtistString(),
			result.Candidate.Title,
			string(result.Status),
			string(result.Reason),
			strconv.FormatFloat(result.Score, 'f', 2, 64),
			uri,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders the report as a Markdown document.
func ReportToMarkdown(report *tasks.SyncReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", report.PlaylistName))
	buf.WriteString(fmt.Sprintf("**Provider**: %s\n", report.Provider))
	buf.WriteString(fmt.Sprintf("**Matched**: %d/%d\n", report.MatchedCount, report.TotalCount))
	if report.DryRun {
		buf.WriteString("**Mode**: dry run\n")
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, result := range report.Results {
		if result.Status == match.StatusMatched && result.Entry != nil {
			duration := shared.FormatDuration(result.Entry.Duration)
			buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, result.Entry.String(), duration))
		} else {
			buf.WriteString(fmt.Sprintf("%d. ~~%s~~ (%s)\n", i+1, result.Candidate.String(), result.Reason))
		}
	}

	if unmatched := report.Unmatched(); len(unmatched) > 0 {
		buf.WriteString("\n## Unmatched\n\n")
		for _, result := range unmatched {
			buf.WriteString(fmt.Sprintf("- %s (%s, score %.2f)\n", result.Candidate.String(), result.Reason, result.Score))
		}
	}

	return buf.Bytes(), nil
}

// TracklistToJSON renders a parsed tracklist as indented JSON for `tlsync parse --json`.
func TracklistToJSON(parsed tracklist.ParsedTracklist) ([]byte, error) {
	return shared.MarshalJSON(parsed, true)
}

// TracklistToText renders a parsed tracklist as numbered lines.
func TracklistToText(parsed tracklist.ParsedTracklist) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Title: %s\n", parsed.Title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(parsed.Tracks)))
	for i, track := range parsed.Tracks {
		buf.WriteString(fmt.Sprintf("%2d. %s\n", i+1, track.String()))
	}
	return buf.Bytes()
}

// WriteReport renders a report in the named format and writes it to path.
func WriteReport(report *tasks.SyncReport, format, path string) error {
	data, err := FormatReport(report, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
