// package tracklist parses pasted DJ tracklist text into ordered track candidates.
//
// Input is the raw text a user copies from a tracklist site or types by hand:
// a title line followed by "Artist - Title" lines interleaved with navigation
// noise, timestamps, record labels and promo tags. The parser classifies each
// line, strips the noise, splits mashups, and drops unidentified ("ID") tracks.
package tracklist

import (
	"strings"
)

// TrackCandidate is a parsed-but-unresolved track reference extracted from raw text.
//
// Artists holds the artist part as written (a mashup line yields one candidate
// per artist segment). Title is the cleaned title with labels and tags removed.
// Duration is in seconds when known; pasted tracklists leave it zero.
type TrackCandidate struct {
	Artists  []string `json:"artists"`
	Title    string   `json:"title"`
	Duration int      `json:"duration,omitempty"`
}

// ParsedTracklist is the result of parsing one pasted tracklist.
type ParsedTracklist struct {
	Title  string           `json:"title"`
	Tracks []TrackCandidate `json:"tracks"`
}

// ArtistString returns the artist part for display and query building.
func (c TrackCandidate) ArtistString() string {
	return strings.Join(c.Artists, ", ")
}

// SplitArtists returns the individual artist names listed in the artist part.
//
// "&", ",", "feat." and "ft." act as separators. Used for per-artist search
// fallbacks; the full artist string remains the primary form.
func (c TrackCandidate) SplitArtists() []string {
	var out []string
	for _, artist := range c.Artists {
		s := artist
		lower := strings.ToLower(s)
		for _, sep := range []string{" feat. ", " feat ", " ft. ", " ft ", " featuring "} {
			for {
				idx := strings.Index(lower, sep)
				if idx == -1 {
					break
				}
				s = s[:idx] + " & " + s[idx+len(sep):]
				lower = strings.ToLower(s)
			}
		}
		for _, part := range strings.Split(s, "&") {
			for _, name := range strings.Split(part, ",") {
				if name = strings.TrimSpace(name); name != "" {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// PrimaryArtist returns the first listed artist name.
func (c TrackCandidate) PrimaryArtist() string {
	if names := c.SplitArtists(); len(names) > 0 {
		return names[0]
	}
	return ""
}

func (c TrackCandidate) String() string {
	return c.ArtistString() + " - " + c.Title
}

// Parse extracts a title and ordered track candidates from raw multi-line text.
//
// The first non-empty line becomes the playlist title unless nameOverride is
// set; either way that line is excluded from track scanning. Every remaining
// line runs through the line cleaner in encounter order. Parse never fails:
// garbage input yields an empty track list.
func Parse(raw, nameOverride string) ParsedTracklist {
	parsed := ParsedTracklist{Title: nameOverride}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	titleSeen := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !titleSeen {
			titleSeen = true
			if parsed.Title == "" {
				parsed.Title = line
			}
			continue
		}

		parsed.Tracks = append(parsed.Tracks, CleanLine(line)...)
	}

	return parsed
}
