package tracklist

import (
	"regexp"
	"strings"
)

// trackSeparator splits the artist part from the title part.
const trackSeparator = " - "

// skipPatterns match lines that are clearly not tracks: navigation chrome,
// timestamps, track numbers and media-link names copied along with the
// tracklist. Matched against the trimmed, lower-cased line.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^\d+:\d+$`),
	regexp.MustCompile(`^\d+:\d+:\d+$`),
	regexp.MustCompile(`^\(\d+(\.\d+)?k?\)$`),
	regexp.MustCompile(`^\[.*\]$`),
	regexp.MustCompile(`^tracklist media links$`),
	regexp.MustCompile(`^1001tracklists`),
	regexp.MustCompile(`^youtube$`),
	regexp.MustCompile(`^apple music$`),
	regexp.MustCompile(`^soundcloud$`),
	regexp.MustCompile(`^add$`),
	regexp.MustCompile(`^mix with dj\.studio$`),
	regexp.MustCompile(`^player \d`),
	regexp.MustCompile(`^artwork( placeholder)?$`),
	regexp.MustCompile(`^(pre-)?save \d+$`),
	regexp.MustCompile(`^guest$`),
	regexp.MustCompile(`^like this tracklist$`),
	regexp.MustCompile(`^home$`),
	regexp.MustCompile(`^search$`),
	regexp.MustCompile(`^login$`),
	regexp.MustCompile(`^register$`),
}

// stripRule removes one kind of trailing noise from a title part.
//
// Rules are applied in order and repeated until none match (fixed point), so
// stacked tags like `Title [PROMO] LABEL (PARENT)` all come off. Each rule is
// independently testable.
type stripRule struct {
	name    string
	re      *regexp.Regexp
	replace string
}

// labelWord matches one word of a record-label run: all-caps, at least two
// characters, digits and common label punctuation allowed.
const labelWord = `[A-Z][A-Z0-9/&'.\-]+`

var stripRules = []stripRule{
	{"bracket tag", regexp.MustCompile(`\s*\[[^\]]*\]\s*$`), ""},
	{"info link", regexp.MustCompile(`(?i)\s*info link.*$`), ""},
	{"label with sublabel", regexp.MustCompile(`\s+` + labelWord + `(?:\s+` + labelWord + `)*\s*\([A-Z][A-Z0-9/&'.\- ]*\)\s*$`), ""},
	{"label after parenthetical", regexp.MustCompile(`\)\s+` + labelWord + `(?:\s+` + labelWord + `)*\s*$`), ")"},
	{"trailing label run", regexp.MustCompile(`\s+` + labelWord + `(?:\s+` + labelWord + `)*\s*$`), ""},
}

// remixVocab lists annotation words that belong to the track itself and must
// survive label stripping even when written in caps.
var remixVocab = map[string]bool{
	"remix":    true,
	"edit":     true,
	"mix":      true,
	"bootleg":  true,
	"mashup":   true,
	"extended": true,
	"vip":      true,
}

var (
	vsSeparator  = regexp.MustCompile(`\s+[vV][sS]\.?\s+`)
	mashupSuffix = regexp.MustCompile(`(?i)\s*\([^)]*mashup[^)]*\)\s*$`)
)

// CleanLine decides whether one raw line is a track line and extracts zero,
// one, or (for mashups) multiple track candidates from it.
//
// Malformed lines degrade to "discarded": CleanLine never fails.
func CleanLine(line string) []TrackCandidate {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	lower := strings.ToLower(line)
	for _, re := range skipPatterns {
		if re.MatchString(lower) {
			return nil
		}
	}

	idx := strings.Index(line, trackSeparator)
	if idx < 0 {
		return nil
	}

	artistPart := collapse(line[:idx])
	titlePart := cleanTitle(collapse(line[idx+len(trackSeparator):]))

	if artistPart == "" || titlePart == "" {
		return nil
	}

	// "ID" marks an unidentified/unreleased track; it must not become a candidate.
	if Normalize(titlePart) == "id" || Normalize(artistPart) == "id" {
		return nil
	}

	if candidates := splitMashup(artistPart, titlePart); candidates != nil {
		return candidates
	}

	return []TrackCandidate{{Artists: []string{artistPart}, Title: titlePart}}
}

// cleanTitle strips trailing label, bracket and promo noise from a title part,
// applying the strip rules to fixed point and repairing an unbalanced
// parenthesis left behind by truncated copy-paste.
func cleanTitle(title string) string {
	for {
		stripped := applyStripRules(title)
		if stripped == title {
			break
		}
		title = stripped
	}

	title = strings.TrimSpace(title)
	if strings.Count(title, "(") > strings.Count(title, ")") {
		title += ")"
	}
	return title
}

func applyStripRules(title string) string {
	for _, rule := range stripRules {
		loc := rule.re.FindStringIndex(title)
		if loc == nil {
			continue
		}

		if isRemixRun(title[loc[0]:loc[1]]) {
			continue
		}

		out := strings.TrimSpace(rule.re.ReplaceAllString(title, rule.replace))
		if out == "" {
			// Stripping everything means the "label" was the whole title.
			continue
		}
		return out
	}
	return title
}

// isRemixRun reports whether a matched trailing run consists solely of
// recognized remix/mix vocabulary, e.g. "VIP MIX" written in caps.
func isRemixRun(run string) bool {
	run = strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '[', ']':
			return ' '
		}
		return r
	}, run)

	fields := strings.Fields(strings.ToLower(run))
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !remixVocab[f] {
			return false
		}
	}
	return true
}

// splitMashup splits "A vs. B - X vs. Y" lines positionally into one candidate
// per pairing. Returns nil when the line is not a well-formed mashup, in which
// case the caller treats it as a single track.
func splitMashup(artistPart, titlePart string) []TrackCandidate {
	artistSegs := vsSeparator.Split(artistPart, -1)
	if len(artistSegs) < 2 {
		return nil
	}

	// The "(... Mashup)" annotation describes the pairing, not either track.
	titleSegs := vsSeparator.Split(mashupSuffix.ReplaceAllString(titlePart, ""), -1)
	if len(titleSegs) != len(artistSegs) {
		return nil
	}

	candidates := make([]TrackCandidate, 0, len(artistSegs))
	for i := range artistSegs {
		artist := strings.TrimSpace(artistSegs[i])
		title := strings.TrimSpace(titleSegs[i])
		if artist == "" || title == "" {
			continue
		}
		candidates = append(candidates, TrackCandidate{Artists: []string{artist}, Title: title})
	}

	if len(candidates) == 0 {
		return nil
	}
	return candidates
}

// collapse trims and reduces internal whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
