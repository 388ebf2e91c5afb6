// package match resolves parsed track candidates against a music catalog.
//
// Each candidate is searched, scored with weighted string similarity,
// optionally filtered by duration, and accepted only above a confidence
// threshold. Batch matching runs a bounded, rate-limited worker pool.
package match

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

// Scoring weights: the title carries most of the signal, the artist breaks
// near-ties between covers and remixes.
const (
	titleWeight  = 0.7
	artistWeight = 0.3
)

// Status indicates whether a candidate resolved to a catalog entry.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
)

// Reason explains why a candidate stayed unmatched.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonNotFound       Reason = "not_found"
	ReasonSearchFailed   Reason = "search_failed"
)

// MatchResult is the outcome of resolving one candidate.
//
// Score is the best similarity seen even when the candidate stays unmatched,
// so a review UI can show near misses.
type MatchResult struct {
	Candidate tracklist.TrackCandidate `json:"candidate"`
	Entry     *services.CatalogEntry   `json:"entry,omitempty"`
	Score     float64                  `json:"score"`
	Status    Status                   `json:"status"`
	Reason    Reason                   `json:"reason,omitempty"`
}

// SearchCache stores catalog search results keyed by query. Implemented by
// repositories.TrackCacheRepository; cache failures are logged and ignored.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]services.CatalogEntry, error)
	Put(ctx context.Context, query string, entries []services.CatalogEntry) error
}

// Options configures matching behavior. Zero values fall back to defaults.
type Options struct {
	Threshold      float64       // minimum score to accept a match (default 0.8)
	DurationFilter bool          // drop entries implausibly far from the expected duration
	Workers        int           // pool size for MatchAll (default 5, capped at 10)
	RateLimit      float64       // searches per second across the pool (default 5)
	SearchTimeout  time.Duration // per-search deadline (default 10s)
	MaxRetries     int           // transient failure retries per candidate (default 3)
}

// OptionsFromConfig maps the [sync] config section onto matcher options.
func OptionsFromConfig(cfg shared.SyncConfig) Options {
	return Options{
		Threshold:      cfg.ConfidenceThreshold,
		DurationFilter: cfg.DurationFilter,
		Workers:        cfg.Workers,
		RateLimit:      cfg.RateLimit,
		SearchTimeout:  time.Duration(cfg.SearchTimeoutSeconds) * time.Second,
		MaxRetries:     cfg.MaxRetries,
	}
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = 0.8
	}
	if o.Workers <= 0 {
		o.Workers = 5
	}
	if o.Workers > 10 {
		o.Workers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 10 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

// Matcher resolves track candidates against a catalog.
type Matcher struct {
	catalog  services.Catalog
	sim      Similarity
	cache    SearchCache
	opts     Options
	logger   *log.Logger
	onResult func(done, total int, result MatchResult)
}

// NewMatcher creates a matcher over the given catalog. The default similarity
// is Jaro-Winkler; SetSimilarity and SetCache customize behavior.
func NewMatcher(catalog services.Catalog, logger *log.Logger, opts Options) *Matcher {
	return &Matcher{
		catalog: catalog,
		sim:     JaroWinkler,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// SetSimilarity swaps the similarity function.
func (m *Matcher) SetSimilarity(sim Similarity) {
	if sim != nil {
		m.sim = sim
	}
}

// SetCache installs a search result cache consulted before the catalog.
func (m *Matcher) SetCache(cache SearchCache) {
	m.cache = cache
}

// SetProgress registers a callback invoked after each candidate completes in
// MatchAll. done counts completed candidates, not input positions; callers
// needing order use result indices instead.
func (m *Matcher) SetProgress(fn func(done, total int, result MatchResult)) {
	m.onResult = fn
}

// Match resolves a single candidate.
//
// The full artist string plus title is searched first; when that returns
// nothing, the primary artist alone is tried, which recovers collabs the
// provider indexes under one name. Errors are returned only for search
// failures; "no good match" is a valid MatchResult, not an error.
func (m *Matcher) Match(ctx context.Context, candidate tracklist.TrackCandidate) (MatchResult, error) {
	result := MatchResult{Candidate: candidate, Status: StatusUnmatched}

	query := candidate.ArtistString() + " " + candidate.Title
	entries, err := m.search(ctx, query)
	if err != nil {
		return result, err
	}

	if len(entries) == 0 {
		if primary := candidate.PrimaryArtist(); primary != "" && primary != candidate.ArtistString() {
			entries, err = m.search(ctx, primary+" "+candidate.Title)
			if err != nil {
				return result, err
			}
		}
	}

	if len(entries) == 0 {
		result.Reason = ReasonNotFound
		return result, nil
	}

	best, bestScore, ok := m.selectBest(candidate, entries)
	result.Score = bestScore

	if !ok || bestScore < m.opts.Threshold {
		result.Reason = ReasonBelowThreshold
		return result, nil
	}

	entry := best
	result.Entry = &entry
	result.Status = StatusMatched
	result.Reason = ReasonNone
	return result, nil
}

// search consults the cache before the catalog and backfills it after a hit.
func (m *Matcher) search(ctx context.Context, query string) ([]services.CatalogEntry, error) {
	key := tracklist.Normalize(query)

	if m.cache != nil {
		if entries, err := m.cache.Get(ctx, key); err != nil {
			m.logger.Debug("track cache read failed", "query", key, "err", err)
		} else if entries != nil {
			return entries, nil
		}
	}

	entries, err := m.catalog.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}

	if m.cache != nil && len(entries) > 0 {
		if err := m.cache.Put(ctx, key, entries); err != nil {
			m.logger.Debug("track cache write failed", "query", key, "err", err)
		}
	}
	return entries, nil
}

// selectBest scores every entry and picks the winner: highest score, then
// closest duration, then popularity, then first-seen provider order.
//
// When the duration filter removes every entry, the best raw score is still
// reported so the caller can surface the near miss.
func (m *Matcher) selectBest(candidate tracklist.TrackCandidate, entries []services.CatalogEntry) (services.CatalogEntry, float64, bool) {
	var best services.CatalogEntry
	var bestScore, bestSeen float64
	found := false

	for _, entry := range entries {
		score := m.score(candidate, entry)
		if score > bestSeen {
			bestSeen = score
		}

		if m.opts.DurationFilter && candidate.Duration > 0 && !durationPlausible(candidate.Duration, entry.Duration) {
			continue
		}

		switch {
		case !found:
			best, bestScore, found = entry, score, true
		case score > bestScore:
			best, bestScore = entry, score
		case score == bestScore && prefer(candidate, entry, best):
			best = entry
		}
	}

	if !found {
		return services.CatalogEntry{}, bestSeen, false
	}
	return best, bestScore, true
}

// score computes the weighted similarity of a candidate against an entry.
// Exact normalized equality on both fields short-circuits to a perfect score.
func (m *Matcher) score(candidate tracklist.TrackCandidate, entry services.CatalogEntry) float64 {
	candTitle := tracklist.Normalize(candidate.Title)
	candArtist := tracklist.Normalize(candidate.ArtistString())
	entryTitle := tracklist.Normalize(entry.Title)
	entryArtist := tracklist.Normalize(entry.ArtistString())

	if candTitle == entryTitle && candArtist == entryArtist {
		return 1.0
	}

	return titleWeight*m.sim(candTitle, entryTitle) + artistWeight*m.sim(candArtist, entryArtist)
}

// durationPlausible reports whether an entry's duration is close enough to
// the expected one. Tolerance is 5% of the expected length, floored at 5s.
func durationPlausible(expected, actual int) bool {
	if actual <= 0 {
		return true
	}
	tolerance := math.Max(5, 0.05*float64(expected))
	return math.Abs(float64(expected-actual)) <= tolerance
}

// prefer breaks a score tie between a new entry and the current best.
func prefer(candidate tracklist.TrackCandidate, entry, best services.CatalogEntry) bool {
	if candidate.Duration > 0 {
		newDelta := abs(candidate.Duration - entry.Duration)
		bestDelta := abs(candidate.Duration - best.Duration)
		if newDelta != bestDelta {
			return newDelta < bestDelta
		}
	}
	return entry.Popularity > best.Popularity
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// transient reports whether a search error is worth retrying.
func transient(err error) bool {
	return errors.Is(err, shared.ErrRateLimited) ||
		errors.Is(err, shared.ErrServiceUnavailable) ||
		errors.Is(err, shared.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
