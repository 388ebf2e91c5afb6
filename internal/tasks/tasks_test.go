package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

// syncCatalog is a scripted Catalog that records playlist mutations.
type syncCatalog struct {
	mu        sync.Mutex
	tracks    map[string][]services.CatalogEntry
	playlists map[string]string // name -> id

	created    []string
	replaced   map[string][]string
	findErr    error
	replaceErr error
}

func newSyncCatalog() *syncCatalog {
	return &syncCatalog{
		tracks:    make(map[string][]services.CatalogEntry),
		playlists: make(map[string]string),
		replaced:  make(map[string][]string),
	}
}

func (c *syncCatalog) SearchTracks(ctx context.Context, query string) ([]services.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracks[query], nil
}

func (c *syncCatalog) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return "", c.findErr
	}
	if id, ok := c.playlists[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
}

func (c *syncCatalog) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := fmt.Sprintf("created-%d", len(c.created)+1)
	c.created = append(c.created, name)
	c.playlists[name] = id
	return id, nil
}

func (c *syncCatalog) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replaceErr != nil {
		return c.replaceErr
	}
	c.replaced[playlistID] = uris
	return nil
}

func (c *syncCatalog) Name() string { return "Mock" }

func newTestEngine(catalog *syncCatalog) *PlaylistEngine {
	matcher := match.NewMatcher(catalog, shared.NewLogger(nil), match.Options{
		Threshold: 0.8,
		Workers:   2,
		RateLimit: 10000,
	})
	return NewPlaylistEngine(catalog, matcher, shared.NewLogger(nil))
}

const sampleTracklist = `Spring Mix
Artist 1 - Track Title 1
Artist 2 - Track Title 2
Artist 3 - ID
`

func seedCatalog(catalog *syncCatalog) {
	catalog.tracks["Artist 1 Track Title 1"] = []services.CatalogEntry{
		{ID: "t1", Title: "Track Title 1", Artists: []string{"Artist 1"}, URI: "spotify:track:t1"},
	}
	catalog.tracks["Artist 2 Track Title 2"] = []services.CatalogEntry{
		{ID: "t2", Title: "Track Title 2", Artists: []string{"Artist 2"}, URI: "spotify:track:t2"},
	}
}

func TestRun(t *testing.T) {
	t.Run("Creates Playlist", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		engine := newTestEngine(catalog)

		report, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.PlaylistName != "Spring Mix (Tracklist Sync)" {
			t.Errorf("unexpected playlist name %q", report.PlaylistName)
		}
		if !report.Created {
			t.Error("expected playlist to be created")
		}
		if report.MatchedCount != 2 || report.TotalCount != 2 {
			t.Errorf("expected 2/2 matched, got %d/%d", report.MatchedCount, report.TotalCount)
		}

		uris := catalog.replaced[report.PlaylistID]
		if len(uris) != 2 || uris[0] != "spotify:track:t1" || uris[1] != "spotify:track:t2" {
			t.Errorf("unexpected playlist contents %v", uris)
		}
	})

	t.Run("Replaces Existing Playlist", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		catalog.playlists["Spring Mix (Tracklist Sync)"] = "existing"
		engine := newTestEngine(catalog)

		report, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.Created {
			t.Error("expected existing playlist to be reused")
		}
		if report.PlaylistID != "existing" {
			t.Errorf("expected existing playlist ID, got %q", report.PlaylistID)
		}
		if len(catalog.created) != 0 {
			t.Errorf("expected no playlist creation, got %v", catalog.created)
		}
		if _, ok := catalog.replaced["existing"]; !ok {
			t.Error("expected tracks replaced on existing playlist")
		}
	})

	t.Run("Name Override", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		engine := newTestEngine(catalog)

		report, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{NameOverride: "My Mix"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.PlaylistName != "My Mix (Tracklist Sync)" {
			t.Errorf("unexpected playlist name %q", report.PlaylistName)
		}
	})

	t.Run("Dry Run Mutates Nothing", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		engine := newTestEngine(catalog)

		report, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{DryRun: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !report.DryRun {
			t.Error("expected report flagged as dry run")
		}
		if report.MatchedCount != 2 {
			t.Errorf("expected matches resolved in dry run, got %d", report.MatchedCount)
		}
		if len(catalog.created) != 0 || len(catalog.replaced) != 0 {
			t.Error("expected no provider mutations in dry run")
		}
		if report.PlaylistID != "" {
			t.Errorf("expected no playlist ID in dry run, got %q", report.PlaylistID)
		}
	})

	t.Run("Empty Tracklist", func(t *testing.T) {
		engine := newTestEngine(newSyncCatalog())

		_, err := engine.Run(context.Background(), nil, "Just A Title\n02:34\n", RunOptions{})
		if !errors.Is(err, shared.ErrEmptyTracklist) {
			t.Errorf("expected ErrEmptyTracklist, got %v", err)
		}
	})

	t.Run("Write Failure Keeps Report", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		catalog.replaceErr = fmt.Errorf("%w: boom", shared.ErrServiceUnavailable)
		engine := newTestEngine(catalog)

		report, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{})
		if err == nil {
			t.Fatal("expected error from failed playlist write")
		}
		if report == nil {
			t.Fatal("expected report despite write failure")
		}
		if report.MatchedCount != 2 {
			t.Errorf("expected matches preserved, got %d", report.MatchedCount)
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		engine := newTestEngine(catalog)

		progress := make(chan ProgressUpdate, 64)
		if _, err := engine.Run(context.Background(), progress, sampleTracklist, RunOptions{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		phases := make(map[Phase]bool)
		for update := range progress {
			phases[update.Phase] = true
		}
		for _, want := range []Phase{ParseTracklist, MatchTracks, FindPlaylist, CreatePlaylist, ReplaceTracks, Done} {
			if !phases[want] {
				t.Errorf("expected a %s update", want)
			}
		}
	})
}

// recordingStore captures saved reports.
type recordingStore struct {
	mu      sync.Mutex
	reports []*SyncReport
	err     error
}

func (s *recordingStore) SaveReport(ctx context.Context, report *SyncReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, report)
	return nil
}

func TestRunStore(t *testing.T) {
	t.Run("Saves Completed Run", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		engine := newTestEngine(catalog)

		store := &recordingStore{}
		engine.SetRunStore(store)

		report, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(store.reports) != 1 {
			t.Fatalf("expected 1 saved report, got %d", len(store.reports))
		}
		if store.reports[0].RunID != report.RunID {
			t.Error("saved report does not match returned report")
		}
	})

	t.Run("Save Failure Does Not Fail Run", func(t *testing.T) {
		catalog := newSyncCatalog()
		seedCatalog(catalog)
		engine := newTestEngine(catalog)
		engine.SetRunStore(&recordingStore{err: fmt.Errorf("disk full")})

		if _, err := engine.Run(context.Background(), nil, sampleTracklist, RunOptions{}); err != nil {
			t.Errorf("expected run to succeed despite save failure, got %v", err)
		}
	})
}

func TestSyncReport(t *testing.T) {
	report := &SyncReport{
		TotalCount:   4,
		MatchedCount: 3,
		Results: []match.MatchResult{
			{Status: match.StatusMatched, Entry: &services.CatalogEntry{URI: "spotify:track:a"}},
			{Status: match.StatusUnmatched, Reason: match.ReasonNotFound, Candidate: tracklist.TrackCandidate{Title: "Missing"}},
			{Status: match.StatusMatched, Entry: &services.CatalogEntry{URI: "spotify:track:b"}},
		},
	}

	t.Run("URIs In Order", func(t *testing.T) {
		uris := report.URIs()
		if len(uris) != 2 || uris[0] != "spotify:track:a" || uris[1] != "spotify:track:b" {
			t.Errorf("unexpected URIs %v", uris)
		}
	})

	t.Run("Unmatched", func(t *testing.T) {
		unmatched := report.Unmatched()
		if len(unmatched) != 1 || unmatched[0].Candidate.Title != "Missing" {
			t.Errorf("unexpected unmatched %v", unmatched)
		}
	})

	t.Run("Match Percentage", func(t *testing.T) {
		if got := report.MatchPercentage(); got != 75 {
			t.Errorf("expected 75, got %v", got)
		}
	})
}
