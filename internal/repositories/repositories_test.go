package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
	"github.com/desertthunder/tlsync/internal/tasks"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleReport() *tasks.SyncReport {
	return &tasks.SyncReport{
		RunID:        shared.GenerateID(),
		Provider:     "Spotify",
		PlaylistID:   "p1",
		PlaylistName: "Spring Mix (Tracklist Sync)",
		Created:      true,
		MatchedCount: 1,
		TotalCount:   2,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		Results: []match.MatchResult{
			{
				Candidate: tracklist.TrackCandidate{Artists: []string{"Niilas & Bicep"}, Title: "Alit"},
				Entry:     &services.CatalogEntry{ID: "t1", URI: "spotify:track:t1"},
				Score:     0.95,
				Status:    match.StatusMatched,
			},
			{
				Candidate: tracklist.TrackCandidate{Artists: []string{"Unknown"}, Title: "Nowhere"},
				Score:     0.4,
				Status:    match.StatusUnmatched,
				Reason:    match.ReasonBelowThreshold,
			},
		},
	}
}

func TestNextSequence(t *testing.T) {
	db := openTestDB(t)

	first, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if second != first+1 {
		t.Errorf("expected sequence to increment, got %d then %d", first, second)
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Save And Get", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRunRepository(db)
		report := sampleReport()

		if err := repo.SaveReport(context.Background(), report); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		run, tracks, err := repo.Get(context.Background(), report.RunID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if run.PlaylistName != report.PlaylistName {
			t.Errorf("unexpected playlist name %q", run.PlaylistName)
		}
		if run.MatchedCount != 1 || run.TotalCount != 2 {
			t.Errorf("unexpected counts %d/%d", run.MatchedCount, run.TotalCount)
		}
		if !run.Created || run.DryRun {
			t.Errorf("unexpected flags created=%v dry_run=%v", run.Created, run.DryRun)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Position != 0 || tracks[0].Title != "Alit" {
			t.Errorf("unexpected first track %+v", tracks[0])
		}
		if tracks[0].EntryURI != "spotify:track:t1" {
			t.Errorf("expected matched entry URI, got %q", tracks[0].EntryURI)
		}
		if tracks[1].Status != string(match.StatusUnmatched) || tracks[1].Reason != string(match.ReasonBelowThreshold) {
			t.Errorf("unexpected second track %+v", tracks[1])
		}
	})

	t.Run("Get Missing Run", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRunRepository(db)

		_, _, err := repo.Get(context.Background(), "nope")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List Newest First", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRunRepository(db)

		first := sampleReport()
		second := sampleReport()
		second.PlaylistName = "Second Mix (Tracklist Sync)"

		if err := repo.SaveReport(context.Background(), first); err != nil {
			t.Fatalf("failed to save first: %v", err)
		}
		if err := repo.SaveReport(context.Background(), second); err != nil {
			t.Fatalf("failed to save second: %v", err)
		}

		runs, err := repo.List(context.Background(), 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].PlaylistName != "Second Mix (Tracklist Sync)" {
			t.Errorf("expected newest run first, got %q", runs[0].PlaylistName)
		}

		limited, err := repo.List(context.Background(), 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected limit 1 to apply, got %d runs", len(limited))
		}
	})

	t.Run("Unmatched", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRunRepository(db)
		report := sampleReport()

		if err := repo.SaveReport(context.Background(), report); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		unmatched, err := repo.Unmatched(context.Background(), report.RunID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(unmatched) != 1 || unmatched[0].Title != "Nowhere" {
			t.Errorf("unexpected unmatched tracks %+v", unmatched)
		}
	})
}

func TestTrackCacheRepository(t *testing.T) {
	entries := []services.CatalogEntry{
		{ID: "t1", Title: "Alit", Artists: []string{"Niilas", "Bicep"}, Duration: 245, URI: "spotify:track:t1", Popularity: 50},
		{ID: "t2", Title: "Alit (Edit)", Artists: []string{"Niilas"}, Duration: 180, URI: "spotify:track:t2", Popularity: 30},
	}

	t.Run("Round Trip", func(t *testing.T) {
		db := openTestDB(t)
		cache := NewTrackCacheRepository(db)

		if err := cache.Put(context.Background(), "niilas & bicep alit", entries); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := cache.Get(context.Background(), "niilas & bicep alit")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[0].ID != "t1" || got[1].ID != "t2" {
			t.Errorf("expected provider order preserved, got %v", got)
		}
		if got[0].ArtistString() != "Niilas, Bicep" {
			t.Errorf("unexpected artists %q", got[0].ArtistString())
		}
	})

	t.Run("Miss Returns Nil", func(t *testing.T) {
		db := openTestDB(t)
		cache := NewTrackCacheRepository(db)

		got, err := cache.Get(context.Background(), "never seen")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected nil on miss, got %v", got)
		}
	})

	t.Run("Duplicate Put Ignored", func(t *testing.T) {
		db := openTestDB(t)
		cache := NewTrackCacheRepository(db)

		if err := cache.Put(context.Background(), "q", entries); err != nil {
			t.Fatalf("first put failed: %v", err)
		}
		if err := cache.Put(context.Background(), "q", entries); err != nil {
			t.Fatalf("second put failed: %v", err)
		}

		got, err := cache.Get(context.Background(), "q")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected deduplicated entries, got %d", len(got))
		}
	})

	t.Run("Prune", func(t *testing.T) {
		db := openTestDB(t)
		cache := NewTrackCacheRepository(db)

		if err := cache.Put(context.Background(), "old query", entries); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		removed, err := cache.Prune(context.Background(), -time.Hour)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if removed != 2 {
			t.Errorf("expected 2 rows pruned, got %d", removed)
		}

		got, err := cache.Get(context.Background(), "old query")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected cache emptied, got %v", got)
		}
	})
}
