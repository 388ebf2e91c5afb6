package tracklist

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Run("Lowercase And Whitespace", func(t *testing.T) {
		got := Normalize("  Beside   You ")
		if got != "beside you" {
			t.Errorf("expected 'beside you', got %q", got)
		}
	})

	t.Run("Diacritics", func(t *testing.T) {
		if got := Normalize("Christian Löffler"); got != "christian loffler" {
			t.Errorf("expected folded diacritics, got %q", got)
		}
	})

	t.Run("Smart Punctuation", func(t *testing.T) {
		if got := Normalize("Don’t Leave — Again"); got != "don't leave - again" {
			t.Errorf("expected ASCII punctuation, got %q", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		once := Normalize("Álvaro  SOLER’s Mix")
		if twice := Normalize(once); twice != once {
			t.Errorf("expected idempotent normalization, got %q then %q", once, twice)
		}
	})
}

func TestCleanLine(t *testing.T) {
	t.Run("Simple Track", func(t *testing.T) {
		got := CleanLine("Artist 1 - Track Title 1")
		want := []TrackCandidate{{Artists: []string{"Artist 1"}, Title: "Track Title 1"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Trailing Label", func(t *testing.T) {
		got := CleanLine("Niilas & Bicep - Alit NINJA")
		want := []TrackCandidate{{Artists: []string{"Niilas & Bicep"}, Title: "Alit"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Label With Parent Label", func(t *testing.T) {
		got := CleanLine("Tame Impala - End Of Summer COLUMBIA (SONY)")
		want := []TrackCandidate{{Artists: []string{"Tame Impala"}, Title: "End Of Summer"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Label After Parenthetical", func(t *testing.T) {
		got := CleanLine("Artist - Song (Club Edit) ANJUNADEEP")
		want := []TrackCandidate{{Artists: []string{"Artist"}, Title: "Song (Club Edit)"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Stacked Tags", func(t *testing.T) {
		got := CleanLine("Artist - Song [PROMO] COLUMBIA (SONY)")
		want := []TrackCandidate{{Artists: []string{"Artist"}, Title: "Song"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Remix Vocabulary Preserved", func(t *testing.T) {
		got := CleanLine("Artist - Song VIP MIX")
		want := []TrackCandidate{{Artists: []string{"Artist"}, Title: "Song VIP MIX"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected remix run kept, got %v", got)
		}
	})

	t.Run("Unbalanced Parenthesis Repaired", func(t *testing.T) {
		got := CleanLine("Artist - Song (Club Edit")
		want := []TrackCandidate{{Artists: []string{"Artist"}, Title: "Song (Club Edit)"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("ID Title Dropped", func(t *testing.T) {
		if got := CleanLine("Massane & Qrion - ID"); got != nil {
			t.Errorf("expected no candidates for unidentified track, got %v", got)
		}
	})

	t.Run("ID Artist Dropped", func(t *testing.T) {
		if got := CleanLine("ID - ID"); got != nil {
			t.Errorf("expected no candidates, got %v", got)
		}
	})

	t.Run("Timestamp Skipped", func(t *testing.T) {
		if got := CleanLine("02:34"); got != nil {
			t.Errorf("expected timestamp skipped, got %v", got)
		}
	})

	t.Run("Track Number Skipped", func(t *testing.T) {
		if got := CleanLine("02"); got != nil {
			t.Errorf("expected track number skipped, got %v", got)
		}
	})

	t.Run("Navigation Noise Skipped", func(t *testing.T) {
		for _, line := range []string{"YouTube", "SoundCloud", "Apple Music", "Tracklist Media Links", "(12.5k)"} {
			if got := CleanLine(line); got != nil {
				t.Errorf("expected %q skipped, got %v", line, got)
			}
		}
	})

	t.Run("No Separator", func(t *testing.T) {
		if got := CleanLine("just some prose about the mix"); got != nil {
			t.Errorf("expected non-track line discarded, got %v", got)
		}
	})

	t.Run("Mashup Split", func(t *testing.T) {
		got := CleanLine("Christian Löffler vs. Jeremy Olander - Beside You vs. Samus (Lane 8 Mashup)")
		want := []TrackCandidate{
			{Artists: []string{"Christian Löffler"}, Title: "Beside You"},
			{Artists: []string{"Jeremy Olander"}, Title: "Samus"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Mashup Count Mismatch Falls Back", func(t *testing.T) {
		got := CleanLine("A vs. B - Only One Title")
		want := []TrackCandidate{{Artists: []string{"A vs. B"}, Title: "Only One Title"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected single candidate fallback, got %v", got)
		}
	})
}

func TestParse(t *testing.T) {
	raw := `Lane 8 - Spring 2024 Mixtape
01:03
Niilas & Bicep - Alit NINJA
YouTube
Massane & Qrion - ID
Tame Impala - End Of Summer COLUMBIA (SONY)
(12.5k)
`

	t.Run("First Line Is Title", func(t *testing.T) {
		parsed := Parse(raw, "")
		if parsed.Title != "Lane 8 - Spring 2024 Mixtape" {
			t.Errorf("unexpected title %q", parsed.Title)
		}
	})

	t.Run("Name Override", func(t *testing.T) {
		parsed := Parse(raw, "My Mix")
		if parsed.Title != "My Mix" {
			t.Errorf("expected override title, got %q", parsed.Title)
		}
		// The original first line still must not be scanned as a track.
		for _, track := range parsed.Tracks {
			if track.Title == "Spring 2024 Mixtape" {
				t.Error("title line leaked into tracks")
			}
		}
	})

	t.Run("Tracks In Order", func(t *testing.T) {
		parsed := Parse(raw, "")
		want := []TrackCandidate{
			{Artists: []string{"Niilas & Bicep"}, Title: "Alit"},
			{Artists: []string{"Tame Impala"}, Title: "End Of Summer"},
		}
		if !reflect.DeepEqual(parsed.Tracks, want) {
			t.Errorf("expected %v, got %v", want, parsed.Tracks)
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		parsed := Parse("", "")
		if parsed.Title != "" || len(parsed.Tracks) != 0 {
			t.Errorf("expected empty result, got %+v", parsed)
		}
	})

	t.Run("Windows Line Endings", func(t *testing.T) {
		parsed := Parse("My Mix\r\nArtist - Track\r\n", "")
		if len(parsed.Tracks) != 1 || parsed.Tracks[0].Title != "Track" {
			t.Errorf("expected one track, got %+v", parsed.Tracks)
		}
	})
}

func TestSplitArtists(t *testing.T) {
	t.Run("Ampersand And Comma", func(t *testing.T) {
		c := TrackCandidate{Artists: []string{"Niilas & Bicep, Overmono"}}
		want := []string{"Niilas", "Bicep", "Overmono"}
		if got := c.SplitArtists(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Featuring", func(t *testing.T) {
		c := TrackCandidate{Artists: []string{"Lane 8 feat. POLIÇA"}}
		want := []string{"Lane 8", "POLIÇA"}
		if got := c.SplitArtists(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Primary Artist", func(t *testing.T) {
		c := TrackCandidate{Artists: []string{"Niilas & Bicep"}}
		if got := c.PrimaryArtist(); got != "Niilas" {
			t.Errorf("expected 'Niilas', got %q", got)
		}
	})
}
