package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Sync.ConfidenceThreshold != 0.8 {
			t.Errorf("expected default confidence threshold 0.8, got %v", config.Sync.ConfidenceThreshold)
		}
		if !config.Sync.DurationFilter {
			t.Error("expected duration filter enabled by default")
		}
		if config.Sync.PlaylistSuffix != " (Tracklist Sync)" {
			t.Errorf("unexpected playlist suffix %q", config.Sync.PlaylistSuffix)
		}
		if config.Sync.Workers <= 0 {
			t.Error("expected positive default worker count")
		}
		if config.Server.Port == 0 {
			t.Error("expected default server port")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("Valid File", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")

			content := `
[credentials.spotify]
client_id = "abc"
client_secret = "def"
redirect_uri = "http://localhost:9999/callback"

[sync]
confidence_threshold = 0.9
duration_filter = false
playlist_suffix = " (Synced)"
workers = 2
rate_limit = 1.5
search_timeout_seconds = 5
max_retries = 1

[database]
path = ":memory:"
`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if config.Credentials.Spotify.ClientID != "abc" {
				t.Errorf("expected client_id 'abc', got %q", config.Credentials.Spotify.ClientID)
			}
			if config.Sync.ConfidenceThreshold != 0.9 {
				t.Errorf("expected threshold 0.9, got %v", config.Sync.ConfidenceThreshold)
			}
			if config.Sync.DurationFilter {
				t.Error("expected duration filter disabled")
			}
			if config.Database.Path != ":memory:" {
				t.Errorf("expected database path ':memory:', got %q", config.Database.Path)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
			if err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("Invalid TOML", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "bad.toml")
			if err := os.WriteFile(path, []byte("this is not toml ["), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			_, err := LoadConfig(path)
			if err == nil {
				t.Error("expected error for invalid TOML")
			}
		})
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected config file to exist: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})
}
