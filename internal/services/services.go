// package services defines interface Catalog for music catalog providers.
//
// Spotify is the reference implementation; anything that can search tracks
// and manage playlists can back the sync engine.
package services

import (
	"context"
	"strings"
)

// Catalog defines the provider operations the matcher and sync engine need.
type Catalog interface {
	// SearchTracks runs a free-text track search and returns candidate
	// entries in provider ranking order. An empty result is not an error.
	SearchTracks(ctx context.Context, query string) ([]CatalogEntry, error)

	// FindPlaylistByName returns the ID of the current user's playlist with
	// exactly the given name, or shared.ErrPlaylistNotFound.
	FindPlaylistByName(ctx context.Context, name string) (string, error)

	// CreatePlaylist creates a private playlist and returns its ID.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// ReplacePlaylistTracks atomically replaces the playlist's contents with
	// the given track URIs, in order.
	ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error

	// Name returns the provider name (e.g., "Spotify").
	Name() string
}

// CatalogEntry is a track returned by a catalog search.
type CatalogEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	Duration   int      `json:"duration"` // seconds
	URI        string   `json:"uri"`
	Popularity int      `json:"popularity"`
}

// ArtistString joins the entry's artists for display and scoring.
func (e CatalogEntry) ArtistString() string {
	return strings.Join(e.Artists, ", ")
}

func (e CatalogEntry) String() string {
	return e.ArtistString() + " - " + e.Title
}
