// Spotify API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tlsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	searchLimit     = 10
	playlistPageLen = 50
	replaceChunkLen = 100
)

// SpotifyUser represents the authenticated user's profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// Entry converts a wire track into a provider-neutral catalog entry.
func (t SpotifyTrack) Entry() CatalogEntry {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return CatalogEntry{
		ID:         t.ID,
		Title:      t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		Duration:   t.DurationMS / 1000,
		URI:        t.URI,
		Popularity: t.Popularity,
	}
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifySimplePlaylist represents a playlist object in a paginated listing.
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// Requests are rate limited client-side and authenticated through a
// refresh-capable [oauth2.TokenSource]; refreshed tokens are reported through
// the OnTokenRefresh callback so the caller can persist them.
type SpotifyService struct {
	config     *oauth2.Config
	source     *refreshableTokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	baseURL    string

	mu     sync.Mutex
	userID string
}

// SpotifyOption configures a SpotifyService.
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the service at a different API root. Used in tests.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = u }
}

// WithRateLimit sets the client-side request rate in requests per second.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// NewSpotifyService creates a Spotify catalog client from OAuth2 credentials.
func NewSpotifyService(creds shared.SpotifyConfig, logger *log.Logger, opts ...SpotifyOption) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5.0), 1),
		logger:     logger,
		baseURL:    spotifyBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Authenticate installs a previously obtained token. Expired tokens with a
// refresh token are refreshed transparently on first use.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}
	s.source = newRefreshableTokenSource(ctx, s.config, token)
	return nil
}

// OnTokenRefresh registers a callback invoked whenever the access token is
// refreshed, so the new token can be persisted.
func (s *SpotifyService) OnTokenRefresh(fn func(*oauth2.Token)) {
	if s.source != nil {
		s.source.onRefresh = fn
	}
}

// Token returns the current token, refreshing it if expired.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.source.Token()
}

// refreshableTokenSource serializes token refreshes and reports new tokens.
type refreshableTokenSource struct {
	mu        sync.Mutex
	base      oauth2.TokenSource
	current   *oauth2.Token
	onRefresh func(*oauth2.Token)
}

func newRefreshableTokenSource(ctx context.Context, config *oauth2.Config, token *oauth2.Token) *refreshableTokenSource {
	return &refreshableTokenSource{
		base:    config.TokenSource(ctx, token),
		current: token,
	}
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, err := r.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if token.AccessToken != r.current.AccessToken {
		r.current = token
		if r.onRefresh != nil {
			r.onRefresh(token)
		}
	}
	return token, nil
}

// doRequest performs an authenticated, rate-limited request against the API.
// body (if non-nil) is JSON encoded; result (if non-nil) is JSON decoded.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.source == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	token, err := s.source.Token()
	if err != nil {
		return err
	}

	var payload *bytes.Buffer
	var req *http.Request
	if body != nil {
		payload = &bytes.Buffer{}
		if err := json.NewEncoder(payload).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, payload)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d on %s %s", shared.ErrAuthFailed, resp.StatusCode, method, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry-after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status 404 on %s %s", shared.ErrAPIRequest, method, endpoint)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d on %s %s", shared.ErrServiceUnavailable, resp.StatusCode, method, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d on %s %s", shared.ErrAPIRequest, resp.StatusCode, method, endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// UserProfile retrieves the authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// currentUserID returns the authenticated user's ID, cached after first lookup.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	cached := s.userID
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.userID = user.ID
	s.mu.Unlock()
	return user.ID, nil
}

// SearchTracks runs a track search and returns entries in ranking order.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string) ([]CatalogEntry, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), searchLimit)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, 0, len(response.Tracks.Items))
	for _, track := range response.Tracks.Items {
		entries = append(entries, track.Entry())
	}
	return entries, nil
}

// FindPlaylistByName pages through the user's playlists looking for an exact
// name match. Returns shared.ErrPlaylistNotFound when no playlist matches.
func (s *SpotifyService) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	offset := 0
	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", playlistPageLen, offset)

		var page spotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return "", err
		}

		for _, playlist := range page.Items {
			if playlist.Name == name {
				return playlist.ID, nil
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			return "", fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
		}
		offset += playlistPageLen
	}
}

// CreatePlaylist creates a private playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}

	s.logger.Debug("created playlist", "id", created.ID, "name", name)
	return created.ID, nil
}

// ReplacePlaylistTracks replaces the playlist's contents with the given URIs.
//
// The first chunk goes through PUT, which atomically swaps the playlist
// contents, so a reader never observes old and new tracks mixed. Remaining
// chunks are appended with POST.
func (s *SpotifyService) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	first := uris
	if len(first) > replaceChunkLen {
		first = uris[:replaceChunkLen]
	}
	if err := s.doRequest(ctx, http.MethodPut, endpoint, map[string]any{"uris": first}, nil); err != nil {
		return fmt.Errorf("failed to replace playlist tracks: %w", err)
	}

	for offset := len(first); offset < len(uris); offset += replaceChunkLen {
		end := offset + replaceChunkLen
		if end > len(uris) {
			end = len(uris)
		}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"uris": uris[offset:end]}, nil); err != nil {
			return fmt.Errorf("failed to append playlist tracks: %w", err)
		}
	}

	s.logger.Debug("replaced playlist tracks", "id", playlistID, "count", len(uris))
	return nil
}
