// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/tlsync/internal/services"
	"github.com/desertthunder/tlsync/internal/shared"
)

// MockCatalog is a scriptable test double for [services.Catalog].
type MockCatalog struct {
	SearchResults map[string][]services.CatalogEntry
	Playlists     map[string]string
	CreatedID     string
	SearchErr     error
	FindErr       error
	CreateErr     error
	ReplaceErr    error

	Searches []string
	Created  []string
	Replaced map[string][]string
}

func (m *MockCatalog) SearchTracks(ctx context.Context, query string) ([]services.CatalogEntry, error) {
	m.Searches = append(m.Searches, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResults[query], nil
}

func (m *MockCatalog) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	if m.FindErr != nil {
		return "", m.FindErr
	}
	if id, ok := m.Playlists[name]; ok {
		return id, nil
	}
	return "", shared.ErrPlaylistNotFound
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, name)
	if m.CreatedID != "" {
		return m.CreatedID, nil
	}
	return "playlist_" + name, nil
}

func (m *MockCatalog) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	if m.Replaced == nil {
		m.Replaced = make(map[string][]string)
	}
	m.Replaced[playlistID] = uris
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
