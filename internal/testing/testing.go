// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/pophits/internal/models"
)

// RecordedRequest is a request seen by [FakeAPI].
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
	Header   http.Header
}

// FakeAPI is an httptest server standing in for the PopHits API. Unregistered routes answer 404.
type FakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []RecordedRequest
}

// NewFakeAPI starts a fake API server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{routes: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Body:     string(body),
		Header:   r.Header.Clone(),
	})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	h(w, r)
}

// Handle registers h for method and exact path.
func (f *FakeAPI) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

// JSON registers a fixed JSON response.
func (f *FakeAPI) JSON(method, path string, status int, body any) {
	f.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns a copy of every request received so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Last returns the most recent request, failing the test if there is none.
func (f *FakeAPI) Last(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := f.Requests()
	if len(reqs) == 0 {
		t.Fatal("expected at least one request")
	}
	return reqs[len(reqs)-1]
}

// LastFor returns the most recent request for method and path, failing the test if there is none.
func (f *FakeAPI) LastFor(t *testing.T, method, path string) RecordedRequest {
	t.Helper()
	reqs := f.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i]
		}
	}
	t.Fatalf("expected a %s %s request", method, path)
	return RecordedRequest{}
}

// Count returns how many requests matched method and path.
func (f *FakeAPI) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// WriteJSON encodes body with status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// SampleSongs returns n songs with predictable fields.
func SampleSongs(n int) []models.Song {
	songs := make([]models.Song, n)
	for i := range songs {
		id := i + 1
		songs[i] = models.Song{
			ID:               id,
			Title:            fmt.Sprintf("Song %d", id),
			Artist:           fmt.Sprintf("Artist %d", id),
			ArtistSlug:       fmt.Sprintf("artist-%d", id),
			Slug:             fmt.Sprintf("song-%d", id),
			Year:             1960 + i,
			PeakRank:         id,
			WeeksOnChart:     10 + id,
			AverageUserScore: 7.5,
			TotalRatings:     id * 3,
			SpotifyURL:       fmt.Sprintf("https://open.spotify.com/track/track%d?si=abc", id),
		}
	}
	return songs
}

// SongPage wraps songs in a single-page envelope.
func SongPage(songs []models.Song) models.Page[models.Song] {
	return models.Page[models.Song]{Count: len(songs), Results: songs}
}

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

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
