package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/session"
	"github.com/desertthunder/pophits/internal/shared"
	tu "github.com/desertthunder/pophits/internal/testing"
	"golang.org/x/oauth2"
)

type fakeSpotify struct {
	addErr error
	uris   []string
}

func (f *fakeSpotify) AuthURL(state string) string {
	return "https://accounts.spotify.test/authorize?state=" + state
}

func (f *fakeSpotify) CurrentUserID(ctx context.Context) (string, error) { return "user-1", nil }

func (f *fakeSpotify) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*services.SpotifyPlaylist, error) {
	return &services.SpotifyPlaylist{ID: "pl-1", Name: name}, nil
}

func (f *fakeSpotify) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.uris = uris
	return "snap-1", nil
}

type fixture struct {
	api     *tu.FakeAPI
	sess    *session.Session
	spotify *fakeSpotify
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := tu.NewFakeAPI(t)
	return newFixtureAt(t, api, api.URL)
}

func newFixtureAt(t *testing.T, api *tu.FakeAPI, baseURL string) *fixture {
	t.Helper()

	sess := session.New()
	client := services.NewPopHitsService(baseURL, nil, services.WithTokenSource(sess))
	mgr, err := session.NewManager(sess, &session.MemoryStore{}, client, nil)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	t.Cleanup(mgr.Close)

	spotify := &fakeSpotify{}
	app, err := New(Options{API: client, Auth: mgr, Spotify: spotify})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return &fixture{api: api, sess: sess, spotify: spotify, handler: app.Handler()}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (f *fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, s := range want {
		if !strings.Contains(body, s) {
			t.Errorf("expected body to contain %q", s)
		}
	}
}

func TestResolve(t *testing.T) {
	empty := func(s []int) bool { return len(s) == 0 }

	tests := []struct {
		name   string
		data   []int
		err    error
		status Status
		code   int
	}{
		{"Data", []int{1}, nil, StatusReady, http.StatusOK},
		{"Empty", []int{}, nil, StatusEmpty, http.StatusOK},
		{"Not Found", nil, fmt.Errorf("song: %w", shared.ErrNotFound), StatusEmpty, http.StatusNotFound},
		{"Bad Input", nil, shared.ErrInvalidInput, StatusError, http.StatusBadRequest},
		{"Signed Out", nil, shared.ErrNotAuthenticated, StatusError, http.StatusUnauthorized},
		{"Upstream", nil, errors.New("connection refused"), StatusError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Resolve(tt.data, tt.err, empty)
			if v.Status != tt.status {
				t.Errorf("expected %v, got %v", tt.status, v.Status)
			}
			if v.IsLoading() {
				t.Error("expected a settled state")
			}
			if got := v.HTTPStatus(); got != tt.code {
				t.Errorf("expected %d, got %d", tt.code, got)
			}
			if tt.status == StatusError && v.Message() == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestHomePage(t *testing.T) {
	songs := tu.SampleSongs(3)
	chart := models.ChartSnapshot{
		ChartDate: models.NewDate(time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)),
		Songs:     []models.ChartEntry{{Title: "Chart Topper", Artist: "Someone", Slug: "chart-topper", CurrentPosition: 1}},
	}

	t.Run("All Sections", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/random-song/", http.StatusOK, songs[0])
		f.api.JSON(http.MethodGet, "/api/songs/top-rated-songs/", http.StatusOK, songs[1:])
		f.api.JSON(http.MethodGet, "/api/songs/current-hot100/", http.StatusOK, chart)

		f.api.JSON(http.MethodGet, "/api/songs/random-songs-by-decade/", http.StatusOK, []models.Song{{Title: "Decade Pick", Slug: "decade-pick", Year: 1964}})
		f.api.JSON(http.MethodGet, "/api/songs/featured-artists/", http.StatusOK, []models.Artist{{Name: "ABBA", Slug: "abba"}})
		f.api.JSON(http.MethodGet, "/api/songs/songs-with-images/", http.StatusOK, []models.Song{{Title: "Pictured", Slug: "pictured", ImageUpload: "https://cdn.test/p.jpg"}})
		f.api.JSON(http.MethodGet, "/api/blog/", http.StatusOK, models.Page[models.BlogPost]{Count: 1, Results: []models.BlogPost{{Title: "Summer Hits", Slug: "summer-hits"}}})

		w := f.get(t, "/")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "Song 1", "Song 2", "Song 3", "Chart Topper", "2024-05-04", "NEW",
			"1960s:", "Decade Pick", `href="/artists/abba"`, "https://cdn.test/p.jpg", `href="/blog/summer-hits"`)

		blog := f.api.LastFor(t, http.MethodGet, "/api/blog/")
		if blog.RawQuery != "page=1&page_size=1" {
			t.Errorf("expected one latest post requested, got %q", blog.RawQuery)
		}
	})

	t.Run("One Section Fails", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/random-song/", http.StatusInternalServerError, map[string]string{"detail": "boom"})
		f.api.JSON(http.MethodGet, "/api/songs/top-rated-songs/", http.StatusOK, songs[1:])
		f.api.JSON(http.MethodGet, "/api/songs/current-hot100/", http.StatusOK, chart)

		w := f.get(t, "/")
		body := w.Body.String()
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if strings.Count(body, `role="alert"`) != 1 {
			t.Errorf("expected exactly one error section, got %d", strings.Count(body, `role="alert"`))
		}
		assertContains(t, body, "PopHits is unavailable", "Song 2", "Chart Topper")
	})

	t.Run("Empty Sections", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/random-song/", http.StatusOK, songs[0])
		f.api.JSON(http.MethodGet, "/api/songs/top-rated-songs/", http.StatusOK, []models.Song{})
		f.api.JSON(http.MethodGet, "/api/songs/current-hot100/", http.StatusOK, models.ChartSnapshot{})

		body := f.get(t, "/").Body.String()
		assertContains(t, body, "No rated songs yet.", "The current chart is not available.")
	})

	t.Run("Network Failure Settles", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		f := newFixtureAt(t, tu.NewFakeAPI(t), dead.URL)

		w := f.get(t, "/")
		body := w.Body.String()
		if got := strings.Count(body, `role="alert"`); got != 3 {
			t.Errorf("expected 3 error sections, got %d", got)
		}
		if strings.Contains(strings.ToLower(body), "loading") {
			t.Error("expected no loading state after a failed fetch")
		}
	})
}

func TestArtistPages(t *testing.T) {
	detail := models.ArtistDetail{
		Artist:    models.Artist{ID: 1, Name: "ABBA", Slug: "abba", ArtistType: "group", Nationality: "Swedish"},
		Bio:       "Swedish pop group.",
		Members:   []models.ArtistMember{{Name: "Agnetha", Slug: "agnetha"}},
		Stats:     &models.BillboardStats{TotalHits: 14, HighestPeak: 1, NumberOneHits: 1, TotalWeeks: 150, FirstHitYear: 1974, LastHitYear: 1982},
		BirthDate: models.NewDate(time.Date(1972, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	t.Run("Index", func(t *testing.T) {
		f := newFixture(t)
		next := "http://api.test/api/artists/?page=2"
		f.api.JSON(http.MethodGet, "/api/artists/", http.StatusOK, models.Page[models.Artist]{
			Count:   30,
			Next:    &next,
			Results: []models.Artist{{Name: "ABBA", Slug: "abba", TotalHits: 14}},
		})

		w := f.get(t, "/artists?letter=a")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), `href="/artists/abba"`, "14 hits", `href="/artists?letter=A&amp;page=2"`)

		q, _ := url.ParseQuery(f.api.Last(t).RawQuery)
		if q.Get("letter") != "A" {
			t.Errorf("expected letter A, got %q", q.Get("letter"))
		}
	})

	t.Run("Index Empty Letter", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/artists/", http.StatusOK, models.Page[models.Artist]{})

		assertContains(t, f.get(t, "/artists?letter=q").Body.String(), "No artists starting with Q.")
	})

	t.Run("Detail", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/artists/abba/", http.StatusOK, detail)
		f.api.JSON(http.MethodGet, "/api/songs/", http.StatusOK, tu.SongPage(tu.SampleSongs(2)))
		f.api.JSON(http.MethodGet, "/api/songs/random-by-artist/", http.StatusOK, models.Song{Title: "Dancing Queen", Slug: "dancing-queen", Year: 1977})

		w := f.get(t, "/artists/abba")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "<h1>ABBA</h1>", "Swedish pop group.", "Formed: 1972", "(1 #1s)", "1974-1982",
			`href="/artists/agnetha"`, "Random pick", "dancing-queen", "Song 1", "Song 2")

		songs := f.api.LastFor(t, http.MethodGet, "/api/songs/")
		q, _ := url.ParseQuery(songs.RawQuery)
		if q.Get("artist") != "abba" {
			t.Errorf("expected songs filtered by artist, got %q", songs.RawQuery)
		}
		random := f.api.LastFor(t, http.MethodGet, "/api/songs/random-by-artist/")
		if random.RawQuery != "artist_slug=abba" {
			t.Errorf("expected random pick for abba, got %q", random.RawQuery)
		}
	})

	t.Run("Detail Missing", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/artists/ghost")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "Artist not found")
	})
}

func TestSongsPage(t *testing.T) {
	t.Run("Query Round Trip", func(t *testing.T) {
		f := newFixture(t)
		page := tu.SongPage(tu.SampleSongs(2))
		page.Count = 60
		f.api.JSON(http.MethodGet, "/api/songs/", http.StatusOK, page)

		w := f.get(t, "/songs?search=beatles&decade=1960&page=2&sort_by=year&order=desc")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		got, err := url.ParseQuery(f.api.Last(t).RawQuery)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for key, want := range map[string]string{
			"search": "beatles", "decade": "1960", "page": "2", "sort_by": "year", "order": "desc", "page_size": "25",
		} {
			if got.Get(key) != want {
				t.Errorf("expected %s=%s, got %q", key, want, got.Get(key))
			}
		}

		body := w.Body.String()
		assertContains(t, body, "Page 2 of 3", "Song 1", "Song 2")
		assertContains(t, body, "page=1", "page=3")
		assertContains(t, body, "peak_rank=1")
	})

	t.Run("Number One Toggle Keeps Filters", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/", http.StatusOK, tu.SongPage(tu.SampleSongs(1)))

		body := f.get(t, "/songs?search=beatles&peak_rank=1&page=3").Body.String()
		assertContains(t, body, "Show all songs", "/songs?page=1&amp;page_size=25&amp;search=beatles")
	})

	t.Run("Invalid Query", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/songs?page=abc")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if len(f.api.Requests()) != 0 {
			t.Errorf("expected no API request, got %d", len(f.api.Requests()))
		}
	})

	t.Run("No Results", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/", http.StatusOK, tu.SongPage(nil))

		assertContains(t, f.get(t, "/songs?search=zzz").Body.String(), "No songs match these filters.")
	})
}

func TestSongPage(t *testing.T) {
	song := tu.SampleSongs(1)[0]
	song.Comments = []models.Comment{
		{ID: 7, UserID: 11, Username: "alice", Text: "great tune"},
		{ID: 8, UserID: 12, Username: "bob", Text: "not for me"},
	}

	t.Run("Anonymous", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/song-1/", http.StatusOK, song)

		w := f.get(t, "/songs/song-1")
		body := w.Body.String()
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		assertContains(t, body, "Song 1", "great tune", "Sign in</a> to rate")
		if strings.Contains(body, "/rate") {
			t.Error("expected no rating form when signed out")
		}
		if f.api.Count(http.MethodGet, "/api/profile/") != 0 {
			t.Error("expected no profile fetch when signed out")
		}
	})

	t.Run("Signed In", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodGet, "/api/songs/song-1/", http.StatusOK, song)
		f.api.JSON(http.MethodGet, "/api/profile/", http.StatusOK, models.Profile{
			RatingHistory: []models.RatingHistory{{SongSlug: "song-1", Score: 8}},
		})

		body := f.get(t, "/songs/song-1").Body.String()
		assertContains(t, body, `name="current" value="8"`, `value="8" aria-pressed="true"`, "/songs/1/comments/7/edit")
		if strings.Contains(body, "/songs/1/comments/8/edit") {
			t.Error("expected no edit form on another user's comment")
		}
	})

	t.Run("Signed In Through Login Form", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodPost, "/api/login/", http.StatusOK, models.AuthToken{Token: "abc"})
		f.api.JSON(http.MethodGet, "/api/profile/", http.StatusOK, models.Profile{User: models.User{ID: 11, Username: "alice"}})
		f.api.JSON(http.MethodGet, "/api/songs/song-1/", http.StatusOK, song)
		f.api.JSON(http.MethodGet, "/api/songs/ratings/1/user/11/", http.StatusOK, 6)

		w := f.post(t, "/login", url.Values{"email": {"alice@example.com"}, "password": {"pw"}, "next": {"/songs/song-1"}})
		if w.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", w.Code)
		}
		if f.sess.Username() != "alice" || f.sess.UserID() != 11 {
			t.Errorf("expected alice/11 after login, got %q/%d", f.sess.Username(), f.sess.UserID())
		}

		body := f.get(t, "/songs/song-1").Body.String()
		assertContains(t, body, "/songs/1/comments/7/edit", "/songs/1/comments/7/delete", `value="6" aria-pressed="true"`)
		if strings.Contains(body, "/songs/1/comments/8/edit") {
			t.Error("expected no edit form on another user's comment")
		}
	})

	t.Run("Status Line", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodGet, "/api/songs/song-1/", http.StatusOK, song)
		f.api.JSON(http.MethodGet, "/api/profile/", http.StatusOK, models.Profile{})
		f.api.JSON(http.MethodGet, "/api/songs/1/bookmark-status/", http.StatusOK, models.BookmarkStatus{IsBookmarked: true})
		f.api.JSON(http.MethodGet, "/api/songs/1/comment-status/", http.StatusOK, models.CommentStatus{HasCommented: true})

		body := f.get(t, "/songs/song-1").Body.String()
		assertContains(t, body, "In your bookmarks.", "You commented on this song.")
	})

	t.Run("Status Line Hidden On Failure", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodGet, "/api/songs/song-1/", http.StatusOK, song)
		f.api.JSON(http.MethodGet, "/api/songs/1/bookmark-status/", http.StatusInternalServerError, map[string]string{"detail": "boom"})

		w := f.get(t, "/songs/song-1")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if strings.Contains(w.Body.String(), `class="status"`) {
			t.Error("expected no status line when the lookup fails")
		}
	})

	t.Run("Ownership Follows User ID", func(t *testing.T) {
		renamed := song
		renamed.Comments = []models.Comment{{ID: 7, UserID: 11, Username: "alice_old", Text: "great tune"}}

		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.sess.SetUser(11, "alice")
		f.api.JSON(http.MethodGet, "/api/songs/song-1/", http.StatusOK, renamed)

		assertContains(t, f.get(t, "/songs/song-1").Body.String(), "/songs/1/comments/7/edit")
	})

	t.Run("Not Found", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/songs/missing")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "Song not found")
	})
}

func TestSongActions(t *testing.T) {
	t.Run("Cross Site Post Refused", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodPost, "/api/songs/1/comment/", http.StatusCreated, models.Comment{ID: 9})

		form := url.Values{"text": {"spam"}, "slug": {"song-1"}}
		req := httptest.NewRequest(http.MethodPost, "/songs/1/comments", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", "https://evil.example")
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
		if n := f.api.Count(http.MethodPost, "/api/songs/1/comment/"); n != 0 {
			t.Errorf("expected no upstream comment, got %d", n)
		}
	})

	t.Run("Same Origin Post Allowed", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodPost, "/api/songs/1/comment/", http.StatusCreated, models.Comment{ID: 9})

		form := url.Values{"text": {"love it"}, "slug": {"song-1"}}
		req := httptest.NewRequest(http.MethodPost, "/songs/1/comments", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Sec-Fetch-Site", "same-origin")
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		if w.Code != http.StatusSeeOther {
			t.Errorf("expected 303, got %d", w.Code)
		}
		if n := f.api.Count(http.MethodPost, "/api/songs/1/comment/"); n != 1 {
			t.Errorf("expected one upstream comment, got %d", n)
		}
	})

	t.Run("Requires Sign In", func(t *testing.T) {
		f := newFixture(t)

		w := f.post(t, "/songs/1/rate", url.Values{"score": {"5"}, "next": {"/songs/song-1"}})
		if w.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login?next=%2Fsongs%2Fsong-1" {
			t.Errorf("expected login redirect, got %q", loc)
		}
		if len(f.api.Requests()) != 0 {
			t.Error("expected no API request")
		}
	})

	tests := []struct {
		name    string
		current string
		clicked string
		body    string
	}{
		{"Rate", "0", "7", `{"rating":7}`},
		{"Change", "7", "3", `{"rating":3}`},
		{"Clear Same Score", "7", "7", `{"rating":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.sess.Set("tok", "alice")
			f.api.JSON(http.MethodPost, "/api/songs/1/rate/", http.StatusOK, nil)

			w := f.post(t, "/songs/1/rate", url.Values{"score": {tt.clicked}, "current": {tt.current}, "slug": {"song-1"}})
			if w.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", w.Code)
			}
			if loc := w.Header().Get("Location"); loc != "/songs/song-1" {
				t.Errorf("expected redirect to song, got %q", loc)
			}

			req := f.api.Last(t)
			if strings.TrimSpace(req.Body) != tt.body {
				t.Errorf("expected %s, got %s", tt.body, req.Body)
			}
			if req.Header.Get("Authorization") != "Token tok" {
				t.Errorf("expected auth header, got %q", req.Header.Get("Authorization"))
			}
		})
	}

	t.Run("Comment And Bookmark", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodPost, "/api/songs/1/comment/", http.StatusCreated, models.Comment{ID: 9})
		f.api.JSON(http.MethodPatch, "/api/songs/1/comment/9/", http.StatusOK, models.Comment{ID: 9})
		f.api.JSON(http.MethodDelete, "/api/songs/9/comment/", http.StatusNoContent, nil)
		f.api.JSON(http.MethodPost, "/api/songs/1/bookmark/", http.StatusOK, models.BookmarkResult{Success: true})

		form := url.Values{"text": {"love it"}, "slug": {"song-1"}}
		for _, target := range []string{
			"/songs/1/comments", "/songs/1/comments/9/edit", "/songs/1/comments/9/delete", "/songs/1/bookmark",
		} {
			if w := f.post(t, target, form); w.Code != http.StatusSeeOther {
				t.Errorf("%s: expected 303, got %d", target, w.Code)
			}
		}
		if len(f.api.Requests()) != 4 {
			t.Errorf("expected 4 API requests, got %d", len(f.api.Requests()))
		}
	})

	t.Run("Upstream Error", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodPost, "/api/songs/1/bookmark/", http.StatusBadRequest, map[string]string{"error": "nope"})

		w := f.post(t, "/songs/1/bookmark", url.Values{"slug": {"song-1"}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestAccountPages(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodPost, "/api/login/", http.StatusOK, models.AuthToken{Token: "abc"})

		w := f.post(t, "/login", url.Values{"email": {"a@b.c"}, "password": {"pw"}, "next": {"/profile"}})
		if w.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/profile" {
			t.Errorf("expected /profile, got %q", loc)
		}
		if f.sess.Token() != "abc" {
			t.Errorf("expected token abc, got %q", f.sess.Token())
		}
	})

	t.Run("Login Rejected", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodPost, "/api/login/", http.StatusBadRequest, map[string]string{"error": "Invalid credentials"})

		w := f.post(t, "/login", url.Values{"email": {"a@b.c"}, "password": {"bad"}})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "Invalid email or password.", `value="a@b.c"`)
		if f.sess.IsAuthenticated() {
			t.Error("expected to stay signed out")
		}
	})

	t.Run("Register Missing Fields", func(t *testing.T) {
		f := newFixture(t)

		w := f.post(t, "/register", url.Values{"email": {"a@b.c"}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "username", "password")
		if len(f.api.Requests()) != 0 {
			t.Error("expected no API request")
		}
	})

	t.Run("Open Redirect Blocked", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodPost, "/api/login/", http.StatusOK, models.AuthToken{Token: "abc"})

		w := f.post(t, "/login", url.Values{"email": {"a@b.c"}, "password": {"pw"}, "next": {"//evil.test"}})
		if loc := w.Header().Get("Location"); loc != "/" {
			t.Errorf("expected /, got %q", loc)
		}
	})

	t.Run("Logout Clears Even On Failure", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodPost, "/api/logout/", http.StatusInternalServerError, nil)

		w := f.post(t, "/logout", nil)
		if w.Code != http.StatusSeeOther {
			t.Errorf("expected 303, got %d", w.Code)
		}
		if f.sess.IsAuthenticated() {
			t.Error("expected local session cleared")
		}
	})

	t.Run("Profile", func(t *testing.T) {
		f := newFixture(t)
		f.sess.Set("tok", "alice")
		f.api.JSON(http.MethodGet, "/api/profile/", http.StatusOK, models.Profile{
			User:          models.User{Username: "alice"},
			RatingHistory: []models.RatingHistory{{SongTitle: "Song 1", SongArtist: "Artist 1", SongSlug: "song-1", Score: 9}},
		})
		f.api.JSON(http.MethodGet, "/api/songs/bookmarked-songs/", http.StatusInternalServerError, nil)

		w := f.get(t, "/profile")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		assertContains(t, w.Body.String(), "alice", "Artist 1 - Song 1</a>: 9", "PopHits is unavailable")
	})

	t.Run("Profile Requires Sign In", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/profile")
		if loc := w.Header().Get("Location"); loc != "/login?next=%2Fprofile" {
			t.Errorf("expected login redirect, got %q", loc)
		}
	})
}

func TestGenerators(t *testing.T) {
	t.Run("Form Only", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/playlist-generator")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if len(f.api.Requests()) != 0 {
			t.Error("expected no API request without decades")
		}
	})

	t.Run("Playlist", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/generate-playlist/", http.StatusOK, tu.SampleSongs(2))

		body := f.get(t, "/playlist-generator?decades=1960&decades=1980&hit_size=3").Body.String()
		got, _ := url.ParseQuery(f.api.Last(t).RawQuery)
		if len(got["decades"]) != 2 || got.Get("hit_size") != "3" || got.Get("number_of_songs") != "10" {
			t.Errorf("unexpected generator query %q", f.api.Last(t).RawQuery)
		}
		assertContains(t, body, "Song 2", `name="spotify_url"`, `value="1980" checked`)
	})

	t.Run("Bad Decade", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/quiz-generator?decades=abc")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("Quiz", func(t *testing.T) {
		f := newFixture(t)
		f.api.JSON(http.MethodGet, "/api/songs/generate-quiz/", http.StatusOK, []models.QuizQuestion{{Question: "Who sang it?", Answer: "Artist 1"}})

		assertContains(t, f.get(t, "/quiz-generator?decades=1970").Body.String(), "Who sang it?", "Artist 1")
	})
}

func TestSpotifyFlow(t *testing.T) {
	t.Run("Export Needs Token", func(t *testing.T) {
		f := newFixture(t)

		w := f.post(t, "/playlist-generator/export", url.Values{"name": {"Mix"}})
		if loc := w.Header().Get("Location"); loc != "/spotify/login" {
			t.Errorf("expected spotify login redirect, got %q", loc)
		}
	})

	t.Run("Login Sets State", func(t *testing.T) {
		f := newFixture(t)

		w := f.get(t, "/spotify/login")
		if w.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", w.Code)
		}
		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != stateCookie {
			t.Fatalf("expected state cookie, got %v", cookies)
		}
		if !strings.HasSuffix(w.Header().Get("Location"), "state="+cookies[0].Value) {
			t.Errorf("expected state in auth URL, got %q", w.Header().Get("Location"))
		}
	})

	t.Run("Token Stored", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/spotify/token?access_token=sp&token_type=Bearer&expires_in=3600&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s1"})
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		if w.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", w.Code)
		}
		tok, ok := f.sess.SpotifyToken()
		if !ok || tok.AccessToken != "sp" {
			t.Errorf("expected spotify token stored, got %v", tok)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/spotify/token?access_token=sp&state=other", nil)
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s1"})
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if _, ok := f.sess.SpotifyToken(); ok {
			t.Error("expected no spotify token")
		}
	})

	t.Run("Export", func(t *testing.T) {
		f := newFixture(t)
		f.sess.SetSpotify(&oauth2.Token{AccessToken: "sp", Expiry: time.Now().Add(time.Hour)})

		form := url.Values{
			"name":        {"Mix"},
			"spotify_url": {"https://open.spotify.com/track/abc", "https://open.spotify.com/track/def"},
		}
		w := f.post(t, "/playlist-generator/export", form)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if len(f.spotify.uris) != 2 || f.spotify.uris[0] != "spotify:track:abc" {
			t.Errorf("unexpected uris %v", f.spotify.uris)
		}
		assertContains(t, w.Body.String(), "Mix", "2 tracks")
	})

	t.Run("Partial Export", func(t *testing.T) {
		f := newFixture(t)
		f.sess.SetSpotify(&oauth2.Token{AccessToken: "sp"})
		f.spotify.addErr = errors.New("rate limited")

		w := f.post(t, "/playlist-generator/export", url.Values{
			"name": {"Mix"}, "spotify_url": {"https://open.spotify.com/track/abc"},
		})
		assertContains(t, w.Body.String(), "Playlist ID: pl-1")
	})
}

func TestJSONRoutes(t *testing.T) {
	f := newFixture(t)
	f.sess.Set("tok", "alice")

	t.Run("Session", func(t *testing.T) {
		w := f.get(t, "/api/session")
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json, got %q", ct)
		}
		assertContains(t, w.Body.String(), `"authenticated":true`, `"username":"alice"`, `"spotify_connected":false`)
	})

	t.Run("Health", func(t *testing.T) {
		w := f.get(t, "/healthz")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("Request ID", func(t *testing.T) {
		w := f.get(t, "/healthz")
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("Encode Failure Is Logged", func(t *testing.T) {
		var logs bytes.Buffer
		client := services.NewPopHitsService("http://localhost", nil)
		mgr, err := session.NewManager(session.New(), &session.MemoryStore{}, client, nil)
		if err != nil {
			t.Fatalf("failed to create session manager: %v", err)
		}
		t.Cleanup(mgr.Close)

		app, err := New(Options{API: client, Auth: mgr, Logger: shared.NewLogger(&logs)})
		if err != nil {
			t.Fatalf("failed to create app: %v", err)
		}

		w := httptest.NewRecorder()
		app.writeJSON(w, http.StatusOK, make(chan int))
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(logs.String(), "failed to write JSON response") {
			t.Errorf("expected encode error to be logged, got %q", logs.String())
		}
	})
}

func TestNew(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without an API client")
	}
}
