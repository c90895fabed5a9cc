package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	tu "github.com/desertthunder/pophits/internal/testing"
)

type mockSpotify struct {
	mu        sync.Mutex
	calls     []string
	userErr   error
	createErr error
	addErr    error
	added     []string
}

func (m *mockSpotify) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockSpotify) CurrentUserID(ctx context.Context) (string, error) {
	m.record("me")
	if m.userErr != nil {
		return "", m.userErr
	}
	return "user-1", nil
}

func (m *mockSpotify) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*services.SpotifyPlaylist, error) {
	m.record("create:" + userID)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &services.SpotifyPlaylist{ID: "pl-1", Name: name, Description: description, Public: public}, nil
}

func (m *mockSpotify) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	m.record("add:" + playlistID)
	if m.addErr != nil {
		return "", m.addErr
	}
	m.added = uris
	return "snap-1", nil
}

func TestSpotifyExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Then Adds", func(t *testing.T) {
		spotify := &mockSpotify{}
		songs := tu.SampleSongs(3)
		songs[1].SpotifyURL = ""

		progress := make(chan ProgressUpdate, 10)
		result, err := NewSpotifyExporter(spotify).Run(ctx, ExportRequest{Name: "Sixties", Songs: songs}, progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"me", "create:user-1", "add:pl-1"}
		if strings.Join(spotify.calls, ",") != strings.Join(want, ",") {
			t.Errorf("expected calls %v, got %v", want, spotify.calls)
		}
		if result.Added != 2 || result.Skipped != 1 || result.SnapshotID != "snap-1" {
			t.Errorf("unexpected result %+v", result)
		}
		if spotify.added[0] != "spotify:track:track1" || spotify.added[1] != "spotify:track:track3" {
			t.Errorf("expected converted URIs, got %v", spotify.added)
		}

		close(progress)
		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 3 || phases[0] != ResolveUser || phases[2] != AddTracks {
			t.Errorf("expected resolve, create, add progress, got %v", phases)
		}
	})

	t.Run("User Lookup Failure Stops Early", func(t *testing.T) {
		spotify := &mockSpotify{userErr: shared.ErrTokenExpired}
		_, err := NewSpotifyExporter(spotify).Run(ctx, ExportRequest{Name: "x", Songs: tu.SampleSongs(1)}, nil)

		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if len(spotify.calls) != 1 {
			t.Errorf("expected only the user lookup, got %v", spotify.calls)
		}
	})

	t.Run("Create Failure Skips Add", func(t *testing.T) {
		spotify := &mockSpotify{createErr: shared.ErrAPIRequest}
		result, err := NewSpotifyExporter(spotify).Run(ctx, ExportRequest{Name: "x", Songs: tu.SampleSongs(1)}, nil)

		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if result != nil {
			t.Error("expected no result")
		}
		for _, c := range spotify.calls {
			if strings.HasPrefix(c, "add") {
				t.Error("expected tracks not to be added")
			}
		}
	})

	t.Run("Add Failure Reports Created Playlist", func(t *testing.T) {
		spotify := &mockSpotify{addErr: fmt.Errorf("%w: boom", shared.ErrAPIRequest)}
		result, err := NewSpotifyExporter(spotify).Run(ctx, ExportRequest{Name: "x", Songs: tu.SampleSongs(2)}, nil)

		if !errors.Is(err, shared.ErrPartialExport) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected partial export wrapping the API error, got %v", err)
		}

		var partial *PartialExportError
		if !errors.As(err, &partial) || partial.PlaylistID != "pl-1" {
			t.Errorf("expected playlist id in error, got %v", err)
		}
		if result == nil || result.Playlist == nil || result.Added != 0 {
			t.Errorf("expected created playlist with no tracks, got %+v", result)
		}
	})

	t.Run("No Spotify Links", func(t *testing.T) {
		spotify := &mockSpotify{}
		songs := tu.SampleSongs(2)
		for i := range songs {
			songs[i].SpotifyURL = "https://example.com/nope"
		}

		_, err := NewSpotifyExporter(spotify).Run(ctx, ExportRequest{Name: "x", Songs: songs}, nil)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(spotify.calls) != 0 {
			t.Errorf("expected no Spotify calls, got %v", spotify.calls)
		}
	})

	t.Run("Missing Name", func(t *testing.T) {
		_, err := NewSpotifyExporter(&mockSpotify{}).Run(ctx, ExportRequest{Name: "  "}, nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

type mockAPI struct {
	randomErr  error
	topErr     error
	chartErr   error
	profileErr error
	statusErr  error
	artistErr  error
	pageErrs   map[int]error
	songs      []models.Song
	pictured   []models.Song
	calls      atomic.Int32

	mu        sync.Mutex
	lastQuery services.SongQuery
}

func (m *mockAPI) RandomSong(ctx context.Context) (*models.Song, error) {
	m.calls.Add(1)
	if m.randomErr != nil {
		return nil, m.randomErr
	}
	s := tu.SampleSongs(1)[0]
	return &s, nil
}

func (m *mockAPI) TopRatedSongs(ctx context.Context, limit int) ([]models.Song, error) {
	m.calls.Add(1)
	if m.topErr != nil {
		return nil, m.topErr
	}
	return tu.SampleSongs(limit), nil
}

func (m *mockAPI) CurrentHot100(ctx context.Context) (*models.ChartSnapshot, error) {
	m.calls.Add(1)
	if m.chartErr != nil {
		return nil, m.chartErr
	}
	d, _ := models.ParseDate("2024-03-02")
	return &models.ChartSnapshot{ChartDate: d, Songs: []models.ChartEntry{{ID: 1, CurrentPosition: 1}}}, nil
}

func (m *mockAPI) Profile(ctx context.Context) (*models.Profile, error) {
	m.calls.Add(1)
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return &models.Profile{Message: "hi", RatingHistory: []models.RatingHistory{{SongSlug: "song-1", Score: 8}}}, nil
}

func (m *mockAPI) SongBySlug(ctx context.Context, slug string) (*models.Song, error) {
	m.calls.Add(1)
	for _, s := range tu.SampleSongs(3) {
		if s.Slug == slug {
			return &s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockAPI) BookmarkedSongs(ctx context.Context) ([]models.Song, error) {
	m.calls.Add(1)
	return tu.SampleSongs(2), nil
}

func (m *mockAPI) RandomSongsByDecade(ctx context.Context) ([]models.Song, error) {
	m.calls.Add(1)
	return tu.SampleSongs(7), nil
}

func (m *mockAPI) FeaturedArtists(ctx context.Context) ([]models.Artist, error) {
	m.calls.Add(1)
	return []models.Artist{{Name: "ABBA", Slug: "abba"}}, nil
}

func (m *mockAPI) SongsWithImages(ctx context.Context) ([]models.Song, error) {
	m.calls.Add(1)
	return m.pictured, nil
}

func (m *mockAPI) LatestBlogPost(ctx context.Context) (*models.BlogPost, error) {
	m.calls.Add(1)
	return &models.BlogPost{Title: "Summer of '69", Slug: "summer"}, nil
}

func (m *mockAPI) UserRating(ctx context.Context, songID, userID int) (int, error) {
	m.calls.Add(1)
	if userID == 42 && songID == 2 {
		return 6, nil
	}
	return 0, nil
}

func (m *mockAPI) BookmarkStatus(ctx context.Context, songID int) (bool, error) {
	m.calls.Add(1)
	return songID == 1, m.statusErr
}

func (m *mockAPI) CommentStatus(ctx context.Context, songID int) (bool, error) {
	m.calls.Add(1)
	return false, m.statusErr
}

func (m *mockAPI) ArtistBySlug(ctx context.Context, slug string) (*models.ArtistDetail, error) {
	m.calls.Add(1)
	if m.artistErr != nil {
		return nil, m.artistErr
	}
	return &models.ArtistDetail{Artist: models.Artist{Name: "ABBA", Slug: slug}}, nil
}

func (m *mockAPI) RandomSongsByArtist(ctx context.Context, artistSlug string) (*models.Song, error) {
	m.calls.Add(1)
	s := tu.SampleSongs(1)[0]
	return &s, nil
}

func (m *mockAPI) ListSongs(ctx context.Context, q services.SongQuery) (*models.Page[models.Song], error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastQuery = q
	m.mu.Unlock()
	if err := m.pageErrs[q.Page]; err != nil {
		return nil, err
	}
	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, len(m.songs))
	if start >= len(m.songs) {
		start = end
	}
	return &models.Page[models.Song]{Count: len(m.songs), Results: m.songs[start:end]}, nil
}

func TestLoadHome(t *testing.T) {
	ctx := context.Background()

	t.Run("All Sections", func(t *testing.T) {
		home := LoadHome(ctx, &mockAPI{pictured: tu.SampleSongs(2)}, 0)
		if !home.Random.OK() || !home.TopRated.OK() || !home.Hot100.OK() {
			t.Fatalf("expected every slot loaded, got %+v", home)
		}
		if len(home.TopRated.Value) != DefaultTopRated {
			t.Errorf("expected %d top rated, got %d", DefaultTopRated, len(home.TopRated.Value))
		}
		if len(home.Decades.Value) != 7 || len(home.Featured.Value) != 1 || len(home.Gallery.Value) != 2 {
			t.Errorf("expected decades, featured artists and gallery, got %+v", home)
		}
		if home.Latest.Value == nil || home.Latest.Value.Slug != "summer" {
			t.Errorf("expected latest post, got %+v", home.Latest)
		}
	})

	t.Run("Gallery Is Capped", func(t *testing.T) {
		pictured := tu.SampleSongs(GallerySize + 4)
		home := LoadHome(ctx, &mockAPI{pictured: pictured}, 0)

		if len(home.Gallery.Value) != GallerySize {
			t.Errorf("expected %d pictured songs, got %d", GallerySize, len(home.Gallery.Value))
		}
		if len(pictured) != GallerySize+4 || pictured[0].ID != 1 {
			t.Error("expected source slice untouched")
		}
	})

	t.Run("One Failure Leaves Others", func(t *testing.T) {
		api := &mockAPI{topErr: shared.ErrServiceUnavailable}
		home := LoadHome(ctx, api, 3)

		if !errors.Is(home.TopRated.Err, shared.ErrServiceUnavailable) {
			t.Errorf("expected top rated error, got %v", home.TopRated.Err)
		}
		if home.Random.Value == nil || home.Hot100.Value == nil {
			t.Error("expected random song and chart to load despite failure")
		}
		if api.calls.Load() != 7 {
			t.Errorf("expected 7 calls, got %d", api.calls.Load())
		}
	})
}

func TestLoadProfile(t *testing.T) {
	page := LoadProfile(context.Background(), &mockAPI{profileErr: shared.ErrNotAuthenticated})

	if !errors.Is(page.Profile.Err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", page.Profile.Err)
	}
	if !page.Bookmarks.OK() || len(page.Bookmarks.Value) != 2 {
		t.Errorf("expected bookmarks to load, got %+v", page.Bookmarks)
	}
}

func TestLoadSong(t *testing.T) {
	ctx := context.Background()
	signedIn := Viewer{SignedIn: true}

	t.Run("Signed In Finds Rating", func(t *testing.T) {
		page := LoadSong(ctx, &mockAPI{}, "song-1", signedIn)
		if !page.Song.OK() || page.Song.Value.ID != 1 {
			t.Fatalf("expected song 1, got %+v", page.Song)
		}
		if page.MyRating.Value != 8 {
			t.Errorf("expected rating 8, got %d", page.MyRating.Value)
		}
	})

	t.Run("Unrated Song", func(t *testing.T) {
		page := LoadSong(ctx, &mockAPI{}, "song-2", signedIn)
		if page.MyRating.Value != 0 || !page.MyRating.OK() {
			t.Errorf("expected no rating, got %+v", page.MyRating)
		}
	})

	t.Run("Known User Uses Rating Endpoint", func(t *testing.T) {
		api := &mockAPI{profileErr: shared.ErrServiceUnavailable}
		page := LoadSong(ctx, api, "song-2", Viewer{SignedIn: true, UserID: 42})

		if !page.MyRating.OK() || page.MyRating.Value != 6 {
			t.Errorf("expected rating 6 without the profile, got %+v", page.MyRating)
		}
	})

	t.Run("Status Loaded After Song", func(t *testing.T) {
		page := LoadSong(ctx, &mockAPI{}, "song-1", signedIn)

		if page.Status.Value == nil {
			t.Fatalf("expected status, got %+v", page.Status)
		}
		if !page.Status.Value.Bookmarked || page.Status.Value.Commented {
			t.Errorf("expected bookmarked and not commented, got %+v", page.Status.Value)
		}
	})

	t.Run("Status Failure Keeps Song", func(t *testing.T) {
		page := LoadSong(ctx, &mockAPI{statusErr: shared.ErrServiceUnavailable}, "song-1", signedIn)

		if !errors.Is(page.Status.Err, shared.ErrServiceUnavailable) || page.Status.Value != nil {
			t.Errorf("expected status error, got %+v", page.Status)
		}
		if !page.Song.OK() || page.MyRating.Value != 8 {
			t.Error("expected song and rating to load despite status failure")
		}
	})

	t.Run("Signed Out Skips Profile", func(t *testing.T) {
		api := &mockAPI{}
		page := LoadSong(ctx, api, "song-1", Viewer{})
		if api.calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", api.calls.Load())
		}
		if page.Status.Value != nil {
			t.Error("expected no status when signed out")
		}
	})

	t.Run("Missing Song", func(t *testing.T) {
		api := &mockAPI{}
		page := LoadSong(ctx, api, "nope", signedIn)
		if !errors.Is(page.Song.Err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", page.Song.Err)
		}
		if api.calls.Load() != 2 {
			t.Errorf("expected no status calls for a missing song, got %d calls", api.calls.Load())
		}
	})
}

func TestLoadArtist(t *testing.T) {
	ctx := context.Background()

	t.Run("All Sections", func(t *testing.T) {
		api := &mockAPI{songs: tu.SampleSongs(3)}
		page := LoadArtist(ctx, api, "abba", services.SongQuery{Page: 1, PageSize: 25})

		if !page.Artist.OK() || page.Artist.Value.Slug != "abba" {
			t.Errorf("expected artist, got %+v", page.Artist)
		}
		if !page.Songs.OK() || len(page.Songs.Value.Results) != 3 {
			t.Errorf("expected 3 songs, got %+v", page.Songs)
		}
		if page.Random.Value == nil {
			t.Error("expected a random song")
		}
		if api.lastQuery.Artist != "abba" {
			t.Errorf("expected songs filtered to abba, got %q", api.lastQuery.Artist)
		}
	})

	t.Run("Missing Artist Keeps Songs", func(t *testing.T) {
		api := &mockAPI{songs: tu.SampleSongs(1), artistErr: shared.ErrNotFound}
		page := LoadArtist(ctx, api, "ghost", services.SongQuery{Page: 1, PageSize: 25})

		if !errors.Is(page.Artist.Err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", page.Artist.Err)
		}
		if !page.Songs.OK() {
			t.Errorf("expected songs to load, got %v", page.Songs.Err)
		}
	})
}

type memorySongs struct {
	mu    sync.Mutex
	songs map[int]models.Song
}

func (m *memorySongs) UpsertMany(ctx context.Context, songs []models.Song) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.songs == nil {
		m.songs = map[int]models.Song{}
	}
	for _, s := range songs {
		m.songs[s.ID] = s
	}
	return len(songs), nil
}

type memoryCharts struct {
	saved []*models.ChartSnapshot
}

func (m *memoryCharts) Save(ctx context.Context, chart *models.ChartSnapshot) (string, error) {
	m.saved = append(m.saved, chart)
	return "snap", nil
}

func TestCacheSyncer(t *testing.T) {
	ctx := context.Background()
	fast := SyncOpts{RateLimit: 1000}

	t.Run("Fetches Every Page", func(t *testing.T) {
		api := &mockAPI{songs: tu.SampleSongs(23)}
		store := &memorySongs{}
		q := services.NewSongQuery().WithPageSize(5)

		result, err := NewCacheSyncer(api, store, nil, fast).SyncSongs(ctx, q, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Pages != 5 || result.Songs != 23 || result.Count != 23 {
			t.Errorf("unexpected result %+v", result)
		}
		if len(store.songs) != 23 {
			t.Errorf("expected 23 cached songs, got %d", len(store.songs))
		}
	})

	t.Run("Max Pages", func(t *testing.T) {
		api := &mockAPI{songs: tu.SampleSongs(23)}
		store := &memorySongs{}
		opts := fast
		opts.MaxPages = 2

		result, err := NewCacheSyncer(api, store, nil, opts).SyncSongs(ctx, services.NewSongQuery().WithPageSize(5), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Pages != 2 || len(store.songs) != 10 {
			t.Errorf("expected 2 pages and 10 songs, got %+v with %d cached", result, len(store.songs))
		}
	})

	t.Run("Joins Page Errors", func(t *testing.T) {
		api := &mockAPI{
			songs: tu.SampleSongs(20),
			pageErrs: map[int]error{
				2: shared.ErrServiceUnavailable,
				4: shared.ErrTimeout,
			},
		}
		store := &memorySongs{}

		result, err := NewCacheSyncer(api, store, nil, fast).SyncSongs(ctx, services.NewSongQuery().WithPageSize(5), nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) || !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected both page errors, got %v", err)
		}
		if result.FailedPages != 2 || len(store.songs) != 10 {
			t.Errorf("expected other pages cached, got %+v with %d cached", result, len(store.songs))
		}
	})

	t.Run("First Page Failure", func(t *testing.T) {
		api := &mockAPI{pageErrs: map[int]error{1: shared.ErrServiceUnavailable}}
		_, err := NewCacheSyncer(api, &memorySongs{}, nil, fast).SyncSongs(ctx, services.NewSongQuery(), nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Hot 100", func(t *testing.T) {
		charts := &memoryCharts{}
		chart, err := NewCacheSyncer(&mockAPI{}, nil, charts, fast).SyncHot100(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(charts.saved) != 1 || charts.saved[0] != chart {
			t.Error("expected chart to be saved")
		}
	})

	t.Run("Missing Store", func(t *testing.T) {
		_, err := NewCacheSyncer(&mockAPI{}, nil, nil, fast).SyncHot100(ctx, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{FetchSongs, "fetch_songs"},
		{CreatePlaylist, "create_playlist"},
		{AddTracks, "add_tracks"},
		{Phase(99), ""},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestSendProgress(t *testing.T) {
	t.Run("Nil Channel", func(t *testing.T) {
		sendProgress(nil, fetchChartUpdate())
	})

	t.Run("Full Channel Does Not Block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		sendProgress(ch, fetchChartUpdate())
		sendProgress(ch, fetchChartUpdate())
		if len(ch) != 1 {
			t.Errorf("expected 1 buffered update, got %d", len(ch))
		}
	})
}
