package tasks

import (
	"context"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
)

// SpotifyClient is the slice of the Spotify Web API the exporter needs.
type SpotifyClient interface {
	CurrentUserID(ctx context.Context) (string, error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*services.SpotifyPlaylist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) (string, error)
}

// HomeSource serves the independent home page sections.
type HomeSource interface {
	RandomSong(ctx context.Context) (*models.Song, error)
	TopRatedSongs(ctx context.Context, limit int) ([]models.Song, error)
	CurrentHot100(ctx context.Context) (*models.ChartSnapshot, error)
	RandomSongsByDecade(ctx context.Context) ([]models.Song, error)
	FeaturedArtists(ctx context.Context) ([]models.Artist, error)
	SongsWithImages(ctx context.Context) ([]models.Song, error)
	LatestBlogPost(ctx context.Context) (*models.BlogPost, error)
}

// ArtistSource serves an artist page.
type ArtistSource interface {
	ArtistBySlug(ctx context.Context, slug string) (*models.ArtistDetail, error)
	ListSongs(ctx context.Context, q services.SongQuery) (*models.Page[models.Song], error)
	RandomSongsByArtist(ctx context.Context, artistSlug string) (*models.Song, error)
}

// ProfileSource serves the signed-in user's profile and bookmarks.
type ProfileSource interface {
	Profile(ctx context.Context) (*models.Profile, error)
	BookmarkedSongs(ctx context.Context) ([]models.Song, error)
}

// CacheSource is the API side of a cache sync.
type CacheSource interface {
	ListSongs(ctx context.Context, q services.SongQuery) (*models.Page[models.Song], error)
	CurrentHot100(ctx context.Context) (*models.ChartSnapshot, error)
}

// SongStore persists fetched songs (repositories.SongRepository).
type SongStore interface {
	UpsertMany(ctx context.Context, songs []models.Song) (int, error)
}

// ChartStore persists chart snapshots (repositories.ChartRepository).
type ChartStore interface {
	Save(ctx context.Context, chart *models.ChartSnapshot) (string, error)
}

var (
	_ HomeSource    = (*services.PopHitsService)(nil)
	_ ProfileSource = (*services.PopHitsService)(nil)
	_ SongSource    = (*services.PopHitsService)(nil)
	_ StatusSource  = (*services.PopHitsService)(nil)
	_ ArtistSource  = (*services.PopHitsService)(nil)
	_ CacheSource   = (*services.PopHitsService)(nil)
	_ SpotifyClient = (*services.SpotifyService)(nil)
)
