package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

// ListSongs fetches one page of songs. Filtering and sorting happen server-side.
func (s *PopHitsService) ListSongs(ctx context.Context, q SongQuery) (*models.Page[models.Song], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var page models.Page[models.Song]
	if err := s.get(ctx, "/api/songs/", q.Values(), &page); err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return &page, nil
}

// SongBySlug fetches a song with its description and comments.
func (s *PopHitsService) SongBySlug(ctx context.Context, slug string) (*models.Song, error) {
	if err := requireSlug(slug); err != nil {
		return nil, err
	}

	var song models.Song
	if err := s.get(ctx, "/api/songs/"+url.PathEscape(slug)+"/", nil, &song); err != nil {
		return nil, fmt.Errorf("song %q: %w", slug, err)
	}
	return &song, nil
}

// SongTimeline fetches the weekly chart positions of a song.
func (s *PopHitsService) SongTimeline(ctx context.Context, slug string) (*models.Timeline, error) {
	if err := requireSlug(slug); err != nil {
		return nil, err
	}

	var timeline models.Timeline
	if err := s.get(ctx, "/api/songs/slug/"+url.PathEscape(slug)+"/timeline/", nil, &timeline); err != nil {
		return nil, fmt.Errorf("timeline %q: %w", slug, err)
	}
	return &timeline, nil
}

// RandomSong fetches a single random song.
func (s *PopHitsService) RandomSong(ctx context.Context) (*models.Song, error) {
	var song models.Song
	if err := s.get(ctx, "/api/songs/random-song/", nil, &song); err != nil {
		return nil, fmt.Errorf("random song: %w", err)
	}
	return &song, nil
}

// TopRatedSongs fetches the highest rated songs. The server clamps limit to 1-100.
func (s *PopHitsService) TopRatedSongs(ctx context.Context, limit int) ([]models.Song, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var songs []models.Song
	if err := s.get(ctx, "/api/songs/top-rated-songs/", query, &songs); err != nil {
		return nil, fmt.Errorf("top rated songs: %w", err)
	}
	return songs, nil
}

// RandomSongsByDecade returns one random song for each decade on record.
func (s *PopHitsService) RandomSongsByDecade(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := s.get(ctx, "/api/songs/random-songs-by-decade/", nil, &songs); err != nil {
		return nil, fmt.Errorf("random songs by decade: %w", err)
	}
	return songs, nil
}

// NumberOneSongs lists every song that reached #1.
func (s *PopHitsService) NumberOneSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := s.get(ctx, "/api/songs/number-one-songs/", nil, &songs); err != nil {
		return nil, fmt.Errorf("number one songs: %w", err)
	}
	return songs, nil
}

// SongsWithImages lists songs that have an uploaded image.
func (s *PopHitsService) SongsWithImages(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	if err := s.get(ctx, "/api/songs/songs-with-images/", nil, &songs); err != nil {
		return nil, fmt.Errorf("songs with images: %w", err)
	}
	return songs, nil
}

// RandomSongsByArtist returns a random song by the given artist.
func (s *PopHitsService) RandomSongsByArtist(ctx context.Context, artistSlug string) (*models.Song, error) {
	if err := requireSlug(artistSlug); err != nil {
		return nil, err
	}

	var song models.Song
	query := url.Values{"artist_slug": {artistSlug}}
	if err := s.get(ctx, "/api/songs/random-by-artist/", query, &song); err != nil {
		return nil, fmt.Errorf("random song by %q: %w", artistSlug, err)
	}
	return &song, nil
}

// CurrentHot100 fetches the latest chart.
func (s *PopHitsService) CurrentHot100(ctx context.Context) (*models.ChartSnapshot, error) {
	var chart models.ChartSnapshot
	if err := s.get(ctx, "/api/songs/current-hot100/", nil, &chart); err != nil {
		return nil, fmt.Errorf("current hot 100: %w", err)
	}
	return &chart, nil
}

// ChartDates lists the weeks available through [PopHitsService.ChartByDate].
func (s *PopHitsService) ChartDates(ctx context.Context) ([]string, error) {
	var dates models.ChartDates
	if err := s.get(ctx, "/api/songs/charts/dates/", nil, &dates); err != nil {
		return nil, fmt.Errorf("chart dates: %w", err)
	}
	return dates.Dates, nil
}

// ChartByDate fetches the Hot 100 for the chart week containing date (YYYY-MM-DD).
func (s *PopHitsService) ChartByDate(ctx context.Context, date string) (*models.HistoricChart, error) {
	if _, err := models.ParseDate(date); err != nil || date == "" {
		return nil, fmt.Errorf("%w: chart date must be YYYY-MM-DD, got %q", shared.ErrInvalidArgument, date)
	}

	var chart models.HistoricChart
	if err := s.get(ctx, "/api/songs/charts/hot-100/"+url.PathEscape(date)+"/", nil, &chart); err != nil {
		return nil, fmt.Errorf("chart for %s: %w", date, err)
	}
	return &chart, nil
}

// Artists lists artists alphabetically. letter optionally restricts to names starting with it.
func (s *PopHitsService) Artists(ctx context.Context, page int, letter string) (*models.Page[models.Artist], error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if letter = strings.TrimSpace(letter); len(letter) == 1 {
		query.Set("letter", letter)
	}

	var artists models.Page[models.Artist]
	if err := s.get(ctx, "/api/artists/", query, &artists); err != nil {
		return nil, fmt.Errorf("artists: %w", err)
	}
	return &artists, nil
}

// ArtistBySlug fetches an artist's bio, tags, related artists and chart stats.
func (s *PopHitsService) ArtistBySlug(ctx context.Context, slug string) (*models.ArtistDetail, error) {
	if err := requireSlug(slug); err != nil {
		return nil, err
	}

	var artist models.ArtistDetail
	if err := s.get(ctx, "/api/artists/"+url.PathEscape(slug)+"/", nil, &artist); err != nil {
		return nil, fmt.Errorf("artist %q: %w", slug, err)
	}
	return &artist, nil
}

// FeaturedArtists returns a random selection of artists with images.
func (s *PopHitsService) FeaturedArtists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	if err := s.get(ctx, "/api/songs/featured-artists/", nil, &artists); err != nil {
		return nil, fmt.Errorf("featured artists: %w", err)
	}
	return artists, nil
}

func requireSlug(slug string) error {
	if strings.TrimSpace(slug) == "" {
		return fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}
	return nil
}
