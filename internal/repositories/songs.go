package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

// SongRepository caches songs keyed by their API id.
//
// The full song is kept as JSON in payload; the other columns exist for lookups and sorting.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

const upsertSong = `
	INSERT INTO songs (id, slug, title, artist, artist_slug, year, peak_rank, weeks_on_chart,
		average_user_score, total_ratings, spotify_url, search_key, payload, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		slug = excluded.slug,
		title = excluded.title,
		artist = excluded.artist,
		artist_slug = excluded.artist_slug,
		year = excluded.year,
		peak_rank = excluded.peak_rank,
		weeks_on_chart = excluded.weeks_on_chart,
		average_user_score = excluded.average_user_score,
		total_ratings = excluded.total_ratings,
		spotify_url = excluded.spotify_url,
		search_key = excluded.search_key,
		payload = excluded.payload,
		fetched_at = excluded.fetched_at
`

// Upsert inserts or replaces a song.
func (r *SongRepository) Upsert(ctx context.Context, song models.Song) error {
	_, err := r.UpsertMany(ctx, []models.Song{song})
	return err
}

// UpsertMany writes songs in one transaction and returns how many were written.
// Per-user fields (bookmark flag, comments) are not cached.
func (r *SongRepository) UpsertMany(ctx context.Context, songs []models.Song) (int, error) {
	if len(songs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSong)
		if err != nil {
			return fmt.Errorf("failed to prepare song upsert: %w", err)
		}
		defer stmt.Close()

		for _, song := range songs {
			if song.ID <= 0 || song.Slug == "" {
				return fmt.Errorf("%w: song needs an id and slug, got %d %q", shared.ErrInvalidInput, song.ID, song.Slug)
			}

			song.IsBookmarked = false
			song.Comments = nil
			payload, err := json.Marshal(song)
			if err != nil {
				return fmt.Errorf("failed to encode song %d: %w", song.ID, err)
			}

			_, err = stmt.ExecContext(ctx,
				song.ID,
				song.Slug,
				song.Title,
				song.Artist,
				song.ArtistSlug,
				song.Year,
				song.PeakRank,
				song.WeeksOnChart,
				song.AverageUserScore,
				song.TotalRatings,
				song.SpotifyURL,
				shared.NormalizeSongKey(song.Title, song.Artist),
				string(payload),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert song %d: %w", song.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(songs), nil
}

// Get retrieves a song by API id
func (r *SongRepository) Get(ctx context.Context, id int) (*models.Song, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT payload FROM songs WHERE id = ?`, id))
}

// GetBySlug retrieves a song by slug
func (r *SongRepository) GetBySlug(ctx context.Context, slug string) (*models.Song, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `SELECT payload FROM songs WHERE slug = ?`, slug))
}

// Search matches term against normalized title and artist. Results are ordered by peak rank, then year.
func (r *SongRepository) Search(ctx context.Context, term string, limit int) ([]models.Song, error) {
	if limit <= 0 {
		limit = 25
	}

	key := shared.NormalizeSearchTerm(term)

	query := `
		SELECT payload FROM songs
		WHERE search_key LIKE ? ESCAPE '\'
		ORDER BY peak_rank ASC, year ASC, id ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, likePattern(key), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}
	return songs, nil
}

// ByYear lists cached songs released in year.
func (r *SongRepository) ByYear(ctx context.Context, year int) ([]models.Song, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM songs WHERE year = ? ORDER BY peak_rank ASC, id ASC`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}
	return songs, rows.Err()
}

// Count returns the number of cached songs.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

// LastFetched returns when the most recent song was cached, or the zero time.
func (r *SongRepository) LastFetched(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := r.db.QueryRowContext(ctx, `SELECT fetched_at FROM songs ORDER BY fetched_at DESC LIMIT 1`).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read fetch time: %w", err)
	}
	return ts, nil
}

func (r *SongRepository) scanOne(row *sql.Row) (*models.Song, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrSongNotFound
		}
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return decodeSong(payload)
}

func (r *SongRepository) scanRow(rows *sql.Rows) (*models.Song, error) {
	var payload string
	if err := rows.Scan(&payload); err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return decodeSong(payload)
}

func decodeSong(payload string) (*models.Song, error) {
	var song models.Song
	if err := json.Unmarshal([]byte(payload), &song); err != nil {
		return nil, fmt.Errorf("failed to decode cached song: %w", err)
	}
	return &song, nil
}
