// package services defines typed clients for the HTTP APIs the app consumes
//
// PopHits (songs, charts, users, blog), Spotify (playlist export)
package services

import (
	"context"

	"github.com/desertthunder/pophits/internal/models"
)

// Catalog is the read side of the song and chart API.
type Catalog interface {
	ListSongs(ctx context.Context, q SongQuery) (*models.Page[models.Song], error)
	SongBySlug(ctx context.Context, slug string) (*models.Song, error)
	SongTimeline(ctx context.Context, slug string) (*models.Timeline, error)
	RandomSong(ctx context.Context) (*models.Song, error)
	TopRatedSongs(ctx context.Context, limit int) ([]models.Song, error)
	RandomSongsByDecade(ctx context.Context) ([]models.Song, error)
	NumberOneSongs(ctx context.Context) ([]models.Song, error)
	CurrentHot100(ctx context.Context) (*models.ChartSnapshot, error)
	ChartDates(ctx context.Context) ([]string, error)
	ChartByDate(ctx context.Context, date string) (*models.HistoricChart, error)
	Artists(ctx context.Context, page int, letter string) (*models.Page[models.Artist], error)
	ArtistBySlug(ctx context.Context, slug string) (*models.ArtistDetail, error)
	FeaturedArtists(ctx context.Context) ([]models.Artist, error)
	RandomSongsByArtist(ctx context.Context, artistSlug string) (*models.Song, error)
	SongsWithImages(ctx context.Context) ([]models.Song, error)
}

// Interactions are the per-user write operations on songs. All require a token.
type Interactions interface {
	RateSong(ctx context.Context, songID, score int) error
	ClearRating(ctx context.Context, songID int) error
	AddComment(ctx context.Context, songID int, text string) (*models.Comment, error)
	EditComment(ctx context.Context, songID, commentID int, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID int) error
	ToggleBookmark(ctx context.Context, songID int) (*models.BookmarkResult, error)
	BookmarkStatus(ctx context.Context, songID int) (bool, error)
	BookmarkedSongs(ctx context.Context) ([]models.Song, error)
	ClearBookmarks(ctx context.Context) error
	CommentStatus(ctx context.Context, songID int) (bool, error)
	UserRating(ctx context.Context, songID, userID int) (int, error)
}

// Accounts covers registration, login and the profile.
type Accounts interface {
	Register(ctx context.Context, creds models.Credentials) (*models.AuthToken, error)
	Login(ctx context.Context, email, password string) (*models.AuthToken, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error
}

// Generators produce random playlists and quizzes.
type Generators interface {
	GeneratePlaylist(ctx context.Context, p GeneratorParams) ([]models.Song, error)
	GenerateQuiz(ctx context.Context, p GeneratorParams) ([]models.QuizQuestion, error)
}

// Blog reads published posts.
type Blog interface {
	BlogPosts(ctx context.Context, q BlogQuery) (*models.Page[models.BlogPost], error)
	BlogPost(ctx context.Context, slug string) (*models.BlogPost, error)
	LatestBlogPost(ctx context.Context) (*models.BlogPost, error)
}

// Client is the whole PopHits API surface.
type Client interface {
	Catalog
	Interactions
	Accounts
	Generators
	Blog
}

var _ Client = (*PopHitsService)(nil)
