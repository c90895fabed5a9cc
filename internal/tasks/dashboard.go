package tasks

import (
	"context"
	"math/rand/v2"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"golang.org/x/sync/errgroup"
)

// DefaultTopRated is how many top rated songs the home page shows.
const DefaultTopRated = 5

// GallerySize caps the pictured songs shown on the home page.
const GallerySize = 6

// Slot holds one independently loaded section of a page.
type Slot[T any] struct {
	Value T
	Err   error
}

// OK reports whether the section loaded.
func (s Slot[T]) OK() bool { return s.Err == nil }

// Home is the landing page data.
type Home struct {
	Random   Slot[*models.Song]
	TopRated Slot[[]models.Song]
	Hot100   Slot[*models.ChartSnapshot]
	Decades  Slot[[]models.Song]
	Featured Slot[[]models.Artist]
	Gallery  Slot[[]models.Song]
	Latest   Slot[*models.BlogPost]
}

// ProfilePage is the signed-in user's page data.
type ProfilePage struct {
	Profile   Slot[*models.Profile]
	Bookmarks Slot[[]models.Song]
}

// LoadHome fetches every home page section concurrently.
//
// Each fetch writes its own slot. A failure in one never cancels the others, so the page can render whatever loaded.
func LoadHome(ctx context.Context, src HomeSource, topN int) *Home {
	if topN <= 0 {
		topN = DefaultTopRated
	}

	home := &Home{}
	var g errgroup.Group

	g.Go(func() error {
		home.Random.Value, home.Random.Err = src.RandomSong(ctx)
		return nil
	})
	g.Go(func() error {
		home.TopRated.Value, home.TopRated.Err = src.TopRatedSongs(ctx, topN)
		return nil
	})
	g.Go(func() error {
		home.Hot100.Value, home.Hot100.Err = src.CurrentHot100(ctx)
		return nil
	})
	g.Go(func() error {
		home.Decades.Value, home.Decades.Err = src.RandomSongsByDecade(ctx)
		return nil
	})
	g.Go(func() error {
		home.Featured.Value, home.Featured.Err = src.FeaturedArtists(ctx)
		return nil
	})
	g.Go(func() error {
		songs, err := src.SongsWithImages(ctx)
		home.Gallery.Value, home.Gallery.Err = pick(songs, GallerySize), err
		return nil
	})
	g.Go(func() error {
		home.Latest.Value, home.Latest.Err = src.LatestBlogPost(ctx)
		return nil
	})

	_ = g.Wait()
	return home
}

// pick returns up to n songs in random order.
func pick(songs []models.Song, n int) []models.Song {
	if len(songs) <= n {
		return songs
	}
	out := make([]models.Song, len(songs))
	copy(out, songs)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n]
}

// LoadProfile fetches the profile and bookmarks concurrently.
func LoadProfile(ctx context.Context, src ProfileSource) *ProfilePage {
	page := &ProfilePage{}
	var g errgroup.Group

	g.Go(func() error {
		page.Profile.Value, page.Profile.Err = src.Profile(ctx)
		return nil
	})
	g.Go(func() error {
		page.Bookmarks.Value, page.Bookmarks.Err = src.BookmarkedSongs(ctx)
		return nil
	})

	_ = g.Wait()
	return page
}

// SongSource serves a song and the signed-in user's rating history.
type SongSource interface {
	SongBySlug(ctx context.Context, slug string) (*models.Song, error)
	Profile(ctx context.Context) (*models.Profile, error)
}

// StatusSource answers per-song questions about the signed-in user.
// A [SongSource] that also implements it gets [SongPage.Status] filled in.
type StatusSource interface {
	UserRating(ctx context.Context, songID, userID int) (int, error)
	BookmarkStatus(ctx context.Context, songID int) (bool, error)
	CommentStatus(ctx context.Context, songID int) (bool, error)
}

// Viewer is who a page is loaded for. The zero value is signed out.
type Viewer struct {
	SignedIn bool
	UserID   int
}

// SongStatus is whether the viewer bookmarked and commented on a song.
type SongStatus struct {
	Bookmarked bool `json:"bookmarked"`
	Commented  bool `json:"commented"`
}

// SongPage is a song detail page with the current user's score, 0 if unrated.
// Status stays nil when signed out or when the source cannot answer it.
type SongPage struct {
	Song     Slot[*models.Song]
	MyRating Slot[int]
	Status   Slot[*SongStatus]
}

// LoadSong fetches the song and, when signed in, the viewer's score and status for it.
//
// The score comes from the rating endpoint when the viewer's id is known and the source supports it. Otherwise it
// is looked up in the profile's rating history, fetched alongside the song. The status needs the song id, so it is
// fetched once the song arrives.
func LoadSong(ctx context.Context, src SongSource, slug string, viewer Viewer) *SongPage {
	page := &SongPage{}
	status, detailed := src.(StatusSource)
	byID := detailed && viewer.UserID > 0

	var g errgroup.Group
	g.Go(func() error {
		page.Song.Value, page.Song.Err = src.SongBySlug(ctx, slug)
		return nil
	})
	if viewer.SignedIn && !byID {
		g.Go(func() error {
			page.MyRating.Value, page.MyRating.Err = ratingFromHistory(ctx, src, slug)
			return nil
		})
	}
	_ = g.Wait()

	if !viewer.SignedIn || !detailed || page.Song.Err != nil || page.Song.Value == nil {
		return page
	}
	songID := page.Song.Value.ID

	var st SongStatus
	var sg, rg errgroup.Group
	sg.Go(func() (err error) {
		st.Bookmarked, err = status.BookmarkStatus(ctx, songID)
		return err
	})
	sg.Go(func() (err error) {
		st.Commented, err = status.CommentStatus(ctx, songID)
		return err
	})
	if byID {
		rg.Go(func() error {
			page.MyRating.Value, page.MyRating.Err = status.UserRating(ctx, songID, viewer.UserID)
			return nil
		})
	}

	if err := sg.Wait(); err != nil {
		page.Status.Err = err
	} else {
		page.Status.Value = &st
	}
	_ = rg.Wait()
	return page
}

func ratingFromHistory(ctx context.Context, src SongSource, slug string) (int, error) {
	profile, err := src.Profile(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range profile.RatingHistory {
		if r.SongSlug == slug {
			return r.Score, nil
		}
	}
	return 0, nil
}

// ArtistPage is an artist's bio, their songs and one random pick.
type ArtistPage struct {
	Artist Slot[*models.ArtistDetail]
	Songs  Slot[*models.Page[models.Song]]
	Random Slot[*models.Song]
}

// LoadArtist fetches the artist, one page of their songs and a random song of theirs concurrently.
// q is narrowed to the artist before listing.
func LoadArtist(ctx context.Context, src ArtistSource, slug string, q services.SongQuery) *ArtistPage {
	page := &ArtistPage{}
	q = q.WithArtist(slug)
	var g errgroup.Group

	g.Go(func() error {
		page.Artist.Value, page.Artist.Err = src.ArtistBySlug(ctx, slug)
		return nil
	})
	g.Go(func() error {
		page.Songs.Value, page.Songs.Err = src.ListSongs(ctx, q)
		return nil
	})
	g.Go(func() error {
		page.Random.Value, page.Random.Err = src.RandomSongsByArtist(ctx, slug)
		return nil
	})

	_ = g.Wait()
	return page
}
