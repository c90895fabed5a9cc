// package models defines the data model for the PopHits API
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether the server advertised another page.
func (p Page[T]) HasNext() bool { return p.Next != nil && *p.Next != "" }

// HasPrevious reports whether the server advertised a previous page.
func (p Page[T]) HasPrevious() bool { return p.Previous != nil && *p.Previous != "" }

// Song is a Hot 100 entry as served by /api/songs/.
type Song struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Artist           string    `json:"artist"`
	ArtistSlug       string    `json:"artist_slug"`
	Slug             string    `json:"slug"`
	Year             int       `json:"year"`
	PeakRank         int       `json:"peak_rank"`
	WeeksOnChart     int       `json:"weeks_on_chart"`
	AverageUserScore float64   `json:"average_user_score"`
	TotalRatings     int       `json:"total_ratings"`
	SpotifyURL       string    `json:"spotify_url"`
	YouTubeURL       string    `json:"youtube_url"`
	ImageUpload      string    `json:"image_upload"`
	Review           string    `json:"review"`
	Description      string    `json:"description"`
	IsBookmarked     bool      `json:"is_bookmarked"`
	Comments         []Comment `json:"comments"`
}

// IsNumberOne reports whether the song topped the chart.
func (s Song) IsNumberOne() bool { return s.PeakRank == 1 }

// Decade returns the first year of the song's decade.
func (s Song) Decade() int { return s.Year - s.Year%10 }

// Comment is a user comment attached to a song.
type Comment struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	Song       int    `json:"song"`
	Text       string `json:"text"`
	CreatedAt  Date   `json:"created_at"`
	Username   string `json:"username"`
	UserRating *int   `json:"user_rating"`
}

// Artist is a row from /api/artists/ or /api/songs/featured-artists/.
type Artist struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Image       string `json:"image"`
	TotalHits   int    `json:"total_hits"`
	Nationality string `json:"nationality"`
	ArtistType  string `json:"artist_type"`
}

// ArtistDetail is the /api/artists/{slug}/ payload.
type ArtistDetail struct {
	Artist
	Bio                  string          `json:"bio"`
	BirthDate            Date            `json:"birth_date"`
	DeathDate            Date            `json:"death_date"`
	ImageCredit          string          `json:"image_credit"`
	IsActive             bool            `json:"is_active"`
	Tags                 []ArtistTag     `json:"tags"`
	Members              []ArtistMember  `json:"members"`
	MemberOf             []ArtistMember  `json:"member_of"`
	Collaborations       []ArtistRef     `json:"collaborations"`
	ParticipatingArtists []ArtistRef     `json:"participating_artists"`
	Stats                *BillboardStats `json:"billboard_stats"`
}

// IsGroup reports whether the artist is a band rather than a solo act.
func (a ArtistDetail) IsGroup() bool { return a.ArtistType == "group" || a.ArtistType == "duo" }

// Related lists every linked artist: members, bands, collaborations and collaborators.
func (a ArtistDetail) Related() []ArtistRef {
	var refs []ArtistRef
	for _, m := range a.Members {
		refs = append(refs, ArtistRef{Name: m.Name, Slug: m.Slug, Role: "member"})
	}
	for _, m := range a.MemberOf {
		refs = append(refs, ArtistRef{Name: m.Name, Slug: m.Slug, Role: "band"})
	}
	for _, c := range a.Collaborations {
		c.Role = "collaboration"
		refs = append(refs, c)
	}
	for _, c := range a.ParticipatingArtists {
		c.Role = "collaborator"
		refs = append(refs, c)
	}
	return refs
}

// ArtistTag is a genre, mood or style label.
type ArtistTag struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ArtistMember links a group to a person, in either direction.
type ArtistMember struct {
	Name string `json:"artist_name"`
	Slug string `json:"artist_slug"`
}

// ArtistRef is a linked artist. Role is filled in by [ArtistDetail.Related].
type ArtistRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Role string `json:"-"`
}

// BillboardStats summarizes an artist's chart career.
type BillboardStats struct {
	TotalHits     int `json:"total_hits"`
	HighestPeak   int `json:"highest_peak"`
	NumberOneHits int `json:"number_one_hits"`
	TotalWeeks    int `json:"total_weeks"`
	FirstHitYear  int `json:"first_hit_year"`
	LastHitYear   int `json:"last_hit_year"`
}

// Span renders the first and last charting years, or one year when they match.
func (b BillboardStats) Span() string {
	switch {
	case b.FirstHitYear == 0:
		return ""
	case b.FirstHitYear == b.LastHitYear || b.LastHitYear == 0:
		return fmt.Sprintf("%d", b.FirstHitYear)
	}
	return fmt.Sprintf("%d-%d", b.FirstHitYear, b.LastHitYear)
}

// Timeline is the weekly chart history of a single song.
type Timeline struct {
	Song struct {
		ID     int    `json:"id"`
		Title  string `json:"title"`
		Artist string `json:"artist"`
		Slug   string `json:"slug"`
	} `json:"song"`
	Weeks []TimelineWeek `json:"timeline"`
}

// TimelineWeek is one chart week in a [Timeline].
type TimelineWeek struct {
	ChartDate    Date `json:"chart_date"`
	Rank         int  `json:"rank"`
	PeakRank     int  `json:"peak_rank"`
	WeeksOnChart int  `json:"weeks_on_chart"`
}

// QuizQuestion is one generated quiz item.
type QuizQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BlogPost is an editorial post. Content and RelatedSongs are only present on the detail endpoint.
type BlogPost struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	MetaDescription string `json:"meta_description"`
	FeaturedImage   string `json:"featured_image"`
	PublishedDate   Date   `json:"published_date"`
	UpdatedDate     Date   `json:"updated_date"`
	Content         string `json:"content"`
	RelatedSongs    []Song `json:"related_songs"`
}

// BookmarkResult is returned when toggling a bookmark.
type BookmarkResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	IsBookmarked bool   `json:"is_bookmarked"`
}

// BookmarkStatus reports whether the current user bookmarked a song.
type BookmarkStatus struct {
	IsBookmarked bool `json:"is_bookmarked"`
}

// CommentStatus reports whether the current user commented on a song.
type CommentStatus struct {
	HasCommented bool `json:"has_commented"`
}

// Date decodes "2006-01-02" dates and RFC 3339 timestamps. Null and empty strings decode to the zero value.
type Date struct {
	time.Time
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"}

// NewDate wraps t.
func NewDate(t time.Time) Date { return Date{Time: t} }

// ParseDate parses any layout [Date] accepts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// String renders a date-only value when there is no time component.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
		return d.Format("2006-01-02")
	}
	return d.Format(time.RFC3339)
}
