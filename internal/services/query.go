package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/shared"
)

// SortOrder is the direction of a song list sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Peak rank filter tokens understood by /api/songs/. Any other value must be an integer N meaning "peaked at N or better".
const (
	PeakNumberOne = "number_one"
	PeakTop10     = "top_10"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 1000
)

// SortFields are the song columns the API accepts in sort_by.
var SortFields = []string{
	"id", "title", "artist", "year", "peak_rank", "weeks_on_chart", "average_user_score", "total_ratings",
}

// SongQuery is the complete filter, sort, and pagination state for a song list request.
//
// It is a value type. The With* methods return modified copies so a single toggle never drops other fields.
type SongQuery struct {
	Page        int
	PageSize    int
	SortBy      string
	Order       SortOrder
	Search      string
	Artist      string
	Year        int
	Decade      int
	PeakRank    string
	UnratedOnly bool
	Tag         string
}

// NewSongQuery returns the first page with the default page size.
func NewSongQuery() SongQuery {
	return SongQuery{Page: 1, PageSize: DefaultPageSize}
}

// Values encodes every set field as query parameters.
func (q SongQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", string(q.Order))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Artist != "" {
		v.Set("artist", q.Artist)
	}
	if q.Year > 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.Decade > 0 {
		v.Set("decade", strconv.Itoa(q.Decade))
	}
	if q.PeakRank != "" {
		v.Set("peak_rank", q.PeakRank)
	}
	if q.UnratedOnly {
		v.Set("unrated_only", "true")
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	return v
}

// Encode returns the URL-encoded query string.
func (q SongQuery) Encode() string { return q.Values().Encode() }

// NumberOneOnly reports whether the list is restricted to songs that peaked at #1.
func (q SongQuery) NumberOneOnly() bool {
	return q.PeakRank == "1" || q.PeakRank == PeakNumberOne
}

// WithNumberOneOnly toggles the #1 hits filter and returns to the first page.
func (q SongQuery) WithNumberOneOnly(on bool) SongQuery {
	if on {
		q.PeakRank = "1"
	} else if q.NumberOneOnly() {
		q.PeakRank = ""
	}
	return q.firstPage()
}

// WithPeakRank sets the peak rank filter token.
func (q SongQuery) WithPeakRank(token string) SongQuery {
	q.PeakRank = token
	return q.firstPage()
}

// WithUnratedOnly toggles hiding songs the current user already rated.
func (q SongQuery) WithUnratedOnly(on bool) SongQuery {
	q.UnratedOnly = on
	return q.firstPage()
}

// WithDecade filters to the ten years starting at decade. Zero clears it.
func (q SongQuery) WithDecade(decade int) SongQuery {
	q.Decade = decade
	return q.firstPage()
}

// WithYear filters to a single year. Zero clears it.
func (q SongQuery) WithYear(year int) SongQuery {
	q.Year = year
	return q.firstPage()
}

// WithArtist filters to an artist slug.
func (q SongQuery) WithArtist(slug string) SongQuery {
	q.Artist = slug
	return q.firstPage()
}

// WithSearch sets the free-text title/artist search.
func (q SongQuery) WithSearch(term string) SongQuery {
	q.Search = strings.TrimSpace(term)
	return q.firstPage()
}

// WithTag filters to a tag slug.
func (q SongQuery) WithTag(tag string) SongQuery {
	q.Tag = tag
	return q.firstPage()
}

// WithSort sets the sort column and direction. Sorting keeps the current filters and resets the page.
func (q SongQuery) WithSort(field string, order SortOrder) SongQuery {
	q.SortBy = field
	q.Order = order
	return q.firstPage()
}

// WithPage moves to page n, keeping every filter.
func (q SongQuery) WithPage(n int) SongQuery {
	if n < 1 {
		n = 1
	}
	q.Page = n
	return q
}

// WithPageSize changes the page size and returns to the first page.
func (q SongQuery) WithPageSize(n int) SongQuery {
	q.PageSize = n
	return q.firstPage()
}

// ClearFilters keeps pagination size and sorting but drops every filter.
func (q SongQuery) ClearFilters() SongQuery {
	return SongQuery{Page: 1, PageSize: q.PageSize, SortBy: q.SortBy, Order: q.Order}
}

// PageCount returns the number of pages needed for count results.
func (q SongQuery) PageCount(count int) int {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

func (q SongQuery) firstPage() SongQuery {
	if q.Page != 0 {
		q.Page = 1
	}
	return q
}

// Validate rejects values the API would silently ignore or misinterpret.
func (q SongQuery) Validate() error {
	if q.Page < 0 {
		return fmt.Errorf("%w: page must be positive, got %d", shared.ErrInvalidArgument, q.Page)
	}
	if q.PageSize < 0 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d, got %d", shared.ErrInvalidArgument, MaxPageSize, q.PageSize)
	}
	if q.Order != "" && q.Order != Ascending && q.Order != Descending {
		return fmt.Errorf("%w: order must be asc or desc, got %q", shared.ErrInvalidArgument, q.Order)
	}
	if q.SortBy != "" && !validSortField(q.SortBy) {
		return fmt.Errorf("%w: cannot sort by %q", shared.ErrInvalidArgument, q.SortBy)
	}
	if q.Decade != 0 && q.Decade%10 != 0 {
		return fmt.Errorf("%w: decade must be a multiple of 10, got %d", shared.ErrInvalidArgument, q.Decade)
	}
	if q.Year < 0 {
		return fmt.Errorf("%w: year must be positive, got %d", shared.ErrInvalidArgument, q.Year)
	}
	if err := validatePeakRank(q.PeakRank); err != nil {
		return err
	}
	return nil
}

// ParseSongQuery reads a query from URL parameters. It is the inverse of [SongQuery.Values].
func ParseSongQuery(v url.Values) (SongQuery, error) {
	q := SongQuery{
		SortBy:   v.Get("sort_by"),
		Order:    SortOrder(strings.ToLower(v.Get("order"))),
		Search:   strings.TrimSpace(v.Get("search")),
		Artist:   v.Get("artist"),
		PeakRank: strings.ToLower(v.Get("peak_rank")),
		Tag:      v.Get("tag"),
	}

	var err error
	if q.Page, err = intParam(v, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(v, "page_size"); err != nil {
		return q, err
	}
	if q.Year, err = intParam(v, "year"); err != nil {
		return q, err
	}
	if q.Decade, err = intParam(v, "decade"); err != nil {
		return q, err
	}
	if raw := v.Get("unrated_only"); raw != "" {
		q.UnratedOnly, err = strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("%w: unrated_only: %v", shared.ErrInvalidArgument, err)
		}
	}
	return q, q.Validate()
}

func intParam(v url.Values, key string) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shared.ErrInvalidArgument, key, raw)
	}
	return n, nil
}

func validSortField(field string) bool {
	for _, f := range SortFields {
		if f == field {
			return true
		}
	}
	return false
}

func validatePeakRank(token string) error {
	switch token {
	case "", PeakNumberOne, PeakTop10:
		return nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 || n > 100 {
		return fmt.Errorf("%w: peak_rank must be number_one, top_10, or 1-100, got %q", shared.ErrInvalidArgument, token)
	}
	return nil
}
