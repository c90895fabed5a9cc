package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/tasks"
)

func songsEmpty(s []models.Song) bool { return len(s) == 0 }

type homeView struct {
	Random   ViewState[*models.Song]
	TopRated ViewState[[]models.Song]
	Hot100   ViewState[*models.ChartSnapshot]
	Decades  ViewState[[]models.Song]
	Featured ViewState[[]models.Artist]
	Gallery  ViewState[[]models.Song]
	Latest   ViewState[*models.BlogPost]
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	home := tasks.LoadHome(r.Context(), a.api, tasks.DefaultTopRated)

	view := homeView{
		Random:   FromSlot(home.Random, nil),
		TopRated: FromSlot(home.TopRated, songsEmpty),
		Hot100: FromSlot(home.Hot100, func(c *models.ChartSnapshot) bool {
			return c == nil || len(c.Songs) == 0
		}),
		Decades:  FromSlot(home.Decades, songsEmpty),
		Featured: FromSlot(home.Featured, func(a []models.Artist) bool { return len(a) == 0 }),
		Gallery:  FromSlot(home.Gallery, songsEmpty),
		Latest:   FromSlot(home.Latest, nil),
	}
	a.render(w, r, http.StatusOK, "home.html", "PopHits", view)
}

// sortLink is a column header that sorts by Field, flipping direction when it is already the sort.
type sortLink struct {
	Label  string
	Field  string
	URL    string
	Active bool
}

type songsView struct {
	Query      services.SongQuery
	State      ViewState[*models.Page[models.Song]]
	Page       int
	Pages      int
	PrevURL    string
	NextURL    string
	ToggleURL  string
	NumberOne  bool
	ClearURL   string
	SortLinks  []sortLink
	PeakTokens []string
}

var sortLabels = map[string]string{
	"title":              "Title",
	"artist":             "Artist",
	"year":               "Year",
	"peak_rank":          "Peak",
	"weeks_on_chart":     "Weeks",
	"average_user_score": "Rating",
	"total_ratings":      "Ratings",
}

func (a *App) songs(w http.ResponseWriter, r *http.Request) {
	q, err := services.ParseSongQuery(r.URL.Query())
	if err != nil {
		view := songsView{Query: q, State: Resolve[*models.Page[models.Song]](nil, err, nil)}
		a.render(w, r, view.State.HTTPStatus(), "songs.html", "Songs", view)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = services.DefaultPageSize
	}

	page, err := a.api.ListSongs(r.Context(), q)
	view := songsView{
		Query: q,
		State: Resolve(page, err, func(p *models.Page[models.Song]) bool {
			return p == nil || len(p.Results) == 0
		}),
		Page:       q.Page,
		NumberOne:  q.NumberOneOnly(),
		ToggleURL:  songsURL(q.WithNumberOneOnly(!q.NumberOneOnly())),
		ClearURL:   songsURL(q.ClearFilters()),
		PeakTokens: []string{services.PeakNumberOne, services.PeakTop10},
	}

	for _, field := range services.SortFields {
		label, ok := sortLabels[field]
		if !ok {
			continue
		}
		order := services.Ascending
		active := q.SortBy == field
		if active && q.Order != services.Descending {
			order = services.Descending
		}
		view.SortLinks = append(view.SortLinks, sortLink{
			Label: label, Field: field, URL: songsURL(q.WithSort(field, order)), Active: active,
		})
	}

	if view.State.IsReady() {
		view.Pages = q.PageCount(page.Count)
		if q.Page > 1 {
			view.PrevURL = songsURL(q.WithPage(q.Page - 1))
		}
		if page.HasNext() || q.Page < view.Pages {
			view.NextURL = songsURL(q.WithPage(q.Page + 1))
		}
	}
	a.render(w, r, view.State.HTTPStatus(), "songs.html", "Songs", view)
}

func songsURL(q services.SongQuery) string { return "/songs?" + q.Encode() }

type songView struct {
	State     ViewState[*models.Song]
	MyRating  int
	RatingErr string
	SignedIn  bool
	UserID    int
	Username  string
	Status    *tasks.SongStatus
}

// Owns reports whether c was written by the signed-in user.
// The account id wins when both sides carry one; sessions saved without an id fall back to the username.
func (v songView) Owns(c models.Comment) bool {
	if !v.SignedIn {
		return false
	}
	if v.UserID != 0 && c.UserID != 0 {
		return v.UserID == c.UserID
	}
	return v.Username != "" && strings.EqualFold(c.Username, v.Username)
}

func (a *App) song(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	sess := a.auth.Session()
	signedIn := sess.IsAuthenticated()

	page := tasks.LoadSong(r.Context(), a.api, slug, tasks.Viewer{SignedIn: signedIn, UserID: sess.UserID()})
	view := songView{
		State:    FromSlot(page.Song, nil),
		MyRating: page.MyRating.Value,
		SignedIn: signedIn,
		UserID:   sess.UserID(),
		Username: sess.Username(),
		Status:   page.Status.Value,
	}
	if page.Status.Err != nil {
		a.logger.Warn("failed to load song status", "slug", slug, "error", page.Status.Err)
	}
	if page.MyRating.Err != nil {
		view.RatingErr = errorMessage(page.MyRating.Err)
	}

	title := "Song"
	if view.State.IsReady() {
		title = view.State.Data.Artist + " - " + view.State.Data.Title
	}
	a.render(w, r, view.State.HTTPStatus(), "song.html", title, view)
}

type chartView struct {
	Date     string
	Current  ViewState[*models.ChartSnapshot]
	Historic ViewState[*models.HistoricChart]
}

func (a *App) hot100(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	view := chartView{Date: date}
	status := http.StatusOK

	if date == "" {
		chart, err := a.api.CurrentHot100(r.Context())
		view.Current = Resolve(chart, err, func(c *models.ChartSnapshot) bool { return c == nil || len(c.Songs) == 0 })
		status = view.Current.HTTPStatus()
	} else {
		chart, err := a.api.ChartByDate(r.Context(), date)
		view.Historic = Resolve(chart, err, func(c *models.HistoricChart) bool { return c == nil || len(c.Entries) == 0 })
		status = view.Historic.HTTPStatus()
	}
	a.render(w, r, status, "hot100.html", "Billboard Hot 100", view)
}

func (a *App) numberOnes(w http.ResponseWriter, r *http.Request) {
	songs, err := a.api.NumberOneSongs(r.Context())
	view := Resolve(songs, err, songsEmpty)
	a.render(w, r, view.HTTPStatus(), "number_ones.html", "Number Ones", view)
}

// generatorView is shared by the playlist and quiz pages.
type generatorView struct {
	Params    services.GeneratorParams
	Decades   []int
	HitSizes  []int
	Submitted bool
	Songs     ViewState[[]models.Song]
	Quiz      ViewState[[]models.QuizQuestion]
}

func newGeneratorView(p services.GeneratorParams) generatorView {
	v := generatorView{Params: p.Normalize()}
	for d := services.MinDecade; d <= 2020; d += 10 {
		v.Decades = append(v.Decades, d)
	}
	for i := 1; i <= 10; i++ {
		v.HitSizes = append(v.HitSizes, i)
	}
	return v
}

func (a *App) playlistGenerator(w http.ResponseWriter, r *http.Request) {
	p, err := services.ParseGeneratorParams(r.URL.Query())
	view := newGeneratorView(p)
	status := http.StatusOK

	switch {
	case err != nil:
		view.Submitted = true
		view.Songs = Resolve[[]models.Song](nil, err, nil)
		status = view.Songs.HTTPStatus()
	case len(p.Decades) > 0:
		view.Submitted = true
		songs, err := a.api.GeneratePlaylist(r.Context(), view.Params)
		view.Songs = Resolve(songs, err, songsEmpty)
		status = view.Songs.HTTPStatus()
	}
	a.render(w, r, status, "playlist.html", "Playlist Generator", view)
}

func (a *App) quizGenerator(w http.ResponseWriter, r *http.Request) {
	p, err := services.ParseGeneratorParams(r.URL.Query())
	view := newGeneratorView(p)
	status := http.StatusOK

	switch {
	case err != nil:
		view.Submitted = true
		view.Quiz = Resolve[[]models.QuizQuestion](nil, err, nil)
		status = view.Quiz.HTTPStatus()
	case len(p.Decades) > 0:
		view.Submitted = true
		questions, err := a.api.GenerateQuiz(r.Context(), view.Params)
		view.Quiz = Resolve(questions, err, func(q []models.QuizQuestion) bool { return len(q) == 0 })
		status = view.Quiz.HTTPStatus()
	}
	a.render(w, r, status, "quiz.html", "Quiz Generator", view)
}

type blogView struct {
	State   ViewState[*models.Page[models.BlogPost]]
	Page    int
	PrevURL string
	NextURL string
}

func (a *App) blog(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		n = 1
	}

	posts, err := a.api.BlogPosts(r.Context(), services.BlogQuery{Page: n})
	view := blogView{
		State: Resolve(posts, err, func(p *models.Page[models.BlogPost]) bool {
			return p == nil || len(p.Results) == 0
		}),
		Page: n,
	}
	if view.State.IsReady() {
		if posts.HasPrevious() && n > 1 {
			view.PrevURL = "/blog?page=" + strconv.Itoa(n-1)
		}
		if posts.HasNext() {
			view.NextURL = "/blog?page=" + strconv.Itoa(n+1)
		}
	}
	a.render(w, r, view.State.HTTPStatus(), "blog.html", "Blog", view)
}

func (a *App) blogPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.api.BlogPost(r.Context(), r.PathValue("slug"))
	view := Resolve(post, err, nil)

	title := "Blog"
	if view.IsReady() {
		title = post.Title
	}
	a.render(w, r, view.HTTPStatus(), "blog_post.html", title, view)
}

// artistLetters are the initials offered on the artist index.
var artistLetters = strings.Split("ABCDEFGHIJKLMNOPQRSTUVWXYZ", "")

type artistsView struct {
	State   ViewState[*models.Page[models.Artist]]
	Letter  string
	Letters []string
	Page    int
	PrevURL string
	NextURL string
}

func artistsURL(page int, letter string) string {
	v := url.Values{}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if letter != "" {
		v.Set("letter", letter)
	}
	if len(v) == 0 {
		return "/artists"
	}
	return "/artists?" + v.Encode()
}

func (a *App) artists(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		n = 1
	}
	letter := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("letter")))
	if len(letter) != 1 {
		letter = ""
	}

	artists, err := a.api.Artists(r.Context(), n, letter)
	view := artistsView{
		State: Resolve(artists, err, func(p *models.Page[models.Artist]) bool {
			return p == nil || len(p.Results) == 0
		}),
		Letter:  letter,
		Letters: artistLetters,
		Page:    n,
	}
	if view.State.IsReady() {
		if n > 1 {
			view.PrevURL = artistsURL(n-1, letter)
		}
		if artists.HasNext() {
			view.NextURL = artistsURL(n+1, letter)
		}
	}
	a.render(w, r, view.State.HTTPStatus(), "artists.html", "Artists", view)
}

type artistView struct {
	Slug    string
	Artist  ViewState[*models.ArtistDetail]
	Songs   ViewState[*models.Page[models.Song]]
	Random  ViewState[*models.Song]
	Page    int
	Pages   int
	PrevURL string
	NextURL string
}

func (a *App) artist(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	q, err := services.ParseSongQuery(r.URL.Query())
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = services.DefaultPageSize
	}

	page := tasks.LoadArtist(r.Context(), a.api, slug, q)
	view := artistView{
		Slug:   slug,
		Artist: FromSlot(page.Artist, nil),
		Songs: FromSlot(page.Songs, func(p *models.Page[models.Song]) bool {
			return p == nil || len(p.Results) == 0
		}),
		Random: FromSlot(page.Random, nil),
		Page:   q.Page,
	}

	if view.Songs.IsReady() {
		base := "/artists/" + url.PathEscape(slug) + "?"
		view.Pages = q.PageCount(page.Songs.Value.Count)
		if q.Page > 1 {
			view.PrevURL = base + q.WithPage(q.Page-1).Encode()
		}
		if page.Songs.Value.HasNext() || q.Page < view.Pages {
			view.NextURL = base + q.WithPage(q.Page+1).Encode()
		}
	}

	title := "Artist"
	status := view.Artist.HTTPStatus()
	if view.Artist.IsReady() {
		title = view.Artist.Data.Name
	} else if view.Songs.IsReady() {
		status = http.StatusOK
	}
	a.render(w, r, status, "artist.html", title, view)
}

type profileView struct {
	Profile   ViewState[*models.Profile]
	Bookmarks ViewState[[]models.Song]
}

func (a *App) profile(w http.ResponseWriter, r *http.Request) {
	page := tasks.LoadProfile(r.Context(), a.api)
	view := profileView{
		Profile:   FromSlot(page.Profile, nil),
		Bookmarks: FromSlot(page.Bookmarks, songsEmpty),
	}
	a.render(w, r, view.Profile.HTTPStatus(), "profile.html", "Profile", view)
}
