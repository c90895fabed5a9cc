package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// SongsList lists one page of songs matching the filter flags.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	q := services.SongQuery{
		Page:        cmd.Int("page"),
		PageSize:    cmd.Int("page-size"),
		SortBy:      cmd.String("sort"),
		Order:       services.SortOrder(strings.ToLower(cmd.String("order"))),
		Search:      strings.TrimSpace(cmd.String("search")),
		Artist:      cmd.String("artist"),
		Year:        cmd.Int("year"),
		Decade:      cmd.Int("decade"),
		PeakRank:    strings.ToLower(cmd.String("peak")),
		UnratedOnly: cmd.Bool("unrated"),
		Tag:         cmd.String("tag"),
	}
	if cmd.Bool("number-one") {
		q.PeakRank = "1"
	}
	if err := q.Validate(); err != nil {
		return err
	}

	r.logger.Debug("listing songs", "query", q.Encode())
	page, err := r.api.ListSongs(ctx, q)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	list := formatter.SongList{Title: "PopHits Songs", Description: q.Encode(), Songs: page.Results}
	if done, err := r.exportSongs(cmd, list); done || err != nil {
		return err
	}

	if len(page.Results) == 0 {
		return r.writePlain("No songs match these filters.\n")
	}

	r.writePlain("Songs: page %d of %d (%s total)\n\n", q.Page, q.PageCount(page.Count), humanize.Comma(int64(page.Count)))
	r.printSongs(page.Results, (q.Page-1)*q.PageSize)
	if page.HasNext() {
		r.writePlain("\nNext page: --page %d\n", q.Page+1)
	}
	return nil
}

// SongsGet shows one song with its comments and, when signed in, the user's score.
func (r *Runner) SongsGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	slug := strings.TrimSpace(cmd.StringArg("slug"))
	if slug == "" {
		return fmt.Errorf("%w: song slug", shared.ErrMissingArgument)
	}

	sess := r.manager.Session()
	page := tasks.LoadSong(ctx, r.api, slug, tasks.Viewer{SignedIn: sess.IsAuthenticated(), UserID: sess.UserID()})
	if page.Song.Err != nil {
		return page.Song.Err
	}
	song := page.Song.Value

	var timeline *models.Timeline
	if cmd.Bool("timeline") {
		t, err := r.api.SongTimeline(ctx, slug)
		if err != nil {
			r.logger.Warn("failed to load timeline", "slug", slug, "error", err)
		}
		timeline = t
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Song     *models.Song      `json:"song"`
			MyRating int               `json:"my_rating,omitempty"`
			Status   *tasks.SongStatus `json:"status,omitempty"`
			Timeline *models.Timeline  `json:"timeline,omitempty"`
		}{song, page.MyRating.Value, page.Status.Value, timeline}, cmd.Bool("pretty"))
	}

	r.printSong(song)
	switch {
	case page.MyRating.Err != nil:
		r.writePlain("Your rating: unavailable (%v)\n", page.MyRating.Err)
	case page.MyRating.Value > 0:
		r.writePlain("Your rating: %d/10\n", page.MyRating.Value)
	}
	if st := page.Status.Value; st != nil {
		r.writePlain("%s\n", statusLine(*st))
	} else if page.Status.Err != nil {
		r.logger.Warn("failed to load song status", "slug", slug, "error", page.Status.Err)
	}

	if timeline != nil && len(timeline.Weeks) > 0 {
		r.writePlainln("Chart run")
		for _, w := range timeline.Weeks {
			r.writePlain("  %s  #%d\n", w.ChartDate.Format("2006-01-02"), w.Rank)
		}
	}

	if len(song.Comments) > 0 {
		r.writePlainln("Comments (%d)", len(song.Comments))
		for _, c := range song.Comments {
			r.writePlain("  %s, %s: %s\n", c.Username, formatter.Ago(c.CreatedAt.Time), c.Text)
		}
	}
	return nil
}

// SongsRandom shows a random song.
func (r *Runner) SongsRandom(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	song, err := r.api.RandomSong(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	r.printSong(song)
	return nil
}

// SongsTop lists the highest rated songs.
func (r *Runner) SongsTop(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	songs, err := r.api.TopRatedSongs(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.showSongs(cmd, formatter.SongList{Title: "Top Rated Songs", Songs: songs})
}

// SongsNumberOnes lists every song that reached #1.
func (r *Runner) SongsNumberOnes(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	songs, err := r.api.NumberOneSongs(ctx)
	if err != nil {
		return err
	}
	return r.showSongs(cmd, formatter.SongList{Title: "Number One Hits", Songs: songs})
}

// SongsHot100 shows the current chart, a past week, or the list of chart weeks.
func (r *Runner) SongsHot100(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	useJSON, pretty := cmd.Bool("json"), cmd.Bool("pretty")

	if cmd.Bool("dates") {
		dates, err := r.api.ChartDates(ctx)
		if err != nil {
			return err
		}
		if useJSON {
			return r.writeJSON(dates, pretty)
		}
		for _, d := range dates {
			r.writePlain("%s\n", d)
		}
		return nil
	}

	if date := strings.TrimSpace(cmd.String("date")); date != "" {
		chart, err := r.api.ChartByDate(ctx, date)
		if err != nil {
			return err
		}
		if useJSON {
			return r.writeJSON(chart, pretty)
		}
		r.writePlainHeader("Billboard Hot 100 for " + chart.ChartDate.Format("January 2, 2006"))
		for _, e := range chart.Entries {
			last := "NEW"
			if e.PreviousRank != nil {
				last = "last week #" + strconv.Itoa(*e.PreviousRank)
			}
			r.writePlain("%3d. %s - %s (%s)\n", e.Position, e.Artist, e.Title, last)
		}
		return nil
	}

	chart, err := r.api.CurrentHot100(ctx)
	if err != nil {
		return err
	}
	if useJSON {
		return r.writeJSON(chart, pretty)
	}
	return r.writeRaw(formatter.ChartToText(chart))
}

// SongsRate submits a score. A score of 0 clears the rating.
func (r *Runner) SongsRate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSignIn(); err != nil {
		return err
	}
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	score, err := intArg(cmd, "score")
	if err != nil {
		return err
	}
	if err := services.ValidateScore(score); err != nil {
		return err
	}

	if err := r.api.RateSong(ctx, id, score); err != nil {
		return err
	}
	if score == services.ClearScore {
		return r.writePlain("✓ Rating cleared for song %d\n", id)
	}
	return r.writePlain("✓ Rated song %d: %d/10\n", id, score)
}

// SongsUnrate clears the user's rating.
func (r *Runner) SongsUnrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSignIn(); err != nil {
		return err
	}
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.api.ClearRating(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Rating cleared for song %d\n", id)
}

// SongsComment adds a comment.
func (r *Runner) SongsComment(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSignIn(); err != nil {
		return err
	}
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	text := strings.TrimSpace(cmd.StringArg("text"))
	if text == "" {
		return fmt.Errorf("%w: comment text", shared.ErrMissingArgument)
	}

	c, err := r.api.AddComment(ctx, id, text)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Comment %d added to song %d\n", c.ID, id)
}

// SongsBookmark toggles a bookmark.
func (r *Runner) SongsBookmark(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSignIn(); err != nil {
		return err
	}
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}

	res, err := r.api.ToggleBookmark(ctx, id)
	if err != nil {
		return err
	}
	if res.IsBookmarked {
		return r.writePlain("✓ Bookmarked song %d\n", id)
	}
	return r.writePlain("✓ Removed bookmark from song %d\n", id)
}

// SongsBookmarks lists the user's bookmarked songs.
func (r *Runner) SongsBookmarks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSignIn(); err != nil {
		return err
	}
	if cmd.Bool("clear") {
		return r.clearBookmarks(ctx, cmd.Bool("yes"))
	}
	songs, err := r.api.BookmarkedSongs(ctx)
	if err != nil {
		return err
	}
	return r.showSongs(cmd, formatter.SongList{Title: "Bookmarked Songs", Songs: songs})
}

func (r *Runner) clearBookmarks(ctx context.Context, yes bool) error {
	if !yes {
		ok, err := r.prompter.Confirm("Remove every bookmark?")
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("Bookmarks kept.\n")
		}
	}
	if err := r.api.ClearBookmarks(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Bookmarks cleared\n")
}

// SongsArtist shows an artist's bio and chart stats, one page of their songs and a random pick.
func (r *Runner) SongsArtist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	slug := strings.TrimSpace(cmd.StringArg("slug"))
	if slug == "" {
		return fmt.Errorf("%w: artist slug", shared.ErrMissingArgument)
	}

	q := services.SongQuery{
		Page:     max(cmd.Int("page"), 1),
		PageSize: services.DefaultPageSize,
		SortBy:   cmd.String("sort"),
		Order:    services.SortOrder(strings.ToLower(cmd.String("order"))),
	}
	if err := q.Validate(); err != nil {
		return err
	}
	page := tasks.LoadArtist(ctx, r.api, slug, q)
	if page.Artist.Err != nil {
		return page.Artist.Err
	}
	artist := page.Artist.Value

	if cmd.Bool("json") {
		out := struct {
			Artist *models.ArtistDetail      `json:"artist"`
			Songs  *models.Page[models.Song] `json:"songs,omitempty"`
			Random *models.Song              `json:"random,omitempty"`
		}{artist, page.Songs.Value, page.Random.Value}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(artist.Name)
	if artist.Nationality != "" {
		r.writePlain("Nationality: %s\n", artist.Nationality)
	}
	if artist.ArtistType != "" {
		r.writePlain("Type:        %s\n", artist.ArtistType)
	}
	if st := artist.Stats; st != nil {
		r.writePlain("Hits:        %d, peak #%d, %d #1s, %s weeks charted\n",
			st.TotalHits, st.HighestPeak, st.NumberOneHits, humanize.Comma(int64(st.TotalWeeks)))
		if span := st.Span(); span != "" {
			r.writePlain("Charted:     %s\n", span)
		}
	}
	if len(artist.Tags) > 0 {
		tags := make([]string, len(artist.Tags))
		for i, t := range artist.Tags {
			tags[i] = t.Name
		}
		r.writePlain("Tags:        %s\n", strings.Join(tags, ", "))
	}
	for _, rel := range artist.Related() {
		r.writePlain("Related:     %s (%s, %s)\n", rel.Name, rel.Role, rel.Slug)
	}
	if artist.Bio != "" {
		r.writePlainln("%s", artist.Bio)
	}
	if song := page.Random.Value; song != nil {
		r.writePlain("\nRandom pick: %s (%d) %s\n", song.Title, song.Year, song.Slug)
	}

	switch {
	case page.Songs.Err != nil:
		r.logger.Warn("failed to load artist songs", "slug", slug, "error", page.Songs.Err)
	case len(page.Songs.Value.Results) > 0:
		r.writePlain("\nSongs: page %d of %d\n", q.Page, q.PageCount(page.Songs.Value.Count))
		r.printSongs(page.Songs.Value.Results, (q.Page-1)*q.PageSize)
	}
	return nil
}

// SongsArtists lists artists alphabetically, or the featured selection.
func (r *Runner) SongsArtists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}

	var artists []models.Artist
	count := 0
	if cmd.Bool("featured") {
		featured, err := r.api.FeaturedArtists(ctx)
		if err != nil {
			return err
		}
		artists, count = featured, len(featured)
	} else {
		page, err := r.api.Artists(ctx, max(cmd.Int("page"), 1), cmd.String("letter"))
		if err != nil {
			return err
		}
		artists, count = page.Results, page.Count
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, cmd.Bool("pretty"))
	}
	if len(artists) == 0 {
		return r.writePlain("No artists.\n")
	}
	r.writePlainHeader(fmt.Sprintf("Artists (%s)", humanize.Comma(int64(count))))
	for _, a := range artists {
		if a.TotalHits > 0 {
			r.writePlain("  %-32s %s (%d hits)\n", a.Name, a.Slug, a.TotalHits)
		} else {
			r.writePlain("  %-32s %s\n", a.Name, a.Slug)
		}
	}
	return nil
}

// showSongs prints, exports, or encodes list depending on the output flags.
func (r *Runner) showSongs(cmd *cli.Command, list formatter.SongList) error {
	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}
	if done, err := r.exportSongs(cmd, list); done || err != nil {
		return err
	}
	if len(list.Songs) == 0 {
		return r.writePlain("No songs.\n")
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d)", list.Title, len(list.Songs)))
	r.printSongs(list.Songs, 0)
	return nil
}

// exportSongs writes list to a file when --export is set and reports whether it did.
func (r *Runner) exportSongs(cmd *cli.Command, list formatter.SongList) (bool, error) {
	raw := cmd.String("export")
	if raw == "" {
		return false, nil
	}
	format, err := formatter.ParseFormat(raw)
	if err != nil {
		return true, err
	}

	path, err := formatter.WriteExport(format, list, cmd.String("output"))
	if err != nil {
		return true, err
	}
	r.logger.Info("exported songs", "path", path, "songs", len(list.Songs))
	return true, r.writePlain("✓ Exported %d songs to %s\n", len(list.Songs), path)
}

func (r *Runner) printSongs(songs []models.Song, offset int) {
	for i, s := range songs {
		star := ""
		if s.IsNumberOne() {
			star = " ★"
		}
		r.writePlain("%3d. %s - %s (%d)%s\n", offset+i+1, s.Artist, s.Title, s.Year, star)
		r.writePlain("     %s · id %d · %s · %s\n", s.Slug, s.ID,
			formatter.ChartRun(s.PeakRank, s.WeeksOnChart), formatter.Rating(s.AverageUserScore, s.TotalRatings))
	}
}

func (r *Runner) printSong(s *models.Song) {
	r.writePlainHeader(fmt.Sprintf("%s - %s (%d)", s.Artist, s.Title, s.Year))
	r.writePlain("ID:      %d\n", s.ID)
	r.writePlain("Slug:    %s\n", s.Slug)
	r.writePlain("Chart:   %s\n", formatter.ChartRun(s.PeakRank, s.WeeksOnChart))
	r.writePlain("Rating:  %s\n", formatter.Rating(s.AverageUserScore, s.TotalRatings))
	if s.SpotifyURL != "" {
		r.writePlain("Spotify: %s\n", s.SpotifyURL)
	}
	if s.YouTubeURL != "" {
		r.writePlain("YouTube: %s\n", s.YouTubeURL)
	}
	if s.Review != "" {
		r.writePlainln("%s", s.Review)
	}
}

// intArg parses a positive integer argument.
func intArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return n, nil
}

func statusLine(st tasks.SongStatus) string {
	bookmark := "not bookmarked"
	if st.Bookmarked {
		bookmark = "bookmarked"
	}
	comment := "no comment from you yet"
	if st.Commented {
		comment = "you commented"
	}
	return "You: " + bookmark + ", " + comment
}
