package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/dustin/go-humanize"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	SongDetailView
)

// API is the part of the PopHits client the browser uses. [services.PopHitsService] implements it.
type API interface {
	ListSongs(ctx context.Context, q services.SongQuery) (*models.Page[models.Song], error)
	tasks.SongSource
	RateSong(ctx context.Context, songID, score int) error
	ClearRating(ctx context.Context, songID int) error
}

// Auth reports whether ratings can be sent. [session.Session] implements it.
type Auth interface {
	IsAuthenticated() bool
}

var _ API = (*services.PopHitsService)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	api      API
	auth     Auth
	width    int
	height   int
	query    services.SongQuery
	page     *models.Page[models.Song]
	songList list.Model
	song     *models.Song
	myRating int
	comments list.Model
	loading  bool
	spinner  spinner.Model
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a browser starting at q.
func NewModel(ctx context.Context, api API, auth Auth, q services.SongQuery) *Model {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = services.DefaultPageSize
	}

	songs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songs.Title = "Songs"
	songs.SetShowHelp(false)

	comments := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	comments.Title = "Comments"
	comments.SetShowHelp(false)
	comments.SetFilteringEnabled(false)

	return &Model{
		ctx:      ctx,
		view:     SongListView,
		api:      api,
		auth:     auth,
		query:    q,
		songList: songs,
		comments: comments,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init fetches the first page of songs.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.fetchSongs())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		m.comments.SetSize(msg.Width-4, max(msg.Height-16, 4))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleListKeys(msg)
		case SongDetailView:
			return m.handleDetailKeys(msg)
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSongsFetched:
		data := msg.data.(songsFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.page = data.page
		m.songList.Title = m.listTitle()
		return m, m.songList.SetItems(songItems(data.page.Results))

	case MsgSongFetched:
		page := msg.data.(*tasks.SongPage)
		m.loading = false
		if page.Song.Err != nil {
			m.status = styles.err.Render("Error: " + page.Song.Err.Error())
			return m, nil
		}
		m.song = page.Song.Value
		m.myRating = page.MyRating.Value
		m.status = ""
		if page.MyRating.Err != nil {
			m.status = styles.warn.Render("Could not load your rating: " + page.MyRating.Err.Error())
		}
		m.comments.Title = fmt.Sprintf("Comments (%d)", len(m.song.Comments))
		m.view = SongDetailView
		return m, m.comments.SetItems(commentItems(m.song.Comments))

	case MsgRatingSaved:
		data := msg.data.(ratingSaved)
		m.loading = false
		switch {
		case data.err != nil:
			m.status = styles.err.Render("Rating failed: " + data.err.Error())
		case data.score == services.ClearScore:
			m.myRating = 0
			m.status = styles.ok.Render("✓ Rating cleared")
		default:
			m.myRating = data.score
			m.status = styles.ok.Render(fmt.Sprintf("✓ Rated %d", data.score))
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SongListView:
		return m.renderList()
	case SongDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.loading:
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.songList.SelectedItem().(songItem); ok {
			return m, m.load(m.fetchSong(item.song.Slug))
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.hasNext() {
			m.query = m.query.WithPage(m.query.Page + 1)
			return m, m.load(m.fetchSongs())
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.query.Page > 1 {
			m.query = m.query.WithPage(m.query.Page - 1)
			return m, m.load(m.fetchSongs())
		}
		return m, nil
	case key.Matches(msg, m.keys.numberOne):
		m.query = m.query.WithNumberOneOnly(!m.query.NumberOneOnly())
		return m, m.load(m.fetchSongs())
	case key.Matches(msg, m.keys.refresh):
		return m, m.load(m.fetchSongs())
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SongListView
		m.status = ""
		return m, nil
	case m.loading:
		return m, nil
	case key.Matches(msg, m.keys.rate):
		clicked, _ := strconv.Atoi(msg.String())
		if clicked == 0 {
			clicked = services.MaxScore
		}
		return m.rate(services.ToggleScore(m.myRating, clicked))
	case key.Matches(msg, m.keys.clear):
		if m.myRating == 0 {
			return m, nil
		}
		return m.rate(services.ClearScore)
	case key.Matches(msg, m.keys.refresh):
		return m, m.load(m.fetchSong(m.song.Slug))
	}

	var cmd tea.Cmd
	m.comments, cmd = m.comments.Update(msg)
	return m, cmd
}

func (m *Model) rate(score int) (tea.Model, tea.Cmd) {
	if m.auth == nil || !m.auth.IsAuthenticated() {
		m.status = styles.warn.Render("Sign in with `pophits auth login` to rate songs")
		return m, nil
	}
	return m, m.load(m.saveRating(m.song.ID, score))
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	case SongDetailView:
		m.comments, cmd = m.comments.Update(msg)
	}
	return m, cmd
}

// load marks the model busy and starts the spinner alongside cmd.
func (m *Model) load(cmd tea.Cmd) tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) fetchSongs() tea.Cmd {
	q := m.query
	return func() tea.Msg {
		return songsFetchedMsg(m.api.ListSongs(m.ctx, q))
	}
}

func (m *Model) fetchSong(slug string) tea.Cmd {
	signedIn := m.auth != nil && m.auth.IsAuthenticated()
	return func() tea.Msg {
		return songFetchedMsg(tasks.LoadSong(m.ctx, m.api, slug, tasks.Viewer{SignedIn: signedIn}))
	}
}

func (m *Model) saveRating(songID, score int) tea.Cmd {
	return func() tea.Msg {
		var err error
		if score == services.ClearScore {
			err = m.api.ClearRating(m.ctx, songID)
		} else {
			err = m.api.RateSong(m.ctx, songID, score)
		}
		return ratingSavedMsg(score, err)
	}
}

func (m *Model) hasNext() bool {
	if m.page == nil {
		return false
	}
	return m.page.HasNext() || m.query.Page < m.query.PageCount(m.page.Count)
}

func (m *Model) listTitle() string {
	title := "Songs"
	if m.query.NumberOneOnly() {
		title = "#1 Hits"
	}
	if m.page == nil {
		return title
	}
	return fmt.Sprintf("%s · page %d of %d · %s total", title, m.query.Page,
		max(m.query.PageCount(m.page.Count), 1), humanize.Comma(int64(m.page.Count)))
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.prev, m.keys.numberOne, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.loading && m.page == nil {
		return fmt.Sprintf("%s Loading songs...\n\n%s", m.spinner.View(), helpView)
	}
	if m.err != nil {
		msg := styles.err.Render(fmt.Sprintf("Error: %v", m.err))
		return fmt.Sprintf("%s\n\n%s", msg, m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.quit}))
	}
	if m.page != nil && len(m.page.Results) == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No songs match these filters."), helpView)
	}

	out := m.songList.View()
	if m.loading {
		out = fmt.Sprintf("%s\n%s Loading...", out, m.spinner.View())
	} else if m.status != "" {
		out = fmt.Sprintf("%s\n%s", out, m.status)
	}
	return fmt.Sprintf("%s\n\n%s", out, helpView)
}

func (m *Model) renderDetail() string {
	s := m.song
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("%s - %s", s.Artist, s.Title)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Year: %d\n", s.Year)
	fmt.Fprintf(&b, "Chart run: %s\n", formatter.ChartRun(s.PeakRank, s.WeeksOnChart))
	fmt.Fprintf(&b, "Community: %s\n", formatter.Rating(s.AverageUserScore, s.TotalRatings))
	if m.myRating > 0 {
		fmt.Fprintf(&b, "Your rating: %s\n", styles.ok.Render(strconv.Itoa(m.myRating)))
	} else {
		b.WriteString("Your rating: " + styles.help.Render("unrated") + "\n")
	}
	if s.SpotifyURL != "" {
		fmt.Fprintf(&b, "Spotify: %s\n", s.SpotifyURL)
	}
	if s.Description != "" {
		b.WriteString("\n" + s.Description + "\n")
	}

	out := styles.box.Render(strings.TrimRight(b.String(), "\n"))
	if len(s.Comments) > 0 {
		out = fmt.Sprintf("%s\n\n%s", out, m.comments.View())
	}
	if m.loading {
		out = fmt.Sprintf("%s\n\n%s Saving...", out, m.spinner.View())
	} else if m.status != "" {
		out = fmt.Sprintf("%s\n\n%s", out, m.status)
	}

	helpKeys := []key.Binding{m.keys.rate, m.keys.clear, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(helpKeys))
}
