package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSongsFetched MsgKind = iota
	MsgSongFetched
	MsgRatingSaved
)

type songsFetched struct {
	page *models.Page[models.Song]
	err  error
}

type ratingSaved struct {
	score int
	err   error
}

// songsFetchedMsg is the constructor for [MsgSongsFetched]
func songsFetchedMsg(page *models.Page[models.Song], err error) Msg {
	return Msg{kind: MsgSongsFetched, data: songsFetched{page, err}}
}

// songFetchedMsg is the constructor for [MsgSongFetched]
func songFetchedMsg(page *tasks.SongPage) Msg {
	return Msg{kind: MsgSongFetched, data: page}
}

// ratingSavedMsg is the constructor for [MsgRatingSaved]
func ratingSavedMsg(score int, err error) Msg {
	return Msg{kind: MsgRatingSaved, data: ratingSaved{score, err}}
}
