package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/models"
)

var (
	_ list.Item = songItem{}
	_ list.Item = commentItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Artist + " " + i.song.Title }
func (i songItem) Title() string {
	if i.song.IsNumberOne() {
		return "★ " + i.song.Title
	}
	return i.song.Title
}
func (i songItem) Description() string {
	return fmt.Sprintf("%s • %d • %s", i.song.Artist, i.song.Year, formatter.Rating(i.song.AverageUserScore, i.song.TotalRatings))
}

// commentItem wraps [models.Comment] to implement [list.Item].
type commentItem struct {
	comment models.Comment
}

func (i commentItem) FilterValue() string { return i.comment.Text }
func (i commentItem) Title() string       { return i.comment.Text }
func (i commentItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.comment.Username, formatter.Ago(i.comment.CreatedAt.Time))
	if i.comment.UserRating != nil {
		desc = fmt.Sprintf("%s • rated %d", desc, *i.comment.UserRating)
	}
	return desc
}

func songItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}

func commentItems(comments []models.Comment) []list.Item {
	items := make([]list.Item, len(comments))
	for i, c := range comments {
		items[i] = commentItem{comment: c}
	}
	return items
}
