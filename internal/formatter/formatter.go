// package formatter renders song lists, quizzes and charts as CSV, Markdown, or plain text, and writes them to disk
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/dustin/go-humanize"
)

// Format is an export file format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "md"
	Text     Format = "txt"
	JSON     Format = "json"
)

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ParseFormat accepts the format names used by the --export flag.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (csv, md, txt, json)", shared.ErrInvalidFlag, s)
	}
}

// SongList is a titled list of songs, e.g. a generated playlist or a page of search results.
type SongList struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Songs       []models.Song `json:"songs"`
}

// Quiz is a titled list of generated questions.
type Quiz struct {
	Title     string                `json:"title"`
	Questions []models.QuizQuestion `json:"questions"`
}

// SongsToCSV converts a SongList to CSV with columns: ID, Title, Artist, Year, Peak, Weeks, Rating, Ratings, Spotify
func SongsToCSV(list SongList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Year", "Peak", "Weeks", "Rating", "Ratings", "Spotify"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range list.Songs {
		record := []string{
			strconv.Itoa(song.ID),
			song.Title,
			song.Artist,
			strconv.Itoa(song.Year),
			strconv.Itoa(song.PeakRank),
			strconv.Itoa(song.WeeksOnChart),
			strconv.FormatFloat(song.AverageUserScore, 'f', 1, 64),
			strconv.Itoa(song.TotalRatings),
			song.SpotifyURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// SongsToMarkdown converts a SongList to a numbered Markdown list
func SongsToMarkdown(list SongList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Title)
	if list.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", list.Description)
	}
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(list.Songs))

	buf.WriteString("## Songs\n\n")
	for i, song := range list.Songs {
		title := song.Title
		if song.SpotifyURL != "" {
			title = fmt.Sprintf("[%s](%s)", song.Title, song.SpotifyURL)
		}
		fmt.Fprintf(&buf, "%d. %s - %s (%d) [%s]\n", i+1, song.Artist, title, song.Year, ChartRun(song.PeakRank, song.WeeksOnChart))
	}
	return buf.Bytes(), nil
}

// SongsToText converts a SongList to plain text
func SongsToText(list SongList) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", list.Title)
	if list.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", list.Description)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(list.Songs))

	for i, song := range list.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s (%d)\n", i+1, song.Artist, song.Title, song.Year)
	}
	return buf.Bytes(), nil
}

// QuizToMarkdown renders questions with answers hidden in a details block
func QuizToMarkdown(quiz Quiz) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", quiz.Title)
	for i, q := range quiz.Questions {
		fmt.Fprintf(&buf, "%d. %s\n\n", i+1, q.Question)
		fmt.Fprintf(&buf, "   <details><summary>Answer</summary>%s</details>\n\n", q.Answer)
	}
	return buf.Bytes(), nil
}

// QuizToText renders the questions, then the answer key
func QuizToText(quiz Quiz) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n\n", quiz.Title)
	for i, q := range quiz.Questions {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, q.Question)
	}

	buf.WriteString("\nAnswers\n")
	for i, q := range quiz.Questions {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, q.Answer)
	}
	return buf.Bytes(), nil
}

// ChartToText renders a chart snapshot with week-over-week movement
func ChartToText(chart *models.ChartSnapshot) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Billboard Hot 100 for %s\n\n", chart.ChartDate)
	for _, e := range chart.Songs {
		fmt.Fprintf(&buf, "%3d. %s - %s %s\n", e.CurrentPosition, e.Artist, e.Title, Movement(e))
	}
	return buf.Bytes()
}

// Movement describes a chart entry's change since last week.
func Movement(e models.ChartEntry) string {
	if e.IsNew() {
		return "NEW"
	}
	switch m := e.Movement(); {
	case m > 0:
		return fmt.Sprintf("▲%d", m)
	case m < 0:
		return fmt.Sprintf("▼%d", -m)
	default:
		return "="
	}
}

// ChartRun summarizes peak and weeks, e.g. "peaked 3rd, 12 weeks".
func ChartRun(peak, weeks int) string {
	if peak <= 0 {
		return fmt.Sprintf("%d weeks", weeks)
	}
	return fmt.Sprintf("peaked %s, %d weeks", humanize.Ordinal(peak), weeks)
}

// Rating formats an average score with its vote count, e.g. "7.5 (1,204 ratings)".
func Rating(avg float64, total int) string {
	if total == 0 {
		return "unrated"
	}
	noun := "ratings"
	if total == 1 {
		noun = "rating"
	}
	return fmt.Sprintf("%.1f (%s %s)", avg, humanize.Comma(int64(total)), noun)
}

// Ago renders t relative to now, e.g. "3 days ago". Zero times render as "never".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// RenderSongs renders list in the given format.
func RenderSongs(format Format, list SongList) ([]byte, error) {
	switch format {
	case CSV:
		return SongsToCSV(list)
	case Markdown:
		return SongsToMarkdown(list)
	case Text:
		return SongsToText(list)
	case JSON:
		return shared.MarshalJSON(list, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}

// RenderQuiz renders quiz in the given format. CSV is not supported for quizzes.
func RenderQuiz(format Format, quiz Quiz) ([]byte, error) {
	switch format {
	case Markdown:
		return QuizToMarkdown(quiz)
	case Text:
		return QuizToText(quiz)
	case JSON:
		return shared.MarshalJSON(quiz, true)
	default:
		return nil, fmt.Errorf("%w: quizzes export as md, txt, or json, got %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders list and writes it to path, returning the path written.
//
// Defaults to {slugified title}.{ext} in the working directory.
func WriteExport(format Format, list SongList, path string) (string, error) {
	data, err := RenderSongs(format, list)
	if err != nil {
		return "", err
	}
	return writeFile(defaultPath(path, list.Title, format), data)
}

// WriteQuizExport renders quiz and writes it to path, returning the path written.
func WriteQuizExport(format Format, quiz Quiz, path string) (string, error) {
	data, err := RenderQuiz(format, quiz)
	if err != nil {
		return "", err
	}
	return writeFile(defaultPath(path, quiz.Title, format), data)
}

func defaultPath(path, title string, format Format) string {
	if path != "" {
		return path
	}
	name := Slugify(title)
	if name == "" {
		name = "pophits_export"
	}
	return name + format.Ext()
}

// Slugify lowercases s and joins its alphanumeric words with underscores.
func Slugify(s string) string {
	return strings.ReplaceAll(shared.NormalizeSearchTerm(s), " ", "_")
}

// writeFile writes through a temp file in the target directory so readers never see a partial export.
func writeFile(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to set export permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}
	return path, nil
}
