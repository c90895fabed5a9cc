package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/urfave/cli/v3"
)

// GeneratePlaylist asks the generator for songs, then prints, exports, or sends them to Spotify.
func (r *Runner) GeneratePlaylist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	params, err := r.generatorParams(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("generating playlist", "songs", params.NumberOfSongs, "hit_size", params.HitSize, "decades", params.Decades)
	songs, err := r.api.GeneratePlaylist(ctx, params)
	if err != nil {
		return err
	}

	list := formatter.SongList{
		Title:       cmd.String("name"),
		Description: describeParams(params),
		Songs:       songs,
	}
	if err := r.showSongs(cmd, list); err != nil {
		return err
	}

	if !cmd.Bool("spotify") {
		return nil
	}
	return r.exportToSpotify(ctx, tasks.ExportRequest{
		Name:        list.Title,
		Description: "Generated by PopHits: " + list.Description,
		Public:      cmd.Bool("public"),
		Songs:       songs,
	})
}

// GenerateQuiz asks the generator for quiz questions.
func (r *Runner) GenerateQuiz(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	params, err := r.generatorParams(cmd)
	if err != nil {
		return err
	}

	questions, err := r.api.GenerateQuiz(ctx, params)
	if err != nil {
		return err
	}
	quiz := formatter.Quiz{Title: "PopHits Quiz: " + describeParams(params), Questions: questions}

	if cmd.Bool("json") {
		return r.writeJSON(quiz, cmd.Bool("pretty"))
	}

	if raw := cmd.String("export"); raw != "" {
		format, err := formatter.ParseFormat(raw)
		if err != nil {
			return err
		}
		path, err := formatter.WriteQuizExport(format, quiz, cmd.String("output"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d questions to %s\n", len(questions), path)
	}

	data, err := formatter.QuizToText(quiz)
	if err != nil {
		return err
	}
	return r.writeRaw(data)
}

// generatorParams reads the generator flags, prompting for decades when none were given.
func (r *Runner) generatorParams(cmd *cli.Command) (services.GeneratorParams, error) {
	v := url.Values{}
	if n := cmd.Int("songs"); n != 0 {
		v.Set("number_of_songs", strconv.Itoa(n))
	}
	if h := cmd.Int("hit-size"); h != 0 {
		v.Set("hit_size", strconv.Itoa(h))
	}
	for _, d := range cmd.StringSlice("decade") {
		for _, part := range strings.Split(d, ",") {
			if part = strings.TrimSuffix(strings.TrimSpace(part), "s"); part != "" {
				v.Add("decades", part)
			}
		}
	}

	params, err := services.ParseGeneratorParams(v)
	if err != nil {
		return params, err
	}
	params = params.Normalize()

	if len(params.Decades) == 0 {
		decades, err := r.prompter.Decades(decadeOptions(time.Now().Year()))
		if err != nil {
			return params, err
		}
		if len(decades) == 0 {
			decades = decadeOptions(time.Now().Year())
		}
		params.Decades = decades
	}
	return params, params.Validate()
}

func describeParams(p services.GeneratorParams) string {
	decades := make([]string, len(p.Decades))
	for i, d := range p.Decades {
		decades[i] = strconv.Itoa(d) + "s"
	}
	return fmt.Sprintf("%d songs from the %s, hit size %d", p.NumberOfSongs, strings.Join(decades, ", "), p.HitSize)
}

// exportToSpotify creates a playlist from req, printing progress as each step completes.
func (r *Runner) exportToSpotify(ctx context.Context, req tasks.ExportRequest) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: set spotify.client_id to export playlists", shared.ErrMissingConfig)
	}
	if _, ok := r.manager.Session().SpotifyToken(); !ok {
		return fmt.Errorf("%w: run 'pophits spotify login' first", shared.ErrNotAuthenticated)
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			r.writePlain("→ %s\n", update.Message)
		}
	}()

	result, err := tasks.NewSpotifyExporter(r.spotify).Run(ctx, req, progressCh)
	close(progressCh)
	wg.Wait()

	var partial *tasks.PartialExportError
	if errors.As(err, &partial) {
		r.writePlain("⚠ Playlist %s was created but tracks could not be added\n", partial.PlaylistID)
	}
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Spotify Export Complete")
	r.writePlain("Playlist: %s\n", result.Playlist.Name)
	r.writePlain("Tracks:   %d added, %d skipped\n", result.Added, result.Skipped)
	if link := result.Playlist.URL(); link != "" {
		r.writePlain("Open:     %s\n", link)
	}
	return nil
}
