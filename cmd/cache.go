package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/pophits/internal/formatter"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/repositories"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// CacheSync copies song pages and the current chart into the local database.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	songs := repositories.NewSongRepository(db)
	charts := repositories.NewChartRepository(db)
	syncer := tasks.NewCacheSyncer(r.api, songs, charts, tasks.SyncOpts{
		MaxPages:   cmd.Int("pages"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	q := services.NewSongQuery().WithPageSize(cmd.Int("page-size"))
	if decade := cmd.Int("decade"); decade != 0 {
		q = q.WithDecade(decade)
	}
	result, syncErr := syncer.SyncSongs(ctx, q, progressCh)

	var chart *models.ChartSnapshot
	var chartErr error
	if !cmd.Bool("skip-chart") {
		chart, chartErr = syncer.SyncHot100(ctx, progressCh)
	}
	close(progressCh)
	wg.Wait()

	if result == nil {
		return syncErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Cache Sync Complete")
	r.writePlain("Songs:  %s cached from %d pages (%s available)\n",
		humanize.Comma(int64(result.Songs)), result.Pages, humanize.Comma(int64(result.Count)))
	if result.FailedPages > 0 {
		r.writePlain("⚠ %d pages failed\n", result.FailedPages)
	}
	switch {
	case chartErr != nil:
		r.writePlain("⚠ Hot 100 not cached: %v\n", chartErr)
	case chart != nil:
		r.writePlain("Chart:  Hot 100 for %s\n", chart.ChartDate.Format("2006-01-02"))
	}

	if syncErr != nil {
		r.logger.Warn("some pages failed", "error", syncErr)
	}
	return nil
}

// CacheSongs searches cached songs, or summarizes the cache when no filter is given.
func (r *Runner) CacheSongs(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()
	repo := repositories.NewSongRepository(db)

	var songs []models.Song
	switch term, year := strings.TrimSpace(cmd.String("search")), cmd.Int("year"); {
	case term != "":
		songs, err = repo.Search(ctx, term, cmd.Int("limit"))
	case year != 0:
		songs, err = repo.ByYear(ctx, year)
	default:
		return r.cacheSummary(ctx, repo)
	}
	if err != nil {
		return err
	}
	return r.showSongs(cmd, formatter.SongList{Title: "Cached Songs", Songs: songs})
}

func (r *Runner) cacheSummary(ctx context.Context, repo *repositories.SongRepository) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	last, err := repo.LastFetched(ctx)
	if err != nil {
		return err
	}
	r.writePlain("Cached songs: %s\n", humanize.Comma(int64(n)))
	r.writePlain("Last synced:  %s\n", formatter.Ago(last))
	return nil
}

// CacheHot100 shows a cached chart, the latest by default.
func (r *Runner) CacheHot100(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()
	repo := repositories.NewChartRepository(db)

	if cmd.Bool("dates") {
		dates, err := repo.Dates(ctx)
		if err != nil {
			return err
		}
		if len(dates) == 0 {
			return r.writePlain("No cached charts. Run 'pophits cache sync'.\n")
		}
		for _, d := range dates {
			r.writePlain("%s\n", d)
		}
		return nil
	}

	var chart *models.ChartSnapshot
	if date := strings.TrimSpace(cmd.String("date")); date != "" {
		chart, err = repo.ByDate(ctx, date)
	} else {
		chart, err = repo.Latest(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(chart, cmd.Bool("pretty"))
	}
	return r.writeRaw(formatter.ChartToText(chart))
}

func (r *Runner) openCache() (*sql.DB, error) {
	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache (run 'pophits setup'): %w", err)
	}
	return db, nil
}

// cacheCommand handles the opt-in local song and chart cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Cache songs and charts locally for offline lookups",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch song pages and the current Hot 100 into the cache",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "pages", Usage: "Maximum pages to fetch (0 fetches all)", Value: 10},
					&cli.IntFlag{Name: "page-size", Usage: "Songs per page", Value: 100},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent page fetches", Value: 4},
					&cli.FloatFlag{Name: "rate", Usage: "Page requests per second", Value: 5},
					&cli.IntFlag{Name: "decade", Usage: "Only sync one decade"},
					&cli.BoolFlag{Name: "skip-chart", Usage: "Do not cache the current Hot 100"},
				},
				Action: r.CacheSync,
			},
			{
				Name:  "songs",
				Usage: "Search cached songs",
				Flags: withFlags([]cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Title or artist"},
					&cli.IntFlag{Name: "year", Usage: "Chart year"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum results", Value: 25},
				}, outputFlags(), exportFlags()),
				Action: r.CacheSongs,
			},
			{
				Name:  "hot100",
				Usage: "Show a cached Hot 100",
				Flags: withFlags([]cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "Chart week (YYYY-MM-DD)"},
					&cli.BoolFlag{Name: "dates", Usage: "List cached chart weeks"},
				}, outputFlags()),
				Action: r.CacheHot100,
			},
		},
	}
}
