package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SyncOpts contains configuration for cache syncs.
type SyncOpts struct {
	MaxPages   int     // Stop after this many pages (0 fetches every page)
	NumWorkers int     // Concurrent page fetches (default: 4, max: 10)
	RateLimit  float64 // Page requests per second (default: 5)
}

// SyncResult summarizes a song sync.
type SyncResult struct {
	Pages       int // Pages requested
	FailedPages int // Pages that could not be fetched or stored
	Songs       int // Songs written to the cache
	Count       int // Total songs the API reported for the query
}

// CacheSyncer copies API data into the local cache.
type CacheSyncer struct {
	api     CacheSource
	songs   SongStore
	charts  ChartStore
	opts    SyncOpts
	limiter *rate.Limiter
}

// NewCacheSyncer creates a syncer. Either store may be nil if the matching sync is never run.
func NewCacheSyncer(api CacheSource, songs SongStore, charts ChartStore, opts SyncOpts) *CacheSyncer {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	return &CacheSyncer{
		api:     api,
		songs:   songs,
		charts:  charts,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

// SyncSongs fetches every page of q and upserts the results.
//
// The first page is fetched alone to learn the total count; the rest are fetched concurrently.
// A failed page does not stop the others. All page errors are joined into the returned error.
func (c *CacheSyncer) SyncSongs(ctx context.Context, q services.SongQuery, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if c.api == nil || c.songs == nil {
		return nil, fmt.Errorf("%w: cache sync not initialized", shared.ErrServiceUnavailable)
	}
	if q.PageSize <= 0 {
		q.PageSize = services.DefaultPageSize
	}
	q = q.WithPage(1)

	sendProgress(progress, fetchPageUpdate(1, 1))
	first, err := c.api.ListSongs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	pages := q.PageCount(first.Count)
	if pages < 1 {
		pages = 1
	}
	if c.opts.MaxPages > 0 && pages > c.opts.MaxPages {
		pages = c.opts.MaxPages
	}

	result := &SyncResult{Pages: pages, Count: first.Count}

	n, err := c.songs.UpsertMany(ctx, first.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to cache first page: %w", err)
	}
	result.Songs = n
	sendProgress(progress, cachedPageUpdate(1, pages, n))

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(c.opts.NumWorkers)

	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			n, err := c.syncPage(ctx, q.WithPage(page))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedPages++
				errs = append(errs, fmt.Errorf("page %d: %w", page, err))
				sendProgress(progress, failedPageUpdate(page, pages, err))
				return nil
			}
			result.Songs += n
			sendProgress(progress, cachedPageUpdate(page, pages, n))
			return nil
		})
	}

	_ = g.Wait()
	return result, errors.Join(errs...)
}

func (c *CacheSyncer) syncPage(ctx context.Context, q services.SongQuery) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	page, err := c.api.ListSongs(ctx, q)
	if err != nil {
		return 0, err
	}
	return c.songs.UpsertMany(ctx, page.Results)
}

// SyncHot100 fetches the current chart and stores it, replacing any snapshot for the same week.
func (c *CacheSyncer) SyncHot100(ctx context.Context, progress chan<- ProgressUpdate) (*models.ChartSnapshot, error) {
	if c.api == nil || c.charts == nil {
		return nil, fmt.Errorf("%w: cache sync not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchChartUpdate())
	chart, err := c.api.CurrentHot100(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current chart: %w", err)
	}

	sendProgress(progress, cacheChartUpdate(chart.ChartDate.String(), len(chart.Songs)))
	if _, err := c.charts.Save(ctx, chart); err != nil {
		return nil, fmt.Errorf("failed to cache chart: %w", err)
	}
	return chart, nil
}
