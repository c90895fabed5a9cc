package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

// BlogQuery pages through blog posts.
type BlogQuery struct {
	Page     int
	PageSize int
	Search   string
}

// Values encodes the set fields.
func (q BlogQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// BlogPosts lists blog post summaries.
func (s *PopHitsService) BlogPosts(ctx context.Context, q BlogQuery) (*models.Page[models.BlogPost], error) {
	var page models.Page[models.BlogPost]
	if err := s.get(ctx, "/api/blog/", q.Values(), &page); err != nil {
		return nil, fmt.Errorf("blog posts: %w", err)
	}
	return &page, nil
}

// BlogPost fetches a full post with related songs.
func (s *PopHitsService) BlogPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	if err := requireSlug(slug); err != nil {
		return nil, err
	}

	var post models.BlogPost
	if err := s.get(ctx, "/api/blog/"+url.PathEscape(slug)+"/", nil, &post); err != nil {
		return nil, fmt.Errorf("blog post %q: %w", slug, err)
	}
	return &post, nil
}

// LatestBlogPost returns the newest post summary.
func (s *PopHitsService) LatestBlogPost(ctx context.Context) (*models.BlogPost, error) {
	page, err := s.BlogPosts(ctx, BlogQuery{Page: 1, PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("latest blog post: %w", shared.ErrNotFound)
	}
	return &page.Results[0], nil
}
