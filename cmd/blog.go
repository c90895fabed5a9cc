package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/pophits/internal/services"
	"github.com/desertthunder/pophits/internal/shared"
	"github.com/urfave/cli/v3"
)

// BlogList lists one page of posts.
func (r *Runner) BlogList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	q := services.BlogQuery{Page: cmd.Int("page"), Search: cmd.String("search")}

	page, err := r.api.BlogPosts(ctx, q)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}
	if len(page.Results) == 0 {
		return r.writePlain("No posts.\n")
	}

	r.writePlainHeader(fmt.Sprintf("PopHits Blog (%d posts)", page.Count))
	for _, p := range page.Results {
		r.writePlain("%s  %s\n", p.PublishedDate.Format("2006-01-02"), p.Title)
		r.writePlain("            %s\n", p.Slug)
	}
	if page.HasNext() {
		r.writePlain("\nNext page: --page %d\n", max(q.Page, 1)+1)
	}
	return nil
}

// BlogGet shows a post with its related songs.
func (r *Runner) BlogGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	slug := strings.TrimSpace(cmd.StringArg("slug"))
	if slug == "" {
		return fmt.Errorf("%w: post slug", shared.ErrMissingArgument)
	}

	post, err := r.api.BlogPost(ctx, slug)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(post, cmd.Bool("pretty"))
	}

	r.writePlainHeader(post.Title)
	r.writePlain("Published %s\n\n", post.PublishedDate.Format("January 2, 2006"))
	r.writePlain("%s\n", stripTags(post.Content))

	if len(post.RelatedSongs) > 0 {
		r.writePlainln("Songs in this post")
		r.printSongs(post.RelatedSongs, 0)
	}
	return nil
}

// stripTags drops HTML markup from post bodies for terminal output.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, c := range s {
		switch {
		case c == '<':
			inTag = true
		case c == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(c)
		}
	}
	return strings.TrimSpace(b.String())
}
