// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/olegiv/easysplit/internal/markup"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/service"
)

const dateLayout = "2006-01-02"

func (a *App) posts(ctx context.Context, args []string) error {
	fs := a.newFlagSet("posts", a.commands["posts"].usage)
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", service.DefaultPerPage, "posts per page")
	category := fs.Int64("category", 0, "only posts in this category id")
	search := fs.String("search", "", "full-text search")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(fs, rest, 0); err != nil {
		return err
	}

	list := a.content.ListPosts(ctx, *page, *perPage, *category, *search)
	if len(list.Items) == 0 {
		a.printf("No posts found\n")
		return nil
	}
	a.printPosts(list.Items)
	a.printf("page %d of %d (%d posts)\n", list.Pagination.CurrentPage, list.Pagination.TotalPages, list.Pagination.Total)
	return nil
}

func (a *App) post(ctx context.Context, args []string) error {
	fs := a.newFlagSet("post", a.commands["post"].usage)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(fs, rest, 1); err != nil {
		return err
	}

	p := a.content.GetPostBySlug(ctx, rest[0])
	if p == nil {
		return fmt.Errorf("post %q: %w", rest[0], service.ErrNotFound)
	}

	a.printf("%s\n", p.Title)
	a.printf("%s by %s", p.CreatedAt.Format(dateLayout), p.AuthorName)
	if names := termNames(p.Terms, model.TaxonomyCategory); names != "" {
		a.printf(" in %s", names)
	}
	a.printf("\n\n%s\n", markup.PlainText(p.Content))
	if p.FeaturedImageURL != "" {
		a.printf("\nImage: %s\n", p.FeaturedImageURL)
	}
	return nil
}

func (a *App) related(ctx context.Context, args []string) error {
	fs := a.newFlagSet("related", a.commands["related"].usage)
	limit := fs.Int("limit", service.DefaultRelatedLimit, "maximum number of posts")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(fs, rest, 1); err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}

	p := a.content.GetPostByID(ctx, id)
	if p == nil {
		return fmt.Errorf("post %d: %w", id, service.ErrNotFound)
	}

	posts := a.content.ListRelatedPosts(ctx, p.ID, p.Categories, *limit)
	if len(posts) == 0 {
		a.printf("No related posts\n")
		return nil
	}
	a.printPosts(posts)
	return nil
}

func (a *App) categories(ctx context.Context, _ []string) error {
	cats := a.content.ListCategories(ctx)
	if len(cats) == 0 {
		a.printf("No categories\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPARENT\tPOSTS")
	for _, c := range cats {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", c.ID, c.Slug, c.Name, c.Parent, c.PostCount)
	}
	return tw.Flush()
}

func (a *App) tags(ctx context.Context, _ []string) error {
	tags := a.content.ListTags(ctx)
	if len(tags) == 0 {
		a.printf("No tags\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPOSTS")
	for _, t := range tags {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", t.ID, t.Slug, t.Name, t.PostCount)
	}
	return tw.Flush()
}

func (a *App) printPosts(posts []model.Post) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tSLUG\tTITLE")
	for _, p := range posts {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.CreatedAt.Format(dateLayout), p.Status, p.Slug, p.Title)
	}
	_ = tw.Flush()
}

func termNames(terms []model.Term, taxonomy string) string {
	var names []string
	for _, t := range terms {
		if t.Taxonomy == taxonomy {
			names = append(names, t.Name)
		}
	}
	return strings.Join(names, ", ")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrUsage, s)
	}
	return id, nil
}

// parseIDs parses a comma-separated id list.
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
