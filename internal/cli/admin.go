// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olegiv/easysplit/internal/markup"
	"github.com/olegiv/easysplit/internal/model"
)

// postFlags binds the editable post fields to a flag set.
type postFlags struct {
	title, file, excerpt, slug, status string
	categories, tags                   string
	featuredMedia                      int64
}

func (pf *postFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&pf.title, "title", "", "post title")
	fs.StringVar(&pf.file, "file", "", "read the body from a file (.md is converted to HTML)")
	fs.StringVar(&pf.excerpt, "excerpt", "", "post excerpt")
	fs.StringVar(&pf.slug, "slug", "", "post slug")
	fs.StringVar(&pf.status, "status", "", "publish, draft, pending or private")
	fs.StringVar(&pf.categories, "categories", "", "comma-separated category ids")
	fs.StringVar(&pf.tags, "tags", "", "comma-separated tag ids")
	fs.Int64Var(&pf.featuredMedia, "featured-media", 0, "featured media id (0 clears it)")
}

// input returns a PostInput holding only the flags that were set.
func (pf *postFlags) input(fs *flag.FlagSet) (model.PostInput, error) {
	var (
		in  model.PostInput
		err error
	)
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "title":
			in.Title = &pf.title
		case "excerpt":
			in.Excerpt = &pf.excerpt
		case "slug":
			in.Slug = &pf.slug
		case "status":
			in.Status = &pf.status
		case "categories":
			in.Categories, err = parseIDs(pf.categories)
			if err == nil && in.Categories == nil {
				in.Categories = []int64{}
			}
		case "tags":
			in.Tags, err = parseIDs(pf.tags)
			if err == nil && in.Tags == nil {
				in.Tags = []int64{}
			}
		case "featured-media":
			in.FeaturedMedia = &pf.featuredMedia
		case "file":
			err = readBody(pf.file, &in)
		}
	})
	return in, err
}

// readBody loads the post content from path. Markdown files are rendered
// and their leading heading becomes the title unless -title was given.
func readBody(path string, in *model.PostInput) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading post body: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".markdown" {
		content := string(data)
		in.Content = &content
		return nil
	}

	title, body := markup.SplitTitle(data)
	content, err := markup.MarkdownToHTML(body)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	in.Content = &content
	if in.Title == nil && title != "" {
		in.Title = &title
	}
	return nil
}

func (a *App) createPost(ctx context.Context, args []string) error {
	fs := a.newFlagSet("create", a.commands["create"].usage)
	var pf postFlags
	pf.register(fs)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(fs, rest, 0); err != nil {
		return err
	}

	in, err := pf.input(fs)
	if err != nil {
		return err
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		fs.Usage()
		return fmt.Errorf("%w: -title is required", ErrUsage)
	}

	p, err := a.admin.CreatePost(ctx, in)
	if err != nil {
		return describe(err)
	}
	a.printf("Created post %d (%s, %s)\n", p.ID, p.Slug, p.Status)
	return nil
}

func (a *App) updatePost(ctx context.Context, args []string) error {
	fs := a.newFlagSet("update", a.commands["update"].usage)
	var pf postFlags
	pf.register(fs)
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
	if fs.NFlag() == 0 {
		return fmt.Errorf("%w: nothing to update", ErrUsage)
	}

	in, err := pf.input(fs)
	if err != nil {
		return err
	}

	p, err := a.admin.UpdatePost(ctx, id, in)
	if err != nil {
		return describe(err)
	}
	a.printf("Updated post %d (%s, %s)\n", p.ID, p.Slug, p.Status)
	return nil
}

func (a *App) deletePost(ctx context.Context, args []string) error {
	id, err := a.singleID("delete", args)
	if err != nil {
		return err
	}
	if err := a.admin.DeletePost(ctx, id); err != nil {
		return describe(err)
	}
	a.printf("Deleted post %d\n", id)
	return nil
}

func (a *App) upload(ctx context.Context, args []string) error {
	fs := a.newFlagSet("upload", a.commands["upload"].usage)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs(fs, rest, 1); err != nil {
		return err
	}

	f, err := os.Open(rest[0])
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := a.admin.UploadMedia(ctx, filepath.Base(rest[0]), f)
	if err != nil {
		return describe(err)
	}
	a.printf("Uploaded media %d: %s\n", m.ID, m.SourceURL)
	return nil
}

// termCommands are the façade operations of one taxonomy.
type termCommands struct {
	noun   string
	create func(context.Context, model.TermInput) (int64, string, error)
	update func(context.Context, int64, model.TermInput) (int64, string, error)
	remove func(context.Context, int64) error
}

func (a *App) category(ctx context.Context, args []string) error {
	return a.term(ctx, args, termCommands{
		noun: "category",
		create: func(ctx context.Context, in model.TermInput) (int64, string, error) {
			c, err := a.admin.CreateCategory(ctx, in)
			if err != nil {
				return 0, "", err
			}
			return c.ID, c.Slug, nil
		},
		update: func(ctx context.Context, id int64, in model.TermInput) (int64, string, error) {
			c, err := a.admin.UpdateCategory(ctx, id, in)
			if err != nil {
				return 0, "", err
			}
			return c.ID, c.Slug, nil
		},
		remove: a.admin.DeleteCategory,
	})
}

func (a *App) tag(ctx context.Context, args []string) error {
	return a.term(ctx, args, termCommands{
		noun: "tag",
		create: func(ctx context.Context, in model.TermInput) (int64, string, error) {
			t, err := a.admin.CreateTag(ctx, in)
			if err != nil {
				return 0, "", err
			}
			return t.ID, t.Slug, nil
		},
		update: func(ctx context.Context, id int64, in model.TermInput) (int64, string, error) {
			t, err := a.admin.UpdateTag(ctx, id, in)
			if err != nil {
				return 0, "", err
			}
			return t.ID, t.Slug, nil
		},
		remove: a.admin.DeleteTag,
	})
}

func (a *App) term(ctx context.Context, args []string, tc termCommands) error {
	if len(args) == 0 {
		a.printf("Usage: blogctl %s create|update|delete ...\n", tc.noun)
		return ErrUsage
	}

	action, args := args[0], args[1:]
	switch action {
	case "create":
		fs := a.newFlagSet(tc.noun+" create", tc.noun+" create -name text [-slug s] [-description text]"+parentUsage(tc.noun))
		in, rest, err := parseTermFlags(fs, args, tc.noun == "category")
		if err != nil {
			return err
		}
		if err := exactArgs(fs, rest, 0); err != nil {
			return err
		}
		if in.Name == nil {
			fs.Usage()
			return fmt.Errorf("%w: -name is required", ErrUsage)
		}
		id, slug, err := tc.create(ctx, in)
		if err != nil {
			return describe(err)
		}
		a.printf("Created %s %d (%s)\n", tc.noun, id, slug)

	case "update":
		fs := a.newFlagSet(tc.noun+" update", tc.noun+" update [-name text] [-slug s] [-description text]"+parentUsage(tc.noun)+" <id>")
		in, rest, err := parseTermFlags(fs, args, tc.noun == "category")
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
		if fs.NFlag() == 0 {
			return fmt.Errorf("%w: nothing to update", ErrUsage)
		}
		_, slug, err := tc.update(ctx, id, in)
		if err != nil {
			return describe(err)
		}
		a.printf("Updated %s %d (%s)\n", tc.noun, id, slug)

	case "delete":
		id, err := a.singleID(tc.noun+" delete", args)
		if err != nil {
			return err
		}
		if err := tc.remove(ctx, id); err != nil {
			return describe(err)
		}
		a.printf("Deleted %s %d\n", tc.noun, id)

	default:
		return fmt.Errorf("%w: unknown %s action %q", ErrUsage, tc.noun, action)
	}
	return nil
}

func parentUsage(noun string) string {
	if noun == "category" {
		return " [-parent id]"
	}
	return ""
}

// parseTermFlags parses the term fields, keeping only the flags that were set.
func parseTermFlags(fs *flag.FlagSet, args []string, hierarchical bool) (model.TermInput, []string, error) {
	var (
		name, slug, description string
		parent                  int64
	)
	fs.StringVar(&name, "name", "", "term name")
	fs.StringVar(&slug, "slug", "", "term slug")
	fs.StringVar(&description, "description", "", "term description")
	if hierarchical {
		fs.Int64Var(&parent, "parent", 0, "parent category id (0 for none)")
	}

	rest, err := parseArgs(fs, args)
	if err != nil {
		return model.TermInput{}, nil, err
	}

	var in model.TermInput
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = &name
		case "slug":
			in.Slug = &slug
		case "description":
			in.Description = &description
		case "parent":
			in.Parent = &parent
		}
	})
	return in, rest, nil
}

func (a *App) singleID(name string, args []string) (int64, error) {
	fs := a.newFlagSet(name, name+" <id>")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return 0, err
	}
	if len(rest) != 1 {
		fs.Usage()
		return 0, ErrUsage
	}
	return parseID(rest[0])
}
