package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/linkbox/internal/dashboard"
	"github.com/desertthunder/linkbox/internal/formatter"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
	"github.com/desertthunder/linkbox/internal/tasks"
)

// board opens a [dashboard.Board] for the signed-in session with a fresh list.
func (r *Runner) board(ctx context.Context) (*dashboard.Board, error) {
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	b := dashboard.NewBoard(r.store, s, r.logger)
	b.Refresh(ctx)
	return b, nil
}

// BookmarksList prints the signed-in account's bookmarks, newest first.
func (r *Runner) BookmarksList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	list, err := dashboard.NewSynchronizer(r.store, r.logger).Fetch(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to list bookmarks: %w", err)
	}

	if cmd.Bool("json") {
		if list == nil {
			list = []models.Bookmark{}
		}
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	if len(list) == 0 {
		return r.writePlain("No bookmarks yet. Add one with 'linkbox bookmarks add'.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Bookmarks of %s (%d)", s.Identity(), len(list)))
	for _, b := range list {
		r.writePlain("%s  %s\n", b.ID, b.Title)
		r.writePlain("    %s  (%s)\n", b.URL, b.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

// BookmarksAdd creates a bookmark.
func (r *Runner) BookmarksAdd(ctx context.Context, cmd *cli.Command) error {
	b, err := r.board(ctx)
	if err != nil {
		return err
	}

	b.Form.Title = cmd.String("title")
	b.Form.URL = cmd.String("url")
	submitted, err := b.Submit(ctx)
	if err != nil {
		return err
	}
	if !submitted {
		return fmt.Errorf("%w: title and url are required", shared.ErrMissingArgument)
	}

	if len(b.List()) > 0 {
		return r.writePlain("✓ Added %s (%s)\n", b.List()[0].Title, b.List()[0].ID)
	}
	return r.writePlain("✓ Added\n")
}

// BookmarksEdit changes the title and/or url of a bookmark. Omitted flags keep their value.
func (r *Runner) BookmarksEdit(ctx context.Context, cmd *cli.Command) error {
	title, url := cmd.String("title"), cmd.String("url")
	if title == "" && url == "" {
		return fmt.Errorf("%w: --title or --url", shared.ErrMissingArgument)
	}

	b, err := r.board(ctx)
	if err != nil {
		return err
	}

	id := cmd.String("id")
	if err := b.BeginEdit(id); err != nil {
		return err
	}
	if title != "" {
		b.Form.Title = title
	}
	if url != "" {
		b.Form.URL = url
	}

	if _, err := b.Submit(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Updated %s\n", id)
}

// BookmarksRemove deletes a bookmark without confirmation.
func (r *Runner) BookmarksRemove(ctx context.Context, cmd *cli.Command) error {
	b, err := r.board(ctx)
	if err != nil {
		return err
	}

	id := cmd.String("id")
	if err := b.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s (%d left)\n", id, len(b.List()))
}

// BookmarksExport writes the bookmarks in one format, or in every format with --all.
func (r *Runner) BookmarksExport(ctx context.Context, cmd *cli.Command) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		progress := make(chan tasks.ProgressUpdate, 16)
		done := r.logProgress(progress)
		result, err := r.engine.Export(ctx, s, tasks.ExportOpts{
			OutputDir:  cmd.String("output"),
			NumWorkers: cmd.Int("workers"),
		}, progress)
		close(progress)
		<-done
		if err != nil {
			return err
		}

		r.writePlain("✓ Exported %d bookmarks to %s\n", result.Bookmarks, result.OutputDirectory)
		for _, res := range result.Results {
			if res.Success {
				r.writePlain("  ✓ %-8s %s\n", res.Format, res.File)
			} else {
				r.writePlain("  ✗ %-8s %s\n", res.Format, res.Error)
			}
		}
		return r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	list, err := dashboard.NewSynchronizer(r.store, r.logger).Fetch(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to fetch bookmarks: %w", err)
	}

	export := formatter.NewExport(s.Owner(), list)
	if cmd.String("output") == "" {
		data, err := formatter.Encode(format, export)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteExport(format, export, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d bookmarks to %s\n", len(list), path)
}

// BookmarksImport creates bookmarks from a JSON or YAML file at a limited rate.
func (r *Runner) BookmarksImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	entries, err := formatter.ReadEntries(path)
	if err != nil {
		return err
	}

	s, err := r.session(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.logProgress(progress)
	result, err := r.engine.Import(ctx, s, entries, tasks.ImportOpts{
		RateLimit:      cmd.Float("rate"),
		SkipDuplicates: cmd.Bool("skip-duplicates"),
	}, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Imported %d of %d bookmarks", result.Created, result.Total)
	if result.Skipped > 0 {
		r.writePlain(", %d skipped", result.Skipped)
	}
	r.writePlain("\n")

	if result.Failed > 0 {
		r.writePlainln("Failed entries:")
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  • %s: %v\n", strings.TrimSpace(res.Entry.Title), res.Error)
			}
		}
	}
	return nil
}

// logProgress logs updates until progress is closed, then closes the returned channel.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()
	return done
}
