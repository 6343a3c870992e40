package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/linkbox/internal/formatter"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// ExportOpts contains configuration for bulk exports.
type ExportOpts struct {
	Formats    []formatter.Format // Formats to write (default: all)
	OutputDir  string             // Base output directory (default: linkbox_export_{epoch})
	NumWorkers int                // Concurrent writers (default: 3)
}

// FormatResult is the outcome of writing one format.
type FormatResult struct {
	Format  formatter.Format `json:"format"`
	File    string           `json:"file,omitempty"`
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
}

// ExportResult summarizes a bulk export. It is also the manifest document.
type ExportResult struct {
	Owner             string         `json:"owner"`
	Bookmarks         int            `json:"bookmarks"`
	OutputDirectory   string         `json:"output_directory"`
	SuccessfulExports int            `json:"successful_exports"`
	FailedExports     int            `json:"failed_exports"`
	Results           []FormatResult `json:"results"`
	ManifestPath      string         `json:"-"`
}

// Export writes the session owner's bookmarks in every requested format.
//
// The list is fetched once, then a small worker pool encodes and writes each format
// into OutputDir. A failed format does not fail the run; the manifest records it.
func (e *Engine) Export(ctx context.Context, session *models.Session, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: store not initialized", shared.ErrServiceUnavailable)
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	if len(opts.Formats) == 0 {
		opts.Formats = formatter.Formats
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("linkbox_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > len(opts.Formats) {
		opts.NumWorkers = len(opts.Formats)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	e.sendProgress(progress, fetchingBookmarksUpdate(1, 1))
	bookmarks, err := e.store.Query(ctx, models.ByOwner(session.Owner()), models.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	e.sendProgress(progress, foundBookmarksUpdate(1, 1, len(bookmarks)))

	export := formatter.NewExport(session.Owner(), bookmarks)
	result := &ExportResult{
		Owner:           session.Owner(),
		Bookmarks:       len(bookmarks),
		OutputDirectory: opts.OutputDir,
		Results:         make([]FormatResult, 0, len(opts.Formats)),
	}

	jobs := make(chan formatter.Format, len(opts.Formats))
	results := make(chan FormatResult, len(opts.Formats))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, export, opts.OutputDir)
	}

	for _, f := range opts.Formats {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(opts.Formats), res.Format, res.File))
		} else {
			result.FailedExports++
			e.sendProgress(progress, exportFailedUpdate(completed, len(opts.Formats), res.Format, fmt.Errorf("%s", res.Error)))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes formats from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan formatter.Format,
	results chan<- FormatResult,
	export *formatter.Export,
	dir string,
) {
	defer wg.Done()

	for f := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := FormatResult{Format: f}
		path := filepath.Join(dir, "bookmarks."+f.Ext())
		if file, err := formatter.WriteExport(f, export, path); err != nil {
			res.Error = err.Error()
		} else {
			res.File = file
			res.Success = true
		}
		results <- res
	}
}
