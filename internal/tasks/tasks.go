// package tasks implements bulk bookmark operations: rate-limited imports and multi-format exports.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/formatter"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// EntryResult represents the result of importing a single entry.
type EntryResult struct {
	Entry    formatter.Entry  // Entry as read from the import file
	Bookmark *models.Bookmark // Created bookmark (nil if skipped or failed)
	Skipped  bool             // Entry duplicated an existing url
	Error    error            // Error if the insert failed
}

// ImportResult contains all data from an import run.
type ImportResult struct {
	Results []EntryResult
	Total   int
	Created int
	Skipped int
	Failed  int
}

// ImportOpts contains configuration for imports.
type ImportOpts struct {
	RateLimit      float64 // Inserts per second (default: 10)
	SkipDuplicates bool    // Skip entries whose url the owner already saved
}

// Engine runs bulk operations against a [backend.DataStore] on behalf of one session.
type Engine struct {
	store  backend.DataStore
	logger *log.Logger
}

// NewEngine creates a new Engine over store.
func NewEngine(store backend.DataStore, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{store: store, logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Import creates a bookmark for every entry, paced by a [rate.Limiter].
//
// Entries are inserted last to first so that the newest-first list reads in file order.
// A failed entry does not stop the run; cancellation does.
func (e *Engine) Import(ctx context.Context, session *models.Session, entries []formatter.Entry, opts ImportOpts, progress chan<- ProgressUpdate) (*ImportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: store not initialized", shared.ErrServiceUnavailable)
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}

	total := len(entries)
	result := &ImportResult{Total: total, Results: make([]EntryResult, total)}

	seen := make(map[string]bool)
	if opts.SkipDuplicates {
		e.sendProgress(progress, fetchingBookmarksUpdate(1, 1))
		existing, err := e.store.Query(ctx, models.ByOwner(session.Owner()), models.NewestFirst)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing bookmarks: %w", err)
		}
		for _, b := range existing {
			seen[normalizeURL(b.URL)] = true
		}
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	for step, i := 1, total-1; i >= 0; step, i = step+1, i-1 {
		entry := entries[i]
		res := EntryResult{Entry: entry}

		key := normalizeURL(entry.URL)
		if opts.SkipDuplicates && seen[key] {
			res.Skipped = true
			result.Skipped++
			result.Results[i] = res
			e.sendProgress(progress, importSkippedUpdate(step, total, entry))
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("import cancelled after %d of %d entries: %w", step-1, total, err)
		}

		e.sendProgress(progress, importingUpdate(step, total, entry))
		b, err := e.store.Insert(ctx, models.NewBookmark{Owner: session.Owner(), Title: entry.Title, URL: entry.URL})
		if err != nil {
			e.logger.Warn("import entry failed", "title", entry.Title, "error", err)
			res.Error = err
			result.Failed++
			e.sendProgress(progress, importFailedUpdate(step, total, entry, err))
		} else {
			res.Bookmark = &b
			result.Created++
			seen[key] = true
		}
		result.Results[i] = res
	}

	e.logger.Info("import finished", "created", result.Created, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}
