package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// Handlers performs mutations. Every failure is logged and returned so the view can show it.
type Handlers struct {
	store  backend.DataStore
	logger *log.Logger
}

// NewHandlers creates handlers over store.
func NewHandlers(store backend.DataStore, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{store: store, logger: shared.WithLogger(logger, "component", "handlers")}
}

// Create inserts in.
func (h *Handlers) Create(ctx context.Context, in models.NewBookmark) (models.Bookmark, error) {
	b, err := h.store.Insert(ctx, in)
	if err != nil {
		h.logger.Error("create failed", "title", in.Title, "error", err)
		return models.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}
	h.logger.Info("bookmark created", "id", b.ID)
	return b, nil
}

// Update patches the bookmark selected by filter.
func (h *Handlers) Update(ctx context.Context, filter models.Filter, patch models.Patch) error {
	if err := h.store.Update(ctx, patch, filter); err != nil {
		h.logger.Error("update failed", "id", filter.ID, "error", err)
		return fmt.Errorf("update bookmark: %w", err)
	}
	h.logger.Info("bookmark updated", "id", filter.ID)
	return nil
}

// Delete removes id from the session owner's bookmarks. There is no confirmation.
func (h *Handlers) Delete(ctx context.Context, session *models.Session, id string) error {
	if session == nil {
		return shared.ErrNotAuthenticated
	}
	if err := h.store.Delete(ctx, models.ByID(session.Owner(), id)); err != nil {
		h.logger.Error("delete failed", "id", id, "error", err)
		return fmt.Errorf("delete bookmark: %w", err)
	}
	h.logger.Info("bookmark deleted", "id", id)
	return nil
}
