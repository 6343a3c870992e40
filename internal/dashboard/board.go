package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// Board is the list view for one session without a UI: the current list, the form,
// and the handlers, each mutation followed by a re-fetch.
type Board struct {
	Form Form

	session  *models.Session
	list     []models.Bookmark
	sync     *Synchronizer
	handlers *Handlers
}

// NewBoard creates a board for session. Call [Board.Refresh] to load the list.
func NewBoard(store backend.DataStore, session *models.Session, logger *log.Logger) *Board {
	return &Board{
		session:  session,
		sync:     NewSynchronizer(store, logger),
		handlers: NewHandlers(store, logger),
	}
}

// Session returns the session the board is scoped to.
func (b *Board) Session() *models.Session { return b.session }

// List returns the last fetched bookmarks.
func (b *Board) List() []models.Bookmark { return b.list }

// Find returns the listed bookmark with id.
func (b *Board) Find(id string) (models.Bookmark, bool) {
	for _, bm := range b.list {
		if bm.ID == id {
			return bm, true
		}
	}
	return models.Bookmark{}, false
}

// Refresh replaces the list with a fresh fetch. On failure the old list stays.
func (b *Board) Refresh(ctx context.Context) {
	if list, err := b.sync.Fetch(ctx, b.session); err == nil {
		b.list = list
	}
}

// Open subscribes to the owner's changes.
func (b *Board) Open(ctx context.Context) (*Feed, error) {
	return b.sync.Open(ctx, b.session)
}

// Submit creates a bookmark when Idle and updates the edited one when Editing.
//
// A create with blank fields is a no-op that returns false and no error.
func (b *Board) Submit(ctx context.Context) (bool, error) {
	if b.Form.State() == Editing {
		return true, b.update(ctx)
	}

	in, ok := b.Form.CreateInput(b.session)
	if !ok {
		return false, nil
	}
	if _, err := b.handlers.Create(ctx, in); err != nil {
		return true, err
	}
	b.Form.Created()
	b.Refresh(ctx)
	return true, nil
}

func (b *Board) update(ctx context.Context) error {
	filter, patch, err := b.Form.UpdateInput(b.session)
	if err != nil {
		return err
	}
	if err := b.handlers.Update(ctx, filter, patch); err != nil {
		return err
	}
	b.Form.Updated(filter.ID)
	b.Refresh(ctx)
	return nil
}

// BeginEdit loads the listed bookmark id into the form.
func (b *Board) BeginEdit(id string) error {
	bm, ok := b.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrBookmarkNotFound, id)
	}
	b.Form.BeginEdit(bm)
	return nil
}

// Delete removes id and re-fetches, whether or not the delete succeeded.
func (b *Board) Delete(ctx context.Context, id string) error {
	err := b.handlers.Delete(ctx, b.session, id)
	b.Refresh(ctx)
	return err
}
