package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// Feed is the live-change subscription of one signed-in session.
type Feed struct {
	owner string
	sub   backend.Subscription[models.ChangeEvent]
}

// Owner returns the account the feed is scoped to.
func (f *Feed) Owner() string { return f.owner }

// C yields change events for the owner's rows.
func (f *Feed) C() <-chan models.ChangeEvent { return f.sub.C() }

// Close unsubscribes. No event is received after it returns.
func (f *Feed) Close() error { return f.sub.Close() }

// Synchronizer keeps a session's list consistent with the store.
type Synchronizer struct {
	store  backend.DataStore
	logger *log.Logger
}

// NewSynchronizer creates a synchronizer over store.
func NewSynchronizer(store backend.DataStore, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{store: store, logger: shared.WithLogger(logger, "component", "sync")}
}

// Fetch returns every bookmark of the session's owner, newest first.
//
// Errors are logged at debug level and returned; callers keep the previous list.
func (s *Synchronizer) Fetch(ctx context.Context, session *models.Session) ([]models.Bookmark, error) {
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	list, err := s.store.Query(ctx, models.ByOwner(session.Owner()), models.NewestFirst)
	if err != nil {
		s.logger.Debug("fetch failed, keeping stale list", "owner", session.Owner(), "error", err)
		return nil, err
	}
	return list, nil
}

// Open subscribes to inserts, updates and deletes of the session owner's rows.
func (s *Synchronizer) Open(ctx context.Context, session *models.Session) (*Feed, error) {
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	sub, err := s.store.Subscribe(ctx, models.TableBookmarks, models.ByOwner(session.Owner()), models.MaskAll)
	if err != nil {
		return nil, fmt.Errorf("failed to open change feed: %w", err)
	}

	s.logger.Debug("change feed opened", "owner", session.Owner())
	return &Feed{owner: session.Owner(), sub: sub}, nil
}
