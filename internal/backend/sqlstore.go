package backend

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/realtime"
	"github.com/desertthunder/linkbox/internal/repositories"
	"github.com/desertthunder/linkbox/internal/shared"
)

// SQLStore implements [DataStore] on SQLite. Every committed mutation is
// published on the broker so subscribers re-fetch.
type SQLStore struct {
	bookmarks *repositories.BookmarkRepository
	broker    *realtime.Broker
	logger    *log.Logger
}

// NewSQLStore creates a store over db that publishes changes on broker.
func NewSQLStore(db *sql.DB, broker *realtime.Broker, logger *log.Logger) *SQLStore {
	if logger == nil {
		logger = log.Default()
	}
	if broker == nil {
		broker = realtime.NewBroker(nil, logger)
	}
	return &SQLStore{
		bookmarks: repositories.NewBookmarkRepository(db),
		broker:    broker,
		logger:    shared.WithLogger(logger, "component", "store"),
	}
}

// Query implements [DataStore].
func (s *SQLStore) Query(ctx context.Context, filter models.Filter, order models.Order) ([]models.Bookmark, error) {
	return s.bookmarks.List(ctx, filter, order)
}

// Insert implements [DataStore].
func (s *SQLStore) Insert(ctx context.Context, in models.NewBookmark) (models.Bookmark, error) {
	b, err := s.bookmarks.Create(ctx, in)
	if err != nil {
		return models.Bookmark{}, err
	}

	s.logger.Debug("bookmark inserted", "id", b.ID, "owner", b.Owner)
	s.publish(ctx, models.EventInsert, b.Owner, b.ID)
	return b, nil
}

// Update implements [DataStore].
func (s *SQLStore) Update(ctx context.Context, patch models.Patch, filter models.Filter) error {
	if err := s.bookmarks.Update(ctx, filter, patch); err != nil {
		return err
	}

	s.logger.Debug("bookmark updated", "id", filter.ID, "owner", filter.Owner)
	s.publish(ctx, models.EventUpdate, filter.Owner, filter.ID)
	return nil
}

// Delete implements [DataStore].
func (s *SQLStore) Delete(ctx context.Context, filter models.Filter) error {
	if err := s.bookmarks.Delete(ctx, filter); err != nil {
		return err
	}

	s.logger.Debug("bookmark deleted", "id", filter.ID, "owner", filter.Owner)
	s.publish(ctx, models.EventDelete, filter.Owner, filter.ID)
	return nil
}

// Subscribe implements [DataStore].
func (s *SQLStore) Subscribe(_ context.Context, table string, filter models.Filter, mask models.EventMask) (Subscription[models.ChangeEvent], error) {
	sub, err := s.broker.Subscribe(table, filter, mask)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Count returns the number of bookmarks owned by owner.
func (s *SQLStore) Count(ctx context.Context, owner string) (int, error) {
	return s.bookmarks.Count(ctx, owner)
}

func (s *SQLStore) publish(ctx context.Context, kind models.EventKind, owner, id string) {
	s.broker.Publish(ctx, models.ChangeEvent{
		Kind:  kind,
		Table: models.TableBookmarks,
		Owner: owner,
		ID:    id,
		At:    time.Now().UTC(),
	})
}
