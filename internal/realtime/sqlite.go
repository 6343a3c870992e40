package realtime

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/linkbox/internal/shared"
)

const (
	// DefaultPollInterval is how often a [SQLiteBridge] looks for new messages.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultRetention is how long relayed messages stay in the table.
	DefaultRetention = 5 * time.Minute
)

// SQLiteOptions configures a [SQLiteBridge].
type SQLiteOptions struct {
	PollInterval time.Duration
	Retention    time.Duration
}

// SQLiteBridge relays broker traffic through the realtime_messages table of the shared
// database. Every process polls for rows newer than the last one it has seen, so a write
// from a second CLI invocation reaches a running dashboard without any extra server.
type SQLiteBridge struct {
	db        *sql.DB
	interval  time.Duration
	retention time.Duration
	cursor    int64
}

// NewSQLiteBridge creates a bridge over db, which must already be migrated.
// Messages written before this call are never delivered.
func NewSQLiteBridge(ctx context.Context, db *sql.DB, opts SQLiteOptions) (*SQLiteBridge, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: sqlite realtime driver needs a database", shared.ErrInvalidConfig)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}

	var cursor int64
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM realtime_messages").Scan(&cursor); err != nil {
		return nil, fmt.Errorf("%w: realtime_messages: %v", shared.ErrServiceUnavailable, err)
	}
	return &SQLiteBridge{db: db, interval: opts.PollInterval, retention: opts.Retention, cursor: cursor}, nil
}

// Name implements [Bridge].
func (s *SQLiteBridge) Name() string { return "sqlite" }

// Publish implements [Bridge]. Expired messages are pruned on the way.
func (s *SQLiteBridge) Publish(ctx context.Context, topic string, data []byte) error {
	now := time.Now()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO realtime_messages (topic, payload, created_at) VALUES (?, ?, ?)",
		topic, data, now.UnixNano()); err != nil {
		return fmt.Errorf("failed to relay message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM realtime_messages WHERE created_at < ?", now.Add(-s.retention).UnixNano()); err != nil {
		return fmt.Errorf("failed to prune relayed messages: %w", err)
	}
	return nil
}

// Listen implements [Bridge]. It delivers rows on topics in insertion order.
// A failed poll is returned; the broker logs it and stops listening.
func (s *SQLiteBridge) Listen(ctx context.Context, topics []string, deliver func(topic string, data []byte)) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.poll(ctx, topics, deliver); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *SQLiteBridge) poll(ctx context.Context, topics []string, deliver func(topic string, data []byte)) error {
	args := make([]any, 0, len(topics)+1)
	args = append(args, s.cursor)
	for _, t := range topics {
		args = append(args, t)
	}
	query := "SELECT id, topic, payload FROM realtime_messages WHERE id > ? AND topic IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(topics)), ",") + ") ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to poll realtime_messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			topic   string
			payload []byte
		)
		if err := rows.Scan(&id, &topic, &payload); err != nil {
			return err
		}
		s.cursor = id
		deliver(topic, payload)
	}
	return rows.Err()
}

// Close implements [Bridge]. The database belongs to the caller and stays open.
func (s *SQLiteBridge) Close() error { return nil }
