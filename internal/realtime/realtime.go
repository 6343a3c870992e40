package realtime

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/shared"
)

// NewBridge builds the bridge selected by cfg.Driver. The sqlite driver (the default) relays
// through db. The memory driver returns a nil bridge and keeps changes inside one process.
func NewBridge(ctx context.Context, cfg shared.RealtimeConfig, db *sql.DB) (Bridge, error) {
	switch cfg.Driver {
	case "", "sqlite":
		bridge, err := NewSQLiteBridge(ctx, db, SQLiteOptions{PollInterval: cfg.PollInterval.Duration})
		if err != nil {
			return nil, err
		}
		return bridge, nil
	case "memory":
		return nil, nil
	case "redis":
		bridge, err := NewRedisBridge(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return bridge, nil
	case "nats":
		bridge, err := NewNATSBridge(NATSOptions{URL: cfg.NATSURL, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		return bridge, nil
	default:
		return nil, fmt.Errorf("%w: unknown realtime driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// NewBrokerFromConfig builds the bridge for cfg and wraps it in a started [Broker].
func NewBrokerFromConfig(ctx context.Context, cfg shared.RealtimeConfig, db *sql.DB, logger *log.Logger) (*Broker, error) {
	bridge, err := NewBridge(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	broker := NewBroker(bridge, logger)
	broker.Start(ctx)
	return broker, nil
}
