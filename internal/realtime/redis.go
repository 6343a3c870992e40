package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/linkbox/internal/shared"
)

// RedisOptions configures a [RedisBridge].
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// RedisBridge mirrors broker traffic over Redis pub/sub channels named "<prefix>:<topic>".
type RedisBridge struct {
	client *redis.Client
	prefix string
}

// NewRedisBridge connects to Redis and verifies the connection with a single ping.
func NewRedisBridge(ctx context.Context, opts RedisOptions) (*RedisBridge, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, opts.Addr, err)
	}

	return newRedisBridge(client, opts.Prefix), nil
}

func newRedisBridge(client *redis.Client, prefix string) *RedisBridge {
	if prefix == "" {
		prefix = "linkbox"
	}
	return &RedisBridge{client: client, prefix: prefix}
}

// Name implements [Bridge].
func (r *RedisBridge) Name() string { return "redis" }

// Publish implements [Bridge].
func (r *RedisBridge) Publish(ctx context.Context, topic string, data []byte) error {
	if err := r.client.Publish(ctx, r.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Listen implements [Bridge].
func (r *RedisBridge) Listen(ctx context.Context, topics []string, deliver func(topic string, data []byte)) error {
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = r.channel(t)
	}

	pubsub := r.client.Subscribe(ctx, channels...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to redis: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("%w: redis subscription closed", shared.ErrServiceUnavailable)
			}
			deliver(r.topic(msg.Channel), []byte(msg.Payload))
		}
	}
}

// Close implements [Bridge].
func (r *RedisBridge) Close() error {
	return r.client.Close()
}

func (r *RedisBridge) channel(topic string) string {
	return r.prefix + ":" + topic
}

func (r *RedisBridge) topic(channel string) string {
	return strings.TrimPrefix(channel, r.prefix+":")
}
