package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/desertthunder/linkbox/internal/shared"
)

// NATSOptions configures a [NATSBridge].
type NATSOptions struct {
	URL     string
	Prefix  string
	Timeout time.Duration
}

// NATSBridge mirrors broker traffic over core NATS subjects named "<prefix>.<topic>".
type NATSBridge struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSBridge connects to the NATS server at opts.URL.
func NewNATSBridge(opts NATSOptions) (*NATSBridge, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	nc, err := nats.Connect(opts.URL,
		nats.Name("linkbox"),
		nats.Timeout(opts.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: nats at %s: %v", shared.ErrServiceUnavailable, opts.URL, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "linkbox"
	}
	return &NATSBridge{nc: nc, prefix: prefix}, nil
}

// Name implements [Bridge].
func (n *NATSBridge) Name() string { return "nats" }

// Publish implements [Bridge].
func (n *NATSBridge) Publish(_ context.Context, topic string, data []byte) error {
	if err := n.nc.Publish(n.subject(topic), data); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}
	return nil
}

// Listen implements [Bridge].
func (n *NATSBridge) Listen(ctx context.Context, topics []string, deliver func(topic string, data []byte)) error {
	subs := make([]*nats.Subscription, 0, len(topics))
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	for _, t := range topics {
		sub, err := n.nc.Subscribe(n.subject(t), func(msg *nats.Msg) {
			deliver(n.topic(msg.Subject), msg.Data)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to nats subject %s: %w", n.subject(t), err)
		}
		subs = append(subs, sub)
	}

	if err := n.nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush nats subscriptions: %w", err)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Close implements [Bridge].
func (n *NATSBridge) Close() error {
	n.nc.Close()
	return nil
}

func (n *NATSBridge) subject(topic string) string {
	return n.prefix + "." + topic
}

func (n *NATSBridge) topic(subject string) string {
	return strings.TrimPrefix(subject, n.prefix+".")
}
