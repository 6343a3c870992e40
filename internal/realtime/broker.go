package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// Bridge moves encoded messages between processes.
type Bridge interface {
	// Publish sends data on topic.
	Publish(ctx context.Context, topic string, data []byte) error
	// Listen blocks delivering messages on topics until ctx is done or the transport fails.
	Listen(ctx context.Context, topics []string, deliver func(topic string, data []byte)) error
	// Close releases the underlying connection.
	Close() error
	// Name identifies the transport in logs.
	Name() string
}

// Broker publishes bookmark changes to local subscribers and, through an optional
// [Bridge], to other processes sharing the same database.
type Broker struct {
	origin   string
	changes  *Hub[models.ChangeEvent]
	sessions *Hub[SessionSignal]
	bridge   Bridge
	logger   *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewBroker creates a broker. bridge may be nil for a single-process setup.
func NewBroker(bridge Bridge, logger *log.Logger) *Broker {
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "component", "broker")
	return &Broker{
		origin:   shared.GenerateID(),
		changes:  NewHub[models.ChangeEvent]("changes", DefaultBuffer, logger),
		sessions: NewLatestHub[SessionSignal]("sessions", logger),
		bridge:   bridge,
		logger:   logger,
	}
}

// Subscribe opens a change subscription for rows matching filter whose kind is in mask.
func (b *Broker) Subscribe(table string, filter models.Filter, mask models.EventMask) (*Subscription[models.ChangeEvent], error) {
	if table != models.TableBookmarks {
		return nil, fmt.Errorf("%w: cannot subscribe to table %q", shared.ErrInvalidInput, table)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if mask == 0 {
		mask = models.MaskAll
	}

	return b.changes.Subscribe(func(e models.ChangeEvent) bool {
		return e.Table == table && mask.Has(e.Kind) && filter.Matches(e)
	}), nil
}

// Publish delivers e locally and forwards it to the bridge.
// Bridge failures are logged; local delivery has already happened.
func (b *Broker) Publish(ctx context.Context, e models.ChangeEvent) {
	n := b.changes.Publish(e)
	b.logger.Debug("change published", "event", e.String(), "local", n)
	b.forward(ctx, TopicChanges, envelope{Origin: b.origin, Change: &e})
}

// SubscribeSessions receives session signals sent by other processes.
func (b *Broker) SubscribeSessions() *Subscription[SessionSignal] {
	return b.sessions.Subscribe(nil)
}

// AnnounceSession tells other processes that the local session changed.
// It is a no-op without a bridge.
func (b *Broker) AnnounceSession(ctx context.Context, sig SessionSignal) {
	b.forward(ctx, TopicSessions, envelope{Origin: b.origin, Session: &sig})
}

// Bridged reports whether a cross-process transport is attached.
func (b *Broker) Bridged() bool {
	return b.bridge != nil
}

// Start runs the bridge listener in the background. It is a no-op without a bridge.
func (b *Broker) Start(ctx context.Context) {
	if b.bridge == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true

	go func() {
		defer close(b.done)
		b.logger.Info("listening for remote changes", "bridge", b.bridge.Name())
		err := b.bridge.Listen(ctx, []string{TopicChanges, TopicSessions}, b.receive)
		if err != nil && ctx.Err() == nil {
			b.logger.Error("bridge listener stopped", "bridge", b.bridge.Name(), "error", err)
		}
	}()
}

// Close stops the listener, closes every subscription and the bridge.
func (b *Broker) Close() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.running = false
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	b.changes.Close()
	b.sessions.Close()

	if b.bridge != nil {
		return b.bridge.Close()
	}
	return nil
}

func (b *Broker) forward(ctx context.Context, topic string, env envelope) {
	if b.bridge == nil {
		return
	}

	data, err := encode(env)
	if err != nil {
		b.logger.Error("failed to encode message", "topic", topic, "error", err)
		return
	}
	if err := b.bridge.Publish(ctx, topic, data); err != nil {
		b.logger.Warn("failed to forward message", "topic", topic, "bridge", b.bridge.Name(), "error", err)
	}
}

func (b *Broker) receive(topic string, data []byte) {
	env, err := decode(data)
	if err != nil {
		b.logger.Warn("dropping malformed message", "topic", topic, "error", err)
		return
	}
	if env.Origin == b.origin {
		return
	}

	switch {
	case env.Change != nil:
		b.changes.Publish(*env.Change)
	case env.Session != nil:
		b.sessions.Publish(*env.Session)
	}
}
