package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// loopback is an in-memory Bridge shared by several brokers.
type loopback struct {
	mu        sync.Mutex
	listeners []func(topic string, data []byte)
	ready     chan struct{}
	published int
}

type loopbackEnd struct {
	bus *loopback
}

func newLoopback() *loopback {
	return &loopback{ready: make(chan struct{}, 8)}
}

func (l *loopback) end() *loopbackEnd { return &loopbackEnd{bus: l} }

func (e *loopbackEnd) Name() string { return "loopback" }

func (e *loopbackEnd) Publish(_ context.Context, topic string, data []byte) error {
	e.bus.mu.Lock()
	e.bus.published++
	listeners := append([]func(string, []byte){}, e.bus.listeners...)
	e.bus.mu.Unlock()

	for _, fn := range listeners {
		fn(topic, data)
	}
	return nil
}

func (e *loopbackEnd) Listen(ctx context.Context, _ []string, deliver func(string, []byte)) error {
	e.bus.mu.Lock()
	e.bus.listeners = append(e.bus.listeners, deliver)
	e.bus.mu.Unlock()
	e.bus.ready <- struct{}{}

	<-ctx.Done()
	return ctx.Err()
}

func (e *loopbackEnd) Close() error { return nil }

func receive[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected value %+v", v)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func event(kind models.EventKind, owner, id string) models.ChangeEvent {
	return models.ChangeEvent{Kind: kind, Table: models.TableBookmarks, Owner: owner, ID: id, At: time.Now()}
}

func TestBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("Subscribe validates table and filter", func(t *testing.T) {
		b := NewBroker(nil, nil)
		defer b.Close()

		if _, err := b.Subscribe("accounts", models.ByOwner("u1"), models.MaskAll); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown table, got %v", err)
		}
		if _, err := b.Subscribe(models.TableBookmarks, models.Filter{}, models.MaskAll); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for ownerless filter, got %v", err)
		}
	})

	t.Run("Owner scoping", func(t *testing.T) {
		b := NewBroker(nil, nil)
		defer b.Close()

		mine, err := b.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskAll)
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer mine.Close()

		b.Publish(ctx, event(models.EventInsert, "u2", "x"))
		expectNone(t, mine)

		b.Publish(ctx, event(models.EventDelete, "u1", "y"))
		if got := receive(t, mine); got.ID != "y" || got.Kind != models.EventDelete {
			t.Errorf("unexpected event %+v", got)
		}
	})

	t.Run("Mask", func(t *testing.T) {
		b := NewBroker(nil, nil)
		defer b.Close()

		inserts, _ := b.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskInsert)
		defer inserts.Close()

		b.Publish(ctx, event(models.EventUpdate, "u1", "a"))
		expectNone(t, inserts)
		b.Publish(ctx, event(models.EventInsert, "u1", "b"))
		receive(t, inserts)
	})

	t.Run("Bridge carries changes between brokers", func(t *testing.T) {
		bus := newLoopback()
		a := NewBroker(bus.end(), nil)
		b := NewBroker(bus.end(), nil)
		a.Start(ctx)
		b.Start(ctx)
		defer a.Close()
		defer b.Close()
		<-bus.ready
		<-bus.ready

		onA, _ := a.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskAll)
		onB, _ := b.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskAll)
		defer onA.Close()
		defer onB.Close()

		a.Publish(ctx, event(models.EventInsert, "u1", "z"))

		if got := receive(t, onB); got.ID != "z" {
			t.Errorf("remote broker got %+v", got)
		}
		receive(t, onA)
		expectNone(t, onA)
	})

	t.Run("Session signals only come from peers", func(t *testing.T) {
		bus := newLoopback()
		a := NewBroker(bus.end(), nil)
		b := NewBroker(bus.end(), nil)
		a.Start(ctx)
		b.Start(ctx)
		defer a.Close()
		defer b.Close()
		<-bus.ready
		<-bus.ready

		sigA := a.SubscribeSessions()
		sigB := b.SubscribeSessions()
		defer sigA.Close()
		defer sigB.Close()

		a.AnnounceSession(ctx, SessionSignal{AccountID: "u1", SignedIn: false})

		if got := receive(t, sigB); got.AccountID != "u1" || got.SignedIn {
			t.Errorf("unexpected signal %+v", got)
		}
		expectNone(t, sigA)
	})

	t.Run("Malformed messages are dropped", func(t *testing.T) {
		b := NewBroker(nil, nil)
		defer b.Close()

		sub, _ := b.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskAll)
		defer sub.Close()

		b.receive(TopicChanges, []byte("not json"))
		b.receive(TopicChanges, []byte(`{"origin":"peer"}`))
		expectNone(t, sub)
	})

	t.Run("Close closes subscriptions", func(t *testing.T) {
		b := NewBroker(nil, nil)
		sub, _ := b.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskAll)

		if err := b.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, ok := <-sub.C(); ok {
			t.Error("expected closed subscription")
		}
	})
}

func TestNewBridge(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		bridge, err := NewBridge(context.Background(), shared.RealtimeConfig{Driver: "memory"}, nil)
		if err != nil || bridge != nil {
			t.Fatalf("expected nil bridge, got %v, %v", bridge, err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewBridge(context.Background(), shared.RealtimeConfig{Driver: "kafka"}, nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unreachable redis", func(t *testing.T) {
		_, err := NewRedisBridge(context.Background(), RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("unreachable nats", func(t *testing.T) {
		_, err := NewNATSBridge(NATSOptions{URL: "nats://127.0.0.1:1", Timeout: 200 * time.Millisecond})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestBridgeNaming(t *testing.T) {
	r := newRedisBridge(nil, "")
	if got := r.channel(TopicChanges); got != "linkbox:bookmarks" {
		t.Errorf("redis channel = %q", got)
	}
	if got := r.topic("linkbox:sessions"); got != TopicSessions {
		t.Errorf("redis topic = %q", got)
	}

	n := &NATSBridge{prefix: "app"}
	if got := n.subject(TopicChanges); got != "app.bookmarks" {
		t.Errorf("nats subject = %q", got)
	}
	if got := n.topic("app.sessions"); got != TopicSessions {
		t.Errorf("nats topic = %q", got)
	}
}
