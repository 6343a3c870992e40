package realtime

import (
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultBuffer is the per-subscriber channel capacity used when none is given.
const DefaultBuffer = 16

// Subscription is a cancellable handle on a stream of values.
//
// Once Close returns, C yields no further values and is closed.
type Subscription[T any] struct {
	id    uint64
	ch    chan T
	match func(T) bool
	hub   *Hub[T]
	once  sync.Once
}

// C returns the receive side of the subscription.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() error {
	s.once.Do(func() { s.hub.remove(s) })
	return nil
}

// Hub fans published values out to matching subscribers.
//
// Sends never block: a subscriber whose buffer is full misses the value,
// unless the hub was built with [NewLatestHub].
type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription[T]
	next   uint64
	buffer int
	latest bool
	closed bool
	logger *log.Logger
	name   string
}

// NewHub creates a hub whose subscribers buffer up to buffer values.
func NewHub[T any](name string, buffer int, logger *log.Logger) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hub[T]{
		subs:   make(map[uint64]*Subscription[T]),
		buffer: buffer,
		logger: logger,
		name:   name,
	}
}

// NewLatestHub creates a hub for state signals. Each subscriber holds a single
// value and a publish replaces any value not yet received, so the newest state
// always arrives.
func NewLatestHub[T any](name string, logger *log.Logger) *Hub[T] {
	h := NewHub[T](name, 1, logger)
	h.latest = true
	return h
}

// Subscribe registers a subscriber. A nil match receives every value.
//
// Subscribing to a closed hub returns a handle whose channel is already closed.
func (h *Hub[T]) Subscribe(match func(T) bool) *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	sub := &Subscription[T]{id: h.next, ch: make(chan T, h.buffer), match: match, hub: h}
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Publish delivers v to every matching subscriber and reports how many received it.
func (h *Hub[T]) Publish(v T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if sub.match != nil && !sub.match(v) {
			continue
		}
		if h.send(sub, v) {
			delivered++
			continue
		}
		h.logger.Warn("subscriber buffer full, dropping value", "hub", h.name, "subscriber", sub.id)
	}
	return delivered
}

func (h *Hub[T]) send(sub *Subscription[T], v T) bool {
	select {
	case sub.ch <- v:
		return true
	default:
	}
	if !h.latest {
		return false
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- v:
		return true
	default:
		return false
	}
}

// Len returns the number of open subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription and rejects new ones.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		drainAndClose(sub.ch)
		delete(h.subs, id)
	}
}

func (h *Hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	drainAndClose(sub.ch)
}

// drainAndClose discards buffered values so nothing is received after close.
func drainAndClose[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
