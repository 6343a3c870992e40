package realtime

import (
	"sync"
	"testing"
	"time"
)

func TestHub(t *testing.T) {
	t.Run("Publish respects match", func(t *testing.T) {
		hub := NewHub[int]("test", 4, nil)
		evens := hub.Subscribe(func(v int) bool { return v%2 == 0 })
		all := hub.Subscribe(nil)
		defer evens.Close()
		defer all.Close()

		for i := 1; i <= 4; i++ {
			hub.Publish(i)
		}

		if got := len(evens.C()); got != 2 {
			t.Errorf("expected 2 even values, got %d", got)
		}
		if got := len(all.C()); got != 4 {
			t.Errorf("expected 4 values, got %d", got)
		}
	})

	t.Run("Full buffer drops instead of blocking", func(t *testing.T) {
		hub := NewHub[int]("test", 1, nil)
		sub := hub.Subscribe(nil)
		defer sub.Close()

		done := make(chan struct{})
		go func() {
			hub.Publish(1)
			hub.Publish(2)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a full subscriber")
		}
		if v := <-sub.C(); v != 1 {
			t.Errorf("expected first value to be kept, got %d", v)
		}
	})

	t.Run("Nothing received after Close", func(t *testing.T) {
		hub := NewHub[int]("test", 4, nil)
		sub := hub.Subscribe(nil)
		hub.Publish(1)
		hub.Publish(2)

		if err := sub.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		hub.Publish(3)

		if v, ok := <-sub.C(); ok {
			t.Errorf("received %d after Close", v)
		}
		if hub.Len() != 0 {
			t.Errorf("expected no subscribers, got %d", hub.Len())
		}
		if err := sub.Close(); err != nil {
			t.Errorf("second Close() error = %v", err)
		}
	})

	t.Run("Latest hub keeps the newest value", func(t *testing.T) {
		hub := NewLatestHub[int]("test", nil)
		sub := hub.Subscribe(nil)
		defer sub.Close()

		for i := 1; i <= 3; i++ {
			if n := hub.Publish(i); n != 1 {
				t.Fatalf("Publish(%d) delivered to %d subscribers", i, n)
			}
		}

		if got := <-sub.C(); got != 3 {
			t.Errorf("expected the last value 3, got %d", got)
		}
		select {
		case v := <-sub.C():
			t.Errorf("stale value %d still buffered", v)
		default:
		}
	})

	t.Run("Close races with Publish", func(t *testing.T) {
		hub := NewHub[int]("test", 1, nil)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			sub := hub.Subscribe(nil)
			wg.Add(2)
			go func() { defer wg.Done(); hub.Publish(i) }()
			go func() { defer wg.Done(); sub.Close() }()
		}
		wg.Wait()
	})

	t.Run("Hub Close", func(t *testing.T) {
		hub := NewHub[int]("test", 1, nil)
		sub := hub.Subscribe(nil)
		hub.Close()

		if _, ok := <-sub.C(); ok {
			t.Error("expected closed channel after hub Close")
		}

		late := hub.Subscribe(nil)
		if _, ok := <-late.C(); ok {
			t.Error("expected subscriptions on a closed hub to be closed")
		}
		late.Close()
		sub.Close()
	})
}
