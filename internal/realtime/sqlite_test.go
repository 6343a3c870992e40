package realtime

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

func openRelayDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: path, MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteBridge(t *testing.T) {
	ctx := context.Background()
	fast := SQLiteOptions{PollInterval: 5 * time.Millisecond}

	t.Run("requires a database", func(t *testing.T) {
		if _, err := NewSQLiteBridge(ctx, nil, fast); err == nil {
			t.Error("expected an error without a database")
		}
	})

	t.Run("delivers only messages written after construction", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "relay.db")
		writer, err := NewSQLiteBridge(ctx, openRelayDB(t, path), fast)
		if err != nil {
			t.Fatalf("NewSQLiteBridge() error = %v", err)
		}
		if err := writer.Publish(ctx, TopicChanges, []byte("old")); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		reader, err := NewSQLiteBridge(ctx, openRelayDB(t, path), fast)
		if err != nil {
			t.Fatalf("NewSQLiteBridge() error = %v", err)
		}

		type msg struct{ topic, data string }
		got := make(chan msg, 8)
		lctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- reader.Listen(lctx, []string{TopicChanges, TopicSessions}, func(topic string, data []byte) {
				got <- msg{topic, string(data)}
			})
		}()

		for _, m := range []msg{{TopicChanges, "a"}, {"other", "ignored"}, {TopicSessions, "b"}} {
			if err := writer.Publish(ctx, m.topic, []byte(m.data)); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
		}

		for _, want := range []msg{{TopicChanges, "a"}, {TopicSessions, "b"}} {
			select {
			case m := <-got:
				if m != want {
					t.Errorf("got %+v, want %+v", m, want)
				}
			case <-time.After(time.Second):
				t.Fatalf("timed out waiting for %+v", want)
			}
		}

		cancel()
		<-done
		select {
		case m := <-got:
			t.Errorf("unexpected message %+v", m)
		default:
		}
	})

	t.Run("prunes expired messages", func(t *testing.T) {
		db := openRelayDB(t, filepath.Join(t.TempDir(), "relay.db"))
		b, err := NewSQLiteBridge(ctx, db, SQLiteOptions{Retention: time.Nanosecond})
		if err != nil {
			t.Fatalf("NewSQLiteBridge() error = %v", err)
		}
		for range 3 {
			if err := b.Publish(ctx, TopicChanges, []byte("x")); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
			time.Sleep(time.Millisecond)
		}

		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM realtime_messages").Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n > 1 {
			t.Errorf("expected expired rows pruned, %d left", n)
		}
	})

	t.Run("brokers over one file exchange changes and sessions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "relay.db")
		cfg := shared.RealtimeConfig{Driver: "sqlite", PollInterval: shared.Duration{Duration: 5 * time.Millisecond}}

		a, err := NewBrokerFromConfig(ctx, cfg, openRelayDB(t, path), nil)
		if err != nil {
			t.Fatalf("NewBrokerFromConfig() error = %v", err)
		}
		defer a.Close()
		b, err := NewBrokerFromConfig(ctx, cfg, openRelayDB(t, path), nil)
		if err != nil {
			t.Fatalf("NewBrokerFromConfig() error = %v", err)
		}
		defer b.Close()

		if !a.Bridged() {
			t.Fatal("expected the sqlite driver to attach a bridge")
		}

		changes, _ := a.Subscribe(models.TableBookmarks, models.ByOwner("u1"), models.MaskAll)
		sessions := a.SubscribeSessions()

		b.Publish(ctx, models.ChangeEvent{Kind: models.EventInsert, Table: models.TableBookmarks, Owner: "u1", ID: "b1"})
		b.AnnounceSession(ctx, SessionSignal{SignedIn: false})

		select {
		case e := <-changes.C():
			if e.ID != "b1" {
				t.Errorf("unexpected change %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("change never crossed brokers")
		}
		select {
		case sig := <-sessions.C():
			if sig.SignedIn {
				t.Errorf("unexpected signal %+v", sig)
			}
		case <-time.After(time.Second):
			t.Fatal("session signal never crossed brokers")
		}
	})
}
