package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/formatter"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
	tu "github.com/desertthunder/linkbox/internal/testing"
)

var quiet = log.New(io.Discard)

func drain(ch chan ProgressUpdate) {
	go func() {
		for range ch {
		}
	}()
}

func entries(titles ...string) []formatter.Entry {
	out := make([]formatter.Entry, len(titles))
	for i, title := range titles {
		out[i] = formatter.Entry{Title: title, URL: "https://" + title + ".example"}
	}
	return out
}

func listTitles(bs []models.Bookmark) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Title
	}
	return out
}

func TestEngine_Import(t *testing.T) {
	session := tu.NewSession("u1")

	t.Run("creates entries in file order", func(t *testing.T) {
		store := tu.NewFakeStore()
		engine := NewEngine(store, quiet)

		result, err := engine.Import(context.Background(), session, entries("a", "b", "c"), ImportOpts{RateLimit: 1000}, nil)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.Total != 3 || result.Created != 3 || result.Failed != 0 {
			t.Errorf("unexpected result %+v", result)
		}

		got := listTitles(store.Rows("u1"))
		want := []string{"a", "b", "c"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("list = %v, want %v", got, want)
			}
		}
		for i, res := range result.Results {
			if res.Bookmark == nil || res.Bookmark.Title != want[i] {
				t.Errorf("result %d not aligned with entry: %+v", i, res)
			}
		}
	})

	t.Run("invalid entries fail without stopping the run", func(t *testing.T) {
		store := tu.NewFakeStore()
		engine := NewEngine(store, quiet)
		in := []formatter.Entry{{Title: "ok", URL: "https://ok"}, {Title: "", URL: "https://blank"}}

		result, err := engine.Import(context.Background(), session, in, ImportOpts{RateLimit: 1000}, nil)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.Created != 1 || result.Failed != 1 {
			t.Errorf("Created=%d Failed=%d, want 1 and 1", result.Created, result.Failed)
		}
		if !errors.Is(result.Results[1].Error, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", result.Results[1].Error)
		}
	})

	t.Run("skips duplicates", func(t *testing.T) {
		store := tu.NewFakeStore()
		store.Seed("u1", "old", "https://a.example/", time.Unix(1, 0))
		engine := NewEngine(store, quiet)

		result, err := engine.Import(context.Background(), session, entries("a", "b", "b"), ImportOpts{RateLimit: 1000, SkipDuplicates: true}, nil)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.Created != 1 || result.Skipped != 2 {
			t.Errorf("Created=%d Skipped=%d, want 1 and 2", result.Created, result.Skipped)
		}
		if n := len(store.Rows("u1")); n != 2 {
			t.Errorf("expected 2 rows, got %d", n)
		}
	})

	t.Run("requires a session", func(t *testing.T) {
		engine := NewEngine(tu.NewFakeStore(), quiet)
		if _, err := engine.Import(context.Background(), nil, entries("a"), ImportOpts{}, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("requires a store", func(t *testing.T) {
		engine := NewEngine(nil, quiet)
		if _, err := engine.Import(context.Background(), session, nil, ImportOpts{}, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("cancellation stops the run", func(t *testing.T) {
		store := tu.NewFakeStore()
		engine := NewEngine(store, quiet)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.Import(ctx, session, entries("a", "b"), ImportOpts{RateLimit: 1000}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.Created != 0 || store.Calls(tu.OpInsert) != 0 {
			t.Errorf("expected no inserts, got %d", store.Calls(tu.OpInsert))
		}
	})

	t.Run("rate limit paces inserts", func(t *testing.T) {
		engine := NewEngine(tu.NewFakeStore(), quiet)
		start := time.Now()

		if _, err := engine.Import(context.Background(), session, entries("a", "b", "c"), ImportOpts{RateLimit: 20}, nil); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected at least 80ms for 3 inserts at 20/s, took %v", elapsed)
		}
	})

	t.Run("inserts publish change events", func(t *testing.T) {
		store := tu.NewFakeStore()
		sub, err := store.Subscribe(context.Background(), models.TableBookmarks, models.ByOwner("u1"), models.MaskInsert)
		if err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
		defer sub.Close()

		engine := NewEngine(store, quiet)
		if _, err := engine.Import(context.Background(), session, entries("a", "b"), ImportOpts{RateLimit: 1000}, nil); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		for i := 0; i < 2; i++ {
			select {
			case e := <-sub.C():
				if e.Kind != models.EventInsert {
					t.Errorf("unexpected event %+v", e)
				}
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for insert event")
			}
		}
	})
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	engine := NewEngine(tu.NewFakeStore(), quiet)
	full := make(chan ProgressUpdate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := engine.Import(context.Background(), tu.NewSession("u1"), entries("a", "b"), ImportOpts{RateLimit: 1000}, full); err != nil {
			t.Errorf("Import() error = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Import blocked on an unread progress channel")
	}
}

func TestProgressUpdate_Messages(t *testing.T) {
	engine := NewEngine(tu.NewFakeStore(), quiet)
	ch := make(chan ProgressUpdate, 16)

	if _, err := engine.Import(context.Background(), tu.NewSession("u1"), entries("a", "b"), ImportOpts{RateLimit: 1000}, ch); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	close(ch)

	var updates []ProgressUpdate
	for u := range ch {
		updates = append(updates, u)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Phase != ImportBookmarks || updates[0].Message != "[1/2] b" {
		t.Errorf("unexpected first update %+v", updates[0])
	}
	if ImportBookmarks.String() != "import_bookmarks" {
		t.Errorf("Phase.String() = %q", ImportBookmarks.String())
	}
}
