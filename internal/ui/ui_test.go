package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/dashboard"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
	tu "github.com/desertthunder/linkbox/internal/testing"
)

var quiet = log.New(io.Discard)

// harness drives a [Model] the way a tea.Program would: commands run on their own
// goroutines and their messages are fed back into Update.
type harness struct {
	t       *testing.T
	m       *Model
	store   *tu.FakeStore
	auth    *tu.FakeAuth
	pending []chan tea.Msg
	quit    bool
}

func newHarness(t *testing.T, auth *tu.FakeAuth, store *tu.FakeStore) *harness {
	t.Helper()
	h := &harness{t: t, store: store, auth: auth}
	h.m = NewModel(context.Background(), Options{Auth: auth, Store: store, Logger: quiet})
	t.Cleanup(h.m.Close)

	h.run(h.m.Init())
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.settle()
	return h
}

func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	h.pending = append(h.pending, ch)
}

func (h *harness) send(msg tea.Msg) {
	_, cmd := h.m.Update(msg)
	h.run(cmd)
}

func (h *harness) deliver(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, cmd := range msg {
			h.run(cmd)
		}
	case tea.QuitMsg:
		h.quit = true
	case Msg:
		h.send(msg)
	}
}

// settle delivers finished commands until none finishes for a while.
// Commands blocked on a feed or watch stay pending.
func (h *harness) settle() {
	for idle := 0; idle < 5; {
		progressed := false
		for i := 0; i < len(h.pending); i++ {
			select {
			case msg := <-h.pending[i]:
				h.pending = append(h.pending[:i], h.pending[i+1:]...)
				i--
				h.deliver(msg)
				progressed = true
			default:
			}
		}
		if progressed {
			idle = 0
			continue
		}
		idle++
		time.Sleep(10 * time.Millisecond)
	}
}

func (h *harness) key(k tea.KeyType) {
	h.send(tea.KeyMsg{Type: k})
	h.settle()
}

func (h *harness) press(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	h.settle()
}

// typeText types s one rune at a time into the focused input.
func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	h.settle()
}

func (h *harness) selectTitle(title string) {
	h.t.Helper()
	for i, item := range h.m.list.Items() {
		if item.(bookmarkItem).bookmark.Title == title {
			h.m.list.Select(i)
			return
		}
	}
	h.t.Fatalf("no listed bookmark titled %q", title)
}

func (h *harness) assertTitles(want ...string) {
	h.t.Helper()
	items := h.m.list.Items()
	got := make([]string, len(items))
	for i, item := range items {
		got[i] = item.(bookmarkItem).bookmark.Title
	}
	if len(got) != len(want) {
		h.t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			h.t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func (h *harness) assertView(want ViewState) {
	h.t.Helper()
	if h.m.view != want {
		h.t.Fatalf("view = %v, want %v", h.m.view, want)
	}
}

func seeded(owner string) *tu.FakeStore {
	store := tu.NewFakeStore()
	store.Seed(owner, "A", "https://a.example", time.Unix(1, 0))
	store.Seed(owner, "B", "https://b.example", time.Unix(2, 0))
	return store
}

func TestModel(t *testing.T) {
	t.Run("Signed out shows entry view without store calls", func(t *testing.T) {
		h := newHarness(t, tu.NewFakeAuth(nil), seeded("u1"))
		h.assertView(EntryView)

		h.press("a")
		h.press("d")
		h.press("r")
		if n := h.store.TotalCalls(); n != 0 {
			t.Errorf("expected no store calls while signed out, got %d", n)
		}
		if h.store.Subscribers() != 0 {
			t.Errorf("expected no subscriptions, got %d", h.store.Subscribers())
		}
	})

	t.Run("Resolution failure redirects and shows the error", func(t *testing.T) {
		auth := tu.NewFakeAuth(tu.NewSession("u1"))
		auth.SetError(shared.ErrServiceUnavailable)

		h := newHarness(t, auth, seeded("u1"))
		h.assertView(EntryView)
		if h.m.status == "" {
			t.Error("expected the resolution error in the status line")
		}
		if n := h.store.TotalCalls(); n != 0 {
			t.Errorf("expected no store calls, got %d", n)
		}
	})

	t.Run("Signed in lists owner rows newest first", func(t *testing.T) {
		store := seeded("u1")
		store.Seed("u2", "other", "https://other.example", time.Unix(3, 0))

		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)
		h.assertView(ListView)
		h.assertTitles("B", "A")
		if store.Subscribers() != 1 {
			t.Errorf("expected one live subscription, got %d", store.Subscribers())
		}
	})

	t.Run("Remote change triggers a re-fetch", func(t *testing.T) {
		store := seeded("u1")
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)
		before := store.Calls(tu.OpQuery)

		c := store.Seed("u1", "C", "https://c.example", time.Unix(3, 0))
		store.Emit(models.ChangeEvent{Kind: models.EventInsert, Table: models.TableBookmarks, Owner: "u1", ID: c.ID})
		h.settle()

		h.assertTitles("C", "B", "A")
		if got := store.Calls(tu.OpQuery); got != before+1 {
			t.Errorf("expected one re-fetch, got %d", got-before)
		}

		store.Emit(models.ChangeEvent{Kind: models.EventInsert, Table: models.TableBookmarks, Owner: "u2", ID: "x"})
		h.settle()
		if got := store.Calls(tu.OpQuery); got != before+1 {
			t.Errorf("event for another owner caused a fetch")
		}
	})

	t.Run("Scenario", func(t *testing.T) {
		store := seeded("u1")
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)
		h.assertTitles("B", "A")

		h.press("a")
		h.typeText("C")
		h.key(tea.KeyTab)
		h.typeText("https://c.example")
		h.key(tea.KeyEnter)
		h.assertTitles("C", "B", "A")
		if h.m.title.Value() != "" || h.m.url.Value() != "" {
			t.Errorf("expected cleared fields, got %q %q", h.m.title.Value(), h.m.url.Value())
		}

		h.key(tea.KeyEsc)
		h.selectTitle("B")
		h.press("d")
		h.assertTitles("C", "A")

		h.selectTitle("A")
		h.press("e")
		if h.m.form.State() != dashboard.Editing {
			t.Fatalf("expected Editing, got %v", h.m.form.State())
		}
		if h.m.title.Value() != "A" {
			t.Fatalf("expected title input loaded, got %q", h.m.title.Value())
		}
		h.m.title.SetValue("X")
		h.key(tea.KeyEnter)

		h.assertTitles("C", "X")
		if h.m.form.State() != dashboard.Idle {
			t.Errorf("expected Idle after update, got %v", h.m.form.State())
		}
		if got := store.Rows("u1")[1].CreatedAt; !got.Equal(time.Unix(1, 0)) {
			t.Errorf("update changed created_at to %v", got)
		}
	})

	t.Run("Blank create makes no backend call", func(t *testing.T) {
		store := seeded("u1")
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)

		h.press("a")
		h.typeText("   ")
		h.key(tea.KeyEnter)

		if store.Calls(tu.OpInsert) != 0 {
			t.Errorf("expected no insert, got %d", store.Calls(tu.OpInsert))
		}
		h.assertTitles("B", "A")
		if h.m.status == "" {
			t.Error("expected a hint in the status line")
		}
	})

	t.Run("Create failure keeps fields and shows error", func(t *testing.T) {
		store := seeded("u1")
		store.Fail(tu.OpInsert, shared.ErrServiceUnavailable)
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)

		h.press("a")
		h.typeText("C")
		h.key(tea.KeyTab)
		h.typeText("https://c.example")
		h.key(tea.KeyEnter)

		if h.m.title.Value() != "C" || h.m.url.Value() != "https://c.example" {
			t.Errorf("fields were cleared: %q %q", h.m.title.Value(), h.m.url.Value())
		}
		if h.m.tone.GetForeground() != styles.err.GetForeground() || h.m.status == "" {
			t.Errorf("expected an error status, got %q", h.m.status)
		}
		h.assertTitles("B", "A")
	})

	t.Run("Update failure stays Editing", func(t *testing.T) {
		store := seeded("u1")
		store.Fail(tu.OpUpdate, shared.ErrServiceUnavailable)
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)

		h.selectTitle("A")
		h.press("e")
		h.m.title.SetValue("X")
		h.key(tea.KeyEnter)

		if h.m.form.State() != dashboard.Editing {
			t.Errorf("expected Editing, got %v", h.m.form.State())
		}
		if h.m.title.Value() != "X" {
			t.Errorf("title input = %q", h.m.title.Value())
		}
		h.assertTitles("B", "A")
	})

	t.Run("Cancel edit is local", func(t *testing.T) {
		store := seeded("u1")
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)
		before := store.TotalCalls()

		h.selectTitle("B")
		h.press("e")
		h.key(tea.KeyEsc)

		if h.m.form.State() != dashboard.Idle || h.m.title.Value() != "" {
			t.Errorf("expected Idle with empty fields, got %v %q", h.m.form.State(), h.m.title.Value())
		}
		if store.TotalCalls() != before {
			t.Errorf("cancel made %d store calls", store.TotalCalls()-before)
		}
	})

	t.Run("Delete failure still re-fetches", func(t *testing.T) {
		store := seeded("u1")
		store.Fail(tu.OpDelete, shared.ErrServiceUnavailable)
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), store)
		before := store.Calls(tu.OpQuery)

		h.selectTitle("B")
		h.press("d")

		if store.Calls(tu.OpQuery) != before+1 {
			t.Errorf("expected a re-fetch after failed delete")
		}
		if h.m.status == "" {
			t.Error("expected the delete error in the status line")
		}
		h.assertTitles("B", "A")
	})

	t.Run("Identity change swaps list and feed", func(t *testing.T) {
		store := seeded("u1")
		store.Seed("u2", "other", "https://other.example", time.Unix(3, 0))
		auth := tu.NewFakeAuth(tu.NewSession("u1"))
		h := newHarness(t, auth, store)
		h.assertTitles("B", "A")

		auth.SetSession(tu.NewSession("u2"))
		h.settle()

		h.assertTitles("other")
		if store.Subscribers() != 1 {
			t.Errorf("expected exactly one live subscription, got %d", store.Subscribers())
		}
		if h.m.feed == nil || h.m.feed.Owner() != "u2" {
			t.Errorf("feed not scoped to the new identity")
		}
	})

	t.Run("Sign out returns to entry view", func(t *testing.T) {
		store := seeded("u1")
		auth := tu.NewFakeAuth(tu.NewSession("u1"))
		h := newHarness(t, auth, store)

		h.press("L")
		h.assertView(EntryView)
		if auth.SignOuts() != 1 {
			t.Errorf("expected one sign out, got %d", auth.SignOuts())
		}
		if store.Subscribers() != 0 {
			t.Errorf("expected feed closed, got %d subscribers", store.Subscribers())
		}
		if len(h.m.list.Items()) != 0 {
			t.Error("expected list cleared")
		}
	})

	t.Run("Sign in from entry view", func(t *testing.T) {
		store := seeded("user-google")
		auth := tu.NewFakeAuth(nil)
		h := newHarness(t, auth, store)
		h.assertView(EntryView)

		h.key(tea.KeyEnter)
		h.assertView(ListView)
		h.assertTitles("B", "A")
		if auth.SignIns() != 1 {
			t.Errorf("expected one sign in, got %d", auth.SignIns())
		}
		if store.Subscribers() != 1 {
			t.Errorf("expected one live subscription, got %d", store.Subscribers())
		}
	})

	t.Run("Sign in failure stays on entry view", func(t *testing.T) {
		auth := tu.NewFakeAuth(nil)
		auth.SetSignIn(nil, errors.New("consent denied"))
		h := newHarness(t, auth, tu.NewFakeStore())

		h.key(tea.KeyEnter)
		h.assertView(EntryView)
		if h.m.signingIn {
			t.Error("expected signingIn reset")
		}
		if h.m.status == "" {
			t.Error("expected the sign in error in the status line")
		}
	})

	t.Run("Quit closes feed and watch", func(t *testing.T) {
		store := seeded("u1")
		auth := tu.NewFakeAuth(tu.NewSession("u1"))
		h := newHarness(t, auth, store)

		h.press("q")
		if !h.quit {
			t.Error("expected tea.Quit")
		}
		if store.Subscribers() != 0 || auth.Watchers() != 0 {
			t.Errorf("expected no open subscriptions, got feed=%d watch=%d", store.Subscribers(), auth.Watchers())
		}
	})
}

func TestView(t *testing.T) {
	t.Run("entry", func(t *testing.T) {
		h := newHarness(t, tu.NewFakeAuth(nil), tu.NewFakeStore())
		if v := h.m.View(); v == "" {
			t.Error("empty entry view")
		}
	})

	t.Run("list", func(t *testing.T) {
		h := newHarness(t, tu.NewFakeAuth(tu.NewSession("u1")), seeded("u1"))
		v := h.m.View()
		for _, want := range []string{"New bookmark", "A", "B"} {
			if !strings.Contains(v, want) {
				t.Errorf("view missing %q", want)
			}
		}
	})
}
