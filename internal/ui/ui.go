package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/dashboard"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	EntryView
	ListView
)

// DefaultProvider is the OAuth provider used by the entry view.
const DefaultProvider = "google"

type focus int

const (
	focusList focus = iota
	focusTitle
	focusURL
)

// Options configures a [Model].
type Options struct {
	Auth     backend.AuthProvider
	Store    backend.DataStore
	Logger   *log.Logger
	Provider string
	Redirect string
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	provider string
	redirect string
	logger   *log.Logger

	gate     *dashboard.Gate
	sync     *dashboard.Synchronizer
	handlers *dashboard.Handlers

	session   *models.Session
	watch     *dashboard.SessionWatch
	feed      *dashboard.Feed
	bookmarks []models.Bookmark
	form      dashboard.Form
	signingIn bool

	width  int
	height int
	focus  focus
	list   list.Model
	title  textinput.Model
	url    textinput.Model
	status string
	tone   lipgloss.Style
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	provider := opts.Provider
	if provider == "" {
		provider = DefaultProvider
	}

	m := &Model{
		ctx:      ctx,
		view:     LoadingView,
		provider: provider,
		redirect: opts.Redirect,
		logger:   shared.WithLogger(logger, "component", "ui"),
		gate:     dashboard.NewGate(opts.Auth, logger),
		sync:     dashboard.NewSynchronizer(opts.Store, logger),
		handlers: dashboard.NewHandlers(opts.Store, logger),
		help:     help.New(),
		keys:     newKeyMap(),
		tone:     styles.help,
	}

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Bookmarks"
	m.list.SetFilteringEnabled(false)
	m.list.SetShowHelp(false)
	m.list.KeyMap.Quit.SetEnabled(false)
	m.list.KeyMap.ForceQuit.SetEnabled(false)

	m.title = newInput("Title", 256)
	m.url = newInput("https://", 2048)
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 48
	return in
}

// Init registers the session watch and resolves the current session.
func (m *Model) Init() tea.Cmd {
	m.watch = m.gate.Watch()
	return tea.Batch(m.resolve(), m.waitForSession(m.watch))
}

// Close releases the change feed and the session watch. It is safe to call more than once.
func (m *Model) Close() {
	m.closeFeed()
	if m.watch != nil {
		m.watch.Close()
		m.watch = nil
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-14, 0))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.exit) {
			return m.quit()
		}
		switch m.view {
		case EntryView:
			return m.handleEntryKeys(msg)
		case ListView:
			if m.focus == focusList {
				return m.handleListKeys(msg)
			}
			return m.handleFormKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m.quit()
			}
			return m, nil
		}

	case Msg:
		return m, m.handleMsg(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgResolved:
		r := msg.data.(dashboard.Resolution)
		if m.view != LoadingView {
			return nil
		}
		if r.Redirect() {
			m.view = EntryView
			if r.Kind == dashboard.ResolutionFailed {
				m.setError(r.String())
			}
			return nil
		}
		return m.activate(r.Session)

	case MsgSessionChanged:
		c := msg.data.(models.SessionChange)
		var cmd tea.Cmd
		if c.SignedIn() {
			cmd = m.activate(c.Session)
		} else if m.session != nil || m.view == LoadingView {
			m.deactivate()
			m.view = EntryView
			m.setWarning("signed out")
		}
		return tea.Batch(cmd, m.waitForSession(m.watch))

	case MsgWatchClosed:
		m.logger.Debug("session watch closed")
		return nil

	case MsgFetched:
		d := msg.data.(fetched)
		if d.err != nil || m.session == nil || d.owner != m.session.Owner() {
			return nil
		}
		m.bookmarks = d.bookmarks
		return m.list.SetItems(bookmarkItems(d.bookmarks))

	case MsgFeedOpened:
		d := msg.data.(feedOpened)
		if d.err != nil {
			m.logger.Warn("live updates unavailable", "error", d.err)
			m.setWarning("live updates unavailable")
			return nil
		}
		if m.session == nil || d.feed.Owner() != m.session.Owner() || m.feed != nil {
			d.feed.Close()
			return nil
		}
		m.feed = d.feed
		return m.waitForChange(d.feed)

	case MsgChanged:
		d := msg.data.(changed)
		if d.feed != m.feed {
			return nil
		}
		m.logger.Debug("change received", "kind", d.event.Kind, "id", d.event.ID)
		return tea.Batch(m.fetch(), m.waitForChange(d.feed))

	case MsgFeedClosed:
		if f := msg.data.(*dashboard.Feed); f == m.feed {
			m.logger.Debug("change feed closed", "owner", f.Owner())
			m.feed = nil
		}
		return nil

	case MsgCreated:
		d := msg.data.(mutated)
		if d.err != nil {
			m.setError(d.err.Error())
			return nil
		}
		m.form.Created()
		m.syncInputs()
		m.setOK("bookmark added")
		return m.fetch()

	case MsgUpdated:
		d := msg.data.(mutated)
		if d.err != nil {
			m.setError(d.err.Error())
			return nil
		}
		m.form.Updated(d.id)
		m.syncInputs()
		if m.form.State() == dashboard.Idle {
			m.blurInputs()
		}
		m.setOK("bookmark updated")
		return m.fetch()

	case MsgDeleted:
		d := msg.data.(mutated)
		if d.err != nil {
			m.setError(d.err.Error())
		} else {
			if m.form.EditingID() == d.id {
				m.cancelEdit()
				m.blurInputs()
			}
			m.setOK("bookmark deleted")
		}
		return m.fetch()

	case MsgSignedIn:
		d := msg.data.(signedIn)
		m.signingIn = false
		if d.err != nil {
			m.setError(d.err.Error())
			return nil
		}
		m.clearStatus()
		return m.activate(d.session)

	case MsgSignedOut:
		if err, _ := msg.data.(error); err != nil {
			m.setError(err.Error())
			return nil
		}
		m.deactivate()
		m.view = EntryView
		m.setWarning("signed out")
		return nil
	}
	return nil
}

func (m *Model) handleEntryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.enter):
		if m.signingIn {
			return m, nil
		}
		m.signingIn = true
		m.setWarning("waiting for the browser sign-in to finish...")
		return m, m.signIn()
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.add), key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.next):
		m.focusInput(focusTitle)
		return m, nil
	case key.Matches(msg, m.keys.edit):
		if b, ok := m.selected(); ok {
			m.form.BeginEdit(b)
			m.syncInputs()
			m.focusInput(focusTitle)
			m.clearStatus()
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if b, ok := m.selected(); ok {
			return m, m.remove(b.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		m.cancelEdit()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetch()
	case key.Matches(msg, m.keys.logout):
		return m, m.signOut()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.cancelEdit()
		m.blurInputs()
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.focus == focusTitle {
			m.focusInput(focusURL)
		} else {
			m.focusInput(focusTitle)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.submit()
	}
	return m.updateFocused(msg)
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusURL:
		m.url, cmd = m.url.Update(msg)
	default:
		if m.view == ListView {
			m.list, cmd = m.list.Update(msg)
		}
	}
	return m, cmd
}

// submit creates or updates depending on the form state. Invalid input never reaches the store.
func (m *Model) submit() tea.Cmd {
	m.form.Title = m.title.Value()
	m.form.URL = m.url.Value()

	if m.form.State() == dashboard.Editing {
		filter, patch, err := m.form.UpdateInput(m.session)
		if err != nil {
			m.setError(err.Error())
			return nil
		}
		return m.update(filter, patch)
	}

	in, ok := m.form.CreateInput(m.session)
	if !ok {
		m.setWarning("title and url are required")
		return nil
	}
	return m.create(in)
}

// activate switches to the list view for s. A change of identity tears the previous
// feed down before the new one is requested.
func (m *Model) activate(s *models.Session) tea.Cmd {
	m.view = ListView
	m.signingIn = false
	if m.session != nil && m.session.Owner() == s.Owner() {
		m.session = s
		return nil
	}

	m.deactivate()
	m.session = s
	m.list.Title = fmt.Sprintf("Bookmarks of %s", s.Identity())
	m.logger.Info("session active", "account", s.Owner())
	return tea.Batch(m.fetch(), m.openFeed())
}

func (m *Model) deactivate() {
	m.closeFeed()
	m.session = nil
	m.bookmarks = nil
	m.list.SetItems(nil)
	m.form.Cancel()
	m.syncInputs()
	m.blurInputs()
}

func (m *Model) closeFeed() {
	if m.feed == nil {
		return
	}
	if err := m.feed.Close(); err != nil {
		m.logger.Warn("failed to close change feed", "error", err)
	}
	m.feed = nil
}

func (m *Model) cancelEdit() {
	if m.form.State() != dashboard.Editing {
		return
	}
	m.form.Cancel()
	m.syncInputs()
	m.clearStatus()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

func (m *Model) selected() (models.Bookmark, bool) {
	if item, ok := m.list.SelectedItem().(bookmarkItem); ok {
		return item.bookmark, true
	}
	return models.Bookmark{}, false
}

func (m *Model) syncInputs() {
	m.title.SetValue(m.form.Title)
	m.url.SetValue(m.form.URL)
}

func (m *Model) focusInput(f focus) {
	m.focus = f
	if f == focusTitle {
		m.url.Blur()
		m.title.Focus()
	} else {
		m.title.Blur()
		m.url.Focus()
	}
}

func (m *Model) blurInputs() {
	m.focus = focusList
	m.title.Blur()
	m.url.Blur()
}

func (m *Model) setOK(s string)      { m.status, m.tone = s, styles.ok }
func (m *Model) setWarning(s string) { m.status, m.tone = s, styles.warn }
func (m *Model) setError(s string)   { m.status, m.tone = s, styles.err }
func (m *Model) clearStatus()        { m.status = "" }

func (m *Model) resolve() tea.Cmd {
	return func() tea.Msg {
		return resolvedMsg(m.gate.Resolve(m.ctx))
	}
}

func (m *Model) waitForSession(w *dashboard.SessionWatch) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-w.C()
		if !ok {
			return watchClosedMsg()
		}
		return sessionChangedMsg(c)
	}
}

func (m *Model) fetch() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		bookmarks, err := m.sync.Fetch(m.ctx, s)
		return fetchedMsg(s.Owner(), bookmarks, err)
	}
}

func (m *Model) openFeed() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return feedOpenedMsg(m.sync.Open(m.ctx, s))
	}
}

func (m *Model) waitForChange(f *dashboard.Feed) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-f.C()
		if !ok {
			return feedClosedMsg(f)
		}
		return changedMsg(f, e)
	}
}

func (m *Model) create(in models.NewBookmark) tea.Cmd {
	return func() tea.Msg {
		return createdMsg(m.handlers.Create(m.ctx, in))
	}
}

func (m *Model) update(filter models.Filter, patch models.Patch) tea.Cmd {
	return func() tea.Msg {
		return updatedMsg(filter.ID, m.handlers.Update(m.ctx, filter, patch))
	}
}

func (m *Model) remove(id string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return deletedMsg(id, m.handlers.Delete(m.ctx, s, id))
	}
}

func (m *Model) signIn() tea.Cmd {
	return func() tea.Msg {
		return signedInMsg(m.gate.SignIn(m.ctx, m.provider, m.redirect))
	}
}

func (m *Model) signOut() tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg(m.gate.SignOut(m.ctx))
	}
}
