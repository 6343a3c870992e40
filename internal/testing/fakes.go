package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/realtime"
	"github.com/desertthunder/linkbox/internal/shared"
)

// Store operations that can be made to fail with [FakeStore.Fail].
const (
	OpQuery     = "query"
	OpInsert    = "insert"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpSubscribe = "subscribe"
)

type row struct {
	models.Bookmark
	seq int
}

// FakeStore is an in-memory [backend.DataStore] that counts calls and publishes
// change events the way the SQL store does.
type FakeStore struct {
	mu    sync.Mutex
	rows  []row
	seq   int
	tick  int64
	fail  map[string]error
	calls map[string]int
	hub   *realtime.Hub[models.ChangeEvent]
}

var _ backend.DataStore = (*FakeStore)(nil)

// NewFakeStore creates an empty store whose clock starts at t=1s and advances one second per insert.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		fail:  make(map[string]error),
		calls: make(map[string]int),
		hub:   realtime.NewHub[models.ChangeEvent]("fake", 64, nil),
	}
}

// Seed inserts a row without counting a call or publishing an event.
func (s *FakeStore) Seed(owner, title, url string, createdAt time.Time) models.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(owner, title, url, createdAt)
}

// Fail makes op return err until cleared with a nil err.
func (s *FakeStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// Calls returns how many times op was invoked.
func (s *FakeStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of backend calls of any kind.
func (s *FakeStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Subscribers returns the number of open change subscriptions.
func (s *FakeStore) Subscribers() int {
	return s.hub.Len()
}

// Emit publishes e as if another client had changed a row.
func (s *FakeStore) Emit(e models.ChangeEvent) {
	s.hub.Publish(e)
}

// Rows returns owner's rows in display order.
func (s *FakeStore) Rows(owner string) []models.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(owner)
}

// Query implements [backend.DataStore].
func (s *FakeStore) Query(_ context.Context, filter models.Filter, _ models.Order) ([]models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpQuery); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.list(filter.Owner), nil
}

// Insert implements [backend.DataStore].
func (s *FakeStore) Insert(_ context.Context, in models.NewBookmark) (models.Bookmark, error) {
	s.mu.Lock()
	if err := s.enter(OpInsert); err != nil {
		s.mu.Unlock()
		return models.Bookmark{}, err
	}
	if err := in.Validate(); err != nil {
		s.mu.Unlock()
		return models.Bookmark{}, err
	}
	b := s.add(in.Owner, in.Title, in.URL, time.Time{})
	s.mu.Unlock()

	s.hub.Publish(models.ChangeEvent{Kind: models.EventInsert, Table: models.TableBookmarks, Owner: b.Owner, ID: b.ID, At: b.CreatedAt})
	return b, nil
}

// Update implements [backend.DataStore].
func (s *FakeStore) Update(_ context.Context, patch models.Patch, filter models.Filter) error {
	s.mu.Lock()
	if err := s.enter(OpUpdate); err != nil {
		s.mu.Unlock()
		return err
	}
	i := s.find(filter)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrBookmarkNotFound, filter.ID)
	}
	s.rows[i].Title = patch.Title
	s.rows[i].URL = patch.URL
	s.mu.Unlock()

	s.hub.Publish(models.ChangeEvent{Kind: models.EventUpdate, Table: models.TableBookmarks, Owner: filter.Owner, ID: filter.ID, At: time.Now()})
	return nil
}

// Delete implements [backend.DataStore].
func (s *FakeStore) Delete(_ context.Context, filter models.Filter) error {
	s.mu.Lock()
	if err := s.enter(OpDelete); err != nil {
		s.mu.Unlock()
		return err
	}
	i := s.find(filter)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrBookmarkNotFound, filter.ID)
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	s.mu.Unlock()

	s.hub.Publish(models.ChangeEvent{Kind: models.EventDelete, Table: models.TableBookmarks, Owner: filter.Owner, ID: filter.ID, At: time.Now()})
	return nil
}

// Subscribe implements [backend.DataStore].
func (s *FakeStore) Subscribe(_ context.Context, table string, filter models.Filter, mask models.EventMask) (backend.Subscription[models.ChangeEvent], error) {
	s.mu.Lock()
	err := s.enter(OpSubscribe)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(func(e models.ChangeEvent) bool {
		return e.Table == table && mask.Has(e.Kind) && filter.Matches(e)
	}), nil
}

func (s *FakeStore) enter(op string) error {
	s.calls[op]++
	return s.fail[op]
}

func (s *FakeStore) add(owner, title, url string, createdAt time.Time) models.Bookmark {
	s.seq++
	if createdAt.IsZero() {
		s.tick++
		createdAt = time.Unix(s.tick, 0).UTC()
	}
	if t := createdAt.Unix(); t > s.tick {
		s.tick = t
	}
	b := models.Bookmark{ID: fmt.Sprintf("bm-%d", s.seq), Owner: owner, Title: title, URL: url, CreatedAt: createdAt}
	s.rows = append(s.rows, row{Bookmark: b, seq: s.seq})
	return b
}

func (s *FakeStore) find(filter models.Filter) int {
	for i, r := range s.rows {
		if r.Owner == filter.Owner && r.ID == filter.ID {
			return i
		}
	}
	return -1
}

func (s *FakeStore) list(owner string) []models.Bookmark {
	var own []row
	for _, r := range s.rows {
		if r.Owner == owner {
			own = append(own, r)
		}
	}
	sort.Slice(own, func(i, j int) bool {
		if !own[i].CreatedAt.Equal(own[j].CreatedAt) {
			return own[i].CreatedAt.After(own[j].CreatedAt)
		}
		return own[i].seq > own[j].seq
	})

	out := make([]models.Bookmark, len(own))
	for i, r := range own {
		out[i] = r.Bookmark
	}
	return out
}

// FakeAuth is a [backend.AuthProvider] whose session is set by the test.
type FakeAuth struct {
	mu        sync.Mutex
	session   *models.Session
	err       error
	signInErr error
	next      *models.Session
	signOuts  int
	signIns   int
	hub       *realtime.Hub[models.SessionChange]
}

var _ backend.AuthProvider = (*FakeAuth)(nil)

// NewFakeAuth creates a provider with session as the current session (nil for signed out).
func NewFakeAuth(session *models.Session) *FakeAuth {
	return &FakeAuth{session: session, hub: realtime.NewHub[models.SessionChange]("fake-auth", 16, nil)}
}

// NewSession returns a session for owner valid for an hour.
func NewSession(owner string) *models.Session {
	return &models.Session{
		Token:     "token-" + owner,
		AccountID: owner,
		Email:     owner + "@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
}

// SetSession replaces the session and notifies watchers, as a sign-in elsewhere would.
func (a *FakeAuth) SetSession(s *models.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	a.hub.Publish(models.SessionChange{Session: s})
}

// SetError makes CurrentSession fail with err.
func (a *FakeAuth) SetError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// SetSignIn sets the session or error returned by the next SignInWithOAuth.
func (a *FakeAuth) SetSignIn(s *models.Session, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next, a.signInErr = s, err
}

// SignOuts returns how many times SignOut was called.
func (a *FakeAuth) SignOuts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signOuts
}

// SignIns returns how many times SignInWithOAuth was called.
func (a *FakeAuth) SignIns() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signIns
}

// Watchers returns the number of open session watches.
func (a *FakeAuth) Watchers() int {
	return a.hub.Len()
}

// CurrentSession implements [backend.AuthProvider].
func (a *FakeAuth) CurrentSession(context.Context) (*models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

// OnSessionChange implements [backend.AuthProvider].
func (a *FakeAuth) OnSessionChange() backend.Subscription[models.SessionChange] {
	return a.hub.Subscribe(nil)
}

// SignOut implements [backend.AuthProvider].
func (a *FakeAuth) SignOut(context.Context) error {
	a.mu.Lock()
	a.signOuts++
	a.session = nil
	a.mu.Unlock()
	a.hub.Publish(models.SessionChange{})
	return nil
}

// SignInWithOAuth implements [backend.AuthProvider].
func (a *FakeAuth) SignInWithOAuth(_ context.Context, provider string, _ backend.SignInOptions) (*models.Session, error) {
	a.mu.Lock()
	a.signIns++
	s, err := a.next, a.signInErr
	if err == nil && s == nil {
		s = NewSession("user-" + provider)
	}
	if err == nil {
		a.session = s
	}
	a.mu.Unlock()

	if err != nil {
		return nil, err
	}
	a.hub.Publish(models.SessionChange{Session: s})
	return s, nil
}
