package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/linkbox/internal/shared"
)

// TableBookmarks is the only table change subscriptions can be opened on.
const TableBookmarks = "bookmarks"

// Bookmark is a titled URL owned by a single account.
//
// ID and CreatedAt are assigned by the store and never change afterwards.
type Bookmark struct {
	ID        string    `json:"id" yaml:"id"`
	Owner     string    `json:"owner" yaml:"owner"`
	Title     string    `json:"title" yaml:"title"`
	URL       string    `json:"url" yaml:"url"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewBookmark is the insert payload. The store fills in ID and CreatedAt.
type NewBookmark struct {
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// Validate performs the presence checks required before an insert.
func (b NewBookmark) Validate() error {
	switch {
	case shared.IsBlank(b.Owner):
		return fmt.Errorf("%w: owner is required", shared.ErrInvalidInput)
	case shared.IsBlank(b.Title):
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	case shared.IsBlank(b.URL):
		return fmt.Errorf("%w: url is required", shared.ErrInvalidInput)
	}
	return nil
}

// Patch holds the mutable fields of a bookmark.
type Patch struct {
	Title string
	URL   string
}

// Validate performs the presence checks required before an update.
func (p Patch) Validate() error {
	if shared.IsBlank(p.Title) || shared.IsBlank(p.URL) {
		return fmt.Errorf("%w: title and url are required", shared.ErrInvalidInput)
	}
	return nil
}

// Filter narrows a store request. Owner is mandatory for every request; ID is optional.
type Filter struct {
	Owner string
	ID    string
}

// ByOwner returns a filter matching every row of owner.
func ByOwner(owner string) Filter { return Filter{Owner: owner} }

// ByID returns a filter matching one row of owner.
func ByID(owner, id string) Filter { return Filter{Owner: owner, ID: id} }

// Validate reports whether f is scoped to an owner.
func (f Filter) Validate() error {
	if shared.IsBlank(f.Owner) {
		return fmt.Errorf("%w: filter has no owner", shared.ErrInvalidInput)
	}
	return nil
}

// Matches reports whether an event falls inside the filter.
func (f Filter) Matches(e ChangeEvent) bool {
	if e.Owner != f.Owner {
		return false
	}
	return f.ID == "" || f.ID == e.ID
}

// Order names the sort column and direction of a query.
type Order struct {
	Column     string
	Descending bool
}

// NewestFirst orders bookmarks by creation time, most recent first.
var NewestFirst = Order{Column: "created_at", Descending: true}

// Account is an identity known to the local store.
type Account struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the explicit context object threaded through the dashboard:
// the signed-in account id plus the token that proves it.
type Session struct {
	Token     string    `json:"-"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Owner returns the account id that scopes all bookmark requests.
func (s *Session) Owner() string {
	if s == nil {
		return ""
	}
	return s.AccountID
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// Identity returns the best human-readable label for the account.
func (s *Session) Identity() string {
	switch {
	case s == nil:
		return ""
	case s.Email != "":
		return s.Email
	case s.Name != "":
		return s.Name
	}
	return s.AccountID
}

// SessionChange is delivered to session watchers. A nil Session means signed out.
type SessionChange struct {
	Session *Session `json:"session,omitempty"`
}

// SignedIn reports whether the change carries a session.
func (c SessionChange) SignedIn() bool { return c.Session != nil }

// EventKind is the type of row change.
type EventKind int

const (
	EventInsert EventKind = iota + 1
	EventUpdate
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventInsert:
		return "INSERT"
	case EventUpdate:
		return "UPDATE"
	case EventDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *EventKind) UnmarshalText(text []byte) error {
	v, err := ParseEventKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseEventKind parses INSERT, UPDATE or DELETE, case-insensitively.
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INSERT":
		return EventInsert, nil
	case "UPDATE":
		return EventUpdate, nil
	case "DELETE":
		return EventDelete, nil
	}
	return 0, fmt.Errorf("%w: unknown event kind %q", shared.ErrInvalidInput, s)
}

// EventMask selects which kinds of change a subscription receives.
type EventMask uint8

const (
	MaskInsert EventMask = 1 << iota
	MaskUpdate
	MaskDelete

	MaskAll = MaskInsert | MaskUpdate | MaskDelete
)

// Has reports whether kind is selected by the mask.
func (m EventMask) Has(kind EventKind) bool {
	switch kind {
	case EventInsert:
		return m&MaskInsert != 0
	case EventUpdate:
		return m&MaskUpdate != 0
	case EventDelete:
		return m&MaskDelete != 0
	}
	return false
}

// ChangeEvent describes a committed change to one row.
type ChangeEvent struct {
	Kind  EventKind `json:"kind"`
	Table string    `json:"table"`
	Owner string    `json:"owner"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

func (e ChangeEvent) String() string {
	return fmt.Sprintf("%s %s/%s", e.Kind, e.Table, e.ID)
}
