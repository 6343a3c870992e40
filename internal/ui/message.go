package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/linkbox/internal/dashboard"
	"github.com/desertthunder/linkbox/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgResolved MsgKind = iota
	MsgSessionChanged
	MsgWatchClosed
	MsgFetched
	MsgFeedOpened
	MsgChanged
	MsgFeedClosed
	MsgCreated
	MsgUpdated
	MsgDeleted
	MsgSignedIn
	MsgSignedOut
)

type fetched struct {
	owner     string
	bookmarks []models.Bookmark
	err       error
}

type feedOpened struct {
	feed *dashboard.Feed
	err  error
}

type changed struct {
	feed  *dashboard.Feed
	event models.ChangeEvent
}

type mutated struct {
	id  string
	err error
}

type signedIn struct {
	session *models.Session
	err     error
}

// resolvedMsg is the constructor for [MsgResolved]
func resolvedMsg(r dashboard.Resolution) Msg {
	return Msg{kind: MsgResolved, data: r}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(c models.SessionChange) Msg {
	return Msg{kind: MsgSessionChanged, data: c}
}

// watchClosedMsg is the constructor for [MsgWatchClosed]
func watchClosedMsg() Msg {
	return Msg{kind: MsgWatchClosed}
}

// fetchedMsg is the constructor for [MsgFetched]
func fetchedMsg(owner string, bookmarks []models.Bookmark, err error) Msg {
	return Msg{kind: MsgFetched, data: fetched{owner, bookmarks, err}}
}

// feedOpenedMsg is the constructor for [MsgFeedOpened]
func feedOpenedMsg(feed *dashboard.Feed, err error) Msg {
	return Msg{kind: MsgFeedOpened, data: feedOpened{feed, err}}
}

// changedMsg is the constructor for [MsgChanged]
func changedMsg(feed *dashboard.Feed, e models.ChangeEvent) Msg {
	return Msg{kind: MsgChanged, data: changed{feed, e}}
}

// feedClosedMsg is the constructor for [MsgFeedClosed]
func feedClosedMsg(feed *dashboard.Feed) Msg {
	return Msg{kind: MsgFeedClosed, data: feed}
}

// createdMsg is the constructor for [MsgCreated]
func createdMsg(b models.Bookmark, err error) Msg {
	return Msg{kind: MsgCreated, data: mutated{b.ID, err}}
}

// updatedMsg is the constructor for [MsgUpdated]
func updatedMsg(id string, err error) Msg {
	return Msg{kind: MsgUpdated, data: mutated{id, err}}
}

// deletedMsg is the constructor for [MsgDeleted]
func deletedMsg(id string, err error) Msg {
	return Msg{kind: MsgDeleted, data: mutated{id, err}}
}

// signedInMsg is the constructor for [MsgSignedIn]
func signedInMsg(s *models.Session, err error) Msg {
	return Msg{kind: MsgSignedIn, data: signedIn{s, err}}
}

// signedOutMsg is the constructor for [MsgSignedOut]
func signedOutMsg(err error) Msg {
	return Msg{kind: MsgSignedOut, data: err}
}
