package dashboard

import (
	"fmt"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// FormState is the state of the input form.
type FormState int

const (
	Idle FormState = iota
	Editing
)

func (s FormState) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Form holds the title and url inputs and which bookmark, if any, is being edited.
type Form struct {
	Title string
	URL   string

	editing string
}

// State returns Idle or Editing.
func (f *Form) State() FormState {
	if f.editing != "" {
		return Editing
	}
	return Idle
}

// EditingID returns the id being edited, or "" when idle.
func (f *Form) EditingID() string { return f.editing }

// BeginEdit loads b into the form. No backend call is made.
func (f *Form) BeginEdit(b models.Bookmark) {
	f.editing = b.ID
	f.Title = b.Title
	f.URL = b.URL
}

// Cancel returns to Idle with empty fields. No backend call is made.
func (f *Form) Cancel() {
	f.editing = ""
	f.Title = ""
	f.URL = ""
}

// CreateInput builds the insert payload. ok is false when the create must be a no-op:
// no session, or a blank title or url.
func (f *Form) CreateInput(session *models.Session) (in models.NewBookmark, ok bool) {
	if session == nil || shared.IsBlank(f.Title) || shared.IsBlank(f.URL) {
		return models.NewBookmark{}, false
	}
	return models.NewBookmark{Owner: session.Owner(), Title: f.Title, URL: f.URL}, true
}

// UpdateInput builds the patch for the bookmark being edited.
func (f *Form) UpdateInput(session *models.Session) (models.Filter, models.Patch, error) {
	if f.editing == "" {
		return models.Filter{}, models.Patch{}, shared.ErrNotEditing
	}
	if session == nil {
		return models.Filter{}, models.Patch{}, shared.ErrNotAuthenticated
	}
	if shared.IsBlank(f.Title) || shared.IsBlank(f.URL) {
		return models.Filter{}, models.Patch{}, fmt.Errorf("%w: title and url are required", shared.ErrInvalidInput)
	}
	return models.ByID(session.Owner(), f.editing), models.Patch{Title: f.Title, URL: f.URL}, nil
}

// Created clears the fields after a successful create.
func (f *Form) Created() {
	f.Title = ""
	f.URL = ""
}

// Updated returns to Idle after a successful update of id.
// A stale completion for another id leaves the form alone.
func (f *Form) Updated(id string) {
	if f.editing == id {
		f.Cancel()
	}
}
