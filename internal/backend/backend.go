// Package backend declares the two collaborators the dashboard depends on and
// provides the SQLite implementation of the data store.
//
// The dashboard only ever talks to [AuthProvider] and [DataStore]; tests swap in fakes.
package backend

import (
	"context"

	"github.com/desertthunder/linkbox/internal/models"
)

// Subscription is a cancellable stream. No value is received after Close returns.
type Subscription[T any] interface {
	C() <-chan T
	Close() error
}

// SignInOptions carries provider-independent sign-in parameters.
type SignInOptions struct {
	// RedirectTarget is where the provider sends the browser after consent.
	RedirectTarget string
}

// AuthProvider resolves and changes the signed-in session.
type AuthProvider interface {
	CurrentSession(ctx context.Context) (*models.Session, error)
	OnSessionChange() Subscription[models.SessionChange]
	SignOut(ctx context.Context) error
	SignInWithOAuth(ctx context.Context, provider string, opts SignInOptions) (*models.Session, error)
}

// DataStore is an owner-scoped bookmark store with change subscriptions.
type DataStore interface {
	Query(ctx context.Context, filter models.Filter, order models.Order) ([]models.Bookmark, error)
	Insert(ctx context.Context, in models.NewBookmark) (models.Bookmark, error)
	Update(ctx context.Context, patch models.Patch, filter models.Filter) error
	Delete(ctx context.Context, filter models.Filter) error
	Subscribe(ctx context.Context, table string, filter models.Filter, mask models.EventMask) (Subscription[models.ChangeEvent], error)
}
