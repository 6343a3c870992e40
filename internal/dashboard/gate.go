package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// ResolutionKind tags a [Resolution].
type ResolutionKind int

const (
	Unauthenticated ResolutionKind = iota
	Authenticated
	ResolutionFailed
)

func (k ResolutionKind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case ResolutionFailed:
		return "error"
	default:
		return "unauthenticated"
	}
}

// Resolution is the outcome of resolving the current session.
// Session is set only for Authenticated, Err only for ResolutionFailed.
type Resolution struct {
	Kind    ResolutionKind
	Session *models.Session
	Err     error
}

// Redirect reports whether the view must go back to the entry view.
func (r Resolution) Redirect() bool {
	return r.Kind != Authenticated
}

func (r Resolution) String() string {
	switch r.Kind {
	case Authenticated:
		return fmt.Sprintf("authenticated as %s", r.Session.Identity())
	case ResolutionFailed:
		return fmt.Sprintf("session could not be resolved: %v", r.Err)
	default:
		return "not signed in"
	}
}

// SessionWatch is a cancellable stream of session changes.
// After Close returns no further change is received.
type SessionWatch struct {
	sub backend.Subscription[models.SessionChange]
}

// C returns the receive side of the watch.
func (w *SessionWatch) C() <-chan models.SessionChange { return w.sub.C() }

// Close deregisters the watch. It is safe to call more than once.
func (w *SessionWatch) Close() error { return w.sub.Close() }

// Gate decides whether the list view may render.
type Gate struct {
	auth   backend.AuthProvider
	logger *log.Logger
}

// NewGate creates a gate over auth.
func NewGate(auth backend.AuthProvider, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Default()
	}
	return &Gate{auth: auth, logger: shared.WithLogger(logger, "component", "gate")}
}

// Resolve asks the provider for the current session. Failures are logged and
// reported as ResolutionFailed so the caller can tell them apart from a signed-out user.
func (g *Gate) Resolve(ctx context.Context) Resolution {
	s, err := g.auth.CurrentSession(ctx)
	switch {
	case err != nil:
		g.logger.Warn("session resolution failed", "error", err)
		return Resolution{Kind: ResolutionFailed, Err: err}
	case s == nil:
		g.logger.Debug("no session")
		return Resolution{Kind: Unauthenticated}
	default:
		return Resolution{Kind: Authenticated, Session: s}
	}
}

// Watch registers a session-change listener for the lifetime of the view.
func (g *Gate) Watch() *SessionWatch {
	return &SessionWatch{sub: g.auth.OnSessionChange()}
}

// SignOut invalidates the session. The caller redirects afterwards.
func (g *Gate) SignOut(ctx context.Context) error {
	if err := g.auth.SignOut(ctx); err != nil {
		g.logger.Error("sign out failed", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// SignIn starts the provider's OAuth flow.
func (g *Gate) SignIn(ctx context.Context, provider, redirect string) (*models.Session, error) {
	s, err := g.auth.SignInWithOAuth(ctx, provider, backend.SignInOptions{RedirectTarget: redirect})
	if err != nil {
		g.logger.Error("sign in failed", "provider", provider, "error", err)
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return s, nil
}
