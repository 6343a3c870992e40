package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/linkbox/internal/backend"
)

// AuthLogin runs the browser OAuth flow and stores the resulting session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	provider := cmd.String("provider")
	r.logger.Info("starting sign in", "provider", provider)
	r.writePlain("Opening the browser to sign in with %s...\n", provider)

	s, err := r.auth.SignInWithOAuth(ctx, provider, backend.SignInOptions{RedirectTarget: cmd.String("redirect")})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Signed in as %s\n", s.Identity())
}

// AuthLogout signs out. Signing out while signed out is not an error.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.auth.SignOut(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

type whoami struct {
	SignedIn  bool      `json:"signed_in"`
	AccountID string    `json:"account_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// AuthWhoami prints the signed-in account, if any.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	s, err := r.auth.CurrentSession(ctx)
	if err != nil {
		return err
	}

	info := whoami{SignedIn: s != nil}
	if s != nil {
		info.AccountID, info.Email, info.Name, info.ExpiresAt = s.AccountID, s.Email, s.Name, s.ExpiresAt
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}
	if !info.SignedIn {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlainHeader("Signed in")
	r.writePlain("Account: %s\n", s.Identity())
	r.writePlain("ID:      %s\n", s.AccountID)
	r.writePlain("Expires: %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}
