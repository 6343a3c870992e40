package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// SessionRepository stores the one session of the local profile.
type SessionRepository struct {
	db execer
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save replaces the stored session with s.
func (r *SessionRepository) Save(ctx context.Context, s *models.Session) error {
	if s == nil || s.Token == "" || s.AccountID == "" {
		return fmt.Errorf("%w: session needs a token and an account", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO sessions (id, token, account_id, email, expires_at, created_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			token = excluded.token,
			account_id = excluded.account_id,
			email = excluded.email,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`

	_, err := r.db.ExecContext(ctx, query, s.Token, s.AccountID, s.Email, toUnix(s.ExpiresAt), toUnix(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Current returns the stored session joined with its account name.
//
// Expiry is not checked here; callers verify the token.
func (r *SessionRepository) Current(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT s.token, s.account_id, s.email, COALESCE(a.name, ''), s.expires_at, s.created_at
		FROM sessions s
		LEFT JOIN accounts a ON a.id = s.account_id
		WHERE s.id = 1
	`

	var (
		s                    models.Session
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Token, &s.AccountID, &s.Email, &s.Name, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s.ExpiresAt = fromUnix(expiresAt)
	s.CreatedAt = fromUnix(createdAt)
	return &s, nil
}

// Clear removes the stored session. Clearing an empty table is not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
