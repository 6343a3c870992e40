package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/shared"
)

// AccountRepository persists [models.Account] rows keyed by provider and subject.
type AccountRepository struct {
	db  execer
	now func() time.Time
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// Upsert creates the account on first sign-in and refreshes email and name afterwards.
//
// The stored ID and created_at are written back into account.
func (r *AccountRepository) Upsert(ctx context.Context, account *models.Account) error {
	if shared.IsBlank(account.Provider) || shared.IsBlank(account.Subject) {
		return fmt.Errorf("%w: provider and subject are required", shared.ErrInvalidInput)
	}

	now := r.now().UTC()
	if account.ID == "" {
		account.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO accounts (id, provider, subject, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, subject) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`

	var createdAt int64
	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Provider,
		account.Subject,
		account.Email,
		account.Name,
		toUnix(now),
		toUnix(now),
	).Scan(&account.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	account.CreatedAt = fromUnix(createdAt)
	account.UpdatedAt = now
	return nil
}

// Get retrieves an account by ID.
func (r *AccountRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, provider, subject, email, name, created_at, updated_at FROM accounts WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id), id)
}

// GetBySubject retrieves an account by its provider identity.
func (r *AccountRepository) GetBySubject(ctx context.Context, provider, subject string) (*models.Account, error) {
	query := `SELECT id, provider, subject, email, name, created_at, updated_at FROM accounts WHERE provider = ? AND subject = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, provider, subject), provider+":"+subject)
}

// Delete removes an account and, through the foreign key, its stored session.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrAccountNotFound, id))
}

func (r *AccountRepository) scanOne(row *sql.Row, key string) (*models.Account, error) {
	var (
		a                    models.Account
		createdAt, updatedAt int64
	)

	err := row.Scan(&a.ID, &a.Provider, &a.Subject, &a.Email, &a.Name, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrAccountNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	a.CreatedAt = fromUnix(createdAt)
	a.UpdatedAt = fromUnix(updatedAt)
	return &a, nil
}
