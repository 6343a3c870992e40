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

// sortable maps [models.Order] columns onto SQL expressions.
var sortable = map[string]string{
	"created_at": "created_at",
	"title":      "title COLLATE NOCASE",
}

// BookmarkRepository persists [models.Bookmark] rows. Every statement is filtered by owner.
type BookmarkRepository struct {
	db  execer
	now func() time.Time
}

// NewBookmarkRepository creates a new [BookmarkRepository] with the given database connection
func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db, now: time.Now}
}

// Create inserts a bookmark with a generated ID and the current time as created_at.
func (r *BookmarkRepository) Create(ctx context.Context, in models.NewBookmark) (models.Bookmark, error) {
	if err := in.Validate(); err != nil {
		return models.Bookmark{}, fmt.Errorf("validation failed: %w", err)
	}

	b := models.Bookmark{
		ID:        shared.GenerateID(),
		Owner:     in.Owner,
		Title:     in.Title,
		URL:       in.URL,
		CreatedAt: r.now().UTC(),
	}

	query := `INSERT INTO bookmarks (id, owner, title, url, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, b.ID, b.Owner, b.Title, b.URL, toUnix(b.CreatedAt)); err != nil {
		return models.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return b, nil
}

// Get retrieves one bookmark of owner by ID.
func (r *BookmarkRepository) Get(ctx context.Context, owner, id string) (models.Bookmark, error) {
	query := `SELECT id, owner, title, url, created_at FROM bookmarks WHERE owner = ? AND id = ?`

	b, err := scanBookmark(r.db.QueryRowContext(ctx, query, owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bookmark{}, fmt.Errorf("%w: %s", shared.ErrBookmarkNotFound, id)
	}
	if err != nil {
		return models.Bookmark{}, fmt.Errorf("failed to query bookmark: %w", err)
	}
	return b, nil
}

// List returns the bookmarks matching filter in the requested order.
//
// Ties on the sort column fall back to insertion order, newest first.
func (r *BookmarkRepository) List(ctx context.Context, filter models.Filter, order models.Order) ([]models.Bookmark, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT id, owner, title, url, created_at FROM bookmarks WHERE owner = ?`
	args := []any{filter.Owner}

	if filter.ID != "" {
		query += " AND id = ?"
		args = append(args, filter.ID)
	}

	column := order.Column
	if column == "" {
		column = models.NewestFirst.Column
	}
	expr, ok := sortable[column]
	if !ok {
		return nil, fmt.Errorf("%w: cannot order by %q", shared.ErrInvalidInput, column)
	}
	dir := "ASC"
	if order.Descending {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, rowid DESC", expr, dir)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []models.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return bookmarks, nil
}

// Update replaces title and url of the row selected by filter. created_at is left untouched.
func (r *BookmarkRepository) Update(ctx context.Context, filter models.Filter, patch models.Patch) error {
	if err := requireRow(filter); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `UPDATE bookmarks SET title = ?, url = ? WHERE owner = ? AND id = ?`
	result, err := r.db.ExecContext(ctx, query, patch.Title, patch.URL, filter.Owner, filter.ID)
	if err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrBookmarkNotFound, filter.ID))
}

// Delete hard-deletes the row selected by filter.
func (r *BookmarkRepository) Delete(ctx context.Context, filter models.Filter) error {
	if err := requireRow(filter); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE owner = ? AND id = ?`, filter.Owner, filter.ID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrBookmarkNotFound, filter.ID))
}

// Count returns how many bookmarks owner has.
func (r *BookmarkRepository) Count(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks WHERE owner = ?`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return n, nil
}

func requireRow(filter models.Filter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	if filter.ID == "" {
		return fmt.Errorf("%w: bookmark id is required", shared.ErrInvalidInput)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(s scanner) (models.Bookmark, error) {
	var (
		b         models.Bookmark
		createdAt int64
	)
	if err := s.Scan(&b.ID, &b.Owner, &b.Title, &b.URL, &createdAt); err != nil {
		return models.Bookmark{}, err
	}
	b.CreatedAt = fromUnix(createdAt)
	return b, nil
}
