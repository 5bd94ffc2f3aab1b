package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/planer/internal/domain/content/entity"
)

// ContentPostgres implements content data access for PostgreSQL
type ContentPostgres struct {
	pool *pgxpool.Pool
}

// NewContentPostgres creates a new PostgreSQL content repository
func NewContentPostgres(pool *pgxpool.Pool) *ContentPostgres {
	return &ContentPostgres{pool: pool}
}

// Create inserts a new content
func (r *ContentPostgres) Create(ctx context.Context, c *entity.Content) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO contents (id, user_id, client_id, calendar_id, caption, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.UserID, c.ClientID, c.CalendarID, c.Caption, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting content: %w", err)
	}

	return nil
}

// GetByID retrieves a content scoped to a client
func (r *ContentPostgres) GetByID(ctx context.Context, id, clientID string) (*entity.Content, error) {
	query := `
		SELECT id, user_id, client_id, calendar_id, caption, created_at
		FROM contents
		WHERE id = $1 AND client_id = $2
	`

	var c entity.Content
	err := r.pool.QueryRow(ctx, query, id, clientID).Scan(
		&c.ID, &c.UserID, &c.ClientID, &c.CalendarID, &c.Caption, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning content: %w", err)
	}

	return &c, nil
}

// ListByCalendar retrieves a calendar's contents in creation order
func (r *ContentPostgres) ListByCalendar(ctx context.Context, calendarID string) ([]entity.Content, error) {
	query := `
		SELECT id, user_id, client_id, calendar_id, caption, created_at
		FROM contents
		WHERE calendar_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, calendarID)
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	var contents []entity.Content
	for rows.Next() {
		var c entity.Content
		if err := rows.Scan(&c.ID, &c.UserID, &c.ClientID, &c.CalendarID, &c.Caption, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}
		contents = append(contents, c)
	}

	return contents, rows.Err()
}

// HasNonErrorPublications reports whether any publication of the content
// is outside the ERROR state.
func (r *ContentPostgres) HasNonErrorPublications(ctx context.Context, contentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM publications WHERE content_id = $1 AND status <> 'ERROR'
		)
	`, contentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking publications: %w", err)
	}
	return exists, nil
}

// Delete removes a content and its media rows
func (r *ContentPostgres) Delete(ctx context.Context, id, clientID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contents WHERE id = $1 AND client_id = $2`, id, clientID)
	if err != nil {
		return false, fmt.Errorf("deleting content: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
