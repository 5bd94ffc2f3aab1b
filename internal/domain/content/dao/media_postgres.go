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

// MediaPostgres implements media data access for PostgreSQL
type MediaPostgres struct {
	pool *pgxpool.Pool
}

// NewMediaPostgres creates a new PostgreSQL media repository
func NewMediaPostgres(pool *pgxpool.Pool) *MediaPostgres {
	return &MediaPostgres{pool: pool}
}

const mediaColumns = `
	id, content_id, url, key, type, mime_type, size,
	width, height, duration, thumbnail, sort_order, created_at
`

func scanMedia(row pgx.Row) (*entity.Media, error) {
	var m entity.Media
	err := row.Scan(
		&m.ID, &m.ContentID, &m.URL, &m.Key, &m.Type, &m.MimeType, &m.Size,
		&m.Width, &m.Height, &m.Duration, &m.Thumbnail, &m.Order, &m.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning media: %w", err)
	}
	return &m, nil
}

// Create inserts a media row at the end of the content's order
func (r *MediaPostgres) Create(ctx context.Context, m *entity.Media) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO media (id, content_id, url, key, type, mime_type, size,
			width, height, duration, thumbnail, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM media WHERE content_id = $2),
			$12)
		RETURNING sort_order
	`, m.ID, m.ContentID, m.URL, m.Key, m.Type, m.MimeType, m.Size,
		m.Width, m.Height, m.Duration, m.Thumbnail, m.CreatedAt).Scan(&m.Order)
	if err != nil {
		return fmt.Errorf("inserting media: %w", err)
	}

	return nil
}

// GetByID retrieves a media scoped to a client through its content
func (r *MediaPostgres) GetByID(ctx context.Context, id, clientID string) (*entity.Media, error) {
	query := `
		SELECT m.id, m.content_id, m.url, m.key, m.type, m.mime_type, m.size,
		       m.width, m.height, m.duration, m.thumbnail, m.sort_order, m.created_at
		FROM media m
		JOIN contents c ON c.id = m.content_id
		WHERE m.id = $1 AND c.client_id = $2
	`
	return scanMedia(r.pool.QueryRow(ctx, query, id, clientID))
}

// GetByContentID retrieves a content's media ordered by sort_order
func (r *MediaPostgres) GetByContentID(ctx context.Context, contentID string) ([]entity.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE content_id = $1 ORDER BY sort_order ASC`

	rows, err := r.pool.Query(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("querying media: %w", err)
	}
	defer rows.Close()

	var items []entity.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}

	return items, rows.Err()
}

// CountByContentID returns the number of media attached to a content
func (r *MediaPostgres) CountByContentID(ctx context.Context, contentID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM media WHERE content_id = $1`, contentID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting media: %w", err)
	}
	return count, nil
}

// IsReferenced reports whether any publication media references the row
func (r *MediaPostgres) IsReferenced(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM publication_media WHERE media_id = $1)
	`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking media references: %w", err)
	}
	return exists, nil
}

// Delete removes a media row
func (r *MediaPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting media: %w", err)
	}
	return nil
}
