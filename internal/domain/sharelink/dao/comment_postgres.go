package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/planer/internal/domain/sharelink/entity"
)

// CommentPostgres implements comment data access for PostgreSQL
type CommentPostgres struct {
	pool *pgxpool.Pool
}

// NewCommentPostgres creates a new PostgreSQL comment repository
func NewCommentPostgres(pool *pgxpool.Pool) *CommentPostgres {
	return &CommentPostgres{pool: pool}
}

const commentColumns = `
	id, calendar_id, publication_id, share_link_id, user_id, commenter_id,
	author_name, author_email, body, is_resolved, created_at, updated_at
`

func scanComment(row pgx.Row) (*entity.Comment, error) {
	var c entity.Comment
	err := row.Scan(
		&c.ID, &c.CalendarID, &c.PublicationID, &c.ShareLinkID, &c.UserID, &c.CommenterID,
		&c.AuthorName, &c.AuthorEmail, &c.Body, &c.IsResolved, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning comment: %w", err)
	}
	return &c, nil
}

// Create inserts a new comment
func (r *CommentPostgres) Create(ctx context.Context, c *entity.Comment) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO comments (id, calendar_id, publication_id, share_link_id, user_id,
			commenter_id, author_name, author_email, body, is_resolved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $11)
	`, c.ID, c.CalendarID, c.PublicationID, c.ShareLinkID, c.UserID,
		c.CommenterID, c.AuthorName, c.AuthorEmail, c.Body, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment within a calendar
func (r *CommentPostgres) GetByID(ctx context.Context, id, calendarID string) (*entity.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1 AND calendar_id = $2`
	return scanComment(r.pool.QueryRow(ctx, query, id, calendarID))
}

// ListPage returns one page of non-resolved comments ordered by
// created_at descending with id as tiebreak. It fetches limit+1 rows so
// the caller can detect whether more pages exist.
func (r *CommentPostgres) ListPage(ctx context.Context, calendarID string, publicationID *string, cursor *time.Time, limit int) ([]entity.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE calendar_id = $1 AND is_resolved = FALSE`
	args := []interface{}{calendarID}

	if publicationID != nil {
		args = append(args, *publicationID)
		query += fmt.Sprintf(" AND publication_id = $%d", len(args))
	}
	if cursor != nil {
		args = append(args, *cursor)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []entity.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	return comments, rows.Err()
}

// UpdateBody rewrites a comment's body
func (r *CommentPostgres) UpdateBody(ctx context.Context, id, body string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE comments SET body = $2, updated_at = $3 WHERE id = $1
	`, id, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	return nil
}

// Delete removes a comment
func (r *CommentPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}
