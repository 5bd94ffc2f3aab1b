package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/planer/internal/domain/calendar/entity"
)

// CalendarPostgres implements calendar data access for PostgreSQL
type CalendarPostgres struct {
	pool *pgxpool.Pool
}

// NewCalendarPostgres creates a new PostgreSQL calendar repository
func NewCalendarPostgres(pool *pgxpool.Pool) *CalendarPostgres {
	return &CalendarPostgres{pool: pool}
}

// Create inserts a new calendar
func (r *CalendarPostgres) Create(ctx context.Context, c *entity.Calendar) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO calendars (id, user_id, client_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.UserID, c.ClientID, c.Name, c.Description, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}

	return nil
}

// GetByID retrieves a calendar scoped to a client
func (r *CalendarPostgres) GetByID(ctx context.Context, id, clientID string) (*entity.Calendar, error) {
	query := `
		SELECT id, user_id, client_id, name, description, created_at
		FROM calendars
		WHERE id = $1 AND client_id = $2
	`

	var c entity.Calendar
	err := r.pool.QueryRow(ctx, query, id, clientID).Scan(
		&c.ID, &c.UserID, &c.ClientID, &c.Name, &c.Description, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning calendar: %w", err)
	}

	return &c, nil
}

// GetAnyByID retrieves a calendar without client scoping. Only the
// public share path uses it, after the link itself is validated.
func (r *CalendarPostgres) GetAnyByID(ctx context.Context, id string) (*entity.Calendar, error) {
	query := `
		SELECT id, user_id, client_id, name, description, created_at
		FROM calendars
		WHERE id = $1
	`

	var c entity.Calendar
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.ClientID, &c.Name, &c.Description, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning calendar: %w", err)
	}

	return &c, nil
}

// List retrieves the client's calendars
func (r *CalendarPostgres) List(ctx context.Context, clientID string) ([]entity.Calendar, error) {
	query := `
		SELECT id, user_id, client_id, name, description, created_at
		FROM calendars
		WHERE client_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying calendars: %w", err)
	}
	defer rows.Close()

	var calendars []entity.Calendar
	for rows.Next() {
		var c entity.Calendar
		if err := rows.Scan(&c.ID, &c.UserID, &c.ClientID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning calendar row: %w", err)
		}
		calendars = append(calendars, c)
	}

	return calendars, rows.Err()
}

// Delete removes a calendar. Share links, comments and kanban columns
// cascade via foreign keys.
func (r *CalendarPostgres) Delete(ctx context.Context, id, clientID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendars WHERE id = $1 AND client_id = $2`, id, clientID)
	if err != nil {
		return false, fmt.Errorf("deleting calendar: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
