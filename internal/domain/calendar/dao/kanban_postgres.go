package dao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/planer/internal/domain/calendar/entity"
)

// KanbanPostgres implements kanban column data access for PostgreSQL
type KanbanPostgres struct {
	pool *pgxpool.Pool
}

// NewKanbanPostgres creates a new PostgreSQL kanban repository
func NewKanbanPostgres(pool *pgxpool.Pool) *KanbanPostgres {
	return &KanbanPostgres{pool: pool}
}

// ListColumns retrieves a calendar's columns in board order, enforcing
// client ownership through the calendar relation.
func (r *KanbanPostgres) ListColumns(ctx context.Context, calendarID, clientID string) ([]entity.KanbanColumn, error) {
	query := `
		SELECT k.id, k.calendar_id, k.name, k.sort_order, k.mapped_status, k.color
		FROM kanban_columns k
		JOIN calendars c ON c.id = k.calendar_id
		WHERE k.calendar_id = $1 AND c.client_id = $2
		ORDER BY k.sort_order ASC
	`

	rows, err := r.pool.Query(ctx, query, calendarID, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying kanban columns: %w", err)
	}
	defer rows.Close()

	var columns []entity.KanbanColumn
	for rows.Next() {
		var col entity.KanbanColumn
		if err := rows.Scan(&col.ID, &col.CalendarID, &col.Name, &col.Order, &col.MappedStatus, &col.Color); err != nil {
			return nil, fmt.Errorf("scanning kanban row: %w", err)
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// CreateColumn appends a column at the end of the board
func (r *KanbanPostgres) CreateColumn(ctx context.Context, col *entity.KanbanColumn) error {
	if col.ID == "" {
		col.ID = uuid.New().String()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO kanban_columns (id, calendar_id, name, sort_order, mapped_status, color)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM kanban_columns WHERE calendar_id = $2),
			$4, $5)
		RETURNING sort_order
	`, col.ID, col.CalendarID, col.Name, col.MappedStatus, col.Color).Scan(&col.Order)
	if err != nil {
		return fmt.Errorf("inserting kanban column: %w", err)
	}

	return nil
}

// Reorder rewrites the board order atomically. columnIDs must contain
// every column of the calendar exactly once. Together with the count
// check below, rejecting duplicates pins the id list to the exact
// column set.
func (r *KanbanPostgres) Reorder(ctx context.Context, calendarID string, columnIDs []string) error {
	seen := make(map[string]struct{}, len(columnIDs))
	for _, id := range columnIDs {
		if _, dup := seen[id]; dup {
			return entity.ErrInvalidReorder
		}
		seen[id] = struct{}{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM kanban_columns WHERE calendar_id = $1`, calendarID,
	).Scan(&total); err != nil {
		return fmt.Errorf("counting columns: %w", err)
	}
	if total != len(columnIDs) {
		return entity.ErrInvalidReorder
	}

	for i, id := range columnIDs {
		tag, err := tx.Exec(ctx,
			`UPDATE kanban_columns SET sort_order = $1 WHERE id = $2 AND calendar_id = $3`,
			i, id, calendarID,
		)
		if err != nil {
			return fmt.Errorf("updating column order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return entity.ErrInvalidReorder
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}

	return nil
}

// GetColumn retrieves a single column scoped through its calendar
func (r *KanbanPostgres) GetColumn(ctx context.Context, id, clientID string) (*entity.KanbanColumn, error) {
	query := `
		SELECT k.id, k.calendar_id, k.name, k.sort_order, k.mapped_status, k.color
		FROM kanban_columns k
		JOIN calendars c ON c.id = k.calendar_id
		WHERE k.id = $1 AND c.client_id = $2
	`

	var col entity.KanbanColumn
	err := r.pool.QueryRow(ctx, query, id, clientID).Scan(
		&col.ID, &col.CalendarID, &col.Name, &col.Order, &col.MappedStatus, &col.Color,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning kanban column: %w", err)
	}

	return &col, nil
}
