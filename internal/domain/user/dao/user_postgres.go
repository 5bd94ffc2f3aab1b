package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/planer/internal/domain/user/entity"
)

// UserPostgres implements user and client data access for PostgreSQL
type UserPostgres struct {
	pool *pgxpool.Pool
}

// NewUserPostgres creates a new PostgreSQL user repository
func NewUserPostgres(pool *pgxpool.Pool) *UserPostgres {
	return &UserPostgres{pool: pool}
}

// GetByExternalSubject retrieves a user by the issuer's subject identifier
func (r *UserPostgres) GetByExternalSubject(ctx context.Context, subject string) (*entity.User, error) {
	query := `
		SELECT id, external_subject, email, name, avatar, created_at, updated_at
		FROM users
		WHERE external_subject = $1
	`

	var u entity.User
	err := r.pool.QueryRow(ctx, query, subject).Scan(
		&u.ID, &u.ExternalSubject, &u.Email, &u.Name, &u.Avatar, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return &u, nil
}

// CreateWithDefaultClient provisions a user and their default client in
// one transaction.
func (r *UserPostgres) CreateWithDefaultClient(ctx context.Context, u *entity.User) (*entity.Client, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, external_subject, email, name, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.ExternalSubject, u.Email, u.Name, u.Avatar, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	client := &entity.Client{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		Name:      u.Name,
		CreatedAt: now,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO clients (id, user_id, name, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, client.ID, client.UserID, client.Name, client.Avatar, client.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting default client: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing tx: %w", err)
	}

	return client, nil
}

// GetClient retrieves a client owned by the given user
func (r *UserPostgres) GetClient(ctx context.Context, clientID, userID string) (*entity.Client, error) {
	query := `
		SELECT id, user_id, name, avatar, created_at
		FROM clients
		WHERE id = $1 AND user_id = $2
	`

	var c entity.Client
	err := r.pool.QueryRow(ctx, query, clientID, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Avatar, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning client: %w", err)
	}

	return &c, nil
}

// EarliestClient retrieves the user's earliest-created client
func (r *UserPostgres) EarliestClient(ctx context.Context, userID string) (*entity.Client, error) {
	query := `
		SELECT id, user_id, name, avatar, created_at
		FROM clients
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`

	var c entity.Client
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Avatar, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning earliest client: %w", err)
	}

	return &c, nil
}

// ListClients retrieves every client owned by the user
func (r *UserPostgres) ListClients(ctx context.Context, userID string) ([]entity.Client, error) {
	query := `
		SELECT id, user_id, name, avatar, created_at
		FROM clients
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var clients []entity.Client
	for rows.Next() {
		var c entity.Client
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Avatar, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning client row: %w", err)
		}
		clients = append(clients, c)
	}

	return clients, rows.Err()
}

// CreateClient inserts an additional client for the user
func (r *UserPostgres) CreateClient(ctx context.Context, c *entity.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, user_id, name, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.UserID, c.Name, c.Avatar, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}

	return nil
}
