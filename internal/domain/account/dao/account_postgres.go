package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/planer/internal/domain/account/entity"
)

// AccountPostgres implements social account data access for PostgreSQL
type AccountPostgres struct {
	pool *pgxpool.Pool
}

// NewAccountPostgres creates a new PostgreSQL social account repository
func NewAccountPostgres(pool *pgxpool.Pool) *AccountPostgres {
	return &AccountPostgres{pool: pool}
}

const accountColumns = `
	id, user_id, client_id, platform, platform_user_id, username,
	COALESCE(access_token, ''), COALESCE(refresh_token, ''),
	expires_at, is_active, disconnected_at, created_at
`

func scanAccount(row pgx.Row) (*entity.SocialAccount, error) {
	var a entity.SocialAccount
	err := row.Scan(
		&a.ID, &a.UserID, &a.ClientID, &a.Platform, &a.PlatformUserID, &a.Username,
		&a.AccessToken, &a.RefreshToken,
		&a.ExpiresAt, &a.IsActive, &a.DisconnectedAt, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning social account: %w", err)
	}
	return &a, nil
}

// GetByID retrieves a social account scoped to a client
func (r *AccountPostgres) GetByID(ctx context.Context, id, clientID string) (*entity.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1 AND client_id = $2`
	return scanAccount(r.pool.QueryRow(ctx, query, id, clientID))
}

// GetWithTokens retrieves an account by id alone. Reserved for the
// dispatcher path; user-facing reads go through GetByID.
func (r *AccountPostgres) GetWithTokens(ctx context.Context, id string) (*entity.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// List retrieves the client's social accounts
func (r *AccountPostgres) List(ctx context.Context, clientID string) ([]entity.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE client_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying social accounts: %w", err)
	}
	defer rows.Close()

	var accounts []entity.SocialAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}

	return accounts, rows.Err()
}

// UpdateTokens persists a refreshed token pair on the account row.
// Last writer wins; either token of two concurrent refreshes is valid.
func (r *AccountPostgres) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE social_accounts
		SET access_token = $2, refresh_token = $3, expires_at = $4
		WHERE id = $1
	`, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("updating tokens: %w", err)
	}
	return nil
}
