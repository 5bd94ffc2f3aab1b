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

// ShareLinkPostgres implements share link data access for PostgreSQL
type ShareLinkPostgres struct {
	pool *pgxpool.Pool
}

// NewShareLinkPostgres creates a new PostgreSQL share link repository
func NewShareLinkPostgres(pool *pgxpool.Pool) *ShareLinkPostgres {
	return &ShareLinkPostgres{pool: pool}
}

const linkColumns = `
	id, calendar_id, token_hash, permission, label, expires_at,
	is_active, revoked_at, last_accessed_at, access_count, created_at
`

func scanLink(row pgx.Row) (*entity.ShareLink, error) {
	var l entity.ShareLink
	err := row.Scan(
		&l.ID, &l.CalendarID, &l.TokenHash, &l.Permission, &l.Label, &l.ExpiresAt,
		&l.IsActive, &l.RevokedAt, &l.LastAccessedAt, &l.AccessCount, &l.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning share link: %w", err)
	}
	return &l, nil
}

// Create inserts a new share link
func (r *ShareLinkPostgres) Create(ctx context.Context, l *entity.ShareLink) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO calendar_share_links (id, calendar_id, token_hash, permission,
			label, expires_at, is_active, access_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
	`, l.ID, l.CalendarID, l.TokenHash, l.Permission, l.Label, l.ExpiresAt, l.IsActive, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting share link: %w", err)
	}

	return nil
}

// GetByTokenHash looks up a link by its unique token hash
func (r *ShareLinkPostgres) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.ShareLink, error) {
	query := `SELECT ` + linkColumns + ` FROM calendar_share_links WHERE token_hash = $1`
	return scanLink(r.pool.QueryRow(ctx, query, tokenHash))
}

// GetByID retrieves a link scoped to a client through its calendar
func (r *ShareLinkPostgres) GetByID(ctx context.Context, id, calendarID, clientID string) (*entity.ShareLink, error) {
	query := `
		SELECT l.id, l.calendar_id, l.token_hash, l.permission, l.label, l.expires_at,
		       l.is_active, l.revoked_at, l.last_accessed_at, l.access_count, l.created_at
		FROM calendar_share_links l
		JOIN calendars c ON c.id = l.calendar_id
		WHERE l.id = $1 AND l.calendar_id = $2 AND c.client_id = $3
	`
	return scanLink(r.pool.QueryRow(ctx, query, id, calendarID, clientID))
}

// List retrieves the calendar's share links, newest first
func (r *ShareLinkPostgres) List(ctx context.Context, calendarID, clientID string) ([]entity.ShareLink, error) {
	query := `
		SELECT l.id, l.calendar_id, l.token_hash, l.permission, l.label, l.expires_at,
		       l.is_active, l.revoked_at, l.last_accessed_at, l.access_count, l.created_at
		FROM calendar_share_links l
		JOIN calendars c ON c.id = l.calendar_id
		WHERE l.calendar_id = $1 AND c.client_id = $2
		ORDER BY l.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, calendarID, clientID)
	if err != nil {
		return nil, fmt.Errorf("querying share links: %w", err)
	}
	defer rows.Close()

	var links []entity.ShareLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}

	return links, rows.Err()
}

// Revoke deactivates a link. Returns false if it was already revoked.
func (r *ShareLinkPostgres) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendar_share_links
		SET is_active = FALSE, revoked_at = $2
		WHERE id = $1 AND is_active = TRUE AND revoked_at IS NULL
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("revoking share link: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Regenerate revokes the old link and creates its replacement in a
// single transaction.
func (r *ShareLinkPostgres) Regenerate(ctx context.Context, oldID string, replacement *entity.ShareLink) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE calendar_share_links
		SET is_active = FALSE, revoked_at = $2
		WHERE id = $1 AND is_active = TRUE AND revoked_at IS NULL
	`, oldID, now)
	if err != nil {
		return fmt.Errorf("revoking old link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrAlreadyRevoked
	}

	if replacement.ID == "" {
		replacement.ID = uuid.New().String()
	}
	replacement.CreatedAt = now
	replacement.IsActive = true

	_, err = tx.Exec(ctx, `
		INSERT INTO calendar_share_links (id, calendar_id, token_hash, permission,
			label, expires_at, is_active, access_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, 0, $7)
	`, replacement.ID, replacement.CalendarID, replacement.TokenHash, replacement.Permission,
		replacement.Label, replacement.ExpiresAt, replacement.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting replacement link: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}

	return nil
}

// TouchAccess bumps access stats, debounced to at most one write per
// minute per link to avoid write amplification on hot links.
func (r *ShareLinkPostgres) TouchAccess(ctx context.Context, id string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE calendar_share_links
		SET last_accessed_at = $2, access_count = access_count + 1
		WHERE id = $1 AND (last_accessed_at IS NULL OR last_accessed_at < $2 - interval '1 minute')
	`, id, now)
	if err != nil {
		return fmt.Errorf("touching access stats: %w", err)
	}
	return nil
}

// SweepExpired deactivates every active link whose expiry has passed.
// Returns the number of rows swept; re-running without new data is a
// zero-write no-op.
func (r *ShareLinkPostgres) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendar_share_links
		SET is_active = FALSE
		WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("sweeping expired links: %w", err)
	}
	return tag.RowsAffected(), nil
}
