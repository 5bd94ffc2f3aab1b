package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	accountdao "github.com/vadim/planer/internal/domain/account/dao"
	contentdao "github.com/vadim/planer/internal/domain/content/dao"
	contententity "github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
)

// PublicationPostgres implements publication data access for PostgreSQL
type PublicationPostgres struct {
	pool     *pgxpool.Pool
	accounts *accountdao.AccountPostgres
	media    *contentdao.MediaPostgres
}

// NewPublicationPostgres creates a new PostgreSQL publication repository
func NewPublicationPostgres(pool *pgxpool.Pool) *PublicationPostgres {
	return &PublicationPostgres{
		pool:     pool,
		accounts: accountdao.NewAccountPostgres(pool),
		media:    contentdao.NewMediaPostgres(pool),
	}
}

const publicationColumns = `
	id, content_id, social_account_id, platform, format, publish_at, status,
	COALESCE(error_message, ''), custom_caption, platform_config,
	COALESCE(platform_id, ''), COALESCE(link, ''),
	kanban_column_id, kanban_order, created_at, updated_at
`

func scanPublication(row pgx.Row) (*entity.Publication, error) {
	var p entity.Publication
	err := row.Scan(
		&p.ID, &p.ContentID, &p.SocialAccountID, &p.Platform, &p.Format, &p.PublishAt, &p.Status,
		&p.ErrorMessage, &p.CustomCaption, &p.PlatformConfig,
		&p.PlatformID, &p.Link,
		&p.KanbanColumnID, &p.KanbanOrder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning publication: %w", err)
	}
	return &p, nil
}

// Create inserts a publication and its media attachments in one
// transaction.
func (r *PublicationPostgres) Create(ctx context.Context, pub *entity.Publication, media []entity.PublicationMedia) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if pub.ID == "" {
		pub.ID = uuid.New().String()
	}
	pub.CreatedAt = now
	pub.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO publications (id, content_id, social_account_id, platform, format,
			publish_at, status, custom_caption, platform_config,
			kanban_column_id, kanban_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, pub.ID, pub.ContentID, pub.SocialAccountID, pub.Platform, pub.Format,
		pub.PublishAt, pub.Status, pub.CustomCaption, pub.PlatformConfig,
		pub.KanbanColumnID, pub.KanbanOrder, pub.CreatedAt, pub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting publication: %w", err)
	}

	for i := range media {
		if media[i].ID == "" {
			media[i].ID = uuid.New().String()
		}
		media[i].PublicationID = pub.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO publication_media (id, publication_id, media_id, sort_order, crop_data)
			VALUES ($1, $2, $3, $4, $5)
		`, media[i].ID, media[i].PublicationID, media[i].MediaID, media[i].Order, media[i].CropData)
		if err != nil {
			return fmt.Errorf("inserting publication media: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}

	return nil
}

// GetByID retrieves a publication scoped to a client through its content
func (r *PublicationPostgres) GetByID(ctx context.Context, id, clientID string) (*entity.Publication, error) {
	query := `
		SELECT p.id, p.content_id, p.social_account_id, p.platform, p.format, p.publish_at, p.status,
		       COALESCE(p.error_message, ''), p.custom_caption, p.platform_config,
		       COALESCE(p.platform_id, ''), COALESCE(p.link, ''),
		       p.kanban_column_id, p.kanban_order, p.created_at, p.updated_at
		FROM publications p
		JOIN contents c ON c.id = p.content_id
		WHERE p.id = $1 AND c.client_id = $2
	`
	return scanPublication(r.pool.QueryRow(ctx, query, id, clientID))
}

// List retrieves publications for a client with filters and pagination
func (r *PublicationPostgres) List(ctx context.Context, clientID string, filter Filter, page, limit int) ([]entity.Publication, int64, error) {
	where := `FROM publications p JOIN contents c ON c.id = p.content_id WHERE c.client_id = $1`
	args := []interface{}{clientID}

	if filter.Platform != nil {
		args = append(args, *filter.Platform)
		where += fmt.Sprintf(" AND p.platform = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if filter.ContentID != "" {
		args = append(args, filter.ContentID)
		where += fmt.Sprintf(" AND p.content_id = $%d", len(args))
	}
	if filter.CalendarID != "" {
		args = append(args, filter.CalendarID)
		where += fmt.Sprintf(" AND c.calendar_id = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting publications: %w", err)
	}

	query := `
		SELECT p.id, p.content_id, p.social_account_id, p.platform, p.format, p.publish_at, p.status,
		       COALESCE(p.error_message, ''), p.custom_caption, p.platform_config,
		       COALESCE(p.platform_id, ''), COALESCE(p.link, ''),
		       p.kanban_column_id, p.kanban_order, p.created_at, p.updated_at
	` + where + fmt.Sprintf(" ORDER BY p.publish_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var pubs []entity.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, 0, err
		}
		pubs = append(pubs, *p)
	}

	return pubs, total, rows.Err()
}

// BelongsToCalendar reports whether the publication's content sits in
// the given calendar.
func (r *PublicationPostgres) BelongsToCalendar(ctx context.Context, publicationID, calendarID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM publications p
			JOIN contents c ON c.id = p.content_id
			WHERE p.id = $1 AND c.calendar_id = $2
		)
	`, publicationID, calendarID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking publication calendar: %w", err)
	}
	return exists, nil
}

// ListByContent retrieves a content's publications ordered by publish
// time, earliest first. The shared calendar projection uses it.
func (r *PublicationPostgres) ListByContent(ctx context.Context, contentID string) ([]entity.Publication, error) {
	query := `SELECT ` + publicationColumns + `
		FROM publications
		WHERE content_id = $1
		ORDER BY publish_at ASC
	`

	rows, err := r.pool.Query(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var pubs []entity.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, *p)
	}

	return pubs, rows.Err()
}

// Update rewrites the editable fields and, when media is non-nil,
// replaces the publication's media set atomically.
func (r *PublicationPostgres) Update(ctx context.Context, pub *entity.Publication, media []entity.PublicationMedia) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	pub.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE publications
		SET publish_at = $2, custom_caption = $3, platform_config = $4,
		    format = $5, status = $6, kanban_column_id = $7, kanban_order = $8,
		    error_message = NULLIF($9, ''), updated_at = $10
		WHERE id = $1
	`, pub.ID, pub.PublishAt, pub.CustomCaption, pub.PlatformConfig,
		pub.Format, pub.Status, pub.KanbanColumnID, pub.KanbanOrder,
		pub.ErrorMessage, pub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating publication: %w", err)
	}

	if media != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM publication_media WHERE publication_id = $1`, pub.ID,
		); err != nil {
			return fmt.Errorf("deleting publication media: %w", err)
		}
		for i := range media {
			if media[i].ID == "" {
				media[i].ID = uuid.New().String()
			}
			media[i].PublicationID = pub.ID
			_, err = tx.Exec(ctx, `
				INSERT INTO publication_media (id, publication_id, media_id, sort_order, crop_data)
				VALUES ($1, $2, $3, $4, $5)
			`, media[i].ID, media[i].PublicationID, media[i].MediaID, media[i].Order, media[i].CropData)
			if err != nil {
				return fmt.Errorf("inserting publication media: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}

	return nil
}

// Delete removes a publication and its media attachments
func (r *PublicationPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM publications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting publication: %w", err)
	}
	return nil
}

// GetMedia retrieves the publication's media attachments in order
func (r *PublicationPostgres) GetMedia(ctx context.Context, publicationID string) ([]entity.PublicationMedia, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, publication_id, media_id, sort_order, crop_data
		FROM publication_media
		WHERE publication_id = $1
		ORDER BY sort_order ASC
	`, publicationID)
	if err != nil {
		return nil, fmt.Errorf("querying publication media: %w", err)
	}
	defer rows.Close()

	var items []entity.PublicationMedia
	for rows.Next() {
		var pm entity.PublicationMedia
		if err := rows.Scan(&pm.ID, &pm.PublicationID, &pm.MediaID, &pm.Order, &pm.CropData); err != nil {
			return nil, fmt.Errorf("scanning publication media: %w", err)
		}
		items = append(items, pm)
	}

	return items, rows.Err()
}

// ClaimDue atomically claims up to limit due publications: rows are
// selected with a row lock (skipping rows locked by a concurrent
// dispatcher) and transitioned SCHEDULED -> PUBLISHING in the same
// transaction, so a second dispatcher cannot reclaim them.
func (r *PublicationPostgres) ClaimDue(ctx context.Context, now time.Time, limit int) ([]entity.Publication, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+publicationColumns+`
		FROM publications
		WHERE status = 'SCHEDULED' AND publish_at <= $1
		ORDER BY publish_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting due publications: %w", err)
	}

	var pubs []entity.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		pubs = append(pubs, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading due publications: %w", err)
	}

	for i := range pubs {
		if _, err := tx.Exec(ctx, `
			UPDATE publications SET status = 'PUBLISHING', updated_at = $2 WHERE id = $1
		`, pubs[i].ID, now); err != nil {
			return nil, fmt.Errorf("claiming publication: %w", err)
		}
		pubs[i].Status = entity.StatusPublishing
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing claim tx: %w", err)
	}

	return pubs, nil
}

// LoadJob loads a claimed publication with every relation a driver
// needs: content, media ordered by the per-publication order, and the
// social account including its tokens.
func (r *PublicationPostgres) LoadJob(ctx context.Context, pub *entity.Publication) (*entity.Job, error) {
	content, err := r.loadContent(ctx, pub.ContentID)
	if err != nil {
		return nil, err
	}

	account, err := r.accounts.GetWithTokens(ctx, pub.SocialAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("social account %s not found", pub.SocialAccountID)
	}

	allMedia, err := r.media.GetByContentID(ctx, pub.ContentID)
	if err != nil {
		return nil, err
	}
	content.Media = allMedia

	attachments, err := r.GetMedia(ctx, pub.ID)
	if err != nil {
		return nil, err
	}

	job := &entity.Job{
		Publication: pub,
		Content:     content,
		Account:     account,
	}
	for _, pm := range attachments {
		for _, m := range allMedia {
			if m.ID == pm.MediaID {
				job.Media = append(job.Media, m)
				break
			}
		}
	}

	return job, nil
}

func (r *PublicationPostgres) loadContent(ctx context.Context, id string) (*contententity.Content, error) {
	var c contententity.Content
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, client_id, calendar_id, caption, created_at
		FROM contents WHERE id = $1
	`, id).Scan(&c.ID, &c.UserID, &c.ClientID, &c.CalendarID, &c.Caption, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	return &c, nil
}

// MarkPublished records the terminal success state
func (r *PublicationPostgres) MarkPublished(ctx context.Context, id, platformID, link string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE publications
		SET status = 'PUBLISHED', platform_id = NULLIF($2, ''), link = NULLIF($3, ''),
		    error_message = NULL, updated_at = $4
		WHERE id = $1 AND status = 'PUBLISHING'
	`, id, platformID, link, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marking published: %w", err)
	}
	return nil
}

// MarkError records the terminal failure state with its message
func (r *PublicationPostgres) MarkError(ctx context.Context, id, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE publications
		SET status = 'ERROR', error_message = $2, updated_at = $3
		WHERE id = $1 AND status = 'PUBLISHING'
	`, id, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marking error: %w", err)
	}
	return nil
}
