package service

import (
	"context"
	"time"

	accountentity "github.com/vadim/planer/internal/domain/account/entity"
	calendarentity "github.com/vadim/planer/internal/domain/calendar/entity"
	contententity "github.com/vadim/planer/internal/domain/content/entity"
	pubentity "github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/domain/sharelink/entity"
)

// PublicCalendarRepository fetches the shared calendar without client
// scoping; the resolved link is the authorization.
type PublicCalendarRepository interface {
	GetAnyByID(ctx context.Context, id string) (*calendarentity.Calendar, error)
}

// ContentRepository lists a calendar's contents
type ContentRepository interface {
	ListByCalendar(ctx context.Context, calendarID string) ([]contententity.Content, error)
}

// MediaRepository lists a content's media
type MediaRepository interface {
	GetByContentID(ctx context.Context, contentID string) ([]contententity.Media, error)
}

// PublicationRepository projects a content's publications
type PublicationRepository interface {
	ListByContent(ctx context.Context, contentID string) ([]pubentity.Publication, error)
	BelongsToCalendar(ctx context.Context, publicationID, calendarID string) (bool, error)
}

// CommentRepository defines comment persistence
type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	GetByID(ctx context.Context, id, calendarID string) (*entity.Comment, error)
	ListPage(ctx context.Context, calendarID string, publicationID *string, cursor *time.Time, limit int) ([]entity.Comment, error)
	UpdateBody(ctx context.Context, id, body string) error
	Delete(ctx context.Context, id string) error
}

// Public serves the anonymous share surface
type Public struct {
	links        ShareLinkRepository
	calendars    PublicCalendarRepository
	contents     ContentRepository
	media        MediaRepository
	publications PublicationRepository
	comments     CommentRepository
	now          func() time.Time
}

// NewPublic creates the public share service
func NewPublic(links ShareLinkRepository, calendars PublicCalendarRepository, contents ContentRepository, media MediaRepository, publications PublicationRepository, comments CommentRepository) *Public {
	return &Public{
		links:        links,
		calendars:    calendars,
		contents:     contents,
		media:        media,
		publications: publications,
		comments:     comments,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Resolve validates a raw token and returns the link when it still
// grants access. Valid resolutions bump the access stats, debounced to
// once a minute in the store.
func (p *Public) Resolve(ctx context.Context, rawToken string) (*entity.ShareLink, error) {
	link, err := p.links.GetByTokenHash(ctx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, entity.ErrLinkInvalid
	}

	switch link.Resolvable(p.now()) {
	case entity.ResolveRevoked:
		return nil, entity.ErrLinkRevoked
	case entity.ResolveExpired:
		return nil, entity.ErrLinkExpired
	}

	if err := p.links.TouchAccess(ctx, link.ID, p.now()); err != nil {
		return nil, err
	}
	return link, nil
}

// SharedPublication is the token-free projection of a publication
type SharedPublication struct {
	ID        string                 `json:"id"`
	Platform  accountentity.Platform `json:"platform"`
	Format    pubentity.Format       `json:"format"`
	PublishAt time.Time              `json:"publish_at"`
	Status    pubentity.Status       `json:"status"`
	Link      string                 `json:"link,omitempty"`
}

// SharedContent is one content of the shared calendar with its media
// and publications.
type SharedContent struct {
	ID           string                `json:"id"`
	Caption      string                `json:"caption"`
	Media        []contententity.Media `json:"media"`
	Publications []SharedPublication   `json:"publications"`
}

// SharedCalendar is the projection the public surface serves
type SharedCalendar struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Permission  entity.Permission `json:"permission"`
	Contents    []SharedContent   `json:"contents"`
}

// GetSharedCalendar builds the calendar projection for a resolved link
func (p *Public) GetSharedCalendar(ctx context.Context, link *entity.ShareLink) (*SharedCalendar, error) {
	cal, err := p.calendars.GetAnyByID(ctx, link.CalendarID)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, calendarentity.ErrCalendarNotFound
	}

	contents, err := p.contents.ListByCalendar(ctx, cal.ID)
	if err != nil {
		return nil, err
	}

	shared := &SharedCalendar{
		ID:          cal.ID,
		Name:        cal.Name,
		Description: cal.Description,
		Permission:  link.Permission,
		Contents:    make([]SharedContent, 0, len(contents)),
	}

	for _, c := range contents {
		media, err := p.media.GetByContentID(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		pubs, err := p.publications.ListByContent(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		sc := SharedContent{
			ID:           c.ID,
			Caption:      c.Caption,
			Media:        media,
			Publications: make([]SharedPublication, 0, len(pubs)),
		}
		for _, pub := range pubs {
			sc.Publications = append(sc.Publications, SharedPublication{
				ID:        pub.ID,
				Platform:  pub.Platform,
				Format:    pub.Format,
				PublishAt: pub.PublishAt,
				Status:    pub.Status,
				Link:      pub.Link,
			})
		}
		shared.Contents = append(shared.Contents, sc)
	}

	return shared, nil
}

// PublicComment is the anonymous projection of a comment. Manager
// authorship is reduced to a flag; user ids stay on the tenant surface.
type PublicComment struct {
	ID            string    `json:"id"`
	PublicationID *string   `json:"publicationId,omitempty"`
	AuthorName    string    `json:"authorName"`
	Body          string    `json:"body"`
	IsManager     bool      `json:"isManager"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toPublicComment(c *entity.Comment) PublicComment {
	return PublicComment{
		ID:            c.ID,
		PublicationID: c.PublicationID,
		AuthorName:    c.AuthorName,
		Body:          c.Body,
		IsManager:     c.IsManager(),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CommentPage is one page of comments with forward paging metadata
type CommentPage struct {
	Comments   []PublicComment `json:"comments"`
	HasMore    bool            `json:"hasMore"`
	NextCursor *time.Time      `json:"nextCursor,omitempty"`
}

// GetComments returns one page of the calendar's comments, newest
// first, optionally filtered to one publication.
func (p *Public) GetComments(ctx context.Context, link *entity.ShareLink, publicationID *string, cursor *time.Time, limit int) (*CommentPage, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	comments, err := p.comments.ListPage(ctx, link.CalendarID, publicationID, cursor, limit)
	if err != nil {
		return nil, err
	}

	page := &CommentPage{HasMore: len(comments) > limit}
	if page.HasMore {
		comments = comments[:limit]
	}
	page.Comments = make([]PublicComment, 0, len(comments))
	for i := range comments {
		page.Comments = append(page.Comments, toPublicComment(&comments[i]))
	}
	if page.HasMore {
		last := page.Comments[len(page.Comments)-1].CreatedAt
		page.NextCursor = &last
	}
	return page, nil
}

// CreateCommentInput represents input for a public comment
type CreateCommentInput struct {
	PublicationID *string
	CommenterID   string
	AuthorName    string
	AuthorEmail   *string
	Body          string
}

// CreateComment posts a comment over a commenting link
func (p *Public) CreateComment(ctx context.Context, link *entity.ShareLink, in CreateCommentInput) (*entity.Comment, error) {
	if link.Permission != entity.PermissionViewAndComment {
		return nil, entity.ErrCommentsNotAllowed
	}

	if in.PublicationID != nil {
		ok, err := p.publications.BelongsToCalendar(ctx, *in.PublicationID, link.CalendarID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, entity.ErrPublicationOutside
		}
	}

	comment := &entity.Comment{
		CalendarID:    link.CalendarID,
		PublicationID: in.PublicationID,
		ShareLinkID:   &link.ID,
		CommenterID:   &in.CommenterID,
		AuthorName:    in.AuthorName,
		AuthorEmail:   in.AuthorEmail,
		Body:          in.Body,
	}
	if err := p.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment rewrites the commenter's own comment inside the edit
// window.
func (p *Public) UpdateComment(ctx context.Context, link *entity.ShareLink, id, commenterID, body string) (*entity.Comment, error) {
	comment, err := p.ownComment(ctx, link, id, commenterID)
	if err != nil {
		return nil, err
	}

	if err := p.comments.UpdateBody(ctx, comment.ID, body); err != nil {
		return nil, err
	}
	comment.Body = body
	comment.UpdatedAt = p.now()
	return comment, nil
}

// DeleteComment removes the commenter's own comment inside the edit
// window.
func (p *Public) DeleteComment(ctx context.Context, link *entity.ShareLink, id, commenterID string) error {
	comment, err := p.ownComment(ctx, link, id, commenterID)
	if err != nil {
		return err
	}
	return p.comments.Delete(ctx, comment.ID)
}

// ownComment loads a comment and checks ownership and the edit window
func (p *Public) ownComment(ctx context.Context, link *entity.ShareLink, id, commenterID string) (*entity.Comment, error) {
	if link.Permission != entity.PermissionViewAndComment {
		return nil, entity.ErrCommentsNotAllowed
	}

	comment, err := p.comments.GetByID(ctx, id, link.CalendarID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, entity.ErrCommentNotFound
	}
	if comment.CommenterID == nil || *comment.CommenterID != commenterID {
		return nil, entity.ErrCommentForbidden
	}
	if !comment.EditableBy(commenterID, p.now()) {
		return nil, entity.ErrEditWindowClosed
	}
	return comment, nil
}
