package service

import (
	"context"
	"time"

	accountentity "github.com/vadim/planer/internal/domain/account/entity"
	contententity "github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/publication/dao"
	"github.com/vadim/planer/internal/domain/publication/entity"
)

// PublicationRepository defines the persistence the service needs
type PublicationRepository interface {
	Create(ctx context.Context, pub *entity.Publication, media []entity.PublicationMedia) error
	GetByID(ctx context.Context, id, clientID string) (*entity.Publication, error)
	List(ctx context.Context, clientID string, filter dao.Filter, page, limit int) ([]entity.Publication, int64, error)
	Update(ctx context.Context, pub *entity.Publication, media []entity.PublicationMedia) error
	Delete(ctx context.Context, id string) error
	GetMedia(ctx context.Context, publicationID string) ([]entity.PublicationMedia, error)
}

// AccountRepository provides the target social account
type AccountRepository interface {
	GetByID(ctx context.Context, id, clientID string) (*accountentity.SocialAccount, error)
}

// ContentRepository provides the content and its media set
type ContentRepository interface {
	GetByID(ctx context.Context, id, clientID string) (*contententity.Content, error)
}

// MediaRepository lists a content's media
type MediaRepository interface {
	GetByContentID(ctx context.Context, contentID string) ([]contententity.Media, error)
}

// Service handles business logic for publications
type Service struct {
	publications PublicationRepository
	accounts     AccountRepository
	contents     ContentRepository
	media        MediaRepository
}

// New creates a new publication service
func New(publications PublicationRepository, accounts AccountRepository, contents ContentRepository, media MediaRepository) *Service {
	return &Service{
		publications: publications,
		accounts:     accounts,
		contents:     contents,
		media:        media,
	}
}

// MediaInput attaches a content media item in a given order
type MediaInput struct {
	MediaID  string
	Order    int
	CropData map[string]interface{}
}

// CreateInput represents input for scheduling a publication
type CreateInput struct {
	ClientID        string
	ContentID       string
	SocialAccountID string
	Platform        accountentity.Platform
	Format          entity.Format
	PublishAt       time.Time
	CustomCaption   *string
	PlatformConfig  map[string]interface{}
	KanbanColumnID  *string
	Media           []MediaInput
}

// Create schedules a publication after checking that the account
// matches the platform, is active, the format is valid, and every
// attached media belongs to the content.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Publication, error) {
	cont, err := s.contents.GetByID(ctx, in.ContentID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if cont == nil {
		return nil, contententity.ErrContentNotFound
	}

	acc, err := s.accounts.GetByID(ctx, in.SocialAccountID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, accountentity.ErrAccountNotFound
	}
	if acc.Platform != in.Platform {
		return nil, entity.ErrPlatformMismatch
	}
	if !acc.IsActive {
		return nil, accountentity.ErrAccountInactive
	}

	if !formatValid(in.Platform, in.Format) {
		return nil, entity.ErrInvalidFormat
	}

	media, err := s.resolveMedia(ctx, in.ContentID, in.Media)
	if err != nil {
		return nil, err
	}

	pub := &entity.Publication{
		ContentID:       in.ContentID,
		SocialAccountID: in.SocialAccountID,
		Platform:        in.Platform,
		Format:          in.Format,
		PublishAt:       in.PublishAt,
		Status:          entity.StatusScheduled,
		CustomCaption:   in.CustomCaption,
		PlatformConfig:  in.PlatformConfig,
		KanbanColumnID:  in.KanbanColumnID,
	}

	if err := s.publications.Create(ctx, pub, media); err != nil {
		return nil, err
	}

	return pub, nil
}

// Get retrieves a publication scoped to the client
func (s *Service) Get(ctx context.Context, id, clientID string) (*entity.Publication, error) {
	pub, err := s.publications.GetByID(ctx, id, clientID)
	if err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, entity.ErrPublicationNotFound
	}
	return pub, nil
}

// ListOutput carries one page of publications with paging metadata
type ListOutput struct {
	Publications []entity.Publication
	Total        int64
	Page         int
	Limit        int
	TotalPages   int
}

// List retrieves one page of the client's publications
func (s *Service) List(ctx context.Context, clientID string, filter dao.Filter, page, limit int) (*ListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	pubs, total, err := s.publications.List(ctx, clientID, filter, page, limit)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ListOutput{
		Publications: pubs,
		Total:        total,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
	}, nil
}

// UpdateInput represents input for rescheduling or editing a publication
type UpdateInput struct {
	ID             string
	ClientID       string
	PublishAt      *time.Time
	CustomCaption  *string
	ClearCaption   bool
	PlatformConfig map[string]interface{}
	Format         *entity.Format
	KanbanColumnID *string
	KanbanOrder    *int
	Media          []MediaInput // nil means keep the current set
}

// Update edits a publication. PUBLISHED and PUBLISHING rows are
// immutable; an errored row returns to SCHEDULED when rescheduled.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Publication, error) {
	pub, err := s.Get(ctx, in.ID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if !pub.IsEditable() {
		return nil, entity.ErrPublicationNotEditable
	}

	if in.PublishAt != nil {
		pub.PublishAt = *in.PublishAt
		if pub.Status == entity.StatusError {
			pub.Status = entity.StatusScheduled
			pub.ErrorMessage = ""
		}
	}
	if in.ClearCaption {
		pub.CustomCaption = nil
	} else if in.CustomCaption != nil {
		pub.CustomCaption = in.CustomCaption
	}
	if in.PlatformConfig != nil {
		pub.PlatformConfig = in.PlatformConfig
	}
	if in.Format != nil {
		if !formatValid(pub.Platform, *in.Format) {
			return nil, entity.ErrInvalidFormat
		}
		pub.Format = *in.Format
	}
	if in.KanbanColumnID != nil {
		pub.KanbanColumnID = in.KanbanColumnID
	}
	if in.KanbanOrder != nil {
		pub.KanbanOrder = in.KanbanOrder
	}

	var media []entity.PublicationMedia
	if in.Media != nil {
		media, err = s.resolveMedia(ctx, pub.ContentID, in.Media)
		if err != nil {
			return nil, err
		}
	}

	if err := s.publications.Update(ctx, pub, media); err != nil {
		return nil, err
	}

	return pub, nil
}

// Delete removes a publication unless it is mid-publish
func (s *Service) Delete(ctx context.Context, id, clientID string) error {
	pub, err := s.Get(ctx, id, clientID)
	if err != nil {
		return err
	}
	if !pub.IsDeletable() {
		return entity.ErrPublicationPublishing
	}
	return s.publications.Delete(ctx, pub.ID)
}

// resolveMedia checks that every referenced media belongs to the
// content and builds the attachment rows.
func (s *Service) resolveMedia(ctx context.Context, contentID string, in []MediaInput) ([]entity.PublicationMedia, error) {
	contentMedia, err := s.media.GetByContentID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(contentMedia))
	for _, m := range contentMedia {
		known[m.ID] = struct{}{}
	}

	media := make([]entity.PublicationMedia, 0, len(in))
	for _, m := range in {
		if _, ok := known[m.MediaID]; !ok {
			return nil, entity.ErrMediaNotInContent
		}
		media = append(media, entity.PublicationMedia{
			MediaID:  m.MediaID,
			Order:    m.Order,
			CropData: m.CropData,
		})
	}
	return media, nil
}

func formatValid(p accountentity.Platform, f entity.Format) bool {
	for _, valid := range entity.ValidFormats(p) {
		if f == valid {
			return true
		}
	}
	return false
}
