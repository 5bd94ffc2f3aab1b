package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	calendarentity "github.com/vadim/planer/internal/domain/calendar/entity"
	"github.com/vadim/planer/internal/domain/content/entity"
)

const (
	maxImageSize = 10 * 1024 * 1024
	maxVideoSize = 100 * 1024 * 1024
)

// imageMimeTypes and videoMimeTypes are the accepted upload types
var (
	imageMimeTypes = map[string]string{
		"image/jpeg": "jpg",
		"image/png":  "png",
		"image/webp": "webp",
		"image/gif":  "gif",
	}
	videoMimeTypes = map[string]string{
		"video/mp4":       "mp4",
		"video/quicktime": "mov",
	}
)

// ContentRepository defines content persistence
type ContentRepository interface {
	Create(ctx context.Context, c *entity.Content) error
	GetByID(ctx context.Context, id, clientID string) (*entity.Content, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]entity.Content, error)
	HasNonErrorPublications(ctx context.Context, contentID string) (bool, error)
	Delete(ctx context.Context, id, clientID string) (bool, error)
}

// MediaRepository defines media persistence
type MediaRepository interface {
	Create(ctx context.Context, m *entity.Media) error
	GetByID(ctx context.Context, id, clientID string) (*entity.Media, error)
	GetByContentID(ctx context.Context, contentID string) ([]entity.Media, error)
	CountByContentID(ctx context.Context, contentID string) (int, error)
	IsReferenced(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// CalendarRepository checks calendar ownership
type CalendarRepository interface {
	GetByID(ctx context.Context, id, clientID string) (*calendarentity.Calendar, error)
}

// ObjectStore uploads and deletes stored media files
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service handles contents and their media files
type Service struct {
	contents      ContentRepository
	media         MediaRepository
	calendars     CalendarRepository
	store         ObjectStore
	maxPerContent int
}

// New creates a new content service
func New(contents ContentRepository, media MediaRepository, calendars CalendarRepository, store ObjectStore, maxPerContent int) *Service {
	return &Service{
		contents:      contents,
		media:         media,
		calendars:     calendars,
		store:         store,
		maxPerContent: maxPerContent,
	}
}

// CreateInput represents input for creating a content
type CreateInput struct {
	UserID     string
	ClientID   string
	CalendarID *string
	Caption    string
}

// Create creates a content, checking calendar ownership when one is
// given.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Content, error) {
	if in.CalendarID != nil {
		cal, err := s.calendars.GetByID(ctx, *in.CalendarID, in.ClientID)
		if err != nil {
			return nil, err
		}
		if cal == nil {
			return nil, entity.ErrCalendarMismatch
		}
	}

	c := &entity.Content{
		UserID:     in.UserID,
		ClientID:   in.ClientID,
		CalendarID: in.CalendarID,
		Caption:    in.Caption,
	}
	if err := s.contents.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a content with its media
func (s *Service) Get(ctx context.Context, id, clientID string) (*entity.Content, error) {
	c, err := s.contents.GetByID(ctx, id, clientID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, entity.ErrContentNotFound
	}

	media, err := s.media.GetByContentID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Media = media
	return c, nil
}

// ListByCalendar retrieves the calendar's contents after checking
// ownership.
func (s *Service) ListByCalendar(ctx context.Context, calendarID, clientID string) ([]entity.Content, error) {
	cal, err := s.calendars.GetByID(ctx, calendarID, clientID)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, calendarentity.ErrCalendarNotFound
	}
	return s.contents.ListByCalendar(ctx, calendarID)
}

// Delete removes a content unless non-error publications still
// reference it.
func (s *Service) Delete(ctx context.Context, id, clientID string) error {
	c, err := s.contents.GetByID(ctx, id, clientID)
	if err != nil {
		return err
	}
	if c == nil {
		return entity.ErrContentNotFound
	}

	busy, err := s.contents.HasNonErrorPublications(ctx, c.ID)
	if err != nil {
		return err
	}
	if busy {
		return entity.ErrContentHasPublications
	}

	media, err := s.media.GetByContentID(ctx, c.ID)
	if err != nil {
		return err
	}

	deleted, err := s.contents.Delete(ctx, id, clientID)
	if err != nil {
		return err
	}
	if !deleted {
		return entity.ErrContentNotFound
	}

	for _, m := range media {
		if err := s.store.Delete(ctx, m.Key); err != nil {
			return fmt.Errorf("deleting stored object: %w", err)
		}
	}
	return nil
}

// UploadInput represents one multipart media upload
type UploadInput struct {
	ContentID string
	ClientID  string
	Filename  string
	MimeType  string
	Size      int64
	Body      io.Reader
}

// UploadMedia validates the file against the media policy, stores it
// and appends it to the content's media set.
func (s *Service) UploadMedia(ctx context.Context, in UploadInput) (*entity.Media, error) {
	c, err := s.contents.GetByID(ctx, in.ContentID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, entity.ErrContentNotFound
	}

	count, err := s.media.CountByContentID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxPerContent {
		return nil, entity.ErrMediaLimitReached
	}

	mediaType, ext, err := classify(in.MimeType, in.Filename)
	if err != nil {
		return nil, err
	}
	if mediaType == entity.MediaTypeImage && in.Size > maxImageSize {
		return nil, entity.ErrFileTooLarge
	}
	if mediaType == entity.MediaTypeVideo && in.Size > maxVideoSize {
		return nil, entity.ErrFileTooLarge
	}

	key := fmt.Sprintf("clients/%s/contents/%s/%s.%s", in.ClientID, in.ContentID, uuid.New().String(), ext)
	url, err := s.store.Upload(ctx, key, in.MimeType, in.Body, in.Size)
	if err != nil {
		return nil, fmt.Errorf("uploading media: %w", err)
	}

	m := &entity.Media{
		ContentID: in.ContentID,
		URL:       url,
		Key:       key,
		Type:      mediaType,
		MimeType:  in.MimeType,
		Size:      in.Size,
	}
	if err := s.media.Create(ctx, m); err != nil {
		// Best effort: do not leave an orphaned object behind
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return m, nil
}

// DeleteMedia removes a media file unless a publication references it
func (s *Service) DeleteMedia(ctx context.Context, id, clientID string) error {
	m, err := s.media.GetByID(ctx, id, clientID)
	if err != nil {
		return err
	}
	if m == nil {
		return entity.ErrMediaNotFound
	}

	referenced, err := s.media.IsReferenced(ctx, m.ID)
	if err != nil {
		return err
	}
	if referenced {
		return entity.ErrMediaInUse
	}

	if err := s.media.Delete(ctx, m.ID); err != nil {
		return err
	}
	return s.store.Delete(ctx, m.Key)
}

// classify maps an upload's MIME type to its media type and extension
func classify(mimeType, filename string) (entity.MediaType, string, error) {
	if ext, ok := imageMimeTypes[mimeType]; ok {
		return entity.MediaTypeImage, ext, nil
	}
	if ext, ok := videoMimeTypes[mimeType]; ok {
		return entity.MediaTypeVideo, ext, nil
	}
	// Some browsers send a generic type; fall back to the extension
	if mimeType == "application/octet-stream" {
		switch strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")) {
		case "jpg", "jpeg":
			return entity.MediaTypeImage, "jpg", nil
		case "png":
			return entity.MediaTypeImage, "png", nil
		case "mp4":
			return entity.MediaTypeVideo, "mp4", nil
		}
	}
	return "", "", entity.ErrUnsupportedMimeType
}
