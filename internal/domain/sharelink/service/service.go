package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	calendarentity "github.com/vadim/planer/internal/domain/calendar/entity"
	"github.com/vadim/planer/internal/domain/sharelink/entity"
)

// ShareLinkRepository defines the persistence the service needs
type ShareLinkRepository interface {
	Create(ctx context.Context, l *entity.ShareLink) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*entity.ShareLink, error)
	GetByID(ctx context.Context, id, calendarID, clientID string) (*entity.ShareLink, error)
	List(ctx context.Context, calendarID, clientID string) ([]entity.ShareLink, error)
	Revoke(ctx context.Context, id string, now time.Time) (bool, error)
	Regenerate(ctx context.Context, oldID string, replacement *entity.ShareLink) error
	TouchAccess(ctx context.Context, id string, now time.Time) error
}

// CalendarRepository scopes calendars to a client
type CalendarRepository interface {
	GetByID(ctx context.Context, id, clientID string) (*calendarentity.Calendar, error)
}

// Service handles the manager-facing share link lifecycle
type Service struct {
	links     ShareLinkRepository
	calendars CalendarRepository
	now       func() time.Time
}

// New creates a new share link service
func New(links ShareLinkRepository, calendars CalendarRepository) *Service {
	return &Service{
		links:     links,
		calendars: calendars,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueInput represents input for creating a share link
type IssueInput struct {
	CalendarID string
	ClientID   string
	Permission entity.Permission
	Label      *string
	ExpiresAt  *time.Time
}

// IssueOutput carries the stored link and the raw token. The raw token
// is shown to the caller exactly once and never stored.
type IssueOutput struct {
	Link     *entity.ShareLink
	RawToken string
}

// Issue creates a share link for a calendar the client owns
func (s *Service) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	if in.Permission != entity.PermissionView && in.Permission != entity.PermissionViewAndComment {
		in.Permission = entity.PermissionView
	}

	cal, err := s.calendars.GetByID(ctx, in.CalendarID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, calendarentity.ErrCalendarNotFound
	}

	raw, hash, err := newToken()
	if err != nil {
		return nil, err
	}

	link := &entity.ShareLink{
		CalendarID: in.CalendarID,
		TokenHash:  hash,
		Permission: in.Permission,
		Label:      in.Label,
		ExpiresAt:  in.ExpiresAt,
		IsActive:   true,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}

	return &IssueOutput{Link: link, RawToken: raw}, nil
}

// List retrieves the calendar's share links
func (s *Service) List(ctx context.Context, calendarID, clientID string) ([]entity.ShareLink, error) {
	cal, err := s.calendars.GetByID(ctx, calendarID, clientID)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, calendarentity.ErrCalendarNotFound
	}
	return s.links.List(ctx, calendarID, clientID)
}

// Revoke deactivates a link. Revoking twice is a caller error.
func (s *Service) Revoke(ctx context.Context, id, calendarID, clientID string) error {
	link, err := s.links.GetByID(ctx, id, calendarID, clientID)
	if err != nil {
		return err
	}
	if link == nil {
		return entity.ErrLinkNotFound
	}

	revoked, err := s.links.Revoke(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !revoked {
		return entity.ErrAlreadyRevoked
	}
	return nil
}

// Regenerate revokes a link and issues its replacement in one
// transaction, carrying over permission, label and expiry.
func (s *Service) Regenerate(ctx context.Context, id, calendarID, clientID string) (*IssueOutput, error) {
	old, err := s.links.GetByID(ctx, id, calendarID, clientID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, entity.ErrLinkNotFound
	}

	raw, hash, err := newToken()
	if err != nil {
		return nil, err
	}

	replacement := &entity.ShareLink{
		CalendarID: old.CalendarID,
		TokenHash:  hash,
		Permission: old.Permission,
		Label:      old.Label,
		ExpiresAt:  old.ExpiresAt,
		IsActive:   true,
	}
	if err := s.links.Regenerate(ctx, old.ID, replacement); err != nil {
		return nil, err
	}

	return &IssueOutput{Link: replacement, RawToken: raw}, nil
}

// newToken generates a 256-bit URL-safe token and its SHA-256 hex hash
func newToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	hash = HashToken(raw)
	return raw, hash, nil
}

// HashToken returns the stored hash of a raw token
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
