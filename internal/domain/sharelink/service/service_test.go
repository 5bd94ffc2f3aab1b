package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	calendarentity "github.com/vadim/planer/internal/domain/calendar/entity"
	contententity "github.com/vadim/planer/internal/domain/content/entity"
	pubentity "github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/domain/sharelink/entity"
)

type fakeLinkRepo struct {
	seq     int
	links   map[string]*entity.ShareLink
	touched map[string]int
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: map[string]*entity.ShareLink{}, touched: map[string]int{}}
}

func (r *fakeLinkRepo) add(l *entity.ShareLink) *entity.ShareLink {
	r.seq++
	l.ID = fmt.Sprintf("link-%d", r.seq)
	l.CreatedAt = time.Now().UTC()
	r.links[l.ID] = l
	return l
}

func (r *fakeLinkRepo) Create(ctx context.Context, l *entity.ShareLink) error {
	r.add(l)
	return nil
}

func (r *fakeLinkRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.ShareLink, error) {
	for _, l := range r.links {
		if l.TokenHash == tokenHash {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) GetByID(ctx context.Context, id, calendarID, clientID string) (*entity.ShareLink, error) {
	l, ok := r.links[id]
	if !ok || l.CalendarID != calendarID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLinkRepo) List(ctx context.Context, calendarID, clientID string) ([]entity.ShareLink, error) {
	var out []entity.ShareLink
	for _, l := range r.links {
		if l.CalendarID == calendarID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	l, ok := r.links[id]
	if !ok || !l.IsActive {
		return false, nil
	}
	l.IsActive = false
	l.RevokedAt = &now
	return true, nil
}

func (r *fakeLinkRepo) Regenerate(ctx context.Context, oldID string, replacement *entity.ShareLink) error {
	old, ok := r.links[oldID]
	if !ok {
		return errors.New("old link gone")
	}
	old.IsActive = false
	r.add(replacement)
	return nil
}

func (r *fakeLinkRepo) TouchAccess(ctx context.Context, id string, now time.Time) error {
	r.touched[id]++
	return nil
}

type fakeCalendarRepo struct {
	calendars map[string]*calendarentity.Calendar
}

func (r *fakeCalendarRepo) GetByID(ctx context.Context, id, clientID string) (*calendarentity.Calendar, error) {
	cal, ok := r.calendars[id]
	if !ok || cal.ClientID != clientID {
		return nil, nil
	}
	return cal, nil
}

func (r *fakeCalendarRepo) GetAnyByID(ctx context.Context, id string) (*calendarentity.Calendar, error) {
	return r.calendars[id], nil
}

type fakeContentRepo struct {
	byCalendar map[string][]contententity.Content
}

func (r *fakeContentRepo) ListByCalendar(ctx context.Context, calendarID string) ([]contententity.Content, error) {
	return r.byCalendar[calendarID], nil
}

type fakeMediaRepo struct {
	byContent map[string][]contententity.Media
}

func (r *fakeMediaRepo) GetByContentID(ctx context.Context, contentID string) ([]contententity.Media, error) {
	return r.byContent[contentID], nil
}

type fakePublicationRepo struct {
	byContent  map[string][]pubentity.Publication
	inCalendar map[string]string
}

func (r *fakePublicationRepo) ListByContent(ctx context.Context, contentID string) ([]pubentity.Publication, error) {
	return r.byContent[contentID], nil
}

func (r *fakePublicationRepo) BelongsToCalendar(ctx context.Context, publicationID, calendarID string) (bool, error) {
	return r.inCalendar[publicationID] == calendarID, nil
}

type fakeCommentRepo struct {
	seq      int
	comments map[string]*entity.Comment
	page     []entity.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[string]*entity.Comment{}}
}

func (r *fakeCommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	r.seq++
	c.ID = fmt.Sprintf("comment-%d", r.seq)
	c.CreatedAt = time.Now().UTC()
	r.comments[c.ID] = c
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id, calendarID string) (*entity.Comment, error) {
	c, ok := r.comments[id]
	if !ok || c.CalendarID != calendarID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommentRepo) ListPage(ctx context.Context, calendarID string, publicationID *string, cursor *time.Time, limit int) ([]entity.Comment, error) {
	if len(r.page) > limit+1 {
		return r.page[:limit+1], nil
	}
	return r.page, nil
}

func (r *fakeCommentRepo) UpdateBody(ctx context.Context, id, body string) error {
	c, ok := r.comments[id]
	if !ok {
		return errors.New("comment gone")
	}
	c.Body = body
	return nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, id string) error {
	delete(r.comments, id)
	return nil
}

func testService() (*Service, *fakeLinkRepo) {
	links := newFakeLinkRepo()
	cals := &fakeCalendarRepo{calendars: map[string]*calendarentity.Calendar{
		"cal-1": {ID: "cal-1", ClientID: "client-1", Name: "August"},
	}}
	return New(links, cals), links
}

func TestIssueReturnsRawTokenOnce(t *testing.T) {
	svc, _ := testService()

	out, err := svc.Issue(context.Background(), IssueInput{
		CalendarID: "cal-1",
		ClientID:   "client-1",
		Permission: entity.PermissionViewAndComment,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(out.RawToken)
	if err != nil {
		t.Fatalf("raw token is not URL-safe base64: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("token entropy = %d bytes, want 32", len(raw))
	}
	if out.Link.TokenHash != HashToken(out.RawToken) {
		t.Error("stored hash does not match the raw token")
	}
	if !out.Link.IsActive {
		t.Error("issued link must be active")
	}
	if out.Link.Permission != entity.PermissionViewAndComment {
		t.Errorf("permission = %s", out.Link.Permission)
	}
}

func TestIssueDefaultsToView(t *testing.T) {
	svc, _ := testService()

	out, err := svc.Issue(context.Background(), IssueInput{CalendarID: "cal-1", ClientID: "client-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if out.Link.Permission != entity.PermissionView {
		t.Errorf("permission = %s, want VIEW", out.Link.Permission)
	}
}

func TestIssueForeignCalendar(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Issue(context.Background(), IssueInput{CalendarID: "cal-1", ClientID: "client-2"})
	if !errors.Is(err, calendarentity.ErrCalendarNotFound) {
		t.Errorf("err = %v, want calendar not found", err)
	}
}

func TestRevokeTwice(t *testing.T) {
	svc, links := testService()

	link := links.add(&entity.ShareLink{CalendarID: "cal-1", IsActive: true})

	if err := svc.Revoke(context.Background(), link.ID, "cal-1", "client-1"); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	err := svc.Revoke(context.Background(), link.ID, "cal-1", "client-1")
	if !errors.Is(err, entity.ErrAlreadyRevoked) {
		t.Errorf("second revoke err = %v, want already revoked", err)
	}
}

func TestRevokeUnknownLink(t *testing.T) {
	svc, _ := testService()

	err := svc.Revoke(context.Background(), "nope", "cal-1", "client-1")
	if !errors.Is(err, entity.ErrLinkNotFound) {
		t.Errorf("err = %v, want link not found", err)
	}
}

func TestRegenerateCarriesSettings(t *testing.T) {
	svc, links := testService()

	label := "for the agency"
	expires := time.Now().UTC().Add(48 * time.Hour)
	old := links.add(&entity.ShareLink{
		CalendarID: "cal-1",
		TokenHash:  "old-hash",
		Permission: entity.PermissionViewAndComment,
		Label:      &label,
		ExpiresAt:  &expires,
		IsActive:   true,
	})

	out, err := svc.Regenerate(context.Background(), old.ID, "cal-1", "client-1")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	if out.Link.ID == old.ID {
		t.Error("replacement must be a new link")
	}
	if out.Link.TokenHash == "old-hash" {
		t.Error("replacement must carry a fresh token")
	}
	if out.Link.Permission != entity.PermissionViewAndComment {
		t.Errorf("permission = %s", out.Link.Permission)
	}
	if out.Link.Label == nil || *out.Link.Label != label {
		t.Error("label not carried over")
	}
	if out.Link.ExpiresAt == nil || !out.Link.ExpiresAt.Equal(expires) {
		t.Error("expiry not carried over")
	}
	if links.links[old.ID].IsActive {
		t.Error("old link must be revoked")
	}
}
