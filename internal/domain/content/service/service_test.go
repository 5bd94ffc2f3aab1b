package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	calendarentity "github.com/vadim/planer/internal/domain/calendar/entity"
	"github.com/vadim/planer/internal/domain/content/entity"
)

type fakeContentRepo struct {
	seq        int
	contents   map[string]*entity.Content
	busy       map[string]bool
	byCalendar map[string][]entity.Content
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		contents:   map[string]*entity.Content{},
		busy:       map[string]bool{},
		byCalendar: map[string][]entity.Content{},
	}
}

func (r *fakeContentRepo) Create(ctx context.Context, c *entity.Content) error {
	r.seq++
	c.ID = fmt.Sprintf("content-%d", r.seq)
	r.contents[c.ID] = c
	return nil
}

func (r *fakeContentRepo) GetByID(ctx context.Context, id, clientID string) (*entity.Content, error) {
	c, ok := r.contents[id]
	if !ok || c.ClientID != clientID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContentRepo) ListByCalendar(ctx context.Context, calendarID string) ([]entity.Content, error) {
	return r.byCalendar[calendarID], nil
}

func (r *fakeContentRepo) HasNonErrorPublications(ctx context.Context, contentID string) (bool, error) {
	return r.busy[contentID], nil
}

func (r *fakeContentRepo) Delete(ctx context.Context, id, clientID string) (bool, error) {
	c, ok := r.contents[id]
	if !ok || c.ClientID != clientID {
		return false, nil
	}
	delete(r.contents, id)
	return true, nil
}

type fakeMediaRepo struct {
	seq        int
	media      map[string]*entity.Media
	referenced map[string]bool
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{media: map[string]*entity.Media{}, referenced: map[string]bool{}}
}

func (r *fakeMediaRepo) Create(ctx context.Context, m *entity.Media) error {
	r.seq++
	m.ID = fmt.Sprintf("media-%d", r.seq)
	r.media[m.ID] = m
	return nil
}

func (r *fakeMediaRepo) GetByID(ctx context.Context, id, clientID string) (*entity.Media, error) {
	m, ok := r.media[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMediaRepo) GetByContentID(ctx context.Context, contentID string) ([]entity.Media, error) {
	var out []entity.Media
	for _, m := range r.media {
		if m.ContentID == contentID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) CountByContentID(ctx context.Context, contentID string) (int, error) {
	n := 0
	for _, m := range r.media {
		if m.ContentID == contentID {
			n++
		}
	}
	return n, nil
}

func (r *fakeMediaRepo) IsReferenced(ctx context.Context, id string) (bool, error) {
	return r.referenced[id], nil
}

func (r *fakeMediaRepo) Delete(ctx context.Context, id string) error {
	delete(r.media, id)
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

type fakeObjectStore struct {
	objects map[string][]byte
	deleted []string
	fail    bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if s.fail {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "https://media.example.com/" + key, nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func testService(maxPerContent int) (*Service, *fakeContentRepo, *fakeMediaRepo, *fakeObjectStore) {
	contents := newFakeContentRepo()
	media := newFakeMediaRepo()
	store := newFakeObjectStore()
	cals := &fakeCalendarRepo{calendars: map[string]*calendarentity.Calendar{
		"cal-1": {ID: "cal-1", ClientID: "client-1", Name: "August"},
	}}
	return New(contents, media, cals, store, maxPerContent), contents, media, store
}

func seedContent(t *testing.T, svc *Service) *entity.Content {
	t.Helper()
	c, err := svc.Create(context.Background(), CreateInput{
		UserID:   "user-1",
		ClientID: "client-1",
		Caption:  "launch",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func upload(contentID, mime, filename string, size int64) UploadInput {
	return UploadInput{
		ContentID: contentID,
		ClientID:  "client-1",
		Filename:  filename,
		MimeType:  mime,
		Size:      size,
		Body:      bytes.NewReader([]byte("bytes")),
	}
}

func TestCreateWithForeignCalendar(t *testing.T) {
	svc, _, _, _ := testService(10)

	foreign := "cal-other"
	_, err := svc.Create(context.Background(), CreateInput{
		UserID:     "user-1",
		ClientID:   "client-1",
		CalendarID: &foreign,
	})
	if !errors.Is(err, entity.ErrCalendarMismatch) {
		t.Errorf("err = %v, want calendar mismatch", err)
	}
}

func TestUploadMediaStoresUnderClientKey(t *testing.T) {
	svc, _, _, store := testService(10)
	c := seedContent(t, svc)

	m, err := svc.UploadMedia(context.Background(), upload(c.ID, "image/jpeg", "photo.jpg", 1024))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}

	prefix := fmt.Sprintf("clients/client-1/contents/%s/", c.ID)
	if !strings.HasPrefix(m.Key, prefix) || !strings.HasSuffix(m.Key, ".jpg") {
		t.Errorf("key = %q", m.Key)
	}
	if m.Type != entity.MediaTypeImage {
		t.Errorf("type = %s", m.Type)
	}
	if _, ok := store.objects[m.Key]; !ok {
		t.Error("object not stored")
	}
	if m.URL != "https://media.example.com/"+m.Key {
		t.Errorf("url = %q", m.URL)
	}
}

func TestUploadMediaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		filename string
		size     int64
		wantErr  error
	}{
		{"oversized image", "image/jpeg", "a.jpg", maxImageSize + 1, entity.ErrFileTooLarge},
		{"oversized video", "video/mp4", "a.mp4", maxVideoSize + 1, entity.ErrFileTooLarge},
		{"video within image limit overage", "video/mp4", "a.mp4", maxImageSize + 1, nil},
		{"unsupported type", "application/pdf", "a.pdf", 1024, entity.ErrUnsupportedMimeType},
		{"octet-stream with mp4 extension", "application/octet-stream", "clip.MP4", 1024, nil},
		{"octet-stream with unknown extension", "application/octet-stream", "a.bin", 1024, entity.ErrUnsupportedMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := testService(10)
			c := seedContent(t, svc)

			_, err := svc.UploadMedia(context.Background(), upload(c.ID, tt.mime, tt.filename, tt.size))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("err = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUploadMediaLimit(t *testing.T) {
	svc, _, _, _ := testService(2)
	c := seedContent(t, svc)

	for i := 0; i < 2; i++ {
		if _, err := svc.UploadMedia(context.Background(), upload(c.ID, "image/png", "a.png", 512)); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	_, err := svc.UploadMedia(context.Background(), upload(c.ID, "image/png", "a.png", 512))
	if !errors.Is(err, entity.ErrMediaLimitReached) {
		t.Errorf("err = %v, want media limit", err)
	}
}

func TestDeleteMediaWhileReferenced(t *testing.T) {
	svc, _, media, store := testService(10)
	c := seedContent(t, svc)

	m, err := svc.UploadMedia(context.Background(), upload(c.ID, "image/png", "a.png", 512))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}

	media.referenced[m.ID] = true
	err = svc.DeleteMedia(context.Background(), m.ID, "client-1")
	if !errors.Is(err, entity.ErrMediaInUse) {
		t.Errorf("err = %v, want media in use", err)
	}

	media.referenced[m.ID] = false
	if err := svc.DeleteMedia(context.Background(), m.ID, "client-1"); err != nil {
		t.Fatalf("DeleteMedia: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != m.Key {
		t.Errorf("deleted objects = %v", store.deleted)
	}
}

func TestDeleteContentGuards(t *testing.T) {
	svc, contents, _, store := testService(10)
	c := seedContent(t, svc)

	m, err := svc.UploadMedia(context.Background(), upload(c.ID, "image/png", "a.png", 512))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}

	contents.busy[c.ID] = true
	err = svc.Delete(context.Background(), c.ID, "client-1")
	if !errors.Is(err, entity.ErrContentHasPublications) {
		t.Errorf("err = %v, want has publications", err)
	}

	contents.busy[c.ID] = false
	if err := svc.Delete(context.Background(), c.ID, "client-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	found := false
	for _, k := range store.deleted {
		if k == m.Key {
			found = true
		}
	}
	if !found {
		t.Error("stored object not cleaned up")
	}
}
