package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	accountentity "github.com/vadim/planer/internal/domain/account/entity"
	contententity "github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/publication/dao"
	"github.com/vadim/planer/internal/domain/publication/entity"
)

type fakePublicationRepo struct {
	seq          int
	publications map[string]*entity.Publication
	media        map[string][]entity.PublicationMedia
	deleted      []string
}

func newFakePublicationRepo() *fakePublicationRepo {
	return &fakePublicationRepo{
		publications: map[string]*entity.Publication{},
		media:        map[string][]entity.PublicationMedia{},
	}
}

func (r *fakePublicationRepo) Create(ctx context.Context, pub *entity.Publication, media []entity.PublicationMedia) error {
	r.seq++
	pub.ID = fmt.Sprintf("pub-%d", r.seq)
	r.publications[pub.ID] = pub
	r.media[pub.ID] = media
	return nil
}

func (r *fakePublicationRepo) GetByID(ctx context.Context, id, clientID string) (*entity.Publication, error) {
	pub, ok := r.publications[id]
	if !ok {
		return nil, nil
	}
	cp := *pub
	return &cp, nil
}

func (r *fakePublicationRepo) List(ctx context.Context, clientID string, filter dao.Filter, page, limit int) ([]entity.Publication, int64, error) {
	var out []entity.Publication
	for _, pub := range r.publications {
		out = append(out, *pub)
	}
	return out, int64(len(out)), nil
}

func (r *fakePublicationRepo) Update(ctx context.Context, pub *entity.Publication, media []entity.PublicationMedia) error {
	r.publications[pub.ID] = pub
	if media != nil {
		r.media[pub.ID] = media
	}
	return nil
}

func (r *fakePublicationRepo) Delete(ctx context.Context, id string) error {
	delete(r.publications, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakePublicationRepo) GetMedia(ctx context.Context, publicationID string) ([]entity.PublicationMedia, error) {
	return r.media[publicationID], nil
}

type fakeAccountRepo struct {
	accounts map[string]*accountentity.SocialAccount
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id, clientID string) (*accountentity.SocialAccount, error) {
	acc, ok := r.accounts[id]
	if !ok || acc.ClientID != clientID {
		return nil, nil
	}
	return acc, nil
}

type fakeContentRepo struct {
	contents map[string]*contententity.Content
}

func (r *fakeContentRepo) GetByID(ctx context.Context, id, clientID string) (*contententity.Content, error) {
	c, ok := r.contents[id]
	if !ok || c.ClientID != clientID {
		return nil, nil
	}
	return c, nil
}

type fakeMediaRepo struct {
	byContent map[string][]contententity.Media
}

func (r *fakeMediaRepo) GetByContentID(ctx context.Context, contentID string) ([]contententity.Media, error) {
	return r.byContent[contentID], nil
}

func testService() (*Service, *fakePublicationRepo) {
	pubs := newFakePublicationRepo()
	accounts := &fakeAccountRepo{accounts: map[string]*accountentity.SocialAccount{
		"acc-ig": {ID: "acc-ig", ClientID: "client-1", Platform: accountentity.PlatformInstagram, IsActive: true},
		"acc-tt": {ID: "acc-tt", ClientID: "client-1", Platform: accountentity.PlatformTikTok, IsActive: true},
		"acc-off": {ID: "acc-off", ClientID: "client-1", Platform: accountentity.PlatformInstagram, IsActive: false},
	}}
	contents := &fakeContentRepo{contents: map[string]*contententity.Content{
		"content-1": {ID: "content-1", ClientID: "client-1", Caption: "launch"},
	}}
	media := &fakeMediaRepo{byContent: map[string][]contententity.Media{
		"content-1": {
			{ID: "m-1", ContentID: "content-1", Type: contententity.MediaTypeImage},
			{ID: "m-2", ContentID: "content-1", Type: contententity.MediaTypeVideo},
		},
	}}
	return New(pubs, accounts, contents, media), pubs
}

func validCreate() CreateInput {
	return CreateInput{
		ClientID:        "client-1",
		ContentID:       "content-1",
		SocialAccountID: "acc-ig",
		Platform:        accountentity.PlatformInstagram,
		Format:          entity.FormatFeed,
		PublishAt:       time.Now().UTC().Add(time.Hour),
		Media:           []MediaInput{{MediaID: "m-1", Order: 0}},
	}
}

func TestCreateSchedules(t *testing.T) {
	svc, repo := testService()

	pub, err := svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pub.Status != entity.StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", pub.Status)
	}
	if len(repo.media[pub.ID]) != 1 || repo.media[pub.ID][0].MediaID != "m-1" {
		t.Errorf("attached media = %+v", repo.media[pub.ID])
	}
}

func TestCreateGuards(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *CreateInput)
		wantErr error
	}{
		{
			"unknown content",
			func(in *CreateInput) { in.ContentID = "nope" },
			contententity.ErrContentNotFound,
		},
		{
			"unknown account",
			func(in *CreateInput) { in.SocialAccountID = "nope" },
			accountentity.ErrAccountNotFound,
		},
		{
			"platform mismatch",
			func(in *CreateInput) { in.SocialAccountID = "acc-tt" },
			entity.ErrPlatformMismatch,
		},
		{
			"inactive account",
			func(in *CreateInput) { in.SocialAccountID = "acc-off" },
			accountentity.ErrAccountInactive,
		},
		{
			"format invalid for platform",
			func(in *CreateInput) { in.Format = entity.FormatVideo },
			entity.ErrInvalidFormat,
		},
		{
			"media from another content",
			func(in *CreateInput) { in.Media = []MediaInput{{MediaID: "foreign"}} },
			entity.ErrMediaNotInContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := testService()
			in := validCreate()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListClampsPaging(t *testing.T) {
	svc, _ := testService()
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), validCreate()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	out, err := svc.List(context.Background(), "client-1", dao.Filter{}, 0, 1000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out.Page != 1 || out.Limit != 20 {
		t.Errorf("page=%d limit=%d, want clamped defaults 1/20", out.Page, out.Limit)
	}
	if out.Total != 3 || out.TotalPages != 1 {
		t.Errorf("total=%d totalPages=%d", out.Total, out.TotalPages)
	}
}

func TestUpdateImmutableStates(t *testing.T) {
	for _, status := range []entity.Status{entity.StatusPublishing, entity.StatusPublished} {
		t.Run(string(status), func(t *testing.T) {
			svc, repo := testService()
			pub, _ := svc.Create(context.Background(), validCreate())
			repo.publications[pub.ID].Status = status

			at := time.Now().UTC().Add(2 * time.Hour)
			_, err := svc.Update(context.Background(), UpdateInput{
				ID: pub.ID, ClientID: "client-1", PublishAt: &at,
			})
			if !errors.Is(err, entity.ErrPublicationNotEditable) {
				t.Errorf("err = %v, want not editable", err)
			}
		})
	}
}

func TestUpdateReschedulesErroredRow(t *testing.T) {
	svc, repo := testService()
	pub, _ := svc.Create(context.Background(), validCreate())
	repo.publications[pub.ID].Status = entity.StatusError
	repo.publications[pub.ID].ErrorMessage = "upstream rejected the media"

	at := time.Now().UTC().Add(2 * time.Hour)
	updated, err := svc.Update(context.Background(), UpdateInput{
		ID: pub.ID, ClientID: "client-1", PublishAt: &at,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != entity.StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", updated.Status)
	}
	if updated.ErrorMessage != "" {
		t.Errorf("error message not cleared: %q", updated.ErrorMessage)
	}
}

func TestUpdateCaption(t *testing.T) {
	svc, _ := testService()
	pub, _ := svc.Create(context.Background(), validCreate())

	custom := "custom caption"
	updated, err := svc.Update(context.Background(), UpdateInput{
		ID: pub.ID, ClientID: "client-1", CustomCaption: &custom,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CustomCaption == nil || *updated.CustomCaption != custom {
		t.Errorf("custom caption = %v", updated.CustomCaption)
	}

	updated, err = svc.Update(context.Background(), UpdateInput{
		ID: pub.ID, ClientID: "client-1", ClearCaption: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CustomCaption != nil {
		t.Errorf("caption not cleared: %v", *updated.CustomCaption)
	}
}

func TestUpdateRejectsInvalidFormat(t *testing.T) {
	svc, _ := testService()
	pub, _ := svc.Create(context.Background(), validCreate())

	bad := entity.FormatVideo
	_, err := svc.Update(context.Background(), UpdateInput{
		ID: pub.ID, ClientID: "client-1", Format: &bad,
	})
	if !errors.Is(err, entity.ErrInvalidFormat) {
		t.Errorf("err = %v, want invalid format", err)
	}
}

func TestDeleteWhilePublishing(t *testing.T) {
	svc, repo := testService()
	pub, _ := svc.Create(context.Background(), validCreate())
	repo.publications[pub.ID].Status = entity.StatusPublishing

	err := svc.Delete(context.Background(), pub.ID, "client-1")
	if !errors.Is(err, entity.ErrPublicationPublishing) {
		t.Errorf("err = %v, want publishing guard", err)
	}

	repo.publications[pub.ID].Status = entity.StatusError
	if err := svc.Delete(context.Background(), pub.ID, "client-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != pub.ID {
		t.Errorf("deleted = %v", repo.deleted)
	}
}
