package service

import (
	"context"
	"errors"
	"testing"
	"time"

	calendarentity "github.com/vadim/planer/internal/domain/calendar/entity"
	contententity "github.com/vadim/planer/internal/domain/content/entity"
	pubentity "github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/domain/sharelink/entity"
)

func testPublic(links *fakeLinkRepo, comments *fakeCommentRepo, pubs *fakePublicationRepo) *Public {
	if comments == nil {
		comments = newFakeCommentRepo()
	}
	if pubs == nil {
		pubs = &fakePublicationRepo{}
	}
	cals := &fakeCalendarRepo{calendars: map[string]*calendarentity.Calendar{
		"cal-1": {ID: "cal-1", ClientID: "client-1", Name: "August", Description: "summer push"},
	}}
	return NewPublic(links, cals,
		&fakeContentRepo{byCalendar: map[string][]contententity.Content{}},
		&fakeMediaRepo{byContent: map[string][]contententity.Media{}},
		pubs, comments)
}

func issueLink(t *testing.T, links *fakeLinkRepo, permission entity.Permission, expiresAt *time.Time) (string, *entity.ShareLink) {
	t.Helper()
	raw, hash, err := newToken()
	if err != nil {
		t.Fatalf("newToken: %v", err)
	}
	link := links.add(&entity.ShareLink{
		CalendarID: "cal-1",
		TokenHash:  hash,
		Permission: permission,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	})
	return raw, link
}

func TestResolve(t *testing.T) {
	links := newFakeLinkRepo()
	p := testPublic(links, nil, nil)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	validRaw, validLink := issueLink(t, links, entity.PermissionView, &future)
	expiredRaw, _ := issueLink(t, links, entity.PermissionView, &past)
	revokedRaw, revokedLink := issueLink(t, links, entity.PermissionView, nil)
	revokedLink.IsActive = false

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"valid", validRaw, nil},
		{"unknown token", "bm90LWEtdG9rZW4", entity.ErrLinkInvalid},
		{"expired", expiredRaw, entity.ErrLinkExpired},
		{"revoked", revokedRaw, entity.ErrLinkRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := p.Resolve(context.Background(), tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if link.ID != validLink.ID {
				t.Errorf("resolved link = %s", link.ID)
			}
		})
	}

	if links.touched[validLink.ID] != 1 {
		t.Errorf("valid resolution must bump access stats, touched = %d", links.touched[validLink.ID])
	}
}

func TestGetSharedCalendarProjection(t *testing.T) {
	links := newFakeLinkRepo()
	p := testPublic(links, nil, &fakePublicationRepo{
		byContent: map[string][]pubentity.Publication{
			"content-1": {{
				ID:       "pub-1",
				Platform: "INSTAGRAM",
				Format:   pubentity.FormatFeed,
				Status:   pubentity.StatusPublished,
				Link:     "https://www.instagram.com/p/abc",
			}},
		},
	})
	p.contents.(*fakeContentRepo).byCalendar["cal-1"] = []contententity.Content{
		{ID: "content-1", Caption: "launch day"},
	}

	_, link := issueLink(t, links, entity.PermissionViewAndComment, nil)

	cal, err := p.GetSharedCalendar(context.Background(), link)
	if err != nil {
		t.Fatalf("GetSharedCalendar: %v", err)
	}

	if cal.Name != "August" || cal.Description != "summer push" {
		t.Errorf("calendar = %+v", cal)
	}
	if cal.Permission != entity.PermissionViewAndComment {
		t.Errorf("permission = %s", cal.Permission)
	}
	if len(cal.Contents) != 1 || len(cal.Contents[0].Publications) != 1 {
		t.Fatalf("contents = %+v", cal.Contents)
	}
	if cal.Contents[0].Publications[0].Link != "https://www.instagram.com/p/abc" {
		t.Errorf("publication link = %q", cal.Contents[0].Publications[0].Link)
	}
}

func TestGetCommentsPaging(t *testing.T) {
	links := newFakeLinkRepo()
	comments := newFakeCommentRepo()
	p := testPublic(links, comments, nil)
	_, link := issueLink(t, links, entity.PermissionView, nil)

	managerID := "user-1"
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c := entity.Comment{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
		if i == 0 {
			c.UserID = &managerID
		}
		comments.page = append(comments.page, c)
	}

	page, err := p.GetComments(context.Background(), link, nil, nil, 3)
	if err != nil {
		t.Fatalf("GetComments: %v", err)
	}
	if len(page.Comments) != 3 {
		t.Fatalf("comments = %d, want 3", len(page.Comments))
	}
	if !page.HasMore {
		t.Error("expected more pages")
	}
	if !page.Comments[0].IsManager || page.Comments[1].IsManager {
		t.Errorf("manager flags = %v %v, want true false",
			page.Comments[0].IsManager, page.Comments[1].IsManager)
	}
	want := base.Add(-2 * time.Minute)
	if page.NextCursor == nil || !page.NextCursor.Equal(want) {
		t.Errorf("next cursor = %v, want %v", page.NextCursor, want)
	}

	comments.page = comments.page[:2]
	page, err = p.GetComments(context.Background(), link, nil, nil, 3)
	if err != nil {
		t.Fatalf("GetComments: %v", err)
	}
	if page.HasMore || page.NextCursor != nil {
		t.Errorf("short page must not report more, got %+v", page)
	}
}

func TestCreateCommentPermissionGate(t *testing.T) {
	links := newFakeLinkRepo()
	p := testPublic(links, nil, nil)
	_, viewOnly := issueLink(t, links, entity.PermissionView, nil)

	_, err := p.CreateComment(context.Background(), viewOnly, CreateCommentInput{
		CommenterID: "visitor-1",
		AuthorName:  "Dana",
		Body:        "looks great",
	})
	if !errors.Is(err, entity.ErrCommentsNotAllowed) {
		t.Errorf("err = %v, want comments not allowed", err)
	}
}

func TestCreateCommentForeignPublication(t *testing.T) {
	links := newFakeLinkRepo()
	pubs := &fakePublicationRepo{inCalendar: map[string]string{"pub-1": "cal-other"}}
	p := testPublic(links, nil, pubs)
	_, link := issueLink(t, links, entity.PermissionViewAndComment, nil)

	pubID := "pub-1"
	_, err := p.CreateComment(context.Background(), link, CreateCommentInput{
		PublicationID: &pubID,
		CommenterID:   "visitor-1",
		AuthorName:    "Dana",
		Body:          "wrong board",
	})
	if !errors.Is(err, entity.ErrPublicationOutside) {
		t.Errorf("err = %v, want publication outside", err)
	}
}

func TestCreateCommentStampsLinkAndCommenter(t *testing.T) {
	links := newFakeLinkRepo()
	comments := newFakeCommentRepo()
	p := testPublic(links, comments, nil)
	_, link := issueLink(t, links, entity.PermissionViewAndComment, nil)

	c, err := p.CreateComment(context.Background(), link, CreateCommentInput{
		CommenterID: "visitor-1",
		AuthorName:  "Dana",
		Body:        "looks great",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if c.ShareLinkID == nil || *c.ShareLinkID != link.ID {
		t.Error("comment must record the share link")
	}
	if c.CommenterID == nil || *c.CommenterID != "visitor-1" {
		t.Error("comment must record the commenter")
	}
	if c.CalendarID != "cal-1" {
		t.Errorf("calendar id = %s", c.CalendarID)
	}
}

func TestUpdateCommentOwnership(t *testing.T) {
	links := newFakeLinkRepo()
	comments := newFakeCommentRepo()
	p := testPublic(links, comments, nil)
	_, link := issueLink(t, links, entity.PermissionViewAndComment, nil)

	mine, err := p.CreateComment(context.Background(), link, CreateCommentInput{
		CommenterID: "visitor-1",
		AuthorName:  "Dana",
		Body:        "first draft",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	_, err = p.UpdateComment(context.Background(), link, mine.ID, "visitor-2", "hijack")
	if !errors.Is(err, entity.ErrCommentForbidden) {
		t.Errorf("foreign commenter err = %v, want forbidden", err)
	}

	updated, err := p.UpdateComment(context.Background(), link, mine.ID, "visitor-1", "second draft")
	if err != nil {
		t.Fatalf("own update: %v", err)
	}
	if updated.Body != "second draft" {
		t.Errorf("body = %q", updated.Body)
	}
}

func TestUpdateCommentAfterWindow(t *testing.T) {
	links := newFakeLinkRepo()
	comments := newFakeCommentRepo()
	p := testPublic(links, comments, nil)
	_, link := issueLink(t, links, entity.PermissionViewAndComment, nil)

	mine, err := p.CreateComment(context.Background(), link, CreateCommentInput{
		CommenterID: "visitor-1",
		AuthorName:  "Dana",
		Body:        "first draft",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	p.now = func() time.Time { return time.Now().UTC().Add(entity.CommentEditWindow + time.Minute) }

	_, err = p.UpdateComment(context.Background(), link, mine.ID, "visitor-1", "too late")
	if !errors.Is(err, entity.ErrEditWindowClosed) {
		t.Errorf("err = %v, want edit window closed", err)
	}
	err = p.DeleteComment(context.Background(), link, mine.ID, "visitor-1")
	if !errors.Is(err, entity.ErrEditWindowClosed) {
		t.Errorf("delete err = %v, want edit window closed", err)
	}
}

func TestDeleteOwnComment(t *testing.T) {
	links := newFakeLinkRepo()
	comments := newFakeCommentRepo()
	p := testPublic(links, comments, nil)
	_, link := issueLink(t, links, entity.PermissionViewAndComment, nil)

	mine, err := p.CreateComment(context.Background(), link, CreateCommentInput{
		CommenterID: "visitor-1",
		AuthorName:  "Dana",
		Body:        "remove me",
	})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := p.DeleteComment(context.Background(), link, mine.ID, "visitor-1"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if _, ok := comments.comments[mine.ID]; ok {
		t.Error("comment still present")
	}
}
