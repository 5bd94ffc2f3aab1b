package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	account "github.com/vadim/planer/internal/domain/account/entity"
	content "github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob(format entity.Format, media ...content.Media) *entity.Job {
	caption := "hello world"
	return &entity.Job{
		Publication: &entity.Publication{
			ID:     "pub-1",
			Format: format,
		},
		Content: &content.Content{ID: "content-1", Caption: caption},
		Media:   media,
		Account: &account.SocialAccount{
			ID:             "acc-1",
			Platform:       account.PlatformInstagram,
			PlatformUserID: "17890000000000000",
			AccessToken:    "token-1",
		},
	}
}

func imageMedia(url string) content.Media {
	return content.Media{ID: "m-" + url, URL: url, Type: content.MediaTypeImage}
}

func videoMedia(url string) content.Media {
	return content.Media{ID: "m-" + url, URL: url, Type: content.MediaTypeVideo}
}

func TestDriverPublishFeed(t *testing.T) {
	var containerForm, publishForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/media"):
			containerForm = form
			json.NewEncoder(w).Encode(map[string]string{"id": "container-1"})
		case strings.HasSuffix(r.URL.Path, "/media_publish"):
			publishForm = form
			json.NewEncoder(w).Encode(map[string]string{"id": "ig-media-9"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	d := NewDriver(New(WithBaseURL(srv.URL)), 0, 0, testLogger())
	res, err := d.Publish(context.Background(), testJob(entity.FormatFeed, imageMedia("https://cdn/img.jpg")))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if res.PlatformID != "ig-media-9" {
		t.Errorf("platform id = %q, want ig-media-9", res.PlatformID)
	}
	if want := "https://www.instagram.com/p/ig-media-9"; res.Link != want {
		t.Errorf("link = %q, want %q", res.Link, want)
	}
	if containerForm["image_url"] != "https://cdn/img.jpg" {
		t.Errorf("image_url = %q", containerForm["image_url"])
	}
	if containerForm["caption"] != "hello world" {
		t.Errorf("caption = %q", containerForm["caption"])
	}
	if publishForm["creation_id"] != "container-1" {
		t.Errorf("creation_id = %q", publishForm["creation_id"])
	}
}

func TestDriverPublishCarousel(t *testing.T) {
	var containers []map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/media"):
			containers = append(containers, form)
			json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("container-%d", len(containers))})
		case strings.HasSuffix(r.URL.Path, "/media_publish"):
			json.NewEncoder(w).Encode(map[string]string{"id": "ig-carousel-1"})
		}
	}))
	defer srv.Close()

	d := NewDriver(New(WithBaseURL(srv.URL)), 0, 0, testLogger())
	job := testJob(entity.FormatCarousel,
		imageMedia("https://cdn/1.jpg"),
		videoMedia("https://cdn/2.mp4"),
	)

	res, err := d.Publish(context.Background(), job)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.PlatformID != "ig-carousel-1" {
		t.Errorf("platform id = %q", res.PlatformID)
	}

	if len(containers) != 3 {
		t.Fatalf("container calls = %d, want 3 (two children + parent)", len(containers))
	}
	if containers[0]["is_carousel_item"] != "true" {
		t.Errorf("first child missing is_carousel_item")
	}
	if containers[0]["caption"] != "" {
		t.Errorf("carousel child must not carry a caption, got %q", containers[0]["caption"])
	}
	if containers[1]["media_type"] != "VIDEO" {
		t.Errorf("video child media_type = %q", containers[1]["media_type"])
	}
	parent := containers[2]
	if parent["media_type"] != "CAROUSEL" {
		t.Errorf("parent media_type = %q", parent["media_type"])
	}
	if parent["children"] != "container-1,container-2" {
		t.Errorf("parent children = %q", parent["children"])
	}
	if parent["caption"] != "hello world" {
		t.Errorf("parent caption = %q", parent["caption"])
	}
}

func TestDriverPublishUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Invalid image URL",
				"type":    "OAuthException",
				"code":    9004,
			},
		})
	}))
	defer srv.Close()

	d := NewDriver(New(WithBaseURL(srv.URL)), 0, 0, testLogger())
	_, err := d.Publish(context.Background(), testJob(entity.FormatFeed, imageMedia("https://cdn/broken.jpg")))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid image URL") || !strings.Contains(err.Error(), "9004") {
		t.Errorf("error should carry upstream message and code, got %v", err)
	}
}

func TestDriverValidate(t *testing.T) {
	d := NewDriver(New(), 0, 0, testLogger())

	tests := []struct {
		name    string
		job     *entity.Job
		wantErr bool
	}{
		{"feed with one image", testJob(entity.FormatFeed, imageMedia("a")), false},
		{"feed with video", testJob(entity.FormatFeed, videoMedia("a")), true},
		{"feed with two media", testJob(entity.FormatFeed, imageMedia("a"), imageMedia("b")), true},
		{"reel with video", testJob(entity.FormatReel, videoMedia("a")), false},
		{"reel with image", testJob(entity.FormatReel, imageMedia("a")), true},
		{"carousel with one item", testJob(entity.FormatCarousel, imageMedia("a")), true},
		{"carousel with two items", testJob(entity.FormatCarousel, imageMedia("a"), videoMedia("b")), false},
		{"tiktok format", testJob(entity.FormatVideo, videoMedia("a")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Validate(tt.job)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
