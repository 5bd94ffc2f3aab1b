package instagram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	account "github.com/vadim/planer/internal/domain/account/entity"
	content "github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/publisher"
)

// Driver publishes to Instagram through the two-phase Graph API flow:
// create a media container, wait the configured processing delay, then
// publish the container.
type Driver struct {
	client    *Client
	imageWait time.Duration
	videoWait time.Duration
	logger    *slog.Logger
}

// NewDriver creates the Instagram driver. imageWait and videoWait are
// the container-processing delays for still and video containers.
func NewDriver(client *Client, imageWait, videoWait time.Duration, logger *slog.Logger) *Driver {
	return &Driver{
		client:    client,
		imageWait: imageWait,
		videoWait: videoWait,
		logger:    logger,
	}
}

// Platform returns the driver's platform tag
func (d *Driver) Platform() account.Platform {
	return account.PlatformInstagram
}

// Validate checks format-specific constraints without network I/O
func (d *Driver) Validate(job *entity.Job) error {
	switch job.Publication.Format {
	case entity.FormatFeed:
		if len(job.Media) != 1 || job.Media[0].Type != content.MediaTypeImage {
			return fmt.Errorf("feed post requires exactly one image")
		}
	case entity.FormatStory:
		if len(job.Media) != 1 {
			return fmt.Errorf("story requires exactly one media item")
		}
	case entity.FormatReel:
		if len(job.Media) != 1 || job.Media[0].Type != content.MediaTypeVideo {
			return fmt.Errorf("reel requires exactly one video")
		}
	case entity.FormatCarousel:
		if len(job.Media) < 2 || len(job.Media) > 10 {
			return fmt.Errorf("carousel requires between 2 and 10 media items")
		}
	default:
		return fmt.Errorf("format %s is not supported on instagram", job.Publication.Format)
	}
	return nil
}

// Publish posts the publication and returns the Instagram media id and
// permalink.
func (d *Driver) Publish(ctx context.Context, job *entity.Job) (*publisher.Result, error) {
	if err := d.Validate(job); err != nil {
		return nil, err
	}

	caption := job.Publication.Caption(job.Content.Caption)

	switch job.Publication.Format {
	case entity.FormatFeed:
		return d.publishFeed(ctx, job, caption)
	case entity.FormatStory:
		return d.publishStory(ctx, job)
	case entity.FormatReel:
		return d.publishReel(ctx, job, caption)
	case entity.FormatCarousel:
		return d.publishCarousel(ctx, job, caption)
	default:
		return nil, entity.ErrInvalidFormat
	}
}

func (d *Driver) publishFeed(ctx context.Context, job *entity.Job, caption string) (*publisher.Result, error) {
	containerID, err := d.client.CreateContainer(ctx, CreateContainerInput{
		UserID:      job.Account.PlatformUserID,
		AccessToken: job.Account.AccessToken,
		ImageURL:    job.Media[0].URL,
		Caption:     caption,
	})
	if err != nil {
		return nil, d.fail(job, "feed container", err)
	}

	if err := d.wait(ctx, d.imageWait); err != nil {
		return nil, err
	}

	id, err := d.client.PublishContainer(ctx, job.Account.PlatformUserID, job.Account.AccessToken, containerID)
	if err != nil {
		return nil, d.fail(job, "feed publish", err)
	}

	return &publisher.Result{
		PlatformID: id,
		Link:       fmt.Sprintf("https://www.instagram.com/p/%s", id),
		Message:    "published to instagram feed",
	}, nil
}

func (d *Driver) publishStory(ctx context.Context, job *entity.Job) (*publisher.Result, error) {
	media := job.Media[0]
	in := CreateContainerInput{
		UserID:      job.Account.PlatformUserID,
		AccessToken: job.Account.AccessToken,
		MediaType:   "STORIES",
	}
	wait := d.imageWait
	if media.Type == content.MediaTypeVideo {
		in.VideoURL = media.URL
		wait = d.videoWait
	} else {
		in.ImageURL = media.URL
	}
	if link, ok := job.Publication.PlatformConfig["link"].(string); ok {
		in.Link = link
	}

	containerID, err := d.client.CreateContainer(ctx, in)
	if err != nil {
		return nil, d.fail(job, "story container", err)
	}

	if err := d.wait(ctx, wait); err != nil {
		return nil, err
	}

	id, err := d.client.PublishContainer(ctx, job.Account.PlatformUserID, job.Account.AccessToken, containerID)
	if err != nil {
		return nil, d.fail(job, "story publish", err)
	}

	// Stories have no permanent URL
	return &publisher.Result{
		PlatformID: id,
		Message:    "published to instagram story",
	}, nil
}

func (d *Driver) publishReel(ctx context.Context, job *entity.Job, caption string) (*publisher.Result, error) {
	media := job.Media[0]
	in := CreateContainerInput{
		UserID:      job.Account.PlatformUserID,
		AccessToken: job.Account.AccessToken,
		VideoURL:    media.URL,
		MediaType:   "REELS",
		Caption:     caption,
	}
	if media.Thumbnail != nil {
		in.CoverURL = *media.Thumbnail
	}

	containerID, err := d.client.CreateContainer(ctx, in)
	if err != nil {
		return nil, d.fail(job, "reel container", err)
	}

	if err := d.wait(ctx, d.videoWait); err != nil {
		return nil, err
	}

	id, err := d.client.PublishContainer(ctx, job.Account.PlatformUserID, job.Account.AccessToken, containerID)
	if err != nil {
		return nil, d.fail(job, "reel publish", err)
	}

	return &publisher.Result{
		PlatformID: id,
		Link:       fmt.Sprintf("https://www.instagram.com/reel/%s", id),
		Message:    "published to instagram reels",
	}, nil
}

func (d *Driver) publishCarousel(ctx context.Context, job *entity.Job, caption string) (*publisher.Result, error) {
	childIDs := make([]string, 0, len(job.Media))
	hasVideo := false

	for i, m := range job.Media {
		in := CreateContainerInput{
			UserID:         job.Account.PlatformUserID,
			AccessToken:    job.Account.AccessToken,
			IsCarouselItem: true,
		}
		if m.Type == content.MediaTypeVideo {
			in.VideoURL = m.URL
			in.MediaType = "VIDEO"
			hasVideo = true
		} else {
			in.ImageURL = m.URL
		}

		childID, err := d.client.CreateContainer(ctx, in)
		if err != nil {
			return nil, d.fail(job, fmt.Sprintf("carousel item %d", i), err)
		}
		childIDs = append(childIDs, childID)
	}

	// A mixed carousel needs the longer video-processing delay
	wait := d.imageWait
	if hasVideo {
		wait = d.videoWait
	}
	if err := d.wait(ctx, wait); err != nil {
		return nil, err
	}

	parentID, err := d.client.CreateContainer(ctx, CreateContainerInput{
		UserID:      job.Account.PlatformUserID,
		AccessToken: job.Account.AccessToken,
		MediaType:   "CAROUSEL",
		Caption:     caption,
		Children:    childIDs,
	})
	if err != nil {
		return nil, d.fail(job, "carousel parent", err)
	}

	if err := d.wait(ctx, wait); err != nil {
		return nil, err
	}

	id, err := d.client.PublishContainer(ctx, job.Account.PlatformUserID, job.Account.AccessToken, parentID)
	if err != nil {
		return nil, d.fail(job, "carousel publish", err)
	}

	return &publisher.Result{
		PlatformID: id,
		Link:       fmt.Sprintf("https://www.instagram.com/p/%s", id),
		Message:    "published to instagram feed",
	}, nil
}

// wait sleeps the cooperative container-processing delay
func (d *Driver) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// fail logs the failing phase with request context and wraps the error
func (d *Driver) fail(job *entity.Job, phase string, err error) error {
	d.logger.Error("instagram publish failed",
		"phase", phase,
		"publication_id", job.Publication.ID,
		"format", job.Publication.Format,
		"error", err,
	)
	return fmt.Errorf("%s: %w", phase, err)
}
