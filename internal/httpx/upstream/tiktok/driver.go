package tiktok

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	account "github.com/vadim/planer/internal/domain/account/entity"
	content "github.com/vadim/planer/internal/domain/content/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/publisher"
)

// maxCaptionLen is the TikTok title limit in runes
const maxCaptionLen = 150

// TokenStore persists rotated account tokens
type TokenStore interface {
	UpdateTokens(ctx context.Context, accountID, accessToken, refreshToken string, expiresAt time.Time) error
}

// Downloader fetches an object-store file to a local temp path
type Downloader interface {
	DownloadToTemp(ctx context.Context, key string) (string, error)
}

// Driver publishes videos through the TikTok direct-post flow
type Driver struct {
	client     *Client
	tokens     TokenStore
	downloader Downloader
	logger     *slog.Logger
}

// NewDriver creates the TikTok driver
func NewDriver(client *Client, tokens TokenStore, downloader Downloader, logger *slog.Logger) *Driver {
	return &Driver{
		client:     client,
		tokens:     tokens,
		downloader: downloader,
		logger:     logger,
	}
}

// Platform returns the driver's platform tag
func (d *Driver) Platform() account.Platform {
	return account.PlatformTikTok
}

// Validate checks that the publication is a single-video post
func (d *Driver) Validate(job *entity.Job) error {
	if job.Publication.Format != entity.FormatVideo {
		return fmt.Errorf("format %s is not supported on tiktok", job.Publication.Format)
	}
	if len(job.Media) != 1 || job.Media[0].Type != content.MediaTypeVideo {
		return fmt.Errorf("tiktok post requires exactly one video")
	}
	return nil
}

// Publish uploads the video and submits it for processing. TikTok
// processes asynchronously, so the returned id is the publish id and
// no permalink is available yet.
func (d *Driver) Publish(ctx context.Context, job *entity.Job) (*publisher.Result, error) {
	if err := d.Validate(job); err != nil {
		return nil, err
	}

	info, err := withRefresh(ctx, d, job.Account, func(token string) (*CreatorInfo, error) {
		return d.client.QueryCreatorInfo(ctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("querying creator info: %w", err)
	}

	media := job.Media[0]
	if info.MaxVideoDuration > 0 && media.Duration != nil && *media.Duration > info.MaxVideoDuration {
		return nil, fmt.Errorf("video duration %.0fs exceeds account limit of %.0fs",
			*media.Duration, info.MaxVideoDuration)
	}

	post := PostInfo{
		Title:          truncateCaption(job.Publication.Caption(job.Content.Caption)),
		PrivacyLevel:   d.resolvePrivacy(job, info),
		DisableComment: info.CommentDisabled,
		DisableDuet:    info.DuetDisabled,
		DisableStitch:  info.StitchDisabled,
	}

	path, err := d.downloader.DownloadToTemp(ctx, media.Key)
	if err != nil {
		return nil, fmt.Errorf("downloading video: %w", err)
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening video file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat video file: %w", err)
	}
	size := stat.Size()
	chunkSize, totalChunks := PlanChunks(size)

	init, err := withRefresh(ctx, d, job.Account, func(token string) (*InitResult, error) {
		return d.client.InitDirectPost(ctx, token, post, SourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       chunkSize,
			TotalChunkCount: totalChunks,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("initializing direct post: %w", err)
	}

	if err := d.client.UploadFile(ctx, init.UploadURL, f, size, chunkSize, totalChunks); err != nil {
		return nil, fmt.Errorf("uploading video: %w", err)
	}

	return &publisher.Result{
		PlatformID: init.PublishID,
		Message:    "submitted to tiktok for processing",
	}, nil
}

// resolvePrivacy picks the requested privacy level if the account
// advertises it, else falls back to the first advertised option.
func (d *Driver) resolvePrivacy(job *entity.Job, info *CreatorInfo) string {
	requested, _ := job.Publication.PlatformConfig["privacy_level"].(string)
	for _, opt := range info.PrivacyLevelOptions {
		if opt == requested {
			return requested
		}
	}

	if len(info.PrivacyLevelOptions) == 0 {
		return "SELF_ONLY"
	}
	fallback := info.PrivacyLevelOptions[0]
	if requested != "" {
		d.logger.Warn("requested privacy level not available, falling back",
			"publication_id", job.Publication.ID,
			"requested", requested,
			"fallback", fallback,
		)
	}
	return fallback
}

// withRefresh runs call with the account's access token and, if the
// token is rejected, refreshes it once, persists the new pair, and
// retries exactly once.
func withRefresh[T any](ctx context.Context, d *Driver, acc *account.SocialAccount, call func(token string) (T, error)) (T, error) {
	out, err := call(acc.AccessToken)
	if err == nil {
		return out, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsAuthError() {
		return out, err
	}

	d.logger.Info("tiktok access token rejected, refreshing", "account_id", acc.ID)

	pair, refreshErr := d.client.RefreshToken(ctx, acc.RefreshToken)
	if refreshErr != nil {
		return out, fmt.Errorf("refreshing token: %w", refreshErr)
	}

	expiresAt := time.Now().UTC().Add(time.Duration(pair.ExpiresIn) * time.Second)
	if err := d.tokens.UpdateTokens(ctx, acc.ID, pair.AccessToken, pair.RefreshToken, expiresAt); err != nil {
		return out, fmt.Errorf("persisting refreshed tokens: %w", err)
	}
	acc.AccessToken = pair.AccessToken
	acc.RefreshToken = pair.RefreshToken
	acc.ExpiresAt = &expiresAt

	return call(acc.AccessToken)
}

// truncateCaption cuts the caption to the TikTok title limit
func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= maxCaptionLen {
		return caption
	}
	return string(runes[:maxCaptionLen])
}
