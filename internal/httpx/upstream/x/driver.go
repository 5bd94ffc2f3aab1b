package x

import (
	"context"
	"fmt"

	"github.com/vadim/planer/internal/apperror"
	account "github.com/vadim/planer/internal/domain/account/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/publisher"
)

// maxTextLen is the post character limit
const maxTextLen = 280

// maxMedia is the per-post media attachment limit
const maxMedia = 4

// Driver validates X publications. Publishing is not wired to the
// X API yet.
type Driver struct{}

// NewDriver creates the X driver
func NewDriver() *Driver {
	return &Driver{}
}

// Platform returns the driver's platform tag
func (d *Driver) Platform() account.Platform {
	return account.PlatformX
}

// Validate checks text length and media count limits
func (d *Driver) Validate(job *entity.Job) error {
	if job.Publication.Format != entity.FormatFeed {
		return fmt.Errorf("format %s is not supported on x", job.Publication.Format)
	}
	text := job.Publication.Caption(job.Content.Caption)
	if len([]rune(text)) > maxTextLen {
		return fmt.Errorf("post text exceeds %d characters", maxTextLen)
	}
	if len(job.Media) > maxMedia {
		return fmt.Errorf("post allows at most %d media attachments", maxMedia)
	}
	return nil
}

// Publish is not implemented for X
func (d *Driver) Publish(ctx context.Context, job *entity.Job) (*publisher.Result, error) {
	return nil, apperror.Upstream("not_implemented", "x publishing is not implemented")
}
