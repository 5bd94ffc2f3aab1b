package facebook

import (
	"context"
	"fmt"

	"github.com/vadim/planer/internal/apperror"
	account "github.com/vadim/planer/internal/domain/account/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
	"github.com/vadim/planer/internal/publisher"
)

// Driver validates Facebook publications. Publishing is not wired to
// the Graph Pages API yet.
type Driver struct{}

// NewDriver creates the Facebook driver
func NewDriver() *Driver {
	return &Driver{}
}

// Platform returns the driver's platform tag
func (d *Driver) Platform() account.Platform {
	return account.PlatformFacebook
}

// Validate checks format-specific constraints
func (d *Driver) Validate(job *entity.Job) error {
	switch job.Publication.Format {
	case entity.FormatFeed, entity.FormatStory, entity.FormatReel, entity.FormatVideo:
		return nil
	default:
		return fmt.Errorf("format %s is not supported on facebook", job.Publication.Format)
	}
}

// Publish is not implemented for Facebook
func (d *Driver) Publish(ctx context.Context, job *entity.Job) (*publisher.Result, error) {
	return nil, apperror.Upstream("not_implemented", "facebook publishing is not implemented")
}
