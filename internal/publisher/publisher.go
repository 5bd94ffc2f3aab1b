package publisher

import (
	"context"

	account "github.com/vadim/planer/internal/domain/account/entity"
	"github.com/vadim/planer/internal/domain/publication/entity"
)

// Result is a successful posting outcome
type Result struct {
	PlatformID string
	Link       string
	Message    string
}

// Driver posts a publication to one platform. Publish receives the
// publication with all relations pre-loaded and must not re-fetch from
// the store.
type Driver interface {
	Platform() account.Platform

	// Validate checks format-specific constraints without network I/O
	Validate(job *entity.Job) error

	// Publish performs the network-side posting work
	Publish(ctx context.Context, job *entity.Job) (*Result, error)
}

// Canceler is implemented by drivers on platforms that support
// best-effort revocation of a posted artifact.
type Canceler interface {
	Cancel(ctx context.Context, platformID, accessToken string) error
}

// Registry maps a platform tag to its driver
type Registry struct {
	drivers map[account.Platform]Driver
}

// NewRegistry builds a registry from the given drivers
func NewRegistry(drivers ...Driver) *Registry {
	m := make(map[account.Platform]Driver, len(drivers))
	for _, d := range drivers {
		m[d.Platform()] = d
	}
	return &Registry{drivers: m}
}

// Lookup returns the driver for a platform
func (r *Registry) Lookup(p account.Platform) (Driver, error) {
	d, ok := r.drivers[p]
	if !ok {
		return nil, entity.ErrUnknownPlatform
	}
	return d, nil
}
