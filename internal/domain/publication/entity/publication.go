package entity

import (
	"time"

	account "github.com/vadim/planer/internal/domain/account/entity"
	content "github.com/vadim/planer/internal/domain/content/entity"
)

// Format is the platform-specific posting format
type Format string

const (
	FormatFeed     Format = "FEED"
	FormatStory    Format = "STORY"
	FormatReel     Format = "REEL"
	FormatCarousel Format = "CAROUSEL"
	FormatVideo    Format = "VIDEO"
)

// Status is the publication lifecycle state.
// Transitions are strictly SCHEDULED -> PUBLISHING -> {PUBLISHED, ERROR}.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusPublishing Status = "PUBLISHING"
	StatusPublished  Status = "PUBLISHED"
	StatusError      Status = "ERROR"
)

// Publication is a single platform/format posting of a content
type Publication struct {
	ID              string                 `json:"id"`
	ContentID       string                 `json:"content_id"`
	SocialAccountID string                 `json:"social_account_id"`
	Platform        account.Platform       `json:"platform"`
	Format          Format                 `json:"format"`
	PublishAt       time.Time              `json:"publish_at"`
	Status          Status                 `json:"status"`
	ErrorMessage    string                 `json:"error,omitempty"`
	CustomCaption   *string                `json:"custom_caption,omitempty"`
	PlatformConfig  map[string]interface{} `json:"platform_config,omitempty"`
	PlatformID      string                 `json:"platform_id,omitempty"`
	Link            string                 `json:"link,omitempty"`
	KanbanColumnID  *string                `json:"kanban_column_id,omitempty"`
	KanbanOrder     *int                   `json:"kanban_order,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// PublicationMedia attaches a content media to a publication in order
type PublicationMedia struct {
	ID            string                 `json:"id"`
	PublicationID string                 `json:"publication_id"`
	MediaID       string                 `json:"media_id"`
	Order         int                    `json:"order"`
	CropData      map[string]interface{} `json:"crop_data,omitempty"`
}

// IsEditable reports whether the user-facing update endpoint may touch it
func (p *Publication) IsEditable() bool {
	return p.Status == StatusScheduled || p.Status == StatusError
}

// IsDeletable reports whether the publication can be deleted
func (p *Publication) IsDeletable() bool {
	return p.Status != StatusPublishing
}

// Caption resolves the effective caption for posting
func (p *Publication) Caption(contentCaption string) string {
	if p.CustomCaption != nil {
		return *p.CustomCaption
	}
	return contentCaption
}

// Job is a publication with every relation pre-loaded for a driver.
// Drivers must not re-fetch from the store.
type Job struct {
	Publication *Publication
	Content     *content.Content
	Media       []content.Media // ordered by per-publication order
	Account     *account.SocialAccount
}

// ValidFormats lists the formats a platform accepts
func ValidFormats(p account.Platform) []Format {
	switch p {
	case account.PlatformInstagram:
		return []Format{FormatFeed, FormatStory, FormatReel, FormatCarousel}
	case account.PlatformTikTok:
		return []Format{FormatVideo}
	case account.PlatformFacebook:
		return []Format{FormatFeed, FormatStory, FormatReel, FormatVideo}
	case account.PlatformX:
		return []Format{FormatFeed}
	default:
		return nil
	}
}
