package entity

import "time"

// MediaType is the kind of a media file
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// Content is an editable composition of a caption and an ordered media set
type Content struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ClientID   string    `json:"client_id"`
	CalendarID *string   `json:"calendar_id,omitempty"`
	Caption    string    `json:"caption"`
	Media      []Media   `json:"media,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Media is a stored media file attached to a content
type Media struct {
	ID        string    `json:"id"`
	ContentID string    `json:"content_id"`
	URL       string    `json:"url"`
	Key       string    `json:"-"`
	Type      MediaType `json:"type"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Duration  *float64  `json:"duration,omitempty"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}
