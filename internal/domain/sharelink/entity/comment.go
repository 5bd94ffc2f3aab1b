package entity

import "time"

// CommentEditWindow bounds how long a public commenter may edit or
// delete their own comment.
const CommentEditWindow = 15 * time.Minute

// Comment is authored either by a manager (UserID set) or by a public
// commenter identified by a browser-scoped CommenterID. Exactly one of
// the two is set.
type Comment struct {
	ID            string    `json:"id"`
	CalendarID    string    `json:"calendar_id"`
	PublicationID *string   `json:"publication_id,omitempty"`
	ShareLinkID   *string   `json:"share_link_id,omitempty"`
	UserID        *string   `json:"user_id,omitempty"`
	CommenterID   *string   `json:"-"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   *string   `json:"author_email,omitempty"`
	Body          string    `json:"body"`
	IsResolved    bool      `json:"is_resolved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsManager reports whether the comment was authored by a manager
func (c *Comment) IsManager() bool { return c.UserID != nil }

// EditableBy reports whether the given public commenter may still
// mutate the comment at the given instant.
func (c *Comment) EditableBy(commenterID string, now time.Time) bool {
	if c.CommenterID == nil || *c.CommenterID != commenterID {
		return false
	}
	return now.Sub(c.CreatedAt) <= CommentEditWindow
}
