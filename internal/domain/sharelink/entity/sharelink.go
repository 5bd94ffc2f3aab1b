package entity

import "time"

// Permission grants read or read-and-comment access over a share link
type Permission string

const (
	PermissionView           Permission = "VIEW"
	PermissionViewAndComment Permission = "VIEW_AND_COMMENT"
)

// ResolveStatus is the outcome of resolving a raw token
type ResolveStatus string

const (
	ResolveValid   ResolveStatus = "valid"
	ResolveInvalid ResolveStatus = "invalid"
	ResolveRevoked ResolveStatus = "revoked"
	ResolveExpired ResolveStatus = "expired"
)

// ShareLink grants anonymous access to a calendar. The raw token is
// returned to the caller exactly once; only its SHA-256 hash is stored.
type ShareLink struct {
	ID             string     `json:"id"`
	CalendarID     string     `json:"calendar_id"`
	TokenHash      string     `json:"-"`
	Permission     Permission `json:"permission"`
	Label          *string    `json:"label,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	AccessCount    int64      `json:"access_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Resolvable reports whether the link grants access at the given instant
func (l *ShareLink) Resolvable(now time.Time) ResolveStatus {
	if !l.IsActive || l.RevokedAt != nil {
		return ResolveRevoked
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return ResolveExpired
	}
	return ResolveValid
}
