package entity

import "time"

// Platform identifies a target social network
type Platform string

const (
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformTikTok    Platform = "TIKTOK"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformX         Platform = "X"
)

// SocialAccount is a connected platform account with its credentials.
// Tokens are null once the account is disconnected.
type SocialAccount struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ClientID       string     `json:"client_id"`
	Platform       Platform   `json:"platform"`
	PlatformUserID string     `json:"platform_user_id"`
	Username       string     `json:"username"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
