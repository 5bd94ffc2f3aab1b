package entity

import "time"

// User is an authenticated end user, provisioned on first login
type User struct {
	ID              string    `json:"id"`
	ExternalSubject string    `json:"-"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Avatar          string    `json:"avatar,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Client is a tenant owned by a user. All tenant-scoped entities
// reference a client.
type Client struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
