package entity

import "time"

// Calendar groups contents for a client
type Calendar struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// KanbanColumn is an ordered column within a calendar board.
// Order values form a dense non-decreasing sequence per calendar.
type KanbanColumn struct {
	ID           string  `json:"id"`
	CalendarID   string  `json:"calendar_id"`
	Name         string  `json:"name"`
	Order        int     `json:"order"`
	MappedStatus *string `json:"mapped_status,omitempty"`
	Color        *string `json:"color,omitempty"`
}
