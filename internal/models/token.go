package models

import "time"

// SessionDescriptor is one server-reported entry of the multi-device session
// listing. The client never mutates it.
type SessionDescriptor struct {
	ID         string     `json:"id"`
	DeviceInfo *string    `json:"device_info"`
	IPAddress  *string    `json:"ip_address"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsCurrent  bool       `json:"is_current"`
}

// SessionList is the payload of GET /auth/sessions.
type SessionList struct {
	Sessions []SessionDescriptor `json:"sessions"`
	Total    int                 `json:"total"`
}
