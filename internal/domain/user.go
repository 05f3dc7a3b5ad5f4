package domain

import "time"

// User is the identity asserted by the external provider.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IsAdmin       bool   `json:"isAdmin"`
}

// SessionRecord is a persisted login session.
type SessionRecord struct {
	Token     string
	User      User
	CreatedAt time.Time
	ExpiresAt time.Time
}
