// Package models defines data structures persisted by the dashboard core.
package models

import (
	"database/sql"
	"time"
)

// Session binds an opaque identifier to a logged-in user's upstream
// credentials. A session is readable only while unexpired; every read
// refreshes LastActivity.
type Session struct {
	SessionID     string         `json:"session_id"`
	UserID        string         `json:"user_id"`
	Username      string         `json:"username"`
	Discriminator sql.NullString `json:"discriminator"`
	Avatar        sql.NullString `json:"avatar"`
	AccessToken   string         `json:"access_token"`
	RefreshToken  sql.NullString `json:"refresh_token"`
	TokenType     string         `json:"token_type"`
	ExpiresAt     time.Time      `json:"expires_at"`
	CreatedAt     time.Time      `json:"created_at"`
	LastActivity  time.Time      `json:"last_activity"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionUser is the user payload supplied by the identity provider on login.
type SessionUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// SessionToken is the OAuth token payload supplied by the identity provider.
// ExpiresIn is in seconds; zero means the store applies its default lifetime.
type SessionToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
