package models

import (
	"database/sql"
	"time"
)

// ConfigToken is a short-lived, single-use credential granting one-time
// access to a guild's configuration. A token transitions unused -> used
// exactly once, and only while unexpired.
type ConfigToken struct {
	Token     string       `json:"token"`
	GuildID   string       `json:"guild_id"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Used      bool         `json:"used"`
	UsedAt    sql.NullTime `json:"used_at"`
}

// IsExpired checks if the config token has expired
func (t *ConfigToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
