package models

import (
	"database/sql"
	"time"
)

// AuditLogEntry is one append-only record of a privileged action.
// Entries are never updated or deleted.
type AuditLogEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	GuildID   string         `json:"guild_id"`
	Action    string         `json:"action"`
	Details   sql.NullString `json:"details"`
	IPAddress sql.NullString `json:"ip_address"`
	CreatedAt time.Time      `json:"created_at"`
}
