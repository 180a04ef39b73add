package models

import (
	"database/sql"
	"time"
)

// Permissions is the guild permission bitmask reported by the platform.
type Permissions int64

// PermissionAdministrator grants full management rights independent of
// explicit per-permission grants.
const PermissionAdministrator Permissions = 1 << 3

// HasAdministrator reports whether the ADMINISTRATOR bit is set.
func (p Permissions) HasAdministrator() bool {
	return p&PermissionAdministrator != 0
}

// GuildData is one guild entry supplied by the bot runtime or the identity
// provider to the sync operations.
type GuildData struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Icon        string      `json:"icon,omitempty"`
	Owner       bool        `json:"owner,omitempty"`
	Permissions Permissions `json:"permissions,omitempty"`
	MemberCount int         `json:"member_count,omitempty"`
}

// UserGuild is a point-in-time snapshot of a user's membership in a guild.
// The full set for a user is replaced on every sync.
type UserGuild struct {
	ID          int64          `json:"id"`
	UserID      string         `json:"user_id"`
	GuildID     string         `json:"guild_id"`
	GuildName   string         `json:"guild_name"`
	GuildIcon   sql.NullString `json:"guild_icon"`
	Owner       bool           `json:"owner"`
	Permissions Permissions    `json:"permissions"`
	SyncedAt    time.Time      `json:"synced_at"`
}

// CanManage reports whether this membership grants management rights
// (ownership or the ADMINISTRATOR bit).
func (ug *UserGuild) CanManage() bool {
	return ug.Owner || ug.Permissions.HasAdministrator()
}

// BotGuild records the bot's presence in a guild.
type BotGuild struct {
	GuildID     string    `json:"guild_id"`
	GuildName   string    `json:"guild_name"`
	MemberCount int       `json:"member_count"`
	SyncedAt    time.Time `json:"synced_at"`
}

// GuildView is a user's guild membership joined with bot presence,
// as returned by the guild directory read path.
type GuildView struct {
	GuildID     string         `json:"guild_id"`
	GuildName   string         `json:"guild_name"`
	GuildIcon   sql.NullString `json:"guild_icon"`
	Owner       bool           `json:"owner"`
	Permissions Permissions    `json:"permissions"`
	BotPresent  bool           `json:"bot_present"`
	MemberCount sql.NullInt64  `json:"member_count"`
}
