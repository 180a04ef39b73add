// Package web exposes the dashboard HTTP surface: OAuth login, guild
// listing, test message management and config token issuance/validation.
package web

import (
	"context"
	"time"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

// SessionStore is the session persistence surface the handlers need.
type SessionStore interface {
	CreateSession(ctx context.Context, user *models.SessionUser, token *models.SessionToken) (string, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// GuildStore is the guild directory surface the handlers need.
type GuildStore interface {
	SyncUserGuilds(ctx context.Context, userID string, guilds []models.GuildData) error
	ListUserGuilds(ctx context.Context, userID string, manageableOnly bool) ([]*models.GuildView, error)
	CheckUserGuildPermission(ctx context.Context, userID, guildID string) (bool, error)
}

// TokenStore is the config token surface the handlers need.
type TokenStore interface {
	CreateConfigToken(ctx context.Context, guildID string, ttl time.Duration) (string, error)
	ValidateAndUseToken(ctx context.Context, token, guildID string) (bool, error)
}

// MessageStore is the test message surface the handlers need.
type MessageStore interface {
	GetTestMessage(ctx context.Context, guildID string) (*models.GuildMessage, error)
	UpsertTestMessage(ctx context.Context, guildID, message string) error
}

// AuditStore is the audit trail surface the handlers need.
type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditLogs(ctx context.Context, guildID string, limit int) ([]*models.AuditLogEntry, error)
}

// Store bundles the persistence surfaces the dashboard depends on.
// *database.DB satisfies it.
type Store interface {
	SessionStore
	GuildStore
	TokenStore
	MessageStore
	AuditStore
}

// ConfigFetcher is the remote config surface the handlers need.
// *remoteconfig.Client satisfies it.
type ConfigFetcher interface {
	GetConfig(ctx context.Context, guildID string) (map[string]interface{}, error)
}

// DiscordAPI is the identity provider surface the handlers need.
// *auth.DiscordClient satisfies it.
type DiscordAPI interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*models.SessionToken, error)
	GetUserInfo(ctx context.Context, accessToken string) (*models.SessionUser, error)
	GetUserGuilds(ctx context.Context, accessToken string) ([]models.GuildData, error)
}
