// Package testutil provides fixtures and mock servers shared across tests.
package testutil

import (
	"database/sql"
	"fmt"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

// GenerateSessionUser creates a provider user payload for the given user ID.
func GenerateSessionUser(userID string) *models.SessionUser {
	return &models.SessionUser{
		ID:            userID,
		Username:      fmt.Sprintf("testuser_%s", userID),
		Discriminator: "1234",
		Avatar:        "test_avatar_hash",
	}
}

// GenerateSessionToken creates a provider token payload with the given
// lifetime in seconds. Zero means the store applies its default.
func GenerateSessionToken(expiresIn int64) *models.SessionToken {
	return &models.SessionToken{
		AccessToken:  "test_access_token",
		RefreshToken: "test_refresh_token",
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}
}

// GenerateGuildData creates a guild sync entry. The caller tweaks Owner and
// Permissions as the scenario needs.
func GenerateGuildData(guildID string) models.GuildData {
	return models.GuildData{
		ID:          guildID,
		Name:        fmt.Sprintf("Test Guild %s", guildID),
		Icon:        fmt.Sprintf("icon_hash_%s", guildID),
		MemberCount: 100,
	}
}

// GenerateAuditEntry creates an audit log entry for the given user/guild.
func GenerateAuditEntry(userID, guildID, action string) *models.AuditLogEntry {
	return &models.AuditLogEntry{
		UserID:    userID,
		GuildID:   guildID,
		Action:    action,
		Details:   sql.NullString{String: "test details", Valid: true},
		IPAddress: sql.NullString{String: "192.0.2.1", Valid: true},
	}
}
