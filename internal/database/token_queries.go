package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

// DefaultTokenTTL is how long an issued config token stays valid.
const DefaultTokenTTL = 5 * time.Minute

// CreateConfigToken issues a single-use config-access token for a guild.
// A colliding token is a silent no-op insert; UUIDv4's 122 random bits
// make that negligible.
func (db *DB) CreateConfigToken(ctx context.Context, guildID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(ttl)

	query := `
		INSERT INTO config_tokens (token, guild_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`

	if _, err := db.ExecContext(ctx, query, token, guildID, expiresAt); err != nil {
		return "", fmt.Errorf("failed to create config token: %w", err)
	}

	db.logger.Debug("config token issued",
		zap.String("guild_id", guildID),
		zap.Time("expires_at", expiresAt),
	)

	return token, nil
}

// GetConfigToken retrieves a config token row regardless of its state.
func (db *DB) GetConfigToken(ctx context.Context, token string) (*models.ConfigToken, error) {
	query := `
		SELECT token, guild_id, created_at, expires_at, used, used_at
		FROM config_tokens
		WHERE token = $1
	`

	ct := &models.ConfigToken{}
	err := db.QueryRowContext(ctx, query, token).Scan(
		&ct.Token,
		&ct.GuildID,
		&ct.CreatedAt,
		&ct.ExpiresAt,
		&ct.Used,
		&ct.UsedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config token: %w", err)
	}

	return ct, nil
}

// CheckTokenValid reports whether the token matches the guild, is unexpired
// and unused. It is a pure read and never mutates the row.
func (db *DB) CheckTokenValid(ctx context.Context, token, guildID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM config_tokens
			WHERE token = $1
			AND guild_id = $2
			AND expires_at > NOW()
			AND used = FALSE
		)
	`

	var valid bool
	if err := db.QueryRowContext(ctx, query, token, guildID).Scan(&valid); err != nil {
		return false, fmt.Errorf("failed to check config token: %w", err)
	}

	return valid, nil
}

// ValidateAndUseToken consumes the token: the matching unused, unexpired row
// transitions to used in a single conditional update, so under concurrent
// validation exactly one caller observes success.
func (db *DB) ValidateAndUseToken(ctx context.Context, token, guildID string) (bool, error) {
	query := `
		UPDATE config_tokens
		SET used = TRUE, used_at = NOW()
		WHERE token = $1
		AND guild_id = $2
		AND expires_at > NOW()
		AND used = FALSE
		RETURNING token
	`

	var consumed string
	err := db.QueryRowContext(ctx, query, token, guildID).Scan(&consumed)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to validate config token: %w", err)
	}

	db.logger.Debug("config token consumed", zap.String("guild_id", guildID))
	return true, nil
}

// CleanupExpiredTokens deletes config tokens past their expiry.
func (db *DB) CleanupExpiredTokens(ctx context.Context) error {
	query := `DELETE FROM config_tokens WHERE expires_at < NOW()`

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected > 0 {
		db.logger.Debug("cleaned up expired tokens", zap.Int64("count", rowsAffected))
	}

	return nil
}
