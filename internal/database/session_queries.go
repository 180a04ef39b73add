package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

// DefaultSessionLifetime is the fallback lifetime for sessions whose
// provider token carries no expires_in value, unless overridden via
// SetSessionLifetime.
const DefaultSessionLifetime = 7 * 24 * time.Hour

// sessionIDBytes gives 256 bits of randomness per session identifier.
const sessionIDBytes = 32

// generateSessionID returns an opaque URL-safe session identifier.
func generateSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateSession stores a new web-login session for the given provider
// user/token payload and returns the opaque session identifier.
func (db *DB) CreateSession(ctx context.Context, user *models.SessionUser, token *models.SessionToken) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}

	lifetime := db.sessionLifetime
	if token.ExpiresIn > 0 {
		lifetime = time.Duration(token.ExpiresIn) * time.Second
	}
	expiresAt := time.Now().Add(lifetime)

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	query := `
		INSERT INTO user_sessions (session_id, user_id, username, discriminator, avatar, access_token, refresh_token, token_type, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			discriminator = EXCLUDED.discriminator,
			avatar = EXCLUDED.avatar,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			expires_at = EXCLUDED.expires_at,
			last_activity = NOW()
	`

	_, err = db.ExecContext(ctx, query,
		sessionID,
		user.ID,
		user.Username,
		nullString(user.Discriminator),
		nullString(user.Avatar),
		token.AccessToken,
		nullString(token.RefreshToken),
		tokenType,
		expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	db.logger.Debug("session created",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", expiresAt),
	)

	return sessionID, nil
}

// GetSession returns the session only if it is unexpired, refreshing
// last_activity as a side effect. The touch and the expiry check are a
// single conditional update so a concurrent reaper cannot resurrect an
// expired row. Absent and expired sessions both yield ErrNotFound.
func (db *DB) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		UPDATE user_sessions
		SET last_activity = NOW()
		WHERE session_id = $1 AND expires_at > NOW()
		RETURNING session_id, user_id, username, discriminator, avatar, access_token, refresh_token, token_type, expires_at, created_at, last_activity
	`

	session := &models.Session{}
	err := db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.SessionID,
		&session.UserID,
		&session.Username,
		&session.Discriminator,
		&session.Avatar,
		&session.AccessToken,
		&session.RefreshToken,
		&session.TokenType,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.LastActivity,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteSession removes a session unconditionally. Deleting a session that
// does not exist is not an error.
func (db *DB) DeleteSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM user_sessions WHERE session_id = $1`

	if _, err := db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// CleanupExpiredSessions deletes sessions past their expiry.
func (db *DB) CleanupExpiredSessions(ctx context.Context) error {
	query := `DELETE FROM user_sessions WHERE expires_at < NOW()`

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected > 0 {
		db.logger.Debug("cleaned up expired sessions", zap.Int64("count", rowsAffected))
	}

	return nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
