package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

// GetTestMessage retrieves the per-guild test message record. A guild with
// no row, or a row with a NULL message, yields ErrNotFound.
func (db *DB) GetTestMessage(ctx context.Context, guildID string) (*models.GuildMessage, error) {
	query := `
		SELECT guild_id, test_message, updated_at
		FROM guild_messages
		WHERE guild_id = $1
	`

	var msg models.GuildMessage
	var testMessage sql.NullString
	err := db.QueryRowContext(ctx, query, guildID).Scan(
		&msg.GuildID,
		&testMessage,
		&msg.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test message: %w", err)
	}
	if !testMessage.Valid {
		return nil, ErrNotFound
	}

	msg.TestMessage = testMessage.String
	return &msg, nil
}

// UpsertTestMessage inserts or overwrites the guild's test message.
func (db *DB) UpsertTestMessage(ctx context.Context, guildID, message string) error {
	query := `
		INSERT INTO guild_messages (guild_id, test_message, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			test_message = EXCLUDED.test_message,
			updated_at = NOW()
	`

	if _, err := db.ExecContext(ctx, query, guildID, message); err != nil {
		return fmt.Errorf("failed to upsert test message: %w", err)
	}

	return nil
}
