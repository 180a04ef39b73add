package database

import (
	"context"
	"fmt"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

const defaultAuditLogLimit = 50

// InsertAuditLog appends one privileged-action record. Best effort: the
// caller decides whether a failed insert aborts the surrounding action.
func (db *DB) InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (user_id, guild_id, action, details, ip_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.GuildID,
		entry.Action,
		entry.Details,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// ListAuditLogs returns the newest audit entries for a guild.
func (db *DB) ListAuditLogs(ctx context.Context, guildID string, limit int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLogLimit
	}

	query := `
		SELECT id, user_id, guild_id, action, details, ip_address, created_at
		FROM audit_logs
		WHERE guild_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := db.QueryContext(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.GuildID,
			&entry.Action,
			&entry.Details,
			&entry.IPAddress,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return entries, nil
}
