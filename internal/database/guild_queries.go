package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/models"
)

// SyncUserGuilds replaces all stored guild memberships for a user with the
// supplied snapshot. The replacement is transactional but not incremental:
// delete-all, then insert.
func (db *DB) SyncUserGuilds(ctx context.Context, userID string, guilds []models.GuildData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_guilds WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user guilds: %w", err)
	}

	insertQuery := `
		INSERT INTO user_guilds (user_id, guild_id, guild_name, guild_icon, owner, permissions, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, guild_id)
		DO UPDATE SET
			guild_name = EXCLUDED.guild_name,
			guild_icon = EXCLUDED.guild_icon,
			owner = EXCLUDED.owner,
			permissions = EXCLUDED.permissions,
			synced_at = NOW()
	`

	for _, g := range guilds {
		_, err := tx.ExecContext(ctx, insertQuery,
			userID,
			g.ID,
			g.Name,
			nullString(g.Icon),
			g.Owner,
			int64(g.Permissions),
		)
		if err != nil {
			return fmt.Errorf("failed to insert user guild %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user guild sync: %w", err)
	}

	db.logger.Debug("synced user guilds",
		zap.String("user_id", userID),
		zap.Int("count", len(guilds)),
	)

	return nil
}

// SyncBotGuilds replaces the entire bot presence table with the supplied
// snapshot. Individual join/leave events may interleave with this; both
// paths run in their own transactions and the last commit wins.
func (db *DB) SyncBotGuilds(ctx context.Context, guilds []models.GuildData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bot_guilds`); err != nil {
		return fmt.Errorf("failed to clear bot guilds: %w", err)
	}

	insertQuery := `
		INSERT INTO bot_guilds (guild_id, guild_name, member_count, synced_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			guild_name = EXCLUDED.guild_name,
			member_count = EXCLUDED.member_count,
			synced_at = NOW()
	`

	for _, g := range guilds {
		if _, err := tx.ExecContext(ctx, insertQuery, g.ID, g.Name, g.MemberCount); err != nil {
			return fmt.Errorf("failed to insert bot guild %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bot guild sync: %w", err)
	}

	db.logger.Debug("synced bot guilds", zap.Int("count", len(guilds)))
	return nil
}

// UpsertBotGuild records a single guild join (or membership update) event.
func (db *DB) UpsertBotGuild(ctx context.Context, guildID, guildName string, memberCount int) error {
	query := `
		INSERT INTO bot_guilds (guild_id, guild_name, member_count, synced_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id)
		DO UPDATE SET
			guild_name = EXCLUDED.guild_name,
			member_count = EXCLUDED.member_count,
			synced_at = NOW()
	`

	if _, err := db.ExecContext(ctx, query, guildID, guildName, memberCount); err != nil {
		return fmt.Errorf("failed to upsert bot guild: %w", err)
	}

	return nil
}

// RemoveBotGuild records a single guild leave event. Removing a guild that
// is not present is not an error; leave events can race a bulk sync.
func (db *DB) RemoveBotGuild(ctx context.Context, guildID string) error {
	query := `DELETE FROM bot_guilds WHERE guild_id = $1`

	if _, err := db.ExecContext(ctx, query, guildID); err != nil {
		return fmt.Errorf("failed to remove bot guild: %w", err)
	}

	return nil
}

// IsBotInGuild checks whether the bot is currently a member of the guild.
func (db *DB) IsBotInGuild(ctx context.Context, guildID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bot_guilds WHERE guild_id = $1)`

	var present bool
	if err := db.QueryRowContext(ctx, query, guildID).Scan(&present); err != nil {
		return false, fmt.Errorf("failed to check bot guild presence: %w", err)
	}

	return present, nil
}

// ListUserGuilds returns the user's guild memberships joined with bot
// presence, ordered by guild name. With manageableOnly the result is
// restricted to guilds the user can manage (owner or ADMINISTRATOR bit)
// where the bot is present; otherwise every membership is returned,
// annotated with the BotPresent flag.
func (db *DB) ListUserGuilds(ctx context.Context, userID string, manageableOnly bool) ([]*models.GuildView, error) {
	query := `
		SELECT ug.guild_id, ug.guild_name, ug.guild_icon, ug.owner, ug.permissions,
		       bg.guild_id IS NOT NULL AS bot_present, bg.member_count
		FROM user_guilds ug
		LEFT JOIN bot_guilds bg ON ug.guild_id = bg.guild_id
		WHERE ug.user_id = $1
	`
	args := []interface{}{userID}

	if manageableOnly {
		query += `
		AND (ug.owner = TRUE OR (ug.permissions & $2) <> 0)
		AND bg.guild_id IS NOT NULL
		`
		args = append(args, int64(models.PermissionAdministrator))
	}

	query += `ORDER BY ug.guild_name ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user guilds: %w", err)
	}
	defer rows.Close()

	var views []*models.GuildView
	for rows.Next() {
		var view models.GuildView
		err := rows.Scan(
			&view.GuildID,
			&view.GuildName,
			&view.GuildIcon,
			&view.Owner,
			&view.Permissions,
			&view.BotPresent,
			&view.MemberCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guild view: %w", err)
		}
		views = append(views, &view)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user guilds: %w", err)
	}

	return views, nil
}

// CheckUserGuildPermission reports whether the user's stored membership
// grants management rights on the guild. A missing membership row means no
// access.
func (db *DB) CheckUserGuildPermission(ctx context.Context, userID, guildID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_guilds
			WHERE user_id = $1
			AND guild_id = $2
			AND (owner = TRUE OR (permissions & $3) <> 0)
		)
	`

	var allowed bool
	err := db.QueryRowContext(ctx, query, userID, guildID, int64(models.PermissionAdministrator)).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("failed to check guild permission: %w", err)
	}

	return allowed, nil
}
