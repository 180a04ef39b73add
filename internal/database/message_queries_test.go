package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertTestMessage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, db.UpsertTestMessage(ctx, "guild1", "hello world"))

	msg, err := db.GetTestMessage(ctx, "guild1")
	require.NoError(t, err)
	assert.Equal(t, "guild1", msg.GuildID)
	assert.Equal(t, "hello world", msg.TestMessage)
	assert.WithinDuration(t, time.Now(), msg.UpdatedAt, 5*time.Second)
}

func TestUpsertTestMessage_Overwrites(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, db.UpsertTestMessage(ctx, "guild1", "first"))
	require.NoError(t, db.UpsertTestMessage(ctx, "guild1", "second"))

	msg, err := db.GetTestMessage(ctx, "guild1")
	require.NoError(t, err)
	assert.Equal(t, "second", msg.TestMessage)

	// Only one row per guild
	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM guild_messages WHERE guild_id = $1`, "guild1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetTestMessage_NotFound(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	msg, err := db.GetTestMessage(ctx, "unknown_guild")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, msg)
}

func TestGetTestMessage_NullMessageLooksAbsent(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	_, err = db.ExecContext(ctx, `INSERT INTO guild_messages (guild_id, test_message) VALUES ($1, NULL)`, "guild1")
	require.NoError(t, err)

	msg, err := db.GetTestMessage(ctx, "guild1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, msg)
}
