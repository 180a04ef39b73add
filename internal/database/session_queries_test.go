package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vermion-Bot/vermion-common/internal/testutil"
)

func TestCreateSession_Success(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	user := testutil.GenerateSessionUser("user1")
	token := testutil.GenerateSessionToken(3600)

	sessionID, err := db.CreateSession(ctx, user, token)

	require.NoError(t, err)
	// 32 random bytes base64url-encoded without padding
	assert.Len(t, sessionID, 43)

	session, err := db.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "user1", session.UserID)
	assert.Equal(t, "testuser_user1", session.Username)
	assert.Equal(t, "test_access_token", session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestCreateSession_DefaultLifetime(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	user := testutil.GenerateSessionUser("user1")
	token := testutil.GenerateSessionToken(0)

	sessionID, err := db.CreateSession(ctx, user, token)
	require.NoError(t, err)

	session, err := db.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionLifetime), session.ExpiresAt, 5*time.Second)
}

func TestCreateSession_ConfiguredLifetime(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	// Operator-configured lifetime replaces the package default
	db.SetSessionLifetime(24 * time.Hour)

	sessionID, err := db.CreateSession(ctx, testutil.GenerateSessionUser("user1"), testutil.GenerateSessionToken(0))
	require.NoError(t, err)

	session, err := db.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestCreateSession_UniqueIdentifiers(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	user := testutil.GenerateSessionUser("user1")
	token := testutil.GenerateSessionToken(3600)

	first, err := db.CreateSession(ctx, user, token)
	require.NoError(t, err)
	second, err := db.CreateSession(ctx, user, token)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestGetSession_RefreshesLastActivity(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	sessionID, err := db.CreateSession(ctx, testutil.GenerateSessionUser("user1"), testutil.GenerateSessionToken(3600))
	require.NoError(t, err)

	first, err := db.GetSession(ctx, sessionID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second, err := db.GetSession(ctx, sessionID)
	require.NoError(t, err)

	assert.False(t, second.LastActivity.Before(first.LastActivity))
	assert.True(t, second.LastActivity.After(second.CreatedAt))
}

func TestGetSession_NotFound(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	session, err := db.GetSession(ctx, "no_such_session")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, session)
}

func TestGetSession_ExpiredLooksAbsent(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	insertSessionWithExpiry(t, db, "expired_session", "user1", time.Now().Add(-time.Minute))

	session, err := db.GetSession(ctx, "expired_session")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, session)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := setupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	sessionID, err := db.CreateSession(ctx, testutil.GenerateSessionUser("user1"), testutil.GenerateSessionToken(3600))
	require.NoError(t, err)

	require.NoError(t, db.DeleteSession(ctx, sessionID))

	_, err = db.GetSession(ctx, sessionID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a session that no longer exists is not an error
	assert.NoError(t, db.DeleteSession(ctx, sessionID))
}
