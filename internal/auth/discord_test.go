package auth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/config"
	"github.com/Vermion-Bot/vermion-common/internal/ratelimit"
	"github.com/Vermion-Bot/vermion-common/internal/testutil"
)

func newTestClient(t *testing.T) (*DiscordClient, *testutil.MockDiscordServer) {
	t.Helper()

	mock := testutil.NewMockDiscordServer()
	t.Cleanup(mock.Close)

	cfg := &config.DiscordConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://localhost:8080/auth/callback",
		Scopes:       []string{"identify", "guilds"},
	}

	client := NewDiscordClient(cfg, zap.NewNop())
	client.SetBaseURL(mock.URL())
	client.SetRateLimiter(ratelimit.New(zap.NewNop()))

	return client, mock
}

func TestGetAuthURL(t *testing.T) {
	client, _ := newTestClient(t)

	authURL := client.GetAuthURL("state123")

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "test_client_id", query.Get("client_id"))
	assert.Equal(t, "state123", query.Get("state"))
	assert.Equal(t, "identify guilds", query.Get("scope"))
	assert.Equal(t, "code", query.Get("response_type"))
}

func TestExchangeCode_Success(t *testing.T) {
	client, mock := newTestClient(t)

	token, err := client.ExchangeCode(context.Background(), "valid_code")

	require.NoError(t, err)
	assert.Equal(t, "mock_access_token", token.AccessToken)
	assert.Equal(t, "mock_refresh_token", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	// expires_in is 7 days; allow for clock skew during the exchange
	assert.InDelta(t, 604800, token.ExpiresIn, 10)
	assert.Equal(t, 1, mock.TokenCalls)
}

func TestExchangeCode_InvalidCode(t *testing.T) {
	client, _ := newTestClient(t)

	token, err := client.ExchangeCode(context.Background(), "bogus_code")

	require.Error(t, err)
	assert.Nil(t, token)
}

func TestGetUserInfo_Success(t *testing.T) {
	client, mock := newTestClient(t)

	user, err := client.GetUserInfo(context.Background(), "mock_access_token")

	require.NoError(t, err)
	assert.Equal(t, "100200300", user.ID)
	assert.Equal(t, "mockuser", user.Username)
	assert.Equal(t, "mock_avatar_hash", user.Avatar)
	assert.Equal(t, 1, mock.UserInfoCalls)
}

func TestGetUserInfo_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t)

	user, err := client.GetUserInfo(context.Background(), "wrong_token")

	require.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "401")
}

func TestGetUserGuilds_Success(t *testing.T) {
	client, mock := newTestClient(t)
	mock.Guilds = []map[string]interface{}{
		{
			"id":          "guild1",
			"name":        "Admin Guild",
			"icon":        "icon1",
			"owner":       false,
			"permissions": "8",
		},
		{
			"id":          "guild2",
			"name":        "Owned Guild",
			"owner":       true,
			"permissions": "2147483647",
		},
		{
			"id":          "guild3",
			"name":        "Member Guild",
			"permissions": "2048",
		},
	}

	guilds, err := client.GetUserGuilds(context.Background(), "mock_access_token")

	require.NoError(t, err)
	require.Len(t, guilds, 3)

	assert.Equal(t, "guild1", guilds[0].ID)
	assert.Equal(t, "Admin Guild", guilds[0].Name)
	assert.True(t, guilds[0].Permissions.HasAdministrator())
	assert.False(t, guilds[0].Owner)

	assert.True(t, guilds[1].Owner)
	assert.True(t, guilds[1].Permissions.HasAdministrator())

	assert.False(t, guilds[2].Permissions.HasAdministrator())
}

func TestGetUserGuilds_Empty(t *testing.T) {
	client, _ := newTestClient(t)

	guilds, err := client.GetUserGuilds(context.Background(), "mock_access_token")

	require.NoError(t, err)
	assert.Empty(t, guilds)
}

func TestGetUserGuilds_UnparseablePermissions(t *testing.T) {
	client, mock := newTestClient(t)
	mock.Guilds = []map[string]interface{}{
		{
			"id":          "guild1",
			"name":        "Weird Guild",
			"permissions": "not-a-number",
		},
	}

	guilds, err := client.GetUserGuilds(context.Background(), "mock_access_token")

	require.NoError(t, err)
	require.Len(t, guilds, 1)
	// Unparseable permissions degrade to none rather than failing the sync
	assert.False(t, guilds[0].Permissions.HasAdministrator())
}
