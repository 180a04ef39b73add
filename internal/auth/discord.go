// Package auth provides the Discord OAuth2 client for the dashboard:
// authorization-code exchange plus user identity and guild list retrieval.
// Its outputs feed session creation and the guild directory sync.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Vermion-Bot/vermion-common/internal/config"
	"github.com/Vermion-Bot/vermion-common/internal/models"
	"github.com/Vermion-Bot/vermion-common/internal/ratelimit"
)

const (
	discordAPIEndpoint = "https://discord.com/api/v10"
	discordAuthURL     = "https://discord.com/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token" //nolint:gosec // Not a hardcoded credential, just an API endpoint URL
)

// discordGuild is the guild shape returned by /users/@me/guilds.
// Permissions arrive as a decimal string.
type discordGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions"`
}

// DiscordClient handles Discord OAuth operations
type DiscordClient struct {
	config      *oauth2.Config
	logger      *zap.Logger
	baseURL     string // Discord API base URL (configurable for testing)
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
}

// NewDiscordClient creates a new Discord OAuth client
func NewDiscordClient(cfg *config.DiscordConfig, logger *zap.Logger) *DiscordClient {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  discordAuthURL,
			TokenURL: discordTokenURL,
		},
	}

	return &DiscordClient{
		config:     oauthConfig,
		logger:     logger,
		baseURL:    discordAPIEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetRateLimiter sets the rate limiter for Discord API requests
func (dc *DiscordClient) SetRateLimiter(rl *ratelimit.Limiter) {
	dc.rateLimiter = rl
}

// SetBaseURL sets the base URL for the Discord API (used for testing)
func (dc *DiscordClient) SetBaseURL(url string) {
	dc.baseURL = url
	dc.config.Endpoint.TokenURL = url + "/oauth2/token"
}

// GetAuthURL constructs the Discord OAuth authorization URL
func (dc *DiscordClient) GetAuthURL(state string) string {
	return dc.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for the token payload
// consumed by session creation.
func (dc *DiscordClient) ExchangeCode(ctx context.Context, code string) (*models.SessionToken, error) {
	token, err := dc.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	dc.logger.Debug("successfully exchanged code for token",
		zap.String("token_type", token.TokenType),
		zap.Time("expiry", token.Expiry),
	)

	var expiresIn int64
	if !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Seconds())
	}

	return &models.SessionToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    expiresIn,
	}, nil
}

// GetUserInfo fetches the logged-in user's identity from the Discord API.
func (dc *DiscordClient) GetUserInfo(ctx context.Context, accessToken string) (*models.SessionUser, error) {
	resp, err := dc.makeAPIRequest(ctx, http.MethodGet, "/users/@me", accessToken)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("discord API returned status %d: %s", resp.StatusCode, string(body))
	}

	var user models.SessionUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	dc.logger.Debug("fetched user info from Discord",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return &user, nil
}

// GetUserGuilds fetches the user's guilds from the Discord API, shaped as
// guild directory sync input.
func (dc *DiscordClient) GetUserGuilds(ctx context.Context, accessToken string) ([]models.GuildData, error) {
	resp, err := dc.makeAPIRequest(ctx, http.MethodGet, "/users/@me/guilds", accessToken)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("discord API returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw []discordGuild
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode guilds: %w", err)
	}

	guilds := make([]models.GuildData, 0, len(raw))
	for _, g := range raw {
		permissions, err := strconv.ParseInt(g.Permissions, 10, 64)
		if err != nil && g.Permissions != "" {
			dc.logger.Warn("unparseable guild permissions",
				zap.String("guild_id", g.ID),
				zap.String("permissions", g.Permissions),
			)
		}
		guilds = append(guilds, models.GuildData{
			ID:          g.ID,
			Name:        g.Name,
			Icon:        g.Icon,
			Owner:       g.Owner,
			Permissions: models.Permissions(permissions),
		})
	}

	dc.logger.Debug("fetched user guilds from Discord",
		zap.Int("guild_count", len(guilds)),
	)

	return guilds, nil
}

// makeAPIRequest makes a rate-limited HTTP request to the Discord API
func (dc *DiscordClient) makeAPIRequest(ctx context.Context, method, endpoint, accessToken string) (*http.Response, error) {
	if dc.rateLimiter != nil {
		if err := dc.rateLimiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, dc.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if dc.rateLimiter != nil {
		dc.rateLimiter.Update(endpoint, resp.Header)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		defer func() { _ = resp.Body.Close() }()
		var retryAfter time.Duration
		if dc.rateLimiter != nil {
			retryAfter = dc.rateLimiter.Handle429(endpoint, resp.Header)
		}
		return nil, fmt.Errorf("rate limited by Discord API, retry after %v", retryAfter)
	}

	return resp, nil
}
