// Package remoteconfig fetches per-guild configuration from the dashboard
// config API. Accessors return their default on any failure (missing
// config, network error, type mismatch); a config read must never fail the
// caller.
package remoteconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is a stateless HTTP client for the per-guild config API.
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a config API client rooted at apiURL
// (e.g. http://localhost:8000/api/config).
func NewClient(apiURL string, logger *zap.Logger) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// GetConfig fetches the full config document for a guild. A missing config
// (404) returns nil with no error; other failures return an error.
func (c *Client) GetConfig(ctx context.Context, guildID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s", c.apiURL, guildID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("fetched guild config",
		zap.String("guild_id", guildID),
		zap.Int("status", resp.StatusCode),
	)

	switch resp.StatusCode {
	case http.StatusOK:
		var doc map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
		return doc, nil
	case http.StatusNotFound:
		c.logger.Warn("guild config not found", zap.String("guild_id", guildID))
		return nil, nil
	default:
		return nil, fmt.Errorf("config API returned status %d", resp.StatusCode)
	}
}

// GetValue looks up a dotted key path (e.g. "moderation.log_channel") in
// the guild's config, returning def when the config or key is absent.
func (c *Client) GetValue(ctx context.Context, guildID, key string, def interface{}) interface{} {
	doc, err := c.GetConfig(ctx, guildID)
	if err != nil {
		c.logger.Warn("config fetch failed, using default",
			zap.String("guild_id", guildID),
			zap.String("key", key),
			zap.Error(err),
		)
		return def
	}
	if doc == nil {
		return def
	}

	var value interface{} = doc
	for _, part := range strings.Split(key, ".") {
		m, ok := value.(map[string]interface{})
		if !ok {
			return def
		}
		value = m[part]
	}

	if value == nil {
		return def
	}
	return value
}

// GetString returns the config value at key coerced to a string.
func (c *Client) GetString(ctx context.Context, guildID, key, def string) string {
	value := c.GetValue(ctx, guildID, key, def)
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

// GetInt returns the config value at key coerced to an int.
func (c *Client) GetInt(ctx context.Context, guildID, key string, def int) int {
	value := c.GetValue(ctx, guildID, key, def)
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}

// GetBool returns the config value at key coerced to a bool.
func (c *Client) GetBool(ctx context.Context, guildID, key string, def bool) bool {
	value := c.GetValue(ctx, guildID, key, def)
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	case float64:
		return v != 0
	default:
		return def
	}
}

// GetList returns the config value at key when it is a JSON array.
func (c *Client) GetList(ctx context.Context, guildID, key string, def []interface{}) []interface{} {
	if def == nil {
		def = []interface{}{}
	}
	value := c.GetValue(ctx, guildID, key, def)
	if list, ok := value.([]interface{}); ok {
		return list
	}
	return def
}
