package web

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/database"
	"github.com/Vermion-Bot/vermion-common/internal/models"
)

const (
	sessionCookieName = "vermion_session"
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 10 * time.Minute
)

// Handlers contains all dashboard HTTP handlers
type Handlers struct {
	store     Store
	discord   DiscordAPI
	configAPI ConfigFetcher
	logger    *zap.Logger
	tokenTTL  time.Duration
}

// NewHandlers creates a new handlers instance
func NewHandlers(store Store, discord DiscordAPI, tokenTTL time.Duration, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:    store,
		discord:  discord,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// SetConfigClient sets the remote config client backing the guild config
// proxy endpoint.
func (h *Handlers) SetConfigClient(c ConfigFetcher) {
	h.configAPI = c
}

// HealthHandler handles health check requests
func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("failed to write health check response", zap.Error(err))
	}
}

// LoginHandler starts the OAuth flow: it sets a single-use state cookie and
// redirects to the identity provider.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to start login")
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.discord.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler completes the OAuth flow: it validates the state,
// exchanges the code, creates the session and syncs the user's guilds.
func (h *Handlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Error("oauth error from provider",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")),
		)
		h.writeError(w, http.StatusBadGateway, "authentication failed")
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.writeError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != state {
		h.logger.Warn("oauth state mismatch", zap.Bool("has_cookie", err == nil))
		h.writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	clearCookie(w, stateCookieName)

	token, err := h.discord.ExchangeCode(ctx, code)
	if err != nil {
		h.logger.Error("failed to exchange oauth code", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "authentication failed")
		return
	}

	user, err := h.discord.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		h.logger.Error("failed to fetch user info", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "authentication failed")
		return
	}

	sessionID, err := h.store.CreateSession(ctx, user, token)
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "session storage unavailable")
		return
	}

	// Snapshot the user's guilds so the directory is usable right after
	// login. A failed sync degrades the guild list but not the login.
	if guilds, err := h.discord.GetUserGuilds(ctx, token.AccessToken); err != nil {
		h.logger.Warn("failed to fetch user guilds", zap.Error(err))
	} else if err := h.store.SyncUserGuilds(ctx, user.ID, guilds); err != nil {
		h.logger.Warn("failed to sync user guilds", zap.Error(err))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in", zap.String("user_id", user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler destroys the session and clears the cookie.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		if err := h.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to delete session", zap.Error(err))
			h.writeError(w, http.StatusServiceUnavailable, "session storage unavailable")
			return
		}
	}

	clearCookie(w, sessionCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// ListGuildsHandler returns the logged-in user's guilds. By default only
// manageable guilds (owner or administrator, bot present) are returned;
// ?all=true lists every membership annotated with bot presence.
func (h *Handlers) ListGuildsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	manageableOnly := r.URL.Query().Get("all") != "true"
	guilds, err := h.store.ListUserGuilds(r.Context(), session.UserID, manageableOnly)
	if err != nil {
		h.logger.Error("failed to list user guilds", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "guild directory unavailable")
		return
	}
	if guilds == nil {
		guilds = []*models.GuildView{}
	}

	h.writeJSON(w, http.StatusOK, guilds)
}

// GetMessageHandler returns the guild's test message.
func (h *Handlers) GetMessageHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	guildID := r.PathValue("guildID")
	if !h.requireGuildPermission(w, r, session, guildID) {
		return
	}

	msg, err := h.store.GetTestMessage(r.Context(), guildID)
	if errors.Is(err, database.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "no test message set")
		return
	}
	if err != nil {
		h.logger.Error("failed to get test message", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, msg)
}

// UpdateMessageHandler overwrites the guild's test message and records the
// action in the audit trail.
func (h *Handlers) UpdateMessageHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	guildID := r.PathValue("guildID")
	if !h.requireGuildPermission(w, r, session, guildID) {
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.UpsertTestMessage(r.Context(), guildID, body.Message); err != nil {
		h.logger.Error("failed to upsert test message", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	h.audit(r, session.UserID, guildID, "test_message.update", fmt.Sprintf("message set to %q", body.Message))
	w.WriteHeader(http.StatusNoContent)
}

// IssueTokenHandler issues a single-use config-access token for the guild.
func (h *Handlers) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	guildID := r.PathValue("guildID")
	if !h.requireGuildPermission(w, r, session, guildID) {
		return
	}

	token, err := h.store.CreateConfigToken(r.Context(), guildID, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue config token", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	h.audit(r, session.UserID, guildID, "config_token.issue", "")

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token,
		"expires_in": int(h.tokenTTL.Seconds()),
	})
}

// ValidateTokenHandler consumes a config token. No session is required:
// the config page presents the token itself as the credential.
func (h *Handlers) ValidateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token   string `json:"token"`
		GuildID string `json:"guild_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" || body.GuildID == "" {
		h.writeError(w, http.StatusBadRequest, "token and guild_id are required")
		return
	}

	valid, err := h.store.ValidateAndUseToken(r.Context(), body.Token, body.GuildID)
	if err != nil {
		h.logger.Error("failed to validate config token", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// GuildConfigHandler proxies the guild's remote config document to the
// dashboard, behind the same session and permission gates as the other
// guild endpoints.
func (h *Handlers) GuildConfigHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	guildID := r.PathValue("guildID")
	if !h.requireGuildPermission(w, r, session, guildID) {
		return
	}

	if h.configAPI == nil {
		h.writeError(w, http.StatusServiceUnavailable, "config service unavailable")
		return
	}

	doc, err := h.configAPI.GetConfig(r.Context(), guildID)
	if err != nil {
		h.logger.Error("failed to fetch guild config", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "config service unavailable")
		return
	}
	if doc == nil {
		h.writeError(w, http.StatusNotFound, "no config for this guild")
		return
	}

	h.writeJSON(w, http.StatusOK, doc)
}

// AuditLogHandler returns the newest audit entries for the guild.
func (h *Handlers) AuditLogHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	guildID := r.PathValue("guildID")
	if !h.requireGuildPermission(w, r, session, guildID) {
		return
	}

	entries, err := h.store.ListAuditLogs(r.Context(), guildID, 0)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if entries == nil {
		entries = []*models.AuditLogEntry{}
	}

	h.writeJSON(w, http.StatusOK, entries)
}

// requireSession resolves the session cookie to a live session. Absent and
// expired sessions both get 401; a storage fault gets 503.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "not logged in")
		return nil, false
	}

	session, err := h.store.GetSession(r.Context(), cookie.Value)
	if errors.Is(err, database.ErrNotFound) {
		clearCookie(w, sessionCookieName)
		h.writeError(w, http.StatusUnauthorized, "session expired")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load session", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "session storage unavailable")
		return nil, false
	}

	return session, true
}

// requireGuildPermission checks the stored membership snapshot for
// management rights on the guild.
func (h *Handlers) requireGuildPermission(w http.ResponseWriter, r *http.Request, session *models.Session, guildID string) bool {
	if guildID == "" {
		h.writeError(w, http.StatusBadRequest, "guild id is required")
		return false
	}

	allowed, err := h.store.CheckUserGuildPermission(r.Context(), session.UserID, guildID)
	if err != nil {
		h.logger.Error("failed to check guild permission", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "guild directory unavailable")
		return false
	}
	if !allowed {
		h.writeError(w, http.StatusForbidden, "no management rights on this guild")
		return false
	}

	return true
}

// audit appends a privileged-action record. Failures are logged, never
// surfaced: the action already happened.
func (h *Handlers) audit(r *http.Request, userID, guildID, action, details string) {
	ip := clientIP(r)
	entry := &models.AuditLogEntry{
		UserID:    userID,
		GuildID:   guildID,
		Action:    action,
		Details:   sql.NullString{String: details, Valid: details != ""},
		IPAddress: sql.NullString{String: ip, Valid: ip != ""},
	}

	if err := h.store.InsertAuditLog(r.Context(), entry); err != nil {
		h.logger.Error("failed to write audit log",
			zap.String("action", action),
			zap.String("guild_id", guildID),
			zap.Error(err),
		)
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
