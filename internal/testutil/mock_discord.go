package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
)

// MockDiscordServer is a fake Discord API for client tests. It serves the
// token exchange, user info and user guilds endpoints.
type MockDiscordServer struct {
	Server         *httptest.Server
	TokenCalls     int
	UserInfoCalls  int
	GuildListCalls int

	// Guilds is the payload served by /users/@me/guilds.
	Guilds []map[string]interface{}
}

// NewMockDiscordServer creates and starts the fake Discord API.
// The code "valid_code" exchanges successfully; any other code fails.
// The access token "mock_access_token" authorizes API calls.
func NewMockDiscordServer() *MockDiscordServer {
	mds := &MockDiscordServer{}

	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		mds.TokenCalls++

		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if r.FormValue("code") != "valid_code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid authorization code",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "mock_access_token",
			"token_type":    "Bearer",
			"expires_in":    604800,
			"refresh_token": "mock_refresh_token",
			"scope":         "identify guilds",
		})
	})

	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		mds.UserInfoCalls++

		if !mds.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":            "100200300",
			"username":      "mockuser",
			"discriminator": "0001",
			"avatar":        "mock_avatar_hash",
		})
	})

	mux.HandleFunc("/users/@me/guilds", func(w http.ResponseWriter, r *http.Request) {
		mds.GuildListCalls++

		if !mds.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		guilds := mds.Guilds
		if guilds == nil {
			guilds = []map[string]interface{}{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(guilds)
	})

	mds.Server = httptest.NewServer(mux)
	return mds
}

// URL returns the base URL of the fake API.
func (mds *MockDiscordServer) URL() string {
	return mds.Server.URL
}

// Close shuts down the fake API.
func (mds *MockDiscordServer) Close() {
	mds.Server.Close()
}

func (mds *MockDiscordServer) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == "mock_access_token"
}
