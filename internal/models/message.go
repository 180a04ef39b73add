package models

import "time"

// GuildMessage is the per-guild test message smoke-test record.
type GuildMessage struct {
	GuildID     string    `json:"guild_id"`
	TestMessage string    `json:"test_message"`
	UpdatedAt   time.Time `json:"updated_at"`
}
