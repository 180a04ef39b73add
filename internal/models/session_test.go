package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsExpired(t *testing.T) {
	live := &Session{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, live.IsExpired())

	expired := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())
}

func TestConfigToken_IsExpired(t *testing.T) {
	live := &ConfigToken{ExpiresAt: time.Now().Add(5 * time.Minute)}
	assert.False(t, live.IsExpired())

	expired := &ConfigToken{ExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, expired.IsExpired())
}
