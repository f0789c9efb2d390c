package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshUsable(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)
	revoked := sql.NullTime{Time: now.Add(-time.Hour), Valid: true}

	assert.True(t, refreshUsable(future, sql.NullTime{}, now))
	assert.False(t, refreshUsable(past, sql.NullTime{}, now), "expired token")
	assert.False(t, refreshUsable(future, revoked, now), "revoked token")
	assert.False(t, refreshUsable(past, revoked, now), "revoked and expired token")
	assert.False(t, refreshUsable(now, sql.NullTime{}, now), "expiry instant itself is expired")
}
