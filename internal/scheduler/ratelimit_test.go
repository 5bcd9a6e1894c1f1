package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToBurst(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < defaultSubmitBurst; i++ {
		assert.True(t, rl.Allow("alice"), "call %d within burst should be admitted", i)
	}
	assert.False(t, rl.Allow("alice"), "call beyond burst should be rejected")
}

func TestRateLimiterTracksOwnersIndependently(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < defaultSubmitBurst; i++ {
		assert.True(t, rl.Allow("alice"))
	}
	assert.False(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("bob"), "a different owner has its own bucket")
}

func TestRateLimiterResetClearsBucket(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < defaultSubmitBurst; i++ {
		rl.Allow("alice")
	}
	assert.False(t, rl.Allow("alice"))
	rl.Reset("alice")
	assert.True(t, rl.Allow("alice"), "reset should restore a fresh bucket")
}
