package ratelimit

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T) (*ChatRateLimiter, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	rl := NewChatRateLimiter(mock, 3, 5*time.Second, 15*time.Second)
	t.Cleanup(rl.Close)
	return rl, mock
}

func TestChatRateLimiter_AllowWithinWindow(t *testing.T) {
	rl, _ := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("alice"), "message %d should pass", i+1)
	}
	assert.False(t, rl.Allow("alice"), "fourth message starts cooldown")
	assert.True(t, rl.Allow("bob"), "other users are unaffected")
}

func TestChatRateLimiter_Cooldown(t *testing.T) {
	rl, mock := newTestLimiter(t)

	for i := 0; i < 4; i++ {
		rl.Allow("alice")
	}

	mock.Add(10 * time.Second)
	assert.False(t, rl.Allow("alice"), "still cooling down")

	mock.Add(6 * time.Second)
	assert.True(t, rl.Allow("alice"), "cooldown over")
}

func TestChatRateLimiter_WindowReset(t *testing.T) {
	rl, mock := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		rl.Allow("alice")
	}
	mock.Add(6 * time.Second)
	assert.True(t, rl.Allow("alice"), "new window")
}

func TestChatRateLimiter_CleanupAndForget(t *testing.T) {
	rl, mock := newTestLimiter(t)

	rl.Allow("alice")
	rl.Allow("bob")
	rl.Forget("bob")

	mock.Add(6 * time.Second)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.buckets)
}
