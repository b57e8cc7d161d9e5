package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(window time.Duration, limit, maxKeys int) (*Limiter, *time.Time) {
	l := NewLimiter(window, limit, maxKeys)
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	l.OverrideNow(func() time.Time { return now })
	return l, &now
}

func TestAllowWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 3, 100)

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("10.0.0.1")
		assert.True(t, ok, "call %d should pass", i+1)
	}
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1, 100)

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok)
}

func TestWindowResetsOnExpiry(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 1, 100)

	ok, _ := l.Allow("10.0.0.1")
	require.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	require.False(t, ok)

	*now = now.Add(time.Minute)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestWaitHintShrinksThroughWindow(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 1, 100)

	_, _ = l.Allow("10.0.0.1")
	*now = now.Add(45 * time.Second)
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 15*time.Second, wait)
}

func TestPruneDropsExpiredKeys(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 5, 100)

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Size())

	*now = now.Add(2 * time.Minute)
	removed := l.Prune()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, l.Size())
}

func TestEvictionCapsTrackedKeys(t *testing.T) {
	l, now := newTestLimiter(time.Minute, 5, 10)

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("key-%d", i))
		*now = now.Add(time.Second)
	}
	assert.Equal(t, 10, l.Size())

	// All windows are still live, so the oldest key is shed for the new one.
	ok, _ := l.Allow("newcomer")
	assert.True(t, ok)
	assert.LessOrEqual(t, l.Size(), 10)
	ok, _ = l.Allow("key-9")
	assert.True(t, ok)
}
