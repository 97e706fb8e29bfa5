package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	req := require.New(t)
	l := NewRateLimiter(2, time.Second)

	req.True(l.Allow())
	req.True(l.Allow())
	req.False(l.Allow())
}

func TestRateLimiter_Refills(t *testing.T) {
	req := require.New(t)
	l := NewRateLimiter(2, 50*time.Millisecond)

	req.True(l.Allow())
	req.True(l.Allow())
	req.False(l.Allow())

	time.Sleep(120 * time.Millisecond)
	req.True(l.Allow())
}

func TestRateLimiter_RefillCapsAtBurst(t *testing.T) {
	req := require.New(t)
	l := NewRateLimiter(2, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	req.True(l.Allow())
	req.True(l.Allow())
	req.False(l.Allow())
}
