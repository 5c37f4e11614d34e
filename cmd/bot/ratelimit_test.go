package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserRateLimiter(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newUserRateLimiter(6, 2)
	r.now = func() time.Time { return now }

	require.True(t, r.Allow("U"))
	require.True(t, r.Allow("U"))
	require.False(t, r.Allow("U"), "burst used up")
	require.True(t, r.Allow("V"), "users are limited separately")

	// Six a minute is one token every ten seconds.
	now = now.Add(10 * time.Second)
	require.True(t, r.Allow("U"))
	require.False(t, r.Allow("U"))
}

func TestUserRateLimiter_Disabled(t *testing.T) {
	r := newUserRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, r.Allow("U"))
	}
}

func TestUserRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newUserRateLimiter(1, 1)
	r.now = func() time.Time { return now }

	require.True(t, r.Allow("U"))
	require.Len(t, r.users, 1)

	now = now.Add(limiterIdle + time.Minute)
	require.True(t, r.Allow("V"))
	require.Len(t, r.users, 1)
	require.Contains(t, r.users, "V")
}
