package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle is how long a user's limiter is kept after its last use.
const limiterIdle = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userRateLimiter is a token bucket per user.
type userRateLimiter struct {
	mu sync.Mutex

	limit rate.Limit
	burst int

	users     map[string]*userLimiter
	lastSweep time.Time
	now       func() time.Time
}

// newUserRateLimiter allows each user perMinute events a minute with bursts of burst. A perMinute of zero or less
// turns limiting off.
func newUserRateLimiter(perMinute float64, burst int) *userRateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}

	return &userRateLimiter{
		limit: limit,
		burst: burst,
		users: make(map[string]*userLimiter),
		now:   time.Now,
	}
}

// Allow reports whether the user may act now, and uses up a token if so.
func (r *userRateLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	u, ok := r.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.users[userID] = u
	}
	u.lastSeen = now
	return u.limiter.AllowN(now, 1)
}

// sweep drops the limiters of users that have been idle, at most once a minute.
func (r *userRateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < time.Minute {
		return
	}
	r.lastSweep = now

	for id, u := range r.users {
		if now.Sub(u.lastSeen) > limiterIdle {
			delete(r.users, id)
		}
	}
}
