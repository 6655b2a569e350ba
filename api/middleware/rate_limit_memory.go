package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	pkgredis "github.com/zauberjournal/journal-api/pkg/redis"
)

const memoryRateStorePruneAt = 10000

// MemoryRateStore limits per scope inside one process when redis is not
// configured. Each scope gets a token bucket holding limit tokens that
// refills over window, which approximates the redis fixed window.
type MemoryRateStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{limiters: make(map[string]*rate.Limiter), now: time.Now}
}

// FixedWindowAllow consumes one token for scope. Count is the number of
// tokens in use after the call; a rejection reports when the next token
// becomes available.
func (s *MemoryRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (pkgredis.RateDecision, error) {
	if limit <= 0 || window <= 0 {
		return pkgredis.RateDecision{Allowed: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	lim, ok := s.limiters[scope]
	if !ok {
		if len(s.limiters) >= memoryRateStorePruneAt {
			s.pruneLocked(now)
		}
		lim = rate.NewLimiter(rate.Every(window/time.Duration(limit)), int(limit))
		s.limiters[scope] = lim
	}

	if lim.AllowN(now, 1) {
		return pkgredis.RateDecision{Allowed: true, Count: limit - int64(lim.TokensAt(now))}, nil
	}

	deficit := 1 - lim.TokensAt(now)
	wait := time.Duration(deficit / float64(lim.Limit()) * float64(time.Second))
	return pkgredis.RateDecision{Count: limit + 1, RetryAfter: wait}, nil
}

// pruneLocked drops buckets that have fully refilled; they carry no state.
func (s *MemoryRateStore) pruneLocked(now time.Time) {
	for scope, lim := range s.limiters {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(s.limiters, scope)
		}
	}
}
