package utils

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter хранит отдельный token bucket на каждый ключ (обычно IP клиента).
// Каждый bucket пропускает limit запросов за window.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) get(key string) *visitor {
	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v
}

// Allow проверяет, можно ли выполнить запрос
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune()
	return rl.get(key).limiter.AllowN(rl.now(), 1)
}

func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.visitors, key)
}

func (rl *RateLimiter) GetRemaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	tokens := int(rl.get(key).limiter.TokensAt(rl.now()))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// GetResetTime возвращает время полного восстановления лимита
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	missing := float64(rl.limit) - rl.get(key).limiter.TokensAt(now)
	if missing <= 0 {
		return now
	}
	perToken := rl.window / time.Duration(rl.limit)
	return now.Add(time.Duration(missing * float64(perToken)))
}

// prune удаляет неактивных посетителей. Вызывается под mu.
func (rl *RateLimiter) prune() {
	if len(rl.visitors) < 1024 {
		return
	}
	cutoff := rl.now().Add(-2 * rl.window)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}
