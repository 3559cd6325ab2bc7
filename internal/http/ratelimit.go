package http

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether one more event for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count   int
	started time.Time
}

// MemoryLimiter is a per-process fixed window counter. Used when no redis is
// configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	rate    int
	span    time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(rate int, span time.Duration) *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), rate: rate, span: span, now: time.Now}
}

const sweepAbove = 10000

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.windows) > sweepAbove {
		for k, w := range rl.windows {
			if now.Sub(w.started) >= rl.span {
				delete(rl.windows, k)
			}
		}
	}

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.started) >= rl.span {
		rl.windows[key] = &window{count: 1, started: now}
		return true, nil
	}
	if w.count < rl.rate {
		w.count++
		return true, nil
	}
	return false, nil
}

// Counter is a shared fixed window counter; *repo.Redis implements it.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisLimiter shares the window between every instance behind the balancer.
type RedisLimiter struct {
	r    Counter
	rate int
	span time.Duration
}

func NewRedisLimiter(r Counter, rate int, span time.Duration) *RedisLimiter {
	return &RedisLimiter{r: r, rate: rate, span: span}
}

// Allow fails open: a redis outage must not lock everyone out of login.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := rl.r.Hit(ctx, "rl:"+key, rl.span)
	if err != nil {
		return true, err
	}
	return n <= int64(rl.rate), nil
}
