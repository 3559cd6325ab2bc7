package repo

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

// Hit counts one event for key in a fixed window and returns the count so far.
// A counter left without an expiry (a failed EXPIRE, a crash between calls)
// gets one on the next hit, so a window can never outlive its span by more
// than one hit.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.C.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	n := incr.Val()
	// -1: key exists without expiry
	if ttl.Val() < 0 {
		if err := r.C.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
