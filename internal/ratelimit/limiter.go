package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

type Decision struct {
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter int // seconds
	Allowed    bool
}

type LimitConfig struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// Limiter is a Redis fixed-window counter. The window starts at the first
// hit of a key and the key expires with it.
type Limiter struct {
	client *redis.Client
	salt   string
	prefix string
}

var incrScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return {current, redis.call("PTTL", KEYS[1])}
`)

func NewLimiter(client *redis.Client, salt, prefix string) *Limiter {
	if salt == "" {
		salt = "mina-dashboard"
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{client: client, salt: salt, prefix: prefix}
}

// Hash returns a salted digest so raw IPs and emails never reach Redis.
func (l *Limiter) Hash(value string) string {
	sum := sha256.Sum256([]byte(value + l.salt))
	return hex.EncodeToString(sum[:16])
}

// Allow counts one hit against key.
func (l *Limiter) Allow(ctx context.Context, key string, cfg LimitConfig) (*Decision, error) {
	res, err := incrScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, cfg.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		return nil, ErrRedisUnavailable
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = cfg.Window
	}

	remaining := cfg.Rate - count
	if remaining < 0 {
		remaining = 0
	}
	retry := int((ttl + time.Second - 1) / time.Second)
	return &Decision{
		Limit:      cfg.Rate,
		Remaining:  remaining,
		Reset:      time.Now().Add(ttl),
		RetryAfter: retry,
		Allowed:    count <= cfg.Rate,
	}, nil
}

// Reset clears key, e.g. after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+":"+key).Err()
}
