// Package ratelimit provides a Redis-backed httprate.LimitCounter so request
// limits are shared by every replica pointing at the same Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

var incrScript = redis.NewScript(`
local count = redis.call("INCRBY", KEYS[1], ARGV[1])
if count == tonumber(ARGV[1]) then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return count
`)

const opTimeout = 2 * time.Second

// Redis owns the client. Counter hands out one httprate counter per named
// limit; they share the connection but not the key space.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(addr, password, prefix string) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "bookworm:ratelimit"
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Counter returns a counter for the limit called name.
func (r *Redis) Counter(name string) httprate.LimitCounter {
	return &counter{client: r.client, prefix: r.prefix + ":" + name}
}

// counter stores one key per (client key, window start). Keys live for two
// windows because httprate weighs the previous window into the current rate.
type counter struct {
	client *redis.Client
	prefix string
	window time.Duration
}

var _ httprate.LimitCounter = (*counter)(nil)

func (c *counter) Config(_ int, windowLength time.Duration) {
	c.window = windowLength
}

func (c *counter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *counter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	if c.window <= 0 {
		return errors.New("rate limit counter used before Config")
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	ttl := (2 * c.window).Milliseconds()
	if err := incrScript.Run(ctx, c.client, []string{c.key(key, currentWindow)}, amount, ttl).Err(); err != nil {
		return fmt.Errorf("rate limit increment: %w", err)
	}
	return nil
}

func (c *counter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	vals, err := c.client.MGet(ctx, c.key(key, currentWindow), c.key(key, previousWindow)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit get: %w", err)
	}
	curr, err := count(vals[0])
	if err != nil {
		return 0, 0, err
	}
	prev, err := count(vals[1])
	if err != nil {
		return 0, 0, err
	}
	return curr, prev, nil
}

func (c *counter) key(key string, window time.Time) string {
	if key = strings.TrimSpace(key); key == "" {
		key = "unknown"
	}
	return fmt.Sprintf("%s:%s:%d", c.prefix, key, window.Unix())
}

func count(v interface{}) (int, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("rate limit counter value %q: %w", s, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("rate limit counter value of type %T", v)
	}
}
