// Package ratelimit counts requests per client in fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func result(limit int, count int64, reset time.Time) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= int64(limit), Limit: limit, Remaining: remaining, Reset: reset}
}

type window struct {
	count int64
	reset time.Time
}

// Memory keeps counters in process. Expired windows are swept as new ones
// are opened.
type Memory struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	now     func() time.Time
	windows map[string]*window
	sweepAt time.Time
}

func NewMemory(limit int, period time.Duration) *Memory {
	return &Memory{limit: limit, period: period, now: time.Now, windows: make(map[string]*window)}
}

// WithClock replaces the time source, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.After(m.sweepAt) {
		for k, w := range m.windows {
			if !now.Before(w.reset) {
				delete(m.windows, k)
			}
		}
		m.sweepAt = now.Add(m.period)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(m.period)}
		m.windows[key] = w
	}
	w.count++
	return result(m.limit, w.count, w.reset), nil
}

// fixedWindow starts the expiry on the first hit only, so steady traffic
// cannot keep extending a window.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Redis shares counters between API instances.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	period time.Duration
}

func NewRedis(client *redis.Client, prefix string, limit int, period time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, limit: limit, period: period}
}

func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	values, err := fixedWindow.Run(ctx, r.client, []string{r.prefix + key}, r.period.Milliseconds()).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("ratelimit: redis: unexpected reply %v", values)
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)
	return result(r.limit, count, time.Now().Add(time.Duration(ttl)*time.Millisecond)), nil
}
