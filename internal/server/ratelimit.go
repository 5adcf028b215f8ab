package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter keeps fixed-window request counters and daily quotas per
// client.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	now     func() time.Time
	clients map[string]*clientUsage
}

type window struct {
	start time.Time
	count int
}

// roll restarts the window once period has elapsed.
func (w *window) roll(now time.Time, period time.Duration) {
	if w.start.IsZero() || now.Sub(w.start) >= period {
		w.start = now
		w.count = 0
	}
}

type clientUsage struct {
	minute    window
	hour      window
	day       time.Time
	requests  int
	dataBytes int64
}

// Usage is a snapshot of one client's counters.
type Usage struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsToday      int
	DataToday          int64
}

// NewRateLimiter creates a limiter for the given limits.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		clients: make(map[string]*clientUsage),
	}
}

// CheckRateLimit admits or rejects one request of dataSize bytes from the
// client. Rejected requests do not count against any limit.
func (rl *RateLimiter) CheckRateLimit(client string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u := rl.clients[client]
	if u == nil {
		u = &clientUsage{}
		rl.clients[client] = u
	}
	u.minute.roll(now, time.Minute)
	u.hour.roll(now, time.Hour)
	if today := startOfDay(now); !u.day.Equal(today) {
		u.day = today
		u.requests = 0
		u.dataBytes = 0
	}

	if l := rl.cfg.RequestsPerMinute; l > 0 && u.minute.count >= l {
		return &RateLimitError{Type: "minute", Limit: l, RetryAfter: u.minute.start.Add(time.Minute).Sub(now)}
	}
	if l := rl.cfg.RequestsPerHour; l > 0 && u.hour.count >= l {
		return &RateLimitError{Type: "hour", Limit: l, RetryAfter: u.hour.start.Add(time.Hour).Sub(now)}
	}
	resets := u.day.AddDate(0, 0, 1)
	if l := rl.cfg.MaxRequestsPerDay; l > 0 && u.requests >= l {
		return &QuotaExceededError{Type: "requests", Limit: int64(l), Used: int64(u.requests), Resets: resets}
	}
	if l := rl.cfg.MaxDataPerDay; l > 0 && u.dataBytes+dataSize > l {
		return &QuotaExceededError{Type: "data", Limit: l, Used: u.dataBytes, Resets: resets}
	}

	u.minute.count++
	u.hour.count++
	u.requests++
	u.dataBytes += dataSize
	return nil
}

// GetUsage returns a snapshot of a client's counters.
func (rl *RateLimiter) GetUsage(client string) Usage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u := rl.clients[client]
	if u == nil {
		return Usage{}
	}
	return Usage{
		RequestsLastMinute: u.minute.count,
		RequestsLastHour:   u.hour.count,
		RequestsToday:      u.requests,
		DataToday:          u.dataBytes,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RateLimitError reports an exceeded per-minute or per-hour limit.
type RateLimitError struct {
	Type       string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError reports an exhausted daily quota.
type QuotaExceededError struct {
	Type   string
	Limit  int64
	Used   int64
	Resets time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
