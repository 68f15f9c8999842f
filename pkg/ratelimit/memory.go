package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// MemoryLimiter keeps per-key state in process.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	now     func() time.Time

	stopCh chan struct{}
	closed bool
}

type bucket struct {
	tokens float64
	last   time.Time
	// hits: времена допущенных запросов в окне, по возрастанию
	hits []time.Time
}

// NewMemoryLimiter создаёт in-memory лимитер
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go l.janitor(cfg.CleanupInterval)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return Decision{}, ErrLimiterClosed
	}

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.capacity()), last: now}
		l.buckets[key] = b
	}

	if l.config.Strategy == StrategyTokenBucket {
		return l.takeToken(b, now), nil
	}
	return l.slide(b, now), nil
}

func (l *MemoryLimiter) capacity() int {
	if l.config.Strategy == StrategyTokenBucket {
		return l.config.Requests + l.config.Burst
	}
	return l.config.Requests
}

func (l *MemoryLimiter) takeToken(b *bucket, now time.Time) Decision {
	rate := float64(l.config.Requests) / l.config.Window.Seconds()
	b.tokens = math.Min(float64(l.capacity()), b.tokens+now.Sub(b.last).Seconds()*rate)
	b.last = now

	d := Decision{Limit: l.capacity()}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
		d.Remaining = int(b.tokens)
		return d
	}
	d.RetryAfter = time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return d
}

func (l *MemoryLimiter) slide(b *bucket, now time.Time) Decision {
	cutoff := now.Add(-l.config.Window)
	keep := 0
	for keep < len(b.hits) && !b.hits[keep].After(cutoff) {
		keep++
	}
	b.hits = b.hits[keep:]
	b.last = now

	d := Decision{Limit: l.config.Requests}
	if len(b.hits) < l.config.Requests {
		b.hits = append(b.hits, now)
		d.Allowed = true
		d.Remaining = l.config.Requests - len(b.hits)
		return d
	}
	d.RetryAfter = b.hits[0].Add(l.config.Window).Sub(now)
	return d
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.stopCh)
	l.buckets = nil
	return nil
}

func (l *MemoryLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.purgeIdle()
		}
	}
}

// purgeIdle drops keys untouched for two windows; a fresh bucket for such a
// key admits exactly what the old one would have.
func (l *MemoryLimiter) purgeIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.config.Window)
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
