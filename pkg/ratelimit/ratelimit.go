// Package ratelimit admits requests per client key. The scheduler uses it
// to keep one caller from saturating the solver with Allocate calls.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rostering/pkg/config"
)

// Стандартные ошибки
var (
	ErrLimiterClosed = errors.New("limiter is closed")
)

// Strategy selects the admission algorithm.
type Strategy string

const (
	// StrategySlidingWindow admits at most Requests calls in any Window.
	StrategySlidingWindow Strategy = "sliding_window"
	// StrategyTokenBucket refills Requests tokens per Window and allows
	// bursts of up to Requests+Burst.
	StrategyTokenBucket Strategy = "token_bucket"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is set when the request was rejected.
	RetryAfter time.Duration
}

// Limiter is a keyed admission check.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
	Close() error
}

// Config конфигурация лимитера
type Config struct {
	Requests int
	Window   time.Duration
	Burst    int
	Strategy Strategy

	// Backend: memory или redis. Redis supports only the sliding window.
	Backend         string
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        120,
		Window:          time.Minute,
		Burst:           10,
		Strategy:        StrategySlidingWindow,
		Backend:         "memory",
		CleanupInterval: 5 * time.Minute,
		RedisAddr:       "localhost:6379",
		KeyPrefix:       "rostering:ratelimit:",
	}
}

// FromConfig builds limiter settings. The Redis backend shares the cache's
// server.
func FromConfig(rl config.RateLimitConfig, c config.CacheConfig) *Config {
	out := DefaultConfig()
	if rl.Requests > 0 {
		out.Requests = rl.Requests
	}
	if rl.Window > 0 {
		out.Window = rl.Window
	}
	if rl.Burst >= 0 {
		out.Burst = rl.Burst
	}
	if rl.Strategy != "" {
		out.Strategy = Strategy(rl.Strategy)
	}
	if rl.Backend != "" {
		out.Backend = rl.Backend
	}
	if c.Host != "" {
		out.RedisAddr = c.Address()
	}
	out.RedisPassword = c.Password
	out.RedisDB = c.DB
	return out
}

// New создаёт лимитер по конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("ratelimit: requests and window must be positive, got %d per %s", cfg.Requests, cfg.Window)
	}

	switch cfg.Backend {
	case "memory", "":
		return NewMemoryLimiter(cfg), nil
	case "redis":
		return NewRedisLimiter(cfg)
	default:
		return nil, fmt.Errorf("ratelimit: unknown backend %q", cfg.Backend)
	}
}
