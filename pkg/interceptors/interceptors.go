// Package interceptors assembles the server-side gRPC interceptor chains:
// tracing, metrics, logging, authentication, rate limiting, validation and
// panic recovery.
package interceptors

import (
	"log/slog"

	"google.golang.org/grpc"

	"rostering/pkg/auth"
	"rostering/pkg/logger"
	"rostering/pkg/metrics"
	"rostering/pkg/ratelimit"
	"rostering/pkg/telemetry"
)

// ServerConfig конфигурация серверных интерсепторов
type ServerConfig struct {
	ServiceName   string
	EnableTracing bool
	// Metrics defaults to metrics.Get().
	Metrics *metrics.Metrics
	// Logger defaults to logger.Log.
	Logger *slog.Logger
	// Authenticator is optional; nil leaves every method open.
	Authenticator *auth.Authenticator
	// Limiter is optional; nil disables rate limiting.
	Limiter ratelimit.Limiter
	// RateLimitKey defaults to ClientKey.
	RateLimitKey KeyFunc
}

func (c *ServerConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Log
}

func (c *ServerConfig) metrics() *metrics.Metrics {
	if c.Metrics != nil {
		return c.Metrics
	}
	return metrics.Get()
}

// UnaryServerInterceptors returns the unary chain in execution order.
// Recovery sits next to the handler so tracing, metrics and logging all see
// a recovered panic as codes.Internal.
func UnaryServerInterceptors(cfg *ServerConfig) []grpc.UnaryServerInterceptor {
	l := cfg.logger()
	var chain []grpc.UnaryServerInterceptor
	if cfg.EnableTracing {
		chain = append(chain, telemetry.UnaryServerInterceptor())
	}
	chain = append(chain,
		MetricsInterceptor(cfg.metrics()),
		LoggingInterceptor(l),
	)
	if cfg.Authenticator != nil {
		chain = append(chain, AuthInterceptor(cfg.Authenticator, l))
	}
	if cfg.Limiter != nil {
		chain = append(chain, RateLimitInterceptor(cfg.Limiter, cfg.RateLimitKey, l))
	}
	return append(chain,
		ValidationInterceptor(),
		RecoveryInterceptor(l),
	)
}

// StreamServerInterceptors возвращает цепочку stream интерсепторов
func StreamServerInterceptors(cfg *ServerConfig) []grpc.StreamServerInterceptor {
	l := cfg.logger()
	var chain []grpc.StreamServerInterceptor
	if cfg.EnableTracing {
		chain = append(chain, telemetry.StreamServerInterceptor())
	}
	return append(chain,
		StreamMetricsInterceptor(cfg.metrics()),
		StreamLoggingInterceptor(l),
		StreamRecoveryInterceptor(l),
	)
}

// ServerOptions wraps both chains as grpc.ServerOptions.
func ServerOptions(cfg *ServerConfig) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryServerInterceptors(cfg)...),
		grpc.ChainStreamInterceptor(StreamServerInterceptors(cfg)...),
	}
}
