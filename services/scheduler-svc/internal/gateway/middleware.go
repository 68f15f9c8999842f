package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"rostering/pkg/auth"
	"rostering/pkg/logger"
	"rostering/pkg/metrics"
	"rostering/pkg/ratelimit"
)

const requestIDHeader = "X-Request-Id"

// DefaultInterceptors returns logging and metrics interceptors backed by the
// global logger and metrics.
func DefaultInterceptors() []connect.Interceptor {
	return []connect.Interceptor{
		NewLoggingInterceptor(),
		NewMetricsInterceptor(metrics.Get()),
	}
}

// NewLoggingInterceptor логирует запросы; the caller's X-Request-Id is kept
// when present.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			requestID := req.Header().Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			log := logger.WithRequestID(requestID)

			start := time.Now()
			resp, err := next(ctx, req)
			duration := time.Since(start)

			if err != nil {
				log.Warn("Request failed",
					"procedure", req.Spec().Procedure,
					"duration_ms", duration.Milliseconds(),
					"code", connect.CodeOf(err).String(),
					"error", err,
				)
				return nil, err
			}

			resp.Header().Set(requestIDHeader, requestID)
			log.Info("Request completed",
				"procedure", req.Spec().Procedure,
				"duration_ms", duration.Milliseconds(),
				"peer", req.Peer().Addr,
			)
			return resp, nil
		}
	}
}

// NewMetricsInterceptor считает запросы по процедуре и коду
func NewMetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.RecordHTTPRequest(req.Spec().Procedure, code)
			return resp, err
		}
	}
}

// NewAuthInterceptor требует заголовок Authorization: Bearer <jwt|api key>.
func NewAuthInterceptor(a *auth.Authenticator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			scheme, token, _ := strings.Cut(req.Header().Get("Authorization"), " ")
			if !strings.EqualFold(scheme, "bearer") || token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("bearer token required"))
			}
			id, err := a.Authenticate(token)
			if err != nil {
				logger.Log.Warn("Authentication failed", "procedure", req.Spec().Procedure, "error", err)
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid credentials"))
			}
			return next(auth.NewContext(ctx, id), req)
		}
	}
}

// NewRateLimitInterceptor отклоняет запросы сверх лимита с ResourceExhausted
// и заголовком Retry-After. Limiter errors let the request through.
func NewRateLimitInterceptor(l ratelimit.Limiter) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := clientKey(ctx, req)
			d, err := l.Allow(ctx, key)
			if err != nil {
				logger.Log.Warn("Rate limiter unavailable", "procedure", req.Spec().Procedure, "error", err)
				return next(ctx, req)
			}
			if !d.Allowed {
				cerr := connect.NewError(connect.CodeResourceExhausted,
					fmt.Errorf("limit of %d requests exceeded, retry after %s", d.Limit, d.RetryAfter))
				cerr.Meta().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds()+0.999)))
				return nil, cerr
			}
			return next(ctx, req)
		}
	}
}

func clientKey(ctx context.Context, req connect.AnyRequest) string {
	if id, ok := auth.FromContext(ctx); ok {
		return "sub:" + id.Subject
	}
	if fwd := req.Header().Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	addr := req.Peer().Addr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
