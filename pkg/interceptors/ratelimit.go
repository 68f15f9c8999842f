package interceptors

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	grpcratelimit "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"rostering/pkg/auth"
	"rostering/pkg/ratelimit"
)

// KeyFunc picks the rate limit bucket for a call.
type KeyFunc func(ctx context.Context) string

// ClientKey buckets authenticated callers by subject and everyone else by
// PeerKey.
func ClientKey(ctx context.Context) string {
	if id, ok := auth.FromContext(ctx); ok {
		return "sub:" + id.Subject
	}
	return PeerKey(ctx)
}

// PeerKey identifies the caller by x-forwarded-for, then by peer host.
func PeerKey(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if fwd := md.Get("x-forwarded-for"); len(fwd) > 0 && fwd[0] != "" {
			first, _, _ := strings.Cut(fwd[0], ",")
			return strings.TrimSpace(first)
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr := p.Addr.String()
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}
	return "unknown"
}

// admission adapts ratelimit.Limiter to the go-grpc-middleware Limiter.
type admission struct {
	limiter ratelimit.Limiter
	key     KeyFunc
	log     *slog.Logger
}

func (a *admission) Limit(ctx context.Context) error {
	method, _ := grpc.Method(ctx)
	if isInfraMethod(method) {
		return nil
	}

	key := a.key(ctx)
	d, err := a.limiter.Allow(ctx, key)
	if err != nil {
		// лимитер недоступен: пропускаем запрос
		a.log.Warn("Rate limiter unavailable", "method", method, "error", err)
		return nil
	}
	if d.Allowed {
		return nil
	}

	secs := int(d.RetryAfter.Seconds() + 0.999)
	_ = grpc.SetHeader(ctx, metadata.Pairs("retry-after", strconv.Itoa(secs))) //nolint:errcheck // best effort hint
	a.log.Info("Rate limit exceeded", "method", method, "key", key, "retry_after", d.RetryAfter)
	return fmt.Errorf("limit of %d requests exceeded, retry after %s", d.Limit, d.RetryAfter)
}

// RateLimitInterceptor rejects calls over the limit with ResourceExhausted.
// A nil key uses ClientKey.
func RateLimitInterceptor(l ratelimit.Limiter, key KeyFunc, log *slog.Logger) grpc.UnaryServerInterceptor {
	if key == nil {
		key = ClientKey
	}
	return grpcratelimit.UnaryServerInterceptor(&admission{limiter: l, key: key, log: log})
}
