package interceptors

import (
	"context"
	"log/slog"
	"strings"

	grpcinterceptors "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	grpcauth "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rostering/pkg/auth"
)

// infraPrefixes are health and reflection services; they skip auth and
// rate limiting.
var infraPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

func isInfraMethod(method string) bool {
	for _, prefix := range infraPrefixes {
		if strings.HasPrefix(method, prefix) {
			return true
		}
	}
	return false
}

// AuthInterceptor требует bearer токен (JWT или API ключ) для всех методов,
// кроме health и reflection. The caller's identity is stored with auth.NewContext.
func AuthInterceptor(a *auth.Authenticator, log *slog.Logger) grpc.UnaryServerInterceptor {
	authFn := func(ctx context.Context) (context.Context, error) {
		token, err := grpcauth.AuthFromMD(ctx, "bearer")
		if err != nil {
			return nil, err
		}
		id, err := a.Authenticate(token)
		if err != nil {
			method, _ := grpc.Method(ctx)
			log.Warn("Authentication failed", "method", method, "error", err)
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return auth.NewContext(ctx, id), nil
	}

	return selector.UnaryServerInterceptor(
		grpcauth.UnaryServerInterceptor(authFn),
		selector.MatchFunc(func(_ context.Context, c grpcinterceptors.CallMeta) bool {
			return !isInfraMethod(c.FullMethod())
		}),
	)
}
