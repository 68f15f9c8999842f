// Package client dials the scheduler service over gRPC.
package client

import (
	"context"
	"time"

	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"rostering/pkg/config"
)

type ClientConfig struct {
	Address      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// Token is attached to every call as a bearer credential.
	Token string
}

// DefaultClientConfig возвращает конфигурацию по умолчанию
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:      "localhost:50051",
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// FromConfig builds a ClientConfig, keeping defaults for zero values.
func FromConfig(cfg config.ClientConfig) ClientConfig {
	out := DefaultClientConfig()
	if cfg.Address != "" {
		out.Address = cfg.Address
	}
	if cfg.Timeout > 0 {
		out.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		out.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryBackoff > 0 {
		out.RetryBackoff = cfg.RetryBackoff
	}
	out.Token = cfg.Token
	return out
}

// NewGRPCClient создает соединение с retry. Only Unavailable is retried:
// allocation is deterministic, so any other failure repeats identically.
func NewGRPCClient(cfg ClientConfig, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	retryOpts := []grpc_retry.CallOption{
		grpc_retry.WithBackoff(grpc_retry.BackoffExponential(cfg.RetryBackoff)),
		grpc_retry.WithCodes(codes.Unavailable),
		grpc_retry.WithMax(uint(cfg.MaxRetries)),
	}

	chain := []grpc.UnaryClientInterceptor{grpc_retry.UnaryClientInterceptor(retryOpts...)}
	if cfg.Token != "" {
		chain = append(chain, bearerInterceptor(cfg.Token))
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(chain...),
	}
	dialOpts = append(dialOpts, extra...)

	return grpc.NewClient(cfg.Address, dialOpts...)
}

func bearerInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "bearer "+token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
