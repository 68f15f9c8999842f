package interceptors

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"
)

// InterceptorLogger adapts slog to the go-grpc-middleware logging interface.
// The level scales coincide, so levels pass through unchanged.
func InterceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.Log(ctx, slog.Level(lvl), msg, fields...)
	})
}

var logOpts = []logging.Option{
	logging.WithLogOnEvents(logging.FinishCall),
}

// LoggingInterceptor логирует завершение каждого вызова
func LoggingInterceptor(l *slog.Logger) grpc.UnaryServerInterceptor {
	return logging.UnaryServerInterceptor(InterceptorLogger(l), logOpts...)
}

func StreamLoggingInterceptor(l *slog.Logger) grpc.StreamServerInterceptor {
	return logging.StreamServerInterceptor(InterceptorLogger(l), logOpts...)
}
