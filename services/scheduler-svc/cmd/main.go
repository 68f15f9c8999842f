// Package main is the entry point for scheduler-svc.
//
// scheduler-svc builds monthly night-shift rosters: given a nights × sysadmins
// preference matrix and staffing bounds, it finds an assignment through a
// bounded max-flow network or explains why none exists.
//
// # Transports
//
//	gRPC (JSON codec)  :50061  rostering.scheduler.v1.SchedulerService
//	Connect over h2c   :8080   POST /rostering.scheduler.v1.SchedulerService/Allocate
//	Prometheus         :9090   /metrics
//	Swagger UI         :8080   /swagger/
//
// # Configuration
//
// Defaults, then config.yaml (CONFIG_PATH overrides the search), then
// ROSTERING_* environment variables:
//
//	ROSTERING_GRPC_PORT             - gRPC port (default: 50061)
//	ROSTERING_HTTP_ENABLED          - Connect gateway (default: true)
//	ROSTERING_HTTP_PORT             - gateway port (default: 8080)
//	ROSTERING_SCHEDULE_HORIZON      - nights per request, 0 for any (default: 30)
//	ROSTERING_SCHEDULE_TIMEOUT      - per-allocation deadline (default: 30s)
//	ROSTERING_SCHEDULE_MAX_ITERATIONS - augmentation budget, 0 for unlimited
//	ROSTERING_CACHE_ENABLED         - memoize results (default: true)
//	ROSTERING_CACHE_DRIVER          - memory, redis (default: memory)
//	ROSTERING_AUTH_ENABLED          - require bearer JWT or API key (default: false)
//	ROSTERING_AUTH_JWT_SECRET       - HS256 signing secret
//	ROSTERING_AUTH_API_KEYS         - comma-separated argon2id key hashes
//	ROSTERING_RATE_LIMIT_ENABLED    - per-client admission limit (default: true)
//	ROSTERING_RATE_LIMIT_REQUESTS   - calls per window (default: 120)
//	ROSTERING_RATE_LIMIT_BACKEND    - memory, redis (default: memory)
//	ROSTERING_TRACING_ENABLED       - OTLP tracing (default: false)
//
// # Example
//
//	curl -s localhost:8080/rostering.scheduler.v1.SchedulerService/Allocate \
//	  -H 'Content-Type: application/json' \
//	  -d '{"preferences":[[1,0],[0,1]],"sysadmins_per_night":1,"max_unwanted_shifts":2,"min_shifts":1}'
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/auth"
	"rostering/pkg/cache"
	"rostering/pkg/config"
	"rostering/pkg/logger"
	"rostering/pkg/metrics"
	"rostering/pkg/ratelimit"
	"rostering/pkg/server"
	"rostering/services/scheduler-svc/internal/algorithms"
	"rostering/services/scheduler-svc/internal/gateway"
	"rostering/services/scheduler-svc/internal/graph"
	"rostering/services/scheduler-svc/internal/roster"
	"rostering/services/scheduler-svc/internal/service"
)

func main() {
	// =========================================================================
	// Configuration & logging
	// =========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	defer logger.Close() //nolint:errcheck // best effort on exit

	// =========================================================================
	// Metrics
	// =========================================================================
	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	// =========================================================================
	// Result cache (optional; the service works without it)
	// =========================================================================
	var allocCache *cache.AllocationCache
	if cfg.Cache.Enabled {
		base, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			allocCache = cache.NewAllocationCache(base, cfg.Cache.DefaultTTL)
			if err := metrics.RegisterCacheCollector(prometheus.DefaultRegisterer,
				cfg.Metrics.Namespace, cfg.Metrics.Subsystem, cacheStats(base)); err != nil {
				logger.Log.Warn("Failed to register cache collector", "error", err)
			}
			logger.Log.Info("Allocation cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	// =========================================================================
	// Authentication
	// =========================================================================
	var authenticator *auth.Authenticator
	if cfg.Auth.Enabled {
		authenticator, err = auth.New(cfg.Auth)
		if err != nil {
			logger.Fatal("failed to create authenticator", "error", err)
		}
		logger.Log.Info("Authentication enabled",
			"jwt", authenticator.Tokens() != nil,
			"api_keys", len(cfg.Auth.APIKeys),
		)
	}

	// =========================================================================
	// Rate limiting
	// =========================================================================
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(ratelimit.FromConfig(cfg.RateLimit, cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create rate limiter, continuing without limits", "error", err)
			limiter = nil
		} else {
			logger.Log.Info("Rate limiter initialized",
				"backend", cfg.RateLimit.Backend,
				"strategy", cfg.RateLimit.Strategy,
				"requests", cfg.RateLimit.Requests,
				"window", cfg.RateLimit.Window,
			)
		}
	}

	// =========================================================================
	// Allocator & service
	// =========================================================================
	pool := graph.GetPool()
	allocator := roster.NewAllocator(roster.Options{
		Horizon: cfg.Schedule.Horizon,
		Verify:  cfg.Schedule.Verify,
		Pool:    pool,
		Solver: &algorithms.SolverOptions{
			MaxIterations: cfg.Schedule.MaxIterations,
			CheckInterval: cfg.Schedule.CheckInterval,
			Pool:          pool,
		},
	})

	svc := service.NewSchedulerService(service.Options{
		Name:      cfg.App.Name,
		Version:   cfg.App.Version,
		Allocator: allocator,
		Cache:     allocCache,
		Metrics:   m,
		Timeout:   cfg.Schedule.Timeout,
	})

	srv := server.NewWithOptions(cfg, &server.Options{
		Metrics:       m,
		Authenticator: authenticator,
		Limiter:       limiter,
	})
	schedulerv1.RegisterSchedulerServiceServer(srv.GetEngine(), svc)

	if allocCache != nil {
		srv.OnShutdown(func(context.Context) error {
			return allocCache.Close()
		})
	}
	if limiter != nil {
		srv.OnShutdown(func(context.Context) error {
			return limiter.Close()
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Connect gateway
	// =========================================================================
	if cfg.HTTP.Enabled {
		gwInterceptors := gateway.DefaultInterceptors()
		if authenticator != nil {
			gwInterceptors = append(gwInterceptors, gateway.NewAuthInterceptor(authenticator))
		}
		if limiter != nil {
			gwInterceptors = append(gwInterceptors, gateway.NewRateLimitInterceptor(limiter))
		}
		handler := gateway.NewHandler(svc, gateway.Options{
			MetricsHandler: metrics.Handler(),
			Interceptors:   gwInterceptors,
			Docs:           cfg.HTTP.Docs,
		})
		httpSrv := gateway.NewServer(cfg.HTTP, handler)

		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.HTTP.Port))
		if err != nil {
			logger.Fatal("failed to listen for gateway", "port", cfg.HTTP.Port, "error", err)
		}

		gwDone := make(chan error, 1)
		gwCtx, gwCancel := context.WithCancel(ctx)
		go func() {
			err := gateway.Serve(gwCtx, httpSrv, lis, cfg.HTTP.ShutdownTimeout)
			if err != nil {
				logger.Log.Error("Gateway failed", "error", err)
				stop()
			}
			gwDone <- err
		}()

		srv.OnShutdown(func(context.Context) error {
			gwCancel()
			return <-gwDone
		})
	}

	logger.Info("Starting scheduler service",
		"grpc_port", cfg.GRPC.Port,
		"http_port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"horizon", cfg.Schedule.Horizon,
		"cache_enabled", allocCache != nil,
		"rate_limit_enabled", limiter != nil,
		"auth_enabled", authenticator != nil,
	)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server failed", "error", err)
	}
}

func cacheStats(c cache.Cache) metrics.CacheStatsFunc {
	return func(ctx context.Context) (metrics.CacheSnapshot, error) {
		st, err := c.Stats(ctx)
		if err != nil {
			return metrics.CacheSnapshot{}, err
		}
		return metrics.CacheSnapshot{
			Keys:      st.TotalKeys,
			Hits:      st.Hits,
			Misses:    st.Misses,
			Evictions: st.Evictions,
			Backend:   st.Backend,
		}, nil
	}
}
