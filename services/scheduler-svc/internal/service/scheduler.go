// Package service exposes the roster allocator as the SchedulerService gRPC API.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/apperror"
	"rostering/pkg/cache"
	"rostering/pkg/logger"
	"rostering/pkg/metrics"
	"rostering/pkg/telemetry"
	"rostering/services/scheduler-svc/internal/roster"
)

const algorithmName = "edmonds-karp"

// Options configures a SchedulerService.
type Options struct {
	Name    string
	Version string

	Allocator *roster.Allocator
	// Cache is optional; nil disables memoization.
	Cache *cache.AllocationCache
	// Metrics defaults to metrics.Get().
	Metrics *metrics.Metrics
	// Timeout bounds one allocation; zero leaves only the caller's deadline.
	Timeout time.Duration
}

type SchedulerService struct {
	schedulerv1.UnimplementedSchedulerServiceServer

	name      string
	version   string
	allocator *roster.Allocator
	cache     *cache.AllocationCache
	metrics   *metrics.Metrics
	timeout   time.Duration
}

func NewSchedulerService(opts Options) *SchedulerService {
	if opts.Allocator == nil {
		opts.Allocator = roster.NewAllocator(roster.DefaultOptions())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	return &SchedulerService{
		name:      opts.Name,
		version:   opts.Version,
		allocator: opts.Allocator,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
	}
}

func (s *SchedulerService) Allocate(ctx context.Context, req *schedulerv1.AllocateRequest) (*schedulerv1.AllocateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.ToGRPC(err)
	}

	rreq := toRosterRequest(req)
	id := uuid.NewString()
	log := logger.WithAllocation(id)

	ctx, span := telemetry.StartSpan(ctx, "SchedulerService.Allocate",
		trace.WithAttributes(telemetry.ProblemAttributes(rreq.Periods(), rreq.Agents(),
			rreq.SysadminsPerNight, rreq.MaxUnwantedShifts, rreq.MinShifts)...),
		trace.WithAttributes(attribute.String(telemetry.AttrAllocationID, id)),
	)
	defer span.End()

	problem := cache.Problem{
		Preferences:       rreq.Preferences,
		SysadminsPerNight: rreq.SysadminsPerNight,
		MaxUnwantedShifts: rreq.MaxUnwantedShifts,
		MinShifts:         rreq.MinShifts,
		Horizon:           s.allocator.Horizon(),
	}

	if s.cache != nil && !req.SkipCache {
		cached, found, err := s.cache.Get(ctx, problem)
		if err != nil {
			log.Warn("Cache lookup failed", "error", err)
		}
		s.metrics.RecordCacheLookup(found)
		if found {
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			telemetry.AddEvent(ctx, "cache_hit", attribute.String(telemetry.AttrStatus, cached.Status))
			log.Debug("Allocation served from cache", "status", cached.Status)
			return fromCached(id, rreq, cached), nil
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	layout := roster.NewLayout(rreq.Agents(), rreq.Periods())
	s.metrics.RecordGraphSize("allocate", layout.Count(), layout.Edges())

	start := time.Now()
	alloc, err := s.allocator.Allocate(ctx, rreq)
	elapsed := time.Since(start)
	if err != nil {
		telemetry.SetError(ctx, err)
		s.metrics.RecordAllocation("ERROR", elapsed, rreq.RequiredFlow(), 0, 0)
		log.Warn("Allocation failed", "error", err, "code", apperror.Code(err))
		return nil, apperror.ToGRPC(err)
	}

	s.metrics.RecordAllocation(alloc.Status.String(), elapsed,
		alloc.RequiredFlow, alloc.AchievedFlow, alloc.Iterations)
	span.SetAttributes(telemetry.ResultAttributes(alloc.Status.String(),
		alloc.RequiredFlow, alloc.AchievedFlow, alloc.Iterations)...)

	if s.cache != nil {
		if err := s.cache.Set(ctx, problem, toCached(alloc, elapsed), 0); err != nil {
			log.Warn("Failed to cache allocation", "error", err)
		}
	}

	log.Info("Allocation computed",
		"status", alloc.Status.String(),
		"periods", rreq.Periods(),
		"agents", rreq.Agents(),
		"iterations", alloc.Iterations,
		"duration_ms", elapsed.Milliseconds(),
	)

	resp := toResponse(id, rreq, alloc)
	resp.ComputationTimeMs = float64(elapsed.Microseconds()) / 1000
	return resp, nil
}

func (s *SchedulerService) GetInfo(context.Context, *schedulerv1.InfoRequest) (*schedulerv1.InfoResponse, error) {
	return &schedulerv1.InfoResponse{
		Name:      s.name,
		Version:   s.version,
		Horizon:   int32(s.allocator.Horizon()),
		Algorithm: algorithmName,
	}, nil
}
