package roster

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rostering/pkg/apperror"
	"rostering/pkg/logger"
	"rostering/pkg/telemetry"
	"rostering/services/scheduler-svc/internal/algorithms"
	"rostering/services/scheduler-svc/internal/graph"
)

const tracerName = "rostering/roster"

// Options configures an Allocator.
type Options struct {
	// Horizon, when positive, is the exact number of periods a request must
	// have. Zero accepts any number of rows.
	Horizon int

	// Solver tunes the max-flow run. Nil means algorithms.DefaultSolverOptions().
	Solver *algorithms.SolverOptions

	// Pool recycles graphs between calls. Nil allocates per call.
	Pool *graph.GraphPool

	// Verify re-checks every feasible roster before returning it.
	Verify bool
}

// DefaultOptions returns options for library use: any horizon, verification
// on, graphs from the global pool.
func DefaultOptions() Options {
	return Options{
		Verify: true,
		Pool:   graph.GetPool(),
	}
}

// Allocator solves staffing requests. It holds no per-call state and is safe
// for concurrent use; every call builds its own network.
type Allocator struct {
	opts    Options
	builder *Builder
	tracer  trace.Tracer
}

// NewAllocator returns an allocator with the given options.
func NewAllocator(opts Options) *Allocator {
	return &Allocator{
		opts:    opts,
		builder: NewBuilder(opts.Pool),
		tracer:  otel.Tracer(tracerName),
	}
}

// Horizon returns the configured period count (0 for any).
func (a *Allocator) Horizon() int {
	return a.opts.Horizon
}

// Allocate computes a roster for req.
//
// An infeasible request is not an error: the returned Allocation carries
// StatusInfeasibleInput or StatusInfeasibleFlow and a nil Assignment.
// Errors are returned for malformed requests (validation codes), a done
// context (CodeCanceled or CodeTimeout), an exhausted iteration budget
// (CodeIterationLimit) and a roster failing verification (CodeFlowViolation).
func (a *Allocator) Allocate(ctx context.Context, req Request) (*Allocation, error) {
	ctx, span := a.tracer.Start(ctx, "roster.Allocate", trace.WithAttributes(
		telemetry.ProblemAttributes(req.Periods(), req.Agents(),
			req.SysadminsPerNight, req.MaxUnwantedShifts, req.MinShifts)...,
	))
	defer span.End()

	alloc, err := a.allocate(ctx, req, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(telemetry.ResultAttributes(
		alloc.Status.String(), alloc.RequiredFlow, alloc.AchievedFlow, alloc.Iterations)...)
	logger.Log.Debug("allocation finished",
		"status", alloc.Status.String(),
		"periods", req.Periods(),
		"agents", req.Agents(),
		"required_flow", alloc.RequiredFlow,
		"achieved_flow", alloc.AchievedFlow,
		"iterations", alloc.Iterations,
		"duration", alloc.Duration,
	)
	return alloc, nil
}

func (a *Allocator) allocate(ctx context.Context, req Request, span trace.Span) (*Allocation, error) {
	start := time.Now()

	if err := Validate(req, a.opts.Horizon); err != nil {
		return nil, err
	}

	alloc := &Allocation{RequiredFlow: req.RequiredFlow()}

	if reason := CheckFeasible(req); reason != nil {
		alloc.Status = StatusInfeasibleInput
		alloc.Reason = reason
		alloc.Duration = time.Since(start)
		return alloc, nil
	}

	network, err := a.builder.Build(req)
	if err != nil {
		return nil, err
	}
	defer a.builder.Release(network)

	span.AddEvent("network_built", trace.WithAttributes(
		attribute.Int("graph.nodes", network.Graph.NodeCount()),
		attribute.Int("graph.edges", network.Graph.EdgeCount()),
	))

	solverOpts := a.opts.Solver
	if solverOpts == nil {
		solverOpts = algorithms.DefaultSolverOptions()
		if a.opts.Pool != nil {
			solverOpts.WithPool(a.opts.Pool)
		}
	}

	result, err := algorithms.EdmondsKarp(ctx, network.Graph, network.Source(), network.Sink(), solverOpts)
	if err != nil {
		return nil, solverError(err, result)
	}

	alloc.AchievedFlow = result.MaxFlow
	alloc.Iterations = result.Iterations

	matrix, diag := Decode(network, result.MaxFlow)
	if matrix == nil {
		alloc.Status = StatusInfeasibleFlow
		alloc.Understaffed = diag.Understaffed
		alloc.Underloaded = diag.Underloaded
		alloc.Reason = apperror.Newf(apperror.CodeInfeasibleFlow,
			"max flow %d is below the required %d", result.MaxFlow, alloc.RequiredFlow).
			WithDetails("understaffed_periods", diag.Understaffed).
			WithDetails("underloaded_agents", diag.Underloaded)
		alloc.Duration = time.Since(start)
		return alloc, nil
	}

	if a.opts.Verify {
		if err := Verify(req, matrix); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeFlowViolation, "decoded roster failed verification").
				WithSeverity(apperror.SeverityCritical)
		}
	}

	alloc.Status = StatusFeasible
	alloc.Assignment = matrix
	alloc.Duration = time.Since(start)
	return alloc, nil
}

func solverError(err error, partial *algorithms.Result) error {
	var out *apperror.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out = apperror.Wrap(err, apperror.CodeTimeout, "allocation deadline exceeded")
	case errors.Is(err, algorithms.ErrContextCanceled):
		out = apperror.Wrap(err, apperror.CodeCanceled, "allocation canceled")
	case errors.Is(err, algorithms.ErrIterationLimit):
		out = apperror.Wrap(err, apperror.CodeIterationLimit, "iteration limit reached before convergence")
	default:
		return apperror.Wrap(err, apperror.CodeInternal, "max flow failed")
	}
	if partial != nil {
		out = out.WithDetails("partial_flow", partial.MaxFlow).
			WithDetails("iterations", partial.Iterations)
	}
	return out
}

// Allocate solves req with DefaultOptions.
func Allocate(ctx context.Context, req Request) (*Allocation, error) {
	return NewAllocator(DefaultOptions()).Allocate(ctx, req)
}
