// Package algorithms implements the max-flow computation used by the
// scheduler: Edmonds-Karp (shortest augmenting paths found by BFS) over a
// graph.FlowGraph, exposed both as a one-shot function and as a stepping
// MaxFlowSolver with an explicit state machine.
//
// # Determinism
//
// Augmenting paths are found by graph.PathFinder, which scans outgoing edges
// in insertion order. Given the same graph built in the same order, the
// solver pushes flow along the same paths and leaves the same residual
// capacities behind.
//
// # Context Support
//
// The solver checks its context between augmentations (every CheckInterval
// iterations). A canceled run returns ErrContextCanceled together with the
// partial result.
package algorithms

import (
	"errors"
	"fmt"
	"time"

	"rostering/services/scheduler-svc/internal/graph"
)

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrNilGraph indicates that a nil graph was passed to the solver.
	ErrNilGraph = errors.New("graph is nil")

	// ErrSourceNotFound indicates that the source node is out of range.
	ErrSourceNotFound = errors.New("source node not in graph")

	// ErrSinkNotFound indicates that the sink node is out of range.
	ErrSinkNotFound = errors.New("sink node not in graph")

	// ErrSourceEqualSink indicates that source and sink are the same node.
	ErrSourceEqualSink = errors.New("source equals sink")

	// ErrContextCanceled indicates that the run was stopped via its context.
	ErrContextCanceled = errors.New("context canceled")

	// ErrIterationLimit indicates that MaxIterations augmentations were
	// performed without converging.
	ErrIterationLimit = errors.New("iteration limit reached")
)

// =============================================================================
// Solver Options
// =============================================================================

// SolverOptions configures a MaxFlowSolver. A nil *SolverOptions means
// DefaultSolverOptions().
//
//	opts := DefaultSolverOptions().
//	    WithMaxIterations(10_000).
//	    WithReturnPaths(true)
type SolverOptions struct {
	// MaxIterations limits the number of augmentations. Zero means unlimited.
	MaxIterations int

	// CheckInterval is how many augmentations run between context checks.
	// Values below 1 are treated as 1.
	CheckInterval int

	// ReturnPaths records every augmenting path with its bottleneck.
	ReturnPaths bool

	// Pool supplies PathFinder buffers. Nil uses graph.GetPool().
	Pool *graph.GraphPool
}

// DefaultSolverOptions returns unlimited iterations, a context check before
// every augmentation and no path recording.
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{
		MaxIterations: 0,
		CheckInterval: 1,
		ReturnPaths:   false,
		Pool:          graph.GetPool(),
	}
}

// WithMaxIterations sets the iteration limit.
func (o *SolverOptions) WithMaxIterations(max int) *SolverOptions {
	o.MaxIterations = max
	return o
}

// WithCheckInterval sets how often the context is checked.
func (o *SolverOptions) WithCheckInterval(every int) *SolverOptions {
	o.CheckInterval = every
	return o
}

// WithReturnPaths enables path collection.
func (o *SolverOptions) WithReturnPaths(returnPaths bool) *SolverOptions {
	o.ReturnPaths = returnPaths
	return o
}

// WithPool sets the buffer pool.
func (o *SolverOptions) WithPool(pool *graph.GraphPool) *SolverOptions {
	o.Pool = pool
	return o
}

func (o *SolverOptions) normalized() SolverOptions {
	out := *DefaultSolverOptions()
	if o != nil {
		out = *o
	}
	if out.CheckInterval < 1 {
		out.CheckInterval = 1
	}
	if out.Pool == nil {
		out.Pool = graph.GetPool()
	}
	return out
}

// =============================================================================
// State
// =============================================================================

// State is the phase of a MaxFlowSolver.
//
//	SEARCHING --path found--> AUGMENTING --capacities updated--> SEARCHING
//	SEARCHING --no path-----> CONVERGED (terminal)
type State int

const (
	StateSearching State = iota
	StateAugmenting
	StateConverged
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateAugmenting:
		return "AUGMENTING"
	case StateConverged:
		return "CONVERGED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// Result
// =============================================================================

// AugmentingPath is one recorded augmentation.
type AugmentingPath struct {
	// Nodes lists the path from source to sink.
	Nodes []int
	// Flow is the bottleneck pushed along the path.
	Flow int64
}

// Result is the outcome of a max-flow run.
type Result struct {
	// MaxFlow is the total flow pushed from source to sink.
	MaxFlow int64

	// Iterations is the number of augmenting paths applied.
	Iterations int

	// Paths holds the augmenting paths when ReturnPaths is enabled.
	Paths []AugmentingPath

	// Converged is true when no augmenting path remains, i.e. MaxFlow is maximal.
	Converged bool

	// Duration is the wall-clock time spent in Run.
	Duration time.Duration
}

// =============================================================================
// Validation
// =============================================================================

func validateGraph(g *graph.FlowGraph, source, sink int) error {
	if g == nil {
		return ErrNilGraph
	}
	if !g.HasNode(source) {
		return fmt.Errorf("%w: %d", ErrSourceNotFound, source)
	}
	if !g.HasNode(sink) {
		return fmt.Errorf("%w: %d", ErrSinkNotFound, sink)
	}
	if source == sink {
		return ErrSourceEqualSink
	}
	return nil
}
