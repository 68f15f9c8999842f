package algorithms

import (
	"context"
	"fmt"
	"time"

	"rostering/services/scheduler-svc/internal/graph"
)

// =============================================================================
// Edmonds-Karp Algorithm
// =============================================================================
//
// Ford-Fulkerson with BFS path selection: every augmentation uses a shortest
// (fewest edges) residual path, which bounds the number of augmentations by
// O(V·E) independently of capacities.
//
// Time Complexity: O(V × E²)
// Space Complexity: O(V + E)
//
// References:
//   - Edmonds, J. & Karp, R.M. (1972). "Theoretical improvements in
//     algorithmic efficiency for network flow problems"
// =============================================================================

// MaxFlowSolver runs Edmonds-Karp over a FlowGraph one step at a time.
// The graph is mutated in place; its residual capacities are the solver's
// output as much as the returned flow value.
//
// Once CONVERGED the solver never resumes: Step returns false and Run
// returns the stored result.
type MaxFlowSolver struct {
	g      *graph.FlowGraph
	source int
	sink   int
	opts   SolverOptions

	state  State
	finder *graph.PathFinder
	path   []int

	result Result

	// onTransition is invoked on every state change (tests, tracing).
	onTransition func(from, to State)
}

// NewMaxFlowSolver validates the endpoints and returns a solver in SEARCHING.
func NewMaxFlowSolver(g *graph.FlowGraph, source, sink int, options *SolverOptions) (*MaxFlowSolver, error) {
	if err := validateGraph(g, source, sink); err != nil {
		return nil, err
	}
	return &MaxFlowSolver{
		g:      g,
		source: source,
		sink:   sink,
		opts:   options.normalized(),
		state:  StateSearching,
	}, nil
}

// OnTransition registers a callback for state changes.
func (s *MaxFlowSolver) OnTransition(fn func(from, to State)) {
	s.onTransition = fn
}

// State returns the current state.
func (s *MaxFlowSolver) State() State {
	return s.state
}

// Flow returns the flow pushed so far.
func (s *MaxFlowSolver) Flow() int64 {
	return s.result.MaxFlow
}

// Iterations returns the number of augmentations applied so far.
func (s *MaxFlowSolver) Iterations() int {
	return s.result.Iterations
}

func (s *MaxFlowSolver) transition(to State) {
	from := s.state
	s.state = to
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}

// Step advances the state machine by one transition and reports whether
// further steps are possible.
//
// In SEARCHING it runs one BFS: a found path moves the solver to AUGMENTING,
// no path moves it to CONVERGED. In AUGMENTING it pushes the bottleneck along
// the stored path and returns to SEARCHING.
func (s *MaxFlowSolver) Step() (bool, error) {
	switch s.state {
	case StateConverged:
		return false, nil

	case StateSearching:
		if s.finder == nil {
			s.finder = s.opts.Pool.AcquireFinder()
		}
		r := s.finder.Find(s.g, s.source, s.sink)
		if !r.Found {
			s.converge()
			return false, nil
		}
		s.path = graph.AppendPath(s.path, r, s.source, s.sink)
		s.transition(StateAugmenting)
		return true, nil

	case StateAugmenting:
		bottleneck := graph.Bottleneck(s.g, s.path)
		if bottleneck <= 0 {
			return false, fmt.Errorf("augmenting path with bottleneck %d", bottleneck)
		}
		if err := graph.Augment(s.g, s.path, bottleneck); err != nil {
			return false, err
		}

		s.result.MaxFlow += bottleneck
		s.result.Iterations++
		if s.opts.ReturnPaths {
			s.result.Paths = append(s.result.Paths, AugmentingPath{
				Nodes: graph.PathNodes(s.g, s.path),
				Flow:  bottleneck,
			})
		}

		s.transition(StateSearching)
		return true, nil

	default:
		return false, fmt.Errorf("unknown solver state %v", s.state)
	}
}

func (s *MaxFlowSolver) converge() {
	s.result.Converged = true
	s.Release()
	s.path = nil
	s.transition(StateConverged)
}

// Release возвращает PathFinder в пул. A released solver that has not
// converged acquires a new finder on its next Step.
func (s *MaxFlowSolver) Release() {
	if s.finder == nil {
		return
	}
	s.opts.Pool.ReleaseFinder(s.finder)
	s.finder = nil
}

// Run steps the solver until it converges, the context is done or the
// iteration limit is hit. In the last two cases the partial result is
// returned together with ErrContextCanceled or ErrIterationLimit, and Run
// may be called again to continue.
func (s *MaxFlowSolver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer func() { s.result.Duration += time.Since(start) }()

	lastChecked := -1
	for s.state != StateConverged {
		if s.state == StateSearching {
			if s.opts.MaxIterations > 0 && s.result.Iterations >= s.opts.MaxIterations {
				return s.snapshot(start), ErrIterationLimit
			}
			if s.result.Iterations%s.opts.CheckInterval == 0 && s.result.Iterations != lastChecked {
				lastChecked = s.result.Iterations
				select {
				case <-ctx.Done():
					return s.snapshot(start), fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
				default:
				}
			}
		}

		if _, err := s.Step(); err != nil {
			return s.snapshot(start), err
		}
	}

	return s.snapshot(start), nil
}

func (s *MaxFlowSolver) snapshot(start time.Time) *Result {
	out := s.result
	out.Duration += time.Since(start)
	out.Paths = append([]AugmentingPath(nil), s.result.Paths...)
	return &out
}

// EdmondsKarp computes the maximum flow from source to sink, mutating g.
func EdmondsKarp(ctx context.Context, g *graph.FlowGraph, source, sink int, options *SolverOptions) (*Result, error) {
	solver, err := NewMaxFlowSolver(g, source, sink, options)
	if err != nil {
		return nil, err
	}
	// solver не переживает вызов, поэтому finder возвращается и при ошибке
	defer solver.Release()
	return solver.Run(ctx)
}
