package algorithms

import (
	"context"
	"errors"
	"testing"

	"rostering/services/scheduler-svc/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond() *graph.FlowGraph {
	// 0 -> 1 -> 3
	// 0 -> 2 -> 3
	g := graph.NewFlowGraph(4)
	g.MustAddEdge(0, 1, 10)
	g.MustAddEdge(0, 2, 10)
	g.MustAddEdge(1, 3, 10)
	g.MustAddEdge(2, 3, 10)
	return g
}

func TestEdmondsKarp(t *testing.T) {
	tests := []struct {
		name         string
		setupGraph   func() *graph.FlowGraph
		source       int
		sink         int
		expectedFlow int64
	}{
		{
			name: "simple_two_node",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(2)
				g.MustAddEdge(0, 1, 10)
				return g
			},
			source:       0,
			sink:         1,
			expectedFlow: 10,
		},
		{
			name: "linear_graph",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(3)
				g.MustAddEdge(0, 1, 10)
				g.MustAddEdge(1, 2, 5)
				return g
			},
			source:       0,
			sink:         2,
			expectedFlow: 5,
		},
		{
			name:         "parallel_paths",
			setupGraph:   diamond,
			source:       0,
			sink:         3,
			expectedFlow: 20,
		},
		{
			name: "bottleneck_in_middle",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(4)
				g.MustAddEdge(0, 1, 100)
				g.MustAddEdge(1, 2, 1) // узкое место
				g.MustAddEdge(2, 3, 100)
				return g
			},
			source:       0,
			sink:         3,
			expectedFlow: 1,
		},
		{
			name: "diamond_with_cross_edge",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(4)
				g.MustAddEdge(0, 1, 10)
				g.MustAddEdge(0, 2, 10)
				g.MustAddEdge(1, 2, 5)
				g.MustAddEdge(1, 3, 10)
				g.MustAddEdge(2, 3, 15)
				return g
			},
			source:       0,
			sink:         3,
			expectedFlow: 20,
		},
		{
			name: "parallel_edges",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(2)
				g.MustAddEdge(0, 1, 3)
				g.MustAddEdge(0, 1, 4)
				return g
			},
			source:       0,
			sink:         1,
			expectedFlow: 7,
		},
		{
			name: "no_path",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(4)
				g.MustAddEdge(0, 1, 10)
				g.MustAddEdge(2, 3, 10)
				return g
			},
			source:       0,
			sink:         3,
			expectedFlow: 0,
		},
		{
			name: "complex_network",
			setupGraph: func() *graph.FlowGraph {
				// Классический пример из CLRS
				g := graph.NewFlowGraph(6)
				g.MustAddEdge(0, 1, 16)
				g.MustAddEdge(0, 2, 13)
				g.MustAddEdge(1, 2, 10)
				g.MustAddEdge(1, 3, 12)
				g.MustAddEdge(2, 1, 4)
				g.MustAddEdge(2, 4, 14)
				g.MustAddEdge(3, 2, 9)
				g.MustAddEdge(3, 5, 20)
				g.MustAddEdge(4, 3, 7)
				g.MustAddEdge(4, 5, 4)
				return g
			},
			source:       0,
			sink:         5,
			expectedFlow: 23,
		},
		{
			name: "self_loop_ignored",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(2)
				g.MustAddEdge(0, 0, 10)
				g.MustAddEdge(0, 1, 10)
				return g
			},
			source:       0,
			sink:         1,
			expectedFlow: 10,
		},
		{
			name: "zero_capacity_edge",
			setupGraph: func() *graph.FlowGraph {
				g := graph.NewFlowGraph(3)
				g.MustAddEdge(0, 1, 0)
				g.MustAddEdge(1, 2, 10)
				return g
			},
			source:       0,
			sink:         2,
			expectedFlow: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.setupGraph()

			result, err := EdmondsKarp(context.Background(), g, tt.source, tt.sink, DefaultSolverOptions())
			require.NoError(t, err)

			assert.Equal(t, tt.expectedFlow, result.MaxFlow, "max flow mismatch")
			assert.True(t, result.Converged)
			assert.Equal(t, tt.expectedFlow, g.OutFlow(tt.source)-inFlow(g, tt.source))
			assert.False(t, graph.BFS(g, tt.source, tt.sink).Found, "no augmenting path may remain")
		})
	}
}

func inFlow(g *graph.FlowGraph, node int) int64 {
	var total int64
	for id := 0; id < 2*g.EdgeCount(); id += 2 {
		if e := g.Edge(id); e.To == node {
			total += e.Flow()
		}
	}
	return total
}

func TestEdmondsKarp_InvalidInput(t *testing.T) {
	ctx := context.Background()
	g := graph.NewFlowGraph(2)
	g.MustAddEdge(0, 1, 1)

	_, err := EdmondsKarp(ctx, nil, 0, 1, nil)
	assert.ErrorIs(t, err, ErrNilGraph)

	_, err = EdmondsKarp(ctx, g, 5, 1, nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = EdmondsKarp(ctx, g, 0, -1, nil)
	assert.ErrorIs(t, err, ErrSinkNotFound)

	_, err = EdmondsKarp(ctx, g, 1, 1, nil)
	assert.ErrorIs(t, err, ErrSourceEqualSink)
}

func TestEdmondsKarp_FlowConservation(t *testing.T) {
	g := graph.NewFlowGraph(6)
	g.MustAddEdge(0, 1, 16)
	g.MustAddEdge(0, 2, 13)
	g.MustAddEdge(1, 2, 10)
	g.MustAddEdge(1, 3, 12)
	g.MustAddEdge(2, 1, 4)
	g.MustAddEdge(2, 4, 14)
	g.MustAddEdge(3, 2, 9)
	g.MustAddEdge(3, 5, 20)
	g.MustAddEdge(4, 3, 7)
	g.MustAddEdge(4, 5, 4)

	_, err := EdmondsKarp(context.Background(), g, 0, 5, nil)
	require.NoError(t, err)

	// Проверяем сохранение потока для промежуточных узлов
	for node := 1; node <= 4; node++ {
		assert.Equal(t, inFlow(g, node), g.OutFlow(node), "flow conservation violated at node %d", node)
	}

	// поток не превышает пропускную способность, пара ребер сохраняет сумму
	for id := 0; id < 2*g.EdgeCount(); id += 2 {
		e := g.Edge(id)
		assert.GreaterOrEqual(t, e.Flow(), int64(0))
		assert.LessOrEqual(t, e.Flow(), e.Original)
		assert.Equal(t, e.Original, e.Capacity+g.Partner(id).Capacity)
	}
}

func TestEdmondsKarp_BipartiteMatching(t *testing.T) {
	// source 0, left 1..3, right 4..6, sink 7
	g := graph.NewFlowGraph(8)
	g.MustAddEdge(0, 1, 1)
	g.MustAddEdge(0, 2, 1)
	g.MustAddEdge(0, 3, 1)
	g.MustAddEdge(1, 4, 1)
	g.MustAddEdge(1, 5, 1)
	g.MustAddEdge(2, 4, 1)
	g.MustAddEdge(3, 5, 1)
	g.MustAddEdge(3, 6, 1)
	g.MustAddEdge(4, 7, 1)
	g.MustAddEdge(5, 7, 1)
	g.MustAddEdge(6, 7, 1)

	result, err := EdmondsKarp(context.Background(), g, 0, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.MaxFlow)
}

func TestEdmondsKarp_ReturnPaths(t *testing.T) {
	g := graph.NewFlowGraph(3)
	g.MustAddEdge(0, 1, 10)
	g.MustAddEdge(1, 2, 10)

	result, err := EdmondsKarp(context.Background(), g, 0, 2, DefaultSolverOptions().WithReturnPaths(true))
	require.NoError(t, err)

	require.Len(t, result.Paths, 1)
	assert.Equal(t, []int{0, 1, 2}, result.Paths[0].Nodes)
	assert.Equal(t, int64(10), result.Paths[0].Flow)

	result, err = EdmondsKarp(context.Background(), diamond(), 0, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Paths)
}

func TestEdmondsKarp_Deterministic(t *testing.T) {
	opts := DefaultSolverOptions().WithReturnPaths(true)

	g1 := diamond()
	g1.MustAddEdge(1, 2, 5)
	g2 := g1.Clone()

	r1, err := EdmondsKarp(context.Background(), g1, 0, 3, opts)
	require.NoError(t, err)
	r2, err := EdmondsKarp(context.Background(), g2, 0, 3, opts)
	require.NoError(t, err)

	assert.Equal(t, r1.Paths, r2.Paths)
	for id := 0; id < 2*g1.EdgeCount(); id++ {
		assert.Equal(t, g1.Edge(id).Capacity, g2.Edge(id).Capacity, "edge %d", id)
	}
}

func TestMaxFlowSolver_StateMachine(t *testing.T) {
	g := graph.NewFlowGraph(2)
	g.MustAddEdge(0, 1, 3)

	s, err := NewMaxFlowSolver(g, 0, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, StateSearching, s.State())

	var transitions []string
	s.OnTransition(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	more, err := s.Step()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, StateAugmenting, s.State())
	assert.Equal(t, int64(0), s.Flow())

	more, err = s.Step()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, StateSearching, s.State())
	assert.Equal(t, int64(3), s.Flow())
	assert.Equal(t, 1, s.Iterations())

	more, err = s.Step()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, StateConverged, s.State())

	assert.Equal(t, []string{
		"SEARCHING->AUGMENTING",
		"AUGMENTING->SEARCHING",
		"SEARCHING->CONVERGED",
	}, transitions)

	// CONVERGED терминально
	more, err = s.Step()
	require.NoError(t, err)
	assert.False(t, more)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.MaxFlow)
	assert.True(t, result.Converged)
	assert.Len(t, transitions, 3)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "SEARCHING", StateSearching.String())
	assert.Equal(t, "AUGMENTING", StateAugmenting.String())
	assert.Equal(t, "CONVERGED", StateConverged.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestMaxFlowSolver_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewMaxFlowSolver(diamond(), 0, 3, nil)
	require.NoError(t, err)

	result, err := s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContextCanceled)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, int64(0), result.MaxFlow)
	assert.False(t, result.Converged)

	// прерванный запуск можно продолжить
	result, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.MaxFlow)
	assert.True(t, result.Converged)
}

func TestMaxFlowSolver_CheckInterval(t *testing.T) {
	tests := []struct {
		name           string
		interval       int
		wantIterations int
	}{
		{"every_iteration", 1, 1},
		{"every_second_iteration", 2, 2},
		{"interval_below_one_normalized", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, err := NewMaxFlowSolver(diamond(), 0, 3, DefaultSolverOptions().WithCheckInterval(tt.interval))
			require.NoError(t, err)
			s.OnTransition(func(from, to State) {
				if from == StateAugmenting {
					cancel()
				}
			})

			result, err := s.Run(ctx)
			assert.ErrorIs(t, err, ErrContextCanceled)
			assert.Equal(t, tt.wantIterations, result.Iterations)
			assert.Equal(t, int64(10*tt.wantIterations), result.MaxFlow)
		})
	}
}

func TestMaxFlowSolver_IterationLimit(t *testing.T) {
	s, err := NewMaxFlowSolver(diamond(), 0, 3, DefaultSolverOptions().WithMaxIterations(1))
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrIterationLimit)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, int64(10), result.MaxFlow)
	assert.False(t, result.Converged)
	assert.Equal(t, StateSearching, s.State())
}

func TestMaxFlowSolver_ReleaseAfterPartialRun(t *testing.T) {
	s, err := NewMaxFlowSolver(diamond(), 0, 3, DefaultSolverOptions().WithMaxIterations(1))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, ErrIterationLimit)
	require.NotNil(t, s.finder, "finder is held while the run can resume")

	s.Release()
	assert.Nil(t, s.finder)
	s.Release()

	s.opts.MaxIterations = 0
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, int64(20), result.MaxFlow)
	assert.Nil(t, s.finder)
}

func TestEdmondsKarp_CustomPool(t *testing.T) {
	pool := graph.NewGraphPool()
	g := pool.AcquireGraph(4)
	defer pool.ReleaseGraph(g)

	g.MustAddEdge(0, 1, 2)
	g.MustAddEdge(1, 3, 2)

	result, err := EdmondsKarp(context.Background(), g, 0, 3, DefaultSolverOptions().WithPool(pool))
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.MaxFlow)
}
