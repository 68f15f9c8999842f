package graph

import (
	"sync"
)

// GraphPool recycles FlowGraph and PathFinder buffers between scheduling
// calls. The service builds one network per request; on a busy server the
// pool keeps the adjacency and edge slices warm instead of reallocating them.
//
// The pool is safe for concurrent use. Graphs taken from it are not.
type GraphPool struct {
	graphs  sync.Pool
	finders sync.Pool
}

var globalPool = NewGraphPool()

// NewGraphPool creates an empty pool.
func NewGraphPool() *GraphPool {
	return &GraphPool{
		graphs: sync.Pool{
			New: func() any { return NewFlowGraph(0) },
		},
		finders: sync.Pool{
			New: func() any { return NewPathFinder(0) },
		},
	}
}

// GetPool returns the process-wide pool.
func GetPool() *GraphPool {
	return globalPool
}

// AcquireGraph returns an empty graph with the given node count.
func (p *GraphPool) AcquireGraph(nodes int) *FlowGraph {
	g := p.graphs.Get().(*FlowGraph)
	g.Resize(nodes)
	return g
}

// ReleaseGraph clears g and returns it to the pool. g must not be used
// afterwards. Passing nil is a no-op.
func (p *GraphPool) ReleaseGraph(g *FlowGraph) {
	if g == nil {
		return
	}
	g.Clear()
	p.graphs.Put(g)
}

// AcquireFinder returns a path finder; its buffers are resized on first Find.
func (p *GraphPool) AcquireFinder() *PathFinder {
	return p.finders.Get().(*PathFinder)
}

// ReleaseFinder returns f to the pool. Passing nil is a no-op.
func (p *GraphPool) ReleaseFinder(f *PathFinder) {
	if f == nil {
		return
	}
	p.finders.Put(f)
}
