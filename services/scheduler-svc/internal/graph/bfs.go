package graph

// =============================================================================
// Queue
// =============================================================================

// Queue is a FIFO of node IDs backed by a slice with a head index, so a BFS
// run does not reallocate after warm-up.
type Queue struct {
	data []int
	head int
}

// NewQueue creates a queue with the given initial capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{data: make([]int, 0, capacity)}
}

// Push appends v.
func (q *Queue) Push(v int) {
	q.data = append(q.data, v)
}

// Pop removes and returns the front element. Panics if the queue is empty.
func (q *Queue) Pop() int {
	v := q.data[q.head]
	q.head++
	return v
}

// Empty reports whether the queue has no elements.
func (q *Queue) Empty() bool {
	return q.head >= len(q.data)
}

// Len returns the number of queued elements.
func (q *Queue) Len() int {
	return len(q.data) - q.head
}

// Reset empties the queue, keeping its storage.
func (q *Queue) Reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Augmenting path search
// =============================================================================

// NoParent marks nodes without a discoverer (the source and unvisited nodes).
const NoParent = -1

// PathResult is the outcome of one BFS from source towards sink.
type PathResult struct {
	// Found is true if the sink was reached.
	Found bool

	// Parent[v] is the node that first discovered v, NoParent otherwise.
	Parent []int

	// ParentEdge[v] is the ID of the edge used to reach v, NoParent otherwise.
	ParentEdge []int

	// Visited[v] is true for every node dequeued or enqueued before the search stopped.
	Visited []bool
}

// PathFinder runs breadth-first searches over a FlowGraph's residual edges.
// Its buffers are reused across calls, which matters because the max-flow
// loop runs one search per augmentation.
//
// A PathFinder must not be shared between goroutines.
type PathFinder struct {
	queue  *Queue
	result PathResult
}

// NewPathFinder creates a finder sized for graphs of n nodes; it grows as needed.
func NewPathFinder(n int) *PathFinder {
	return &PathFinder{
		queue: NewQueue(n),
		result: PathResult{
			Parent:     make([]int, n),
			ParentEdge: make([]int, n),
			Visited:    make([]bool, n),
		},
	}
}

func (f *PathFinder) reset(n int) {
	r := &f.result
	if cap(r.Parent) < n {
		r.Parent = make([]int, n)
		r.ParentEdge = make([]int, n)
		r.Visited = make([]bool, n)
	}
	r.Parent = r.Parent[:n]
	r.ParentEdge = r.ParentEdge[:n]
	r.Visited = r.Visited[:n]
	for i := 0; i < n; i++ {
		r.Parent[i] = NoParent
		r.ParentEdge[i] = NoParent
		r.Visited[i] = false
	}
	r.Found = false
	f.queue.Reset()
}

// Find searches for a shortest (fewest edges) source -> sink path using only
// edges with positive residual capacity. Each node is visited at most once and
// keeps its first discoverer. Outgoing edges are scanned in insertion order
// and the search stops as soon as the sink is discovered, so identical graph
// states always yield the same path.
//
// The returned result aliases the finder's buffers and is valid until the
// next call.
func (f *PathFinder) Find(g *FlowGraph, source, sink int) *PathResult {
	n := g.NodeCount()
	f.reset(n)
	r := &f.result
	if !g.HasNode(source) || !g.HasNode(sink) {
		return r
	}

	r.Visited[source] = true
	f.queue.Push(source)

	for !f.queue.Empty() {
		u := f.queue.Pop()

		for _, id := range g.adj[u] {
			e := g.edges[id]
			v := e.To
			if r.Visited[v] || e.Capacity <= 0 {
				continue
			}

			r.Visited[v] = true
			r.Parent[v] = u
			r.ParentEdge[v] = id

			if v == sink {
				r.Found = true
				return r
			}
			f.queue.Push(v)
		}
	}

	return r
}

// BFS is a convenience wrapper running a single search with a fresh finder.
func BFS(g *FlowGraph, source, sink int) *PathResult {
	return NewPathFinder(g.NodeCount()).Find(g, source, sink)
}

// Reachable returns the set of nodes reachable from source through edges
// with positive residual capacity. After max flow has converged this is the
// source side of a minimum cut.
func Reachable(g *FlowGraph, source int) []bool {
	n := g.NodeCount()
	seen := make([]bool, n)
	if !g.HasNode(source) {
		return seen
	}

	queue := NewQueue(n)
	seen[source] = true
	queue.Push(source)

	for !queue.Empty() {
		u := queue.Pop()
		for _, id := range g.adj[u] {
			e := g.edges[id]
			if !seen[e.To] && e.Capacity > 0 {
				seen[e.To] = true
				queue.Push(e.To)
			}
		}
	}
	return seen
}
