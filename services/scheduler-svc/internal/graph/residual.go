// Package graph provides the residual flow network used by the scheduler:
// a FlowGraph with paired forward/reverse edges, a deterministic BFS path
// finder and path utilities, plus a pool for recycling graph buffers.
package graph

import (
	"math"

	"rostering/pkg/apperror"
)

// =============================================================================
// Edge
// =============================================================================

// Edge is one arc of the residual network.
//
// Every call to AddEdge creates two edges: the forward edge with the given
// capacity and its partner, a reverse edge with capacity 0. Edge IDs are
// allocated in pairs, so the partner of edge id is always id^1. Pushing f
// units along an edge lowers its Capacity by f and raises the partner's by f;
// the sum of the two capacities never changes.
type Edge struct {
	// ID is the edge handle returned by AddEdge (forward) or id^1 (reverse).
	ID int

	From int
	To   int

	// Capacity is the current residual capacity.
	Capacity int64

	// Original is the capacity the edge was created with (0 for reverse edges).
	Original int64

	// Reverse marks the automatically created partner edge.
	Reverse bool
}

// Flow returns the flow currently carried by a forward edge.
func (e *Edge) Flow() int64 {
	if e.Reverse {
		return 0
	}
	return e.Original - e.Capacity
}

// Saturated reports whether a forward edge with positive original capacity
// has no residual capacity left.
func (e *Edge) Saturated() bool {
	return !e.Reverse && e.Original > 0 && e.Capacity == 0
}

// =============================================================================
// FlowGraph
// =============================================================================

// FlowGraph is a directed graph over nodes 0..n-1 with mutable integer
// capacities.
//
// Edges live in a flat slice of pointers, so the *Edge returned by Edge or
// Find stays valid for the lifetime of the graph and mutations are seen by
// every holder. The adjacency list of each node keeps edge IDs in insertion
// order; BFS iterates it in that order, which makes path selection
// reproducible.
//
// FlowGraph is not safe for concurrent use.
type FlowGraph struct {
	adj   [][]int
	edges []*Edge
}

// NewFlowGraph creates an empty graph with the given number of nodes.
func NewFlowGraph(nodes int) *FlowGraph {
	if nodes < 0 {
		nodes = 0
	}
	return &FlowGraph{
		adj:   make([][]int, nodes),
		edges: make([]*Edge, 0, nodes*4),
	}
}

// NodeCount returns the number of nodes.
func (g *FlowGraph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of forward edges (reverse partners are not counted).
func (g *FlowGraph) EdgeCount() int {
	return len(g.edges) / 2
}

// HasNode reports whether id is a valid node index.
func (g *FlowGraph) HasNode(id int) bool {
	return id >= 0 && id < len(g.adj)
}

// AddEdge appends a forward edge from -> to with the given capacity and its
// reverse partner, returning the forward edge's ID.
//
// Negative capacities are rejected (CodeNegativeCapacity) rather than clamped,
// as are out-of-range endpoints (CodeInvalidNode).
func (g *FlowGraph) AddEdge(from, to int, capacity int64) (int, error) {
	if !g.HasNode(from) {
		return -1, apperror.Newf(apperror.CodeInvalidNode, "edge tail %d out of range [0,%d)", from, len(g.adj))
	}
	if !g.HasNode(to) {
		return -1, apperror.Newf(apperror.CodeInvalidNode, "edge head %d out of range [0,%d)", to, len(g.adj))
	}
	if capacity < 0 {
		return -1, apperror.Newf(apperror.CodeNegativeCapacity, "edge %d->%d has negative capacity %d", from, to, capacity).
			WithDetails("from", from).
			WithDetails("to", to)
	}

	id := len(g.edges)
	forward := &Edge{ID: id, From: from, To: to, Capacity: capacity, Original: capacity}
	reverse := &Edge{ID: id + 1, From: to, To: from, Reverse: true}

	g.edges = append(g.edges, forward, reverse)
	g.adj[from] = append(g.adj[from], id)
	g.adj[to] = append(g.adj[to], id+1)

	return id, nil
}

// MustAddEdge is AddEdge for construction code whose inputs are already
// validated. It panics on error.
func (g *FlowGraph) MustAddEdge(from, to int, capacity int64) int {
	id, err := g.AddEdge(from, to, capacity)
	if err != nil {
		panic(err)
	}
	return id
}

// Edge returns the edge with the given ID, or nil.
func (g *FlowGraph) Edge(id int) *Edge {
	if id < 0 || id >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

// Partner returns the paired edge of id.
func (g *FlowGraph) Partner(id int) *Edge {
	return g.Edge(id ^ 1)
}

// Outgoing returns the IDs of the edges leaving node, in insertion order.
// The slice is owned by the graph and must not be modified.
func (g *FlowGraph) Outgoing(node int) []int {
	if !g.HasNode(node) {
		return nil
	}
	return g.adj[node]
}

// Find returns the first forward edge from -> to, scanning the adjacency of
// from in O(degree). Returns nil if there is none.
func (g *FlowGraph) Find(from, to int) *Edge {
	for _, id := range g.Outgoing(from) {
		e := g.edges[id]
		if e.To == to && !e.Reverse {
			return e
		}
	}
	return nil
}

// Push sends amount units of flow along edge id: the edge loses amount of
// residual capacity and its partner gains it.
func (g *FlowGraph) Push(id int, amount int64) error {
	e := g.Edge(id)
	if e == nil {
		return apperror.Newf(apperror.CodeInvalidEdge, "edge %d does not exist", id)
	}
	if amount < 0 || amount > e.Capacity {
		return apperror.Newf(apperror.CodeFlowViolation, "cannot push %d along edge %d->%d with residual %d", amount, e.From, e.To, e.Capacity)
	}
	e.Capacity -= amount
	g.edges[id^1].Capacity += amount
	return nil
}

// Adjust changes the capacity of forward edge id by delta (which may be
// negative). The original capacity moves with it, so the flow already on the
// edge is preserved; the result may not go below that flow.
func (g *FlowGraph) Adjust(id int, delta int64) error {
	e := g.Edge(id)
	if e == nil {
		return apperror.Newf(apperror.CodeInvalidEdge, "edge %d does not exist", id)
	}
	if e.Reverse {
		return apperror.Newf(apperror.CodeInvalidEdge, "edge %d is a reverse edge", id)
	}
	if delta > 0 && e.Capacity > math.MaxInt64-delta {
		return apperror.Newf(apperror.CodeCapacityOverflow, "capacity of edge %d->%d overflows", e.From, e.To)
	}
	if e.Capacity+delta < 0 {
		return apperror.Newf(apperror.CodeNegativeCapacity, "adjusting edge %d->%d by %d leaves negative residual capacity", e.From, e.To, delta)
	}
	e.Capacity += delta
	e.Original += delta
	return nil
}

// Flow returns the flow on forward edge id.
func (g *FlowGraph) Flow(id int) int64 {
	e := g.Edge(id)
	if e == nil {
		return 0
	}
	return e.Flow()
}

// OutFlow sums the flow on forward edges leaving node.
func (g *FlowGraph) OutFlow(node int) int64 {
	var total int64
	for _, id := range g.Outgoing(node) {
		total += g.edges[id].Flow()
	}
	return total
}

// Reset restores every edge to its original capacity, discarding all flow.
func (g *FlowGraph) Reset() {
	for _, e := range g.edges {
		e.Capacity = e.Original
	}
}

// Clear removes every edge while keeping the node count and allocated buffers.
func (g *FlowGraph) Clear() {
	for i := range g.adj {
		g.adj[i] = g.adj[i][:0]
	}
	clear(g.edges)
	g.edges = g.edges[:0]
}

// Resize clears the graph and sets the node count.
func (g *FlowGraph) Resize(nodes int) {
	g.Clear()
	if nodes <= cap(g.adj) {
		old := len(g.adj)
		g.adj = g.adj[:nodes]
		for i := old; i < nodes; i++ {
			g.adj[i] = g.adj[i][:0]
		}
		return
	}
	grown := make([][]int, nodes)
	copy(grown, g.adj)
	g.adj = grown
}

// Clone returns a deep copy with the same edge IDs and insertion order.
func (g *FlowGraph) Clone() *FlowGraph {
	c := &FlowGraph{
		adj:   make([][]int, len(g.adj)),
		edges: make([]*Edge, len(g.edges)),
	}
	for i, ids := range g.adj {
		c.adj[i] = append([]int(nil), ids...)
	}
	for i, e := range g.edges {
		copied := *e
		c.edges[i] = &copied
	}
	return c
}
