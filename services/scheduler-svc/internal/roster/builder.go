package roster

import (
	"rostering/pkg/apperror"
	"rostering/services/scheduler-svc/internal/graph"
)

// Arc records one agent → period assignment edge.
type Arc struct {
	// EdgeID is the forward edge whose saturation means "assigned".
	EdgeID int
	Agent  int
	Period int
	// Preferred is false for arcs that leave the agent's unwanted tier.
	Preferred bool
}

// Network is a built staffing network ready for the solver.
type Network struct {
	Graph  *graph.FlowGraph
	Layout Layout

	// Required is P·R, the flow of a feasible roster.
	Required int64

	// Arcs lists assignment edges in insertion order (period-major).
	Arcs []Arc

	// agentEdges[j] is the source → agent_j edge carrying the minimum.
	agentEdges []int
	// periodEdges[i] is the period_i → sink edge.
	periodEdges []int
}

// Source returns the source node.
func (n *Network) Source() int { return n.Layout.Source() }

// Sink returns the sink node.
func (n *Network) Sink() int { return n.Layout.Sink() }

// Builder turns validated requests into flow networks.
type Builder struct {
	pool *graph.GraphPool
}

// NewBuilder returns a builder drawing graphs from pool (nil: a fresh graph
// per call).
func NewBuilder(pool *graph.GraphPool) *Builder {
	return &Builder{pool: pool}
}

// Build constructs the staffing network. The request must already have
// passed Validate. A request rejected by CheckFeasible yields that
// CodeInfeasibleInput error and no graph.
//
// Edge insertion order is fixed, since it decides which of several maximum
// flows BFS finds:
//
//  1. source → excess           P·R − A·min
//  2. source → agent_j          min                 for each agent
//  3. excess → agent_j          P − min             for each agent, each
//     agent_j → unwanted_j      max unwanted        followed by its tier edge
//  4. agent_j → period_i        1 if preferred      for each period, for each
//     unwanted_j → period_i     1 otherwise         agent; then period_i → sink R
func (b *Builder) Build(req Request) (*Network, error) {
	if reason := CheckFeasible(req); reason != nil {
		return nil, reason
	}

	agents, periods := req.Agents(), req.Periods()
	layout := NewLayout(agents, periods)
	minShifts := int64(req.MinShifts)

	var g *graph.FlowGraph
	if b.pool != nil {
		g = b.pool.AcquireGraph(layout.Count())
	} else {
		g = graph.NewFlowGraph(layout.Count())
	}

	n := &Network{
		Graph:       g,
		Layout:      layout,
		Required:    req.RequiredFlow(),
		Arcs:        make([]Arc, 0, agents*periods),
		agentEdges:  make([]int, agents),
		periodEdges: make([]int, periods),
	}

	eb := edgeBuilder{g: g}

	eb.add(layout.Source(), layout.Excess(), n.Required-int64(agents)*minShifts)

	for j := 0; j < agents; j++ {
		n.agentEdges[j] = eb.add(layout.Source(), layout.Agent(j), minShifts)
	}

	for j := 0; j < agents; j++ {
		eb.add(layout.Excess(), layout.Agent(j), int64(periods)-minShifts)
		eb.add(layout.Agent(j), layout.Unwanted(j), int64(req.MaxUnwantedShifts))
	}

	for i := 0; i < periods; i++ {
		for j := 0; j < agents; j++ {
			preferred := req.Preferences[i][j] == 1
			from := layout.Unwanted(j)
			if preferred {
				from = layout.Agent(j)
			}
			id := eb.add(from, layout.Period(i), 1)
			n.Arcs = append(n.Arcs, Arc{EdgeID: id, Agent: j, Period: i, Preferred: preferred})
		}
		n.periodEdges[i] = eb.add(layout.Period(i), layout.Sink(), int64(req.SysadminsPerNight))
	}

	if eb.err != nil {
		b.Release(n)
		return nil, apperror.Wrap(eb.err, apperror.CodeInternal, "build staffing network")
	}
	return n, nil
}

// Release hands the network's graph back to the pool.
func (b *Builder) Release(n *Network) {
	if n == nil || n.Graph == nil {
		return
	}
	if b.pool != nil {
		b.pool.ReleaseGraph(n.Graph)
	}
	n.Graph = nil
}

// edgeBuilder keeps the first AddEdge error so construction reads linearly.
type edgeBuilder struct {
	g   *graph.FlowGraph
	err error
}

func (eb *edgeBuilder) add(from, to int, capacity int64) int {
	if eb.err != nil {
		return -1
	}
	id, err := eb.g.AddEdge(from, to, capacity)
	if err != nil {
		eb.err = err
	}
	return id
}
