package roster

// Diagnostics explains a flow that fell short of the required value.
type Diagnostics struct {
	// Understaffed periods received fewer than R agents.
	Understaffed []int
	// Underloaded agents did not receive their guaranteed minimum.
	Underloaded []int
}

// Decode reads the solved network. When achieved equals the required flow it
// returns the assignment matrix: a cell is 1 when its arc (preferred or
// unwanted channel) has no residual capacity left. Otherwise the matrix is
// nil and Diagnostics lists the unsaturated period and agent edges.
func Decode(n *Network, achieved int64) (Matrix, Diagnostics) {
	if achieved != n.Required {
		return nil, diagnose(n)
	}

	m := NewMatrix(n.Layout.Periods, n.Layout.Agents)
	for _, arc := range n.Arcs {
		if n.Graph.Edge(arc.EdgeID).Saturated() {
			m[arc.Period][arc.Agent] = 1
		}
	}
	return m, Diagnostics{}
}

func diagnose(n *Network) Diagnostics {
	var d Diagnostics
	for i, id := range n.periodEdges {
		if !n.Graph.Edge(id).Saturated() {
			d.Understaffed = append(d.Understaffed, i)
		}
	}
	for j, id := range n.agentEdges {
		e := n.Graph.Edge(id)
		// a zero minimum is trivially met
		if e.Original > 0 && !e.Saturated() {
			d.Underloaded = append(d.Underloaded, j)
		}
	}
	return d
}
