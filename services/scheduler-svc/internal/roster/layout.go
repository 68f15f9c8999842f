package roster

import "fmt"

// Layout numbers the nodes of the staffing network for A agents and
// P periods:
//
//	0                  source
//	1                  excess pool
//	2 .. A+1           agent nodes
//	A+2 .. 2A+1        unwanted tier, one per agent
//	2A+2 .. 2A+P+1     period nodes
//	2A+P+2             sink
type Layout struct {
	Agents  int
	Periods int
}

// NewLayout returns the layout for the given dimensions.
func NewLayout(agents, periods int) Layout {
	return Layout{Agents: agents, Periods: periods}
}

func (l Layout) Source() int { return 0 }
func (l Layout) Excess() int { return 1 }

// Agent returns the node of agent j.
func (l Layout) Agent(j int) int { return 2 + j }

// Unwanted returns the unwanted-tier node of agent j.
func (l Layout) Unwanted(j int) int { return 2 + l.Agents + j }

// Period returns the node of period i.
func (l Layout) Period(i int) int { return 2 + 2*l.Agents + i }

func (l Layout) Sink() int { return 2 + 2*l.Agents + l.Periods }

// Count returns the number of nodes, 2A+P+3.
func (l Layout) Count() int { return 2*l.Agents + l.Periods + 3 }

// Edges is the number of forward edges the builder inserts: one excess edge,
// three per agent, one per cell and one per period.
func (l Layout) Edges() int { return 1 + 3*l.Agents + l.Periods*l.Agents + l.Periods }

// Role identifies what a node stands for.
type Role int

const (
	RoleInvalid Role = iota
	RoleSource
	RoleExcess
	RoleAgent
	RoleUnwanted
	RolePeriod
	RoleSink
)

func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleExcess:
		return "excess"
	case RoleAgent:
		return "agent"
	case RoleUnwanted:
		return "unwanted"
	case RolePeriod:
		return "period"
	case RoleSink:
		return "sink"
	default:
		return "invalid"
	}
}

// Resolve maps a node back to its role and the agent or period index it
// belongs to (-1 for the singleton roles).
func (l Layout) Resolve(node int) (Role, int) {
	switch {
	case node == l.Source():
		return RoleSource, -1
	case node == l.Excess():
		return RoleExcess, -1
	case node >= l.Agent(0) && node < l.Agent(l.Agents):
		return RoleAgent, node - l.Agent(0)
	case node >= l.Unwanted(0) && node < l.Unwanted(l.Agents):
		return RoleUnwanted, node - l.Unwanted(0)
	case node >= l.Period(0) && node < l.Period(l.Periods):
		return RolePeriod, node - l.Period(0)
	case node == l.Sink():
		return RoleSink, -1
	default:
		return RoleInvalid, -1
	}
}

// Describe renders a node as e.g. "agent[3]" or "sink".
func (l Layout) Describe(node int) string {
	role, idx := l.Resolve(node)
	if idx < 0 {
		if role == RoleInvalid {
			return fmt.Sprintf("invalid(%d)", node)
		}
		return role.String()
	}
	return fmt.Sprintf("%s[%d]", role, idx)
}
