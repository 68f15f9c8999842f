// Package roster turns a night-shift staffing problem into a bounded flow
// network, solves it with Edmonds-Karp and decodes the residual graph back
// into an assignment matrix.
//
// The reduction:
//
//	source ──min──────────────▶ agent_j ──1──▶ period_i ──R──▶ sink
//	  │                          ▲   │                ▲
//	  └─P·R−A·min─▶ excess ─P−min┘   └maxU─▶ unwanted_j ─1┘
//
// Every agent is guaranteed min shifts through its own source edge; the
// remaining P·R − A·min shifts are handed out through the excess pool, at most
// P − min per agent. Preferred periods are reached directly from the agent
// node, non-preferred ones only through the agent's unwanted tier, which caps
// them at max unwanted shifts. The network saturates (max flow = P·R) exactly
// when a roster with R agents per period and at least min shifts per agent
// exists.
package roster

import (
	"time"

	"rostering/pkg/apperror"
)

// Matrix is a periods × agents 0/1 matrix. Row i is period (night) i,
// column j is agent j.
type Matrix [][]int

// Periods returns the number of rows.
func (m Matrix) Periods() int {
	return len(m)
}

// Agents returns the number of columns (0 for an empty matrix).
func (m Matrix) Agents() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// NewMatrix allocates a zeroed periods × agents matrix.
func NewMatrix(periods, agents int) Matrix {
	cells := make([]int, periods*agents)
	m := make(Matrix, periods)
	for i := range m {
		m[i] = cells[i*agents : (i+1)*agents : (i+1)*agents]
	}
	return m
}

// Request is one allocation problem.
type Request struct {
	// Preferences[i][j] is 1 when agent j is willing to work period i.
	Preferences Matrix `json:"preferences" yaml:"preferences" koanf:"preferences"`

	// SysadminsPerNight is R, the exact number of agents every period needs.
	SysadminsPerNight int `json:"sysadmins_per_night" yaml:"sysadmins_per_night" koanf:"sysadmins_per_night"`

	// MaxUnwantedShifts caps the non-preferred periods given to one agent.
	MaxUnwantedShifts int `json:"max_unwanted_shifts" yaml:"max_unwanted_shifts" koanf:"max_unwanted_shifts"`

	// MinShifts is the least number of periods every agent works.
	MinShifts int `json:"min_shifts" yaml:"min_shifts" koanf:"min_shifts"`
}

// Periods returns P.
func (r Request) Periods() int {
	return r.Preferences.Periods()
}

// Agents returns A.
func (r Request) Agents() int {
	return r.Preferences.Agents()
}

// Prefers reports whether agent j asked for period i.
func (r Request) Prefers(i, j int) bool {
	return i >= 0 && i < len(r.Preferences) &&
		j >= 0 && j < len(r.Preferences[i]) &&
		r.Preferences[i][j] == 1
}

// RequiredFlow returns P·R, the flow a feasible roster must carry.
func (r Request) RequiredFlow() int64 {
	return int64(r.Periods()) * int64(r.SysadminsPerNight)
}

// Status is the outcome class of an allocation.
type Status int

const (
	// StatusFeasible: every period staffed with exactly R agents, all bounds met.
	StatusFeasible Status = iota
	// StatusInfeasibleInput: rejected by arithmetic precondition, no graph built.
	StatusInfeasibleInput
	// StatusInfeasibleFlow: the max flow fell short of P·R.
	StatusInfeasibleFlow
)

func (s Status) String() string {
	switch s {
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasibleInput:
		return "INFEASIBLE_INPUT"
	case StatusInfeasibleFlow:
		return "INFEASIBLE_FLOW"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "FEASIBLE":
		return StatusFeasible, true
	case "INFEASIBLE_INPUT":
		return StatusInfeasibleInput, true
	case "INFEASIBLE_FLOW":
		return StatusInfeasibleFlow, true
	default:
		return 0, false
	}
}

// Allocation is the result of Allocate.
type Allocation struct {
	Status Status

	// Assignment is nil unless Status is StatusFeasible.
	Assignment Matrix

	RequiredFlow int64
	AchievedFlow int64
	Iterations   int

	// Understaffed lists periods whose sink edge was not saturated.
	Understaffed []int
	// Underloaded lists agents whose guaranteed minimum was not delivered.
	Underloaded []int

	// Reason explains an infeasible status (CodeInfeasibleInput or
	// CodeInfeasibleFlow); nil when feasible.
	Reason *apperror.Error

	Duration time.Duration
}

// Feasible reports whether an assignment was found.
func (a *Allocation) Feasible() bool {
	return a != nil && a.Status == StatusFeasible
}
