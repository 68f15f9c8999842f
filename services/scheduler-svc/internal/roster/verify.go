package roster

import (
	"rostering/pkg/apperror"
)

// Verify checks a roster against its request:
//   - the matrix has the request's shape and only 0/1 cells;
//   - every period has exactly R agents;
//   - every agent works at least min and at most P periods;
//   - no agent gets more than max unwanted (non-preferred) periods.
//
// Violations are reported as CodeFlowViolation.
func Verify(req Request, m Matrix) error {
	v := apperror.NewValidationErrors()

	if m.Periods() != req.Periods() || m.Agents() != req.Agents() {
		v.Add(apperror.Newf(apperror.CodeFlowViolation,
			"assignment is %dx%d, preferences are %dx%d",
			m.Periods(), m.Agents(), req.Periods(), req.Agents()))
		return v.Err()
	}

	shifts := make([]int, req.Agents())
	unwanted := make([]int, req.Agents())

	for i, row := range m {
		if len(row) != req.Agents() {
			v.Add(apperror.Newf(apperror.CodeFlowViolation, "period %d has %d columns", i, len(row)))
			continue
		}
		staffed := 0
		for j, cell := range row {
			switch cell {
			case 0:
				continue
			case 1:
			default:
				v.Add(apperror.Newf(apperror.CodeFlowViolation,
					"assignment[%d][%d] = %d, expected 0 or 1", i, j, cell))
				continue
			}
			staffed++
			shifts[j]++
			if !req.Prefers(i, j) {
				unwanted[j]++
			}
		}
		if staffed != req.SysadminsPerNight {
			v.Add(apperror.Newf(apperror.CodeFlowViolation,
				"period %d staffed by %d agents, need %d", i, staffed, req.SysadminsPerNight).
				WithDetails("period", i))
		}
	}

	for j := range shifts {
		if shifts[j] < req.MinShifts {
			v.Add(apperror.Newf(apperror.CodeFlowViolation,
				"agent %d works %d periods, minimum is %d", j, shifts[j], req.MinShifts).
				WithDetails("agent", j))
		}
		if unwanted[j] > req.MaxUnwantedShifts {
			v.Add(apperror.Newf(apperror.CodeFlowViolation,
				"agent %d has %d unwanted periods, cap is %d", j, unwanted[j], req.MaxUnwantedShifts).
				WithDetails("agent", j))
		}
	}

	return v.Err()
}

// AgentLoad is one agent's share of a roster.
type AgentLoad struct {
	Agent     int `json:"agent"`
	Shifts    int `json:"shifts"`
	Preferred int `json:"preferred"`
	Unwanted  int `json:"unwanted"`
}

// Summary aggregates a roster per agent and per period.
type Summary struct {
	Agents []AgentLoad `json:"agents"`
	// Coverage[i] is the number of agents on period i.
	Coverage []int `json:"coverage"`

	TotalShifts   int `json:"total_shifts"`
	TotalUnwanted int `json:"total_unwanted"`
	MinLoad       int `json:"min_load"`
	MaxLoad       int `json:"max_load"`
}

// Summarize computes per-agent loads and per-period coverage. Cells outside
// the request's shape are ignored.
func Summarize(req Request, m Matrix) Summary {
	s := Summary{
		Agents:   make([]AgentLoad, req.Agents()),
		Coverage: make([]int, m.Periods()),
	}
	for j := range s.Agents {
		s.Agents[j].Agent = j
	}

	for i, row := range m {
		for j, cell := range row {
			if cell != 1 || j >= len(s.Agents) {
				continue
			}
			s.Coverage[i]++
			s.TotalShifts++
			s.Agents[j].Shifts++
			if req.Prefers(i, j) {
				s.Agents[j].Preferred++
			} else {
				s.Agents[j].Unwanted++
				s.TotalUnwanted++
			}
		}
	}

	for j, load := range s.Agents {
		if j == 0 || load.Shifts < s.MinLoad {
			s.MinLoad = load.Shifts
		}
		if load.Shifts > s.MaxLoad {
			s.MaxLoad = load.Shifts
		}
	}
	return s
}
