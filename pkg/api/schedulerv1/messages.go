package schedulerv1

import (
	"rostering/pkg/apperror"
)

// AllocateRequest asks for one roster. Preferences is indexed
// [period][agent] with 1 = agent is willing to work that night.
type AllocateRequest struct {
	Preferences       [][]int32 `json:"preferences"`
	SysadminsPerNight int32     `json:"sysadmins_per_night"`
	MaxUnwantedShifts int32     `json:"max_unwanted_shifts"`
	MinShifts         int32     `json:"min_shifts"`
	// SkipCache forces a fresh computation; the result is still stored.
	SkipCache bool `json:"skip_cache,omitempty"`
}

// Validate performs the cheap shape checks that do not need the horizon.
// Cell values and bound interplay are checked by the allocator.
func (r *AllocateRequest) Validate() error {
	if r == nil {
		return apperror.New(apperror.CodeInvalidArgument, "request is required")
	}
	if len(r.Preferences) == 0 {
		return apperror.New(apperror.CodeEmptyPreferences, "preferences must have at least one period").
			WithField("preferences")
	}
	v := &apperror.ValidationErrors{}
	if r.SysadminsPerNight <= 0 {
		v.AddErrorWithField(apperror.CodeInvalidStaffing, "must be positive", "sysadmins_per_night")
	}
	if r.MaxUnwantedShifts < 0 {
		v.AddErrorWithField(apperror.CodeNegativeBound, "must not be negative", "max_unwanted_shifts")
	}
	if r.MinShifts < 0 {
		v.AddErrorWithField(apperror.CodeNegativeBound, "must not be negative", "min_shifts")
	}
	return v.Err()
}

// Matrix converts the preferences to plain ints.
func (r *AllocateRequest) Matrix() [][]int {
	out := make([][]int, len(r.Preferences))
	for i, row := range r.Preferences {
		out[i] = make([]int, len(row))
		for j, v := range row {
			out[i][j] = int(v)
		}
	}
	return out
}

// AgentLoad summarizes one agent's column of the roster.
type AgentLoad struct {
	Agent     int32 `json:"agent"`
	Shifts    int32 `json:"shifts"`
	Preferred int32 `json:"preferred"`
	Unwanted  int32 `json:"unwanted"`
}

// AllocateResponse. Infeasibility is a normal response with Feasible=false
// and Status/Reason describing why.
type AllocateResponse struct {
	AllocationID        string       `json:"allocation_id"`
	Feasible            bool         `json:"feasible"`
	Status              string       `json:"status"`
	Reason              string       `json:"reason,omitempty"`
	Assignment          [][]int32    `json:"assignment,omitempty"`
	RequiredFlow        int64        `json:"required_flow"`
	AchievedFlow        int64        `json:"achieved_flow"`
	Iterations          int32        `json:"iterations"`
	UnderstaffedPeriods []int32      `json:"understaffed_periods,omitempty"`
	UnderloadedAgents   []int32      `json:"underloaded_agents,omitempty"`
	Loads               []*AgentLoad `json:"loads,omitempty"`
	CacheHit            bool         `json:"cache_hit"`
	ComputationTimeMs   float64      `json:"computation_time_ms"`
}

// AssignmentMatrix converts the assignment to plain ints; nil when infeasible.
func (r *AllocateResponse) AssignmentMatrix() [][]int {
	if r == nil || r.Assignment == nil {
		return nil
	}
	out := make([][]int, len(r.Assignment))
	for i, row := range r.Assignment {
		out[i] = make([]int, len(row))
		for j, v := range row {
			out[i][j] = int(v)
		}
	}
	return out
}

type InfoRequest struct{}

type InfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Horizon   int32  `json:"horizon"`
	Algorithm string `json:"algorithm"`
}
