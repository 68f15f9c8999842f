package service

import (
	"time"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/cache"
	"rostering/services/scheduler-svc/internal/roster"
)

func toRosterRequest(req *schedulerv1.AllocateRequest) roster.Request {
	return roster.Request{
		Preferences:       req.Matrix(),
		SysadminsPerNight: int(req.SysadminsPerNight),
		MaxUnwantedShifts: int(req.MaxUnwantedShifts),
		MinShifts:         int(req.MinShifts),
	}
}

func toResponse(id string, req roster.Request, alloc *roster.Allocation) *schedulerv1.AllocateResponse {
	resp := &schedulerv1.AllocateResponse{
		AllocationID:        id,
		Feasible:            alloc.Feasible(),
		Status:              alloc.Status.String(),
		Assignment:          toInt32Matrix(alloc.Assignment),
		RequiredFlow:        alloc.RequiredFlow,
		AchievedFlow:        alloc.AchievedFlow,
		Iterations:          int32(alloc.Iterations),
		UnderstaffedPeriods: toInt32s(alloc.Understaffed),
		UnderloadedAgents:   toInt32s(alloc.Underloaded),
	}
	if alloc.Reason != nil {
		resp.Reason = alloc.Reason.Message
	}
	if alloc.Feasible() {
		resp.Loads = loads(req, alloc.Assignment)
	}
	return resp
}

func loads(req roster.Request, m roster.Matrix) []*schedulerv1.AgentLoad {
	summary := roster.Summarize(req, m)
	out := make([]*schedulerv1.AgentLoad, len(summary.Agents))
	for i, l := range summary.Agents {
		out[i] = &schedulerv1.AgentLoad{
			Agent:     int32(l.Agent),
			Shifts:    int32(l.Shifts),
			Preferred: int32(l.Preferred),
			Unwanted:  int32(l.Unwanted),
		}
	}
	return out
}

func toCached(alloc *roster.Allocation, elapsed time.Duration) *cache.CachedAllocation {
	c := &cache.CachedAllocation{
		Status:            alloc.Status.String(),
		Assignment:        alloc.Assignment,
		RequiredFlow:      alloc.RequiredFlow,
		AchievedFlow:      alloc.AchievedFlow,
		Iterations:        alloc.Iterations,
		Understaffed:      alloc.Understaffed,
		Underloaded:       alloc.Underloaded,
		ComputationTimeMs: float64(elapsed.Microseconds()) / 1000,
	}
	if alloc.Reason != nil {
		c.Reason = alloc.Reason.Message
	}
	return c
}

func fromCached(id string, req roster.Request, c *cache.CachedAllocation) *schedulerv1.AllocateResponse {
	resp := &schedulerv1.AllocateResponse{
		AllocationID:        id,
		Status:              c.Status,
		Reason:              c.Reason,
		Assignment:          toInt32Matrix(c.Assignment),
		RequiredFlow:        c.RequiredFlow,
		AchievedFlow:        c.AchievedFlow,
		Iterations:          int32(c.Iterations),
		UnderstaffedPeriods: toInt32s(c.Understaffed),
		UnderloadedAgents:   toInt32s(c.Underloaded),
		CacheHit:            true,
	}
	if status, ok := roster.ParseStatus(c.Status); ok && status == roster.StatusFeasible {
		resp.Feasible = true
		resp.Loads = loads(req, c.Assignment)
	}
	return resp
}

func toInt32Matrix(m [][]int) [][]int32 {
	if m == nil {
		return nil
	}
	out := make([][]int32, len(m))
	for i, row := range m {
		out[i] = toInt32s(row)
	}
	return out
}

func toInt32s(xs []int) []int32 {
	if xs == nil {
		return nil
	}
	out := make([]int32, len(xs))
	for i, x := range xs {
		out[i] = int32(x)
	}
	return out
}
