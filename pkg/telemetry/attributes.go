package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Ключи атрибутов
const (
	// Задача
	AttrPeriods           = "roster.periods"
	AttrAgents            = "roster.agents"
	AttrSysadminsPerNight = "roster.sysadmins_per_night"
	AttrMaxUnwanted       = "roster.max_unwanted_shifts"
	AttrMinShifts         = "roster.min_shifts"

	// Результат
	AttrStatus       = "roster.status"
	AttrRequiredFlow = "roster.required_flow"
	AttrAchievedFlow = "roster.achieved_flow"
	AttrIterations   = "algorithm.iterations"
	AttrAlgorithm    = "algorithm.name"

	AttrCacheHit     = "cache.hit"
	AttrAllocationID = "roster.allocation_id"
)

// ProblemAttributes describes the shape and bounds of a request.
func ProblemAttributes(periods, agents, perNight, maxUnwanted, minShifts int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrPeriods, periods),
		attribute.Int(AttrAgents, agents),
		attribute.Int(AttrSysadminsPerNight, perNight),
		attribute.Int(AttrMaxUnwanted, maxUnwanted),
		attribute.Int(AttrMinShifts, minShifts),
	}
}

// ResultAttributes возвращает атрибуты результата
func ResultAttributes(status string, required, achieved int64, iterations int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrRequiredFlow, required),
		attribute.Int64(AttrAchievedFlow, achieved),
		attribute.Int(AttrIterations, iterations),
	}
}
