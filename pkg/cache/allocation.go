package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const allocationPrefix = "alloc:"

// CachedAllocation is the stored form of a finished allocation. Only
// feasible and infeasible outcomes are cached; errors never are.
type CachedAllocation struct {
	Status            string    `json:"status"`
	Assignment        [][]int   `json:"assignment,omitempty"`
	RequiredFlow      int64     `json:"required_flow"`
	AchievedFlow      int64     `json:"achieved_flow"`
	Iterations        int       `json:"iterations"`
	Understaffed      []int     `json:"understaffed,omitempty"`
	Underloaded       []int     `json:"underloaded,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	ComputationTimeMs float64   `json:"computation_time_ms"`
	ComputedAt        time.Time `json:"computed_at"`
}

// AllocationCache stores allocation results keyed by ProblemHash.
type AllocationCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewAllocationCache оборачивает Cache для результатов распределения
func NewAllocationCache(c Cache, defaultTTL time.Duration) *AllocationCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &AllocationCache{cache: c, defaultTTL: defaultTTL}
}

// Get returns (nil, false, nil) on a miss. A corrupt entry is deleted and
// reported as a miss.
func (ac *AllocationCache) Get(ctx context.Context, p Problem) (*CachedAllocation, bool, error) {
	key := AllocationKey(ProblemHash(p))

	data, err := ac.cache.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var out CachedAllocation
	if err := json.Unmarshal(data, &out); err != nil {
		_ = ac.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}
	return &out, true, nil
}

// Set stamps ComputedAt and stores the record.
func (ac *AllocationCache) Set(ctx context.Context, p Problem, a *CachedAllocation, ttl time.Duration) error {
	if a == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = ac.defaultTTL
	}
	a.ComputedAt = time.Now().UTC()

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return ac.cache.Set(ctx, AllocationKey(ProblemHash(p)), data, ttl)
}

func (ac *AllocationCache) Invalidate(ctx context.Context, p Problem) error {
	return ac.cache.Delete(ctx, AllocationKey(ProblemHash(p)))
}

// InvalidateAll удаляет все кэшированные распределения
func (ac *AllocationCache) InvalidateAll(ctx context.Context) (int64, error) {
	return ac.cache.DeleteByPattern(ctx, allocationPrefix+"*")
}

func (ac *AllocationCache) Stats(ctx context.Context) (*Stats, error) {
	return ac.cache.Stats(ctx)
}

func (ac *AllocationCache) Close() error {
	return ac.cache.Close()
}
