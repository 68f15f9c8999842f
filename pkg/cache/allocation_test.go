package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationCache_RoundTrip(t *testing.T) {
	mem := NewMemoryCache(nil)
	ac := NewAllocationCache(mem, 0)
	defer ac.Close()
	ctx := context.Background()

	p := Problem{Preferences: [][]int{{1, 0}, {0, 1}}, SysadminsPerNight: 1, MaxUnwantedShifts: 2, MinShifts: 1}

	_, hit, err := ac.Get(ctx, p)
	require.NoError(t, err)
	assert.False(t, hit)

	in := &CachedAllocation{
		Status:       "FEASIBLE",
		Assignment:   [][]int{{1, 0}, {0, 1}},
		RequiredFlow: 2,
		AchievedFlow: 2,
		Iterations:   2,
	}
	require.NoError(t, ac.Set(ctx, p, in, 0))
	assert.False(t, in.ComputedAt.IsZero())

	out, hit, err := ac.Get(ctx, p)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in.Assignment, out.Assignment)
	assert.Equal(t, in.Status, out.Status)
	assert.WithinDuration(t, in.ComputedAt, out.ComputedAt, time.Millisecond)

	other := p
	other.MinShifts = 0
	_, hit, _ = ac.Get(ctx, other)
	assert.False(t, hit, "different bounds must miss")

	require.NoError(t, ac.Invalidate(ctx, p))
	_, hit, _ = ac.Get(ctx, p)
	assert.False(t, hit)
}

func TestAllocationCache_CorruptEntry(t *testing.T) {
	mem := NewMemoryCache(nil)
	defer mem.Close()
	ac := NewAllocationCache(mem, time.Minute)
	ctx := context.Background()

	p := Problem{Preferences: [][]int{{1}}, SysadminsPerNight: 1}
	key := AllocationKey(ProblemHash(p))
	require.NoError(t, mem.Set(ctx, key, []byte("{not json"), 0))

	out, hit, err := ac.Get(ctx, p)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, out)

	ok, _ := mem.Exists(ctx, key)
	assert.False(t, ok, "corrupt entry is dropped")
}

func TestAllocationCache_InvalidateAll(t *testing.T) {
	mem := NewMemoryCache(nil)
	defer mem.Close()
	ac := NewAllocationCache(mem, time.Minute)
	ctx := context.Background()

	for r := 1; r <= 3; r++ {
		p := Problem{Preferences: [][]int{{1, 1, 1}}, SysadminsPerNight: r}
		require.NoError(t, ac.Set(ctx, p, &CachedAllocation{Status: "FEASIBLE"}, 0))
	}
	require.NoError(t, mem.Set(ctx, "unrelated", []byte("x"), 0))

	n, err := ac.InvalidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	stats, err := ac.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalKeys)

	assert.NoError(t, ac.Set(ctx, Problem{}, nil, 0), "nil record is ignored")
}
