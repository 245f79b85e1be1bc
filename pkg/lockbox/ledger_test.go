package lockbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryAllocationBoundaries(t *testing.T) {
	env := newTestEnv(t)
	env.deposit(t, 1000)

	_, err := env.lb.QueryAllocation(0)
	require.ErrorIs(t, err, ErrLiquidityZero)

	_, err = env.lb.QueryAllocation(1001)
	require.ErrorIs(t, err, ErrAmountExceedsTotalLiquidity)

	allocations, err := env.lb.QueryAllocation(1000)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].Exhausts)
}

func TestQueryAllocationOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	first := env.deposit(t, 100)
	second := env.deposit(t, 200)
	env.deposit(t, 300)

	allocations, err := env.lb.QueryAllocation(250)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, first, allocations[0].PositionID)
	assert.Equal(t, uint64(100), allocations[0].Amount)
	assert.True(t, allocations[0].Exhausts)

	assert.Equal(t, second, allocations[1].PositionID)
	assert.Equal(t, uint64(150), allocations[1].Amount)
	assert.False(t, allocations[1].Exhausts)
}

func TestQueryAllocationNewestFirst(t *testing.T) {
	env := newTestEnv(t, WithPolicy(NewestFirst))
	env.deposit(t, 100)
	second := env.deposit(t, 200)
	third := env.deposit(t, 300)

	allocations, err := env.lb.QueryAllocation(350)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, third, allocations[0].PositionID)
	assert.Equal(t, uint64(300), allocations[0].Amount)
	assert.True(t, allocations[0].Exhausts)

	assert.Equal(t, second, allocations[1].PositionID)
	assert.Equal(t, uint64(50), allocations[1].Amount)
}

// QueryAllocation must not mutate anything: repeated calls agree with each
// other and with the ledger state.
func TestQueryAllocationIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.deposit(t, 100)
	env.deposit(t, 200)

	first, err := env.lb.QueryAllocation(150)
	require.NoError(t, err)
	second, err := env.lb.QueryAllocation(150)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(300), env.lb.TotalLiquidity())
	assert.Equal(t, 2, env.lb.Len())
}

func TestRecordAccessors(t *testing.T) {
	env := newTestEnv(t)
	id := env.deposit(t, 1000)

	rec, err := env.lb.Record(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), rec.Liquidity)
	assert.Equal(t, int32(fullRangeLowerTick), rec.TickLowerIndex)

	_, err = env.lb.Record(id + 1)
	require.ErrorIs(t, err, ErrUnknownPosition)

	records := env.lb.Records()
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := checkedAdd(^uint64(0)-1, 1)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), sum)

	_, err = checkedAdd(^uint64(0), 1)
	require.ErrorIs(t, err, ErrLiquidityOverflow)

	diff, err := checkedSub(10, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), diff)

	_, err = checkedSub(10, 11)
	require.ErrorIs(t, err, ErrLiquidityUnderflow)
}

func TestConsumptionPolicyString(t *testing.T) {
	assert.Equal(t, "oldest-first", OldestFirst.String())
	assert.Equal(t, "newest-first", NewestFirst.String())
}

func TestProportionalMin(t *testing.T) {
	// Full take keeps the full floor.
	assert.Equal(t, uint64(1000), proportionalMin(1000, 500, 500))
	// Half take halves the floor.
	assert.Equal(t, uint64(500), proportionalMin(1000, 250, 500))
	// Rounds down, never above the exact share.
	assert.Equal(t, uint64(333), proportionalMin(1000, 1, 3))
	// Large values must not overflow.
	big := uint64(1) << 62
	assert.Equal(t, big/2, proportionalMin(big, big/2, big))
}
