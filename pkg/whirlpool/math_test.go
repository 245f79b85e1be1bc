package whirlpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

// Fixture from the OLAS-SOL full-range pool: 1000 OLAS (8 decimals) at the
// recorded sqrt price bounds.
func TestLiquidityFromTokenAFixture(t *testing.T) {
	liquidity, err := LiquidityFromTokenA(
		100_000_000_000,
		uint128.From64(58319427345345388),
		uint128.From64(82674692782969588),
	)
	require.NoError(t, err)
	require.Equal(t, uint128.From64(1073181681), liquidity)
}

func TestLiquidityFromTokenAInvalidRange(t *testing.T) {
	lower := uint128.From64(82674692782969588)
	upper := uint128.From64(58319427345345388)

	_, err := LiquidityFromTokenA(1000, lower, upper)
	require.ErrorIs(t, err, ErrInvalidPriceRange)

	// Equal bounds are an empty range, not a zero-width position.
	_, err = LiquidityFromTokenA(1000, lower, lower)
	require.ErrorIs(t, err, ErrInvalidPriceRange)
}

func TestLiquidityFromTokenADowncast(t *testing.T) {
	// Adjacent bounds at the top of the price band blow past 128 bits.
	upper := MAX_SQRT_PRICE_X64
	lower := upper.Sub64(1)

	_, err := LiquidityFromTokenA(1<<60, lower, upper)
	require.ErrorIs(t, err, ErrNumericDowncast)
}

func TestSqrtPriceBandEnforced(t *testing.T) {
	inBand := uint128.From64(58319427345345388)

	// Below the protocol minimum.
	_, err := LiquidityFromTokenA(1000, MIN_SQRT_PRICE_X64.Sub64(1), inBand)
	require.ErrorIs(t, err, ErrInvalidPriceRange)

	// Above the protocol maximum.
	_, err = TokenAFromLiquidity(uint128.From64(1000), inBand, MAX_SQRT_PRICE_X64.Add64(1), false)
	require.ErrorIs(t, err, ErrInvalidPriceRange)
	_, err = TokenBFromLiquidity(uint128.From64(1000), inBand, MAX_SQRT_PRICE_X64.Add64(1), false)
	require.ErrorIs(t, err, ErrInvalidPriceRange)

	// The band edges themselves are usable.
	_, err = TokenBFromLiquidity(uint128.From64(1000), MIN_SQRT_PRICE_X64, MAX_SQRT_PRICE_X64, false)
	require.NoError(t, err)
}

func TestLiquidityFromTokenAZeroAmount(t *testing.T) {
	liquidity, err := LiquidityFromTokenA(
		0,
		uint128.From64(58319427345345388),
		uint128.From64(82674692782969588),
	)
	require.NoError(t, err)
	require.True(t, liquidity.IsZero())
}

// Converting liquidity back to an amount and forward again loses at most
// one unit of liquidity to truncation.
func TestLiquidityTokenARoundTrip(t *testing.T) {
	lower := uint128.From64(58319427345345388)
	upper := uint128.From64(82674692782969588)

	for _, amount := range []uint64{1_000, 123_456_789, 100_000_000_000, 987_654_321_012_345} {
		l1, err := LiquidityFromTokenA(amount, lower, upper)
		require.NoError(t, err)
		require.True(t, l1.Hi == 0)

		a2, err := TokenAFromLiquidity(l1, lower, upper, false)
		require.NoError(t, err)
		assert.LessOrEqual(t, a2, amount)

		l2, err := LiquidityFromTokenA(a2, lower, upper)
		require.NoError(t, err)

		assert.True(t, l2.Cmp(l1) <= 0, "round trip must not create liquidity")
		assert.True(t, l1.Sub(l2).Cmp64(1) <= 0, "round trip loses at most one unit")
	}
}

func TestTokenAmountsFromLiquidity(t *testing.T) {
	// Price range [1, 2] in Q64.64, liquidity 5:
	//   amount_b = 5 * (2^65 - 2^64) >> 64 = 5
	//   amount_a = (5 << 64) * 2^64 / 2^65 / 2^64 = 2.5
	lower := uint128.From64(1).Lsh(64)
	upper := uint128.From64(2).Lsh(64)
	liquidity := uint128.From64(5)

	b, err := TokenBFromLiquidity(liquidity, lower, upper, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), b)

	b, err = TokenBFromLiquidity(liquidity, lower, upper, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), b)

	a, err := TokenAFromLiquidity(liquidity, lower, upper, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), a)

	a, err = TokenAFromLiquidity(liquidity, lower, upper, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), a)
}

func TestTokenBFromLiquidityDowncast(t *testing.T) {
	lower := uint128.From64(1).Lsh(64)
	upper := uint128.From64(2).Lsh(64)

	_, err := TokenBFromLiquidity(uint128.Max, lower, upper, false)
	require.ErrorIs(t, err, ErrNumericDowncast)
}

func TestSqrtPriceFromTick(t *testing.T) {
	// Tick 0 is price 1.0 exactly.
	price, err := SqrtPriceFromTick(0)
	require.NoError(t, err)
	require.Equal(t, uint128.From64(1).Lsh(64), price)

	_, err = SqrtPriceFromTick(MAX_TICK + 1)
	require.ErrorIs(t, err, ErrTickOutOfBounds)
	_, err = SqrtPriceFromTick(MIN_TICK - 1)
	require.ErrorIs(t, err, ErrTickOutOfBounds)
}

func TestSqrtPriceFromTickMonotonic(t *testing.T) {
	ticks := []int32{MIN_TICK, -443584, -100000, -443, -1, 0, 1, 443, 100000, 443584, MAX_TICK}

	prev, err := SqrtPriceFromTick(ticks[0])
	require.NoError(t, err)
	for _, tick := range ticks[1:] {
		price, err := SqrtPriceFromTick(tick)
		require.NoError(t, err)
		assert.True(t, prev.Cmp(price) < 0, "sqrt price must increase with tick %d", tick)
		prev = price
	}
}

// The full-range bounds of the OLAS-SOL pool must produce a valid range for
// the liquidity math.
func TestFullRangeBoundsUsable(t *testing.T) {
	lower, err := SqrtPriceFromTick(-443584)
	require.NoError(t, err)
	upper, err := SqrtPriceFromTick(443584)
	require.NoError(t, err)
	require.True(t, lower.Cmp(upper) < 0)

	liquidity, err := LiquidityFromTokenA(100_000_000_000, lower, upper)
	require.NoError(t, err)
	require.False(t, liquidity.IsZero())
}
