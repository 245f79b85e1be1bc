package whirlpool

import (
	"errors"
	"math/big"

	cosmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

var (
	// ErrInvalidPriceRange is returned when sqrt_price_lower >= sqrt_price_upper.
	ErrInvalidPriceRange = errors.New("whirlpool: invalid sqrt price range")

	// ErrNumericDowncast is returned when a computed value does not fit the
	// target integer width.
	ErrNumericDowncast = errors.New("whirlpool: number downcast overflow")

	// ErrTickOutOfBounds is returned for tick indexes outside the protocol range.
	ErrTickOutOfBounds = errors.New("whirlpool: tick index out of bounds")
)

// validSqrtPriceRange requires lower < upper with both inside the protocol's
// [MIN_SQRT_PRICE_X64, MAX_SQRT_PRICE_X64] band.
func validSqrtPriceRange(lower, upper uint128.Uint128) error {
	if lower.Cmp(upper) >= 0 {
		return ErrInvalidPriceRange
	}
	if lower.Cmp(MIN_SQRT_PRICE_X64) < 0 || upper.Cmp(MAX_SQRT_PRICE_X64) > 0 {
		return ErrInvalidPriceRange
	}
	return nil
}

// LiquidityFromTokenA computes the liquidity delta created by a one-sided
// token A deposit at the upper bound of the [lower, upper) sqrt price range:
//
//	liquidity = floor( amount * (sqrtLower * sqrtUpper) / (sqrtUpper - sqrtLower) ) >> 64
//
// Sqrt prices are Q64.64 fixed point. The price product needs up to 256 bits,
// so the whole computation runs on big.Int before narrowing back to 128 bits.
// This is the exact inverse of TokenAFromLiquidity up to truncation.
func LiquidityFromTokenA(amount uint64, sqrtPriceLower, sqrtPriceUpper uint128.Uint128) (uint128.Uint128, error) {
	if err := validSqrtPriceRange(sqrtPriceLower, sqrtPriceUpper); err != nil {
		return uint128.Zero, err
	}

	lower := sqrtPriceLower.Big()
	upper := sqrtPriceUpper.Big()

	numerator := new(big.Int).Mul(lower, upper)
	numerator.Mul(numerator, new(big.Int).SetUint64(amount))

	denominator := new(big.Int).Sub(upper, lower)
	denominator.Lsh(denominator, U64Resolution)

	liquidity := numerator.Quo(numerator, denominator)
	if liquidity.BitLen() > 128 {
		return uint128.Zero, ErrNumericDowncast
	}
	return uint128.FromBig(liquidity), nil
}

// TokenAFromLiquidity computes the token A amount corresponding to a
// liquidity delta over the [lower, upper) sqrt price range:
//
//	amount_a = (liquidity << 64) * (sqrtUpper - sqrtLower) / sqrtUpper / sqrtLower
//
// roundUp selects ceiling on both divisions (the amount a depositor must
// supply) versus flooring (the amount a withdrawer receives).
func TokenAFromLiquidity(liquidity, sqrtPriceLower, sqrtPriceUpper uint128.Uint128, roundUp bool) (uint64, error) {
	if err := validSqrtPriceRange(sqrtPriceLower, sqrtPriceUpper); err != nil {
		return 0, err
	}

	lower := sqrtPriceLower.Big()
	upper := sqrtPriceUpper.Big()

	numerator1 := new(big.Int).Lsh(liquidity.Big(), U64Resolution)
	numerator2 := new(big.Int).Sub(upper, lower)

	var amount *big.Int
	if roundUp {
		temp := mulDivCeil(
			cosmath.NewIntFromBigInt(numerator1),
			cosmath.NewIntFromBigInt(numerator2),
			cosmath.NewIntFromBigInt(upper),
		)
		amount = mulDivCeil(temp, cosmath.OneInt(), cosmath.NewIntFromBigInt(lower)).BigInt()
	} else {
		temp := mulDivFloor(
			cosmath.NewIntFromBigInt(numerator1),
			cosmath.NewIntFromBigInt(numerator2),
			cosmath.NewIntFromBigInt(upper),
		)
		amount = temp.Quo(cosmath.NewIntFromBigInt(lower)).BigInt()
	}

	if !amount.IsUint64() {
		return 0, ErrNumericDowncast
	}
	return amount.Uint64(), nil
}

// TokenBFromLiquidity computes the token B amount corresponding to a
// liquidity delta over the [lower, upper) sqrt price range:
//
//	amount_b = liquidity * (sqrtUpper - sqrtLower) >> 64
func TokenBFromLiquidity(liquidity, sqrtPriceLower, sqrtPriceUpper uint128.Uint128, roundUp bool) (uint64, error) {
	if err := validSqrtPriceRange(sqrtPriceLower, sqrtPriceUpper); err != nil {
		return 0, err
	}

	priceDiff := new(big.Int).Sub(sqrtPriceUpper.Big(), sqrtPriceLower.Big())

	var amount *big.Int
	if roundUp {
		amount = mulDivCeil(
			cosmath.NewIntFromBigInt(liquidity.Big()),
			cosmath.NewIntFromBigInt(priceDiff),
			Q64,
		).BigInt()
	} else {
		amount = mulDivFloor(
			cosmath.NewIntFromBigInt(liquidity.Big()),
			cosmath.NewIntFromBigInt(priceDiff),
			Q64,
		).BigInt()
	}

	if !amount.IsUint64() {
		return 0, ErrNumericDowncast
	}
	return amount.Uint64(), nil
}

// mulDivFloor computes a * b / denominator rounding down.
func mulDivFloor(a, b, denominator cosmath.Int) cosmath.Int {
	if denominator.IsZero() {
		panic("division by zero")
	}
	return a.Mul(b).Quo(denominator)
}

// mulDivCeil computes a * b / denominator rounding up.
func mulDivCeil(a, b, denominator cosmath.Int) cosmath.Int {
	if denominator.IsZero() {
		panic("division by zero")
	}
	numerator := a.Mul(b).Add(denominator.Sub(cosmath.OneInt()))
	return numerator.Quo(denominator)
}

// Bit-ladder multipliers for SqrtPriceFromTick, from the Whirlpool tick math.
// Positive ticks use Q96-scaled factors with a final >>32 down to Q64;
// negative ticks use Q64-scaled factors directly.
// Reference: whirlpools/programs/whirlpool/src/math/tick_math.rs
var (
	sqrtPriceQ96One = mustBig("79228162514264337593543950336")

	positiveTickFactors = []tickFactor{
		{1 << 0, mustBig("79232123823359799118286999567")},
		{1 << 1, mustBig("79236085330515764027303304731")},
		{1 << 2, mustBig("79244008939048815603706035061")},
		{1 << 3, mustBig("79259858533276714260562174577")},
		{1 << 4, mustBig("79291567232598584799939703904")},
		{1 << 5, mustBig("79355022692464371645785046466")},
		{1 << 6, mustBig("79482085999252804386437311141")},
		{1 << 7, mustBig("79736823300114093921829183326")},
		{1 << 8, mustBig("80248749790819932309965073892")},
		{1 << 9, mustBig("81282483887344747381513967011")},
		{1 << 10, mustBig("83390072131320151908154831281")},
		{1 << 11, mustBig("87770609709833776024991924138")},
		{1 << 12, mustBig("97234110755111693312479820773")},
		{1 << 13, mustBig("119332217159966728226237229890")},
		{1 << 14, mustBig("179736315981702064433883588727")},
		{1 << 15, mustBig("407748233172238350107850275304")},
		{1 << 16, mustBig("2098478828474011932436660412517")},
		{1 << 17, mustBig("55581415166113811149459800483533")},
		{1 << 18, mustBig("38992368544603139932233054999993551")},
	}

	negativeTickFactors = []tickFactor{
		{1 << 0, mustBig("18445821805675392311")},
		{1 << 1, mustBig("18444899583751176498")},
		{1 << 2, mustBig("18443055278223354162")},
		{1 << 3, mustBig("18439367220385604838")},
		{1 << 4, mustBig("18431993317065449817")},
		{1 << 5, mustBig("18417254355718160513")},
		{1 << 6, mustBig("18387811781193591352")},
		{1 << 7, mustBig("18329067761203520168")},
		{1 << 8, mustBig("18212142134806087854")},
		{1 << 9, mustBig("17980523815641551639")},
		{1 << 10, mustBig("17526086738831147013")},
		{1 << 11, mustBig("16651378430235024244")},
		{1 << 12, mustBig("15030750278693429944")},
		{1 << 13, mustBig("12247334978882834399")},
		{1 << 14, mustBig("8131365268884726200")},
		{1 << 15, mustBig("3584323654723342297")},
		{1 << 16, mustBig("696457651847595233")},
		{1 << 17, mustBig("26294789957452057")},
		{1 << 18, mustBig("37481735321082")},
	}
)

type tickFactor struct {
	mask   int32
	factor *big.Int
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big integer literal: " + s)
	}
	return v
}

// SqrtPriceFromTick converts a tick index to its Q64.64 sqrt price,
// bit-for-bit identical to the on-chain sqrt_price_from_tick_index.
func SqrtPriceFromTick(tick int32) (uint128.Uint128, error) {
	if tick > MAX_TICK || tick < MIN_TICK {
		return uint128.Zero, ErrTickOutOfBounds
	}
	if tick >= 0 {
		return sqrtPricePositiveTick(tick), nil
	}
	return sqrtPriceNegativeTick(tick), nil
}

func sqrtPricePositiveTick(tick int32) uint128.Uint128 {
	ratio := new(big.Int).Set(sqrtPriceQ96One)
	if tick&1 != 0 {
		ratio.Set(positiveTickFactors[0].factor)
	}
	for _, f := range positiveTickFactors[1:] {
		if tick&f.mask != 0 {
			ratio.Mul(ratio, f.factor)
			ratio.Rsh(ratio, 96)
		}
	}
	ratio.Rsh(ratio, 32)
	return uint128.FromBig(ratio)
}

func sqrtPriceNegativeTick(tick int32) uint128.Uint128 {
	absTick := -tick
	ratio := new(big.Int).Lsh(big.NewInt(1), U64Resolution)
	if absTick&1 != 0 {
		ratio.Set(negativeTickFactors[0].factor)
	}
	for _, f := range negativeTickFactors[1:] {
		if absTick&f.mask != 0 {
			ratio.Mul(ratio, f.factor)
			ratio.Rsh(ratio, U64Resolution)
		}
	}
	return uint128.FromBig(ratio)
}
