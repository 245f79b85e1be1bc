package lockbox

import "errors"

// Ledger and lifecycle errors. Mirrors the failure taxonomy of the on-chain
// program so hosts can branch on the cause with errors.Is.
var (
	// ErrLiquidityZero rejects a zero liquidity or withdrawal amount.
	ErrLiquidityZero = errors.New("lockbox: liquidity amount is zero")

	// ErrLiquidityOverflow signals a liquidity value or sum exceeding the
	// 64-bit tracking range.
	ErrLiquidityOverflow = errors.New("lockbox: liquidity overflow")

	// ErrLiquidityUnderflow signals a decrement below zero. The ledger never
	// plans such a decrement, so seeing this means corrupted state.
	ErrLiquidityUnderflow = errors.New("lockbox: liquidity underflow")

	// ErrDeltaAmountOverflow signals that the token amounts backing a
	// liquidity delta exceed the caller's declared maximums.
	ErrDeltaAmountOverflow = errors.New("lockbox: delta amount exceeds declared maximum")

	// ErrAmountExceedsPositionLiquidity signals a per-position take larger
	// than that position's recorded liquidity.
	ErrAmountExceedsPositionLiquidity = errors.New("lockbox: amount exceeds position liquidity")

	// ErrAmountExceedsTotalLiquidity rejects a withdrawal larger than the
	// aggregate locked liquidity.
	ErrAmountExceedsTotalLiquidity = errors.New("lockbox: amount exceeds total liquidity")

	// ErrOutOfRange rejects a deposit whose position range does not satisfy
	// the lockbox's range policy.
	ErrOutOfRange = errors.New("lockbox: position tick range out of range")

	// ErrWrongWhirlpool rejects a position that belongs to a different pool.
	ErrWrongWhirlpool = errors.New("lockbox: position belongs to a different whirlpool")

	// ErrWrongPositionPDA rejects a position account whose address does not
	// match the PDA derived from its mint.
	ErrWrongPositionPDA = errors.New("lockbox: position address does not match derived PDA")

	// ErrUnknownPosition signals a lookup for a position id the ledger does
	// not track.
	ErrUnknownPosition = errors.New("lockbox: unknown position id")
)
