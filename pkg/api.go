package pkg

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// PositionAccounts bundles the on-chain accounts a Whirlpool liquidity
// instruction needs for a single position: the position account itself, its
// mint, the custody token account holding the position NFT, and the two tick
// arrays covering the position's range.
type PositionAccounts struct {
	Position             solana.PublicKey
	PositionMint         solana.PublicKey
	PositionTokenAccount solana.PublicKey
	TickArrayLower       solana.PublicKey
	TickArrayUpper       solana.PublicKey
}

// AMMPool is the cross-protocol surface of the concentrated-liquidity pool a
// lockbox manages positions in. The ledger engine depends only on this
// interface; the production implementation builds and submits Whirlpool
// instructions, tests inject a fake.
//
// Every call is synchronous: it returns only once the underlying protocol has
// accepted or rejected the transaction. A returned error aborts the enclosing
// lockbox operation.
type AMMPool interface {
	// IncreaseLiquidity adds liquidityDelta to the position, spending at most
	// tokenMaxA/tokenMaxB of the pool's two assets.
	IncreaseLiquidity(ctx context.Context, accounts PositionAccounts, liquidityDelta, tokenMaxA, tokenMaxB uint64) error

	// WithdrawStep removes liquidityDelta from the position as one atomic
	// transaction: the prelude instructions (the bridged token burn), a fee
	// refresh and collection, the liquidity decrease, and, when
	// closeReceiver is non-nil, closing the exhausted position with the
	// reclaimed rent sent to closeReceiver. Either every instruction lands
	// or none does.
	//
	// Returns the amounts of the two pool assets released. The protocol
	// guarantees at least tokenMinA/tokenMinB or fails the transaction.
	WithdrawStep(ctx context.Context, accounts PositionAccounts, liquidityDelta, tokenMinA, tokenMinB uint64, prelude []solana.Instruction, closeReceiver *solana.PublicKey) (amountA, amountB uint64, err error)
}

// TokenIssuer mints the bridged token and builds its burn instructions.
// Burns are not submitted standalone: the burn instruction is handed to
// AMMPool.WithdrawStep so it shares the withdrawal's transaction boundary.
type TokenIssuer interface {
	// MintTo mints amount bridged tokens to the destination token account.
	MintTo(ctx context.Context, dest solana.PublicKey, amount uint64) error

	// BurnInstruction builds an instruction burning amount bridged tokens
	// from the source token account.
	BurnInstruction(source solana.PublicKey, amount uint64) (solana.Instruction, error)

	// Supply reports the current total supply of the bridged token.
	Supply(ctx context.Context) (uint64, error)
}
