package whirlpool

import (
	"math/big"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// Program IDs
var (
	// Orca Whirlpool Program ID
	ORCA_WHIRLPOOL_PROGRAM_ID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

	// Standard Solana Program IDs
	TOKEN_PROGRAM_ID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
)

// Tick configuration - Based on Orca Whirlpool specification
const (
	TICK_ARRAY_SIZE = 88
	MAX_TICK        = 443636
	MIN_TICK        = -443636
	U64Resolution   = 64
)

// Price constants - Whirlpool protocol official values
// Reference: whirlpools/programs/whirlpool/src/math/tick_math.rs
var (
	MIN_SQRT_PRICE_X64 = uint128.From64(4295048016)
	MAX_SQRT_PRICE_X64 = uint128.FromBig(mustBig("79226673515401279992447579055"))
)

// Seeds for PDA derivation. The position seed belongs to the Whirlpool
// program; the lockbox seeds belong to the lockbox program itself.
var (
	POSITION_SEED         = "position"
	TICK_ARRAY_SEED       = "tick_array"
	LOCKBOX_SEED          = "liquidity_lockbox"
	LOCKBOX_POSITION_SEED = "lockbox_position"
)

// Instruction discriminators (from the Whirlpool IDL)
var (
	IncreaseLiquidityDiscriminator    = []byte{46, 156, 243, 118, 13, 205, 251, 178}
	DecreaseLiquidityDiscriminator    = []byte{160, 38, 208, 111, 104, 91, 44, 1}
	UpdateFeesAndRewardsDiscriminator = []byte{154, 230, 250, 13, 236, 209, 75, 223}
	CollectFeesDiscriminator          = []byte{164, 152, 207, 99, 30, 186, 19, 182}
	ClosePositionDiscriminator        = []byte{123, 134, 81, 0, 49, 68, 98, 98}
)

// Account discriminators (first 8 bytes of account data)
var (
	// Whirlpool pool account
	WhirlpoolDiscriminator = [8]byte{63, 149, 209, 12, 225, 128, 99, 9}
	// Whirlpool position account
	PositionDiscriminator = [8]byte{0xaa, 0xbc, 0x8f, 0xe4, 0x7a, 0x40, 0xf7, 0xd0}
)

// Account sizes (including the 8-byte discriminator)
const (
	WHIRLPOOL_SIZE = 653
	POSITION_SIZE  = 216
)

// Mathematical constants
var (
	// Q64 format constant (2^64)
	Q64 = math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 64))
)
