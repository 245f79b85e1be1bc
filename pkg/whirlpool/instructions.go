package whirlpool

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// LiquidityInstructionAccounts bundles the accounts shared by the
// increaseLiquidity and decreaseLiquidity instructions.
type LiquidityInstructionAccounts struct {
	Whirlpool            solana.PublicKey
	PositionAuthority    solana.PublicKey
	Position             solana.PublicKey
	PositionTokenAccount solana.PublicKey
	TokenOwnerAccountA   solana.PublicKey
	TokenOwnerAccountB   solana.PublicKey
	TokenVaultA          solana.PublicKey
	TokenVaultB          solana.PublicKey
	TickArrayLower       solana.PublicKey
	TickArrayUpper       solana.PublicKey
}

// NewIncreaseLiquidityInstruction builds the Whirlpool increaseLiquidity
// instruction. tokenMaxA/tokenMaxB cap how much of each asset the pool may
// pull for the given liquidity delta.
func NewIncreaseLiquidityInstruction(
	accts LiquidityInstructionAccounts,
	liquidityAmount uint128.Uint128,
	tokenMaxA uint64,
	tokenMaxB uint64,
) (solana.Instruction, error) {
	data, err := encodeLiquidityChangeData(IncreaseLiquidityDiscriminator, liquidityAmount, tokenMaxA, tokenMaxB)
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(accts.Whirlpool, true, false))             // 0: whirlpool (writable)
	accounts.Append(solana.NewAccountMeta(TOKEN_PROGRAM_ID, false, false))           // 1: token_program
	accounts.Append(solana.NewAccountMeta(accts.PositionAuthority, false, true))     // 2: position_authority (signer)
	accounts.Append(solana.NewAccountMeta(accts.Position, true, false))              // 3: position (writable)
	accounts.Append(solana.NewAccountMeta(accts.PositionTokenAccount, false, false)) // 4: position_token_account
	accounts.Append(solana.NewAccountMeta(accts.TokenOwnerAccountA, true, false))    // 5: token_owner_account_a (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenOwnerAccountB, true, false))    // 6: token_owner_account_b (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenVaultA, true, false))           // 7: token_vault_a (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenVaultB, true, false))           // 8: token_vault_b (writable)
	accounts.Append(solana.NewAccountMeta(accts.TickArrayLower, true, false))        // 9: tick_array_lower (writable)
	accounts.Append(solana.NewAccountMeta(accts.TickArrayUpper, true, false))        // 10: tick_array_upper (writable)

	return solana.NewInstruction(ORCA_WHIRLPOOL_PROGRAM_ID, accounts, data), nil
}

// NewDecreaseLiquidityInstruction builds the Whirlpool decreaseLiquidity
// instruction. tokenMinA/tokenMinB are the slippage floor: the instruction
// fails on-chain if the pool would release less of either asset.
func NewDecreaseLiquidityInstruction(
	accts LiquidityInstructionAccounts,
	liquidityAmount uint128.Uint128,
	tokenMinA uint64,
	tokenMinB uint64,
) (solana.Instruction, error) {
	data, err := encodeLiquidityChangeData(DecreaseLiquidityDiscriminator, liquidityAmount, tokenMinA, tokenMinB)
	if err != nil {
		return nil, err
	}

	// Same account order as increaseLiquidity.
	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(accts.Whirlpool, true, false))             // 0: whirlpool (writable)
	accounts.Append(solana.NewAccountMeta(TOKEN_PROGRAM_ID, false, false))           // 1: token_program
	accounts.Append(solana.NewAccountMeta(accts.PositionAuthority, false, true))     // 2: position_authority (signer)
	accounts.Append(solana.NewAccountMeta(accts.Position, true, false))              // 3: position (writable)
	accounts.Append(solana.NewAccountMeta(accts.PositionTokenAccount, false, false)) // 4: position_token_account
	accounts.Append(solana.NewAccountMeta(accts.TokenOwnerAccountA, true, false))    // 5: token_owner_account_a (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenOwnerAccountB, true, false))    // 6: token_owner_account_b (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenVaultA, true, false))           // 7: token_vault_a (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenVaultB, true, false))           // 8: token_vault_b (writable)
	accounts.Append(solana.NewAccountMeta(accts.TickArrayLower, true, false))        // 9: tick_array_lower (writable)
	accounts.Append(solana.NewAccountMeta(accts.TickArrayUpper, true, false))        // 10: tick_array_upper (writable)

	return solana.NewInstruction(ORCA_WHIRLPOOL_PROGRAM_ID, accounts, data), nil
}

// encodeLiquidityChangeData encodes the shared data layout of the two
// liquidity-change instructions: discriminator, liquidity u128, two u64
// token bounds.
func encodeLiquidityChangeData(discriminator []byte, liquidityAmount uint128.Uint128, tokenBoundA, tokenBoundB uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteBytes(discriminator, false); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}

	// u128 liquidity amount, low 64 bits first
	if err := enc.Encode(liquidityAmount.Lo); err != nil {
		return nil, fmt.Errorf("failed to encode liquidity lo: %w", err)
	}
	if err := enc.Encode(liquidityAmount.Hi); err != nil {
		return nil, fmt.Errorf("failed to encode liquidity hi: %w", err)
	}

	if err := enc.Encode(tokenBoundA); err != nil {
		return nil, fmt.Errorf("failed to encode token bound a: %w", err)
	}
	if err := enc.Encode(tokenBoundB); err != nil {
		return nil, fmt.Errorf("failed to encode token bound b: %w", err)
	}

	return buf.Bytes(), nil
}

// NewUpdateFeesAndRewardsInstruction builds the updateFeesAndRewards
// instruction, refreshing the position's fee checkpoints against the pool's
// global growth. No data beyond the discriminator.
func NewUpdateFeesAndRewardsInstruction(
	whirlpool solana.PublicKey,
	position solana.PublicKey,
	tickArrayLower solana.PublicKey,
	tickArrayUpper solana.PublicKey,
) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(whirlpool, true, false))       // 0: whirlpool (writable)
	accounts.Append(solana.NewAccountMeta(position, true, false))        // 1: position (writable)
	accounts.Append(solana.NewAccountMeta(tickArrayLower, false, false)) // 2: tick_array_lower
	accounts.Append(solana.NewAccountMeta(tickArrayUpper, false, false)) // 3: tick_array_upper

	return solana.NewInstruction(ORCA_WHIRLPOOL_PROGRAM_ID, accounts, UpdateFeesAndRewardsDiscriminator), nil
}

// NewCollectFeesInstruction builds the collectFees instruction, moving the
// position's owed fees into the owner accounts.
func NewCollectFeesInstruction(
	accts LiquidityInstructionAccounts,
) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(accts.Whirlpool, false, false))            // 0: whirlpool
	accounts.Append(solana.NewAccountMeta(accts.PositionAuthority, false, true))     // 1: position_authority (signer)
	accounts.Append(solana.NewAccountMeta(accts.Position, true, false))              // 2: position (writable)
	accounts.Append(solana.NewAccountMeta(accts.PositionTokenAccount, false, false)) // 3: position_token_account
	accounts.Append(solana.NewAccountMeta(accts.TokenOwnerAccountA, true, false))    // 4: token_owner_account_a (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenVaultA, true, false))           // 5: token_vault_a (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenOwnerAccountB, true, false))    // 6: token_owner_account_b (writable)
	accounts.Append(solana.NewAccountMeta(accts.TokenVaultB, true, false))           // 7: token_vault_b (writable)
	accounts.Append(solana.NewAccountMeta(TOKEN_PROGRAM_ID, false, false))           // 8: token_program

	return solana.NewInstruction(ORCA_WHIRLPOOL_PROGRAM_ID, accounts, CollectFeesDiscriminator), nil
}

// NewClosePositionInstruction builds the closePosition instruction, burning
// the position NFT and reclaiming rent to receiver. Valid only once the
// position's liquidity is zero.
func NewClosePositionInstruction(
	positionAuthority solana.PublicKey,
	receiver solana.PublicKey,
	position solana.PublicKey,
	positionMint solana.PublicKey,
	positionTokenAccount solana.PublicKey,
) (solana.Instruction, error) {
	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(positionAuthority, false, true))   // 0: position_authority (signer)
	accounts.Append(solana.NewAccountMeta(receiver, true, false))            // 1: receiver (writable)
	accounts.Append(solana.NewAccountMeta(position, true, false))            // 2: position (writable)
	accounts.Append(solana.NewAccountMeta(positionMint, true, false))        // 3: position_mint (writable)
	accounts.Append(solana.NewAccountMeta(positionTokenAccount, true, false)) // 4: position_token_account (writable)
	accounts.Append(solana.NewAccountMeta(TOKEN_PROGRAM_ID, false, false))   // 5: token_program

	return solana.NewInstruction(ORCA_WHIRLPOOL_PROGRAM_ID, accounts, ClosePositionDiscriminator), nil
}
