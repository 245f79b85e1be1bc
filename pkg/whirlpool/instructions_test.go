package whirlpool

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func testLiquidityAccounts() LiquidityInstructionAccounts {
	return LiquidityInstructionAccounts{
		Whirlpool:            solana.NewWallet().PublicKey(),
		PositionAuthority:    solana.NewWallet().PublicKey(),
		Position:             solana.NewWallet().PublicKey(),
		PositionTokenAccount: solana.NewWallet().PublicKey(),
		TokenOwnerAccountA:   solana.NewWallet().PublicKey(),
		TokenOwnerAccountB:   solana.NewWallet().PublicKey(),
		TokenVaultA:          solana.NewWallet().PublicKey(),
		TokenVaultB:          solana.NewWallet().PublicKey(),
		TickArrayLower:       solana.NewWallet().PublicKey(),
		TickArrayUpper:       solana.NewWallet().PublicKey(),
	}
}

func TestDecreaseLiquidityInstructionData(t *testing.T) {
	accts := testLiquidityAccounts()
	liquidity := uint128.From64(1_073_181_681)

	instruction, err := NewDecreaseLiquidityInstruction(accts, liquidity, 25_000, 1_400_000)
	require.NoError(t, err)
	assert.Equal(t, ORCA_WHIRLPOOL_PROGRAM_ID, instruction.ProgramID())

	data, err := instruction.Data()
	require.NoError(t, err)
	// discriminator (8) + liquidity u128 (16) + two u64 bounds (16)
	require.Len(t, data, 40)
	assert.Equal(t, DecreaseLiquidityDiscriminator, data[:8])
	assert.Equal(t, liquidity, uint128.FromBytes(data[8:24]))
	assert.Equal(t, uint64(25_000), binary.LittleEndian.Uint64(data[24:32]))
	assert.Equal(t, uint64(1_400_000), binary.LittleEndian.Uint64(data[32:40]))

	metas := instruction.Accounts()
	require.Len(t, metas, 11)
	assert.Equal(t, accts.Whirlpool, metas[0].PublicKey)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, accts.PositionAuthority, metas[2].PublicKey)
	assert.True(t, metas[2].IsSigner)
	assert.Equal(t, accts.TickArrayUpper, metas[10].PublicKey)
}

func TestIncreaseLiquidityInstructionData(t *testing.T) {
	instruction, err := NewIncreaseLiquidityInstruction(testLiquidityAccounts(), uint128.From64(500), 100, 200)
	require.NoError(t, err)

	data, err := instruction.Data()
	require.NoError(t, err)
	require.Len(t, data, 40)
	assert.Equal(t, IncreaseLiquidityDiscriminator, data[:8])
}

func TestUpdateFeesAndCollectFeesInstructions(t *testing.T) {
	accts := testLiquidityAccounts()

	update, err := NewUpdateFeesAndRewardsInstruction(accts.Whirlpool, accts.Position, accts.TickArrayLower, accts.TickArrayUpper)
	require.NoError(t, err)
	data, err := update.Data()
	require.NoError(t, err)
	assert.Equal(t, UpdateFeesAndRewardsDiscriminator, data)
	require.Len(t, update.Accounts(), 4)

	collect, err := NewCollectFeesInstruction(accts)
	require.NoError(t, err)
	data, err = collect.Data()
	require.NoError(t, err)
	assert.Equal(t, CollectFeesDiscriminator, data)
	require.Len(t, collect.Accounts(), 9)
}

func TestClosePositionInstruction(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	receiver := solana.NewWallet().PublicKey()
	position := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	tokenAccount := solana.NewWallet().PublicKey()

	instruction, err := NewClosePositionInstruction(authority, receiver, position, mint, tokenAccount)
	require.NoError(t, err)

	data, err := instruction.Data()
	require.NoError(t, err)
	assert.Equal(t, ClosePositionDiscriminator, data)

	metas := instruction.Accounts()
	require.Len(t, metas, 6)
	assert.True(t, metas[0].IsSigner)
	assert.Equal(t, receiver, metas[1].PublicKey)
	assert.True(t, metas[1].IsWritable)
}
