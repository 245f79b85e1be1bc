package whirlpool

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DerivePositionPDA derives the position account address from its mint.
// Seeds: ["position", position_mint], owned by the Whirlpool program.
func DerivePositionPDA(positionMint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(POSITION_SEED),
		positionMint.Bytes(),
	}
	pda, _, err := solana.FindProgramAddress(seeds, ORCA_WHIRLPOOL_PROGRAM_ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find program address for position: %w", err)
	}
	return pda, nil
}

// DeriveLockboxPDA derives the singleton lockbox state address under the
// lockbox program. Seeds: ["liquidity_lockbox"].
func DeriveLockboxPDA(lockboxProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte(LOCKBOX_SEED),
	}
	pda, bump, err := solana.FindProgramAddress(seeds, lockboxProgram)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to find program address for lockbox: %w", err)
	}
	return pda, bump, nil
}

// DeriveLockboxPositionPDA derives the deterministic custody address for a
// position record. Seeds: ["lockbox_position", id as big-endian u32], so
// record addresses are enumerable by id without any off-chain index.
func DeriveLockboxPositionPDA(lockboxProgram solana.PublicKey, id uint32) (solana.PublicKey, error) {
	var idBytes [4]byte
	binary.BigEndian.PutUint32(idBytes[:], id)

	seeds := [][]byte{
		[]byte(LOCKBOX_POSITION_SEED),
		idBytes[:],
	}
	pda, _, err := solana.FindProgramAddress(seeds, lockboxProgram)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find program address for lockbox position %d: %w", id, err)
	}
	return pda, nil
}

// DeriveTickArrayPDA derives the tick array account covering startTickIndex.
// Seeds: ["tick_array", whirlpool, start_tick_index.to_string()] per the
// Whirlpool source, the index seed being the decimal string, not bytes.
func DeriveTickArrayPDA(whirlpool solana.PublicKey, startTickIndex int32) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(TICK_ARRAY_SEED),
		whirlpool.Bytes(),
		[]byte(fmt.Sprintf("%d", startTickIndex)),
	}
	pda, _, err := solana.FindProgramAddress(seeds, ORCA_WHIRLPOOL_PROGRAM_ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find program address for tick array: %w", err)
	}
	return pda, nil
}

// TickArrayStartIndex returns the start index of the tick array containing
// tick. Floor division towards negative infinity, matching the on-chain
// floor_division.
func TickArrayStartIndex(tick int32, tickSpacing uint16) int32 {
	ticksInArray := int32(tickSpacing) * TICK_ARRAY_SIZE
	start := floorDivision(tick, ticksInArray)
	return start * ticksInArray
}

func floorDivision(dividend, divisor int32) int32 {
	if (dividend < 0) != (divisor < 0) && dividend%divisor != 0 {
		return dividend/divisor - 1
	}
	return dividend / divisor
}

// DerivePositionAccounts resolves the derivable account bundle for a
// position: its PDA and the two tick arrays covering [tickLower, tickUpper].
// The custody token account is supplied separately by the caller since it
// depends on who holds the position NFT.
func DerivePositionAccounts(whirlpool, positionMint solana.PublicKey, tickLower, tickUpper int32, tickSpacing uint16) (position, tickArrayLower, tickArrayUpper solana.PublicKey, err error) {
	position, err = DerivePositionPDA(positionMint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, err
	}
	tickArrayLower, err = DeriveTickArrayPDA(whirlpool, TickArrayStartIndex(tickLower, tickSpacing))
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, err
	}
	tickArrayUpper, err = DeriveTickArrayPDA(whirlpool, TickArrayStartIndex(tickUpper, tickSpacing))
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, err
	}
	return position, tickArrayLower, tickArrayUpper, nil
}
