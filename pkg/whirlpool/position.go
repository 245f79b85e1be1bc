package whirlpool

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// Position maps the Orca Whirlpool position account.
//
// Total account size: 216 bytes (including 8-byte discriminator):
//
//	8  discriminator
//	32 whirlpool (PublicKey)
//	32 positionMint (PublicKey)
//	16 liquidity (u128)
//	4  tickLowerIndex (i32)
//	4  tickUpperIndex (i32)
//	16 feeGrowthCheckpointA (u128)
//	8  feeOwedA (u64)
//	16 feeGrowthCheckpointB (u128)
//	8  feeOwedB (u64)
//	72 rewardInfos (3 x {growthInsideCheckpoint u128, amountOwed u64})
type Position struct {
	Whirlpool            solana.PublicKey
	PositionMint         solana.PublicKey
	Liquidity            uint128.Uint128
	TickLowerIndex       int32
	TickUpperIndex       int32
	FeeGrowthCheckpointA uint128.Uint128
	FeeOwedA             uint64
	FeeGrowthCheckpointB uint128.Uint128
	FeeOwedB             uint64
	RewardInfos          [3]PositionRewardInfo
}

type PositionRewardInfo struct {
	GrowthInsideCheckpoint uint128.Uint128
	AmountOwed             uint64
}

// Decode parses position account data. The discriminator is verified so a
// wrong account (or a closed one reassigned by the runtime) is rejected
// before any field is trusted.
func (p *Position) Decode(data []byte) error {
	if len(data) < POSITION_SIZE {
		return fmt.Errorf("position account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], PositionDiscriminator[:]) {
		return fmt.Errorf("not a whirlpool position account: discriminator mismatch")
	}
	data = data[8:]

	offset := 0

	p.Whirlpool = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.PositionMint = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.Liquidity = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.TickLowerIndex = int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	p.TickUpperIndex = int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	p.FeeGrowthCheckpointA = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.FeeOwedA = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	p.FeeGrowthCheckpointB = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.FeeOwedB = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	for i := 0; i < 3; i++ {
		p.RewardInfos[i].GrowthInsideCheckpoint = uint128.FromBytes(data[offset : offset+16])
		offset += 16

		p.RewardInfos[i].AmountOwed = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
	}

	return nil
}

// Pool holds the subset of the Whirlpool pool account the lockbox reads:
// pricing state for liquidity math and the mints/vaults for instruction
// account lists. The remaining 400-odd bytes (fee config, reward infos)
// are skipped during decode.
type Pool struct {
	WhirlpoolsConfig solana.PublicKey
	TickSpacing      uint16
	Liquidity        uint128.Uint128
	SqrtPrice        uint128.Uint128
	TickCurrentIndex int32
	TokenMintA       solana.PublicKey
	TokenVaultA      solana.PublicKey
	TokenMintB       solana.PublicKey
	TokenVaultB      solana.PublicKey
}

// Decode parses whirlpool pool account data.
func (p *Pool) Decode(data []byte) error {
	if len(data) < WHIRLPOOL_SIZE {
		return fmt.Errorf("whirlpool account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], WhirlpoolDiscriminator[:]) {
		return fmt.Errorf("not a whirlpool pool account: discriminator mismatch")
	}
	data = data[8:]

	offset := 0

	p.WhirlpoolsConfig = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	// whirlpoolBump (1 byte)
	offset += 1

	p.TickSpacing = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	// feeTierIndexSeed (2) + feeRate (2) + protocolFeeRate (2)
	offset += 6

	p.Liquidity = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.SqrtPrice = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.TickCurrentIndex = int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	// protocolFeeOwedA (8) + protocolFeeOwedB (8)
	offset += 16

	p.TokenMintA = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.TokenVaultA = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	// feeGrowthGlobalA (16 bytes)
	offset += 16

	p.TokenMintB = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	p.TokenVaultB = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	return nil
}

// SqrtPriceBounds returns the Q64.64 sqrt prices at the position's tick
// bounds, the inputs to every liquidity/amount conversion for this position.
func (p *Position) SqrtPriceBounds() (lower, upper uint128.Uint128, err error) {
	lower, err = SqrtPriceFromTick(p.TickLowerIndex)
	if err != nil {
		return uint128.Zero, uint128.Zero, err
	}
	upper, err = SqrtPriceFromTick(p.TickUpperIndex)
	if err != nil {
		return uint128.Zero, uint128.Zero, err
	}
	return lower, upper, nil
}
