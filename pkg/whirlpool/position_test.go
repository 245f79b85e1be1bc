package whirlpool

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func encodePositionAccount(whirlpool, mint solana.PublicKey, liquidity uint128.Uint128, tickLower, tickUpper int32) []byte {
	data := make([]byte, POSITION_SIZE)
	copy(data[0:8], PositionDiscriminator[:])
	copy(data[8:40], whirlpool.Bytes())
	copy(data[40:72], mint.Bytes())
	liquidity.PutBytes(data[72:88])
	binary.LittleEndian.PutUint32(data[88:92], uint32(tickLower))
	binary.LittleEndian.PutUint32(data[92:96], uint32(tickUpper))
	return data
}

func TestPositionDecode(t *testing.T) {
	whirlpool := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	liquidity := uint128.From64(9_549_285_115)

	position := &Position{}
	err := position.Decode(encodePositionAccount(whirlpool, mint, liquidity, -443584, 443584))
	require.NoError(t, err)

	assert.Equal(t, whirlpool, position.Whirlpool)
	assert.Equal(t, mint, position.PositionMint)
	assert.Equal(t, liquidity, position.Liquidity)
	assert.Equal(t, int32(-443584), position.TickLowerIndex)
	assert.Equal(t, int32(443584), position.TickUpperIndex)
}

func TestPositionDecodeRejectsWrongAccount(t *testing.T) {
	data := encodePositionAccount(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), uint128.From64(1), 0, 64)

	// Wrong discriminator, e.g. a whirlpool pool account.
	copy(data[0:8], WhirlpoolDiscriminator[:])
	err := (&Position{}).Decode(data)
	require.Error(t, err)

	// Truncated data.
	err = (&Position{}).Decode(data[:100])
	require.Error(t, err)
}
