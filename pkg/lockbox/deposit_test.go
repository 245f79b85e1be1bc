package lockbox

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/whirlpool"
)

func TestCustodyDepositMintsOneToOne(t *testing.T) {
	env := newTestEnv(t)

	id, minted, err := env.lb.Deposit(context.Background(), env.newCustodyDeposit(t, 1000))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)
	assert.Equal(t, uint64(1000), minted)
	assert.Equal(t, uint64(1000), env.lb.TotalLiquidity())
	assert.Equal(t, 1, env.lb.Len())
	env.requireSupplyPeg(t)

	// Custody deposits issue no pool instruction.
	assert.Empty(t, env.amm.increases)

	// Ids are sequential in deposit order.
	id2, _, err := env.lb.Deposit(context.Background(), env.newCustodyDeposit(t, 500))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id2)
	env.requireSupplyPeg(t)
}

func TestCustodyDepositValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Position address not derived from the mint.
	d := env.newCustodyDeposit(t, 1000)
	d.Position = solana.NewWallet().PublicKey()
	_, _, err := env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrWrongPositionPDA)

	// Position from another pool.
	d = env.newCustodyDeposit(t, 1000)
	d.PositionData.Whirlpool = solana.NewWallet().PublicKey()
	_, _, err = env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrWrongWhirlpool)

	// Range narrower than required.
	d = env.newCustodyDeposit(t, 1000)
	d.PositionData.TickLowerIndex = -128
	d.PositionData.TickUpperIndex = 128
	_, _, err = env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrOutOfRange)

	// Empty position.
	d = env.newCustodyDeposit(t, 0)
	_, _, err = env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrLiquidityZero)

	// Liquidity beyond the 64-bit tracking range.
	d = env.newCustodyDeposit(t, 1)
	d.PositionData.Liquidity = uint128.Uint128{Hi: 1}
	_, _, err = env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrLiquidityOverflow)

	// Nothing was recorded or minted along the way.
	assert.Equal(t, uint64(0), env.lb.TotalLiquidity())
	assert.Equal(t, 0, env.lb.Len())
	env.requireSupplyPeg(t)
}

func TestDepositMintFailureLeavesLedgerUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.issuer.failMint = errors.New("mint authority revoked")

	_, _, err := env.lb.Deposit(context.Background(), env.newCustodyDeposit(t, 1000))
	require.Error(t, err)
	assert.Equal(t, uint64(0), env.lb.TotalLiquidity())
	assert.Equal(t, 0, env.lb.Len())
}

// newSharedDeposit builds an in-range shared deposit against a fixed
// position around tick 0, derived from the given position mint.
func (env *testEnv) newSharedDeposit(t *testing.T, mint solana.PublicKey, liquidity uint64) *SharedDeposit {
	t.Helper()
	position, err := whirlpool.DerivePositionPDA(mint)
	require.NoError(t, err)
	return &SharedDeposit{
		Whirlpool: env.pool,
		Position:  position,
		PositionData: &whirlpool.Position{
			Whirlpool:      env.pool,
			PositionMint:   mint,
			TickLowerIndex: -128,
			TickUpperIndex: 128,
		},
		CustodyAccount:   solana.NewWallet().PublicKey(),
		SqrtPrice:        uint128.From64(1).Lsh(64),
		TickCurrentIndex: 0,
		Liquidity:        liquidity,
		TokenMaxA:        1_000_000,
		TokenMaxB:        1_000_000,
		Accounts:         pkg.PositionAccounts{Position: position, PositionMint: mint},
		Recipient:        env.recipient,
	}
}

func TestSharedDepositCreatesAndExtends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()

	id, minted, err := env.lb.Deposit(ctx, env.newSharedDeposit(t, mint, 1000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), minted)
	require.Equal(t, []uint64{1000}, env.amm.increases)
	env.requireSupplyPeg(t)

	// A second deposit into the same position extends the record instead of
	// creating a new one.
	id2, minted, err := env.lb.Deposit(ctx, env.newSharedDeposit(t, mint, 500))
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, uint64(500), minted)
	assert.Equal(t, 1, env.lb.Len())
	assert.Equal(t, uint64(1500), env.lb.TotalLiquidity())

	rec, err := env.lb.Record(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), rec.Liquidity)
	env.requireSupplyPeg(t)
}

func TestSharedDepositValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Position address not derived from the mint.
	d := env.newSharedDeposit(t, solana.NewWallet().PublicKey(), 1000)
	d.Position = solana.NewWallet().PublicKey()
	_, _, err := env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrWrongPositionPDA)

	// Position from another pool.
	d = env.newSharedDeposit(t, solana.NewWallet().PublicKey(), 1000)
	d.PositionData.Whirlpool = solana.NewWallet().PublicKey()
	_, _, err = env.lb.Deposit(ctx, d)
	require.ErrorIs(t, err, ErrWrongWhirlpool)

	// Nothing was recorded or minted along the way.
	assert.Equal(t, uint64(0), env.lb.TotalLiquidity())
	assert.Equal(t, 0, env.lb.Len())
	assert.Empty(t, env.amm.increases)
	env.requireSupplyPeg(t)
}

func TestSharedDepositOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	d := env.newSharedDeposit(t, solana.NewWallet().PublicKey(), 1000)
	d.TickCurrentIndex = 500

	_, _, err := env.lb.Deposit(context.Background(), d)
	require.ErrorIs(t, err, ErrOutOfRange)

	// The upper bound itself is already out of range.
	d.TickCurrentIndex = 128
	_, _, err = env.lb.Deposit(context.Background(), d)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestSharedDepositTokenMaxGuard(t *testing.T) {
	env := newTestEnv(t)
	d := env.newSharedDeposit(t, solana.NewWallet().PublicKey(), 1_000_000)
	d.TokenMaxA = 1
	d.TokenMaxB = 1

	_, _, err := env.lb.Deposit(context.Background(), d)
	require.ErrorIs(t, err, ErrDeltaAmountOverflow)
	assert.Empty(t, env.amm.increases)
	env.requireSupplyPeg(t)
}

func TestSharedDepositDerivesLiquidityFromAmount(t *testing.T) {
	env := newTestEnv(t)
	d := env.newSharedDeposit(t, solana.NewWallet().PublicKey(), 0)
	d.AmountA = 1_000_000
	d.TokenMaxA = 2_000_000
	d.TokenMaxB = 2_000_000

	id, minted, err := env.lb.Deposit(context.Background(), d)
	require.NoError(t, err)
	assert.NotZero(t, minted)

	rec, err := env.lb.Record(id)
	require.NoError(t, err)
	assert.Equal(t, minted, rec.Liquidity)
	env.requireSupplyPeg(t)
}

func TestSharedDepositIncreaseFailure(t *testing.T) {
	env := newTestEnv(t)
	env.amm.failIncrease = errors.New("slippage exceeded")

	_, _, err := env.lb.Deposit(context.Background(), env.newSharedDeposit(t, solana.NewWallet().PublicKey(), 1000))
	require.Error(t, err)
	assert.Equal(t, uint64(0), env.lb.TotalLiquidity())
	env.requireSupplyPeg(t)
}
