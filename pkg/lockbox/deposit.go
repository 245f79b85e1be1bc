package lockbox

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/whirlpool"
)

// PreparedDeposit is a validated deposit ready to be credited: the record
// identity, the liquidity delta, and where to mint the bridged tokens.
type PreparedDeposit struct {
	Position       solana.PublicKey
	PositionMint   solana.PublicKey
	CustodyAccount solana.PublicKey
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      uint64
	Recipient      solana.PublicKey
}

// DepositStrategy is one way of getting liquidity under lockbox control.
// Prepare validates the request against the ledger configuration without
// side effects; Execute performs the cross-protocol leg, if the strategy
// has one.
type DepositStrategy interface {
	Prepare(ctx context.Context, lb *Lockbox) (*PreparedDeposit, error)
	Execute(ctx context.Context, lb *Lockbox, prep *PreparedDeposit) error
}

// CustodyDeposit locks a whole position NFT: the host transfers the NFT to
// the lockbox custody account and the ledger records the position's entire
// liquidity. No liquidity instruction is issued; the position keeps earning
// in place under lockbox custody.
type CustodyDeposit struct {
	// Whirlpool the position must belong to.
	Whirlpool solana.PublicKey

	// Position account address and its decoded state.
	Position     solana.PublicKey
	PositionData *whirlpool.Position

	// Custody token account now holding the position NFT.
	CustodyAccount solana.PublicKey

	// Required tick range. Positions outside it are rejected so every locked
	// position prices liquidity identically.
	TickLowerIndex int32
	TickUpperIndex int32

	// Bridged token account credited 1:1 with the position's liquidity.
	Recipient solana.PublicKey
}

func (d *CustodyDeposit) Prepare(ctx context.Context, lb *Lockbox) (*PreparedDeposit, error) {
	pos := d.PositionData

	derived, err := whirlpool.DerivePositionPDA(pos.PositionMint)
	if err != nil {
		return nil, err
	}
	if !derived.Equals(d.Position) {
		return nil, ErrWrongPositionPDA
	}
	if !pos.Whirlpool.Equals(d.Whirlpool) {
		return nil, ErrWrongWhirlpool
	}
	if pos.TickLowerIndex != d.TickLowerIndex || pos.TickUpperIndex != d.TickUpperIndex {
		return nil, ErrOutOfRange
	}
	if pos.Liquidity.IsZero() {
		return nil, ErrLiquidityZero
	}
	if pos.Liquidity.Hi != 0 {
		return nil, ErrLiquidityOverflow
	}

	return &PreparedDeposit{
		Position:       d.Position,
		PositionMint:   pos.PositionMint,
		CustodyAccount: d.CustodyAccount,
		TickLowerIndex: pos.TickLowerIndex,
		TickUpperIndex: pos.TickUpperIndex,
		Liquidity:      pos.Liquidity.Lo,
		Recipient:      d.Recipient,
	}, nil
}

// Execute is a no-op: the NFT transfer is part of the host transaction and
// the position's liquidity is already in the pool.
func (d *CustodyDeposit) Execute(ctx context.Context, lb *Lockbox, prep *PreparedDeposit) error {
	return nil
}

// SharedDeposit adds liquidity to a position the lockbox already controls,
// funded by the depositor's token accounts. The first shared deposit
// creates the record; subsequent ones extend it.
type SharedDeposit struct {
	// Whirlpool the position must belong to.
	Whirlpool solana.PublicKey

	// Position account address and its decoded state.
	Position     solana.PublicKey
	PositionData *whirlpool.Position

	// Custody token account holding the shared position NFT.
	CustodyAccount solana.PublicKey

	// Current pool pricing state. The position must be in range at the
	// current tick, otherwise the deposit would be single-sided at a
	// different price than the locked liquidity.
	SqrtPrice        uint128.Uint128
	TickCurrentIndex int32

	// Liquidity to add. When zero, it is derived from AmountA at the
	// position's price bounds.
	Liquidity uint64
	AmountA   uint64

	// Spending caps for the two pool assets. The deposit is rejected when
	// the delta would require more than these.
	TokenMaxA uint64
	TokenMaxB uint64

	// Resolved accounts for the increaseLiquidity instruction.
	Accounts pkg.PositionAccounts

	// Bridged token account credited 1:1 with the liquidity delta.
	Recipient solana.PublicKey
}

func (d *SharedDeposit) Prepare(ctx context.Context, lb *Lockbox) (*PreparedDeposit, error) {
	pos := d.PositionData

	derived, err := whirlpool.DerivePositionPDA(pos.PositionMint)
	if err != nil {
		return nil, err
	}
	if !derived.Equals(d.Position) {
		return nil, ErrWrongPositionPDA
	}
	if !pos.Whirlpool.Equals(d.Whirlpool) {
		return nil, ErrWrongWhirlpool
	}
	if d.TickCurrentIndex < pos.TickLowerIndex || d.TickCurrentIndex >= pos.TickUpperIndex {
		return nil, ErrOutOfRange
	}

	sqrtLower, sqrtUpper, err := pos.SqrtPriceBounds()
	if err != nil {
		return nil, err
	}

	delta := d.Liquidity
	if delta == 0 {
		liquidity, err := whirlpool.LiquidityFromTokenA(d.AmountA, sqrtLower, sqrtUpper)
		if err != nil {
			return nil, err
		}
		if liquidity.Hi != 0 {
			return nil, ErrLiquidityOverflow
		}
		delta = liquidity.Lo
	}
	if delta == 0 {
		return nil, ErrLiquidityZero
	}

	// Amounts the pool will pull for delta at the current price: token A
	// above the current sqrt price, token B below it. Rounded up, as the
	// pool rounds against the depositor. At the exact lower bound the token
	// B leg is empty.
	var requiredA, requiredB uint64
	if d.SqrtPrice.Cmp(sqrtUpper) < 0 {
		requiredA, err = whirlpool.TokenAFromLiquidity(uint128.From64(delta), d.SqrtPrice, sqrtUpper, true)
		if err != nil {
			return nil, err
		}
	}
	if sqrtLower.Cmp(d.SqrtPrice) < 0 {
		requiredB, err = whirlpool.TokenBFromLiquidity(uint128.From64(delta), sqrtLower, d.SqrtPrice, true)
		if err != nil {
			return nil, err
		}
	}
	if requiredA > d.TokenMaxA || requiredB > d.TokenMaxB {
		return nil, ErrDeltaAmountOverflow
	}

	return &PreparedDeposit{
		Position:       d.Position,
		PositionMint:   pos.PositionMint,
		CustodyAccount: d.CustodyAccount,
		TickLowerIndex: pos.TickLowerIndex,
		TickUpperIndex: pos.TickUpperIndex,
		Liquidity:      delta,
		Recipient:      d.Recipient,
	}, nil
}

func (d *SharedDeposit) Execute(ctx context.Context, lb *Lockbox, prep *PreparedDeposit) error {
	return lb.pool.IncreaseLiquidity(ctx, d.Accounts, prep.Liquidity, d.TokenMaxA, d.TokenMaxB)
}

// Deposit runs a deposit strategy: validate, check the ledger can absorb
// the delta, execute the protocol leg, mint bridged tokens 1:1, then credit
// the record. The ledger is mutated only after every external call has
// succeeded.
func (lb *Lockbox) Deposit(ctx context.Context, strat DepositStrategy) (positionID uint32, minted uint64, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	prep, err := strat.Prepare(ctx, lb)
	if err != nil {
		return 0, 0, err
	}

	newTotal, err := checkedAdd(lb.totalLiquidity, prep.Liquidity)
	if err != nil {
		return 0, 0, err
	}
	existing := lb.findRecord(prep.Position)
	if existing != nil {
		if _, err := checkedAdd(existing.Liquidity, prep.Liquidity); err != nil {
			return 0, 0, err
		}
	}

	if err := strat.Execute(ctx, lb, prep); err != nil {
		return 0, 0, err
	}
	if err := lb.issuer.MintTo(ctx, prep.Recipient, prep.Liquidity); err != nil {
		return 0, 0, err
	}

	if existing != nil {
		existing.Liquidity += prep.Liquidity
		positionID = existing.ID
	} else {
		positionID = lb.nextID
		lb.nextID++
		lb.records = append(lb.records, &PositionRecord{
			ID:             positionID,
			Position:       prep.Position,
			PositionMint:   prep.PositionMint,
			CustodyAccount: prep.CustodyAccount,
			TickLowerIndex: prep.TickLowerIndex,
			TickUpperIndex: prep.TickUpperIndex,
			Liquidity:      prep.Liquidity,
		})
	}
	lb.totalLiquidity = newTotal
	lb.checkInvariant()

	lb.log.Info("deposit accepted",
		zap.Uint32("position_id", positionID),
		zap.String("position", prep.Position.String()),
		zap.Uint64("liquidity", prep.Liquidity),
		zap.Uint64("total_liquidity", lb.totalLiquidity),
	)
	return positionID, prep.Liquidity, nil
}
