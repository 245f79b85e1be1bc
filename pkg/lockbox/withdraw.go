package lockbox

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
)

// WithdrawRequest describes one withdrawal of bridged tokens back into pool
// assets.
type WithdrawRequest struct {
	// Amount of bridged tokens to redeem, equal to the liquidity released.
	Amount uint64

	// Slippage floor for the whole withdrawal. Spread across positions
	// proportionally to each position's share of Amount.
	TokenMinA uint64
	TokenMinB uint64

	// Bridged token account the redeemed tokens are burned from.
	BridgedTokenAccount solana.PublicKey

	// Receiver of the rent reclaimed from positions closed on exhaustion.
	Receiver solana.PublicKey

	// ResolveAccounts maps a position record to the accounts its liquidity
	// instructions need. whirlpool.Client.ResolvePositionAccounts is the
	// usual implementation.
	ResolveAccounts func(PositionRecord) (pkg.PositionAccounts, error)
}

// WithdrawStep is the outcome of consuming one position.
type WithdrawStep struct {
	PositionID uint32
	Position   solana.PublicKey
	Liquidity  uint64
	AmountA    uint64
	AmountB    uint64
	Closed     bool
}

// WithdrawResult aggregates a completed withdrawal.
type WithdrawResult struct {
	Burned  uint64
	AmountA uint64
	AmountB uint64
	Steps   []WithdrawStep
}

// Withdraw redeems req.Amount bridged tokens for pool assets, consuming
// positions in the configured policy order. Per selected position: burn the
// take, refresh and collect fees, decrease liquidity, and close the position
// if it hits zero, all inside one transaction; then decrement the record.
//
// Each step commits its ledger mutation only after its transaction lands. On
// a mid-loop failure the completed steps stay committed and the returned
// result reports how far the withdrawal got; the failed step has no effect,
// so the bridged supply matches the locked liquidity at every step boundary.
func (lb *Lockbox) Withdraw(ctx context.Context, req WithdrawRequest) (WithdrawResult, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	var result WithdrawResult

	allocations, err := lb.plan(req.Amount)
	if err != nil {
		return result, err
	}
	if req.ResolveAccounts == nil {
		return result, fmt.Errorf("lockbox: withdraw request needs a ResolveAccounts resolver")
	}

	for _, alloc := range allocations {
		rec := lb.findRecord(alloc.Position)
		if rec == nil {
			return result, fmt.Errorf("%w: %d", ErrUnknownPosition, alloc.PositionID)
		}
		if alloc.Amount > rec.Liquidity {
			return result, fmt.Errorf("%w: position %d holds %d, allocated %d", ErrAmountExceedsPositionLiquidity, rec.ID, rec.Liquidity, alloc.Amount)
		}
		accounts, err := req.ResolveAccounts(*rec)
		if err != nil {
			return result, fmt.Errorf("failed to resolve accounts for position %d: %w", rec.ID, err)
		}

		burn, err := lb.issuer.BurnInstruction(req.BridgedTokenAccount, alloc.Amount)
		if err != nil {
			return result, fmt.Errorf("failed to build burn instruction for position %d: %w", rec.ID, err)
		}

		var closeReceiver *solana.PublicKey
		if alloc.Amount == rec.Liquidity {
			receiver := req.Receiver
			closeReceiver = &receiver
		}

		minA := proportionalMin(req.TokenMinA, alloc.Amount, req.Amount)
		minB := proportionalMin(req.TokenMinB, alloc.Amount, req.Amount)
		amountA, amountB, err := lb.pool.WithdrawStep(ctx, accounts, alloc.Amount, minA, minB, []solana.Instruction{burn}, closeReceiver)
		if err != nil {
			return result, fmt.Errorf("failed withdrawal step for position %d: %w", rec.ID, err)
		}

		newRecLiquidity, err := checkedSub(rec.Liquidity, alloc.Amount)
		if err != nil {
			return result, err
		}
		newTotal, err := checkedSub(lb.totalLiquidity, alloc.Amount)
		if err != nil {
			return result, err
		}

		closed := false
		if newRecLiquidity == 0 {
			lb.removeRecord(rec.ID)
			closed = true
		} else {
			rec.Liquidity = newRecLiquidity
		}
		lb.totalLiquidity = newTotal
		lb.checkInvariant()

		result.Burned += alloc.Amount
		result.AmountA += amountA
		result.AmountB += amountB
		result.Steps = append(result.Steps, WithdrawStep{
			PositionID: rec.ID,
			Position:   rec.Position,
			Liquidity:  alloc.Amount,
			AmountA:    amountA,
			AmountB:    amountB,
			Closed:     closed,
		})

		lb.log.Info("withdrawal step",
			zap.Uint32("position_id", rec.ID),
			zap.Uint64("liquidity", alloc.Amount),
			zap.Uint64("amount_a", amountA),
			zap.Uint64("amount_b", amountB),
			zap.Bool("closed", closed),
			zap.Uint64("total_liquidity", lb.totalLiquidity),
		)
	}

	return result, nil
}

// removeRecord drops the record with the given id, preserving insertion
// order of the rest. Caller holds lb.mu.
func (lb *Lockbox) removeRecord(id uint32) {
	for i, rec := range lb.records {
		if rec.ID == id {
			lb.records = append(lb.records[:i], lb.records[i+1:]...)
			return
		}
	}
}

// proportionalMin scales min by take/total without intermediate overflow.
// take <= total keeps the 128-bit quotient within 64 bits.
func proportionalMin(min, take, total uint64) uint64 {
	if total == 0 || take == total {
		return min
	}
	hi, lo := bits.Mul64(min, take)
	q, _ := bits.Div64(hi, lo, total)
	return q
}
