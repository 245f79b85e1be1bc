package whirlpool

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"lukechampine.com/uint128"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/sol"
)

// Client drives liquidity instructions against one Whirlpool pool and
// implements pkg.AMMPool. It holds the decoded pool state plus the token
// accounts that receive withdrawn assets and collected fees.
type Client struct {
	solClient *sol.Client
	signer    solana.PrivateKey

	poolAddress solana.PublicKey
	pool        *Pool

	// Signer-owned accounts for the pool's two assets.
	tokenOwnerAccountA solana.PublicKey
	tokenOwnerAccountB solana.PublicKey

	// Simulate transactions instead of submitting them.
	simulate bool
}

// NewClient fetches and decodes the pool account, failing fast on a wrong
// address rather than at the first instruction.
func NewClient(ctx context.Context, solClient *sol.Client, signer solana.PrivateKey, poolAddress, tokenOwnerAccountA, tokenOwnerAccountB solana.PublicKey, simulate bool) (*Client, error) {
	c := &Client{
		solClient:          solClient,
		signer:             signer,
		poolAddress:        poolAddress,
		tokenOwnerAccountA: tokenOwnerAccountA,
		tokenOwnerAccountB: tokenOwnerAccountB,
		simulate:           simulate,
	}
	if err := c.RefreshPoolState(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// RefreshPoolState re-reads the pool account. Sqrt price and current tick
// move with every swap, so callers refresh before price-sensitive checks.
func (c *Client) RefreshPoolState(ctx context.Context) error {
	account, err := c.solClient.RpcClient.GetAccountInfo(ctx, c.poolAddress)
	if err != nil {
		return fmt.Errorf("failed to fetch whirlpool account %s: %w", c.poolAddress, err)
	}
	pool := &Pool{}
	if err := pool.Decode(account.Value.Data.GetBinary()); err != nil {
		return fmt.Errorf("failed to decode whirlpool account %s: %w", c.poolAddress, err)
	}
	c.pool = pool
	return nil
}

// Pool returns the last fetched pool state.
func (c *Client) Pool() *Pool {
	return c.pool
}

// PoolAddress returns the pool account address.
func (c *Client) PoolAddress() solana.PublicKey {
	return c.poolAddress
}

// FetchPosition fetches and decodes a position account.
func (c *Client) FetchPosition(ctx context.Context, address solana.PublicKey) (*Position, error) {
	account, err := c.solClient.RpcClient.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch position account %s: %w", address, err)
	}
	position := &Position{}
	if err := position.Decode(account.Value.Data.GetBinary()); err != nil {
		return nil, fmt.Errorf("failed to decode position account %s: %w", address, err)
	}
	return position, nil
}

// ResolvePositionAccounts builds the account bundle for a decoded position
// held in tokenAccount.
func (c *Client) ResolvePositionAccounts(position *Position, tokenAccount solana.PublicKey) (pkg.PositionAccounts, error) {
	positionPDA, tickArrayLower, tickArrayUpper, err := DerivePositionAccounts(
		c.poolAddress, position.PositionMint,
		position.TickLowerIndex, position.TickUpperIndex,
		c.pool.TickSpacing,
	)
	if err != nil {
		return pkg.PositionAccounts{}, err
	}
	return pkg.PositionAccounts{
		Position:             positionPDA,
		PositionMint:         position.PositionMint,
		PositionTokenAccount: tokenAccount,
		TickArrayLower:       tickArrayLower,
		TickArrayUpper:       tickArrayUpper,
	}, nil
}

func (c *Client) liquidityAccounts(accts pkg.PositionAccounts) LiquidityInstructionAccounts {
	return LiquidityInstructionAccounts{
		Whirlpool:            c.poolAddress,
		PositionAuthority:    c.signer.PublicKey(),
		Position:             accts.Position,
		PositionTokenAccount: accts.PositionTokenAccount,
		TokenOwnerAccountA:   c.tokenOwnerAccountA,
		TokenOwnerAccountB:   c.tokenOwnerAccountB,
		TokenVaultA:          c.pool.TokenVaultA,
		TokenVaultB:          c.pool.TokenVaultB,
		TickArrayLower:       accts.TickArrayLower,
		TickArrayUpper:       accts.TickArrayUpper,
	}
}

// submit signs and sends (or simulates) one transaction carrying all given
// instructions, so they land or fail together.
func (c *Client) submit(ctx context.Context, instructions ...solana.Instruction) error {
	recent, err := c.solClient.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	signers := []solana.PrivateKey{c.signer}
	_, err = c.solClient.SendTx(ctx, recent.Value.Blockhash, signers, instructions, c.simulate)
	return err
}

// tokenBalance reads the current balance of an SPL token account.
func (c *Client) tokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := c.solClient.RpcClient.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get token balance of %s: %w", account, err)
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance %q: %w", res.Value.Amount, err)
	}
	return amount, nil
}

// IncreaseLiquidity implements pkg.AMMPool.
func (c *Client) IncreaseLiquidity(ctx context.Context, accts pkg.PositionAccounts, liquidityDelta, tokenMaxA, tokenMaxB uint64) error {
	instruction, err := NewIncreaseLiquidityInstruction(
		c.liquidityAccounts(accts),
		uint128.From64(liquidityDelta),
		tokenMaxA, tokenMaxB,
	)
	if err != nil {
		return fmt.Errorf("failed to build increaseLiquidity instruction: %w", err)
	}
	return c.submit(ctx, instruction)
}

// WithdrawStep implements pkg.AMMPool. Every instruction of the step rides
// one transaction: the prelude (bridged token burn), fee refresh and
// collection, the liquidity decrease, and the optional close. The released
// amounts are read back as the balance delta of the owner accounts since
// the instructions themselves return nothing.
func (c *Client) WithdrawStep(ctx context.Context, accts pkg.PositionAccounts, liquidityDelta, tokenMinA, tokenMinB uint64, prelude []solana.Instruction, closeReceiver *solana.PublicKey) (amountA, amountB uint64, err error) {
	var balanceABefore, balanceBBefore uint64
	if !c.simulate {
		balanceABefore, err = c.tokenBalance(ctx, c.tokenOwnerAccountA)
		if err != nil {
			return 0, 0, err
		}
		balanceBBefore, err = c.tokenBalance(ctx, c.tokenOwnerAccountB)
		if err != nil {
			return 0, 0, err
		}
	}

	instructions := make([]solana.Instruction, 0, len(prelude)+4)
	instructions = append(instructions, prelude...)

	update, err := NewUpdateFeesAndRewardsInstruction(
		c.poolAddress, accts.Position,
		accts.TickArrayLower, accts.TickArrayUpper,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build updateFeesAndRewards instruction: %w", err)
	}
	instructions = append(instructions, update)

	collect, err := NewCollectFeesInstruction(c.liquidityAccounts(accts))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build collectFees instruction: %w", err)
	}
	instructions = append(instructions, collect)

	decrease, err := NewDecreaseLiquidityInstruction(
		c.liquidityAccounts(accts),
		uint128.From64(liquidityDelta),
		tokenMinA, tokenMinB,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build decreaseLiquidity instruction: %w", err)
	}
	instructions = append(instructions, decrease)

	if closeReceiver != nil {
		closeIx, err := NewClosePositionInstruction(
			c.signer.PublicKey(), *closeReceiver,
			accts.Position, accts.PositionMint, accts.PositionTokenAccount,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to build closePosition instruction: %w", err)
		}
		instructions = append(instructions, closeIx)
	}

	if err := c.submit(ctx, instructions...); err != nil {
		return 0, 0, err
	}
	if c.simulate {
		// Simulation moves no funds; report the slippage floor.
		return tokenMinA, tokenMinB, nil
	}

	balanceAAfter, err := c.tokenBalance(ctx, c.tokenOwnerAccountA)
	if err != nil {
		return 0, 0, err
	}
	balanceBAfter, err := c.tokenBalance(ctx, c.tokenOwnerAccountB)
	if err != nil {
		return 0, 0, err
	}
	return balanceAAfter - balanceABefore, balanceBAfter - balanceBBefore, nil
}

var _ pkg.AMMPool = (*Client)(nil)
