package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/lockbox"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/sol"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/spltoken"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/whirlpool"
	"github.com/valory-xyz/legacy-lockbox-solana/utils"
)

const (
	// OLAS-SOL full-range whirlpool and its bridged token
	defaultWhirlpoolAddr   = "5dMKUYJDsjZkAD3wiV3ViQkuq9pSmWQ5eAzcQLtDnUT3"
	defaultBridgedMintAddr = "Ez3nzG9ofodYCvEmw73XhQ87LWNYVRM2s7diB5tBZPyM"

	// Full-range tick bounds accepted for custody deposits
	fullRangeLowerTick = -443584
	fullRangeUpperTick = 443584
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Load .env if present
	utils.LoadEnv()

	// Initialize private key from environment
	privateKeyStr := os.Getenv("SOLANA_PRIVATE_KEY")
	if privateKeyStr == "" {
		log.Fatalf("SOLANA_PRIVATE_KEY is required")
	}
	privateKey := solana.MustPrivateKeyFromBase58(privateKeyStr)
	log.Printf("PublicKey: %v", privateKey.PublicKey())

	positionAddrStr := os.Getenv("LOCKBOX_POSITION_ADDRESS")
	if positionAddrStr == "" {
		log.Fatalf("LOCKBOX_POSITION_ADDRESS is required (the whirlpool position to lock)")
	}
	positionAddr := solana.MustPublicKeyFromBase58(positionAddrStr)

	whirlpoolAddr := solana.MustPublicKeyFromBase58(envOr("LOCKBOX_WHIRLPOOL", defaultWhirlpoolAddr))
	bridgedMint := solana.MustPublicKeyFromBase58(envOr("LOCKBOX_BRIDGED_MINT", defaultBridgedMintAddr))
	simulate := os.Getenv("LOCKBOX_SEND_TX") == "" // submit only when explicitly asked

	ctx := context.Background()
	mainnetRPC := envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	mainnetWSRPC := envOr("SOLANA_WS_RPC_URL", "wss://api.mainnet-beta.solana.com")

	solClient, err := sol.NewClient(ctx, mainnetRPC, mainnetWSRPC)
	if err != nil {
		log.Fatalf("Failed to create solana client: %v", err)
	}
	defer solClient.Close()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Pool client needs owner accounts for the two pool assets; withdrawn
	// funds and collected fees land there.
	poolProbe, err := whirlpool.NewClient(ctx, solClient, privateKey, whirlpoolAddr, solana.PublicKey{}, solana.PublicKey{}, true)
	if err != nil {
		log.Fatalf("Failed to fetch whirlpool %v: %v", whirlpoolAddr, err)
	}
	tokenAccountA, err := solClient.SelectOrCreateSPLTokenAccount(ctx, privateKey, poolProbe.Pool().TokenMintA)
	if err != nil {
		log.Fatalf("Failed to prepare token A account: %v", err)
	}
	tokenAccountB, err := solClient.SelectOrCreateSPLTokenAccount(ctx, privateKey, poolProbe.Pool().TokenMintB)
	if err != nil {
		log.Fatalf("Failed to prepare token B account: %v", err)
	}
	poolClient, err := whirlpool.NewClient(ctx, solClient, privateKey, whirlpoolAddr, tokenAccountA, tokenAccountB, simulate)
	if err != nil {
		log.Fatalf("Failed to create whirlpool client: %v", err)
	}

	bridgedTokenAccount, err := solClient.SelectOrCreateSPLTokenAccount(ctx, privateKey, bridgedMint)
	if err != nil {
		log.Fatalf("Failed to prepare bridged token account: %v", err)
	}
	issuer := spltoken.NewIssuer(solClient, privateKey, bridgedMint, lockbox.BridgedTokenDecimals, simulate)

	lb := lockbox.New(bridgedMint, poolClient, issuer, lockbox.WithLogger(logger))

	// Lock the position: it must sit in the configured pool at full range.
	position, err := poolClient.FetchPosition(ctx, positionAddr)
	if err != nil {
		log.Fatalf("Failed to fetch position %v: %v", positionAddr, err)
	}
	custodyAccount, err := solClient.SelectOrCreateSPLTokenAccount(ctx, privateKey, position.PositionMint)
	if err != nil {
		log.Fatalf("Failed to resolve position token account: %v", err)
	}

	positionID, minted, err := lb.Deposit(ctx, &lockbox.CustodyDeposit{
		Whirlpool:      whirlpoolAddr,
		Position:       positionAddr,
		PositionData:   position,
		CustodyAccount: custodyAccount,
		TickLowerIndex: fullRangeLowerTick,
		TickUpperIndex: fullRangeUpperTick,
		Recipient:      bridgedTokenAccount,
	})
	if err != nil {
		log.Fatalf("Failed to deposit position: %v", err)
	}
	log.Printf("Locked position %v as record %d, minted %d bridged tokens", positionAddr, positionID, minted)

	bridgedBalance, err := solClient.GetUserTokenBalance(ctx, privateKey.PublicKey(), bridgedMint)
	if err != nil {
		log.Printf("Failed to read bridged token balance: %v", err)
	} else {
		log.Printf("Bridged token balance: %d", bridgedBalance)
	}

	// Optionally top up the locked position with funded liquidity.
	if sharedStr := os.Getenv("LOCKBOX_SHARED_LIQUIDITY"); sharedStr != "" {
		sharedLiquidity, err := strconv.ParseUint(sharedStr, 10, 64)
		if err != nil {
			log.Fatalf("Invalid LOCKBOX_SHARED_LIQUIDITY: %v", err)
		}
		if err := poolClient.RefreshPoolState(ctx); err != nil {
			log.Fatalf("Failed to refresh pool state: %v", err)
		}
		pool := poolClient.Pool()

		sqrtLower, sqrtUpper, err := position.SqrtPriceBounds()
		if err != nil {
			log.Fatalf("Failed to compute position price bounds: %v", err)
		}

		// Spending caps with 1% headroom over the amounts the pool will pull
		// at the current price. Each leg is empty at its price bound.
		liquidity := uint128.From64(sharedLiquidity)
		var maxA, maxB uint64
		if pool.SqrtPrice.Cmp(sqrtUpper) < 0 {
			requiredA, err := whirlpool.TokenAFromLiquidity(liquidity, pool.SqrtPrice, sqrtUpper, true)
			if err != nil {
				log.Fatalf("Failed to compute token A requirement: %v", err)
			}
			maxA = requiredA + requiredA/100 + 1
		}
		if sqrtLower.Cmp(pool.SqrtPrice) < 0 {
			requiredB, err := whirlpool.TokenBFromLiquidity(liquidity, sqrtLower, pool.SqrtPrice, true)
			if err != nil {
				log.Fatalf("Failed to compute token B requirement: %v", err)
			}
			maxB = requiredB + requiredB/100 + 1
		}

		// Funding the SOL leg takes wrapped SOL.
		if pool.TokenMintB.Equals(sol.WSOL) && !simulate && maxB > 0 {
			if err := solClient.CoverWsol(ctx, privateKey, int64(maxB)); err != nil {
				log.Fatalf("Failed to wrap SOL: %v", err)
			}
		}

		accounts, err := poolClient.ResolvePositionAccounts(position, custodyAccount)
		if err != nil {
			log.Fatalf("Failed to resolve position accounts: %v", err)
		}
		id, sharedMinted, err := lb.Deposit(ctx, &lockbox.SharedDeposit{
			Whirlpool:        whirlpoolAddr,
			Position:         positionAddr,
			PositionData:     position,
			CustodyAccount:   custodyAccount,
			SqrtPrice:        pool.SqrtPrice,
			TickCurrentIndex: pool.TickCurrentIndex,
			Liquidity:        sharedLiquidity,
			TokenMaxA:        maxA,
			TokenMaxB:        maxB,
			Accounts:         accounts,
			Recipient:        bridgedTokenAccount,
		})
		if err != nil {
			log.Fatalf("Failed to add shared liquidity: %v", err)
		}
		log.Printf("Added %d shared liquidity to record %d, minted %d bridged tokens", sharedLiquidity, id, sharedMinted)
		minted += sharedMinted
	}

	// Preview a half withdrawal, then perform it.
	half := minted / 2
	allocations, err := lb.QueryAllocation(half)
	if err != nil {
		log.Fatalf("Failed to query allocation: %v", err)
	}
	for _, alloc := range allocations {
		log.Printf("Allocation: position %d, liquidity %d, exhausts=%v", alloc.PositionID, alloc.Amount, alloc.Exhausts)
	}

	result, err := lb.Withdraw(ctx, lockbox.WithdrawRequest{
		Amount:              half,
		BridgedTokenAccount: bridgedTokenAccount,
		Receiver:            privateKey.PublicKey(),
		ResolveAccounts: func(rec lockbox.PositionRecord) (pkg.PositionAccounts, error) {
			return poolClient.ResolvePositionAccounts(&whirlpool.Position{
				Whirlpool:      whirlpoolAddr,
				PositionMint:   rec.PositionMint,
				TickLowerIndex: rec.TickLowerIndex,
				TickUpperIndex: rec.TickUpperIndex,
			}, rec.CustodyAccount)
		},
	})
	if err != nil {
		log.Fatalf("Failed to withdraw: %v", err)
	}
	log.Printf("Withdrew %d liquidity for %d token A, %d token B across %d positions",
		result.Burned, result.AmountA, result.AmountB, len(result.Steps))
	log.Printf("Remaining locked liquidity: %d across %d positions", lb.TotalLiquidity(), lb.Len())

	// Withdrawals from a SOL pool arrive wrapped; unwrap back to native SOL.
	if poolClient.Pool().TokenMintB.Equals(sol.WSOL) && !simulate {
		if err := solClient.CloseWsol(ctx, privateKey); err != nil {
			log.Printf("Failed to unwrap WSOL: %v", err)
		}
	}
}
