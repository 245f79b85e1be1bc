package sol

import (
	"context"
	"log"
	"strconv"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
)

// GetUserTokenBalance returns the balance of the user's first token account
// for the given mint, or zero when none exists.
func (t *Client) GetUserTokenBalance(ctx context.Context, user solana.PublicKey, tokenMint solana.PublicKey) (uint64, error) {
	acc, err := t.RpcClient.GetTokenAccountsByOwner(ctx, user,
		&rpc.GetTokenAccountsConfig{Mint: tokenMint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Encoding: "jsonParsed",
		},
	)
	if err != nil {
		return 0, err
	}
	if len(acc.Value) == 0 {
		return 0, nil
	}
	balance, err := t.RpcClient.GetTokenAccountBalance(ctx, acc.Value[0].Pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(balance.Value.Amount, 10, 64)
}

func (t *Client) SelectOrCreateSPLTokenAccount(ctx context.Context, privateKey solana.PrivateKey, tokenMint solana.PublicKey) (solana.PublicKey, error) {
	user := privateKey.PublicKey()
	acc, err := t.RpcClient.GetTokenAccountsByOwner(ctx, user,
		&rpc.GetTokenAccountsConfig{Mint: tokenMint.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Encoding: "jsonParsed",
		},
	)
	if err != nil {
		log.Printf("GetTokenAccountsByOwner err: %v", err)
		return solana.PublicKey{}, err
	}
	if len(acc.Value) > 0 {
		return acc.Value[0].Pubkey, nil
	}

	// Find ATA address (this will always return a valid PDA)
	ataAddress, _, err := solana.FindAssociatedTokenAddress(user, tokenMint)
	if err != nil {
		log.Printf("FindAssociatedTokenAddress err: %v", err)
		return solana.PublicKey{}, err
	}
	instructions := make([]solana.Instruction, 0)
	createAtaInst, err := associatedtokenaccount.NewCreateInstruction(
		user,
		user,
		tokenMint,
	).ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, err
	}
	instructions = append(instructions, createAtaInst)

	if len(instructions) == 0 {
		return ataAddress, nil
	} else {
		latestBlockhash, err := t.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
		if err != nil {
			log.Printf("Failed to get latest blockhash: %v", err)
			return solana.PublicKey{}, err
		}
		signers := []solana.PrivateKey{privateKey}
		_, err = t.SendTx(ctx, latestBlockhash.Value.Blockhash, signers, instructions, false)
		if err != nil {
			log.Printf("Failed to send transaction: %v", err)
			return solana.PublicKey{}, err
		}
		return ataAddress, nil
	}
}
