package spltoken

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/valory-xyz/legacy-lockbox-solana/pkg"
	"github.com/valory-xyz/legacy-lockbox-solana/pkg/sol"
)

// Issuer mints and burns one SPL token mint and implements pkg.TokenIssuer.
// The signer must hold the mint authority; burns additionally require the
// signer to own (or be delegate of) the source account.
type Issuer struct {
	solClient *sol.Client
	signer    solana.PrivateKey
	mint      solana.PublicKey
	decimals  uint8
	simulate  bool
}

func NewIssuer(solClient *sol.Client, signer solana.PrivateKey, mint solana.PublicKey, decimals uint8, simulate bool) *Issuer {
	return &Issuer{
		solClient: solClient,
		signer:    signer,
		mint:      mint,
		decimals:  decimals,
		simulate:  simulate,
	}
}

// Mint returns the token mint address.
func (i *Issuer) Mint() solana.PublicKey {
	return i.mint
}

func (i *Issuer) submit(ctx context.Context, instruction solana.Instruction) error {
	recent, err := i.solClient.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	signers := []solana.PrivateKey{i.signer}
	_, err = i.solClient.SendTx(ctx, recent.Value.Blockhash, signers, []solana.Instruction{instruction}, i.simulate)
	return err
}

// MintTo implements pkg.TokenIssuer.
func (i *Issuer) MintTo(ctx context.Context, dest solana.PublicKey, amount uint64) error {
	instruction, err := NewMintToInstruction(i.mint, dest, i.signer.PublicKey(), amount)
	if err != nil {
		return fmt.Errorf("failed to build mintTo instruction: %w", err)
	}
	return i.submit(ctx, instruction)
}

// BurnInstruction implements pkg.TokenIssuer. The instruction is not
// submitted here; the caller places it in the transaction whose effects the
// burn must share.
func (i *Issuer) BurnInstruction(source solana.PublicKey, amount uint64) (solana.Instruction, error) {
	instruction, err := NewBurnCheckedInstruction(source, i.mint, i.signer.PublicKey(), amount, i.decimals)
	if err != nil {
		return nil, fmt.Errorf("failed to build burnChecked instruction: %w", err)
	}
	return instruction, nil
}

// Supply implements pkg.TokenIssuer.
func (i *Issuer) Supply(ctx context.Context) (uint64, error) {
	res, err := i.solClient.RpcClient.GetTokenSupply(ctx, i.mint, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get token supply of %s: %w", i.mint, err)
	}
	supply, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token supply %q: %w", res.Value.Amount, err)
	}
	return supply, nil
}

var _ pkg.TokenIssuer = (*Issuer)(nil)
