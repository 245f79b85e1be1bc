package spltoken

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var TOKEN_PROGRAM_ID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// SPL token program instruction indexes.
// Reference: solana-program-library/token/program/src/instruction.rs
const (
	mintToInstruction      uint8 = 7
	burnCheckedInstruction uint8 = 15
)

// NewMintToInstruction builds the SPL MintTo instruction: mint amount base
// units of mint into dest, signed by the mint authority.
func NewMintToInstruction(mint, dest, authority solana.PublicKey, amount uint64) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(mintToInstruction); err != nil {
		return nil, fmt.Errorf("failed to write instruction index: %w", err)
	}
	if err := enc.Encode(amount); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}

	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(mint, true, false))       // 0: mint (writable)
	accounts.Append(solana.NewAccountMeta(dest, true, false))       // 1: destination token account (writable)
	accounts.Append(solana.NewAccountMeta(authority, false, true))  // 2: mint authority (signer)

	return solana.NewInstruction(TOKEN_PROGRAM_ID, accounts, buf.Bytes()), nil
}

// NewBurnCheckedInstruction builds the SPL BurnChecked instruction: burn
// amount base units from source. The decimals argument is verified against
// the mint on-chain, guarding against a wrong-mint account.
func NewBurnCheckedInstruction(source, mint, owner solana.PublicKey, amount uint64, decimals uint8) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(burnCheckedInstruction); err != nil {
		return nil, fmt.Errorf("failed to write instruction index: %w", err)
	}
	if err := enc.Encode(amount); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}
	if err := enc.WriteUint8(decimals); err != nil {
		return nil, fmt.Errorf("failed to encode decimals: %w", err)
	}

	accounts := solana.AccountMetaSlice{}
	accounts.Append(solana.NewAccountMeta(source, true, false)) // 0: source token account (writable)
	accounts.Append(solana.NewAccountMeta(mint, true, false))   // 1: mint (writable)
	accounts.Append(solana.NewAccountMeta(owner, false, true))  // 2: owner (signer)

	return solana.NewInstruction(TOKEN_PROGRAM_ID, accounts, buf.Bytes()), nil
}
