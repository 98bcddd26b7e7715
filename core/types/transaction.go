package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"stakeledger/crypto"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeCreateMint         TxType = 0x01 // Register a new mint with the signer as mint authority
	TxTypeCreateTokenAccount TxType = 0x02 // Create the associated token account of To for Mint
	TxTypeMintTo             TxType = 0x03 // Mint Amount into token account To
	TxTypeTransfer           TxType = 0x04 // Move Amount from the signer's associated account to token account To
	TxTypeInitStakepool      TxType = 0x10 // Bootstrap the singleton stake pool for Mint
	TxTypeStake              TxType = 0x11 // Stake Amount of Mint
	TxTypeUnstake            TxType = 0x12 // Withdraw the full position plus its reward share
)

var txTypeNames = map[TxType]string{
	TxTypeCreateMint:         "createMint",
	TxTypeCreateTokenAccount: "createTokenAccount",
	TxTypeMintTo:             "mintTo",
	TxTypeTransfer:           "transfer",
	TxTypeInitStakepool:      "initStakepool",
	TxTypeStake:              "stake",
	TxTypeUnstake:            "unstake",
}

func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// Valid reports whether the transaction type is recognised.
func (t TxType) Valid() bool {
	_, ok := txTypeNames[t]
	return ok
}

var (
	errUnsigned     = errors.New("transaction: missing signature")
	txSigningDomain = []byte("stakeledger/tx/v1")
)

// Transaction is a single signed instruction submitted to the ledger. Fields
// that do not apply to the transaction type are left zero.
type Transaction struct {
	Type            TxType         `json:"type"`
	Nonce           uint64         `json:"nonce"`
	Mint            crypto.Address `json:"mint"`
	To              crypto.Address `json:"to"`
	Amount          uint64         `json:"amount"`
	Decimals        uint8          `json:"decimals"`
	FreezeAuthority crypto.Address `json:"freezeAuthority"`
	Signature       []byte         `json:"signature"`

	from *crypto.Address
}

type txPayload struct {
	Domain          []byte
	Type            TxType
	Nonce           uint64
	Mint            crypto.Address
	To              crypto.Address
	Amount          uint64
	Decimals        uint8
	FreezeAuthority crypto.Address
}

// Hash returns the keccak256 digest of the signing payload.
func (tx *Transaction) Hash() ([32]byte, error) {
	var out [32]byte
	encoded, err := rlp.EncodeToBytes(&txPayload{
		Domain:          txSigningDomain,
		Type:            tx.Type,
		Nonce:           tx.Nonce,
		Mint:            tx.Mint,
		To:              tx.To,
		Amount:          tx.Amount,
		Decimals:        tx.Decimals,
		FreezeAuthority: tx.FreezeAuthority,
	})
	if err != nil {
		return out, err
	}
	copy(out[:], crypto.Keccak256(encoded))
	return out, nil
}

// Sign attaches a recoverable signature produced by key.
func (tx *Transaction) Sign(key *crypto.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := key.Sign(hash[:])
	if err != nil {
		return err
	}
	tx.Signature = sig
	tx.from = nil
	return nil
}

// From recovers the signer address from the attached signature.
func (tx *Transaction) From() (crypto.Address, error) {
	if tx.from != nil {
		return *tx.from, nil
	}
	if len(tx.Signature) == 0 {
		return crypto.Address{}, errUnsigned
	}
	hash, err := tx.Hash()
	if err != nil {
		return crypto.Address{}, err
	}
	addr, err := crypto.RecoverAddress(hash[:], tx.Signature)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("transaction: recover signer: %w", err)
	}
	tx.from = &addr
	return addr, nil
}

// Encode serialises the transaction, signature included, for transport or
// storage.
func (tx *Transaction) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

// DecodeTransaction parses the output of Encode.
func DecodeTransaction(data []byte) (*Transaction, error) {
	tx := new(Transaction)
	if err := rlp.DecodeBytes(data, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
