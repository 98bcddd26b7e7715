package types

import (
	"testing"

	"stakeledger/crypto"
)

func TestTransactionSignAndRecover(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tx := &Transaction{Type: TxTypeStake, Nonce: 3, Amount: 42}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	from, err := tx.From()
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	if from != key.Address() {
		t.Fatalf("recovered %s want %s", from, key.Address())
	}
}

func TestTransactionTamperChangesSigner(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tx := &Transaction{Type: TxTypeStake, Nonce: 0, Amount: 10}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := &Transaction{Type: tx.Type, Nonce: tx.Nonce, Amount: 1_000, Signature: tx.Signature}
	from, err := tampered.From()
	if err == nil && from == key.Address() {
		t.Fatalf("tampered transaction must not recover the original signer")
	}
}

func TestTransactionUnsigned(t *testing.T) {
	tx := &Transaction{Type: TxTypeUnstake}
	if _, err := tx.From(); err == nil {
		t.Fatalf("expected unsigned transaction to fail recovery")
	}
}

func TestTransactionEncodeDecode(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tx := &Transaction{Type: TxTypeCreateMint, Nonce: 1, Decimals: 8, FreezeAuthority: key.Address()}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	encoded, err := tx.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	from, err := decoded.From()
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	if from != key.Address() || decoded.Decimals != 8 || decoded.FreezeAuthority != key.Address() {
		t.Fatalf("decoded transaction mismatch: %+v", decoded)
	}
}

func TestTxTypeNames(t *testing.T) {
	if TxTypeUnstake.String() != "unstake" {
		t.Fatalf("unexpected name %s", TxTypeUnstake)
	}
	if TxType(0x7f).Valid() {
		t.Fatalf("0x7f must not be a valid type")
	}
}
