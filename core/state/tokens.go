package state

import (
	"fmt"

	"stakeledger/core/types"
	"stakeledger/crypto"
)

var (
	tokenMintPrefix    = []byte("token/mint/")
	tokenAccountPrefix = []byte("token/account/")
)

func tokenMintKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), tokenMintPrefix...), addr[:]...)
}

func tokenAccountKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), tokenAccountPrefix...), addr[:]...)
}

// TokenMintGet loads the mint registered at addr. A missing mint returns
// (nil, false, nil).
func (m *Manager) TokenMintGet(addr crypto.Address) (*types.Mint, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("token: state manager not initialised")
	}
	var stored types.Mint
	ok, err := m.KVGet(tokenMintKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

// TokenMintPut persists the mint record.
func (m *Manager) TokenMintPut(mint *types.Mint) error {
	if m == nil {
		return fmt.Errorf("token: state manager not initialised")
	}
	if mint == nil || mint.Address.IsZero() {
		return fmt.Errorf("token: mint address required")
	}
	return m.KVPut(tokenMintKey(mint.Address), mint.Clone())
}

// TokenAccountGet loads the token account stored at addr. A missing account
// returns (nil, false, nil).
func (m *Manager) TokenAccountGet(addr crypto.Address) (*types.TokenAccount, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("token: state manager not initialised")
	}
	var stored types.TokenAccount
	ok, err := m.KVGet(tokenAccountKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

// TokenAccountPut persists the token account.
func (m *Manager) TokenAccountPut(account *types.TokenAccount) error {
	if m == nil {
		return fmt.Errorf("token: state manager not initialised")
	}
	if account == nil || account.Address.IsZero() {
		return fmt.Errorf("token: account address required")
	}
	if account.Mint.IsZero() {
		return fmt.Errorf("token: account mint required")
	}
	return m.KVPut(tokenAccountKey(account.Address), account.Clone())
}
