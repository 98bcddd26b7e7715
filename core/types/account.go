package types

import "stakeledger/crypto"

// Mint describes a fungible token type registered with the ledger.
type Mint struct {
	Address         crypto.Address `json:"address"`
	Decimals        uint8          `json:"decimals"`
	Supply          uint64         `json:"supply"`
	MintAuthority   crypto.Address `json:"mintAuthority"`
	FreezeAuthority crypto.Address `json:"freezeAuthority"`
}

// Clone returns a copy of the mint that callers may mutate freely.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// TokenAccount holds a balance of a single mint. Authority is the identity
// allowed to move funds out of the account; when it equals Address the
// account is program derived and only a program signature can authorise it.
type TokenAccount struct {
	Address   crypto.Address `json:"address"`
	Mint      crypto.Address `json:"mint"`
	Authority crypto.Address `json:"authority"`
	Amount    uint64         `json:"amount"`
}

// Clone returns a copy of the account that callers may mutate freely.
func (a *TokenAccount) Clone() *TokenAccount {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// SelfAuthorised reports whether the account is its own authority.
func (a *TokenAccount) SelfAuthorised() bool {
	return a != nil && a.Authority == a.Address
}
