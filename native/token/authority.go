package token

import (
	"stakeledger/core/types"
	"stakeledger/crypto"
)

// Authority is the proof presented to move funds out of a token account.
type Authority interface {
	Authorises(account *types.TokenAccount) bool
}

type signerAuthority crypto.Address

// Signer returns the authority of a verified transaction signer. It cannot
// move funds out of a self-authorised (program derived) account, even when
// the signer address matches.
func Signer(addr crypto.Address) Authority {
	return signerAuthority(addr)
}

func (s signerAuthority) Authorises(account *types.TokenAccount) bool {
	if account == nil || account.SelfAuthorised() {
		return false
	}
	return crypto.Address(s) == account.Authority
}

type programAuthority struct {
	sig crypto.ProgramSignature
}

// Program returns the authority a program holds over one of its derived
// addresses.
func Program(sig crypto.ProgramSignature) Authority {
	return programAuthority{sig: sig}
}

func (p programAuthority) Authorises(account *types.TokenAccount) bool {
	if account == nil {
		return false
	}
	return p.sig.Verify(account.Authority)
}
