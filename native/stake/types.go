package stake

import "stakeledger/crypto"

// StakePool is the singleton record coordinating every position. Escrow is
// the program owned token account holding the shared reward pot; it lives at
// the same derived identity as the pool record.
type StakePool struct {
	Address     crypto.Address
	Bump        uint8
	Mint        crypto.Address
	Escrow      crypto.Address
	TotalStaked uint64
	Initializer crypto.Address
	CreatedSlot uint64
}

// Clone returns a copy of the pool record.
func (p *StakePool) Clone() *StakePool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// StakePosition is a depositor's record. Escrow custodies exactly Principal
// units of the pool mint. A zero principal marks a closed position that a
// later stake may reopen.
type StakePosition struct {
	Address     crypto.Address
	Bump        uint8
	Owner       crypto.Address
	Escrow      crypto.Address
	EscrowBump  uint8
	Principal   uint64
	StakedSlot  uint64
	UpdatedSlot uint64
}

// Clone returns a copy of the position record.
func (p *StakePosition) Clone() *StakePosition {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Active reports whether the position currently holds principal.
func (p *StakePosition) Active() bool {
	return p != nil && p.Principal > 0
}

// UnstakeResult splits the amount paid back by an unstake.
type UnstakeResult struct {
	Principal uint64
	Reward    uint64
	Returned  uint64
}
