package state

import (
	"fmt"

	"stakeledger/crypto"
	"stakeledger/native/stake"
)

var (
	stakePoolPrefix     = []byte("stake/pool/")
	stakePositionPrefix = []byte("stake/position/")
)

func stakePoolKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), stakePoolPrefix...), addr[:]...)
}

func stakePositionKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), stakePositionPrefix...), addr[:]...)
}

// StakePoolGet loads the pool record stored at the derived pool address. A
// missing record returns (nil, false, nil).
func (m *Manager) StakePoolGet(addr crypto.Address) (*stake.StakePool, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("stake: state manager not initialised")
	}
	var stored stake.StakePool
	ok, err := m.KVGet(stakePoolKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

// StakePoolPut persists the pool record under its own address.
func (m *Manager) StakePoolPut(pool *stake.StakePool) error {
	if m == nil {
		return fmt.Errorf("stake: state manager not initialised")
	}
	if pool == nil || pool.Address.IsZero() {
		return fmt.Errorf("stake: pool address required")
	}
	return m.KVPut(stakePoolKey(pool.Address), pool.Clone())
}

// StakePositionGet loads the position record stored at the derived
// stake_info address. A missing record returns (nil, false, nil).
func (m *Manager) StakePositionGet(addr crypto.Address) (*stake.StakePosition, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("stake: state manager not initialised")
	}
	var stored stake.StakePosition
	ok, err := m.KVGet(stakePositionKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

// StakePositionPut persists the position record under its own address.
func (m *Manager) StakePositionPut(position *stake.StakePosition) error {
	if m == nil {
		return fmt.Errorf("stake: state manager not initialised")
	}
	if position == nil || position.Address.IsZero() {
		return fmt.Errorf("stake: position address required")
	}
	if position.Owner.IsZero() {
		return fmt.Errorf("stake: position owner required")
	}
	return m.KVPut(stakePositionKey(position.Address), position.Clone())
}
