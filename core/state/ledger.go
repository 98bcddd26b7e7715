package state

import (
	"fmt"

	"stakeledger/crypto"
)

var (
	ledgerNoncePrefix = []byte("ledger/nonce/")
	ledgerSlotKey     = []byte("ledger/slot")
)

func ledgerNonceKey(addr crypto.Address) []byte {
	return append(append([]byte(nil), ledgerNoncePrefix...), addr[:]...)
}

// AccountNonce returns the next expected transaction nonce for addr.
func (m *Manager) AccountNonce(addr crypto.Address) (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(ledgerNonceKey(addr), &nonce); err != nil {
		return 0, fmt.Errorf("ledger: load nonce: %w", err)
	}
	return nonce, nil
}

// SetAccountNonce stores the next expected transaction nonce for addr.
func (m *Manager) SetAccountNonce(addr crypto.Address, nonce uint64) error {
	return m.KVPut(ledgerNonceKey(addr), nonce)
}

// Slot returns the number of committed transactions.
func (m *Manager) Slot() (uint64, error) {
	var slot uint64
	if _, err := m.KVGet(ledgerSlotKey, &slot); err != nil {
		return 0, fmt.Errorf("ledger: load slot: %w", err)
	}
	return slot, nil
}

// SetSlot stores the committed transaction counter.
func (m *Manager) SetSlot(slot uint64) error {
	return m.KVPut(ledgerSlotKey, slot)
}
