package types

import "stakeledger/crypto"

// Receipt records the outcome of a committed transaction.
type Receipt struct {
	TxHash   [32]byte       `json:"txHash"`
	Type     TxType         `json:"type"`
	Signer   crypto.Address `json:"signer"`
	Slot     uint64         `json:"slot"`
	Returned uint64         `json:"returned,omitempty"`
	Events   []Event        `json:"events,omitempty"`
}
