package events

import (
	"strconv"

	"stakeledger/core/types"
	"stakeledger/crypto"
)

const (
	TypeTokenMintCreated    = "token.mintCreated"
	TypeTokenAccountCreated = "token.accountCreated"
	TypeTokenMinted         = "token.minted"
	TypeTokenTransfer       = "token.transfer"
)

// TokenMintCreated records a new mint.
type TokenMintCreated struct {
	Mint      crypto.Address
	Decimals  uint8
	Authority crypto.Address
}

// EventType satisfies the Event interface.
func (TokenMintCreated) EventType() string { return TypeTokenMintCreated }

// Event converts the structured payload into a broadcastable event.
func (e TokenMintCreated) Event() *types.Event {
	return &types.Event{Type: TypeTokenMintCreated, Attributes: map[string]string{
		"mint":      e.Mint.String(),
		"decimals":  strconv.FormatUint(uint64(e.Decimals), 10),
		"authority": e.Authority.String(),
	}}
}

// TokenAccountCreated records a new token account.
type TokenAccountCreated struct {
	Account   crypto.Address
	Mint      crypto.Address
	Authority crypto.Address
}

// EventType satisfies the Event interface.
func (TokenAccountCreated) EventType() string { return TypeTokenAccountCreated }

// Event converts the structured payload into a broadcastable event.
func (e TokenAccountCreated) Event() *types.Event {
	return &types.Event{Type: TypeTokenAccountCreated, Attributes: map[string]string{
		"account":   e.Account.String(),
		"mint":      e.Mint.String(),
		"authority": e.Authority.String(),
	}}
}

// TokenMinted records new supply credited to an account.
type TokenMinted struct {
	Mint   crypto.Address
	To     crypto.Address
	Amount uint64
}

// EventType satisfies the Event interface.
func (TokenMinted) EventType() string { return TypeTokenMinted }

// Event converts the structured payload into a broadcastable event.
func (e TokenMinted) Event() *types.Event {
	return &types.Event{Type: TypeTokenMinted, Attributes: map[string]string{
		"mint":   e.Mint.String(),
		"to":     e.To.String(),
		"amount": strconv.FormatUint(e.Amount, 10),
	}}
}

// TokenTransfer records a balance movement between two accounts.
type TokenTransfer struct {
	Mint   crypto.Address
	From   crypto.Address
	To     crypto.Address
	Amount uint64
}

// EventType satisfies the Event interface.
func (TokenTransfer) EventType() string { return TypeTokenTransfer }

// Event converts the structured payload into a broadcastable event.
func (e TokenTransfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"mint":   e.Mint.String(),
		"from":   e.From.String(),
		"to":     e.To.String(),
		"amount": strconv.FormatUint(e.Amount, 10),
	}}
}
