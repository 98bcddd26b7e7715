package errors

import stderrors "errors"

// Stake pool failures. Every operation returns exactly one of these (possibly
// wrapped) and leaves state untouched when it does.
var (
	ErrAlreadyInitialized = stderrors.New("stake: pool already initialized")
	ErrPoolNotInitialized = stderrors.New("stake: pool not initialized")
	ErrInvalidMint        = stderrors.New("stake: invalid mint")
	ErrMintMismatch       = stderrors.New("stake: mint mismatch")
	ErrInvalidAmount      = stderrors.New("stake: amount must be positive")
	ErrInsufficientFunds  = stderrors.New("stake: insufficient funds")
	ErrNoActivePosition   = stderrors.New("stake: no active position")
	ErrOverflow           = stderrors.New("stake: arithmetic overflow")
	ErrUnauthorized       = stderrors.New("stake: unauthorized")
	ErrEscrowOutOfBalance = stderrors.New("stake: escrow balance below principal")
)
