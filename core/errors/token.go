package errors

import stderrors "errors"

// Token collaborator failures.
var (
	ErrAccountNotFound = stderrors.New("token: account not found")
	ErrAccountExists   = stderrors.New("token: account already exists")
	ErrMintNotFound    = stderrors.New("token: mint not found")
	ErrMintExists      = stderrors.New("token: mint already exists")
)

// Ledger failures raised before a transaction reaches a module.
var (
	ErrInvalidSignature = stderrors.New("ledger: invalid signature")
	ErrBadNonce         = stderrors.New("ledger: unexpected nonce")
	ErrUnknownTxType    = stderrors.New("ledger: unknown transaction type")
)
