package token

import (
	"errors"
	"fmt"

	stakeerr "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/types"
	"stakeledger/crypto"
)

// MaxDecimals bounds mint precision so one whole token stays representable.
const MaxDecimals = 18

var errNilState = errors.New("token engine: state not configured")

var (
	// ProgramID identifies the token program that owns associated accounts.
	ProgramID = crypto.MustBytesToAddress(crypto.Keccak256([]byte("stakeledger/token-program"))[12:])
	// AssociatedProgramID is the program under which associated token
	// accounts are derived.
	AssociatedProgramID = crypto.MustBytesToAddress(crypto.Keccak256([]byte("stakeledger/associated-token-program"))[12:])
)

type engineState interface {
	TokenMintGet(addr crypto.Address) (*types.Mint, bool, error)
	TokenMintPut(mint *types.Mint) error
	TokenAccountGet(addr crypto.Address) (*types.TokenAccount, bool, error)
	TokenAccountPut(account *types.TokenAccount) error
}

type tokenEvent interface {
	events.Event
	Event() *types.Event
}

// Engine is the token collaborator: a mint registry, a token account store
// and the only sanctioned mutator of balances.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates a token engine with a no-op emitter.
func NewEngine(state engineState) *Engine {
	return &Engine{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt tokenEvent) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// CreateMint registers a mint at addr with authority as mint authority.
func (e *Engine) CreateMint(addr crypto.Address, decimals uint8, authority, freeze crypto.Address) (*types.Mint, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if addr.IsZero() || authority.IsZero() {
		return nil, fmt.Errorf("token: mint and authority addresses required")
	}
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("token: decimals %d exceed %d", decimals, MaxDecimals)
	}
	if _, exists, err := e.state.TokenMintGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s", stakeerr.ErrMintExists, addr)
	}
	mint := &types.Mint{
		Address:         addr,
		Decimals:        decimals,
		MintAuthority:   authority,
		FreezeAuthority: freeze,
	}
	if err := e.state.TokenMintPut(mint); err != nil {
		return nil, err
	}
	e.emit(events.TokenMintCreated{Mint: addr, Decimals: decimals, Authority: authority})
	return mint.Clone(), nil
}

// Mint loads the mint registered at addr.
func (e *Engine) Mint(addr crypto.Address) (*types.Mint, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	mint, ok, err := e.state.TokenMintGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", stakeerr.ErrMintNotFound, addr)
	}
	return mint, nil
}

// Account loads the token account at addr.
func (e *Engine) Account(addr crypto.Address) (*types.TokenAccount, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	account, ok, err := e.state.TokenAccountGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", stakeerr.ErrAccountNotFound, addr)
	}
	return account, nil
}

// Balance returns the amount held at addr; a missing account holds nothing.
func (e *Engine) Balance(addr crypto.Address) (uint64, error) {
	account, err := e.Account(addr)
	if errors.Is(err, stakeerr.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}

// InitializeAccount creates an empty token account of mint at addr. The
// address must be unoccupied.
func (e *Engine) InitializeAccount(addr, mint, authority crypto.Address) (*types.TokenAccount, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if addr.IsZero() || authority.IsZero() {
		return nil, fmt.Errorf("token: account and authority addresses required")
	}
	if _, err := e.Mint(mint); err != nil {
		return nil, err
	}
	if _, exists, err := e.state.TokenAccountGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s", stakeerr.ErrAccountExists, addr)
	}
	account := &types.TokenAccount{Address: addr, Mint: mint, Authority: authority}
	if err := e.state.TokenAccountPut(account); err != nil {
		return nil, err
	}
	e.emit(events.TokenAccountCreated{Account: addr, Mint: mint, Authority: authority})
	return account.Clone(), nil
}

// EnsureAccount returns the token account at addr, creating it when absent.
// An existing account must already hold mint under authority.
func (e *Engine) EnsureAccount(addr, mint, authority crypto.Address) (*types.TokenAccount, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	existing, ok, err := e.state.TokenAccountGet(addr)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		account, err := e.InitializeAccount(addr, mint, authority)
		if err != nil {
			return nil, false, err
		}
		return account, true, nil
	}
	if existing.Mint != mint {
		return nil, false, fmt.Errorf("%w: account %s holds %s", stakeerr.ErrMintMismatch, addr, existing.Mint)
	}
	if existing.Authority != authority {
		return nil, false, fmt.Errorf("%w: account %s authority mismatch", stakeerr.ErrUnauthorized, addr)
	}
	return existing, false, nil
}

// Transfer moves amount from src to dst. Both accounts must exist and hold
// the same mint and auth must satisfy the source authority. Nothing is
// written unless every check passes.
func (e *Engine) Transfer(src, dst crypto.Address, amount uint64, auth Authority) error {
	if err := e.ready(); err != nil {
		return err
	}
	from, err := e.Account(src)
	if err != nil {
		return err
	}
	to, err := e.Account(dst)
	if err != nil {
		return err
	}
	if from.Mint != to.Mint {
		return fmt.Errorf("%w: %s -> %s", stakeerr.ErrMintMismatch, from.Mint, to.Mint)
	}
	if auth == nil || !auth.Authorises(from) {
		return fmt.Errorf("%w: transfer from %s", stakeerr.ErrUnauthorized, src)
	}
	if amount == 0 || src == dst {
		if from.Amount < amount {
			return fmt.Errorf("%w: balance %d below %d", stakeerr.ErrInsufficientFunds, from.Amount, amount)
		}
		return nil
	}
	if from.Amount < amount {
		return fmt.Errorf("%w: balance %d below %d", stakeerr.ErrInsufficientFunds, from.Amount, amount)
	}
	credited := to.Amount + amount
	if credited < to.Amount {
		return fmt.Errorf("%w: credit to %s", stakeerr.ErrOverflow, dst)
	}
	from.Amount -= amount
	to.Amount = credited
	if err := e.state.TokenAccountPut(from); err != nil {
		return err
	}
	if err := e.state.TokenAccountPut(to); err != nil {
		return err
	}
	e.emit(events.TokenTransfer{Mint: from.Mint, From: src, To: dst, Amount: amount})
	return nil
}

// MintTo credits amount of new supply to dst. signer must be the mint
// authority.
func (e *Engine) MintTo(mintAddr, dst crypto.Address, amount uint64, signer crypto.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	mint, err := e.Mint(mintAddr)
	if err != nil {
		return err
	}
	if mint.MintAuthority != signer {
		return fmt.Errorf("%w: %s is not the mint authority", stakeerr.ErrUnauthorized, signer)
	}
	to, err := e.Account(dst)
	if err != nil {
		return err
	}
	if to.Mint != mintAddr {
		return fmt.Errorf("%w: account %s holds %s", stakeerr.ErrMintMismatch, dst, to.Mint)
	}
	if amount == 0 {
		return nil
	}
	supply := mint.Supply + amount
	if supply < mint.Supply {
		return fmt.Errorf("%w: mint supply", stakeerr.ErrOverflow)
	}
	balance := to.Amount + amount
	if balance < to.Amount {
		return fmt.Errorf("%w: credit to %s", stakeerr.ErrOverflow, dst)
	}
	mint.Supply = supply
	to.Amount = balance
	if err := e.state.TokenMintPut(mint); err != nil {
		return err
	}
	if err := e.state.TokenAccountPut(to); err != nil {
		return err
	}
	e.emit(events.TokenMinted{Mint: mintAddr, To: dst, Amount: amount})
	return nil
}

// AssociatedAddress derives the canonical token account of owner for mint.
func AssociatedAddress(owner, mint crypto.Address) (crypto.Address, error) {
	addr, _, err := crypto.FindProgramAddress([][]byte{owner.Bytes(), ProgramID.Bytes(), mint.Bytes()}, AssociatedProgramID)
	return addr, err
}

// AssociatedAddress derives the canonical token account of owner for mint.
func (e *Engine) AssociatedAddress(owner, mint crypto.Address) (crypto.Address, error) {
	return AssociatedAddress(owner, mint)
}

// CreateAssociatedAccount returns the associated token account of owner for
// mint, creating it if needed.
func (e *Engine) CreateAssociatedAccount(owner, mint crypto.Address) (*types.TokenAccount, error) {
	addr, err := AssociatedAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	account, _, err := e.EnsureAccount(addr, mint, owner)
	return account, err
}
