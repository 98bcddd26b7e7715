package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/state"
	"stakeledger/core/types"
	"stakeledger/crypto"
	"stakeledger/native/stake"
	"stakeledger/native/token"
	"stakeledger/observability/metrics"
	"stakeledger/storage"
)

// Ledger hosts the token and stake modules. Transactions are applied one at a
// time; each either commits every write it made in a single storage batch or
// leaves state untouched.
type Ledger struct {
	mu      sync.Mutex
	state   *state.Manager
	tokens  *token.Engine
	stake   *stake.Engine
	buffer  *events.Buffer
	metrics *metrics.LedgerMetrics
	logger  *slog.Logger
	program crypto.Address

	slot        uint64
	pendingSlot uint64
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithEmitter forwards committed events to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(l *Ledger) { l.buffer = events.NewBuffer(emitter) }
}

// WithMetrics records transaction outcomes on m.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProgramID selects the stake program identity used for address
// derivation.
func WithProgramID(program crypto.Address) Option {
	return func(l *Ledger) { l.program = program }
}

// NewLedger opens a ledger over db, resuming from the committed slot.
func NewLedger(db storage.Database, opts ...Option) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("ledger: database required")
	}
	l := &Ledger{
		state:   state.NewManager(db),
		buffer:  events.NewBuffer(nil),
		logger:  slog.Default(),
		program: stake.DefaultProgramID,
	}
	for _, opt := range opts {
		opt(l)
	}
	slot, err := l.state.Slot()
	if err != nil {
		return nil, err
	}
	l.slot = slot

	l.tokens = token.NewEngine(l.state)
	l.tokens.SetEmitter(l.buffer)
	l.stake = stake.NewEngine(l.state, l.tokens, stake.NewDeriver(l.program))
	l.stake.SetEmitter(l.buffer)
	l.stake.SetSlotFunc(func() uint64 { return l.pendingSlot })
	return l, nil
}

// Apply verifies and executes tx. On failure no state changes and no events
// are emitted.
func (l *Ledger) Apply(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("ledger: nil transaction")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	receipt, emitted, err := l.apply(tx)
	op := tx.Type.String()
	if err != nil {
		l.metrics.ObserveOperation(op, outcomeLabel(err), time.Since(start))
		l.logger.Warn("transaction rejected", "op", op, "error", err)
		return nil, err
	}
	l.metrics.ObserveOperation(op, "ok", time.Since(start))
	l.metrics.SetSlot(receipt.Slot)
	l.observePool(tx.Type, emitted)
	l.logger.Info("transaction applied",
		"op", op,
		"slot", receipt.Slot,
		"signer", receipt.Signer.String(),
		"tx", common.Hash(receipt.TxHash).Hex(),
		"returned", receipt.Returned,
	)
	return receipt, nil
}

func (l *Ledger) apply(tx *types.Transaction) (*types.Receipt, []events.Event, error) {
	if !tx.Type.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", stakeerr.ErrUnknownTxType, tx.Type)
	}
	from, err := tx.From()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", stakeerr.ErrInvalidSignature, err)
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, nil, err
	}
	nonce, err := l.state.AccountNonce(from)
	if err != nil {
		return nil, nil, err
	}
	if tx.Nonce != nonce {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", stakeerr.ErrBadNonce, tx.Nonce, nonce)
	}

	snapshot := l.state.Snapshot()
	l.pendingSlot = l.slot + 1
	returned, err := l.dispatch(from, tx)
	if err == nil {
		err = l.state.SetAccountNonce(from, nonce+1)
	}
	if err == nil {
		err = l.state.SetSlot(l.pendingSlot)
	}
	if err == nil {
		err = l.state.Commit()
	}
	if err != nil {
		l.state.RevertToSnapshot(snapshot)
		l.state.Discard()
		l.buffer.Discard()
		return nil, nil, err
	}
	l.slot = l.pendingSlot

	flushed := l.buffer.Flush()
	receipt := &types.Receipt{
		TxHash:   hash,
		Type:     tx.Type,
		Signer:   from,
		Slot:     l.slot,
		Returned: returned,
		Events:   make([]types.Event, 0, len(flushed)),
	}
	for _, evt := range flushed {
		if convertible, ok := evt.(interface{ Event() *types.Event }); ok {
			receipt.Events = append(receipt.Events, *convertible.Event())
		}
	}
	return receipt, flushed, nil
}

func (l *Ledger) dispatch(from crypto.Address, tx *types.Transaction) (uint64, error) {
	switch tx.Type {
	case types.TxTypeCreateMint:
		_, err := l.tokens.CreateMint(crypto.CreateAddress(from, tx.Nonce), tx.Decimals, from, tx.FreezeAuthority)
		return 0, err
	case types.TxTypeCreateTokenAccount:
		owner := tx.To
		if owner.IsZero() {
			owner = from
		}
		_, err := l.tokens.CreateAssociatedAccount(owner, tx.Mint)
		return 0, err
	case types.TxTypeMintTo:
		if err := l.checkCreditTarget(tx.To); err != nil {
			return 0, err
		}
		return 0, l.tokens.MintTo(tx.Mint, tx.To, tx.Amount, from)
	case types.TxTypeTransfer:
		if err := l.checkCreditTarget(tx.To); err != nil {
			return 0, err
		}
		src, err := token.AssociatedAddress(from, tx.Mint)
		if err != nil {
			return 0, err
		}
		return 0, l.tokens.Transfer(src, tx.To, tx.Amount, token.Signer(from))
	case types.TxTypeInitStakepool:
		_, err := l.stake.InitStakepool(from, tx.Mint)
		return 0, err
	case types.TxTypeStake:
		_, err := l.stake.Stake(from, tx.Mint, tx.Amount)
		return 0, err
	case types.TxTypeUnstake:
		result, err := l.stake.Unstake(from, tx.Mint)
		if err != nil {
			return 0, err
		}
		return result.Returned, nil
	default:
		return 0, fmt.Errorf("%w: %s", stakeerr.ErrUnknownTxType, tx.Type)
	}
}

// checkCreditTarget keeps signer-initiated credits out of program derived
// accounts. Stake escrows must hold exactly the position principal; only the
// pool escrow accepts reward top-ups.
func (l *Ledger) checkCreditTarget(dst crypto.Address) error {
	account, err := l.tokens.Account(dst)
	if errors.Is(err, stakeerr.ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !account.SelfAuthorised() {
		return nil
	}
	if pool, err := l.stake.Pool(); err == nil && pool.Escrow == dst {
		return nil
	}
	return fmt.Errorf("%w: %s is program owned", stakeerr.ErrUnauthorized, dst)
}

func (l *Ledger) observePool(kind types.TxType, emitted []events.Event) {
	if l.metrics == nil {
		return
	}
	switch kind {
	case types.TxTypeInitStakepool, types.TxTypeStake, types.TxTypeUnstake, types.TxTypeMintTo, types.TxTypeTransfer:
	default:
		return
	}
	pool, err := l.stake.Pool()
	if err != nil {
		return
	}
	l.metrics.SetTotalStaked(pool.TotalStaked)
	if pot, err := l.tokens.Balance(pool.Escrow); err == nil {
		l.metrics.SetRewardPot(pot)
	}
	for _, evt := range emitted {
		if unstaked, ok := evt.(events.StakeUnstaked); ok {
			l.metrics.AddRewardsPaid(unstaked.Reward)
		}
	}
}

var outcomeErrors = []struct {
	err   error
	label string
}{
	{stakeerr.ErrAlreadyInitialized, "already_initialized"},
	{stakeerr.ErrPoolNotInitialized, "pool_not_initialized"},
	{stakeerr.ErrInvalidMint, "invalid_mint"},
	{stakeerr.ErrMintMismatch, "mint_mismatch"},
	{stakeerr.ErrInvalidAmount, "invalid_amount"},
	{stakeerr.ErrInsufficientFunds, "insufficient_funds"},
	{stakeerr.ErrNoActivePosition, "no_active_position"},
	{stakeerr.ErrOverflow, "overflow"},
	{stakeerr.ErrUnauthorized, "unauthorized"},
	{stakeerr.ErrInvalidSignature, "invalid_signature"},
	{stakeerr.ErrBadNonce, "bad_nonce"},
}

func outcomeLabel(err error) string {
	for _, candidate := range outcomeErrors {
		if errors.Is(err, candidate.err) {
			return candidate.label
		}
	}
	return "error"
}

// ProgramID returns the stake program identity.
func (l *Ledger) ProgramID() crypto.Address { return l.program }

// Slot returns the number of committed transactions.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// Nonce returns the next nonce addr must sign with.
func (l *Ledger) Nonce(addr crypto.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.AccountNonce(addr)
}

// Pool returns the stake pool record.
func (l *Ledger) Pool() (*stake.StakePool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stake.Pool()
}

// Position returns owner's stake position.
func (l *Ledger) Position(owner crypto.Address) (*stake.StakePosition, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stake.Position(owner)
}

// PreviewUnstake reports what owner would receive by unstaking now.
func (l *Ledger) PreviewUnstake(owner, mint crypto.Address) (*stake.UnstakeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stake.PreviewUnstake(owner, mint)
}

// Mint returns the mint registered at addr.
func (l *Ledger) Mint(addr crypto.Address) (*types.Mint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens.Mint(addr)
}

// TokenAccount returns the token account at addr.
func (l *Ledger) TokenAccount(addr crypto.Address) (*types.TokenAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens.Account(addr)
}

// Balance returns the amount held by the token account at addr.
func (l *Ledger) Balance(addr crypto.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens.Balance(addr)
}

// StateRoot returns the Merkle root over committed state.
func (l *Ledger) StateRoot() (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.StateRoot()
}
