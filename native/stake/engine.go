package stake

import (
	"errors"
	"fmt"

	stakeerr "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/types"
	"stakeledger/crypto"
	"stakeledger/native/token"
)

var errNilState = errors.New("stake engine: state not configured")

type engineState interface {
	StakePoolGet(addr crypto.Address) (*StakePool, bool, error)
	StakePoolPut(pool *StakePool) error
	StakePositionGet(addr crypto.Address) (*StakePosition, bool, error)
	StakePositionPut(position *StakePosition) error
}

// Tokens is the token escrow surface the engine moves funds through.
type Tokens interface {
	Mint(addr crypto.Address) (*types.Mint, error)
	Balance(addr crypto.Address) (uint64, error)
	EnsureAccount(addr, mint, authority crypto.Address) (*types.TokenAccount, bool, error)
	Transfer(src, dst crypto.Address, amount uint64, auth token.Authority) error
	AssociatedAddress(owner, mint crypto.Address) (crypto.Address, error)
}

type stakeEvent interface {
	events.Event
	Event() *types.Event
}

// Engine implements pool bootstrap, staking and unstaking. Every operation
// validates its preconditions before the first token movement; rolling back a
// failure after that point is the caller's job.
type Engine struct {
	state   engineState
	tokens  Tokens
	deriver Deriver
	emitter events.Emitter
	slot    func() uint64
}

// NewEngine wires a stake engine to its state, token collaborator and
// address deriver.
func NewEngine(state engineState, tokens Tokens, deriver Deriver) *Engine {
	return &Engine{
		state:   state,
		tokens:  tokens,
		deriver: deriver,
		emitter: events.NoopEmitter{},
		slot:    func() uint64 { return 0 },
	}
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

// SetSlotFunc overrides the slot source recorded on positions.
func (e *Engine) SetSlotFunc(slot func() uint64) {
	if slot == nil {
		e.slot = func() uint64 { return 0 }
		return
	}
	e.slot = slot
}

func (e *Engine) emit(evt stakeEvent) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil || e.tokens == nil || e.deriver == nil {
		return errNilState
	}
	return nil
}

// PoolAddress returns the derived identity of the singleton pool and its
// reward escrow.
func (e *Engine) PoolAddress() (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	addr, _, err := e.deriver.Derive(TagStakePool, nil)
	return addr, err
}

// PositionAddress returns the derived identity of owner's position record.
func (e *Engine) PositionAddress(owner crypto.Address) (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	addr, _, err := e.deriver.Derive(TagStakeInfo, &owner)
	return addr, err
}

// EscrowAddress returns the derived identity of owner's stake escrow.
func (e *Engine) EscrowAddress(owner crypto.Address) (crypto.Address, error) {
	if err := e.ready(); err != nil {
		return crypto.Address{}, err
	}
	addr, _, err := e.deriver.Derive(TagToken, &owner)
	return addr, err
}

func (e *Engine) loadPool() (*StakePool, crypto.ProgramSignature, error) {
	addr, sig, err := e.deriver.Derive(TagStakePool, nil)
	if err != nil {
		return nil, crypto.ProgramSignature{}, err
	}
	pool, ok, err := e.state.StakePoolGet(addr)
	if err != nil {
		return nil, crypto.ProgramSignature{}, err
	}
	if !ok {
		return nil, crypto.ProgramSignature{}, stakeerr.ErrPoolNotInitialized
	}
	return pool, sig, nil
}

// Pool returns the singleton pool record.
func (e *Engine) Pool() (*StakePool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, _, err := e.loadPool()
	return pool, err
}

// Position returns owner's position record. A missing record returns
// (nil, false, nil).
func (e *Engine) Position(owner crypto.Address) (*StakePosition, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	addr, _, err := e.deriver.Derive(TagStakeInfo, &owner)
	if err != nil {
		return nil, false, err
	}
	return e.state.StakePositionGet(addr)
}

// InitStakepool creates the singleton pool for mint together with its reward
// escrow. Anyone may bootstrap the pool, but only once.
func (e *Engine) InitStakepool(signer, mint crypto.Address) (*StakePool, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	poolAddr, sig, err := e.deriver.Derive(TagStakePool, nil)
	if err != nil {
		return nil, err
	}
	if _, exists, err := e.state.StakePoolGet(poolAddr); err != nil {
		return nil, err
	} else if exists {
		return nil, stakeerr.ErrAlreadyInitialized
	}
	if mint.IsZero() {
		return nil, fmt.Errorf("%w: empty mint", stakeerr.ErrInvalidMint)
	}
	if _, err := e.tokens.Mint(mint); err != nil {
		if errors.Is(err, stakeerr.ErrMintNotFound) {
			return nil, fmt.Errorf("%w: %s", stakeerr.ErrInvalidMint, mint)
		}
		return nil, err
	}
	if _, _, err := e.tokens.EnsureAccount(poolAddr, mint, poolAddr); err != nil {
		return nil, err
	}
	pool := &StakePool{
		Address:     poolAddr,
		Bump:        sig.Bump,
		Mint:        mint,
		Escrow:      poolAddr,
		Initializer: signer,
		CreatedSlot: e.slot(),
	}
	if err := e.state.StakePoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.StakePoolInitialized{Pool: poolAddr, Mint: mint, Escrow: poolAddr, Initializer: signer})
	return pool.Clone(), nil
}

// Stake moves amount from signer's associated token account into signer's
// stake escrow and credits the position and pool totals.
func (e *Engine) Stake(signer, mint crypto.Address, amount uint64) (*StakePosition, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, stakeerr.ErrInvalidAmount
	}
	pool, _, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if mint != pool.Mint {
		return nil, fmt.Errorf("%w: pool accepts %s", stakeerr.ErrMintMismatch, pool.Mint)
	}
	infoAddr, infoSig, err := e.deriver.Derive(TagStakeInfo, &signer)
	if err != nil {
		return nil, err
	}
	escrowAddr, escrowSig, err := e.deriver.Derive(TagToken, &signer)
	if err != nil {
		return nil, err
	}
	source, err := e.tokens.AssociatedAddress(signer, mint)
	if err != nil {
		return nil, err
	}
	balance, err := e.tokens.Balance(source)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, fmt.Errorf("%w: balance %d below %d", stakeerr.ErrInsufficientFunds, balance, amount)
	}

	position, exists, err := e.state.StakePositionGet(infoAddr)
	if err != nil {
		return nil, err
	}
	if !exists {
		position = &StakePosition{
			Address:    infoAddr,
			Bump:       infoSig.Bump,
			Owner:      signer,
			Escrow:     escrowAddr,
			EscrowBump: escrowSig.Bump,
		}
	}
	if position.Owner != signer || position.Escrow != escrowAddr {
		return nil, fmt.Errorf("%w: position %s", stakeerr.ErrUnauthorized, infoAddr)
	}
	principal, err := safeAdd(position.Principal, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: position principal", err)
	}
	total, err := safeAdd(pool.TotalStaked, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: pool total", err)
	}

	if _, _, err := e.tokens.EnsureAccount(escrowAddr, mint, escrowAddr); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(source, escrowAddr, amount, token.Signer(signer)); err != nil {
		return nil, err
	}

	now := e.slot()
	if !position.Active() {
		position.StakedSlot = now
	}
	position.Principal = principal
	position.UpdatedSlot = now
	pool.TotalStaked = total
	if err := e.state.StakePositionPut(position); err != nil {
		return nil, err
	}
	if err := e.state.StakePoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.StakeStaked{
		Owner:       signer,
		Escrow:      escrowAddr,
		Amount:      amount,
		Principal:   principal,
		TotalStaked: total,
	})
	return position.Clone(), nil
}

type unstakePlan struct {
	pool      *StakePool
	poolSig   crypto.ProgramSignature
	position  *StakePosition
	escrowSig crypto.ProgramSignature
	pot       uint64
	total     uint64
	result    UnstakeResult
}

// planUnstake evaluates every precondition of an unstake and the payout
// against one read of the pot and the pool total.
func (e *Engine) planUnstake(owner, mint crypto.Address) (*unstakePlan, error) {
	pool, poolSig, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if mint != pool.Mint {
		return nil, fmt.Errorf("%w: pool accepts %s", stakeerr.ErrMintMismatch, pool.Mint)
	}
	infoAddr, _, err := e.deriver.Derive(TagStakeInfo, &owner)
	if err != nil {
		return nil, err
	}
	position, exists, err := e.state.StakePositionGet(infoAddr)
	if err != nil {
		return nil, err
	}
	if !exists || !position.Active() {
		return nil, stakeerr.ErrNoActivePosition
	}
	escrowAddr, escrowSig, err := e.deriver.Derive(TagToken, &owner)
	if err != nil {
		return nil, err
	}
	if position.Owner != owner || position.Escrow != escrowAddr {
		return nil, fmt.Errorf("%w: position %s", stakeerr.ErrUnauthorized, infoAddr)
	}
	held, err := e.tokens.Balance(escrowAddr)
	if err != nil {
		return nil, err
	}
	if held < position.Principal {
		return nil, fmt.Errorf("%w: escrow holds %d, principal %d", stakeerr.ErrEscrowOutOfBalance, held, position.Principal)
	}
	pot, err := e.tokens.Balance(pool.Escrow)
	if err != nil {
		return nil, err
	}
	reward, err := RewardShare(position.Principal, pot, pool.TotalStaked)
	if err != nil {
		return nil, err
	}
	total, err := safeSub(pool.TotalStaked, position.Principal)
	if err != nil {
		return nil, fmt.Errorf("%w: pool total below principal", err)
	}
	returned, err := safeAdd(position.Principal, reward)
	if err != nil {
		return nil, err
	}
	return &unstakePlan{
		pool:      pool,
		poolSig:   poolSig,
		position:  position,
		escrowSig: escrowSig,
		pot:       pot,
		total:     total,
		result:    UnstakeResult{Principal: position.Principal, Reward: reward, Returned: returned},
	}, nil
}

// PreviewUnstake reports what an unstake by owner would pay right now
// without changing any state.
func (e *Engine) PreviewUnstake(owner, mint crypto.Address) (*UnstakeResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	plan, err := e.planUnstake(owner, mint)
	if err != nil {
		return nil, err
	}
	result := plan.result
	return &result, nil
}

// Unstake closes signer's position, returning the full principal plus the
// proportional share of the pool's reward pot to signer's associated token
// account.
func (e *Engine) Unstake(signer, mint crypto.Address) (*UnstakeResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	plan, err := e.planUnstake(signer, mint)
	if err != nil {
		return nil, err
	}
	dst, err := e.tokens.AssociatedAddress(signer, mint)
	if err != nil {
		return nil, err
	}
	if _, _, err := e.tokens.EnsureAccount(dst, mint, signer); err != nil {
		return nil, err
	}

	position := plan.position
	pool := plan.pool
	if err := e.tokens.Transfer(position.Escrow, dst, plan.result.Principal, token.Program(plan.escrowSig)); err != nil {
		return nil, err
	}
	if plan.result.Reward > 0 {
		if err := e.tokens.Transfer(pool.Escrow, dst, plan.result.Reward, token.Program(plan.poolSig)); err != nil {
			return nil, err
		}
	}

	pool.TotalStaked = plan.total
	position.Principal = 0
	position.UpdatedSlot = e.slot()
	if err := e.state.StakePositionPut(position); err != nil {
		return nil, err
	}
	if err := e.state.StakePoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(events.StakeUnstaked{
		Owner:       signer,
		Principal:   plan.result.Principal,
		Reward:      plan.result.Reward,
		PotBefore:   plan.pot,
		TotalStaked: plan.total,
	})
	result := plan.result
	return &result, nil
}
