package stake

import (
	"bytes"
	"errors"
	"testing"

	stakeerr "stakeledger/core/errors"
	"stakeledger/core/events"
	"stakeledger/core/types"
	"stakeledger/crypto"
	"stakeledger/native/token"
)

type mockState struct {
	mints     map[crypto.Address]*types.Mint
	accounts  map[crypto.Address]*types.TokenAccount
	pools     map[crypto.Address]*StakePool
	positions map[crypto.Address]*StakePosition
}

func newMockState() *mockState {
	return &mockState{
		mints:     make(map[crypto.Address]*types.Mint),
		accounts:  make(map[crypto.Address]*types.TokenAccount),
		pools:     make(map[crypto.Address]*StakePool),
		positions: make(map[crypto.Address]*StakePosition),
	}
}

func (m *mockState) TokenMintGet(addr crypto.Address) (*types.Mint, bool, error) {
	mint, ok := m.mints[addr]
	if !ok {
		return nil, false, nil
	}
	return mint.Clone(), true, nil
}

func (m *mockState) TokenMintPut(mint *types.Mint) error {
	m.mints[mint.Address] = mint.Clone()
	return nil
}

func (m *mockState) TokenAccountGet(addr crypto.Address) (*types.TokenAccount, bool, error) {
	account, ok := m.accounts[addr]
	if !ok {
		return nil, false, nil
	}
	return account.Clone(), true, nil
}

func (m *mockState) TokenAccountPut(account *types.TokenAccount) error {
	m.accounts[account.Address] = account.Clone()
	return nil
}

func (m *mockState) StakePoolGet(addr crypto.Address) (*StakePool, bool, error) {
	pool, ok := m.pools[addr]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (m *mockState) StakePoolPut(pool *StakePool) error {
	m.pools[pool.Address] = pool.Clone()
	return nil
}

func (m *mockState) StakePositionGet(addr crypto.Address) (*StakePosition, bool, error) {
	position, ok := m.positions[addr]
	if !ok {
		return nil, false, nil
	}
	return position.Clone(), true, nil
}

func (m *mockState) StakePositionPut(position *StakePosition) error {
	m.positions[position.Address] = position.Clone()
	return nil
}

func newTestAddress(fill byte) crypto.Address {
	return crypto.MustBytesToAddress(bytes.Repeat([]byte{fill}, crypto.AddressLength))
}

type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

type harness struct {
	state     *mockState
	tokens    *token.Engine
	engine    *Engine
	emitter   *events.Recorder
	mint      crypto.Address
	authority crypto.Address
	slot      uint64
}

func newHarness(t testingT) *harness {
	t.Helper()
	state := newMockState()
	tokens := token.NewEngine(state)
	engine := NewEngine(state, tokens, NewDeriver(DefaultProgramID))
	rec := &events.Recorder{}
	engine.SetEmitter(rec)
	h := &harness{
		state:     state,
		tokens:    tokens,
		engine:    engine,
		emitter:   rec,
		mint:      newTestAddress(0x10),
		authority: newTestAddress(0xF0),
	}
	engine.SetSlotFunc(func() uint64 { return h.slot })
	if _, err := tokens.CreateMint(h.mint, 9, h.authority, crypto.Address{}); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	return h
}

func (h *harness) init(t testingT) *StakePool {
	t.Helper()
	pool, err := h.engine.InitStakepool(newTestAddress(0xEE), h.mint)
	if err != nil {
		t.Fatalf("init stakepool: %v", err)
	}
	return pool
}

func (h *harness) fund(t testingT, owner crypto.Address, amount uint64) {
	t.Helper()
	account, err := h.tokens.CreateAssociatedAccount(owner, h.mint)
	if err != nil {
		t.Fatalf("create associated account: %v", err)
	}
	if err := h.tokens.MintTo(h.mint, account.Address, amount, h.authority); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

// topUp simulates external yield landing in the pool escrow.
func (h *harness) topUp(t testingT, amount uint64) {
	t.Helper()
	pool, err := h.engine.Pool()
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	if err := h.tokens.MintTo(h.mint, pool.Escrow, amount, h.authority); err != nil {
		t.Fatalf("top up: %v", err)
	}
}

func (h *harness) wallet(t testingT, owner crypto.Address) uint64 {
	t.Helper()
	addr, err := token.AssociatedAddress(owner, h.mint)
	if err != nil {
		t.Fatalf("derive wallet: %v", err)
	}
	balance, err := h.tokens.Balance(addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func (h *harness) principal(t testingT, owner crypto.Address) uint64 {
	t.Helper()
	position, ok, err := h.engine.Position(owner)
	if err != nil {
		t.Fatalf("load position: %v", err)
	}
	if !ok {
		return 0
	}
	return position.Principal
}

func (h *harness) totalStaked(t testingT) uint64 {
	t.Helper()
	pool, err := h.engine.Pool()
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	return pool.TotalStaked
}

func TestInitStakepool(t *testing.T) {
	h := newHarness(t)
	pool := h.init(t)
	if pool.Mint != h.mint || pool.TotalStaked != 0 {
		t.Fatalf("unexpected pool %+v", pool)
	}
	if pool.Escrow != pool.Address {
		t.Fatalf("pool escrow %s should share the pool identity %s", pool.Escrow, pool.Address)
	}
	escrow, err := h.tokens.Account(pool.Escrow)
	if err != nil {
		t.Fatalf("pool escrow account: %v", err)
	}
	if !escrow.SelfAuthorised() || escrow.Mint != h.mint {
		t.Fatalf("unexpected pool escrow %+v", escrow)
	}
	evts := h.emitter.Events()
	if evts[len(evts)-1].EventType() != events.TypeStakePoolInitialized {
		t.Fatalf("missing pool initialized event")
	}
}

func TestInitStakepoolTwiceFails(t *testing.T) {
	h := newHarness(t)
	first := h.init(t)
	if _, err := h.engine.InitStakepool(newTestAddress(0xEF), h.mint); !errors.Is(err, stakeerr.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	after, err := h.engine.Pool()
	if err != nil {
		t.Fatalf("load pool: %v", err)
	}
	if *after != *first {
		t.Fatalf("pool changed by failed init: %+v vs %+v", after, first)
	}
}

func TestInitStakepoolRejectsUnknownMint(t *testing.T) {
	h := newHarness(t)
	for _, mint := range []crypto.Address{{}, newTestAddress(0x55)} {
		if _, err := h.engine.InitStakepool(newTestAddress(0xEE), mint); !errors.Is(err, stakeerr.ErrInvalidMint) {
			t.Fatalf("mint %s: expected ErrInvalidMint, got %v", mint, err)
		}
	}
	if _, err := h.engine.Pool(); !errors.Is(err, stakeerr.ErrPoolNotInitialized) {
		t.Fatalf("pool created by failed init: %v", err)
	}
}

func TestStakeAccumulates(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 1_000)

	h.slot = 7
	if _, err := h.engine.Stake(owner, h.mint, 300); err != nil {
		t.Fatalf("first stake: %v", err)
	}
	h.slot = 9
	position, err := h.engine.Stake(owner, h.mint, 200)
	if err != nil {
		t.Fatalf("second stake: %v", err)
	}
	if position.Principal != 500 {
		t.Fatalf("principal = %d, want 500", position.Principal)
	}
	if position.StakedSlot != 7 || position.UpdatedSlot != 9 {
		t.Fatalf("unexpected slots %+v", position)
	}
	if got := h.totalStaked(t); got != 500 {
		t.Fatalf("total staked = %d, want 500", got)
	}
	if got := h.wallet(t, owner); got != 500 {
		t.Fatalf("wallet = %d, want 500", got)
	}
	escrow, err := h.engine.EscrowAddress(owner)
	if err != nil {
		t.Fatalf("escrow address: %v", err)
	}
	if held, _ := h.tokens.Balance(escrow); held != 500 {
		t.Fatalf("escrow holds %d, want 500", held)
	}
}

func TestStakePreconditions(t *testing.T) {
	h := newHarness(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 100)

	if _, err := h.engine.Stake(owner, h.mint, 10); !errors.Is(err, stakeerr.ErrPoolNotInitialized) {
		t.Fatalf("expected ErrPoolNotInitialized, got %v", err)
	}
	h.init(t)
	if _, err := h.engine.Stake(owner, h.mint, 0); !errors.Is(err, stakeerr.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := h.engine.Stake(owner, newTestAddress(0x66), 10); !errors.Is(err, stakeerr.ErrMintMismatch) {
		t.Fatalf("expected ErrMintMismatch, got %v", err)
	}
	if _, err := h.engine.Stake(owner, h.mint, 101); !errors.Is(err, stakeerr.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := h.engine.Stake(newTestAddress(0xA2), h.mint, 1); !errors.Is(err, stakeerr.ErrInsufficientFunds) {
		t.Fatalf("unfunded owner: expected ErrInsufficientFunds, got %v", err)
	}
	if got := h.wallet(t, owner); got != 100 {
		t.Fatalf("wallet changed to %d", got)
	}
	if got := h.totalStaked(t); got != 0 {
		t.Fatalf("total staked changed to %d", got)
	}
	if _, ok, _ := h.engine.Position(owner); ok {
		t.Fatalf("position created by failed stake")
	}
}

func TestStakeOverflow(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	a := newTestAddress(0xA1)
	b := newTestAddress(0xB1)
	h.fund(t, a, ^uint64(0)-1)
	if _, err := h.engine.Stake(a, h.mint, ^uint64(0)-1); err != nil {
		t.Fatalf("stake: %v", err)
	}
	// Supply is nearly exhausted, so seed the pool record directly.
	h.fund(t, b, 1)
	pool, _ := h.engine.Pool()
	pool.TotalStaked = ^uint64(0)
	if err := h.state.StakePoolPut(pool); err != nil {
		t.Fatalf("put pool: %v", err)
	}
	if _, err := h.engine.Stake(b, h.mint, 1); !errors.Is(err, stakeerr.ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if got := h.wallet(t, b); got != 1 {
		t.Fatalf("wallet debited on overflow: %d", got)
	}
}

func TestUnstakeSingleStakerTakesWholePot(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 400)
	if _, err := h.engine.Stake(owner, h.mint, 400); err != nil {
		t.Fatalf("stake: %v", err)
	}
	h.topUp(t, 123)

	preview, err := h.engine.PreviewUnstake(owner, h.mint)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	result, err := h.engine.Unstake(owner, h.mint)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if *preview != *result {
		t.Fatalf("preview %+v differs from result %+v", preview, result)
	}
	if result.Returned != 523 || result.Reward != 123 || result.Principal != 400 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := h.wallet(t, owner); got != 523 {
		t.Fatalf("wallet = %d, want 523", got)
	}
	pool, _ := h.engine.Pool()
	if pot, _ := h.tokens.Balance(pool.Escrow); pot != 0 {
		t.Fatalf("pot = %d, want 0", pot)
	}
	if pool.TotalStaked != 0 || h.principal(t, owner) != 0 {
		t.Fatalf("ledgers not closed")
	}
}

func TestUnstakeTwoStakersProportional(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	first := newTestAddress(0xA1)
	second := newTestAddress(0xB1)
	h.fund(t, first, 100)
	h.fund(t, second, 300)
	if _, err := h.engine.Stake(first, h.mint, 100); err != nil {
		t.Fatalf("stake first: %v", err)
	}
	if _, err := h.engine.Stake(second, h.mint, 300); err != nil {
		t.Fatalf("stake second: %v", err)
	}
	h.topUp(t, 1_000)

	r1, err := h.engine.Unstake(first, h.mint)
	if err != nil {
		t.Fatalf("unstake first: %v", err)
	}
	if r1.Reward != 250 || r1.Returned != 350 {
		t.Fatalf("first unstake %+v, want reward 250 returned 350", r1)
	}
	if got := h.totalStaked(t); got != 300 {
		t.Fatalf("total staked = %d, want 300", got)
	}
	pool, _ := h.engine.Pool()
	if pot, _ := h.tokens.Balance(pool.Escrow); pot != 750 {
		t.Fatalf("pot = %d, want 750", pot)
	}

	r2, err := h.engine.Unstake(second, h.mint)
	if err != nil {
		t.Fatalf("unstake second: %v", err)
	}
	if r2.Reward != 750 || r2.Returned != 1_050 {
		t.Fatalf("second unstake %+v, want reward 750 returned 1050", r2)
	}
	if h.wallet(t, first) != 350 || h.wallet(t, second) != 1_050 {
		t.Fatalf("wallets %d/%d", h.wallet(t, first), h.wallet(t, second))
	}
}

func TestUnstakeWithoutPosition(t *testing.T) {
	h := newHarness(t)
	owner := newTestAddress(0xA1)
	if _, err := h.engine.Unstake(owner, h.mint); !errors.Is(err, stakeerr.ErrPoolNotInitialized) {
		t.Fatalf("expected ErrPoolNotInitialized, got %v", err)
	}
	h.init(t)
	if _, err := h.engine.Unstake(owner, h.mint); !errors.Is(err, stakeerr.ErrNoActivePosition) {
		t.Fatalf("never staked: expected ErrNoActivePosition, got %v", err)
	}
	h.fund(t, owner, 10)
	if _, err := h.engine.Stake(owner, h.mint, 10); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := h.engine.Unstake(owner, newTestAddress(0x66)); !errors.Is(err, stakeerr.ErrMintMismatch) {
		t.Fatalf("expected ErrMintMismatch, got %v", err)
	}
	if _, err := h.engine.Unstake(owner, h.mint); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if _, err := h.engine.Unstake(owner, h.mint); !errors.Is(err, stakeerr.ErrNoActivePosition) {
		t.Fatalf("already unstaked: expected ErrNoActivePosition, got %v", err)
	}
}

func TestPositionReopensAfterUnstake(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 50)
	if _, err := h.engine.Stake(owner, h.mint, 50); err != nil {
		t.Fatalf("stake: %v", err)
	}
	before, _, _ := h.engine.Position(owner)
	if _, err := h.engine.Unstake(owner, h.mint); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	h.slot = 42
	reopened, err := h.engine.Stake(owner, h.mint, 20)
	if err != nil {
		t.Fatalf("restake: %v", err)
	}
	if reopened.Address != before.Address || reopened.Escrow != before.Escrow {
		t.Fatalf("restake moved the position")
	}
	if reopened.Principal != 20 || reopened.StakedSlot != 42 {
		t.Fatalf("unexpected reopened position %+v", reopened)
	}
}

func TestEscrowOutOfBalanceBlocksUnstake(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 50)
	position, err := h.engine.Stake(owner, h.mint, 50)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	position.Principal = 60
	if err := h.state.StakePositionPut(position); err != nil {
		t.Fatalf("put position: %v", err)
	}
	if _, err := h.engine.Unstake(owner, h.mint); !errors.Is(err, stakeerr.ErrEscrowOutOfBalance) {
		t.Fatalf("expected ErrEscrowOutOfBalance, got %v", err)
	}
}

func TestOwnerCannotDrainOwnEscrow(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 50)
	if _, err := h.engine.Stake(owner, h.mint, 50); err != nil {
		t.Fatalf("stake: %v", err)
	}
	escrow, _ := h.engine.EscrowAddress(owner)
	wallet, _ := token.AssociatedAddress(owner, h.mint)
	if err := h.tokens.Transfer(escrow, wallet, 50, token.Signer(owner)); !errors.Is(err, stakeerr.ErrUnauthorized) {
		t.Fatalf("owner moved escrowed funds: %v", err)
	}
	pool, _ := h.engine.Pool()
	if err := h.tokens.Transfer(pool.Escrow, wallet, 0, token.Signer(owner)); !errors.Is(err, stakeerr.ErrUnauthorized) {
		t.Fatalf("owner authorised against pool escrow: %v", err)
	}
}

func TestUnstakeEventCarriesPayout(t *testing.T) {
	h := newHarness(t)
	h.init(t)
	owner := newTestAddress(0xA1)
	h.fund(t, owner, 10)
	if _, err := h.engine.Stake(owner, h.mint, 10); err != nil {
		t.Fatalf("stake: %v", err)
	}
	h.topUp(t, 5)
	if _, err := h.engine.Unstake(owner, h.mint); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	evts := h.emitter.Events()
	last, ok := evts[len(evts)-1].(events.StakeUnstaked)
	if !ok {
		t.Fatalf("last event %T", evts[len(evts)-1])
	}
	attrs := last.Event().Attributes
	if attrs["returned"] != "15" || attrs["reward"] != "5" || attrs["potBefore"] != "5" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}
