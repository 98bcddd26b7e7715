package events

import (
	"strconv"

	"stakeledger/core/types"
	"stakeledger/crypto"
)

const (
	// TypeStakePoolInitialized is emitted once when the singleton pool is created.
	TypeStakePoolInitialized = "stake.poolInitialized"
	// TypeStakeStaked captures a deposit into a position escrow.
	TypeStakeStaked = "stake.staked"
	// TypeStakeUnstaked captures a full withdrawal with its reward share.
	TypeStakeUnstaked = "stake.unstaked"
)

// StakePoolInitialized records the pool bootstrap.
type StakePoolInitialized struct {
	Pool        crypto.Address
	Mint        crypto.Address
	Escrow      crypto.Address
	Initializer crypto.Address
}

// EventType satisfies the Event interface.
func (StakePoolInitialized) EventType() string { return TypeStakePoolInitialized }

// Event converts the structured payload into a broadcastable event.
func (e StakePoolInitialized) Event() *types.Event {
	return &types.Event{Type: TypeStakePoolInitialized, Attributes: map[string]string{
		"pool":        e.Pool.String(),
		"mint":        e.Mint.String(),
		"escrow":      e.Escrow.String(),
		"initializer": e.Initializer.String(),
	}}
}

// StakeStaked captures the position and pool totals after a deposit.
type StakeStaked struct {
	Owner       crypto.Address
	Escrow      crypto.Address
	Amount      uint64
	Principal   uint64
	TotalStaked uint64
}

// EventType satisfies the Event interface.
func (StakeStaked) EventType() string { return TypeStakeStaked }

// Event converts the structured payload into a broadcastable event.
func (e StakeStaked) Event() *types.Event {
	return &types.Event{Type: TypeStakeStaked, Attributes: map[string]string{
		"owner":       e.Owner.String(),
		"escrow":      e.Escrow.String(),
		"amount":      strconv.FormatUint(e.Amount, 10),
		"principal":   strconv.FormatUint(e.Principal, 10),
		"totalStaked": strconv.FormatUint(e.TotalStaked, 10),
	}}
}

// StakeUnstaked captures the payout of a closed position.
type StakeUnstaked struct {
	Owner       crypto.Address
	Principal   uint64
	Reward      uint64
	PotBefore   uint64
	TotalStaked uint64
}

// EventType satisfies the Event interface.
func (StakeUnstaked) EventType() string { return TypeStakeUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e StakeUnstaked) Event() *types.Event {
	return &types.Event{Type: TypeStakeUnstaked, Attributes: map[string]string{
		"owner":       e.Owner.String(),
		"principal":   strconv.FormatUint(e.Principal, 10),
		"reward":      strconv.FormatUint(e.Reward, 10),
		"returned":    strconv.FormatUint(e.Principal+e.Reward, 10),
		"potBefore":   strconv.FormatUint(e.PotBefore, 10),
		"totalStaked": strconv.FormatUint(e.TotalStaked, 10),
	}}
}
