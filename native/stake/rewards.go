package stake

import (
	"github.com/holiman/uint256"

	stakeerr "stakeledger/core/errors"
)

// RewardShare returns floor(principal * pot / totalStaked), the slice of the
// shared pot owed to a position. The product is formed in 256 bits so it
// cannot wrap; a zero total yields no reward, and the result never exceeds
// the pot.
func RewardShare(principal, pot, totalStaked uint64) (uint64, error) {
	if totalStaked == 0 || principal == 0 || pot == 0 {
		return 0, nil
	}
	x := uint256.NewInt(principal)
	y := uint256.NewInt(pot)
	d := uint256.NewInt(totalStaked)
	share, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow || !share.IsUint64() {
		return 0, stakeerr.ErrOverflow
	}
	reward := share.Uint64()
	if reward > pot {
		reward = pot
	}
	return reward, nil
}

func safeAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, stakeerr.ErrOverflow
	}
	return sum, nil
}

func safeSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, stakeerr.ErrOverflow
	}
	return a - b, nil
}
