/*

Staking reward accrual. Rewards grow linearly with staked amount, pool reward
rate and elapsed time; the claimed total recorded on the position is deducted
so repeated quotes stay idempotent until an actual claim lands on the ledger.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/accrual"
	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// Claimable returns the reward a position can claim from the pool as of now:
// mulDiv(amount, rewardRate * elapsed, Scale) - claimedRewards. The caller
// persists an updated claimed total only after the claim transaction
// succeeds; this function never mutates anything.
func Claimable(position types.StakingPosition, pool types.StakingPool, now uint64) (sdkmath.Int, error) {
	if err := position.Validate(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := pool.Validate(); err != nil {
		return sdkmath.ZeroInt(), err
	}

	elapsed, err := accrual.Elapsed(position.StartTime, now)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	rateOverElapsed, err := fixedpoint.Mul(pool.RewardRate, sdkmath.NewIntFromUint64(elapsed))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	accrued, err := fixedpoint.MulDiv(position.Amount, rateOverElapsed, fixedpoint.Scale)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	claimable, err := fixedpoint.Sub(accrued, position.ClaimedRewards)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("claimed rewards exceed accrued total: %w", err)
	}
	return claimable, nil
}

// AuthorizeUnstake rejects an unstake request made before the pool's lock
// period has elapsed since the position was opened.
func AuthorizeUnstake(position types.StakingPosition, pool types.StakingPool, now uint64) error {
	if err := position.Validate(); err != nil {
		return err
	}
	if err := pool.Validate(); err != nil {
		return err
	}

	elapsed, err := accrual.Elapsed(position.StartTime, now)
	if err != nil {
		return err
	}
	if elapsed < pool.LockPeriod {
		return fmt.Errorf("%w: %d of %d lock seconds elapsed", ErrPositionLocked, elapsed, pool.LockPeriod)
	}
	return nil
}
