/*

Types for staking pools and positions. These are snapshots of ledger facts
supplied by the chain-state reader; the engine never mutates them.

*/

package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// StakingPool describes a reward-bearing pool as recorded on the ledger.
type StakingPool struct {
	Account     string      `json:"account"`      // Pool account identifier
	StakedDenom string      `json:"staked_denom"` // Denom of the staked token
	RewardDenom string      `json:"reward_denom"` // Denom rewards are paid in
	RewardRate  sdkmath.Int `json:"reward_rate"`  // Scaled units per second per staked unit (1e6 scale)
	LockPeriod  uint64      `json:"lock_period"`  // Seconds a position must remain staked
}

// Validate checks the pool invariants: reward rate and lock period are
// non-negative and the denoms are set.
func (p StakingPool) Validate() error {
	if p.Account == "" {
		return fmt.Errorf("staking pool: account is required")
	}
	if p.StakedDenom == "" || p.RewardDenom == "" {
		return fmt.Errorf("staking pool %s: staked and reward denoms are required", p.Account)
	}
	if p.RewardRate.IsNil() || p.RewardRate.IsNegative() {
		return fmt.Errorf("staking pool %s: reward rate must be non-negative", p.Account)
	}
	return nil
}

// StakingPosition is a single staker's position in a pool.
type StakingPosition struct {
	Staker         string      `json:"staker"`          // Staker account identifier
	Amount         sdkmath.Int `json:"amount"`          // Amount currently staked
	StartTime      uint64      `json:"start_time"`      // Unix seconds the position was opened
	ClaimedRewards sdkmath.Int `json:"claimed_rewards"` // Rewards already accrued and claimed
}

// Validate checks the position invariants.
func (p StakingPosition) Validate() error {
	if p.Staker == "" {
		return fmt.Errorf("staking position: staker is required")
	}
	if p.Amount.IsNil() || p.Amount.IsNegative() {
		return fmt.Errorf("staking position %s: amount must be non-negative", p.Staker)
	}
	if p.ClaimedRewards.IsNil() || p.ClaimedRewards.IsNegative() {
		return fmt.Errorf("staking position %s: claimed rewards must be non-negative", p.Staker)
	}
	return nil
}
