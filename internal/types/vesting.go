package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// VestingSchedule is a token grant that unlocks linearly after a cliff.
// Released only ever grows; the engine computes the next increment and the
// caller persists it after the claim transaction lands.
type VestingSchedule struct {
	Beneficiary string      `json:"beneficiary"`
	TokenDenom  string      `json:"token_denom"`
	Total       sdkmath.Int `json:"total"`          // Total granted amount
	StartTime   uint64      `json:"start_time"`     // Unix seconds vesting begins
	Cliff       uint64      `json:"cliff"`          // Seconds after start with nothing releasable
	Duration    uint64      `json:"duration"`       // Seconds from start to full vesting
	Released    sdkmath.Int `json:"released"`       // Amount already released to the beneficiary
}

// Validate checks the schedule invariants: 0 <= released <= total and
// cliff <= duration.
func (s VestingSchedule) Validate() error {
	if s.Beneficiary == "" {
		return fmt.Errorf("vesting schedule: beneficiary is required")
	}
	if s.Total.IsNil() || s.Total.IsNegative() {
		return fmt.Errorf("vesting schedule %s: total must be non-negative", s.Beneficiary)
	}
	if s.Released.IsNil() || s.Released.IsNegative() {
		return fmt.Errorf("vesting schedule %s: released must be non-negative", s.Beneficiary)
	}
	if s.Released.GT(s.Total) {
		return fmt.Errorf("vesting schedule %s: released %s exceeds total %s", s.Beneficiary, s.Released, s.Total)
	}
	if s.Cliff > s.Duration {
		return fmt.Errorf("vesting schedule %s: cliff %d exceeds duration %d", s.Beneficiary, s.Cliff, s.Duration)
	}
	return nil
}
