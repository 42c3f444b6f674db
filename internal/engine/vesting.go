/*

Vesting release computation. A schedule moves through four phases as time
passes: unstarted, cliff-pending, linear-vesting and fully-vested. Nothing is
releasable through the end of the cliff; after it the grant unlocks pro rata
over the full duration measured from start.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/accrual"
	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// VestingState is the phase of a schedule at a given as-of time.
type VestingState string

const (
	VestingUnstarted    VestingState = "UNSTARTED"
	VestingCliffPending VestingState = "CLIFF_PENDING"
	VestingLinear       VestingState = "LINEAR_VESTING"
	VestingFullyVested  VestingState = "FULLY_VESTED"
)

// VestingStateAt classifies the schedule's phase at the supplied time. The
// cliff boundary itself still releases nothing. Phases are computed from the
// elapsed time rather than StartTime+offset sums, which would wrap at uint64
// for adversarial start times.
func VestingStateAt(schedule types.VestingSchedule, now uint64) VestingState {
	if now < schedule.StartTime {
		return VestingUnstarted
	}
	elapsed := now - schedule.StartTime
	switch {
	case elapsed >= schedule.Duration:
		return VestingFullyVested
	case elapsed <= schedule.Cliff:
		return VestingCliffPending
	default:
		return VestingLinear
	}
}

// Releasable returns the amount the beneficiary could claim as of now. It is
// zero before and at the cliff, pro rata of the total during linear vesting,
// and the full remainder once the duration has elapsed.
func Releasable(schedule types.VestingSchedule, now uint64) (sdkmath.Int, error) {
	if err := schedule.Validate(); err != nil {
		return sdkmath.ZeroInt(), err
	}

	switch VestingStateAt(schedule, now) {
	case VestingUnstarted, VestingCliffPending:
		return sdkmath.ZeroInt(), nil
	case VestingFullyVested:
		return fixedpoint.Sub(schedule.Total, schedule.Released)
	}

	elapsed, err := accrual.Elapsed(schedule.StartTime, now)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	vested, err := accrual.ProRata(schedule.Total, elapsed, schedule.Duration)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	releasable, err := fixedpoint.Sub(vested, schedule.Released)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("released total exceeds vested amount: %w", err)
	}
	return releasable, nil
}

// Release computes the claim increment as of now. It returns the new released
// total and the amount the caller should transfer, without mutating the
// schedule; the caller persists the new total after the transfer succeeds.
// A zero increment is reported as ErrNothingToRelease so callers can skip the
// transaction.
func Release(schedule types.VestingSchedule, now uint64) (newReleased, amountToTransfer sdkmath.Int, err error) {
	increment, err := Releasable(schedule, now)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	if increment.IsZero() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("%w: schedule for %s at %d", ErrNothingToRelease, schedule.Beneficiary, now)
	}
	newReleased, err = fixedpoint.Add(schedule.Released, increment)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return newReleased, increment, nil
}
