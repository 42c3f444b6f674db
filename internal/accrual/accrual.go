/*

Shared elapsed-time and pro-rata computation used by the staking, vesting and
streaming engines. The as-of time is always supplied by the caller, never read
from a wall clock, so every computation here is deterministic and replayable.

*/

package accrual

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
)

// ErrClockRegression means the caller passed an as-of time earlier than a
// recorded start. That is a caller bug or a stale snapshot, never valid input.
var ErrClockRegression = errors.New("as-of time precedes start time")

// Elapsed returns now-start in seconds.
func Elapsed(start, now uint64) (uint64, error) {
	if now < start {
		return 0, fmt.Errorf("%w: start=%d now=%d", ErrClockRegression, start, now)
	}
	return now - start, nil
}

// ProRata returns amount * elapsed / total, truncated, saturating at amount
// once elapsed reaches total. A zero total is treated as already complete.
func ProRata(amount sdkmath.Int, elapsed, total uint64) (sdkmath.Int, error) {
	if amount.IsNil() {
		return sdkmath.ZeroInt(), fixedpoint.ErrNilInput
	}
	if amount.IsNegative() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: proRata amount %s", fixedpoint.ErrNegativeInput, amount)
	}
	if elapsed >= total {
		return amount, nil
	}
	return fixedpoint.MulDiv(amount, sdkmath.NewIntFromUint64(elapsed), sdkmath.NewIntFromUint64(total))
}
