/*

Constant-product swap pricing. The quote deducts the basis-point fee from the
input, prices the output against x*y=k and checks the caller's minimum output
in the same computation, so there is no window between quote and slippage
check for reserves to move in.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// SwapResult is the priced outcome of a swap against a pool snapshot. The
// caller applies the reserve deltas to the external ledger; the fee portion of
// the input stays in the pool.
type SwapResult struct {
	AmountOut       sdkmath.Int `json:"amount_out"`
	ReserveInAfter  sdkmath.Int `json:"reserve_in_after"`
	ReserveOutAfter sdkmath.Int `json:"reserve_out_after"`
}

// SwapOutput prices amountIn against the pool under the constant-product
// rule. Truncation always favors the pool, so reserveIn*reserveOut never
// decreases across a valid swap. minAmountOut is enforced atomically with
// pricing and rejects with ErrSlippageExceeded.
func SwapOutput(pool types.AMMPool, amountIn, minAmountOut sdkmath.Int) (SwapResult, error) {
	if err := pool.Validate(); err != nil {
		return SwapResult{}, err
	}
	if amountIn.IsNil() || minAmountOut.IsNil() {
		return SwapResult{}, fixedpoint.ErrNilInput
	}
	if amountIn.IsNegative() || minAmountOut.IsNegative() {
		return SwapResult{}, fmt.Errorf("%w: amountIn=%s minAmountOut=%s", fixedpoint.ErrNegativeInput, amountIn, minAmountOut)
	}
	if amountIn.IsZero() {
		return SwapResult{}, fmt.Errorf("%w: swap input", ErrZeroAmount)
	}

	feeComplement := sdkmath.NewIntFromUint64(types.MaxFeeBasisPoints - pool.FeeBasisPoints)
	amountInAfterFee, err := fixedpoint.MulDiv(amountIn, feeComplement, fixedpoint.BasisPointDenom)
	if err != nil {
		return SwapResult{}, err
	}

	newReserveIn, err := fixedpoint.Add(pool.ReserveIn, amountInAfterFee)
	if err != nil {
		return SwapResult{}, err
	}

	// amountOut = reserveOut - ceil(reserveIn*reserveOut / newReserveIn),
	// computed directly as floor(afterFee*reserveOut / newReserveIn) so the
	// truncation lands on the trader's side of the ledger.
	amountOut, err := fixedpoint.MulDiv(amountInAfterFee, pool.ReserveOut, newReserveIn)
	if err != nil {
		return SwapResult{}, err
	}

	if amountOut.GTE(pool.ReserveOut) {
		return SwapResult{}, fmt.Errorf("%w: out=%s reserveOut=%s", ErrInsufficientLiquidity, amountOut, pool.ReserveOut)
	}
	if amountOut.LT(minAmountOut) {
		return SwapResult{}, fmt.Errorf("%w: out=%s min=%s", ErrSlippageExceeded, amountOut, minAmountOut)
	}

	reserveInAfter, err := fixedpoint.Add(pool.ReserveIn, amountIn)
	if err != nil {
		return SwapResult{}, err
	}

	return SwapResult{
		AmountOut:       amountOut,
		ReserveInAfter:  reserveInAfter,
		ReserveOutAfter: pool.ReserveOut.Sub(amountOut),
	}, nil
}
