/*

Liquidation seizure math. The bonus is an intentional value transfer to the
liquidator, so total value is deliberately not conserved here; the invariant
that must always hold is seized collateral never exceeding the collateral on
the case.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/agrifi-network/ledger-engine/internal/fixedpoint"
	"github.com/agrifi-network/ledger-engine/internal/types"
)

// LiquidationResult is the derived outcome of repaying part of an
// undercollateralized position's debt.
type LiquidationResult struct {
	SeizedCollateral sdkmath.Int `json:"seized_collateral"`
	RemainingDebt    sdkmath.Int `json:"remaining_debt"`
}

// ComputeLiquidation derives the collateral seized (pro-rata share of the
// repaid debt plus the bonus, capped at the available collateral) and the
// debt remaining after repayment. Repaying more than the outstanding debt is
// rejected with ErrOverLiquidation.
func ComputeLiquidation(c types.LiquidationCase, repayAmount sdkmath.Int) (LiquidationResult, error) {
	if err := c.Validate(); err != nil {
		return LiquidationResult{}, err
	}
	if repayAmount.IsNil() {
		return LiquidationResult{}, fixedpoint.ErrNilInput
	}
	if repayAmount.IsNegative() {
		return LiquidationResult{}, fmt.Errorf("%w: repay amount", fixedpoint.ErrNegativeInput)
	}
	if repayAmount.GT(c.Debt) {
		return LiquidationResult{}, fmt.Errorf("%w: repay %s, debt %s", ErrOverLiquidation, repayAmount, c.Debt)
	}

	base, err := fixedpoint.MulDiv(repayAmount, c.Collateral, c.Debt)
	if err != nil {
		return LiquidationResult{}, err
	}

	bonusMultiplier := fixedpoint.BasisPointDenom.AddRaw(int64(c.BonusBps))
	seized, err := fixedpoint.MulDiv(base, bonusMultiplier, fixedpoint.BasisPointDenom)
	if err != nil {
		return LiquidationResult{}, err
	}
	seized = fixedpoint.Min(seized, c.Collateral)

	return LiquidationResult{
		SeizedCollateral: seized,
		RemainingDebt:    c.Debt.Sub(repayAmount),
	}, nil
}
