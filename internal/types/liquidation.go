package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// MaxLiquidationBonusBps caps the liquidator incentive at 20%.
const MaxLiquidationBonusBps = 2_000

// LiquidationCase captures an undercollateralized position at the moment the
// external health-factor check flagged it. The engine only derives the seizure
// and remaining-debt amounts; it never decides eligibility.
type LiquidationCase struct {
	Borrower   string      `json:"borrower"`
	Liquidator string      `json:"liquidator"`
	Collateral sdkmath.Int `json:"collateral"` // Collateral held against the debt
	Debt       sdkmath.Int `json:"debt"`       // Outstanding debt
	BonusBps   uint64      `json:"bonus_bps"`  // Liquidator bonus in basis points
}

// Validate checks the case invariants: positive debt, non-negative
// collateral, and a bonus rate inside the fixed cap.
func (c LiquidationCase) Validate() error {
	if c.Borrower == "" || c.Liquidator == "" {
		return fmt.Errorf("liquidation case: borrower and liquidator are required")
	}
	if c.Collateral.IsNil() || c.Collateral.IsNegative() {
		return fmt.Errorf("liquidation case %s: collateral must be non-negative", c.Borrower)
	}
	if c.Debt.IsNil() || !c.Debt.IsPositive() {
		return fmt.Errorf("liquidation case %s: debt must be positive", c.Borrower)
	}
	if c.BonusBps > MaxLiquidationBonusBps {
		return fmt.Errorf("liquidation case %s: bonus %d bps exceeds cap %d", c.Borrower, c.BonusBps, MaxLiquidationBonusBps)
	}
	return nil
}
