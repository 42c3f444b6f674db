package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// MaxFeeBasisPoints bounds the AMM swap fee; a fee of 10000 bps would consume
// the entire input.
const MaxFeeBasisPoints = 10_000

// AMMPool is a constant-product pool snapshot oriented for a single swap
// direction: ReserveIn is the reserve of the token being sold into the pool.
type AMMPool struct {
	ReserveIn      sdkmath.Int `json:"reserve_in"`
	ReserveOut     sdkmath.Int `json:"reserve_out"`
	FeeBasisPoints uint64      `json:"fee_basis_points"` // Swap fee in basis points, [0, 10000)
}

// Validate checks the pool invariants: both reserves positive and the fee
// rate inside [0, 10000).
func (p AMMPool) Validate() error {
	if p.ReserveIn.IsNil() || !p.ReserveIn.IsPositive() {
		return fmt.Errorf("amm pool: reserve in must be positive")
	}
	if p.ReserveOut.IsNil() || !p.ReserveOut.IsPositive() {
		return fmt.Errorf("amm pool: reserve out must be positive")
	}
	if p.FeeBasisPoints >= MaxFeeBasisPoints {
		return fmt.Errorf("amm pool: fee %d bps outside [0, %d)", p.FeeBasisPoints, MaxFeeBasisPoints)
	}
	return nil
}
